package enums

import "fmt"

// ListingCategory represents the canonical produce categories supported by the catalog.
type ListingCategory string

const (
	ListingCategoryVegetable ListingCategory = "vegetable"
	ListingCategoryFruit     ListingCategory = "fruit"
	ListingCategoryGrain     ListingCategory = "grain"
	ListingCategoryDairy     ListingCategory = "dairy"
	ListingCategoryEggs      ListingCategory = "eggs"
	ListingCategoryMeat      ListingCategory = "meat"
	ListingCategoryHoney     ListingCategory = "honey"
	ListingCategoryHerb      ListingCategory = "herb"
	ListingCategoryFlower    ListingCategory = "flower"
	ListingCategoryPreserve  ListingCategory = "preserve"
)

var validListingCategories = []ListingCategory{
	ListingCategoryVegetable,
	ListingCategoryFruit,
	ListingCategoryGrain,
	ListingCategoryDairy,
	ListingCategoryEggs,
	ListingCategoryMeat,
	ListingCategoryHoney,
	ListingCategoryHerb,
	ListingCategoryFlower,
	ListingCategoryPreserve,
}

// String implements fmt.Stringer.
func (c ListingCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ListingCategory.
func (c ListingCategory) IsValid() bool {
	for _, candidate := range validListingCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseListingCategory converts raw input into a ListingCategory.
func ParseListingCategory(value string) (ListingCategory, error) {
	for _, candidate := range validListingCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing category %q", value)
}

// ListingUnit defines the available unit types for pricing.
type ListingUnit string

const (
	ListingUnitKilogram ListingUnit = "kg"
	ListingUnitBunch    ListingUnit = "bunch"
	ListingUnitPiece    ListingUnit = "piece"
	ListingUnitDozen    ListingUnit = "dozen"
	ListingUnitLiter    ListingUnit = "liter"
)

var validListingUnits = []ListingUnit{
	ListingUnitKilogram,
	ListingUnitBunch,
	ListingUnitPiece,
	ListingUnitDozen,
	ListingUnitLiter,
}

// String implements fmt.Stringer.
func (u ListingUnit) String() string {
	return string(u)
}

// IsValid reports whether the value matches a known ListingUnit.
func (u ListingUnit) IsValid() bool {
	for _, candidate := range validListingUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseListingUnit converts raw input into a ListingUnit.
func ParseListingUnit(value string) (ListingUnit, error) {
	for _, candidate := range validListingUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing unit %q", value)
}
