package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luciamendez/farmlink-backend/pkg/db/models"
	"github.com/luciamendez/farmlink-backend/pkg/enums"
)

// Repository owns listing persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create persists a new listing.
func (r *Repository) Create(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// Save writes every field of the listing back.
func (r *Repository) Save(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if err := r.db.WithContext(ctx).Save(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// FindByID loads a listing regardless of visibility.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// ListByFarmer returns all listings owned by the farmer, newest first.
func (r *Repository) ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("farmer_id = ?", farmerID).
		Order("created_at DESC").
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// SearchVisible returns visible, in-stock listings whose geohash falls
// under any of the given prefixes, optionally narrowed by category and
// organic flag. Exact distance filtering happens in the service.
func (r *Repository) SearchVisible(ctx context.Context, prefixes []string, category *enums.ListingCategory, organic *bool) ([]models.Listing, error) {
	if len(prefixes) == 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).
		Where("is_visible = ?", true).
		Where("stock_qty > 0")

	cells := r.db.Where("geohash LIKE ?", prefixes[0]+"%")
	for _, prefix := range prefixes[1:] {
		cells = cells.Or("geohash LIKE ?", prefix+"%")
	}
	query = query.Where(cells)

	if category != nil {
		query = query.Where("category = ?", *category)
	}
	if organic != nil {
		query = query.Where("is_organic = ?", *organic)
	}

	var listings []models.Listing
	if err := query.Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// AdjustStock applies a signed delta guarded against going negative.
// Returns the number of rows changed; zero means the guard rejected it.
func (r *Repository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE listings
		SET stock_qty = stock_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_qty + ? >= 0
	`, delta, id, delta)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
