package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressCompositeRoundTrip(t *testing.T) {
	line2 := "Unit B"
	addr := Address{
		Line1:      "14 Orchard Lane, \"The Barn\"",
		Line2:      &line2,
		City:       "Petaluma",
		State:      "CA",
		PostalCode: "94952",
		Country:    "US",
		Lat:        38.2324,
		Lng:        -122.6367,
	}

	value, err := addr.Value()
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, decoded.Scan(value))

	assert.Equal(t, addr.Line1, decoded.Line1)
	require.NotNil(t, decoded.Line2)
	assert.Equal(t, line2, *decoded.Line2)
	assert.Equal(t, addr.City, decoded.City)
	assert.Equal(t, addr.PostalCode, decoded.PostalCode)
	assert.Equal(t, addr.Country, decoded.Country)
	assert.InDelta(t, addr.Lat, decoded.Lat, 1e-9)
	assert.InDelta(t, addr.Lng, decoded.Lng, 1e-9)
}

func TestAddressValueRequiresCoreFields(t *testing.T) {
	_, err := Address{City: "Petaluma", PostalCode: "94952"}.Value()
	assert.Error(t, err)

	_, err = Address{Line1: "1 Main St", PostalCode: "94952"}.Value()
	assert.Error(t, err)

	_, err = Address{Line1: "1 Main St", City: "Petaluma"}.Value()
	assert.Error(t, err)
}

func TestAddressCountryDefaultsToUS(t *testing.T) {
	addr := Address{
		Line1:      "1 Main St",
		City:       "Petaluma",
		PostalCode: "94952",
	}
	value, err := addr.Value()
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, "US", decoded.Country)
}

func TestAddressScanNil(t *testing.T) {
	var decoded Address
	require.NoError(t, decoded.Scan(nil))
	assert.Empty(t, decoded.Line1)
}
