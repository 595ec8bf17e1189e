package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/student-services-portal/internal/model"
)

var housing = []model.Accommodation{
	{AccommodationID: "acc_1", Name: "Sunset Dorm", Location: "North Campus", PricePerNight: 150},
	{AccommodationID: "acc_2", Name: "Ocean View Apartments", Location: "South Campus", PricePerNight: 250},
	{AccommodationID: "acc_3", Name: "Campus Central", Location: "Central Campus", PricePerNight: 120},
}

func ids(items []model.Accommodation) []string {
	out := make([]string, 0, len(items))
	for _, a := range items {
		out = append(out, a.AccommodationID)
	}
	return out
}

func TestPriceRangeFailsOpen(t *testing.T) {
	for _, q := range []string{"not-a-range", "", "100", "abc-200", "100-xyz"} {
		assert.Equal(t, housing, AccommodationByPrice.Search(q, housing), "query %q", q)
	}
}

func TestPriceRangeInclusive(t *testing.T) {
	assert.Equal(t, []string{"acc_1", "acc_3"}, ids(AccommodationByPrice.Search("100-200", housing)))
	assert.Equal(t, []string{"acc_1"}, ids(AccommodationByPrice.Search("150-150", housing)))
	assert.Empty(t, AccommodationByPrice.Search("300-400", housing))
}

func TestSubstringIgnoresCase(t *testing.T) {
	assert.Equal(t, []string{"acc_2"}, ids(AccommodationByLocation.Search("SOUTH", housing)))
	assert.Equal(t, housing, AccommodationByLocation.Search("  ", housing))
	assert.Equal(t, []string{"acc_1"}, ids(AccommodationByName.Search("sunset", housing)))
}

func TestCatalogStrategies(t *testing.T) {
	clubs := []model.Club{{ClubID: "club_1", Name: "Photography Club"}, {ClubID: "club_2", Name: "Coding Club"}}
	got := ClubByName.Search("coding", clubs)
	require.Len(t, got, 1)
	assert.Equal(t, "club_2", got[0].ClubID)

	rides := []model.Transport{{TransportID: "trans_1", Type: "Bus", Route: "Campus to Downtown"}, {TransportID: "trans_2", Type: "Shuttle", Route: "Campus Loop"}}
	got2 := TransportByName.Search("downtown", rides)
	require.Len(t, got2, 1)
	assert.Equal(t, "trans_1", got2[0].TransportID)
}

func TestContext(t *testing.T) {
	c := NewContext[model.Accommodation](nil)
	_, err := c.ExecuteSearch("x", housing)
	assert.ErrorIs(t, err, ErrNoStrategy)

	c.SetStrategy(AccommodationByPrice)
	got, err := c.ExecuteSearch("200-300", housing)
	require.NoError(t, err)
	assert.Equal(t, []string{"acc_2"}, ids(got))

	c.SetStrategy(AccommodationByLocation)
	got, err = c.ExecuteSearch("campus", housing)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
