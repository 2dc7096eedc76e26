package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository/memstore"
	"github.com/Kerhoff/TripGuide/pkg/logger"
)

type fixture struct {
	store  *memstore.Store
	rec    *Reconciler
	resort models.PropertyRef
	ship   models.PropertyRef
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	resort, err := store.Resorts().Create(ctx, &models.Resort{Name: "Grand Wailea"})
	require.NoError(t, err)
	ship, err := store.Ships().Create(ctx, &models.Ship{Name: "Resilient Lady"})
	require.NoError(t, err)
	_, err = store.VenueTypes().Create(ctx, &models.VenueType{Name: "Restaurant"})
	require.NoError(t, err)

	return &fixture{
		store:  store,
		rec:    New(store, logger.Discard()),
		resort: models.PropertyRef{Type: models.PropertyResort, ID: resort.ID},
		ship:   models.PropertyRef{Type: models.PropertyCruise, ID: ship.ID},
	}
}

func TestVenuesCreateUpdateDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	venues, res, err := f.rec.Venues(ctx, f.resort, []VenueInput{
		{Name: "Humuhumunukunukuapua'a", VenueTypeName: "restaurant"},
		{Name: "Molokini Bar", VenueTypeName: "Bar"},
	})
	require.NoError(t, err)
	require.Len(t, venues, 2)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.TypesCreated)
	assert.Equal(t, f.resort, venues[0].Owner)

	bar := venues[1]
	venues, res, err = f.rec.Venues(ctx, f.resort, []VenueInput{
		{ID: bar.ID, Name: "Molokini Lounge", VenueTypeID: bar.VenueTypeID},
	})
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, "Molokini Lounge", venues[0].Name)

	// a removed venue is gone, not detached
	all, err := f.store.Venues().ListByOwner(ctx, f.resort)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, bar.ID, all[0].ID)
}

func TestVenueCannotMoveToAnotherProperty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	venues, _, err := f.rec.Venues(ctx, f.resort, []VenueInput{{Name: "Spa Grande", VenueTypeName: "Spa"}})
	require.NoError(t, err)
	spa := venues[0]

	_, _, err = f.rec.Venues(ctx, f.ship, []VenueInput{{ID: spa.ID, Name: spa.Name, VenueTypeID: spa.VenueTypeID}})
	assert.True(t, apperr.Is(err, apperr.KindInvariant))

	got, err := f.store.Venues().GetByID(ctx, spa.ID)
	require.NoError(t, err)
	assert.Equal(t, f.resort, got.Owner)
	shipVenues, err := f.store.Venues().ListByOwner(ctx, f.ship)
	require.NoError(t, err)
	assert.Empty(t, shipVenues)
}

func TestUnresolvableVenueTypeFailsWholeCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.rec.Venues(ctx, f.ship, []VenueInput{
		{Name: "The Manor", VenueTypeName: "Club"},
		{Name: "Pink Agave", VenueTypeID: 9999},
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "venues[1].venue_type_id", apperr.FieldOf(err))

	venues, err := f.store.Venues().ListByOwner(ctx, f.ship)
	require.NoError(t, err)
	assert.Empty(t, venues)
	club, err := f.store.VenueTypes().GetByName(ctx, "Club")
	require.NoError(t, err)
	assert.Nil(t, club)

	_, _, err = f.rec.Venues(ctx, f.ship, []VenueInput{{Name: "No Type"}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSharedAmenityHasOneRowAndTwoLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.rec.Amenities(ctx, f.resort, []string{"Spa", "WiFi"})
	require.NoError(t, err)
	_, res, err := f.rec.Amenities(ctx, f.ship, []string{"spa"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Linked)

	all, err := f.store.Amenities().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	usage, err := f.store.Amenities().Usage(ctx)
	require.NoError(t, err)
	for _, u := range usage {
		if u.Name == "Spa" {
			assert.Equal(t, 1, u.Resorts)
			assert.Equal(t, 1, u.Ships)
		}
	}
}

func TestAmenitiesIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	names := []string{"Pool", "Fitness Center", " pool "}

	_, res, err := f.rec.Amenities(ctx, f.ship, names)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 2, res.Linked)

	before := f.store.Writes()
	amenities, res, err := f.rec.Amenities(ctx, f.ship, names)
	require.NoError(t, err)
	assert.Len(t, amenities, 2)
	assert.Equal(t, 0, res.Writes())
	assert.Equal(t, before, f.store.Writes())
}

func TestUnlinkKeepsSharedAmenity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.rec.Amenities(ctx, f.resort, []string{"Pool"})
	require.NoError(t, err)
	_, res, err := f.rec.Amenities(ctx, f.resort, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Unlinked)

	pool, err := f.store.Amenities().GetByName(ctx, "pool")
	require.NoError(t, err)
	assert.NotNil(t, pool)
	linked, err := f.store.Amenities().ListForProperty(ctx, f.resort)
	require.NoError(t, err)
	assert.Empty(t, linked)
}

func TestReconcileNeedsPersistedOwner(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.rec.Amenities(context.Background(), models.PropertyRef{Type: models.PropertyResort}, []string{"Pool"})
	assert.True(t, apperr.Is(err, apperr.KindInvariant))
}

func TestNormalizeNames(t *testing.T) {
	assert.Equal(t, []string{"Kids Club", "WiFi"}, NormalizeNames([]string{" Kids  Club", "", "WiFi", "wifi", "kids club"}))
}
