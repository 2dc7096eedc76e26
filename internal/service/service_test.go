package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/daygen"
	"github.com/Kerhoff/TripGuide/internal/media"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/reconcile"
	"github.com/Kerhoff/TripGuide/internal/repository/memstore"
	"github.com/Kerhoff/TripGuide/pkg/logger"
)

var (
	oct11 = models.MustParseDate("2025-10-11")
	oct12 = models.MustParseDate("2025-10-12")
	oct13 = models.MustParseDate("2025-10-13")
	oct14 = models.MustParseDate("2025-10-14")
	oct15 = models.MustParseDate("2025-10-15")
)

type fixture struct {
	store     *memstore.Store
	svc       *Service
	objects   *media.LocalStore
	mediaRoot string
	resort    *models.Resort
	trip      *models.Trip
	welcome   *models.SharedContentItem
}

// newFixture seeds a resort trip running Oct 12 to Oct 14 with its three days
// and one "always" content item.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	root := t.TempDir()
	objects, err := media.NewLocalStore(root, "http://media.test/media")
	require.NoError(t, err)
	pipeline := media.NewPipeline(objects, media.PipelineConfig{TempDir: t.TempDir()}, logger.Discard())

	welcome, err := store.Content().Create(ctx, &models.SharedContentItem{
		Kind:        models.ContentSection,
		ContentType: models.ContentAlways,
		Title:       "Welcome aboard",
	})
	require.NoError(t, err)

	resort, err := store.Resorts().Create(ctx, &models.Resort{Name: "Grand Wailea"})
	require.NoError(t, err)
	trip, err := store.Trips().Create(ctx, &models.Trip{
		Name:      "Maui Escape",
		Slug:      "maui-escape",
		StartDate: oct12,
		EndDate:   oct14,
		StatusID:  models.TripStatusUpcoming,
		ResortID:  &resort.ID,
	})
	require.NoError(t, err)

	res, err := daygen.Generate(oct12, oct14, models.EntrySchedule, nil)
	require.NoError(t, err)
	for _, e := range res.Entries {
		e.TripID = trip.ID
		_, err := store.Days().Create(ctx, e)
		require.NoError(t, err)
	}

	return &fixture{
		store:     store,
		svc:       New(store, pipeline, logger.Discard()),
		objects:   objects,
		mediaRoot: root,
		resort:    resort,
		trip:      trip,
		welcome:   welcome,
	}
}

func labels(days []*models.DayEntry) []string {
	var out []string
	for _, d := range days {
		out = append(out, d.Label())
	}
	return out
}

func (f *fixture) storeObject(t *testing.T, key string) string {
	t.Helper()
	url, err := f.objects.Put(context.Background(), key, strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	return url
}

func (f *fixture) objectExists(key string) bool {
	_, err := os.Stat(filepath.Join(f.mediaRoot, filepath.FromSlash(key)))
	return err == nil
}

func TestTripOverview(t *testing.T) {
	f := newFixture(t)

	trip, days, err := f.svc.TripOverview(context.Background(), " Maui-Escape ")
	require.NoError(t, err)
	assert.Equal(t, f.trip.ID, trip.ID)
	assert.Equal(t, []string{"Day 1", "Day 2", "Day 3"}, labels(days))

	_, _, err = f.svc.TripOverview(context.Background(), "nowhere")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAddAndDeleteDayKeepOrderCompact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pre, err := f.svc.AddDay(ctx, f.trip.ID, oct11, daygen.Details{Description: "Arrival dinner"})
	require.NoError(t, err)
	assert.Equal(t, -1, pre.DayNumber)
	assert.Equal(t, "Arrival dinner", pre.Description)

	_, err = f.svc.AddDay(ctx, f.trip.ID, oct15, daygen.Details{})
	require.NoError(t, err)

	days, err := f.svc.ListDays(ctx, f.trip.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pre-Trip", "Day 1", "Day 2", "Day 3", "Post-Trip"}, labels(days))
	for i, d := range days {
		assert.Equal(t, i, d.OrderIndex)
	}

	_, err = f.svc.AddDay(ctx, f.trip.ID, oct13, daygen.Details{})
	assert.Equal(t, "date", apperr.FieldOf(err))

	require.NoError(t, f.svc.DeleteDay(ctx, pre.ID))
	days, err = f.svc.ListDays(ctx, f.trip.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Day 1", "Day 2", "Day 3", "Post-Trip"}, labels(days))
	for i, d := range days {
		assert.Equal(t, i, d.OrderIndex)
	}

	err = f.svc.DeleteDay(ctx, days[0].ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	days, err = f.svc.ListDays(ctx, f.trip.ID)
	require.NoError(t, err)
	assert.Len(t, days, 4)
}

func TestUpdateDayReplacesImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	days, err := f.svc.ListDays(ctx, f.trip.ID)
	require.NoError(t, err)
	first := f.storeObject(t, "images/luau-1.png")
	second := f.storeObject(t, "images/luau-2.png")

	_, err = f.svc.UpdateDay(ctx, days[0].ID, daygen.Details{Description: "Luau", ImageURL: first})
	require.NoError(t, err)

	_, err = f.svc.UpdateDay(ctx, days[0].ID, daygen.Details{LocationName: "Lahaina"})
	assert.Equal(t, "location_name", apperr.FieldOf(err))

	updated, err := f.svc.UpdateDay(ctx, days[0].ID, daygen.Details{Description: "Luau", ImageURL: second})
	require.NoError(t, err)
	assert.Equal(t, second, updated.ImageURL)
	assert.False(t, f.objectExists("images/luau-1.png"))
	assert.True(t, f.objectExists("images/luau-2.png"))

	_, err = f.svc.UpdateDay(ctx, 9999, daygen.Details{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func imageServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestUpdateDayRefusesUnfetchableImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hits := 0
	srv := imageServer(t, &hits)

	days, err := f.svc.ListDays(ctx, f.trip.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateDay(ctx, days[0].ID, daygen.Details{Description: "Luau", ImageURL: srv.URL + "/luau.png"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "url", apperr.FieldOf(err))
	assert.Zero(t, hits)

	got, err := f.store.Days().GetByID(ctx, days[0].ID)
	require.NoError(t, err)
	assert.Empty(t, got.ImageURL)

	entries, err := os.ReadDir(f.mediaRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpdateDayStoresForeignImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hits := 0
	srv := imageServer(t, &hits)
	pipeline := media.NewPipeline(f.objects, media.PipelineConfig{TempDir: t.TempDir(), HTTPClient: srv.Client()}, logger.Discard())
	svc := New(f.store, pipeline, logger.Discard())

	days, err := svc.ListDays(ctx, f.trip.ID)
	require.NoError(t, err)

	updated, err := svc.UpdateDay(ctx, days[0].ID, daygen.Details{Description: "Luau", ImageURL: srv.URL + "/luau.png"})
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
	assert.True(t, strings.HasPrefix(updated.ImageURL, "http://media.test/media/"))
	assert.True(t, f.objects.Owns(updated.ImageURL))

	again, err := svc.UpdateDay(ctx, days[0].ID, daygen.Details{Description: "Sunset luau", ImageURL: updated.ImageURL})
	require.NoError(t, err)
	assert.Equal(t, updated.ImageURL, again.ImageURL)
	assert.Equal(t, 1, hits, "an unchanged stored URL is not fetched again")
}

func TestSharedImageOutlivesOtherReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	days, err := f.svc.ListDays(ctx, f.trip.ID)
	require.NoError(t, err)
	shared := f.storeObject(t, "images/beach.png")

	_, err = f.svc.UpdateDay(ctx, days[0].ID, daygen.Details{ImageURL: shared})
	require.NoError(t, err)
	_, err = f.svc.UpdateDay(ctx, days[1].ID, daygen.Details{ImageURL: shared})
	require.NoError(t, err)
	pre, err := f.svc.AddDay(ctx, f.trip.ID, oct11, daygen.Details{ImageURL: shared})
	require.NoError(t, err)
	assert.Equal(t, shared, pre.ImageURL)

	_, err = f.svc.UpdateDay(ctx, days[0].ID, daygen.Details{})
	require.NoError(t, err)
	assert.True(t, f.objectExists("images/beach.png"))

	_, err = f.svc.UpdateDay(ctx, days[1].ID, daygen.Details{})
	require.NoError(t, err)
	assert.True(t, f.objectExists("images/beach.png"))

	f.trip.HeroImageURL = shared
	_, err = f.store.Trips().Update(ctx, f.trip)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteDay(ctx, pre.ID))
	assert.True(t, f.objectExists("images/beach.png"), "still the trip hero")

	f.trip.HeroImageURL = ""
	_, err = f.store.Trips().Update(ctx, f.trip)
	require.NoError(t, err)
	post, err := f.svc.AddDay(ctx, f.trip.ID, oct15, daygen.Details{ImageURL: shared})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteDay(ctx, post.ID))
	assert.False(t, f.objectExists("images/beach.png"))
}

func TestReorderDaysAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	days, err := f.svc.ListDays(ctx, f.trip.ID)
	require.NoError(t, err)

	_, err = f.svc.ReorderDays(ctx, f.trip.ID, []models.OrderUpdate{
		{ID: days[2].ID, OrderIndex: 0},
		{ID: 9999, OrderIndex: 1},
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.ReorderDays(ctx, f.trip.ID, []models.OrderUpdate{
		{ID: days[0].ID, OrderIndex: 1},
		{ID: days[1].ID, OrderIndex: 1},
	})
	assert.Equal(t, "order", apperr.FieldOf(err))

	unchanged, err := f.svc.ListDays(ctx, f.trip.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Day 1", "Day 2", "Day 3"}, labels(unchanged))

	reordered, err := f.svc.ReorderDays(ctx, f.trip.ID, []models.OrderUpdate{
		{ID: days[2].ID, OrderIndex: 0},
		{ID: days[0].ID, OrderIndex: 1},
		{ID: days[1].ID, OrderIndex: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Day 3", "Day 1", "Day 2"}, labels(reordered))
}

func TestContentAssignments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	links, err := f.svc.ListTripContent(ctx, f.trip.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, f.welcome.ID, links[0].ContentID)

	err = f.svc.UnassignContent(ctx, f.trip.ID, f.welcome.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvariant))

	faq, err := f.svc.CreateContent(ctx, &models.SharedContentItem{Kind: models.ContentFAQ, Title: " Dress code? "})
	require.NoError(t, err)
	assert.Equal(t, models.ContentGeneral, faq.ContentType)
	assert.Equal(t, "Dress code?", faq.Title)

	_, err = f.svc.AssignContent(ctx, f.trip.ID, faq.ID)
	require.NoError(t, err)
	links, err = f.svc.AssignContent(ctx, f.trip.ID, faq.ID)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	links, err = f.svc.ReorderContent(ctx, f.trip.ID, []models.OrderUpdate{
		{ID: faq.ID, OrderIndex: 0},
		{ID: f.welcome.ID, OrderIndex: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, faq.ID, links[0].ContentID)

	require.NoError(t, f.svc.UnassignContent(ctx, f.trip.ID, faq.ID))
	links, err = f.svc.ListTripContent(ctx, f.trip.ID)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	_, err = f.svc.AssignContent(ctx, f.trip.ID, 9999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = f.svc.CreateContent(ctx, &models.SharedContentItem{Kind: "banner", Title: "x"})
	assert.Equal(t, "kind", apperr.FieldOf(err))
}

func TestPropertyRelationsNeedExistingOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := models.RefOf(f.resort)

	_, _, err := f.svc.SetVenues(ctx, models.PropertyRef{Type: models.PropertyCruise, ID: 9999}, nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	venues, res, err := f.svc.SetVenues(ctx, owner, []reconcile.VenueInput{
		{Name: "Humuhumu", VenueTypeName: "Restaurant"},
	})
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Equal(t, 1, res.TypesCreated)

	amenities, _, err := f.svc.SetPropertyAmenities(ctx, owner, []string{"Spa", "spa", "Pool"})
	require.NoError(t, err)
	assert.Len(t, amenities, 2)

	listed, err := f.svc.ListPropertyAmenities(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	stats, err := f.svc.AmenityStats(ctx)
	require.NoError(t, err)
	for _, s := range stats {
		assert.Equal(t, 1, s.Resorts)
		assert.Equal(t, 0, s.Ships)
	}
}

func TestDeleteResort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.DeleteResort(ctx, f.resort.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	unused, err := f.store.Resorts().Create(ctx, &models.Resort{
		Name:     "Turtle Bay",
		ImageURL: f.storeObject(t, "images/turtle-bay.png"),
	})
	require.NoError(t, err)
	_, _, err = f.svc.SetPropertyAmenities(ctx, models.RefOf(unused), []string{"Golf"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteResort(ctx, unused.ID))
	assert.False(t, f.objectExists("images/turtle-bay.png"))

	_, err = f.svc.GetResort(ctx, unused.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	amenities, err := f.svc.ListAmenities(ctx)
	require.NoError(t, err)
	assert.Len(t, amenities, 1, "shared amenity rows outlive the property")
}

func TestAdvanceTripStatuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var moved []int64
	record := func(ctx context.Context, trip *models.Trip, from int64) {
		moved = append(moved, trip.StatusID)
	}

	n, err := f.svc.AdvanceTripStatuses(ctx, oct11, record)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.svc.AdvanceTripStatuses(ctx, oct13, record)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.svc.AdvanceTripStatuses(ctx, oct15, record)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{models.TripStatusCurrent, models.TripStatusPast}, moved)

	trip, err := f.svc.GetTrip(ctx, f.trip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TripStatusPast, trip.StatusID)
}
