package wizard

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/daygen"
	"github.com/Kerhoff/TripGuide/internal/extract"
	"github.com/Kerhoff/TripGuide/internal/media"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/reconcile"
	"github.com/Kerhoff/TripGuide/internal/repository"
	"github.com/Kerhoff/TripGuide/internal/repository/memstore"
	"github.com/Kerhoff/TripGuide/pkg/logger"
)

var (
	oct12 = models.MustParseDate("2025-10-12")
	oct13 = models.MustParseDate("2025-10-13")
	oct18 = models.MustParseDate("2025-10-18")
	oct19 = models.MustParseDate("2025-10-19")
)

type stubExtractor struct {
	res *extract.Result
	err error
}

func (e *stubExtractor) Extract(ctx context.Context, src extract.Source) (*extract.Result, error) {
	return e.res, e.err
}

type recordingNotifier struct {
	trips []*models.Trip
}

func (n *recordingNotifier) TripCommitted(ctx context.Context, trip *models.Trip) error {
	n.trips = append(n.trips, trip)
	return nil
}

type fixture struct {
	store     *memstore.Store
	orch      *Orchestrator
	mediaRoot string
	images    *httptest.Server
	extractor *stubExtractor
	notifier  *recordingNotifier
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(2, 2, color.RGBA{B: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memstore.New())
}

func newFixtureWithStore(t *testing.T, store *memstore.Store, wrap ...func(repository.Store) repository.Store) *fixture {
	t.Helper()

	img := pngBytes(t)
	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hero.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(img)
	}))
	t.Cleanup(images.Close)

	root := t.TempDir()
	objects, err := media.NewLocalStore(root, "http://media.test/media")
	require.NoError(t, err)
	pipeline := media.NewPipeline(objects, media.PipelineConfig{TempDir: t.TempDir(), HTTPClient: images.Client()}, logger.Discard())

	var repo repository.Store = store
	for _, w := range wrap {
		repo = w(repo)
	}

	f := &fixture{
		store:     store,
		mediaRoot: root,
		images:    images,
		extractor: &stubExtractor{},
		notifier:  &recordingNotifier{},
	}
	f.orch = New(repo, pipeline, f.extractor, logger.Discard())
	f.orch.SetNotifier(f.notifier)
	return f
}

func must(t *testing.T) func(v *View, err error) *View {
	return func(v *View, err error) *View {
		t.Helper()
		require.NoError(t, err)
		return v
	}
}

func (f *fixture) objects(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(f.mediaRoot, "images"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// toBasicInfo starts a manual session and moves it to the basic info page
func (f *fixture) toBasicInfo(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	v := must(t)(f.orch.Start(ctx))
	must(t)(f.orch.ChooseMethod(ctx, v.ID, MethodManual))
	must(t)(f.orch.Advance(ctx, v.ID))
	return v.ID
}

// resortAtFinalize walks a resort trip through every page
func (f *fixture) resortAtFinalize(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	id := f.toBasicInfo(t)

	must(t)(f.orch.SetBasicInfo(ctx, id, BasicInfo{Name: "Maui Escape", StartDate: oct12, EndDate: oct18}))
	must(t)(f.orch.SetPropertyType(ctx, id, models.PropertyResort))
	must(t)(f.orch.Advance(ctx, id))

	must(t)(f.orch.SetResortDetails(ctx, id, ResortDetails{Name: "Grand Wailea", Location: "Maui", CheckInTime: "15:00"}))
	must(t)(f.orch.Advance(ctx, id))

	must(t)(f.orch.SetVenues(ctx, id, []reconcile.VenueInput{{Name: "Humuhumunukunukuapua'a", VenueTypeName: "Restaurant"}}))
	must(t)(f.orch.SetAmenities(ctx, id, []string{"Spa", "Pool", "spa"}))
	must(t)(f.orch.Advance(ctx, id))

	must(t)(f.orch.AddDay(ctx, id, oct19))
	v := must(t)(f.orch.Advance(ctx, id))
	require.Equal(t, PageFinalize, v.Page)
	return id
}

func TestCommitPersistsWholeTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Content().Create(ctx, &models.SharedContentItem{
		Kind: models.ContentSection, ContentType: models.ContentAlways, Title: "Packing list",
	})
	require.NoError(t, err)

	id := f.resortAtFinalize(t)
	trip, err := f.orch.Commit(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "maui-escape", trip.Slug)
	require.NotNil(t, trip.ResortID)
	assert.Nil(t, trip.ShipID)
	assert.Equal(t, models.TripStatusDraft, trip.StatusID)

	days, err := f.store.Days().ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, days, 8)
	assert.Equal(t, "Day 1", days[0].Label())
	assert.Equal(t, "Post-Trip", days[7].Label())
	assert.Equal(t, 100, days[7].DayNumber)
	assert.Equal(t, models.EntrySchedule, days[0].Kind)

	owner := models.PropertyRef{Type: models.PropertyResort, ID: *trip.ResortID}
	venues, err := f.store.Venues().ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, venues, 1)
	amenities, err := f.store.Amenities().ListForProperty(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, amenities, 2)

	content, err := f.store.Content().ListForTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Len(t, content, 1)

	_, err = f.orch.Get(ctx, id)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, 0, f.orch.Sessions().Len())

	require.Len(t, f.notifier.trips, 1)
	assert.Equal(t, trip.ID, f.notifier.trips[0].ID)
}

func TestPagesRefuseOtherSteps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v := must(t)(f.orch.Start(ctx))
	_, err := f.orch.SetBasicInfo(ctx, v.ID, BasicInfo{Name: "Too early"})
	assert.True(t, apperr.Is(err, apperr.KindInvariant))

	id := f.toBasicInfo(t)
	must(t)(f.orch.SetBasicInfo(ctx, id, BasicInfo{Name: "Maui", StartDate: oct12, EndDate: oct18}))
	must(t)(f.orch.SetPropertyType(ctx, id, models.PropertyResort))
	v = must(t)(f.orch.Advance(ctx, id))
	assert.Equal(t, PageResortDetails, v.Page)

	_, err = f.orch.SetShipDetails(ctx, id, ShipDetails{Name: "Scarlet Lady"})
	assert.True(t, apperr.Is(err, apperr.KindInvariant))
	_, err = f.orch.SelectShip(ctx, id, 1)
	assert.True(t, apperr.Is(err, apperr.KindInvariant))
	_, err = f.orch.SetPropertyType(ctx, id, models.PropertyCruise)
	assert.True(t, apperr.Is(err, apperr.KindInvariant))
	_, err = f.orch.Commit(ctx, id)
	assert.True(t, apperr.Is(err, apperr.KindInvariant))
}

func TestAdvanceValidatesCurrentPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v := must(t)(f.orch.Start(ctx))
	_, err := f.orch.Back(ctx, v.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvariant))
	_, err = f.orch.Advance(ctx, v.ID)
	assert.Equal(t, "method", apperr.FieldOf(err))
	_, err = f.orch.ChooseMethod(ctx, v.ID, "fax")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	id := f.toBasicInfo(t)
	_, err = f.orch.Advance(ctx, id)
	assert.Equal(t, "name", apperr.FieldOf(err))

	must(t)(f.orch.SetBasicInfo(ctx, id, BasicInfo{Name: "Maui", StartDate: oct12, EndDate: oct18}))
	_, err = f.orch.Advance(ctx, id)
	assert.Equal(t, "property_type", apperr.FieldOf(err))

	must(t)(f.orch.SetPropertyType(ctx, id, models.PropertyCruise))
	must(t)(f.orch.Advance(ctx, id))
	_, err = f.orch.Advance(ctx, id)
	assert.Equal(t, "ship.name", apperr.FieldOf(err))

	v = must(t)(f.orch.Back(ctx, id))
	assert.Equal(t, PageBasicInfo, v.Page)
}

func TestBasicInfoRegeneratesDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.toBasicInfo(t)

	v := must(t)(f.orch.SetBasicInfo(ctx, id, BasicInfo{Name: "Maui", StartDate: oct12}))
	assert.Empty(t, v.Days)

	v = must(t)(f.orch.SetBasicInfo(ctx, id, BasicInfo{Name: "Maui", StartDate: oct12, EndDate: oct18}))
	require.Len(t, v.Days, 7)
	for i, d := range v.Days {
		assert.Equal(t, i+1, d.DayNumber)
		assert.Equal(t, i, d.OrderIndex)
	}
	assert.Equal(t, "Day 7", v.Days[6].Label)

	must(t)(f.orch.SetPropertyType(ctx, id, models.PropertyResort))
	must(t)(f.orch.Advance(ctx, id))
	must(t)(f.orch.SetResortDetails(ctx, id, ResortDetails{Name: "Grand Wailea"}))
	must(t)(f.orch.Advance(ctx, id))
	must(t)(f.orch.Advance(ctx, id))
	must(t)(f.orch.UpdateDay(ctx, id, oct13, daygen.Details{Description: "Snorkel at Molokini"}))
	_, err := f.orch.UpdateDay(ctx, id, oct13, daygen.Details{LocationName: "Lahaina"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	for i := 0; i < 3; i++ {
		must(t)(f.orch.Back(ctx, id))
	}
	v = must(t)(f.orch.SetBasicInfo(ctx, id, BasicInfo{Name: "Maui", StartDate: oct12, EndDate: models.MustParseDate("2025-10-20")}))
	require.Len(t, v.Days, 9)
	assert.Equal(t, "Snorkel at Molokini", v.Days[1].Description)

	_, err = f.orch.SetBasicInfo(ctx, id, BasicInfo{Name: "Maui", StartDate: oct18, EndDate: oct12})
	assert.Equal(t, "end_date", apperr.FieldOf(err))
	v = must(t)(f.orch.Get(ctx, id))
	assert.Len(t, v.Days, 9)
}

func TestChangingPropertyTypeDiscardsBranch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.toBasicInfo(t)

	must(t)(f.orch.SetBasicInfo(ctx, id, BasicInfo{Name: "Hawaii", StartDate: oct12, EndDate: oct18}))
	must(t)(f.orch.SetPropertyType(ctx, id, models.PropertyResort))
	must(t)(f.orch.Advance(ctx, id))
	must(t)(f.orch.SetResortDetails(ctx, id, ResortDetails{Name: "Grand Wailea"}))
	must(t)(f.orch.Advance(ctx, id))
	must(t)(f.orch.SetAmenities(ctx, id, []string{"Spa"}))
	must(t)(f.orch.Advance(ctx, id))
	must(t)(f.orch.UpdateDay(ctx, id, oct12, daygen.Details{Description: "Arrive"}))

	for i := 0; i < 3; i++ {
		must(t)(f.orch.Back(ctx, id))
	}
	v := must(t)(f.orch.SetPropertyType(ctx, id, models.PropertyCruise))

	assert.Nil(t, v.Resort)
	require.NotNil(t, v.Ship)
	assert.Empty(t, v.Ship.Name)
	assert.Empty(t, v.Amenities)
	require.Len(t, v.Days, 7)
	assert.Equal(t, models.EntryItinerary, v.Days[0].Kind)
	assert.Empty(t, v.Days[0].Description)

	must(t)(f.orch.SetBasicInfo(ctx, id, BasicInfo{Name: "Hawaii", StartDate: oct12, EndDate: oct18}))
	v = must(t)(f.orch.Advance(ctx, id))
	assert.Equal(t, PageShipDetails, v.Page)
}

func TestItineraryDayDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.toBasicInfo(t)

	must(t)(f.orch.SetBasicInfo(ctx, id, BasicInfo{Name: "Venice to Barcelona", StartDate: oct12, EndDate: oct18}))
	must(t)(f.orch.SetPropertyType(ctx, id, models.PropertyCruise))
	must(t)(f.orch.Advance(ctx, id))
	must(t)(f.orch.SetShipDetails(ctx, id, ShipDetails{Name: "Scarlet Lady", Decks: 17}))
	must(t)(f.orch.Advance(ctx, id))
	v := must(t)(f.orch.Advance(ctx, id))
	assert.Equal(t, PageCruiseItinerary, v.Page)

	v = must(t)(f.orch.UpdateDay(ctx, id, oct12, daygen.Details{LocationName: "Venice", DepartureTime: "17:00"}))
	assert.Equal(t, "Venice", v.Days[0].LocationName)

	_, err := f.orch.UpdateDay(ctx, id, oct13, daygen.Details{ArrivalTime: "7am"})
	assert.Equal(t, "arrival_time", apperr.FieldOf(err))

	must(t)(f.orch.AddDay(ctx, id, models.MustParseDate("2025-10-11")))
	_, err = f.orch.AddDay(ctx, id, oct13)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	v = must(t)(f.orch.Get(ctx, id))
	require.Len(t, v.Days, 8)
	assert.Equal(t, -1, v.Days[0].DayNumber)
	assert.Equal(t, "Pre-Trip", v.Days[0].Label)

	order := make([]models.Date, 0, len(v.Days))
	for i := len(v.Days) - 1; i >= 0; i-- {
		order = append(order, v.Days[i].Date)
	}
	v = must(t)(f.orch.ReorderDays(ctx, id, order))
	assert.Equal(t, oct18, v.Days[0].Date)
	assert.Equal(t, 7, v.Days[0].DayNumber)
}

func TestSweepAbandonsIdleSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clock := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	f.orch.now = func() time.Time { return clock }

	stale := must(t)(f.orch.Start(ctx))
	active := must(t)(f.orch.Start(ctx))

	clock = clock.Add(3 * time.Hour)
	must(t)(f.orch.Get(ctx, active.ID))

	assert.Equal(t, 1, f.orch.Sweep(ctx, 2*time.Hour))
	_, err := f.orch.Get(ctx, stale.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = f.orch.Get(ctx, active.ID)
	assert.NoError(t, err)

	assert.Equal(t, 0, f.orch.Sweep(ctx, 2*time.Hour))
}
