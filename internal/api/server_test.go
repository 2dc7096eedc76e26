package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/media"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository/memstore"
	"github.com/Kerhoff/TripGuide/internal/service"
	"github.com/Kerhoff/TripGuide/internal/wizard"
	"github.com/Kerhoff/TripGuide/pkg/logger"
)

const testSecret = "s3cret"

type fixture struct {
	store *memstore.Store
	srv   *httptest.Server
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store := memstore.New()

	objects, err := media.NewLocalStore(t.TempDir(), "http://media.test/media")
	require.NoError(t, err)
	pipeline := media.NewPipeline(objects, media.PipelineConfig{TempDir: t.TempDir()}, logger.Discard())

	svc := service.New(store, pipeline, logger.Discard())
	orch := wizard.New(store, pipeline, nil, logger.Discard())
	if opts.CORSOrigins == nil {
		opts.CORSOrigins = []string{"*"}
	}

	srv := httptest.NewServer(NewServer(svc, orch, opts, logger.Discard()).Handler())
	t.Cleanup(srv.Close)
	return &fixture{store: store, srv: srv}
}

func token(t *testing.T, roles ...string) string {
	t.Helper()
	claims := Claims{
		UserID: "editor-1",
		Role:   roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// do sends body as JSON and decodes the response into out when out is set
func (f *fixture) do(t *testing.T, method, path, bearer string, body, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestEditorGate(t *testing.T) {
	f := newFixture(t, Options{JWTSecret: testSecret})

	var trips []models.Trip
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/api/trips", "", nil, &trips))
	assert.Empty(t, trips)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, "POST", "/api/wizard/sessions", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, f.do(t, "POST", "/api/wizard/sessions", "not-a-jwt", nil, nil))
	assert.Equal(t, http.StatusForbidden, f.do(t, "POST", "/api/wizard/sessions", token(t, "viewer"), nil, nil))

	var v wizard.View
	assert.Equal(t, http.StatusCreated, f.do(t, "POST", "/api/wizard/sessions", token(t, "content_manager"), nil, &v))
	assert.Equal(t, wizard.PageChooseMethod, v.Page)
}

func TestStatusFor(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.KindValidation:    http.StatusBadRequest,
		apperr.KindNotFound:      http.StatusNotFound,
		apperr.KindConflict:      http.StatusConflict,
		apperr.KindResourceLimit: http.StatusUnprocessableEntity,
		apperr.KindInvariant:     http.StatusUnprocessableEntity,
		apperr.KindTransient:     http.StatusBadGateway,
		apperr.KindUnknown:       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusFor(kind), kind.String())
	}
}

// walkWizard drives a manual resort trip from start to commit over HTTP
func walkWizard(t *testing.T, f *fixture) models.Trip {
	t.Helper()
	var v wizard.View
	require.Equal(t, http.StatusCreated, f.do(t, "POST", "/api/wizard/sessions", "", nil, &v))
	base := "/api/wizard/sessions/" + v.ID

	steps := []struct {
		method, path string
		body         any
	}{
		{"PUT", "/method", map[string]string{"method": "manual"}},
		{"POST", "/advance", nil},
		{"PUT", "/basic-info", map[string]string{"name": "Maui Escape", "start_date": "2025-10-12", "end_date": "2025-10-18"}},
		{"PUT", "/property-type", map[string]string{"property_type": "resort"}},
		{"POST", "/advance", nil},
		{"PUT", "/resort", map[string]any{"name": "Grand Wailea", "room_count": 776}},
		{"POST", "/advance", nil},
		{"PUT", "/venues", map[string]any{"venues": []map[string]string{{"name": "Humuhumu", "venue_type": "Restaurant"}}}},
		{"PUT", "/amenities", map[string]any{"amenities": []string{"Spa", "Pool"}}},
		{"POST", "/advance", nil},
		{"POST", "/days", map[string]string{"date": "2025-10-19"}},
		{"PUT", "/days/2025-10-12", map[string]string{"description": "Arrival luau"}},
		{"POST", "/advance", nil},
	}
	for _, step := range steps {
		status := f.do(t, step.method, base+step.path, "", step.body, &v)
		require.Equal(t, http.StatusOK, status, "%s %s", step.method, step.path)
	}
	require.Equal(t, wizard.PageFinalize, v.Page)

	var trip models.Trip
	require.Equal(t, http.StatusCreated, f.do(t, "POST", base+"/commit", "", nil, &trip))
	assert.Equal(t, http.StatusNotFound, f.do(t, "GET", base, "", nil, nil))
	return trip
}

func TestWizardOverHTTP(t *testing.T) {
	f := newFixture(t, Options{})
	trip := walkWizard(t, f)
	assert.Equal(t, "maui-escape", trip.Slug)

	var bySlug models.Trip
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/api/trip-slugs/maui-escape", "", nil, &bySlug))
	assert.Equal(t, trip.ID, bySlug.ID)

	var days []dayResponse
	require.Equal(t, http.StatusOK, f.do(t, "GET", "/api/trips/"+itoa(trip.ID)+"/days", "", nil, &days))
	require.Len(t, days, 8)
	assert.Equal(t, "Day 1", days[0].Label)
	assert.Equal(t, "Arrival luau", days[0].Description)
	assert.Equal(t, "Post-Trip", days[7].Label)

	var venues []models.Venue
	require.Equal(t, http.StatusOK, f.do(t, "GET", "/api/resorts/"+itoa(*trip.ResortID)+"/venues", "", nil, &venues))
	assert.Len(t, venues, 1)
}

func TestDomainErrorsMapToStatus(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	always, err := f.store.Content().Create(ctx, &models.SharedContentItem{
		Kind:        models.ContentSection,
		ContentType: models.ContentAlways,
		Title:       "Welcome",
	})
	require.NoError(t, err)
	trip := walkWizard(t, f)
	tripPath := "/api/trips/" + itoa(trip.ID)

	var body map[string]string
	assert.Equal(t, http.StatusNotFound, f.do(t, "GET", "/api/trips/9999", "", nil, &body))
	assert.Equal(t, "not_found", body["kind"])

	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", tripPath+"/days", "", map[string]string{"date": "2025-10-14"}, &body))
	assert.Equal(t, "date", body["field"])

	assert.Equal(t, http.StatusConflict, f.do(t, "POST", tripPath+"/days", "", map[string]string{"date": "2025-10-19"}, &body))

	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, "DELETE", tripPath+"/content/"+itoa(always.ID), "", nil, &body))
	assert.Equal(t, "invariant_violation", body["kind"])

	assert.Equal(t, http.StatusConflict, f.do(t, "DELETE", "/api/resorts/"+itoa(*trip.ResortID), "", nil, &body))
	assert.Equal(t, http.StatusBadRequest, f.do(t, "GET", "/api/trips/abc/days", "", nil, &body))
}

func TestImportsAreRateLimited(t *testing.T) {
	f := newFixture(t, Options{ImportRate: rate.Every(time.Hour), ImportBurst: 1})

	var v wizard.View
	require.Equal(t, http.StatusCreated, f.do(t, "POST", "/api/wizard/sessions", "", nil, &v))
	path := "/api/wizard/sessions/" + v.ID + "/extract"

	// no extractor is configured, so the first call fails validation
	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", path, "", map[string]string{"url": "https://example.com"}, nil))
	assert.Equal(t, http.StatusTooManyRequests, f.do(t, "POST", path, "", map[string]string{"url": "https://example.com"}, nil))
}

// postImage uploads a small PNG into the hero slot. partHeaders are added to
// the image part.
func postImage(t *testing.T, f *fixture, sid string, partHeaders map[string]string) *http.Response {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("slot", "hero"))
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="image"; filename="hero.png"`}
	header["Content-Type"] = []string{"image/png"}
	for k, v := range partHeaders {
		header[k] = []string{v}
	}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(pngBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest("POST", f.srv.URL+"/api/wizard/sessions/"+sid+"/images/upload", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestImageUploadStreamsIntoSlot(t *testing.T) {
	f := newFixture(t, Options{})

	var v wizard.View
	require.Equal(t, http.StatusCreated, f.do(t, "POST", "/api/wizard/sessions", "", nil, &v))

	resp := postImage(t, f, v.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Contains(t, v.Trip.HeroImageURL, "http://media.test/media/")
	assert.Zero(t, v.PendingTempFiles)
}

func TestImageUploadChecksDeclaredPartSize(t *testing.T) {
	f := newFixture(t, Options{})

	var v wizard.View
	require.Equal(t, http.StatusCreated, f.do(t, "POST", "/api/wizard/sessions", "", nil, &v))

	resp := postImage(t, f, v.ID, map[string]string{"Content-Length": itoa(media.DefaultMaxBytes + 1)})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "resource_limit", body["kind"])

	resp = postImage(t, f, v.ID, map[string]string{"Content-Length": "lots"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	require.Equal(t, http.StatusOK, f.do(t, "GET", "/api/wizard/sessions/"+v.ID, "", nil, &v))
	assert.Empty(t, v.Trip.HeroImageURL)
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
