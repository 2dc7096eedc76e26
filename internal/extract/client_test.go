package extract

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/pkg/logger"
)

func TestExtractURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract/url", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://cruise.example.com/venice", body["url"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"name": "Venice to Barcelona",
			"start_date": "2025-10-12",
			"end_date": "2025-10-18",
			"property_type": "ship",
			"ship": {"name": "Scarlet Lady", "cruise_line": "Virgin Voyages", "decks": 17},
			"amenities": ["Spa", "Pool"],
			"days": [{"date": "2025-10-12", "location": "Venice", "departure": "17:00"}],
			"image_urls": ["https://img.example.com/a.jpg"]
		}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret", 0, logger.Discard())
	res, err := c.Extract(context.Background(), Source{URL: "https://cruise.example.com/venice"})
	require.NoError(t, err)

	assert.Equal(t, "Venice to Barcelona", res.Name)
	assert.Equal(t, "ship", res.PropertyType)
	require.NotNil(t, res.Ship)
	assert.Equal(t, 17, res.Ship.Decks)
	require.Len(t, res.Days, 1)
	assert.Equal(t, "Venice", res.Days[0].Location)
	assert.Equal(t, []string{"https://img.example.com/a.jpg"}, res.ImageURLs)
}

func TestExtractDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract/pdf", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "brochure.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.7", string(data))

		io.WriteString(w, `{"name": "Maui Escape", "property_type": "resort", "resort": {"name": "Grand Wailea"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 0, logger.Discard())
	res, err := c.Extract(context.Background(), Source{Document: []byte("%PDF-1.7"), Filename: "brochure.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "Grand Wailea", res.Resort.Name)
}

func TestExtractServiceErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 0, logger.Discard())
	_, err := c.Extract(context.Background(), Source{URL: "https://x.example.com"})
	assert.True(t, apperr.Is(err, apperr.KindTransient))
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestExtractRequiresConfigurationAndSource(t *testing.T) {
	_, err := NewClient("", "", 0, logger.Discard()).Extract(context.Background(), Source{URL: "https://x.example.com"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = NewClient("http://localhost:1", "", 0, logger.Discard()).Extract(context.Background(), Source{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
