// Package extract talks to the AI extraction service, which turns a trip
// page URL or a brochure PDF into pre-fill values for the wizard.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/apperr"
)

// Source is what to extract from: a URL or a PDF document
type Source struct {
	URL      string
	Document []byte
	Filename string
}

// ResortInfo is the extracted resort draft
type ResortInfo struct {
	Name         string `json:"name"`
	Location     string `json:"location"`
	Capacity     int    `json:"capacity"`
	RoomCount    int    `json:"room_count"`
	Description  string `json:"description"`
	CheckInTime  string `json:"check_in_time"`
	CheckOutTime string `json:"check_out_time"`
	ImageURL     string `json:"image_url"`
}

// ShipInfo is the extracted ship draft
type ShipInfo struct {
	Name        string `json:"name"`
	CruiseLine  string `json:"cruise_line"`
	Capacity    int    `json:"capacity"`
	Decks       int    `json:"decks"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// Venue is an extracted venue with its type name
type Venue struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Day is an extracted schedule or itinerary day. Dates are YYYY-MM-DD.
type Day struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Arrival     string `json:"arrival"`
	Departure   string `json:"departure"`
	AllAboard   string `json:"all_aboard"`
}

// Result is the structured payload returned by the service. Every field is
// optional and untrusted.
type Result struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	StartDate    string      `json:"start_date"`
	EndDate      string      `json:"end_date"`
	PropertyType string      `json:"property_type"`
	Resort       *ResortInfo `json:"resort,omitempty"`
	Ship         *ShipInfo   `json:"ship,omitempty"`
	Venues       []Venue     `json:"venues"`
	Amenities    []string    `json:"amenities"`
	Days         []Day       `json:"days"`
	ImageURLs    []string    `json:"image_urls"`
	Message      string      `json:"message"`
}

// Extractor turns a source into a Result
type Extractor interface {
	Extract(ctx context.Context, src Source) (*Result, error)
}

// Client is the HTTP implementation of Extractor
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *logrus.Logger
}

// NewClient creates an extraction client. An empty baseURL yields a client
// that rejects every request.
func NewClient(baseURL, token string, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Extract sends the source to the service
func (c *Client) Extract(ctx context.Context, src Source) (*Result, error) {
	if c.baseURL == "" {
		return nil, apperr.Validation("source", "the extraction service is not configured")
	}

	var (
		req *http.Request
		err error
	)
	switch {
	case src.URL != "":
		req, err = c.urlRequest(ctx, src.URL)
	case len(src.Document) > 0:
		req, err = c.documentRequest(ctx, src)
	default:
		return nil, apperr.Validation("source", "a URL or a PDF document is required")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build extraction request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Transient(err, "extraction request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperr.Transient(
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
			"extraction service returned an error",
		)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperr.Transient(err, "failed to decode extraction result")
	}

	c.logger.WithFields(logrus.Fields{
		"source":   sourceLabel(src),
		"duration": time.Since(started).String(),
		"days":     len(result.Days),
		"images":   len(result.ImageURLs),
	}).Info("Extraction finished")

	return &result, nil
}

func (c *Client) urlRequest(ctx context.Context, url string) (*http.Request, error) {
	body, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract/url", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) documentRequest(ctx context.Context, src Source) (*http.Request, error) {
	filename := src.Filename
	if filename == "" {
		filename = "document.pdf"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(src.Document); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract/pdf", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

func sourceLabel(src Source) string {
	if src.URL != "" {
		return src.URL
	}
	return src.Filename
}
