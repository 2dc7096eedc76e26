package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/metrics"
	"github.com/Kerhoff/TripGuide/internal/service"
	"github.com/Kerhoff/TripGuide/internal/wizard"
)

// Options configures the HTTP surface
type Options struct {
	// JWTSecret signs editor tokens. Empty disables the editor gate.
	JWTSecret   string
	CORSOrigins []string

	// MediaRoot is served under MediaPath when both are set
	MediaRoot string
	MediaPath string

	// ImportRate and ImportBurst bound extraction and image imports per client
	ImportRate  rate.Limit
	ImportBurst int

	// MaxUploadBytes bounds multipart bodies
	MaxUploadBytes int64
}

// Server provides the admin HTTP API.
type Server struct {
	svc     *service.Service
	wizard  *wizard.Orchestrator
	logger  *logrus.Logger
	opts    Options
	mux     *http.ServeMux
	limiter *rateLimiter
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, orch *wizard.Orchestrator, opts Options, logger *logrus.Logger) *Server {
	if opts.ImportRate == 0 {
		opts.ImportRate = rate.Limit(0.5)
	}
	if opts.ImportBurst == 0 {
		opts.ImportBurst = 5
	}
	if opts.MaxUploadBytes == 0 {
		opts.MaxUploadBytes = 32 << 20
	}

	s := &Server{
		svc:     svc,
		wizard:  orch,
		logger:  logger,
		opts:    opts,
		mux:     http.NewServeMux(),
		limiter: newRateLimiter(opts.ImportRate, opts.ImportBurst),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return metrics.Instrument(c.Handler(s.mux))
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	edit := s.requireEditor
	limited := func(h http.HandlerFunc) http.HandlerFunc { return s.requireEditor(s.limiter.limit(h)) }

	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// API – Trips
	s.mux.HandleFunc("GET /api/trips", s.handleListTrips)
	s.mux.HandleFunc("GET /api/trips/{id}", s.handleGetTrip)
	s.mux.HandleFunc("GET /api/trip-slugs/{slug}", s.handleGetTripBySlug)

	// API – Day entries
	s.mux.HandleFunc("GET /api/trips/{id}/days", s.handleListDays)
	s.mux.HandleFunc("POST /api/trips/{id}/days", edit(s.handleAddDay))
	s.mux.HandleFunc("PUT /api/trips/{id}/days/reorder", edit(s.handleReorderDays))
	s.mux.HandleFunc("PUT /api/days/{id}", edit(s.handleUpdateDay))
	s.mux.HandleFunc("DELETE /api/days/{id}", edit(s.handleDeleteDay))

	// API – Shared content
	s.mux.HandleFunc("GET /api/content", s.handleListContent)
	s.mux.HandleFunc("POST /api/content", edit(s.handleCreateContent))
	s.mux.HandleFunc("GET /api/trips/{id}/content", s.handleListTripContent)
	s.mux.HandleFunc("POST /api/trips/{id}/content", edit(s.handleAssignContent))
	s.mux.HandleFunc("PUT /api/trips/{id}/content/reorder", edit(s.handleReorderContent))
	s.mux.HandleFunc("DELETE /api/trips/{id}/content/{contentID}", edit(s.handleUnassignContent))

	// API – Locations
	s.mux.HandleFunc("GET /api/venue-types", s.handleListVenueTypes)
	s.mux.HandleFunc("GET /api/amenities", s.handleListAmenities)
	s.mux.HandleFunc("GET /api/amenities/stats", s.handleAmenityStats)
	s.mux.HandleFunc("GET /api/resorts", s.handleListResorts)
	s.mux.HandleFunc("GET /api/ships", s.handleListShips)
	s.mux.HandleFunc("DELETE /api/resorts/{id}", edit(s.handleDeleteResort))
	s.mux.HandleFunc("DELETE /api/ships/{id}", edit(s.handleDeleteShip))
	for _, kind := range []string{"resorts", "ships"} {
		s.mux.HandleFunc("GET /api/"+kind+"/{id}/venues", s.handleListVenues)
		s.mux.HandleFunc("PUT /api/"+kind+"/{id}/venues", edit(s.handleSetVenues))
		s.mux.HandleFunc("GET /api/"+kind+"/{id}/amenities", s.handleListPropertyAmenities)
		s.mux.HandleFunc("PUT /api/"+kind+"/{id}/amenities", edit(s.handleSetPropertyAmenities))
	}

	// API – Wizard
	s.mux.HandleFunc("POST /api/wizard/sessions", edit(s.handleStartSession))
	s.mux.HandleFunc("GET /api/wizard/sessions/{sid}", edit(s.handleGetSession))
	s.mux.HandleFunc("DELETE /api/wizard/sessions/{sid}", edit(s.handleAbandonSession))
	s.mux.HandleFunc("PUT /api/wizard/sessions/{sid}/method", edit(s.handleChooseMethod))
	s.mux.HandleFunc("POST /api/wizard/sessions/{sid}/extract", limited(s.handleExtract))
	s.mux.HandleFunc("PUT /api/wizard/sessions/{sid}/basic-info", edit(s.handleSetBasicInfo))
	s.mux.HandleFunc("PUT /api/wizard/sessions/{sid}/property-type", edit(s.handleSetPropertyType))
	s.mux.HandleFunc("PUT /api/wizard/sessions/{sid}/resort", edit(s.handleSetResort))
	s.mux.HandleFunc("PUT /api/wizard/sessions/{sid}/resort/select", edit(s.handleSelectResort))
	s.mux.HandleFunc("PUT /api/wizard/sessions/{sid}/ship", edit(s.handleSetShip))
	s.mux.HandleFunc("PUT /api/wizard/sessions/{sid}/ship/select", edit(s.handleSelectShip))
	s.mux.HandleFunc("PUT /api/wizard/sessions/{sid}/venues", edit(s.handleWizardVenues))
	s.mux.HandleFunc("PUT /api/wizard/sessions/{sid}/amenities", edit(s.handleWizardAmenities))
	s.mux.HandleFunc("POST /api/wizard/sessions/{sid}/days", edit(s.handleWizardAddDay))
	s.mux.HandleFunc("PUT /api/wizard/sessions/{sid}/days/order", edit(s.handleWizardReorderDays))
	s.mux.HandleFunc("PUT /api/wizard/sessions/{sid}/days/{date}", edit(s.handleWizardUpdateDay))
	s.mux.HandleFunc("DELETE /api/wizard/sessions/{sid}/days/{date}", edit(s.handleWizardRemoveDay))
	s.mux.HandleFunc("POST /api/wizard/sessions/{sid}/images/url", limited(s.handleImageURL))
	s.mux.HandleFunc("POST /api/wizard/sessions/{sid}/images/upload", limited(s.handleImageUpload))
	s.mux.HandleFunc("POST /api/wizard/sessions/{sid}/advance", edit(s.handleAdvance))
	s.mux.HandleFunc("POST /api/wizard/sessions/{sid}/back", edit(s.handleBack))
	s.mux.HandleFunc("POST /api/wizard/sessions/{sid}/commit", edit(s.handleCommit))

	// Stored media
	if s.opts.MediaRoot != "" && s.opts.MediaPath != "" {
		prefix := strings.TrimRight(s.opts.MediaPath, "/") + "/"
		s.mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(s.opts.MediaRoot))))
	}
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondAppError maps a classified error to its status code. Unclassified
// errors are logged and reported as 500 without detail.
func (s *Server) respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Request failed")
		s.respondError(w, status, "internal error")
		return
	}

	body := map[string]string{"error": err.Error(), "kind": kind.String()}
	if field := apperr.FieldOf(err); field != "" {
		body["field"] = field
	}
	s.respondJSON(w, status, body)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindResourceLimit, apperr.KindInvariant:
		return http.StatusUnprocessableEntity
	case apperr.KindTransient:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// pathID extracts the {id} path value and converts it to int64.
func pathID(r *http.Request) (int64, error) {
	return pathInt(r, "id")
}

func pathInt(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s in path", name)
	}
	return strconv.ParseInt(raw, 10, 64)
}

// requirePathID writes a 400 and returns false when {name} is not an integer
func (s *Server) requirePathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := pathInt(r, name)
	if err != nil || id <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"wizard_sessions": s.wizard.Sessions().Len(),
	})
}
