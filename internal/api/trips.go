package api

import (
	"net/http"
	"strconv"

	"github.com/Kerhoff/TripGuide/internal/daygen"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository"
)

// ---------------------------------------------------------------------------
// Trips
// ---------------------------------------------------------------------------

// handleListTrips returns trips, newest first.
//
//	GET /api/trips?status_id=2&limit=20&offset=0
func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filters repository.TripFilters

	if raw := q.Get("status_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "status_id must be an integer")
			return
		}
		filters.StatusID = &id
	}
	for name, dst := range map[string]*int{"limit": &filters.Limit, "offset": &filters.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, name+" must be a non-negative integer")
			return
		}
		*dst = n
	}

	trips, err := s.svc.ListTrips(r.Context(), filters)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if trips == nil {
		trips = []*models.Trip{}
	}
	s.respondJSON(w, http.StatusOK, trips)
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid trip id")
		return
	}
	trip, err := s.svc.GetTrip(r.Context(), id)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, trip)
}

func (s *Server) handleGetTripBySlug(w http.ResponseWriter, r *http.Request) {
	trip, err := s.svc.GetTripBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, trip)
}

// ---------------------------------------------------------------------------
// Day entries
// ---------------------------------------------------------------------------

// dayResponse adds the display label to a stored entry
type dayResponse struct {
	*models.DayEntry
	Label string `json:"label"`
}

func daysResponse(days []*models.DayEntry) []dayResponse {
	out := make([]dayResponse, 0, len(days))
	for _, d := range days {
		out = append(out, dayResponse{DayEntry: d, Label: d.Label()})
	}
	return out
}

type addDayRequest struct {
	Date models.Date `json:"date"`
	daygen.Details
}

type reorderRequest struct {
	Order []models.OrderUpdate `json:"order"`
}

func (s *Server) handleListDays(w http.ResponseWriter, r *http.Request) {
	tripID, ok := s.requirePathID(w, r, "id")
	if !ok {
		return
	}
	days, err := s.svc.ListDays(r.Context(), tripID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, daysResponse(days))
}

// handleAddDay adds a pre- or post-trip day.
//
//	POST /api/trips/{id}/days
//	{"date": "2025-10-19", "description": "Farewell brunch"}
func (s *Server) handleAddDay(w http.ResponseWriter, r *http.Request) {
	tripID, ok := s.requirePathID(w, r, "id")
	if !ok {
		return
	}
	var req addDayRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	day, err := s.svc.AddDay(r.Context(), tripID, req.Date, req.Details)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, dayResponse{DayEntry: day, Label: day.Label()})
}

func (s *Server) handleUpdateDay(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requirePathID(w, r, "id")
	if !ok {
		return
	}
	var req daygen.Details
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	day, err := s.svc.UpdateDay(r.Context(), id, req)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, dayResponse{DayEntry: day, Label: day.Label()})
}

func (s *Server) handleDeleteDay(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requirePathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteDay(r.Context(), id); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReorderDays applies a batch of order changes.
//
//	PUT /api/trips/{id}/days/reorder
//	{"order": [{"id": 12, "order_index": 0}, {"id": 9, "order_index": 1}]}
func (s *Server) handleReorderDays(w http.ResponseWriter, r *http.Request) {
	tripID, ok := s.requirePathID(w, r, "id")
	if !ok {
		return
	}
	var req reorderRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	days, err := s.svc.ReorderDays(r.Context(), tripID, req.Order)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, daysResponse(days))
}

// ---------------------------------------------------------------------------
// Shared content
// ---------------------------------------------------------------------------

type assignRequest struct {
	ContentID int64 `json:"content_id"`
}

func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request) {
	contentType := models.ContentType(r.URL.Query().Get("type"))
	if contentType == "" {
		contentType = models.ContentGeneral
	}
	items, err := s.svc.ListContent(r.Context(), contentType)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if items == nil {
		items = []*models.SharedContentItem{}
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateContent(w http.ResponseWriter, r *http.Request) {
	var item models.SharedContentItem
	if ok, msg := s.decodeJSON(r, &item); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	item.ID = 0

	created, err := s.svc.CreateContent(r.Context(), &item)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListTripContent(w http.ResponseWriter, r *http.Request) {
	tripID, ok := s.requirePathID(w, r, "id")
	if !ok {
		return
	}
	links, err := s.svc.ListTripContent(r.Context(), tripID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tripContent(links))
}

func (s *Server) handleAssignContent(w http.ResponseWriter, r *http.Request) {
	tripID, ok := s.requirePathID(w, r, "id")
	if !ok {
		return
	}
	var req assignRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	links, err := s.svc.AssignContent(r.Context(), tripID, req.ContentID)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tripContent(links))
}

func (s *Server) handleUnassignContent(w http.ResponseWriter, r *http.Request) {
	tripID, ok := s.requirePathID(w, r, "id")
	if !ok {
		return
	}
	contentID, ok := s.requirePathID(w, r, "contentID")
	if !ok {
		return
	}
	if err := s.svc.UnassignContent(r.Context(), tripID, contentID); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderContent(w http.ResponseWriter, r *http.Request) {
	tripID, ok := s.requirePathID(w, r, "id")
	if !ok {
		return
	}
	var req reorderRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	links, err := s.svc.ReorderContent(r.Context(), tripID, req.Order)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tripContent(links))
}

func tripContent(links []*models.TripContent) []*models.TripContent {
	if links == nil {
		return []*models.TripContent{}
	}
	return links
}
