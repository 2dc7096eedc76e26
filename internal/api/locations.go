package api

import (
	"net/http"
	"strings"

	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/reconcile"
)

// ---------------------------------------------------------------------------
// Locations
// ---------------------------------------------------------------------------

type venuesRequest struct {
	Venues []reconcile.VenueInput `json:"venues"`
}

type amenitiesRequest struct {
	Amenities []string `json:"amenities"`
}

func (s *Server) handleListVenueTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.svc.ListVenueTypes(r.Context())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if types == nil {
		types = []*models.VenueType{}
	}
	s.respondJSON(w, http.StatusOK, types)
}

func (s *Server) handleListAmenities(w http.ResponseWriter, r *http.Request) {
	amenities, err := s.svc.ListAmenities(r.Context())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, amenityList(amenities))
}

func (s *Server) handleAmenityStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.AmenityStats(r.Context())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if stats == nil {
		stats = []*models.AmenityUsage{}
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListResorts(w http.ResponseWriter, r *http.Request) {
	resorts, err := s.svc.ListResorts(r.Context())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if resorts == nil {
		resorts = []*models.Resort{}
	}
	s.respondJSON(w, http.StatusOK, resorts)
}

func (s *Server) handleListShips(w http.ResponseWriter, r *http.Request) {
	ships, err := s.svc.ListShips(r.Context())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if ships == nil {
		ships = []*models.Ship{}
	}
	s.respondJSON(w, http.StatusOK, ships)
}

func (s *Server) handleDeleteResort(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requirePathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteResort(r.Context(), id); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteShip(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requirePathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteShip(r.Context(), id); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListVenues(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.requireOwner(w, r)
	if !ok {
		return
	}
	venues, err := s.svc.ListVenues(r.Context(), owner)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, venueList(venues))
}

// handleSetVenues replaces the venue list of a property.
//
//	PUT /api/resorts/{id}/venues
//	{"venues": [{"id": 4, "name": "Humuhumu", "venue_type_id": 1}, {"name": "Luau Grounds", "venue_type": "Event Space"}]}
func (s *Server) handleSetVenues(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.requireOwner(w, r)
	if !ok {
		return
	}
	var req venuesRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	venues, res, err := s.svc.SetVenues(r.Context(), owner, req.Venues)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"venues": venueList(venues), "result": res})
}

func (s *Server) handleListPropertyAmenities(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.requireOwner(w, r)
	if !ok {
		return
	}
	amenities, err := s.svc.ListPropertyAmenities(r.Context(), owner)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, amenityList(amenities))
}

func (s *Server) handleSetPropertyAmenities(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.requireOwner(w, r)
	if !ok {
		return
	}
	var req amenitiesRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	amenities, res, err := s.svc.SetPropertyAmenities(r.Context(), owner, req.Amenities)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"amenities": amenityList(amenities), "result": res})
}

// requireOwner reads the property from /api/{resorts,ships}/{id}/...
func (s *Server) requireOwner(w http.ResponseWriter, r *http.Request) (models.PropertyRef, bool) {
	id, ok := s.requirePathID(w, r, "id")
	if !ok {
		return models.PropertyRef{}, false
	}
	pt := models.PropertyResort
	if strings.HasPrefix(r.URL.Path, "/api/ships/") {
		pt = models.PropertyCruise
	}
	return models.PropertyRef{Type: pt, ID: id}, true
}

func venueList(venues []*models.Venue) []*models.Venue {
	if venues == nil {
		return []*models.Venue{}
	}
	return venues
}

func amenityList(amenities []*models.Amenity) []*models.Amenity {
	if amenities == nil {
		return []*models.Amenity{}
	}
	return amenities
}
