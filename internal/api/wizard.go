package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/Kerhoff/TripGuide/internal/daygen"
	"github.com/Kerhoff/TripGuide/internal/extract"
	"github.com/Kerhoff/TripGuide/internal/media"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/wizard"
)

// ---------------------------------------------------------------------------
// Wizard sessions
// ---------------------------------------------------------------------------
//
// Every mutating wizard route answers with the session view, so the client
// always renders the page the session says it is on.

type methodRequest struct {
	Method string `json:"method"`
}

type extractRequest struct {
	URL string `json:"url"`
}

type propertyTypeRequest struct {
	PropertyType string `json:"property_type"`
}

type selectRequest struct {
	ID int64 `json:"id"`
}

type wizardDayRequest struct {
	Date models.Date `json:"date"`
}

type wizardOrderRequest struct {
	Dates []models.Date `json:"dates"`
}

type imageURLRequest struct {
	wizard.ImageTarget
	URL string `json:"url"`
}

func (s *Server) respondView(w http.ResponseWriter, r *http.Request, v *wizard.View, err error) {
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, v)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.wizard.Start(r.Context())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.logger.WithField("editor", EditorFrom(r.Context())).WithField("session_id", v.ID).Debug("Wizard session opened over HTTP")
	s.respondJSON(w, http.StatusCreated, v)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	v, err := s.wizard.Get(r.Context(), r.PathValue("sid"))
	s.respondView(w, r, v, err)
}

func (s *Server) handleAbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := s.wizard.Abandon(r.Context(), r.PathValue("sid")); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChooseMethod(w http.ResponseWriter, r *http.Request) {
	var req methodRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	method, err := wizard.ParseBuildMethod(req.Method)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	v, err := s.wizard.ChooseMethod(r.Context(), r.PathValue("sid"), method)
	s.respondView(w, r, v, err)
}

// handleExtract pre-fills the draft from a page URL or a brochure PDF.
//
//	POST /api/wizard/sessions/{sid}/extract
//	{"url": "https://example.com/trips/maui"}
//
// or a multipart form with the PDF in the "document" field.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var src extract.Source

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
		file, header, err := r.FormFile("document")
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "document file is required")
			return
		}
		defer file.Close()
		if r.MultipartForm != nil {
			defer r.MultipartForm.RemoveAll()
		}

		doc, err := io.ReadAll(file)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "failed to read document")
			return
		}
		src = extract.Source{Document: doc, Filename: header.Filename}
	} else {
		var req extractRequest
		if ok, msg := s.decodeJSON(r, &req); !ok {
			s.respondError(w, http.StatusBadRequest, msg)
			return
		}
		src = extract.Source{URL: strings.TrimSpace(req.URL)}
	}

	v, err := s.wizard.Extract(r.Context(), r.PathValue("sid"), src)
	s.respondView(w, r, v, err)
}

func (s *Server) handleSetBasicInfo(w http.ResponseWriter, r *http.Request) {
	var req wizard.BasicInfo
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	v, err := s.wizard.SetBasicInfo(r.Context(), r.PathValue("sid"), req)
	s.respondView(w, r, v, err)
}

func (s *Server) handleSetPropertyType(w http.ResponseWriter, r *http.Request) {
	var req propertyTypeRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	pt, err := models.ParsePropertyType(req.PropertyType)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	v, err := s.wizard.SetPropertyType(r.Context(), r.PathValue("sid"), pt)
	s.respondView(w, r, v, err)
}

func (s *Server) handleSetResort(w http.ResponseWriter, r *http.Request) {
	var req wizard.ResortDetails
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	v, err := s.wizard.SetResortDetails(r.Context(), r.PathValue("sid"), req)
	s.respondView(w, r, v, err)
}

func (s *Server) handleSelectResort(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	v, err := s.wizard.SelectResort(r.Context(), r.PathValue("sid"), req.ID)
	s.respondView(w, r, v, err)
}

func (s *Server) handleSetShip(w http.ResponseWriter, r *http.Request) {
	var req wizard.ShipDetails
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	v, err := s.wizard.SetShipDetails(r.Context(), r.PathValue("sid"), req)
	s.respondView(w, r, v, err)
}

func (s *Server) handleSelectShip(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	v, err := s.wizard.SelectShip(r.Context(), r.PathValue("sid"), req.ID)
	s.respondView(w, r, v, err)
}

func (s *Server) handleWizardVenues(w http.ResponseWriter, r *http.Request) {
	var req venuesRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	v, err := s.wizard.SetVenues(r.Context(), r.PathValue("sid"), req.Venues)
	s.respondView(w, r, v, err)
}

func (s *Server) handleWizardAmenities(w http.ResponseWriter, r *http.Request) {
	var req amenitiesRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	v, err := s.wizard.SetAmenities(r.Context(), r.PathValue("sid"), req.Amenities)
	s.respondView(w, r, v, err)
}

func (s *Server) handleWizardAddDay(w http.ResponseWriter, r *http.Request) {
	var req wizardDayRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	v, err := s.wizard.AddDay(r.Context(), r.PathValue("sid"), req.Date)
	s.respondView(w, r, v, err)
}

func (s *Server) handleWizardUpdateDay(w http.ResponseWriter, r *http.Request) {
	date, ok := s.requirePathDate(w, r)
	if !ok {
		return
	}
	var req daygen.Details
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	v, err := s.wizard.UpdateDay(r.Context(), r.PathValue("sid"), date, req)
	s.respondView(w, r, v, err)
}

func (s *Server) handleWizardRemoveDay(w http.ResponseWriter, r *http.Request) {
	date, ok := s.requirePathDate(w, r)
	if !ok {
		return
	}
	v, err := s.wizard.RemoveDay(r.Context(), r.PathValue("sid"), date)
	s.respondView(w, r, v, err)
}

func (s *Server) handleWizardReorderDays(w http.ResponseWriter, r *http.Request) {
	var req wizardOrderRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	v, err := s.wizard.ReorderDays(r.Context(), r.PathValue("sid"), req.Dates)
	s.respondView(w, r, v, err)
}

// handleImageURL imports an image from a remote URL into a slot.
//
//	POST /api/wizard/sessions/{sid}/images/url
//	{"slot": "day", "date": "2025-10-14", "url": "https://example.com/luau.jpg"}
func (s *Server) handleImageURL(w http.ResponseWriter, r *http.Request) {
	var req imageURLRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	v, err := s.wizard.AttachImageURL(r.Context(), r.PathValue("sid"), req.ImageTarget, req.URL)
	s.respondView(w, r, v, err)
}

// handleImageUpload streams a multipart image into a slot. The "slot" and
// "date" fields must come before the "image" file part. A Content-Length
// header on the image part is checked before any byte is spooled.
func (s *Server) handleImageUpload(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		s.respondError(w, http.StatusBadRequest, "multipart/form-data body is required")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	var target wizard.ImageTarget
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			s.respondError(w, http.StatusBadRequest, "image file is required")
			return
		}
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid multipart body")
			return
		}

		switch part.FormName() {
		case "slot":
			value, err := formValue(part)
			if err != nil {
				s.respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			target.Slot = wizard.ImageSlot(value)
		case "date":
			value, err := formValue(part)
			if err != nil {
				s.respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			if target.Date, err = models.ParseDate(value); err != nil {
				s.respondError(w, http.StatusBadRequest, err.Error())
				return
			}
		case "image":
			up := media.Upload{
				Filename:    part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
				Body:        part,
			}
			if raw := part.Header.Get("Content-Length"); raw != "" {
				size, err := strconv.ParseInt(raw, 10, 64)
				if err != nil || size < 0 {
					part.Close()
					s.respondError(w, http.StatusBadRequest, "invalid Content-Length on image part")
					return
				}
				up.Size = size
			}
			v, err := s.wizard.AttachImageUpload(r.Context(), r.PathValue("sid"), target, up)
			part.Close()
			s.respondView(w, r, v, err)
			return
		}
		part.Close()
	}
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	v, err := s.wizard.Advance(r.Context(), r.PathValue("sid"))
	s.respondView(w, r, v, err)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	v, err := s.wizard.Back(r.Context(), r.PathValue("sid"))
	s.respondView(w, r, v, err)
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	trip, err := s.wizard.Commit(r.Context(), r.PathValue("sid"))
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, trip)
}

func (s *Server) requirePathDate(w http.ResponseWriter, r *http.Request) (models.Date, bool) {
	date, err := models.ParseDate(r.PathValue("date"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return models.Date{}, false
	}
	return date, true
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func formValue(r io.Reader) (string, error) {
	b, err := io.ReadAll(io.LimitReader(r, 256))
	if err != nil {
		return "", fmt.Errorf("failed to read form field: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
