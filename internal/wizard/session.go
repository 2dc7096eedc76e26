package wizard

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/media"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/reconcile"
)

// Step is a position in the wizard. The branch pages share a step; the
// page name comes from the step and the branch together.
type Step int

const (
	StepChooseMethod Step = iota
	StepBasicInfo
	StepDetails
	StepVenuesAmenities
	StepDays
	StepFinalize
	StepCommitted
)

// Page is the editor-facing name of the current wizard page
type Page string

const (
	PageChooseMethod          Page = "choose-method"
	PageBasicInfo             Page = "basic-info"
	PageResortDetails         Page = "resort-details"
	PageShipDetails           Page = "ship-details"
	PageResortVenuesAmenities Page = "resort-venues-amenities"
	PageShipVenuesAmenities   Page = "ship-venues-amenities"
	PageResortSchedule        Page = "resort-schedule"
	PageCruiseItinerary       Page = "cruise-itinerary"
	PageFinalize              Page = "finalize"
	PageCommitted             Page = "committed"
)

// BuildMethod is how the editor seeds the draft
type BuildMethod string

const (
	MethodURL    BuildMethod = "url"
	MethodPDF    BuildMethod = "pdf"
	MethodManual BuildMethod = "manual"
)

// ParseBuildMethod validates a build method name
func ParseBuildMethod(s string) (BuildMethod, error) {
	switch m := BuildMethod(s); m {
	case MethodURL, MethodPDF, MethodManual:
		return m, nil
	default:
		return "", apperr.Validation("method", "unknown build method %q", s)
	}
}

// Branch is the property half of a session: a *ResortBranch or a
// *CruiseBranch. The set is closed.
type Branch interface {
	PropertyType() models.PropertyType
	Property() models.Property
	draft() *branchDraft
}

type branchDraft struct {
	Venues    []reconcile.VenueInput
	Amenities []string
}

func (d *branchDraft) draft() *branchDraft { return d }

// ResortBranch holds the resort draft. A non-zero Resort.ID means the editor
// picked an existing resort, which commit updates instead of creating.
type ResortBranch struct {
	Resort models.Resort
	branchDraft
}

func (b *ResortBranch) PropertyType() models.PropertyType { return models.PropertyResort }
func (b *ResortBranch) Property() models.Property         { return &b.Resort }

// CruiseBranch holds the ship draft
type CruiseBranch struct {
	Ship models.Ship
	branchDraft
}

func (b *CruiseBranch) PropertyType() models.PropertyType { return models.PropertyCruise }
func (b *CruiseBranch) Property() models.Property         { return &b.Ship }

func newBranch(pt models.PropertyType) (Branch, error) {
	switch pt {
	case models.PropertyResort:
		return &ResortBranch{}, nil
	case models.PropertyCruise:
		return &CruiseBranch{}, nil
	default:
		return nil, apperr.Validation("property_type", "property type must be resort or cruise")
	}
}

// branchAs returns the session branch as B, refusing pages of the other
// branch.
func branchAs[B Branch](s *Session) (B, error) {
	b, ok := s.branch.(B)
	if !ok {
		var zero B
		return zero, apperr.Invariant("page %s is not part of this %s trip", s.CurrentPage(), s.propertyType())
	}
	return b, nil
}

// ChatMessage is one line of the extraction conversation
type ChatMessage struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session is one editor's in-flight trip draft. It is owned by a single
// client; mu serializes the requests of that client. Nothing in a session
// is persisted before commit.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	closed   bool
	lastSeen atomic.Int64

	step     Step
	method   BuildMethod
	trip     models.Trip
	branch   Branch
	days     []*models.DayEntry
	temps    *media.TempRegistry
	uploaded []string
	chat     []ChatMessage
}

// LastActivity is the time of the last operation on the session
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) propertyType() models.PropertyType {
	if s.branch == nil {
		return models.PropertyUnset
	}
	return s.branch.PropertyType()
}

func (s *Session) entryKind() models.EntryKind {
	return models.EntryKindFor(s.propertyType())
}

// CurrentPage names the page the session is on
func (s *Session) CurrentPage() Page {
	switch s.step {
	case StepChooseMethod:
		return PageChooseMethod
	case StepBasicInfo:
		return PageBasicInfo
	case StepFinalize:
		return PageFinalize
	case StepCommitted:
		return PageCommitted
	}

	_, cruise := s.branch.(*CruiseBranch)
	switch s.step {
	case StepDetails:
		if cruise {
			return PageShipDetails
		}
		return PageResortDetails
	case StepVenuesAmenities:
		if cruise {
			return PageShipVenuesAmenities
		}
		return PageResortVenuesAmenities
	default:
		if cruise {
			return PageCruiseItinerary
		}
		return PageResortSchedule
	}
}

func (s *Session) expect(step Step) error {
	if s.step != step {
		return apperr.Invariant("operation is not available on page %s", s.CurrentPage())
	}
	return nil
}

func (s *Session) say(role, text string, now time.Time) {
	s.chat = append(s.chat, ChatMessage{Role: role, Text: text, At: now})
}

// DayView is a day entry with its display label
type DayView struct {
	models.DayEntry
	Label string `json:"label"`
}

// View is a read-only snapshot of a session
type View struct {
	ID               string                 `json:"id"`
	Page             Page                   `json:"page"`
	Method           BuildMethod            `json:"method,omitempty"`
	PropertyType     models.PropertyType    `json:"property_type"`
	Trip             models.Trip            `json:"trip"`
	Resort           *models.Resort         `json:"resort,omitempty"`
	Ship             *models.Ship           `json:"ship,omitempty"`
	Venues           []reconcile.VenueInput `json:"venues"`
	Amenities        []string               `json:"amenities"`
	Days             []DayView              `json:"days"`
	Chat             []ChatMessage          `json:"chat"`
	PendingTempFiles int                    `json:"pending_temp_files"`
	CreatedAt        time.Time              `json:"created_at"`
	LastActivity     time.Time              `json:"last_activity"`
}

func (s *Session) view() *View {
	v := &View{
		ID:               s.ID,
		Page:             s.CurrentPage(),
		Method:           s.method,
		PropertyType:     s.propertyType(),
		Trip:             s.trip,
		Chat:             append([]ChatMessage(nil), s.chat...),
		PendingTempFiles: s.temps.Len(),
		CreatedAt:        s.CreatedAt,
		LastActivity:     s.LastActivity(),
	}

	switch b := s.branch.(type) {
	case *ResortBranch:
		r := b.Resort
		v.Resort = &r
	case *CruiseBranch:
		sh := b.Ship
		v.Ship = &sh
	}
	if s.branch != nil {
		d := s.branch.draft()
		v.Venues = append([]reconcile.VenueInput(nil), d.Venues...)
		v.Amenities = append([]string(nil), d.Amenities...)
	}

	for _, e := range s.days {
		v.Days = append(v.Days, DayView{DayEntry: *e, Label: e.Label()})
	}
	return v
}
