// Package daygen builds the day-indexed schedule or itinerary rows of a trip
// from its date range.
//
// Days use a signed numbering with three zones: the main span is numbered
// 1..N, user-added pre-trip days count down from -1 and user-added post-trip
// days count up from 100. OrderIndex is a separate display order that
// reordering rewrites without touching DayNumber.
package daygen

import (
	"sort"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/models"
)

// Result is the outcome of a generation pass. Entries is the full canonical
// set in display order; Added and Removed hold the delta against the input.
type Result struct {
	Entries []*models.DayEntry
	Added   []*models.DayEntry
	Removed []*models.DayEntry
}

// Label maps a day number to its display label
func Label(dayNumber int) string {
	return models.DayLabel(dayNumber)
}

// ValidateRange checks that start and end describe a usable main span
func ValidateRange(start, end models.Date) error {
	if start.IsZero() {
		return apperr.Validation("start_date", "start date is required")
	}
	if end.IsZero() {
		return apperr.Validation("end_date", "end date is required")
	}
	if end.Before(start) {
		return apperr.Validation("end_date", "end date %s is before start date %s", end, start)
	}
	if span := end.Sub(start) + 1; span > models.MaxMainSpanDays {
		return apperr.Validation("end_date", "trip spans %d days, at most %d are supported", span, models.MaxMainSpanDays)
	}
	return nil
}

// Generate returns the canonical entry set for start..end.
//
// Existing entries keep their ID, content and relative order; only their day
// number is recomputed. A main-span entry whose date left the range is
// removed. A pre- or post-trip entry is kept wherever its date now falls.
// Missing main-span dates are added at their date position. The input is
// not modified.
func Generate(start, end models.Date, kind models.EntryKind, existing []*models.DayEntry) (*Result, error) {
	if err := ValidateRange(start, end); err != nil {
		return nil, err
	}

	result := &Result{}
	seen := make(map[models.Date]bool, len(existing))
	var kept []*models.DayEntry

	for _, e := range Sorted(existing) {
		n := models.DayNumberFor(start, end, e.Date)
		inMain := n >= 1 && n < models.FirstPostTripDay
		if seen[e.Date] || (e.IsMainSpan() && !inMain) {
			result.Removed = append(result.Removed, e)
			continue
		}
		seen[e.Date] = true

		c := *e
		c.DayNumber = n
		c.Kind = kind
		kept = append(kept, &c)
	}

	for d := start; !d.After(end); d = d.AddDays(1) {
		if seen[d] {
			continue
		}
		entry := &models.DayEntry{
			Kind:      kind,
			Date:      d,
			DayNumber: models.DayNumberFor(start, end, d),
		}
		kept = insertByDate(kept, entry)
		result.Added = append(result.Added, entry)
	}

	compact(kept)
	result.Entries = kept
	return result, nil
}

// AddDay adds a pre- or post-trip day. Dates inside the main span are
// generated, not added, and are rejected. The new entry is placed before the
// first entry in display order whose date is later.
func AddDay(start, end models.Date, kind models.EntryKind, entries []*models.DayEntry, date models.Date) ([]*models.DayEntry, *models.DayEntry, error) {
	if date.IsZero() {
		return nil, nil, apperr.Validation("date", "date is required")
	}
	n := models.DayNumberFor(start, end, date)
	if n >= 1 && n < models.FirstPostTripDay {
		return nil, nil, apperr.Validation("date", "%s is inside the trip; only pre- and post-trip days can be added", date)
	}
	for _, e := range entries {
		if e.Date.Equal(date) {
			return nil, nil, apperr.Conflict("date", "an entry for %s already exists", date)
		}
	}

	entry := &models.DayEntry{Kind: kind, Date: date, DayNumber: n}
	out := insertByDate(copyAll(Sorted(entries)), entry)
	compact(out)
	return out, entry, nil
}

// RemoveDay removes the pre- or post-trip entry on date
func RemoveDay(entries []*models.DayEntry, date models.Date) ([]*models.DayEntry, *models.DayEntry, error) {
	var out []*models.DayEntry
	var removed *models.DayEntry
	for _, e := range copyAll(Sorted(entries)) {
		if e.Date.Equal(date) {
			removed = e
			continue
		}
		out = append(out, e)
	}
	if removed == nil {
		return nil, nil, apperr.NotFound("no entry for %s", date)
	}
	if removed.IsMainSpan() {
		return nil, nil, apperr.Validation("date", "%s is inside the trip; change the trip dates to remove it", date)
	}
	compact(out)
	return out, removed, nil
}

// Reorder sets the display order to the given date sequence, which must name
// every entry exactly once. Day numbers are left alone.
func Reorder(entries []*models.DayEntry, dates []models.Date) ([]*models.DayEntry, error) {
	if len(dates) != len(entries) {
		return nil, apperr.Validation("order", "got %d dates for %d entries", len(dates), len(entries))
	}
	byDate := make(map[models.Date]*models.DayEntry, len(entries))
	for _, e := range copyAll(entries) {
		byDate[e.Date] = e
	}

	out := make([]*models.DayEntry, 0, len(dates))
	for i, d := range dates {
		e, ok := byDate[d]
		if !ok {
			return nil, apperr.Validation("order", "%s does not match exactly one entry", d)
		}
		delete(byDate, d)
		e.OrderIndex = i
		out = append(out, e)
	}
	return out, nil
}

// Sorted returns entries in display order: by OrderIndex, then by date
func Sorted(entries []*models.DayEntry) []*models.DayEntry {
	out := make([]*models.DayEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func insertByDate(seq []*models.DayEntry, entry *models.DayEntry) []*models.DayEntry {
	pos := len(seq)
	for i, e := range seq {
		if e.Date.After(entry.Date) {
			pos = i
			break
		}
	}
	seq = append(seq, nil)
	copy(seq[pos+1:], seq[pos:])
	seq[pos] = entry
	return seq
}

func compact(seq []*models.DayEntry) {
	for i, e := range seq {
		e.OrderIndex = i
	}
}

func copyAll(entries []*models.DayEntry) []*models.DayEntry {
	out := make([]*models.DayEntry, len(entries))
	for i, e := range entries {
		c := *e
		out[i] = &c
	}
	return out
}
