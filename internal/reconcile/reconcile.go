// Package reconcile brings a property's venues and amenity links in line with
// a newly selected target set.
//
// Venues are owned by exactly one property: a venue is created for its owner,
// updated in place, and deleted outright when it leaves the selection.
// Amenities are a shared pool: names are found or created, and only the
// junction rows between the property and the pool change.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository"
)

// VenueInput is one selected venue. ID is set for venues that already exist.
// The type is given either by ID or by name; a new name creates the type.
type VenueInput struct {
	ID            int64  `json:"id,omitempty"`
	Name          string `json:"name"`
	VenueTypeID   int64  `json:"venue_type_id,omitempty"`
	VenueTypeName string `json:"venue_type,omitempty"`
	Description   string `json:"description,omitempty"`
}

// Result counts the writes a reconciliation performed
type Result struct {
	TypesCreated int `json:"types_created"`
	Created      int `json:"created"`
	Updated      int `json:"updated"`
	Deleted      int `json:"deleted"`
	Linked       int `json:"linked"`
	Unlinked     int `json:"unlinked"`
}

// Writes returns the total number of writes
func (r *Result) Writes() int {
	return r.TypesCreated + r.Created + r.Updated + r.Deleted + r.Linked + r.Unlinked
}

// Reconciler runs reconciliations against a store. Given a store that is
// already inside a transaction it joins that transaction.
type Reconciler struct {
	store  repository.Store
	logger *logrus.Logger
}

// New creates a reconciler
func New(store repository.Store, logger *logrus.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

func checkOwner(owner models.PropertyRef) error {
	if owner.Type == models.PropertyUnset || owner.ID == 0 {
		return apperr.Invariant("reconciliation needs a persisted property, got %s", owner)
	}
	return nil
}

// Venues makes desired the complete venue list of owner. Every venue type is
// resolved before any venue is written; one unresolvable type fails the call.
// A venue ID that belongs to another property is an invariant violation.
func (r *Reconciler) Venues(ctx context.Context, owner models.PropertyRef, desired []VenueInput) ([]*models.Venue, *Result, error) {
	if err := checkOwner(owner); err != nil {
		return nil, nil, err
	}

	var venues []*models.Venue
	var result *Result

	err := r.store.WithTx(ctx, func(tx repository.Store) error {
		venues, result = nil, &Result{}

		typeIDs := make([]int64, len(desired))
		for i, in := range desired {
			if strings.TrimSpace(in.Name) == "" {
				return apperr.Validation(fmt.Sprintf("venues[%d].name", i), "venue name is required")
			}
			id, created, err := resolveVenueType(ctx, tx, i, in)
			if err != nil {
				return err
			}
			if created {
				result.TypesCreated++
			}
			typeIDs[i] = id
		}

		current, err := tx.Venues().ListByOwner(ctx, owner)
		if err != nil {
			return err
		}
		currentByID := make(map[int64]*models.Venue, len(current))
		for _, v := range current {
			currentByID[v.ID] = v
		}

		keep := make(map[int64]bool, len(desired))
		for i, in := range desired {
			name := strings.TrimSpace(in.Name)

			if in.ID == 0 {
				v, err := tx.Venues().Create(ctx, &models.Venue{
					Name:        name,
					VenueTypeID: typeIDs[i],
					Description: in.Description,
					Owner:       owner,
				})
				if err != nil {
					return err
				}
				result.Created++
				venues = append(venues, v)
				continue
			}

			if keep[in.ID] {
				return apperr.Validation(fmt.Sprintf("venues[%d].id", i), "venue %d is listed twice", in.ID)
			}
			v, ok := currentByID[in.ID]
			if !ok {
				return foreignVenue(ctx, tx, owner, in.ID)
			}
			keep[in.ID] = true

			if v.Name != name || v.VenueTypeID != typeIDs[i] || v.Description != in.Description {
				v.Name = name
				v.VenueTypeID = typeIDs[i]
				v.Description = in.Description
				if v, err = tx.Venues().Update(ctx, v); err != nil {
					return err
				}
				result.Updated++
			}
			venues = append(venues, v)
		}

		for _, v := range current {
			if keep[v.ID] {
				continue
			}
			if err := tx.Venues().Delete(ctx, v.ID); err != nil {
				return err
			}
			result.Deleted++
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"owner":         owner.String(),
		"created":       result.Created,
		"updated":       result.Updated,
		"deleted":       result.Deleted,
		"types_created": result.TypesCreated,
	}).Debug("Venues reconciled")

	return venues, result, nil
}

// foreignVenue explains why a venue ID is not one of owner's venues
func foreignVenue(ctx context.Context, tx repository.Store, owner models.PropertyRef, id int64) error {
	v, err := tx.Venues().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if v == nil {
		return apperr.NotFound("venue with ID %d not found", id)
	}
	return apperr.Invariant("venue %d belongs to %s and cannot be attached to %s", id, v.Owner, owner)
}

func resolveVenueType(ctx context.Context, tx repository.Store, i int, in VenueInput) (int64, bool, error) {
	if in.VenueTypeID != 0 {
		vt, err := tx.VenueTypes().GetByID(ctx, in.VenueTypeID)
		if err != nil {
			return 0, false, err
		}
		if vt == nil {
			return 0, false, apperr.Validation(fmt.Sprintf("venues[%d].venue_type_id", i), "venue type %d does not exist", in.VenueTypeID)
		}
		return vt.ID, false, nil
	}

	name := strings.TrimSpace(in.VenueTypeName)
	if name == "" {
		return 0, false, apperr.Validation(fmt.Sprintf("venues[%d].venue_type", i), "venue type is required")
	}

	vt, err := tx.VenueTypes().GetByName(ctx, name)
	if err != nil {
		return 0, false, err
	}
	if vt != nil {
		return vt.ID, false, nil
	}
	vt, err = tx.VenueTypes().Create(ctx, &models.VenueType{Name: name})
	if err != nil {
		return 0, false, err
	}
	return vt.ID, true, nil
}

// NormalizeNames trims names and drops blanks and case-insensitive repeats,
// keeping the first spelling.
func NormalizeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		n = strings.Join(strings.Fields(n), " ")
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// Amenities makes names the complete amenity set of owner. Unlinking never
// deletes the shared amenity row. Repeating a call with the same names
// performs no writes.
func (r *Reconciler) Amenities(ctx context.Context, owner models.PropertyRef, names []string) ([]*models.Amenity, *Result, error) {
	if err := checkOwner(owner); err != nil {
		return nil, nil, err
	}
	names = NormalizeNames(names)

	var amenities []*models.Amenity
	var result *Result

	err := r.store.WithTx(ctx, func(tx repository.Store) error {
		amenities, result = nil, &Result{}

		current, err := tx.Amenities().ListForProperty(ctx, owner)
		if err != nil {
			return err
		}
		linked := make(map[int64]bool, len(current))
		for _, a := range current {
			linked[a.ID] = true
		}

		wanted := make(map[int64]bool, len(names))
		for _, name := range names {
			a, err := tx.Amenities().GetByName(ctx, name)
			if err != nil {
				return err
			}
			if a == nil {
				if a, err = tx.Amenities().Create(ctx, &models.Amenity{Name: name}); err != nil {
					return err
				}
				result.Created++
			}
			wanted[a.ID] = true
			amenities = append(amenities, a)

			if !linked[a.ID] {
				if err := tx.Amenities().Link(ctx, owner, a.ID); err != nil {
					return err
				}
				result.Linked++
			}
		}

		for _, a := range current {
			if wanted[a.ID] {
				continue
			}
			if err := tx.Amenities().Unlink(ctx, owner, a.ID); err != nil {
				return err
			}
			result.Unlinked++
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"owner":    owner.String(),
		"created":  result.Created,
		"linked":   result.Linked,
		"unlinked": result.Unlinked,
	}).Debug("Amenities reconciled")

	return amenities, result, nil
}
