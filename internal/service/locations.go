package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/reconcile"
	"github.com/Kerhoff/TripGuide/internal/repository"
)

// ListVenueTypes returns every venue type
func (s *Service) ListVenueTypes(ctx context.Context) ([]*models.VenueType, error) {
	return s.store.VenueTypes().List(ctx)
}

// ListAmenities returns the shared amenity pool
func (s *Service) ListAmenities(ctx context.Context) ([]*models.Amenity, error) {
	return s.store.Amenities().List(ctx)
}

// AmenityStats returns every amenity with the number of properties using it
func (s *Service) AmenityStats(ctx context.Context) ([]*models.AmenityUsage, error) {
	return s.store.Amenities().Usage(ctx)
}

// ListResorts returns every resort
func (s *Service) ListResorts(ctx context.Context) ([]*models.Resort, error) {
	return s.store.Resorts().List(ctx)
}

// ListShips returns every ship
func (s *Service) ListShips(ctx context.Context) ([]*models.Ship, error) {
	return s.store.Ships().List(ctx)
}

// GetResort returns a resort by ID
func (s *Service) GetResort(ctx context.Context, id int64) (*models.Resort, error) {
	r, err := s.store.Resorts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.NotFound("resort with ID %d not found", id)
	}
	return r, nil
}

// GetShip returns a ship by ID
func (s *Service) GetShip(ctx context.Context, id int64) (*models.Ship, error) {
	sh, err := s.store.Ships().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, apperr.NotFound("ship with ID %d not found", id)
	}
	return sh, nil
}

// ListVenues returns the venues of a property
func (s *Service) ListVenues(ctx context.Context, owner models.PropertyRef) ([]*models.Venue, error) {
	if err := s.checkOwner(ctx, s.store, owner); err != nil {
		return nil, err
	}
	return s.store.Venues().ListByOwner(ctx, owner)
}

// SetVenues makes venues the complete venue list of a property
func (s *Service) SetVenues(ctx context.Context, owner models.PropertyRef, venues []reconcile.VenueInput) ([]*models.Venue, *reconcile.Result, error) {
	var (
		out []*models.Venue
		res *reconcile.Result
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := s.checkOwner(ctx, tx, owner); err != nil {
			return err
		}
		var err error
		out, res, err = reconcile.New(tx, s.logger).Venues(ctx, owner, venues)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return out, res, nil
}

// ListPropertyAmenities returns the amenities linked to a property
func (s *Service) ListPropertyAmenities(ctx context.Context, owner models.PropertyRef) ([]*models.Amenity, error) {
	if err := s.checkOwner(ctx, s.store, owner); err != nil {
		return nil, err
	}
	return s.store.Amenities().ListForProperty(ctx, owner)
}

// SetPropertyAmenities makes names the complete amenity list of a property
func (s *Service) SetPropertyAmenities(ctx context.Context, owner models.PropertyRef, names []string) ([]*models.Amenity, *reconcile.Result, error) {
	var (
		out []*models.Amenity
		res *reconcile.Result
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := s.checkOwner(ctx, tx, owner); err != nil {
			return err
		}
		var err error
		out, res, err = reconcile.New(tx, s.logger).Amenities(ctx, owner, names)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return out, res, nil
}

// DeleteResort removes a resort with its venues and amenity links. A resort
// still used by a trip cannot be deleted.
func (s *Service) DeleteResort(ctx context.Context, id int64) error {
	r, err := s.GetResort(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Resorts().Delete(ctx, id); err != nil {
		return err
	}
	s.deleteImages(ctx, r)
	return nil
}

// DeleteShip removes a ship with its venues and amenity links. A ship still
// used by a trip cannot be deleted.
func (s *Service) DeleteShip(ctx context.Context, id int64) error {
	sh, err := s.GetShip(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Ships().Delete(ctx, id); err != nil {
		return err
	}
	s.deleteImages(ctx, sh)
	return nil
}

func (s *Service) deleteImages(ctx context.Context, p models.Property) {
	for _, url := range p.ImageURLs() {
		s.releaseImage(ctx, url)
	}
	s.logger.WithFields(logrus.Fields{
		"property": models.RefOf(p).String(),
		"name":     p.DisplayName(),
	}).Info("Property deleted")
}

func (s *Service) checkOwner(ctx context.Context, store repository.Store, owner models.PropertyRef) error {
	var (
		found bool
		err   error
	)
	switch owner.Type {
	case models.PropertyResort:
		var r *models.Resort
		r, err = store.Resorts().GetByID(ctx, owner.ID)
		found = r != nil
	case models.PropertyCruise:
		var sh *models.Ship
		sh, err = store.Ships().GetByID(ctx, owner.ID)
		found = sh != nil
	default:
		return apperr.Validation("property_type", "unknown property type %q", owner.Type)
	}
	if err != nil {
		return err
	}
	if !found {
		return apperr.NotFound("property %s not found", owner)
	}
	return nil
}
