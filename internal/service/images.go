package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/daygen"
	"github.com/Kerhoff/TripGuide/internal/media"
)

// adoptImage replaces d.ImageURL with a media store URL, fetching the image
// when it is not stored yet. It reports whether a new object was written.
func (s *Service) adoptImage(ctx context.Context, d *daygen.Details) (bool, error) {
	if d.ImageURL == "" {
		return false, nil
	}

	temps := media.NewTempRegistry(s.logger)
	defer func() {
		if err := temps.ReleaseAll(); err != nil {
			s.logger.WithError(err).Warn("Some temporary files could not be released")
		}
	}()

	url, fresh, err := s.pipeline.Adopt(ctx, temps, d.ImageURL)
	if err != nil {
		return false, err
	}
	d.ImageURL = url
	return fresh, nil
}

// releaseImage deletes a stored object unless a trip, day or property still
// uses it. The object is kept when the reference count cannot be read.
func (s *Service) releaseImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	n, err := s.store.Images().CountReferences(ctx, url)
	if err != nil {
		s.logger.WithError(err).WithField("url", url).Warn("Keeping image, reference check failed")
		return
	}
	if n > 0 {
		s.logger.WithFields(logrus.Fields{
			"url":        url,
			"references": n,
		}).Debug("Keeping shared image")
		return
	}
	s.pipeline.DeleteObject(ctx, url)
}
