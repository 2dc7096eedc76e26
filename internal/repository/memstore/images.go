package memstore

import (
	"context"
)

type imageRepository struct{ s *Store }

func (r *imageRepository) CountReferences(ctx context.Context, url string) (int, error) {
	if url == "" {
		return 0, nil
	}
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	n := 0
	count := func(values ...string) {
		for _, v := range values {
			if v == url {
				n++
			}
		}
	}
	for _, t := range d.trips {
		count(t.HeroImageURL)
	}
	for _, e := range d.days {
		count(e.ImageURL)
	}
	for _, res := range d.resorts {
		count(res.ImageURL, res.PropertyMapURL)
	}
	for _, sh := range d.ships {
		count(sh.ImageURL, sh.DeckPlansURL)
	}
	return n, nil
}
