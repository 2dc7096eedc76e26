package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/metrics"
)

// TempRegistry tracks the temporary files of one wizard session. A file is
// tracked when created and deregistered after its deletion was attempted,
// whether or not the deletion worked.
type TempRegistry struct {
	mu     sync.Mutex
	paths  map[string]struct{}
	remove func(string) error
	logger *logrus.Logger
}

// NewTempRegistry creates an empty registry
func NewTempRegistry(logger *logrus.Logger) *TempRegistry {
	return &TempRegistry{
		paths:  make(map[string]struct{}),
		remove: os.Remove,
		logger: logger,
	}
}

// Track registers a temporary file
func (r *TempRegistry) Track(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[path] = struct{}{}
}

// Release deletes a tracked file and forgets it. A file that is already gone
// counts as released. Releasing an untracked path does nothing.
func (r *TempRegistry) Release(path string) error {
	r.mu.Lock()
	_, tracked := r.paths[path]
	r.mu.Unlock()
	if !tracked {
		return nil
	}

	err := r.remove(path)

	r.mu.Lock()
	delete(r.paths, path)
	r.mu.Unlock()

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		metrics.CleanupFailures.WithLabelValues("temp_file").Inc()
		r.logger.WithError(err).WithField("path", path).Warn("Failed to delete temporary file")
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// ReleaseAll attempts to release every tracked file. Each failure is logged
// and collected; none stops the others.
func (r *TempRegistry) ReleaseAll() error {
	var result *multierror.Error
	for _, path := range r.Paths() {
		if err := r.Release(path); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Paths returns the tracked paths in sorted order
func (r *TempRegistry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, 0, len(r.paths))
	for p := range r.paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of outstanding files
func (r *TempRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}
