package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/metrics"
)

// PipelineConfig configures a Pipeline
type PipelineConfig struct {
	TempDir      string
	MaxBytes     int64
	MaxPixels    int64
	FetchTimeout time.Duration

	// HTTPClient replaces the default fetch client, which refuses
	// loopback, private and link-local addresses.
	HTTPClient *http.Client
}

// Pipeline validates images and stores them under random keys
type Pipeline struct {
	store    ObjectStore
	client   *http.Client
	logger   *logrus.Logger
	tempDir   string
	maxBytes  int64
	maxPixels int64
	newKey    func(ext string) string
}

// NewPipeline creates a pipeline writing to store
func NewPipeline(store ObjectStore, cfg PipelineConfig, logger *logrus.Logger) *Pipeline {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.FetchTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = newFetchClient(timeout)
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	maxPixels := cfg.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	return &Pipeline{
		store:    store,
		client:   client,
		logger:   logger,
		tempDir:   cfg.TempDir,
		maxBytes:  maxBytes,
		maxPixels: maxPixels,
		newKey: func(ext string) string {
			return "images/" + uuid.NewString() + ext
		},
	}
}

// MaxBytes returns the size ceiling
func (p *Pipeline) MaxBytes() int64 {
	return p.maxBytes
}

// IngestUpload validates and stores an editor upload. The declared type and
// size are checked before any byte is read; the real size is checked again
// while spooling.
func (p *Pipeline) IngestUpload(ctx context.Context, temps *TempRegistry, up Upload) (*Asset, error) {
	asset, err := p.ingestUpload(ctx, temps, up)
	p.record("upload", err)
	return asset, err
}

func (p *Pipeline) ingestUpload(ctx context.Context, temps *TempRegistry, up Upload) (*Asset, error) {
	contentType, ext, err := checkType(up.ContentType)
	if err != nil {
		return nil, err
	}
	if up.Size > p.maxBytes {
		return nil, apperr.ResourceLimit("%s is %d bytes, the limit is %d", up.Filename, up.Size, p.maxBytes)
	}

	return p.spoolAndStore(ctx, temps, up.Body, contentType, ext)
}

// IngestURL downloads an image and stores it. The Content-Length header is
// used to reject early; the downloaded byte count is what decides.
func (p *Pipeline) IngestURL(ctx context.Context, temps *TempRegistry, rawURL string) (*Asset, error) {
	asset, err := p.ingestURL(ctx, temps, rawURL)
	p.record("url", err)
	return asset, err
}

func (p *Pipeline) ingestURL(ctx context.Context, temps *TempRegistry, rawURL string) (*Asset, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperr.Validation("url", "%q is not an http(s) URL", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, apperr.Validation("url", "invalid URL: %v", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, ErrBlockedAddress) {
			return nil, &apperr.Error{Kind: apperr.KindValidation, Field: "url", Msg: "refusing to fetch " + u.Redacted(), Err: err}
		}
		return nil, apperr.Transient(err, "failed to download %s", u.Redacted())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Transient(fmt.Errorf("status %d", resp.StatusCode), "failed to download %s", u.Redacted())
	}
	if resp.ContentLength > p.maxBytes {
		return nil, apperr.ResourceLimit("%s declares %d bytes, the limit is %d", u.Redacted(), resp.ContentLength, p.maxBytes)
	}

	contentType, ext, err := checkType(resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	return p.spoolAndStore(ctx, temps, resp.Body, contentType, ext)
}

// spoolAndStore copies body into a tracked temp file, validates it and
// uploads it. The temp file is released on every path.
func (p *Pipeline) spoolAndStore(ctx context.Context, temps *TempRegistry, body io.Reader, contentType, ext string) (*Asset, error) {
	f, err := os.CreateTemp(p.tempDir, "tripguide-"+uuid.NewString()+"-*"+ext)
	if err != nil {
		return nil, apperr.Transient(err, "failed to create temporary file")
	}
	path := f.Name()
	temps.Track(path)
	defer temps.Release(path)

	n, err := io.Copy(f, io.LimitReader(body, p.maxBytes+1))
	closeErr := f.Close()
	if err != nil {
		return nil, apperr.Transient(err, "failed to read image")
	}
	if closeErr != nil {
		return nil, apperr.Transient(closeErr, "failed to write temporary file")
	}
	if n > p.maxBytes {
		return nil, apperr.ResourceLimit("image exceeds %d bytes", p.maxBytes)
	}
	if n == 0 {
		return nil, apperr.ResourceLimit("image is empty")
	}

	if err := p.checkDimensions(path, contentType); err != nil {
		return nil, err
	}
	if _, err := imaging.Open(path); err != nil {
		return nil, apperr.ResourceLimit("file is not a readable %s image: %v", contentType, err)
	}

	return p.put(ctx, path, contentType, ext, n)
}

// checkDimensions reads only the image header and rejects images whose
// decoded size would exceed the pixel ceiling
func (p *Pipeline) checkDimensions(path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return apperr.Transient(err, "failed to reopen temporary file")
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return apperr.ResourceLimit("file is not a readable %s image: %v", contentType, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > p.maxPixels {
		return apperr.ResourceLimit("image is %dx%d pixels, the limit is %d", cfg.Width, cfg.Height, p.maxPixels)
	}
	return nil
}

// put uploads under a fresh random key, retrying on key collisions
func (p *Pipeline) put(ctx context.Context, path, contentType, ext string, size int64) (*Asset, error) {
	for attempt := 1; attempt <= maxKeyAttempts; attempt++ {
		key := p.newKey(ext)

		f, err := os.Open(path)
		if err != nil {
			return nil, apperr.Transient(err, "failed to reopen temporary file")
		}
		url, err := p.store.Put(ctx, key, f, contentType)
		f.Close()

		if err == nil {
			return &Asset{URL: url, Key: key, ContentType: contentType, Size: size}, nil
		}
		if !errors.Is(err, ErrKeyExists) {
			return nil, apperr.Transient(err, "failed to store image")
		}

		metrics.MediaKeyCollisions.Inc()
		p.logger.WithFields(logrus.Fields{
			"key":     key,
			"attempt": attempt,
		}).Debug("Storage key collision, retrying with a new key")
	}

	return nil, apperr.Transient(ErrKeyExists, "no free storage key after %d attempts", maxKeyAttempts)
}

// Adopt returns rawURL unchanged when it names an object already in durable
// storage and ingests it through IngestURL otherwise. The flag reports whether
// a new object was created.
func (p *Pipeline) Adopt(ctx context.Context, temps *TempRegistry, rawURL string) (string, bool, error) {
	if p.store.Owns(rawURL) {
		return rawURL, false, nil
	}
	asset, err := p.IngestURL(ctx, temps, rawURL)
	if err != nil {
		return "", false, err
	}
	return asset.URL, true, nil
}

// DeleteObject removes a durable object. Failures are logged, never returned.
func (p *Pipeline) DeleteObject(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := p.store.Delete(ctx, url); err != nil {
		metrics.CleanupFailures.WithLabelValues("object").Inc()
		p.logger.WithError(err).WithField("url", url).Warn("Failed to delete stored object")
	}
}

func (p *Pipeline) record(source string, err error) {
	outcome := "stored"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	metrics.MediaIngest.WithLabelValues(source, outcome).Inc()
}
