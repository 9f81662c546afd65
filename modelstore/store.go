// Package modelstore resolves model locations to local files.
//
// A location is a local path (optionally as a file:// URL), an http(s) URL
// or a gs://bucket/object URL. Remote models are downloaded once into a
// cache directory and reused afterwards.
package modelstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// ErrNotFound is returned when the location does not name an existing model.
var ErrNotFound = errors.New("model not found")

// ErrUnsupportedScheme is returned for URL schemes the store cannot fetch.
var ErrUnsupportedScheme = errors.New("unsupported model location scheme")

// Store resolves model locations, caching remote models under CacheDir.
type Store struct {
	cacheDir   string
	httpClient *http.Client
	gcsOptions []option.ClientOption
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient sets the client used for http(s) locations.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.httpClient = c }
}

// WithGCSOptions sets the client options used for gs:// locations, e.g.
// option.WithCredentialsFile or option.WithEndpoint.
func WithGCSOptions(opts ...option.ClientOption) Option {
	return func(s *Store) { s.gcsOptions = append(s.gcsOptions, opts...) }
}

// New returns a Store caching downloads under cacheDir. An empty cacheDir
// uses a directory under os.UserCacheDir.
func New(cacheDir string, opts ...Option) (*Store, error) {
	if cacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("finding user cache dir: %w", err)
		}
		cacheDir = filepath.Join(base, "ortsession", "models")
	}

	s := &Store{
		cacheDir:   cacheDir,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CacheDir returns the directory remote models are cached in.
func (s *Store) CacheDir() string {
	return s.cacheDir
}

// Resolve returns a local file path holding the model at location,
// downloading it first if it is remote and not yet cached.
func (s *Store) Resolve(ctx context.Context, location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil || len(u.Scheme) <= 1 {
		// Bare paths, including Windows drive letters.
		return resolveLocal(location)
	}

	switch u.Scheme {
	case "file":
		return resolveLocal(u.Path)
	case "http", "https":
		return s.resolveRemote(ctx, location, u, s.downloadHTTP)
	case "gs":
		return s.resolveRemote(ctx, location, u, s.downloadGCS)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func resolveLocal(p string) (string, error) {
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return "", fmt.Errorf("checking model file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNotFound, p)
	}
	return filepath.Abs(p)
}

type downloadFunc func(ctx context.Context, u *url.URL, destinationPath string) (int64, error)

func (s *Store) resolveRemote(ctx context.Context, location string, u *url.URL, download downloadFunc) (string, error) {
	log := zerolog.Ctx(ctx)

	destinationPath := s.CachePath(location)
	if _, err := os.Stat(destinationPath); err == nil {
		log.Debug().Str("location", location).Str("path", destinationPath).Msg("using cached model")
		return destinationPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(destinationPath), 0o755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}

	log.Info().Str("source", location).Str("destination", destinationPath).Msg("downloading model")
	startedAt := time.Now()
	n, err := download(ctx, u, destinationPath)
	if err != nil {
		return "", err
	}
	log.Info().
		Str("source", location).
		Int64("bytes", n).
		Dur("duration", time.Since(startedAt)).
		Msg("downloaded model")

	return destinationPath, nil
}

// CachePath returns where the model at a remote location is cached.
func (s *Store) CachePath(location string) string {
	sum := sha256.Sum256([]byte(location))
	name := "model.onnx"
	if u, err := url.Parse(location); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			name = base
		}
	}
	return filepath.Join(s.cacheDir, hex.EncodeToString(sum[:8]), name)
}

func (s *Store) downloadHTTP(ctx context.Context, u *url.URL, destinationPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", u.Redacted(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, fmt.Errorf("%w: %s", ErrNotFound, u.Redacted())
	case resp.StatusCode != http.StatusOK:
		return 0, fmt.Errorf("fetching %s: unexpected status %s", u.Redacted(), resp.Status)
	}

	n, err := writeToFile(ctx, resp.Body, destinationPath)
	if err != nil {
		return n, fmt.Errorf("downloading %s: %w", u.Redacted(), err)
	}
	return n, nil
}

// writeToFile streams src into a temp file beside destinationPath and
// renames it into place, so a partial download is never visible.
func writeToFile(ctx context.Context, src io.Reader, destinationPath string) (int64, error) {
	log := zerolog.Ctx(ctx)

	tempFile, err := os.CreateTemp(filepath.Dir(destinationPath), "download")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}

	shouldDeleteTempFile := true
	defer func() {
		if shouldDeleteTempFile {
			if err := os.Remove(tempFile.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Warn().Err(err).Str("path", tempFile.Name()).Msg("removing temp file")
			}
		}
	}()

	shouldCloseTempFile := true
	defer func() {
		if shouldCloseTempFile {
			if err := tempFile.Close(); err != nil {
				log.Warn().Err(err).Str("path", tempFile.Name()).Msg("closing temp file")
			}
		}
	}()

	n, err := io.Copy(tempFile, src)
	if err != nil {
		return n, fmt.Errorf("copying from upstream: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return n, fmt.Errorf("closing temp file: %w", err)
	}
	shouldCloseTempFile = false

	if err := os.Rename(tempFile.Name(), destinationPath); err != nil {
		return n, fmt.Errorf("renaming temp file: %w", err)
	}
	shouldDeleteTempFile = false

	return n, nil
}
