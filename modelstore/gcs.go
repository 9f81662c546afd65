package modelstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
)

// downloadGCS copies gs://bucket/object to destinationPath.
func (s *Store) downloadGCS(ctx context.Context, u *url.URL, destinationPath string) (int64, error) {
	bucket := u.Host
	object := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || object == "" {
		return 0, fmt.Errorf("invalid GCS location %q: want gs://bucket/object", u.String())
	}

	client, err := storage.NewClient(ctx, s.gcsOptions...)
	if err != nil {
		return 0, fmt.Errorf("creating GCS storage client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, u.String())
		}
		return 0, fmt.Errorf("opening object from GCS %q: %w", u.String(), err)
	}
	defer r.Close()

	n, err := writeToFile(ctx, r, destinationPath)
	if err != nil {
		return n, fmt.Errorf("downloading from GCS: %w", err)
	}
	return n, nil
}
