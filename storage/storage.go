// Package storage uploads product images to a gocloud blob bucket and hands
// back their public URL.
package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

var (
	// ErrUnsupportedType rejects anything that is not an image.
	ErrUnsupportedType = errors.New("only image uploads are allowed")
	// ErrTooLarge rejects bodies over the configured limit.
	ErrTooLarge = errors.New("upload exceeds size limit")
	// ErrForeignURL is a URL this store did not hand out.
	ErrForeignURL = errors.New("url is not an uploaded object")
)

const keyPrefix = "products/"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store writes objects under products/ in one bucket.
type Store struct {
	bucket   *blob.Bucket
	baseURL  string
	maxBytes int64
}

// Open opens a bucket by gocloud URL (file://, s3://, mem://). The caller
// must import the matching driver package.
func Open(ctx context.Context, bucketURL, publicBaseURL string, maxBytes int64) (*Store, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %q: %w", bucketURL, err)
	}
	return New(bucket, publicBaseURL, maxBytes), nil
}

func New(bucket *blob.Bucket, publicBaseURL string, maxBytes int64) *Store {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &Store{bucket: bucket, baseURL: strings.TrimRight(publicBaseURL, "/"), maxBytes: maxBytes}
}

// Close releases the bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}

// Upload stores r as products/<uuid>-<filename> and returns its public URL.
// An empty or generic contentType is sniffed from the first bytes.
func (s *Store) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(head) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnsupportedType)
	}

	contentType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(head)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	// Read one byte past the limit to detect oversize bodies
	data, err := io.ReadAll(io.LimitReader(br, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	key := Key(filename)
	if err := s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Delete removes the object behind a URL returned by Upload. A missing
// object is not an error.
func (s *Store) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || !strings.HasPrefix(key, keyPrefix) {
		return fmt.Errorf("%w: %s", ErrForeignURL, url)
	}
	if err := s.bucket.Delete(ctx, key); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// URL joins the public base and the object key.
func (s *Store) URL(key string) string {
	return s.baseURL + "/" + key
}

// Key builds a collision-free object key that keeps a readable name.
func Key(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "._")
	if name == "" {
		name = "upload"
	}
	return keyPrefix + uuid.NewString() + "-" + name
}
