// Package objstore stores rendered quote PDFs and signature images under
// opaque keys, on local disk or in an S3-compatible bucket.
package objstore

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/facilidevis/facilidevis/internal/config"
)

// Store puts and gets blobs by key. Get returns common.ErrNotFound for an
// unknown key.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// QuotePDFKey is the key of the rendered PDF of a quote.
func QuotePDFKey(ownerID uint, quoteID string) string {
	return fmt.Sprintf("quotes/%d/%s.pdf", ownerID, quoteID)
}

// SignatureKey is the key of the signature image of an accepted quote.
func SignatureKey(quoteID string) string {
	return "signatures/" + quoteID + ".png"
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + key)[1:]
	if k == "" || k != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return k, nil
}

// New selects the backend from configuration: S3 when a bucket is set,
// local disk otherwise.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	if cfg.S3Bucket != "" {
		return NewS3(ctx, cfg)
	}
	return NewDisk(cfg.Dir)
}
