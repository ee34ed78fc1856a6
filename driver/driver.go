// Package driver defines the blob store that holds proof files and metadata.
package driver

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("blob not found")

type Upload struct {
	ContentID string `json:"cid"`
	URL       string `json:"url"`
}

// BlobStore is a write-once content store: every upload is addressed by the id it returns.
type BlobStore interface {
	UploadFile(ctx context.Context, name string, data []byte) (*Upload, error)
	UploadJSON(ctx context.Context, name string, v interface{}) (*Upload, error)
	Fetch(ctx context.Context, contentID string) ([]byte, error)
	URL(contentID string) string
}

// GatewayURL joins a gateway base and a content id.
func GatewayURL(gateway, contentID string) string {
	return strings.TrimRight(gateway, "/") + "/" + contentID
}
