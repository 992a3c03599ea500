// Package fetcher reads tabular snapshot and bill-of-quantities files (CSV,
// XLSX, JSON) and downloads them over HTTP.
package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads remote material snapshots.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL into path and returns the bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)

	// DownloadIfChanged fetches the URL only when its ETag differs from etag.
	// Returns (body, newETag, changed, error); body is nil when unchanged.
	DownloadIfChanged(ctx context.Context, url string, etag string) (io.ReadCloser, string, bool, error)
}
