package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultChunkSize is the read size between progress reports.
const DefaultChunkSize = 8 * 1024

// HTTPFetcher opens archive downloads over HTTP
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a new HTTP fetcher. Downloads have no overall
// timeout; they are bounded by the caller's context.
func NewHTTPFetcher(userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{},
		userAgent: userAgent,
	}
}

// Fetch GETs rawURL and returns the body with its Content-Length, or -1 when absent.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("%w: %s returned status %d", ErrFetch, rawURL, resp.StatusCode)
	}

	return resp.Body, resp.ContentLength, nil
}

// Downloader streams an archive into a temporary artifact in fixed-size
// chunks, reporting progress and honoring cancellation between chunks.
type Downloader struct {
	fetcher   Fetcher
	chunkSize int
	dir       string
	logger    *log.Logger
}

// NewDownloader creates a downloader writing artifacts to dir ("" for the OS temp dir)
func NewDownloader(fetcher Fetcher, dir string) *Downloader {
	return &Downloader{
		fetcher:   fetcher,
		chunkSize: DefaultChunkSize,
		dir:       dir,
		logger:    log.New(io.Discard),
	}
}

// WithChunkSize sets the read size between progress reports
func (d *Downloader) WithChunkSize(n int) *Downloader {
	if n > 0 {
		d.chunkSize = n
	}
	return d
}

// WithLogger sets the logger
func (d *Downloader) WithLogger(l *log.Logger) *Downloader {
	d.logger = l
	return d
}

// Download writes the body at rawURL to a new temporary file and returns its
// path. The path is registered on token while it is written. On
// cancellation or any error the partial file is removed; cancellation
// returns ErrCancelled.
func (d *Downloader) Download(ctx context.Context, token *Token, rawURL string, reporter Reporter) (string, error) {
	body, total, err := d.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if token.IsCancelled() {
			return "", ErrCancelled
		}
		return "", err
	}
	defer body.Close()

	out, err := os.CreateTemp(d.dir, "bcupdater-*-"+artifactName(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: creating temporary artifact: %v", ErrIO, err)
	}
	token.SetArtifact(out.Name())
	d.logger.Debug("downloading", "url", rawURL, "artifact", out.Name(), "total", total)

	done, err := d.copyChunks(out, body, token, total, reporter)
	closeErr := out.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("%w: closing temporary artifact: %v", ErrIO, closeErr)
	}
	if err == nil && total >= 0 && done != total {
		err = fmt.Errorf("%w: received %d of %d bytes", ErrFetch, done, total)
	}
	if err != nil {
		if rmErr := token.RemoveArtifact(); rmErr != nil {
			d.logger.Warn("failed to remove partial download", "path", out.Name(), "err", rmErr)
		}
		return "", err
	}

	d.logger.Debug("download complete", "bytes", done)
	return out.Name(), nil
}

// copyChunks copies body to out one chunk at a time. The token is checked
// before each chunk is written.
func (d *Downloader) copyChunks(out io.Writer, body io.Reader, token *Token, total int64, reporter Reporter) (int64, error) {
	buf := make([]byte, d.chunkSize)
	var done int64

	for {
		n, readErr := io.ReadFull(body, buf)
		if token.IsCancelled() {
			return done, ErrCancelled
		}
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return done, fmt.Errorf("%w: writing temporary artifact: %v", ErrIO, err)
			}
			done += int64(n)
			reporter.Progress(done, total)
		}

		switch {
		case readErr == nil:
			continue
		case errors.Is(readErr, io.EOF), errors.Is(readErr, io.ErrUnexpectedEOF):
			return done, nil
		default:
			return done, fmt.Errorf("%w: reading body: %v", ErrFetch, readErr)
		}
	}
}

// artifactName derives the temporary file's suffix from the last path
// segment of rawURL, keeping only filename-safe characters. The result
// always ends in ".zip".
func artifactName(rawURL string) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, name)
	name = strings.Trim(name, ".")
	if name == "" {
		name = "update"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".zip") {
		name += ".zip"
	}
	return name
}
