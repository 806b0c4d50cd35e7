package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bluecraft-server/bcupdater/internal/types"
)

// maxPayloadSize bounds how much of a descriptor response is read.
const maxPayloadSize = 1 << 20

// Resolver fetches the remote descriptor and selects the download for the
// persisted update mode.
type Resolver struct {
	url       string
	format    types.PayloadFormat
	modes     ModeSource
	client    *http.Client
	userAgent string
	notifier  Notifier
	logger    *log.Logger
}

// NewResolver creates a resolver for the descriptor at url
func NewResolver(url string, modes ModeSource) *Resolver {
	return &Resolver{
		url:    url,
		format: types.PayloadAuto,
		modes:  modes,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: "bcupdater",
		notifier:  DiscardNotifier{},
		logger:    log.New(io.Discard),
	}
}

// WithFormat forces the payload format instead of sniffing it
func (r *Resolver) WithFormat(format types.PayloadFormat) *Resolver {
	r.format = format.Default()
	return r
}

// WithTimeout sets the request timeout
func (r *Resolver) WithTimeout(d time.Duration) *Resolver {
	r.client.Timeout = d
	return r
}

// WithUserAgent sets the User-Agent header
func (r *Resolver) WithUserAgent(ua string) *Resolver {
	r.userAgent = ua
	return r
}

// WithNotifier sets where the update-type notice is sent
func (r *Resolver) WithNotifier(n Notifier) *Resolver {
	r.notifier = n
	return r
}

// WithLogger sets the logger
func (r *Resolver) WithLogger(l *log.Logger) *Resolver {
	r.logger = l
	return r
}

// Resolve reads the persisted mode, fetches the payload and returns the
// descriptor. The mode is checked before any network access.
func (r *Resolver) Resolve(ctx context.Context) (*Descriptor, error) {
	mode, err := r.modes.Mode()
	if err != nil {
		return nil, err
	}
	r.logger.Debug("update mode", "mode", mode)

	body, err := r.fetchPayload(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := ParsePayload(body, r.format)
	if err != nil {
		return nil, err
	}

	d, err := payload.Select(mode)
	if err != nil {
		return nil, err
	}

	if d.HasVersion() {
		if _, err := ParseVersion(d.Version); err != nil {
			r.logger.Warn("descriptor version is not dotted-numeric", "version", d.Version)
		}
	}

	r.notifier.Notify(fmt.Sprintf("Update started (%s). The launcher will restart when it finishes.", mode.Label()))
	return d, nil
}

// fetchPayload GETs the descriptor endpoint
func (r *Resolver) fetchPayload(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	r.logger.Debug("fetching descriptor", "url", r.url)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: descriptor endpoint returned status %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading descriptor: %v", ErrFetch, err)
	}
	return body, nil
}
