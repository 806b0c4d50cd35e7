package update

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/bluecraft-server/bcupdater/internal/types"
)

// textPattern matches "<version>|<url>" anywhere in a text payload.
var textPattern = regexp.MustCompile(`(\d+(?:\.\d+)+)\|([^|\s]+)`)

// utf8BOM is stripped from payloads saved by editors that write one.
var utf8BOM = []byte("\ufeff")

// Payload is the JSON descriptor published by the update endpoint.
type Payload struct {
	VersionDownloader string `json:"version_downloader"`
	URLDownloader     string `json:"url_downloader"`
	URLResource       string `json:"url_resource"`
}

// ParseJSON decodes a JSON descriptor payload.
func ParseJSON(body []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(bytes.TrimSpace(bytes.TrimPrefix(body, utf8BOM)), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &p, nil
}

// ParseText extracts the first "<version>|<url>" pair from a text payload.
func ParseText(body []byte) (*Descriptor, error) {
	m := textPattern.FindSubmatch(body)
	if m == nil {
		return nil, ErrNoMatch
	}
	return &Descriptor{
		Version:     string(m[1]),
		DownloadURL: string(m[2]),
		Mode:        types.ModeFull,
	}, nil
}

// ParsePayload decodes body according to format. A text payload carries a
// single URL, which serves both update modes.
func ParsePayload(body []byte, format types.PayloadFormat) (*Payload, error) {
	body = bytes.TrimPrefix(body, utf8BOM)
	if format.Default() == types.PayloadAuto {
		format = sniffPayload(body)
	}

	switch format {
	case types.PayloadJSON:
		return ParseJSON(body)
	case types.PayloadText:
		d, err := ParseText(body)
		if err != nil {
			return nil, err
		}
		return &Payload{
			VersionDownloader: d.Version,
			URLDownloader:     d.DownloadURL,
			URLResource:       d.DownloadURL,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown payload format %q", ErrParse, format)
	}
}

func sniffPayload(body []byte) types.PayloadFormat {
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return types.PayloadJSON
	}
	return types.PayloadText
}

// Select builds the descriptor for mode. Resources-only descriptors carry
// no version.
func (p *Payload) Select(mode types.UpdateMode) (*Descriptor, error) {
	var d *Descriptor
	switch mode {
	case types.ModeFull:
		d = &Descriptor{Version: p.VersionDownloader, DownloadURL: p.URLDownloader, Mode: types.ModeFull}
	case types.ModeResources:
		d = &Descriptor{DownloadURL: p.URLResource, Mode: types.ModeResources}
	default:
		return nil, &InvalidModeError{Value: string(mode)}
	}

	if d.DownloadURL == "" {
		return nil, fmt.Errorf("%w: no download url for %s mode", ErrParse, mode)
	}
	return d, nil
}
