package tui

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-leadform/pkg/engine"
)

// ContentType reports the MIME type Serialize produces for format.
func ContentType(format OutputFormat) string {
	switch format {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Serialize encodes a collected payload. Keys are emitted in sorted order for
// every format.
func Serialize(payload engine.Payload, format OutputFormat) ([]byte, error) {
	switch format {
	case OutputFormatFormURLEncoded:
		values := url.Values{}
		for _, key := range payload.Keys() {
			values.Set(key, payload[key])
		}
		return []byte(values.Encode()), nil
	case OutputFormatPrettyText:
		var b strings.Builder
		width := 0
		for _, key := range payload.Keys() {
			if len(key) > width {
				width = len(key)
			}
		}
		for _, key := range payload.Keys() {
			fmt.Fprintf(&b, "%-*s  %s\n", width, key, payload[key])
		}
		return []byte(b.String()), nil
	case OutputFormatJSON, "":
		out, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode payload: %w", err)
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("tui: unknown output format %q", format)
	}
}
