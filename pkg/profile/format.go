package profile

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"strings"
)

// Format identifies the encoding of a profile response body.
type Format string

const (
	// FormatAuto detects the format from the body itself.
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// ParseFormat converts a format name into a Format. An empty name means FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatAuto):
		return FormatAuto, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatXML):
		return FormatXML, nil
	}
	return "", errors.Join(ErrUnknownFormat, fmt.Errorf("format %q", s))
}

// FormatFromContentType maps a Content-Type header value to a Format.
// Unknown or missing media types yield FormatAuto.
func FormatFromContentType(contentType string) Format {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatAuto
	}
	switch {
	case strings.HasSuffix(mt, "json"):
		return FormatJSON
	case strings.HasSuffix(mt, "xml"):
		return FormatXML
	}
	return FormatAuto
}

// sniff guesses the format from the first significant byte of body.
func sniff(body []byte) Format {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf")), " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return FormatXML
	}
	return FormatJSON
}
