package profile

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// TextKey holds the character data of an XML element that also has
// attributes or child elements.
const TextKey = "#text"

// RawProfile is an untyped provider profile: values are strings, json.Number,
// bool, nested RawProfile-shaped maps (map[string]any) or []any.
type RawProfile = map[string]any

// Normalize decodes body and returns an empty, non-nil profile on any parse fault.
func Normalize(body []byte, format Format) RawProfile {
	p, err := Decode(body, format)
	if err != nil {
		return RawProfile{}
	}
	return p
}

// Decode parses body in the given format into a RawProfile.
func Decode(body []byte, format Format) (RawProfile, error) {
	if format == "" || format == FormatAuto {
		format = sniff(body)
	}

	switch format {
	case FormatJSON:
		return decodeJSON(body)
	case FormatXML:
		return decodeXML(body)
	}
	return nil, errors.Join(ErrUnknownFormat, fmt.Errorf("format %q", format))
}

func decodeJSON(body []byte) (RawProfile, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Join(ErrMalformed, fmt.Errorf("decode json: %w", err))
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.Join(ErrNotObject, fmt.Errorf("got %T", v))
	}
	return m, nil
}

func decodeXML(body []byte) (RawProfile, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.Join(ErrMalformed, errors.New("decode xml: no root element"))
			}
			return nil, errors.Join(ErrMalformed, fmt.Errorf("decode xml: %w", err))
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		root, err := decodeElement(dec, start)
		if err != nil {
			return nil, errors.Join(ErrMalformed, fmt.Errorf("decode xml: %w", err))
		}
		if m, ok := root.(map[string]any); ok {
			delete(m, TextKey)
			return m, nil
		}
		return RawProfile{}, nil
	}
}

// decodeElement consumes tokens up to the matching end element of start.
// It returns a string for plain leaf elements and a map otherwise.
func decodeElement(dec *xml.Decoder, start xml.StartElement) (any, error) {
	node := make(map[string]any, len(start.Attr))
	for _, a := range start.Attr {
		node[a.Name.Local] = a.Value
	}

	var (
		text     strings.Builder
		elements = make(map[string]bool)
	)

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			addChild(node, elements, t.Name.Local, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			s := strings.TrimSpace(text.String())
			if len(elements) == 0 && len(start.Attr) == 0 {
				return s, nil
			}
			if s != "" {
				node[TextKey] = s
			}
			return node, nil
		}
	}
}

// addChild stores a child element under name. The first element with a given
// name replaces an attribute of the same name; repeats turn into a list.
func addChild(node map[string]any, elements map[string]bool, name string, child any) {
	if !elements[name] {
		elements[name] = true
		node[name] = child
		return
	}

	if list, ok := node[name].([]any); ok {
		node[name] = append(list, child)
		return
	}
	node[name] = []any{node[name], child}
}
