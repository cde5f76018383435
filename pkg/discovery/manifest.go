package discovery

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Format selects the encoding of a test manifest.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// Formats lists the supported manifest formats.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatCBOR}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported manifest format %q (expected text, json, yaml or cbor)", s)
}

// manifest is the document written for json, yaml and cbor.
type manifest struct {
	Count int     `json:"count" yaml:"count" cbor:"1,keyasint"`
	Tests []Entry `json:"tests" yaml:"tests" cbor:"2,keyasint"`
}

// EncodeManifest encodes entries in the given format. The text format
// reproduces the "index:name(file:line)" lines of the machine listing.
func EncodeManifest(entries []Entry, format Format) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	doc := manifest{Count: len(entries), Tests: entries}

	switch format {
	case FormatText:
		var b strings.Builder
		for _, e := range entries {
			fmt.Fprintf(&b, "%d:%s(%s:%d)\n", e.Index, e.Name, e.File, e.Line)
		}
		return []byte(b.String()), nil
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode json manifest: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode yaml manifest: %w", err)
		}
		return data, nil
	case FormatCBOR:
		data, err := cbor.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cbor manifest: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
}

// DecodeManifest reverses EncodeManifest for json, yaml and cbor.
func DecodeManifest(data []byte, format Format) ([]Entry, error) {
	var doc manifest
	var err error
	switch format {
	case FormatText:
		return parseLines(strings.Split(string(data), "\n"), 0)
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatCBOR:
		err = cbor.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s manifest: %w", format, err)
	}
	return doc.Tests, nil
}
