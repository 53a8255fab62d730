// Package codec selects the JSON implementation used for input records and
// rank output lines. Both implementations produce identical bytes for the
// record and rank types, so the choice only affects speed.
package codec

import (
	"encoding/json"

	gojson "github.com/goccy/go-json"
)

// Codec encodes and decodes single JSON lines. Implementations are safe for
// concurrent use.
type Codec interface {
	Name() string
	// AppendLine appends the encoding of v and a trailing newline to dst.
	AppendLine(dst []byte, v any) ([]byte, error)
	// Unmarshal decodes one line, without its newline, into v.
	Unmarshal(line []byte, v any) error
}

// Default is the codec used when none is configured.
var Default Codec = GoJSON{}

// ByName returns a built-in codec by its configuration name. The empty name
// selects Default.
func ByName(name string) (Codec, bool) {
	switch name {
	case "":
		return Default, true
	case GoJSON{}.Name():
		return GoJSON{}, true
	case JSON{}.Name():
		return JSON{}, true
	}
	return nil, false
}

// GoJSON is backed by github.com/goccy/go-json.
type GoJSON struct{}

func (GoJSON) Name() string { return "go-json" }

func (GoJSON) AppendLine(dst []byte, v any) ([]byte, error) {
	b, err := gojson.Marshal(v)
	if err != nil {
		return dst, err
	}
	return append(append(dst, b...), '\n'), nil
}

func (GoJSON) Unmarshal(line []byte, v any) error { return gojson.Unmarshal(line, v) }

// JSON is backed by encoding/json.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) AppendLine(dst []byte, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return dst, err
	}
	return append(append(dst, b...), '\n'), nil
}

func (JSON) Unmarshal(line []byte, v any) error { return json.Unmarshal(line, v) }
