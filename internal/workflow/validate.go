package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
)

// Validation errors. Compare with errors.Is.
var (
	ErrEmptyInput  = perrors.New(perrors.ErrCodeEmptyInput, "Nothing to index", nil)
	ErrInvalidJSON = perrors.New(perrors.ErrCodeInvalidJSON, "invalid JSON", nil)
)

// canonicalIndent is the indentation of the display text.
const canonicalIndent = "  "

// Document is a successfully parsed document.
type Document struct {
	// Body is the compact serialization sent to the backend.
	Body json.RawMessage
	// Canonical is the display text: parse order, two-space indent,
	// no trailing newline.
	Canonical string
}

// Validate parses raw document text.
// An empty text yields ErrEmptyInput. A parse failure yields an
// ErrInvalidJSON-coded error whose message is the parser diagnostic.
func Validate(raw string) (*Document, error) {
	if raw == "" {
		return nil, perrors.New(perrors.ErrCodeEmptyInput, ErrEmptyInput.Message, nil)
	}

	data := []byte(raw)

	// Unmarshal scans the whole input, so trailing garbage is rejected too.
	var scanned json.RawMessage
	if err := json.Unmarshal(data, &scanned); err != nil {
		return nil, perrors.New(perrors.ErrCodeInvalidJSON, err.Error(), err)
	}

	body, err := reencode(data)
	if err != nil {
		return nil, perrors.New(perrors.ErrCodeInvalidJSON, err.Error(), err)
	}

	var canonical bytes.Buffer
	if err := json.Indent(&canonical, body, "", canonicalIndent); err != nil {
		return nil, perrors.New(perrors.ErrCodeInvalidJSON, err.Error(), err)
	}

	return &Document{
		Body:      json.RawMessage(body),
		Canonical: canonical.String(),
	}, nil
}

// object keeps members in first-seen key order. A repeated key keeps its
// first position and takes the last value.
type object struct {
	keys   []string
	values map[string]any
}

// reencode parses data and writes the parsed value back out compactly.
// Number literals are kept as typed.
func reencode(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := encodeValue(&out, v); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch tok {
	case json.Delim('{'):
		obj := &object{values: make(map[string]any)}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", keyTok)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			if _, seen := obj.values[key]; !seen {
				obj.keys = append(obj.keys, key)
			}
			obj.values[key] = val
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil

	case json.Delim('['):
		list := []any{}
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return list, nil
	}

	return tok, nil
}

func encodeValue(out *bytes.Buffer, v any) error {
	switch v := v.(type) {
	case *object:
		out.WriteByte('{')
		for i, key := range v.keys {
			if i > 0 {
				out.WriteByte(',')
			}
			if err := encodeString(out, key); err != nil {
				return err
			}
			out.WriteByte(':')
			if err := encodeValue(out, v.values[key]); err != nil {
				return err
			}
		}
		out.WriteByte('}')
	case []any:
		out.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				out.WriteByte(',')
			}
			if err := encodeValue(out, item); err != nil {
				return err
			}
		}
		out.WriteByte(']')
	case string:
		return encodeString(out, v)
	case json.Number:
		out.WriteString(v.String())
	case bool:
		out.WriteString(strconv.FormatBool(v))
	case nil:
		out.WriteString("null")
	default:
		return fmt.Errorf("unexpected JSON token %v", v)
	}
	return nil
}

func encodeString(out *bytes.Buffer, s string) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates each value with a newline.
	out.Truncate(out.Len() - 1)
	return nil
}
