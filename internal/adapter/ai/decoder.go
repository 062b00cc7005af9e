// Package ai turns raw completion text into structured values.
package ai

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/pkg/textx"
)

var fenceRe = regexp.MustCompile("(?i)```json\\s*|```")

// DecodeError reports why a completion could not be read as a JSON object.
// It matches domain.ErrDecode.
type DecodeError struct {
	Raw    string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "op=ai.decode: " + domain.ErrDecode.Error() + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrDecode}
	}
	return []error{domain.ErrDecode, e.Err}
}

// StripFences removes markdown code-fence markers.
func StripFences(raw string) string {
	return fenceRe.ReplaceAllString(raw, "")
}

// ExtractObject returns the substring from the first '{' to the last '}'
// inclusive after fences are removed.
func ExtractObject(raw string) (string, error) {
	s := StripFences(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", &DecodeError{Raw: textx.Truncate(raw, 200), Reason: "no JSON object found"}
	}
	return s[start : end+1], nil
}

// DecodeObject parses the JSON object embedded in raw. Numbers are kept as
// json.Number so callers can check integrality.
func DecodeObject(raw string) (map[string]any, error) {
	var out map[string]any
	if err := DecodeInto(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeInto parses the JSON object embedded in raw into v. Anything after
// the first value inside the braces is an error.
func DecodeInto(raw string, v any) error {
	obj, err := ExtractObject(raw)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(strings.NewReader(obj))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return &DecodeError{Raw: textx.Truncate(raw, 200), Reason: "invalid JSON", Err: err}
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return &DecodeError{Raw: textx.Truncate(raw, 200), Reason: "trailing data after JSON object", Err: err}
	}
	return nil
}

// IsValidJSON checks if a string is valid JSON.
func IsValidJSON(s string) bool {
	return json.Valid([]byte(s))
}
