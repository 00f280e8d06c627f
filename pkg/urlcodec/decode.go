package urlcodec

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// DecodeError reports a query-parameter value that could not be parsed.
type DecodeError struct {
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("urlcodec: cannot decode %q: %v", e.Input, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses a value produced by Encode.
//
//   - "null" decodes to nil
//   - YYYY-MM, bare or quoted, decodes to Month
//   - JSON text decodes to bool, int64, float64, string, []any or
//     map[string]any; strings in RFC 3339 form become time.Time and
//     strings in YYYY-MM form become Month
//   - any other text not starting with [ { or " is a bare string
//     (again with time and month recognition)
//
// Malformed JSON returns a *DecodeError.
func Decode(s string) (any, error) {
	if m, ok := parseMonthText(s); ok {
		return m, nil
	}
	if json.Valid([]byte(s)) {
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, &DecodeError{Input: s, Err: err}
		}
		return revive(v), nil
	}
	if looksStructured(s) {
		var v any
		return nil, &DecodeError{Input: s, Err: json.Unmarshal([]byte(s), &v)}
	}
	return reviveString(s), nil
}

// DecodeParam decodes a query-parameter lookup. An absent parameter
// decodes to nil.
func DecodeParam(s string, present bool) (any, error) {
	if !present {
		return nil, nil
	}
	return Decode(s)
}

// DecodeInto parses s into the value pointed to by target. String
// targets accept bare text as-is. Interface targets receive the result
// of Decode.
func DecodeInto(s string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("urlcodec: DecodeInto needs a non-nil pointer, got %T", target)
	}
	elem := rv.Elem()

	switch t := target.(type) {
	case *Month:
		m, ok := parseMonthText(s)
		if !ok {
			return &DecodeError{Input: s, Err: fmt.Errorf("not a month")}
		}
		*t = m
		return nil
	case *time.Time:
		parsed, err := time.Parse(time.RFC3339Nano, unquote(s))
		if err != nil {
			return &DecodeError{Input: s, Err: err}
		}
		*t = parsed
		return nil
	}

	if elem.Kind() == reflect.Interface && elem.NumMethod() == 0 {
		v, err := Decode(s)
		if err != nil {
			return err
		}
		if v == nil {
			elem.Set(reflect.Zero(elem.Type()))
		} else {
			elem.Set(reflect.ValueOf(v))
		}
		return nil
	}

	if elem.Kind() == reflect.String {
		text := s
		if len(s) >= 2 && s[0] == '"' {
			var q string
			if err := json.Unmarshal([]byte(s), &q); err == nil {
				text = q
			}
		}
		elem.SetString(text)
		return nil
	}

	if s == "null" {
		elem.Set(reflect.Zero(elem.Type()))
		return nil
	}
	if k := elem.Kind(); k == reflect.Float32 || k == reflect.Float64 {
		if f, ok := parseNonFinite(unquote(s)); ok {
			elem.SetFloat(f)
			return nil
		}
	}
	if err := json.Unmarshal([]byte(s), target); err != nil {
		return &DecodeError{Input: s, Err: err}
	}
	return nil
}

// parseNonFinite parses the NaN and infinity texts Encode writes for
// floats JSON cannot carry.
func parseNonFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !(math.IsNaN(f) || math.IsInf(f, 0)) {
		return 0, false
	}
	return f, true
}

func parseMonthText(s string) (Month, bool) {
	m, err := ParseMonth(unquote(s))
	if err != nil {
		return Month{}, false
	}
	return m, true
}

// unquote strips one pair of surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}

func looksStructured(s string) bool {
	return s != "" && strings.ContainsAny(s[:1], `[{"`)
}

// revive converts the generic JSON tree: numbers become int64 when
// integral, float64 otherwise; date and month strings become typed
// values.
func revive(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case string:
		return reviveString(x)
	case []any:
		for i := range x {
			x[i] = revive(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = revive(x[k])
		}
		return x
	}
	return v
}

func reviveString(s string) any {
	if m, err := ParseMonth(s); err == nil {
		return m
	}
	if looksLikeTime(s) {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
	}
	return s
}

// looksLikeTime is a cheap pre-check before time.Parse.
func looksLikeTime(s string) bool {
	return len(s) >= len("2006-01-02T15:04:05Z") && s[4] == '-' && s[7] == '-' && s[10] == 'T'
}

// Equal reports whether two decoded or encodable values encode to the
// same parameter value.
func Equal(a, b any, opts ...Option) bool {
	as, aok := Encode(a, opts...)
	bs, bok := Encode(b, opts...)
	return aok == bok && as == bs
}
