package urlcodec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// labelFields are the fields kept next to "id" when encoding an entity,
// in priority order.
var labelFields = []string{"label", "name", "title"}

// Option configures Encode.
type Option func(*options)

type options struct {
	attrs []string
}

// Attrs restricts record encoding to the named fields, in the given
// order. Fields missing from the record are skipped.
//
// Example:
//
//	urlcodec.Encode(filter, urlcodec.Attrs("from", "to"))
func Attrs(names ...string) Option {
	return func(o *options) {
		o.attrs = append(o.attrs, names...)
	}
}

// Encode converts v into a single URL-safe query-parameter value.
// It reports false when v is absent: nil at the top level, or an entity
// whose id is nil. Encode never fails; values that cannot be represented
// as JSON fall back to their fmt text.
//
// Rules:
//   - slices and arrays encode as [a,b,...] with elements in JSON form
//     (nested nil is null)
//   - records with Attrs keep only those fields
//   - records with an "id" field keep id and the first of label, name, title
//   - other records encode as JSON
//   - time.Time encodes as RFC 3339 with nanoseconds, Month as YYYY-MM
//   - strings are written bare unless the bare text would decode as
//     something else (empty, valid JSON, or starting with [ { or ")
func Encode(v any, opts ...Option) (string, bool) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return encode(v, o, true)
}

// MustEncode is Encode without the presence flag; absent encodes as "".
func MustEncode(v any, opts ...Option) string {
	s, _ := Encode(v, opts...)
	return s
}

func encode(v any, o *options, root bool) (string, bool) {
	if isNil(v) {
		if root {
			return "", false
		}
		return "null", true
	}

	switch x := v.(type) {
	case Month:
		return textValue(x.String(), root), true
	case *Month:
		return encode(*x, o, root)
	case time.Time:
		return textValue(x.Format(time.RFC3339Nano), root), true
	case *time.Time:
		return encode(*x, o, root)
	case string:
		if root {
			return bareString(x), true
		}
		return quote(x), true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		return encode(rv.Elem().Interface(), o, root)
	}
	if isList(rv) {
		return encodeList(rv, o), true
	}

	if f, ok := nonFinite(rv); ok {
		return textValue(strconv.FormatFloat(f, 'g', -1, 64), root), true
	}

	data, err := marshal(v)
	if err != nil {
		text := fmt.Sprint(v)
		if root {
			return bareString(text), true
		}
		return quote(text), true
	}
	if len(data) > 0 && data[0] == '{' {
		return encodeRecord(data, o, root)
	}
	return string(data), true
}

func encodeList(rv reflect.Value, o *options) string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		s, _ := encode(rv.Index(i).Interface(), o, false)
		b.WriteString(s)
	}
	b.WriteByte(']')
	return b.String()
}

// encodeRecord applies the attrs and entity rules to a JSON object.
func encodeRecord(data []byte, o *options, root bool) (string, bool) {
	if len(o.attrs) == 0 && !bytes.Contains(data, []byte(`"id"`)) {
		return string(data), true
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return string(data), true
	}

	var keys []string
	switch {
	case len(o.attrs) > 0:
		for _, attr := range o.attrs {
			if _, ok := fields[attr]; ok {
				keys = append(keys, attr)
			}
		}
	default:
		id, ok := fields["id"]
		if !ok {
			return string(data), true
		}
		if string(id) == "null" {
			if root {
				return "", false
			}
			return "null", true
		}
		keys = append(keys, "id")
		for _, name := range labelFields {
			if _, ok := fields[name]; ok {
				keys = append(keys, name)
				break
			}
		}
	}

	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quote(k))
		b.WriteByte(':')
		b.Write(fields[k])
	}
	b.WriteByte('}')
	return b.String(), true
}

// bareString returns s unquoted when decoding the bare text yields s
// back, and JSON-quoted otherwise.
func bareString(s string) string {
	if s == "" || strings.ContainsAny(s[:1], `[{"`) || json.Valid([]byte(s)) {
		return quote(s)
	}
	return s
}

func textValue(s string, root bool) string {
	if root {
		return s
	}
	return quote(s)
}

func quote(s string) string {
	data, err := marshal(s)
	if err != nil {
		return `""`
	}
	return string(data)
}

// marshal is json.Marshal without HTML escaping.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func nonFinite(rv reflect.Value) (float64, bool) {
	if k := rv.Kind(); k != reflect.Float32 && k != reflect.Float64 {
		return 0, false
	}
	f := rv.Float()
	return f, math.IsNaN(f) || math.IsInf(f, 0)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

var jsonMarshaler = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

func isList(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return !rv.Type().Implements(jsonMarshaler)
	}
	return false
}
