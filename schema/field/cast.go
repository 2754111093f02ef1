package field

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Storage layouts of the temporal types.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	TimeLayout     = "15:04:05"
)

// parseLayouts are tried in order when reading temporal text.
var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	DateTimeLayout,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	DateLayout,
	TimeLayout,
	"15:04",
}

// FromStorage converts stored text into the typed value of t.
//
// Result types: TypeBoolean returns bool, TypeNumber int64, TypeDecimal
// float64, structured types the decoded JSON document, everything else a
// string. A nil raw value returns nil.
func (t Type) FromStorage(raw *string) any {
	if raw == nil {
		return nil
	}
	s := *raw
	switch t {
	case TypeBoolean:
		return parseBool(s)
	case TypeNumber:
		return parseInt(s)
	case TypeDecimal:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return float64(0)
		}
		return f
	case TypeJSON, TypeMultiSelect, TypeCheckbox:
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil
		}
		return v
	case TypeDate:
		return normalizeTime(s, DateLayout)
	case TypeDateTime:
		return normalizeTime(s, DateTimeLayout)
	case TypeTime:
		return normalizeTime(s, TimeLayout)
	case TypeText, TypeTextarea, TypeEmail, TypeURL, TypeSelect, TypeRadio,
		TypeFile, TypeImage, TypeRelation, TypeColor, TypePassword:
		return s
	default:
		return s
	}
}

// ToStorage converts a typed value into its stored text form. A nil value
// (or nil pointer) returns nil.
func (t Type) ToStorage(v any) *string {
	v, ok := indirect(v)
	if !ok {
		return nil
	}
	var s string
	switch t {
	case TypeBoolean:
		s = boolText(truthy(v))
	case TypeJSON, TypeMultiSelect, TypeCheckbox:
		s = stringify(v)
	case TypeDate, TypeDateTime, TypeTime:
		if tm, ok := v.(time.Time); ok {
			s = tm.Format(temporalLayout(t))
		} else {
			s = stringify(v)
		}
	case TypeText, TypeTextarea, TypeEmail, TypeURL, TypeNumber, TypeDecimal,
		TypeSelect, TypeRadio, TypeFile, TypeImage, TypeRelation, TypeColor, TypePassword:
		s = stringify(v)
	default:
		s = stringify(v)
	}
	return &s
}

// ParseTime parses text in any of the accepted temporal layouts.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range parseLayouts {
		if tm, err := time.Parse(layout, s); err == nil {
			return tm, true
		}
	}
	return time.Time{}, false
}

func temporalLayout(t Type) string {
	switch t {
	case TypeDate:
		return DateLayout
	case TypeTime:
		return TimeLayout
	default:
		return DateTimeLayout
	}
}

// normalizeTime reformats s with layout. Unparseable text is returned as is.
func normalizeTime(s, layout string) string {
	tm, ok := ParseTime(s)
	if !ok {
		return s
	}
	return tm.Format(layout)
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes", "y", "t":
		return true
	}
	return false
}

// parseInt reads an integer, truncating decimal input toward zero.
// Non-numeric text reads as 0.
func parseInt(s string) int64 {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(f)
}

func boolText(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// truthy reports the boolean reading of an arbitrary value.
func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return parseBool(x)
	case int:
		return x != 0
	case int64:
		return x != 0
	case int32:
		return x != 0
	case uint:
		return x != 0
	case uint64:
		return x != 0
	case float64:
		return x != 0
	case float32:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() > 0
	}
	return true
}

// stringify renders v as stored text. Containers are JSON-encoded.
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return boolText(x)
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case time.Time:
		return x.Format(DateTimeLayout)
	case json.RawMessage:
		return string(x)
	case fmt.Stringer:
		return x.String()
	}
	if isContainer(v) {
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

func isContainer(v any) bool {
	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	}
	return false
}

// indirect dereferences pointers. It reports false for nil.
func indirect(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	return rv.Interface(), true
}
