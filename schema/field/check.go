package field

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"path"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// imageExtensions accepted by the image rule.
var imageExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp", "svg", "webp"}

// IsEmpty reports if v counts as absent for the required rule: nil, blank
// text, or an empty list or map.
func IsEmpty(v any) bool {
	v, ok := indirect(v)
	if !ok {
		return true
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x) == ""
	case []byte:
		return len(x) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	}
	return false
}

// Check validates v against a stateless rule. The required and unique rules
// always pass here; they depend on presence and on stored values.
func (r Rule) Check(v any) error {
	v, ok := indirect(v)
	if !ok {
		return nil
	}
	switch r.Name {
	case RuleRequired, RuleUnique:
		return nil
	case RuleEmail:
		s, ok := v.(string)
		if !ok {
			return errors.New("must be a valid email address")
		}
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			return errors.New("must be a valid email address")
		}
	case RuleURL:
		s, ok := v.(string)
		if !ok {
			return errors.New("must be a valid URL")
		}
		u, err := url.ParseRequestURI(s)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("must be a valid URL")
		}
	case RuleInteger:
		if !isInteger(v) {
			return errors.New("must be an integer")
		}
	case RuleNumeric:
		if _, ok := toFloat(v); !ok {
			return errors.New("must be a number")
		}
	case RuleBoolean:
		if !isBoolean(v) {
			return errors.New("must be true or false")
		}
	case RuleDate:
		if _, ok := v.(time.Time); ok {
			return nil
		}
		if s, ok := v.(string); !ok || !isDate(s) {
			return errors.New("must be a valid date")
		}
	case RuleDateFormat:
		if len(r.Args) == 0 {
			return errors.New("date_format rule needs a layout")
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("must match the format %s", r.Args[0])
		}
		if _, err := time.Parse(r.Args[0], s); err != nil {
			return fmt.Errorf("must match the format %s", r.Args[0])
		}
	case RuleFile:
		if filePath(v) == "" {
			return errors.New("must be a file")
		}
	case RuleImage:
		ext := strings.TrimPrefix(strings.ToLower(path.Ext(filePath(v))), ".")
		if !slices.Contains(imageExtensions, ext) {
			return errors.New("must be an image")
		}
	case RuleJSON:
		if s, ok := v.(string); ok {
			if !json.Valid([]byte(s)) {
				return errors.New("must be a valid JSON string")
			}
			return nil
		}
		if _, err := json.Marshal(v); err != nil {
			return errors.New("must be a valid JSON string")
		}
	case RuleMin, RuleMax:
		return r.checkSize(v)
	case RuleIn:
		if !slices.Contains(r.Args, stringify(v)) {
			return fmt.Errorf("must be one of: %s", strings.Join(r.Args, ", "))
		}
	case RuleRegex:
		if len(r.Args) == 0 {
			return errors.New("regex rule needs a pattern")
		}
		re, err := compilePattern(r.Args[0])
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", r.Args[0], err)
		}
		if !re.MatchString(stringify(v)) {
			return errors.New("format is invalid")
		}
	default:
		return fmt.Errorf("unsupported rule %q", r.Name)
	}
	return nil
}

// checkSize compares numbers by value, text by rune count, and lists or
// maps by length.
func (r Rule) checkSize(v any) error {
	if len(r.Args) == 0 {
		return fmt.Errorf("%s rule needs a limit", r.Name)
	}
	limit, err := strconv.ParseFloat(r.Args[0], 64)
	if err != nil {
		return fmt.Errorf("%s rule has an invalid limit %q", r.Name, r.Args[0])
	}
	var size float64
	unit := ""
	switch x := v.(type) {
	case string:
		size, unit = float64(utf8.RuneCountInString(x)), " characters"
	default:
		if f, ok := toFloat(v); ok {
			size = f
			break
		}
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Map, reflect.Slice, reflect.Array:
			size, unit = float64(rv.Len()), " items"
		default:
			return fmt.Errorf("cannot apply %s to %T", r.Name, v)
		}
	}
	if r.Name == RuleMin && size < limit {
		return fmt.Errorf("must be at least %s%s", r.Args[0], unit)
	}
	if r.Name == RuleMax && size > limit {
		return fmt.Errorf("must not be greater than %s%s", r.Args[0], unit)
	}
	return nil
}

// compilePattern accepts both /delimited/ and bare patterns.
func compilePattern(p string) (*regexp.Regexp, error) {
	if len(p) >= 2 && p[0] == '/' && p[len(p)-1] == '/' {
		p = p[1 : len(p)-1]
	}
	return regexp.Compile(p)
}

func isInteger(v any) bool {
	switch x := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return x == math.Trunc(x) && !math.IsInf(x, 0)
	case float32:
		return float64(x) == math.Trunc(float64(x))
	case json.Number:
		_, err := x.Int64()
		return err == nil
	case string:
		_, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return err == nil
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

// isBoolean reports whether v reads as a boolean the way field values are
// cast: a bool, a number equal to 0 or 1, or one of the words parseBool and
// its negations accept.
func isBoolean(v any) bool {
	switch x := v.(type) {
	case bool:
		return true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "true", "on", "yes", "y", "t",
			"0", "false", "off", "no", "n", "f":
			return true
		}
		return false
	}
	f, ok := toFloat(v)
	return ok && (f == 0 || f == 1)
}

func isDate(s string) bool {
	tm, ok := ParseTime(s)
	// A bare clock time parses with a zero date; it is not a date.
	return ok && tm.Year() != 0
}

// filePath extracts the stored path of a file value: a plain string, or a
// map carrying "path", "url" or "name".
func filePath(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case map[string]any:
		for _, k := range []string{"path", "url", "name"} {
			if s, ok := x[k].(string); ok && s != "" {
				return s
			}
		}
	case map[string]string:
		for _, k := range []string{"path", "url", "name"} {
			if s := x[k]; s != "" {
				return s
			}
		}
	}
	return ""
}
