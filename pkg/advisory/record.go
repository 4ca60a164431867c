package advisory

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/xerrors"
)

var ErrInvalidAdvisory = xerrors.New("invalid advisory")

// InvalidAdvisoryError describes why a record was rejected and which field caused it.
type InvalidAdvisoryError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InvalidAdvisoryError) Error() string {
	msg := "invalid advisory"
	if e.Field != "" {
		msg += fmt.Sprintf(": %q", e.Field)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidAdvisoryError) Is(target error) bool {
	return target == ErrInvalidAdvisory
}

func (e *InvalidAdvisoryError) Unwrap() error {
	return e.Err
}

// record is the raw YAML mapping of an advisory file.
type record map[interface{}]interface{}

func (r record) requiredString(key string) (string, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", &InvalidAdvisoryError{Field: key, Reason: "missing"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &InvalidAdvisoryError{Field: key, Reason: fmt.Sprintf("expected a string, got %T", v)}
	}
	return s, nil
}

// optionalString also accepts integers and dates; the corpus stores OSVDB
// identifiers as bare numbers and dates unquoted.
func (r record) optionalString(key string) (string, error) {
	switch v := r[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case time.Time:
		return v.Format("2006-01-02"), nil
	default:
		return "", &InvalidAdvisoryError{Field: key, Reason: fmt.Sprintf("expected a string, got %T", v)}
	}
}

func (r record) optionalFloat(key string) (*float64, error) {
	var f float64
	switch v := r[key].(type) {
	case nil:
		return nil, nil
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, &InvalidAdvisoryError{Field: key, Reason: "not a number", Err: err}
		}
		f = parsed
	default:
		return nil, &InvalidAdvisoryError{Field: key, Reason: fmt.Sprintf("expected a number, got %T", v)}
	}
	return &f, nil
}

func (r record) stringList(key string, required bool) ([]string, error) {
	v, ok := r[key]
	if !ok || v == nil {
		if required {
			return nil, &InvalidAdvisoryError{Field: key, Reason: "missing"}
		}
		return nil, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, &InvalidAdvisoryError{Field: key, Reason: fmt.Sprintf("expected a list, got %T", v)}
	}

	values := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, &InvalidAdvisoryError{Field: key, Reason: fmt.Sprintf("entry %d is not a string: %T", i, item)}
		}
		values = append(values, s)
	}
	return values, nil
}

// relatedURLs collects related.url entries; anything malformed under
// "related" is informational and ignored.
func (r record) relatedURLs() []string {
	related, ok := r["related"].(map[interface{}]interface{})
	if !ok {
		return nil
	}
	items, ok := related["url"].([]interface{})
	if !ok {
		return nil
	}
	var urls []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			urls = append(urls, s)
		}
	}
	return urls
}
