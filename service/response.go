package service

import (
	"strconv"

	"github.com/Jeffail/gabs/v2"
)

// Issue is one application-level error reported by the payments service.
type Issue struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Response is the uniform result of a service call. A transport success with
// an application-level failure is OK=false with Issues populated; it is
// never surfaced as a Go error by the client.
type Response struct {
	OK     bool
	Data   *gabs.Container
	Issues []Issue
}

// Messages flattens the issues for error reporting.
func (r *Response) Messages() []string {
	msgs := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		msgs = append(msgs, issue.Message)
	}
	return msgs
}

// StringAt renders the value at a dotted gabs path as a string. Scalars are
// formatted directly; arrays and objects come back JSON-encoded, which is
// how structured outputs are stored between operations.
func (r *Response) StringAt(path string) (string, bool) {
	if r.Data == nil {
		return "", false
	}
	v := r.Data.Path(path)
	if v == nil {
		return "", false
	}

	switch data := v.Data().(type) {
	case string:
		return data, true
	case float64:
		return strconv.FormatFloat(data, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(data), true
	case nil:
		return "", false
	default:
		return v.String(), true
	}
}

// CountAt returns the length of the array at path as a decimal string.
func (r *Response) CountAt(path string) (string, bool) {
	if r.Data == nil {
		return "", false
	}
	v := r.Data.Path(path)
	if v == nil {
		return "", false
	}
	children := v.Children()
	if children == nil {
		return "", false
	}
	return strconv.Itoa(len(children)), true
}
