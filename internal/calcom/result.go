package calcom

import (
	"encoding/json"
	"errors"
)

// Result is the outcome of a single Cal.com request.
//
// On success Body holds the decoded response, Status its "status" field and
// Data its "data" field (nil when absent). On failure Err is set and the
// Result marshals to {"status": "error", "error": "<message>"}.
type Result struct {
	Status string
	Data   json.RawMessage
	Body   json.RawMessage
	Err    *RequestError
}

// ErrNoData is returned by DecodeData when the response has no data field.
var ErrNoData = errors.New("response has no data field")

func failure(err *RequestError) Result {
	return Result{Status: StatusError, Err: err}
}

// Failed reports whether the request itself failed (transport, HTTP status, or decoding).
func (r Result) Failed() bool {
	return r.Err != nil
}

// IsError reports whether the request failed or the provider reported an error status.
func (r Result) IsError() bool {
	return r.Err != nil || r.Status == StatusError
}

// IsSuccess reports whether the provider reported a success status.
func (r Result) IsSuccess() bool {
	return r.Err == nil && r.Status == StatusSuccess
}

// HasData reports whether the response carried a data field.
func (r Result) HasData() bool {
	return r.Data != nil
}

// DecodeData unmarshals the data field into v.
func (r Result) DecodeData(v any) error {
	if r.Err != nil {
		return r.Err
	}
	if r.Data == nil {
		return ErrNoData
	}
	return json.Unmarshal(r.Data, v)
}

// ErrorMessage returns the request failure message, or the provider's error
// field rendered as a string.
func (r Result) ErrorMessage() string {
	if r.Err != nil {
		return r.Err.Message
	}
	field := r.field("error")
	if field == nil {
		return ""
	}
	var s string
	if json.Unmarshal(field, &s) == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(field, &obj) == nil && obj.Message != "" {
		return obj.Message
	}
	return string(field)
}

// ErrorDetail returns what callers surface as error data: the failure message
// for request failures, the provider's error field if present, else the whole body.
func (r Result) ErrorDetail() any {
	if r.Err != nil {
		return r.Err.Message
	}
	if field := r.field("error"); field != nil {
		return field
	}
	return r
}

// Message returns the provider's top level "message" field, the failure
// message, or "Unknown error".
func (r Result) Message() string {
	var s string
	if field := r.field("message"); field != nil && json.Unmarshal(field, &s) == nil && s != "" {
		return s
	}
	if r.Err != nil {
		return r.Err.Message
	}
	return "Unknown error"
}

func (r Result) field(name string) json.RawMessage {
	if r.Body == nil {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.Body, &fields); err != nil {
		return nil
	}
	return fields[name]
}

// MarshalJSON implements json.Marshaler
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		}{Status: StatusError, Error: r.Err.Message})
	}
	if r.Body == nil {
		return json.Marshal(struct {
			Status string `json:"status"`
		}{Status: r.Status})
	}
	return r.Body, nil
}
