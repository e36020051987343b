package outcome

import (
	"encoding/json"
	"fmt"
)

// Status is the coarse result of an operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Code identifies an outcome within the closed taxonomy.
type Code int

const (
	CodeUnknown Code = iota
	CodeCalcomAPIRequestFailed
	CodeUnexpectedResponseFormat
	CodeFoundMatch
	CodeNoMatch
	CodeSlotsRequestFailed
	CodeAllMatched
	CodeAvailabilityNoExactMatch
	CodeListBookingsSuccess
	CodeListBookingsEmpty
	CodeBookingFoundAndCancelled
	CodeBookingNotFound
	CodeBookingCancellationFailed
)

var codeNames = map[Code]string{
	CodeUnknown:                   "unknown",
	CodeCalcomAPIRequestFailed:    "calcom_api_request_failed",
	CodeUnexpectedResponseFormat:  "unexpected_response_format",
	CodeFoundMatch:                "found_match",
	CodeNoMatch:                   "no_match",
	CodeSlotsRequestFailed:        "slots_request_failed",
	CodeAllMatched:                "all_matched",
	CodeAvailabilityNoExactMatch:  "availability_no_exact_match",
	CodeListBookingsSuccess:       "list_all_cal_bookings_success",
	CodeListBookingsEmpty:         "list_all_cal_bookings_empty",
	CodeBookingFoundAndCancelled:  "booking_found_and_cancelled",
	CodeBookingNotFound:           "booking_not_found",
	CodeBookingCancellationFailed: "booking_cancellation_failed",
}

// AllCodes returns every code in declaration order.
func AllCodes() []Code {
	codes := make([]Code, 0, len(codeNames))
	for c := CodeUnknown; c <= CodeBookingCancellationFailed; c++ {
		codes = append(codes, c)
	}
	return codes
}

// String returns the wire name of the code (e.g., "found_match").
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Valid reports whether c belongs to the taxonomy.
func (c Code) Valid() bool {
	_, ok := codeNames[c]
	return ok
}

// ParseCode returns the code with the given wire name.
func ParseCode(name string) (Code, error) {
	for c, n := range codeNames {
		if n == name {
			return c, nil
		}
	}
	return CodeUnknown, fmt.Errorf("unknown outcome code %q", name)
}

// MarshalJSON implements json.Marshaler
func (c Code) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid outcome code %d", int(c))
	}
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Code) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseCode(name)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Outcome is the result of a booking operation.
type Outcome struct {
	Status  Status
	Code    Code
	Message string
	Data    any
}

// Success builds a successful outcome.
func Success(code Code, message string, data any) Outcome {
	return Outcome{Status: StatusSuccess, Code: code, Message: message, Data: data}
}

// Error builds a failed outcome.
func Error(code Code, message string, data any) Outcome {
	return Outcome{Status: StatusError, Code: code, Message: message, Data: data}
}

// IsSuccess reports whether the outcome status is success.
func (o Outcome) IsSuccess() bool {
	return o.Status == StatusSuccess
}

type wireResult struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type wireOutcome struct {
	Status Status     `json:"status"`
	Result wireResult `json:"result"`
}

type wireOutcomeIn struct {
	Status Status `json:"status"`
	Result struct {
		Code    Code            `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	} `json:"result"`
}

// MarshalJSON implements json.Marshaler
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireOutcome{
		Status: o.Status,
		Result: wireResult{Code: o.Code, Message: o.Message, Data: o.Data},
	})
}

// UnmarshalJSON implements json.Unmarshaler. Data is kept as json.RawMessage.
func (o *Outcome) UnmarshalJSON(b []byte) error {
	var in wireOutcomeIn
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	o.Status = in.Status
	o.Code = in.Result.Code
	o.Message = in.Result.Message
	o.Data = in.Result.Data
	return nil
}
