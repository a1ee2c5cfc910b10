// Package gateway implements the prompt gateway that relays user text to the
// upstream chat-completion API.
package gateway

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FallbackReply is returned when the upstream answer carries no reply text.
const FallbackReply = "Sorry, unable to generate analysis."

// InternalErrorMessage is the only failure text surfaced to callers.
const InternalErrorMessage = "Internal server error."

// InvalidBodyMessage answers request bodies that are not JSON.
const InvalidBodyMessage = "Invalid request body."

// AnalysisRequest is the body of POST /api/analyze.
type AnalysisRequest struct {
	Message      Text   `json:"message"`
	UserLocation Text   `json:"userLocation"`
	SessionMode  Truthy `json:"sessionMode"`
}

// AnalysisResponse is the success body.
type AnalysisResponse struct {
	Reply string `json:"reply"`
}

// ErrorResponse is the failure body.
type ErrorResponse struct {
	Message string `json:"message"`
}

// Text is a string field that tolerates any JSON scalar. Strings decode
// verbatim, null decodes empty, other scalars keep their JSON spelling.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(data)
	}
	return nil
}

// Truthy decodes any JSON value using JavaScript truthiness: false, 0, "",
// null and absent are false, everything else is true.
type Truthy bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *Truthy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		*b = false
	case bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*b = false
	case bytes.Equal(data, []byte("true")):
		*b = true
	case data[0] == '"':
		*b = len(data) > 2
	case data[0] == '{' || data[0] == '[':
		*b = true
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return err
		}
		*b = f != 0
	}
	return nil
}

// MarshalJSON keeps outbound encoding a plain boolean.
func (b Truthy) MarshalJSON() ([]byte, error) {
	return strconv.AppendBool(nil, bool(b)), nil
}
