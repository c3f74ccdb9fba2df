package output

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Status is the outcome of a run
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Envelope is the top-level response of a run. A successful run carries
// either the location the document was stored at or the document itself;
// a failed run carries only a message.
type Envelope struct {
	Status     Status      `json:"status"`
	StatusCode int         `json:"status_code"`
	Location   string      `json:"location,omitempty"`
	Body       interface{} `json:"body,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// Stored builds a success envelope pointing at a persisted document
func Stored(location string) *Envelope {
	return &Envelope{
		Status:     StatusSuccess,
		StatusCode: http.StatusOK,
		Location:   location,
	}
}

// Inline builds a success envelope embedding the document
func Inline(body interface{}) *Envelope {
	return &Envelope{
		Status:     StatusSuccess,
		StatusCode: http.StatusOK,
		Body:       body,
	}
}

// Failure builds a failure envelope
func Failure(err error) *Envelope {
	return &Envelope{
		Status:     StatusFailure,
		StatusCode: http.StatusInternalServerError,
		Message:    err.Error(),
	}
}

// OK reports whether the envelope describes a successful run
func (e *Envelope) OK() bool {
	return e.Status == StatusSuccess
}

// Write encodes the envelope as indented JSON
func (e *Envelope) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(e); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}
