package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Outcome classifies how a backend request ended.
type Outcome int

const (
	// OutcomeOK means the backend answered with a 2xx status and a usable body.
	OutcomeOK Outcome = iota
	// OutcomeNotOK means the backend answered with a non-2xx status.
	OutcomeNotOK
	// OutcomeFailed means no usable answer arrived: transport error or bad body.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotOK:
		return "not-ok"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// StatusError is returned when the backend replies with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// RequestError is returned when a request could not complete or its
// response body could not be used.
type RequestError struct {
	Method string
	Path   string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ErrInvalidRecord marks a success body that does not describe a record.
var ErrInvalidRecord = errors.New("invalid record in response")

// OutcomeOf maps an error returned by Client to its Outcome.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	var se *StatusError
	if errors.As(err, &se) {
		return OutcomeNotOK
	}
	return OutcomeFailed
}
