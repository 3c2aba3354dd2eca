package model

// Operation statuses. Every externally-facing operation resolves to exactly
// one of these; ERROR is terminal for that operation and Message is meant
// for direct display to the user.
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

// OperationResult is the uniform envelope returned by every deal, directory,
// and schema operation.
type OperationResult struct {
	Status   string       `json:"status"`
	Message  string       `json:"message,omitempty"`
	Data     any          `json:"data,omitempty"`
	Fields   []FieldError `json:"fields,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`

	// Code is the originating error code on ERROR results. It steers the
	// HTTP status at the transport boundary and stays out of the body.
	Code string `json:"-"`
}

// Succeeded reports whether the result carries a SUCCESS status.
func (r OperationResult) Succeeded() bool { return r.Status == StatusSuccess }

// SuccessResult wraps data in a SUCCESS envelope.
func SuccessResult(data any) OperationResult {
	return OperationResult{Status: StatusSuccess, Data: data}
}

// ErrorResult converts an error into an ERROR envelope. Field-level details
// of a validation error are carried through so the UI can annotate inputs.
func ErrorResult(err error) OperationResult {
	if ee, ok := err.(*ErrorEnvelope); ok {
		return OperationResult{Status: StatusError, Message: ee.Message, Fields: ee.Details, Code: ee.Code}
	}
	return OperationResult{Status: StatusError, Message: err.Error(), Code: ErrInternalError}
}
