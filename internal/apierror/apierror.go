// Package apierror provides the response bodies the API writes.
// Business endpoints answer with an Envelope; middleware failures
// (auth, rate limiting, panics) answer with a bare APIError.
package apierror

const (
	StateSuccess = "success"
	StateError   = "error"
)

// Envelope is the body of every business endpoint response.
type Envelope struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Total   *int64 `json:"total,omitempty"`
}

func OK(data any) *Envelope {
	return &Envelope{State: StateSuccess, Data: data}
}

// OKMessage carries a user-facing confirmation alongside the data.
func OKMessage(msg string, data any) *Envelope {
	return &Envelope{State: StateSuccess, Message: msg, Data: data}
}

// Page wraps a listing with its unpaginated row count.
func Page(data any, total int64) *Envelope {
	return &Envelope{State: StateSuccess, Data: data, Total: &total}
}

func Fail(msg string) *Envelope {
	return &Envelope{State: StateError, Message: msg}
}

// APIError is the body of 4xx/5xx responses written by middleware.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	State  string            `json:"state"`
	Detail string            `json:"message"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{State: StateError, Detail: "Données invalides", Fields: fields}
}
