package response

import "time"

// Envelope is the JSON shape shared by every API response except raw menu and QR image payloads.
type Envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Errors    any    `json:"errors,omitempty"`
	Timestamp string `json:"timestamp"`

	// Debug fields, only filled outside production.
	Type  string `json:"type,omitempty"`
	Stack string `json:"stack,omitempty"`
}

// Now formats the current time the way every envelope does.
func Now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// Success wraps data in a success envelope
func Success(message string, data any) Envelope {
	if message == "" {
		message = "Sucesso"
	}
	return Envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: Now(),
	}
}

// Error builds a failure envelope; errs is omitted when nil
func Error(message string, errs any) Envelope {
	return Envelope{
		Success:   false,
		Message:   message,
		Data:      nil,
		Errors:    errs,
		Timestamp: Now(),
	}
}
