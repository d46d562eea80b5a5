package dto

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

// MessageResponse is returned by endpoints that only acknowledge.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
