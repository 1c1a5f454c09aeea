package dto

import "github.com/storefront/backend/internal/infrastructure/auth"

// Response is the storefront's JSON envelope.
// message and alert drive the toast the frontend shows after a form submit.
type Response struct {
	Message string     `json:"message,omitempty"`
	Alert   bool       `json:"alert"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail describes one rejected field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AuthResponse is the login envelope; tokens travel next to the user payload
type AuthResponse struct {
	Message string          `json:"message"`
	Alert   bool            `json:"alert"`
	Data    any             `json:"data"`
	Tokens  *auth.TokenPair `json:"tokens,omitempty"`
}

// NewSuccessResponse creates a success response with a toast message
func NewSuccessResponse(message string, data any) Response {
	return Response{
		Message: message,
		Alert:   true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message, requestID string) Response {
	return Response{
		Message: message,
		Alert:   false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	}
}

// NewValidationErrorResponse creates a 400 body listing rejected fields
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	resp := NewErrorResponse(ErrCodeValidation, message, requestID)
	resp.Error.Details = details
	return resp
}

// IDRequest represents a request with an ID path parameter
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
