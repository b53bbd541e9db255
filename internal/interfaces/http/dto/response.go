// Package dto holds the JSON envelope shared by every HTTP response.
package dto

// Response is the envelope of every API response
type Response struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Meta      *Meta      `json:"meta,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
}

// ErrorInfo describes a failed request
type ErrorInfo struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Details []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail names one rejected field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta represents pagination metadata
type Meta struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Count    int `json:"count"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any, requestID string) Response {
	return Response{
		Success:   true,
		Data:      data,
		RequestID: requestID,
	}
}

// NewPagedResponse creates a success response carrying page metadata
func NewPagedResponse(data any, page, pageSize, count int, requestID string) Response {
	return Response{
		Success:   true,
		Data:      data,
		Meta:      &Meta{Page: page, PageSize: pageSize, Count: count},
		RequestID: requestID,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message, requestID string) Response {
	return Response{
		Error:     &ErrorInfo{Code: code, Message: message},
		RequestID: requestID,
	}
}

// NewValidationErrorResponse creates a VALIDATION_ERROR response listing the bad fields
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	return Response{
		Error: &ErrorInfo{
			Code:    ErrCodeValidation,
			Message: message,
			Details: details,
		},
		RequestID: requestID,
	}
}

// PageQuery is the pagination query of list endpoints
type PageQuery struct {
	Page           int  `form:"page" binding:"omitempty,min=1"`
	PageSize       int  `form:"page_size" binding:"omitempty,min=1,max=500"`
	IncludeDeleted bool `form:"include_deleted"`
}

// Normalize fills in the defaults
func (q PageQuery) Normalize() PageQuery {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = 100
	}
	return q
}
