package common

// ErrorResponse is the plain error body used by trigger endpoints
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// PageResponse describes the window of a list response
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// ListResponse represents a paginated list response
type ListResponse struct {
	Data interface{}   `json:"data"`
	Page *PageResponse `json:"page,omitempty"`
}
