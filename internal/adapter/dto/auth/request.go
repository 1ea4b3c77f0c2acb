package auth

// CallbackRequest is the query Google redirects back with
type CallbackRequest struct {
	Code  string `query:"code" validate:"required"`
	State string `query:"state" validate:"required"`
	Error string `query:"error"`
}
