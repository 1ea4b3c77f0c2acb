package errors

// ErrorCode is the machine readable code carried by AppError
type ErrorCode int

const (
	ErrorCode_HTTP_OK          ErrorCode = 200
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1000
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1004
	ErrorCode_UNAUTHENTICATED  ErrorCode = 1401
	ErrorCode_INTERNAL         ErrorCode = 1500

	ErrorCode_AUTH_INVALID_TOKEN    ErrorCode = 2001
	ErrorCode_AUTH_MEMBER_NOT_FOUND ErrorCode = 2003
	ErrorCode_AUTH_OAUTH_FAILED     ErrorCode = 2004
	ErrorCode_AUTH_STATE_MISMATCH   ErrorCode = 2005

	ErrorCode_NOTES_SCAN_IN_PROGRESS ErrorCode = 3002

	ErrorCode_WEBHOOK_INVALID_SIGNATURE ErrorCode = 4001
	ErrorCode_WEBHOOK_INVALID_TOKEN     ErrorCode = 4002
	ErrorCode_WEBHOOK_PROCESSING_FAILED ErrorCode = 4003

	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 5002
	ErrorCode_INTEGRATION_CACHE_FAILED   ErrorCode = 5003

	ErrorCode_DB_QUERY_FAILED ErrorCode = 6001
)

var codeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                    "HTTP_OK",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_UNAUTHENTICATED:            "UNAUTHENTICATED",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_AUTH_INVALID_TOKEN:         "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_MEMBER_NOT_FOUND:      "AUTH_MEMBER_NOT_FOUND",
	ErrorCode_AUTH_OAUTH_FAILED:          "AUTH_OAUTH_FAILED",
	ErrorCode_AUTH_STATE_MISMATCH:        "AUTH_STATE_MISMATCH",
	ErrorCode_NOTES_SCAN_IN_PROGRESS:     "NOTES_SCAN_IN_PROGRESS",
	ErrorCode_WEBHOOK_INVALID_SIGNATURE:  "WEBHOOK_INVALID_SIGNATURE",
	ErrorCode_WEBHOOK_INVALID_TOKEN:      "WEBHOOK_INVALID_TOKEN",
	ErrorCode_WEBHOOK_PROCESSING_FAILED:  "WEBHOOK_PROCESSING_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:   "INTEGRATION_CACHE_FAILED",
	ErrorCode_DB_QUERY_FAILED:            "DB_QUERY_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText renders the code by name in JSON bodies
func (c ErrorCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
