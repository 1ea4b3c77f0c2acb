package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ftfc/crm/errors"
	"github.com/ftfc/crm/internal/domain/entities"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// toAppError maps domain sentinels to their HTTP representation
func toAppError(err error) (errors.AppError, bool) {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr, true
	}

	switch {
	case stdErrors.Is(err, entities.ErrMemberNotFound):
		return errors.ErrMemberNotFound(), true
	case stdErrors.Is(err, entities.ErrOAuthStateMismatch):
		return errors.ErrStateMismatch(), true
	case stdErrors.Is(err, entities.ErrOAuthCodeInvalid),
		stdErrors.Is(err, entities.ErrInvalidEmail),
		stdErrors.Is(err, entities.ErrNoRefreshToken):
		return errors.ErrOAuthFailed("google", err), true
	case stdErrors.Is(err, entities.ErrInvalidToken), stdErrors.Is(err, entities.ErrUnauthorized):
		return errors.ErrInvalidToken(), true
	case stdErrors.Is(err, entities.ErrScanInProgress):
		return errors.ErrScanInProgress(), true
	case stdErrors.Is(err, entities.ErrInvalidSignature):
		return errors.ErrInvalidSignature("calendly"), true
	case stdErrors.Is(err, entities.ErrInvalidSecurityEvent):
		return errors.ErrInvalidSecurityEvent(err), true
	case stdErrors.Is(err, entities.ErrInvalidEntityType):
		return errors.ErrInvalidArgument("entityType must be client, investor or partner"), true
	}
	return errors.AppError{}, false
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Debug("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.JSON(http.StatusOK, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)

	if appErr, ok := toAppError(err); ok {
		if logger != nil {
			log := logger.Warn
			if appErr.HTTPCode >= http.StatusInternalServerError {
				log = logger.Error
			}
			log("http.response.error",
				zap.String("request_id", reqID),
				zap.String("path", c.Path()),
				zap.Stringer("app_code", appErr.Code),
				zap.Error(err),
			)
		}

		info := ""
		if appErr.Raw != nil {
			info = appErr.Raw.Error()
		}

		body := errs{
			Code:    appErr.Code,
			Message: appErr.Message,
			Info:    info,
			Details: appErr.Details,
		}

		return c.JSON(appErr.HTTPCode, body)
	}

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	body := errs{
		Code:    errors.ErrorCode_INTERNAL,
		Message: "Internal server error",
	}

	return c.JSON(http.StatusInternalServerError, body)
}

// bindAndValidate binds query, path and body parameters and runs the validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.ErrInvalidPayload()
	}
	if err := c.Validate(req); err != nil {
		return errors.ErrInvalidArgument(err.Error())
	}
	return nil
}
