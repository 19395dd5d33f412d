package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/vigenere-go/internal/errors"
	"github.com/vigenere-go/internal/trace"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// RespondError writes a JSON error response with logging
func RespondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewInternalWithCause("Internal server error", err)
	}

	ev := log.Warn()
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(appErr.Cause).
		Str("request_id", trace.GetRequestID(c.Request.Context())).
		Str("code", appErr.Code.String()).
		Msg(appErr.Message)

	c.AbortWithStatusJSON(apperrors.ToHTTPStatus(appErr), APIResponse{
		Code: int(appErr.Code),
		Msg:  appErr.Message,
	})
}

// RespondSuccess writes a JSON success response
func RespondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Code: 0,
		Data: data,
	})
}
