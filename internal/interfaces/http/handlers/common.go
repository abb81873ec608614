// Package handlers implements the HTTP endpoints of the assessment API.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/propshield/climarisk/internal/interfaces/http/middleware"
	"github.com/propshield/climarisk/pkg/errors"
	"github.com/propshield/climarisk/pkg/types/common"
)

// respondOK writes a success envelope with the given payload.
func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, common.APIResponse[interface{}]{
		Success:   true,
		Data:      data,
		RequestID: middleware.GetRequestID(c),
		Timestamp: common.Timestamp(time.Now().UTC()),
	})
}

// respondError maps an application error to its HTTP status and writes an
// error envelope.  Internal details stay out of the response body.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := code.HTTPStatus()

	message := err.Error()
	var detail string
	if appErr, ok := err.(*errors.AppError); ok {
		message = appErr.Message
		detail = appErr.Detail
	}
	if status == http.StatusInternalServerError {
		message = "internal server error"
		detail = ""
	}

	c.JSON(status, common.APIResponse[interface{}]{
		Success: false,
		Error: &common.ErrorDetail{
			Code:    string(code),
			Message: message,
			Detail:  detail,
		},
		RequestID: middleware.GetRequestID(c),
		Timestamp: common.Timestamp(time.Now().UTC()),
	})
}

// parseLimitOffset extracts limit and offset query parameters with bounds.
func parseLimitOffset(c *gin.Context) (int, int) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
