package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified success envelope.
// @Description Unified response with status code, message and data
type Response struct {
	Code    int         `json:"code" example:"0"` // 0 means success
	Message string      `json:"message" example:"success"`
	Data    interface{} `json:"data"`
}

// ErrorResponse is the unified error envelope. Reason carries a stable
// machine-readable code so clients can distinguish "not allowed" from
// "invalid state" from "please retry".
type ErrorResponse struct {
	Code    int    `json:"code" example:"400"`
	Reason  string `json:"reason" example:"VALIDATION_ERROR"`
	Message string `json:"message" example:"invalid request"`
	Detail  string `json:"detail,omitempty" example:"number_of_cats must not be negative"`
}

// Success writes a success envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error writes an error envelope with the given reason code.
func Error(c *gin.Context, code int, reason string, message string, detail string) {
	statusCode := http.StatusInternalServerError
	if code >= 400 && code < 600 {
		statusCode = code
	}

	c.JSON(statusCode, ErrorResponse{
		Code:    code,
		Reason:  reason,
		Message: message,
		Detail:  detail,
	})
}
