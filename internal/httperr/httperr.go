package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HTTPError is the envelope every error response uses. Code is a stable
// machine-readable identifier; Message is for humans and may change.
type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{Code: code, Message: message})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

// Conflict covers contention outcomes, like a slot taken between
// listing and reserving or a transition from the wrong state.
func Conflict(c *gin.Context, code, message string) {
	Write(c, http.StatusConflict, code, message)
}

// Gone marks resources that existed but lapsed, like an expired deposit
// hold.
func Gone(c *gin.Context, code, message string) {
	Write(c, http.StatusGone, code, message)
}

// UnprocessableEntity is for well-formed requests the provider's plan or
// configuration rejects.
func UnprocessableEntity(c *gin.Context, code, message string) {
	Write(c, http.StatusUnprocessableEntity, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}
