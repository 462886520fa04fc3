// Package httperr defines the JSON error envelope every endpoint answers
// with, so clients can rely on one shape across the API.
package httperr

import (
	"github.com/gin-gonic/gin"
)

// Response is the wire form of a failed request. Detail carries
// operation-specific payloads, such as the conflicting window on an
// overlapping reservation.
type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// AbortWithError records err on the gin context for the logging middleware
// and aborts the request with the enveloped response. The caller decides the
// client-facing message; err stays server-side.
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Detail = detail

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}
