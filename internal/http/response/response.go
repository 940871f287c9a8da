// Package response renders the JSON envelopes the HTTP surface returns,
// keeping the shape spec.md §6/§7 specifies: any non-2xx body is
// {detail, trace_id}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorEnvelope is the body of every non-2xx response.
type ErrorEnvelope struct {
	Detail  string `json:"detail"`
	TraceID string `json:"trace_id,omitempty"`
}

// RespondError writes status with the given detail message, echoing the
// request's trace id.
func RespondError(c *gin.Context, status int, detail string) {
	c.JSON(status, ErrorEnvelope{
		Detail:  detail,
		TraceID: c.GetString("trace_id"),
	})
}

// RespondOK writes payload with status 200.
func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
