package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every JSON endpoint returns
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// RespondWith writes a success envelope
func RespondWith(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

// RespondWithList writes a success envelope with an item count
func RespondWithList(c *gin.Context, items interface{}, count int) {
	c.JSON(http.StatusOK, Response{Success: true, Data: items, Count: &count})
}

// RespondWithError writes an error envelope. Errors that are not an
// *APIError are reported as internal errors without leaking their text.
func RespondWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = ErrInternalServer
	}
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(apiErr.Status, Response{Success: false, Error: apiErr})
}
