package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/gentacalc/pkg/errors"
)

// Response wraps non-calculation API payloads
type Response struct {
	Data interface{} `json:"data"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondWithSuccess sends data wrapped in a Response envelope
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Data: data})
}

// RespondWithJSON sends payload unwrapped
func RespondWithJSON(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// RespondWithError sends an error response. Errors that are not AppErrors are
// reported as internal without leaking their text.
func RespondWithError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	message := "Intern feil"

	if appErr, ok := errors.As(err); ok {
		statusCode = appErr.StatusCode()
		if statusCode != http.StatusInternalServerError {
			message = appErr.Message
		}
	}

	c.AbortWithStatusJSON(statusCode, ErrorResponse{Error: message})
}
