package response

import (
	"errors"
	"net/http"

	"github.com/campus-venues/service-booking/pkg/domain"
	"github.com/gin-gonic/gin"
)

// Envelope is the JSON body returned by every endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes a 200 response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// BadRequest writes a 400 response with a validation error code.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{
		Error: &ErrorBody{Code: "VALIDATION_ERROR", Message: message},
	})
}

// Error maps err to an HTTP status. Unknown errors become 500 without leaking details.
func Error(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, Envelope{
			Error: &ErrorBody{Code: "INTERNAL_ERROR", Message: "internal server error"},
		})
		return
	}

	status := http.StatusInternalServerError
	switch de.Kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindInvalidState:
		status = http.StatusUnprocessableEntity
	}

	message := de.Message
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, Envelope{Error: &ErrorBody{Code: de.Code, Message: message}})
}
