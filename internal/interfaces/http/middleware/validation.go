package middleware

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/wms/backend/internal/interfaces/http/dto"
)

// RequestIDKey is the header carrying the request id
const RequestIDKey = "X-Request-ID"

// SetupValidator makes the binding validator report field names as they
// appear on the wire, so a bad "pick_request_id" is flagged as
// "pick_request_id" and not "PickRequestID".
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
}

// HandleValidationError writes the 400 response for a request body that
// failed binding, with one detail row per offending field.
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, requestIDFrom(c)))
}

// FormatValidationErrors turns validator errors into the API's error shape.
// Non-validator errors (malformed JSON and the like) produce a response
// without field details.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range verrs {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: messageFor(e),
			})
		}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

func requestIDFrom(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader(RequestIDKey)
}

// messageFor covers the binding tags the request DTOs actually use; anything
// new falls back to a generic message until a case is added here.
func messageFor(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "uuid":
		return "Invalid UUID format"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	default:
		return "Invalid value"
	}
}
