package middleware

import (
	"errors"
	"net/http"

	"github.com/Gcbank-Online/glcbank/shared/apperrors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

type BadRequestErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details []ValidationError `json:"details"`
}

func ValidateRequest(obj any) []ValidationError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []ValidationError{{Field: "", Message: err.Error(), Type: "invalid"}}
	}

	validationErrors := make([]ValidationError, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fe.Field(),
			Message: getErrorMsg(fe),
			Type:    fe.Tag(),
		})
	}
	return validationErrors
}

func getErrorMsg(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gt":
		return "Value must be greater than " + err.Param()
	case "gte":
		return "Value must be greater than or equal to " + err.Param()
	case "nefield":
		return "Value must differ from " + err.Param()
	default:
		return "Invalid value"
	}
}

func RespondWithValidationError(c *gin.Context, validationErrors []ValidationError) {
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Code:    string(apperrors.CodeValidation),
		Message: "Invalid request data",
		Details: validationErrors,
	})
}

func RespondWithError(c *gin.Context, code int, errCode apperrors.Code, message string) {
	c.JSON(code, ErrorResponse{
		Code:    string(errCode),
		Message: message,
	})
}

// RespondWithAppError writes err using its category. Storage failures never
// leak their cause; the caller only sees the generic message.
func RespondWithAppError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	message := apperrors.GenericStorageMessage
	if appErr, ok := apperrors.As(err); ok && code != apperrors.CodeStorage {
		message = appErr.Message
	}
	c.JSON(apperrors.HTTPStatus(code), ErrorResponse{
		Code:      string(code),
		Message:   message,
		Retryable: apperrors.IsRetryable(err),
	})
}
