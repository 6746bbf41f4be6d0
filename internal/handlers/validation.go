package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/tenderhq/tenderdesk/pkg/errors"
	"github.com/tenderhq/tenderdesk/pkg/validator"
)

// bindAndValidate decodes the JSON body into target and applies the struct's
// validation tags. Failures come back as a 400 AppError with per-field details.
func bindAndValidate(c *gin.Context, target any) error {
	if err := c.ShouldBindJSON(target); err != nil {
		return apperrors.NewBadRequest("invalid JSON payload").WithInternal(err)
	}
	if err := validator.ValidateStruct(target); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return apperrors.NewBadRequest("invalid request payload").WithInternal(err)
	}

	fields := make([]apperrors.FieldError, 0, len(failures))
	for _, failure := range failures {
		fields = append(fields, apperrors.FieldError{
			Field:   failure.Field,
			Message: validationMessage(failure),
		})
	}
	return apperrors.NewValidation(fields)
}

func validationMessage(failure validator.ValidationError) string {
	switch failure.Tag {
	case "required":
		return failure.Field + " is required"
	case "email":
		return failure.Field + " must be a valid email address"
	case "uuid":
		return failure.Field + " must be a valid UUID"
	case "min":
		return failure.Field + " must be at least " + failure.Param
	case "max":
		return failure.Field + " must be at most " + failure.Param
	case "notification_type":
		return failure.Field + " must be a known notification type"
	default:
		return failure.Field + " is invalid"
	}
}

// parseIntQuery reads an optional integer query parameter, falling back to the
// default when absent or malformed.
func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// parseBoolQuery reads an optional boolean query parameter.
func parseBoolQuery(c *gin.Context, name string) bool {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}
