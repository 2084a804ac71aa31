// errors.go - Maps domain errors and validation failures to HTTP responses

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"kkmt-store/models"
	"kkmt-store/storage"
)

const internalErrorMessage = "An unexpected error occurred"

// respondError writes the status that matches err. Unknown errors are logged
// and answered with a generic message.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrProductNotFound),
		errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrImageNotFound),
		errors.Is(err, models.ErrCategoryNotFound),
		errors.Is(err, models.ErrBlogNotFound),
		errors.Is(err, models.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": capitalize(err.Error())})
	case errors.Is(err, models.ErrProductHasOrders),
		errors.Is(err, models.ErrEmailTaken),
		errors.Is(err, models.ErrSKUTaken),
		errors.Is(err, models.ErrCategoryExists):
		c.JSON(http.StatusConflict, gin.H{"message": capitalize(err.Error())})
	case errors.Is(err, models.ErrInvalidPrice):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": capitalize(err.Error())})
	case errors.Is(err, storage.ErrUnsupportedType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"message": capitalize(err.Error())})
	case errors.Is(err, storage.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": capitalize(err.Error())})
	case errors.Is(err, errUploadsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": capitalize(err.Error())})
	case errors.Is(err, models.ErrInvalidCart), errors.Is(err, models.ErrTotalMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"message": capitalize(err.Error())})
	default:
		h.Log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": internalErrorMessage})
	}
}

// badRequest answers a binding failure with readable field messages.
func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"message": message}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[jsonField(fe)] = fieldMessage(fe)
		}
		body["errors"] = fields
	}
	c.JSON(http.StatusBadRequest, body)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// jsonField turns "CheckoutRequest.CustomerInfo.FullName" into
// "customerInfo.fullName".
func jsonField(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// paramID parses a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// queryInt reads an integer query parameter with a fallback.
func queryInt(c *gin.Context, name string, fallback int) int {
	if n, err := strconv.Atoi(c.Query(name)); err == nil {
		return n
	}
	return fallback
}

// queryUint reads an optional positive id from the query string.
func queryUint(c *gin.Context, name string) *uint {
	n, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil || n == 0 {
		return nil
	}
	id := uint(n)
	return &id
}
