package server

import (
	"errors"
	"net/http"
	"strings"

	entitlementdomain "github.com/fintutto/zugang/internal/entitlement/domain"
	identitydomain "github.com/fintutto/zugang/internal/identity/domain"
	organizationdomain "github.com/fintutto/zugang/internal/organization/domain"
	rbacdomain "github.com/fintutto/zugang/internal/rbac/domain"
	seatdomain "github.com/fintutto/zugang/internal/seat/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, identitydomain.ErrEmailExists),
		errors.Is(err, organizationdomain.ErrAlreadyMember),
		errors.Is(err, rbacdomain.ErrPermissionExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	// A failed upstream check is never presented as "forbidden"; the UI
	// must be able to offer a retry instead of a denial.
	case errors.Is(err, entitlementdomain.ErrUpstreamUnavailable):
		return http.StatusInternalServerError, errorPayload{
			Type:    "upstream_unavailable",
			Message: "could not check entitlements, try again",
		}
	case errors.Is(err, entitlementdomain.ErrConfiguration):
		return http.StatusInternalServerError, errorPayload{
			Type:    "configuration_error",
			Message: "service misconfigured",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isIdentityValidationError(err),
		isOrganizationValidationError(err),
		isRBACValidationError(err),
		isSeatValidationError(err),
		isEntitlementValidationError(err):
		return true
	default:
		return false
	}
}

func isIdentityValidationError(err error) bool {
	return errors.Is(err, identitydomain.ErrInvalidEmail) ||
		errors.Is(err, identitydomain.ErrInvalidRole) ||
		errors.Is(err, identitydomain.ErrInvalidID)
}

func isOrganizationValidationError(err error) bool {
	return errors.Is(err, organizationdomain.ErrInvalidName) ||
		errors.Is(err, organizationdomain.ErrInvalidID) ||
		errors.Is(err, organizationdomain.ErrInvalidUser)
}

func isRBACValidationError(err error) bool {
	return errors.Is(err, rbacdomain.ErrInvalidName) ||
		errors.Is(err, rbacdomain.ErrInvalidOrganization) ||
		errors.Is(err, rbacdomain.ErrInvalidRole) ||
		errors.Is(err, rbacdomain.ErrInvalidUser) ||
		errors.Is(err, rbacdomain.ErrInvalidGrant) ||
		errors.Is(err, rbacdomain.ErrInvalidExpiry)
}

func isSeatValidationError(err error) bool {
	return errors.Is(err, seatdomain.ErrInvalidUser) ||
		errors.Is(err, seatdomain.ErrInvalidApp) ||
		errors.Is(err, seatdomain.ErrInvalidSeatType) ||
		errors.Is(err, seatdomain.ErrInvalidID)
}

func isEntitlementValidationError(err error) bool {
	return errors.Is(err, entitlementdomain.ErrInvalidUser) ||
		errors.Is(err, entitlementdomain.ErrInvalidApp) ||
		errors.Is(err, entitlementdomain.ErrInvalidPermission) ||
		errors.Is(err, entitlementdomain.ErrInvalidFeature) ||
		errors.Is(err, entitlementdomain.ErrInvalidLimitKey) ||
		errors.Is(err, entitlementdomain.ErrInvalidOrg) ||
		errors.Is(err, entitlementdomain.ErrInvalidCount)
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, identitydomain.ErrNotFound),
		errors.Is(err, organizationdomain.ErrNotFound),
		errors.Is(err, rbacdomain.ErrRoleNotFound),
		errors.Is(err, rbacdomain.ErrGrantNotFound),
		errors.Is(err, rbacdomain.ErrPermissionNotFound),
		errors.Is(err, seatdomain.ErrNotFound),
		errors.Is(err, entitlementdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

// classifyErrorForLog feeds the request logger's error fields without
// rendering a response.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}
