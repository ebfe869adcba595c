package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/taskflow/internal/activeorg"
	activitydomain "github.com/smallbiznis/taskflow/internal/activity/domain"
	analyticsdomain "github.com/smallbiznis/taskflow/internal/analytics/domain"
	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
	"github.com/smallbiznis/taskflow/internal/authorization"
	boarddomain "github.com/smallbiznis/taskflow/internal/board/domain"
	commentdomain "github.com/smallbiznis/taskflow/internal/comment/domain"
	labeldomain "github.com/smallbiznis/taskflow/internal/label/domain"
	organizationdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
	projectdomain "github.com/smallbiznis/taskflow/internal/project/domain"
	taskdomain "github.com/smallbiznis/taskflow/internal/task/domain"
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
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")

	ErrTooManyRequests = errors.New("too_many_requests")
)

// knownError describes how a domain sentinel is reported to clients.
type knownError struct {
	err     error
	status  int
	field   string
	message string
}

var knownErrors = []knownError{
	// validation
	{ErrInvalidRequest, http.StatusBadRequest, "request", "Invalid request."},
	{activeorg.ErrNoActiveOrg, http.StatusBadRequest, "organization", "No active organization selected."},
	{authdomain.ErrInvalidUsername, http.StatusBadRequest, "username", "Enter a valid username."},
	{authdomain.ErrInvalidEmail, http.StatusBadRequest, "email", "Enter a valid email address."},
	{authdomain.ErrWeakPassword, http.StatusBadRequest, "password", "Password must be at least 8 characters."},
	{authdomain.ErrUserExists, http.StatusBadRequest, "username", "A user with that username already exists."},
	{organizationdomain.ErrInvalidName, http.StatusBadRequest, "name", "Organization name is required."},
	{organizationdomain.ErrInvalidOrganization, http.StatusBadRequest, "organization", "Invalid organization."},
	{organizationdomain.ErrInvalidUser, http.StatusBadRequest, "user", "Invalid user."},
	{projectdomain.ErrInvalidName, http.StatusBadRequest, "name", "Project name is required."},
	{boarddomain.ErrInvalidName, http.StatusBadRequest, "name", "Name is required."},
	{boarddomain.ErrInvalidProject, http.StatusBadRequest, "project", "Invalid project."},
	{boarddomain.ErrInvalidBoard, http.StatusBadRequest, "board", "Invalid board."},
	{boarddomain.ErrProjectNotInOrg, http.StatusBadRequest, "project", "Project does not belong to the active organization."},
	{boarddomain.ErrBoardNotInOrg, http.StatusBadRequest, "board", "Board does not belong to the active organization."},
	{labeldomain.ErrInvalidName, http.StatusBadRequest, "name", "Label name is required."},
	{labeldomain.ErrInvalidColor, http.StatusBadRequest, "color", "Label color is required."},
	{taskdomain.ErrInvalidTitle, http.StatusBadRequest, "title", "Task title is required."},
	{taskdomain.ErrInvalidColumn, http.StatusBadRequest, "column", "Invalid column."},
	{taskdomain.ErrInvalidPriority, http.StatusBadRequest, "priority", "Priority must be low, medium or high."},
	{taskdomain.ErrInvalidDueDate, http.StatusBadRequest, "due_date", "Date has wrong format. Use YYYY-MM-DD."},
	{taskdomain.ErrInvalidAssignee, http.StatusBadRequest, "assignees", "Invalid assignee."},
	{taskdomain.ErrInvalidLabel, http.StatusBadRequest, "labels", "Label does not belong to the active organization."},
	{taskdomain.ErrColumnNotInOrg, http.StatusBadRequest, "column", "Column does not belong to the active organization."},
	{commentdomain.ErrInvalidContent, http.StatusBadRequest, "content", "Comment content is required."},
	{commentdomain.ErrInvalidTask, http.StatusBadRequest, "task", "Invalid task."},
	{commentdomain.ErrInvalidParent, http.StatusBadRequest, "parent", "Invalid parent comment."},
	{activitydomain.ErrInvalidFilter, http.StatusBadRequest, "filter", "Invalid filter."},
	{analyticsdomain.ErrMissingOrgID, http.StatusBadRequest, "org_id", "Missing required parameter: org_id"},
	{analyticsdomain.ErrInvalidOrgID, http.StatusBadRequest, "org_id", "Invalid org_id."},
	{analyticsdomain.ErrInvalidProject, http.StatusBadRequest, "project_id", "Invalid project_id."},
	{analyticsdomain.ErrInvalidDate, http.StatusBadRequest, "date", "Date has wrong format. Use YYYY-MM-DD."},

	// authentication
	{ErrUnauthorized, http.StatusUnauthorized, "", "Authentication credentials were not provided."},
	{authdomain.ErrInvalidCredentials, http.StatusUnauthorized, "", "Invalid username or password."},
	{authdomain.ErrInvalidSession, http.StatusUnauthorized, "", "Invalid session."},
	{authdomain.ErrSessionNotFound, http.StatusUnauthorized, "", "Invalid session."},
	{authdomain.ErrSessionExpired, http.StatusUnauthorized, "", "Session expired."},
	{authdomain.ErrSessionRevoked, http.StatusUnauthorized, "", "Session revoked."},
	{activeorg.ErrNoSession, http.StatusUnauthorized, "", "Invalid session."},

	// authorization
	{ErrForbidden, http.StatusForbidden, "", "You do not have permission to perform this action."},
	{authorization.ErrForbidden, http.StatusForbidden, "", "You do not have permission to perform this action."},
	{organizationdomain.ErrNotMember, http.StatusForbidden, "", "You are not a member of this organization."},
	{analyticsdomain.ErrUnauthorizedOrg, http.StatusForbidden, "", "Unauthorized for this organization."},

	// throttling
	{ErrTooManyRequests, http.StatusTooManyRequests, "", "Too many login attempts. Try again later."},

	// not found
	{taskdomain.ErrUserNotFound, http.StatusNotFound, "", "User not found."},
	{authdomain.ErrUserNotFound, http.StatusNotFound, "", "User not found."},
	{organizationdomain.ErrNotFound, http.StatusNotFound, "", "Organization not found."},
	{projectdomain.ErrNotFound, http.StatusNotFound, "", "Project not found."},
	{boarddomain.ErrNotFound, http.StatusNotFound, "", "Board not found."},
	{boarddomain.ErrColumnNotFound, http.StatusNotFound, "", "Column not found."},
	{labeldomain.ErrNotFound, http.StatusNotFound, "", "Label not found."},
	{taskdomain.ErrNotFound, http.StatusNotFound, "", "Task not found."},
	{commentdomain.ErrNotFound, http.StatusNotFound, "", "Comment not found."},
	{activitydomain.ErrNotFound, http.StatusNotFound, "", "Activity log not found."},
	{activitydomain.ErrTaskNotFound, http.StatusNotFound, "", "Task not found."},
	{authorization.ErrResourceNotFound, http.StatusNotFound, "", "Not found."},
	{ErrNotFound, http.StatusNotFound, "", "Not found."},
	{gorm.ErrRecordNotFound, http.StatusNotFound, "", "Not found."},
}

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
	return newValidationError("request", "invalid_request", "Invalid request.")
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
			Message: "Internal server error.",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		message := "Validation error."
		if len(vErr.Errors) > 0 {
			message = vErr.Errors[0].Message
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: message,
			Errors:  vErr.Errors,
		}
	}

	known, ok := lookupKnownError(err)
	if !ok {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "Internal server error.",
		}
	}

	payload := errorPayload{
		Type:    errorType(known.status),
		Message: known.message,
	}
	if known.status == http.StatusBadRequest {
		payload.Errors = []ValidationError{
			{
				Field:   known.field,
				Code:    known.err.Error(),
				Message: known.message,
			},
		}
	}
	return known.status, payload
}

func lookupKnownError(err error) (knownError, bool) {
	for _, known := range knownErrors {
		if errors.Is(err, known.err) {
			return known, true
		}
	}
	return knownError{}, false
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "internal_error"
	}
}

// classifyErrorForLog returns the error type and a bounded code for request logs.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	if asValidationErrors(err) != nil {
		return "validation_error", "invalid_request"
	}
	if known, ok := lookupKnownError(err); ok {
		return errorType(known.status), known.err.Error()
	}
	return "internal_error", "internal_error"
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}
