package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/chores_backend/models"
	"bitbucket.org/mmdatafocus/chores_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// parseAmount parses a client-provided money string. Amounts travel as
// strings so clients never round-trip them through binary floats.
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, utils.ErrorInvalidArgument
	}
	return d, nil
}

// RespondError maps the error taxonomy to HTTP statuses. Unknown errors
// stay opaque 500s so internal details never leak to clients.
func RespondError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": utils.ProcessValidationErrors(err)})
		return
	}

	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorInsufficientBalance):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func paramInt(c *gin.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		return 0, utils.ErrorInvalidArgument
	}
	return v, nil
}

// callerId returns the authenticated user id or fails the request.
func callerId(ctx context.Context) (int, error) {
	id, ok := utils.GetUserIdFromContext(ctx)
	if !ok || id == 0 {
		return 0, utils.ErrorUnauthorized
	}
	return id, nil
}

func callerIsParent(ctx context.Context) bool {
	role, _ := utils.GetUserRoleFromContext(ctx)
	return models.UserRole(role) == models.UserRoleParent
}

// childScope resolves which child account the request targets: a parent
// names the child in the path, a child may only target itself.
func childScope(c *gin.Context) (int, error) {
	ctx := c.Request.Context()
	caller, err := callerId(ctx)
	if err != nil {
		return 0, err
	}
	childId, err := paramInt(c, "childId")
	if err != nil {
		return 0, err
	}
	if callerIsParent(ctx) {
		if _, err := models.GetChildOfParent(ctx, caller, childId); err != nil {
			return 0, err
		}
		return childId, nil
	}
	if caller != childId {
		return 0, utils.ErrorUnauthorized
	}
	return childId, nil
}
