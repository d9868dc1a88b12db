package handlers

import (
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/chores_backend/models"
	"github.com/gin-gonic/gin"
)

// PredictedAllowanceHandler reports what the child has earned so far this
// month if everything currently COMPLETED/APPROVED were paid out.
func PredictedAllowanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		childId, err := childScope(c)
		if err != nil {
			RespondError(c, err)
			return
		}

		predicted, err := models.CalculatePredictedAllowance(c.Request.Context(), childId)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"predicted_allowance": predicted})
	}
}

// TaskValuesHandler returns each task decorated with its prorated value
// for the current month. Values are computed on read; nothing here is
// persisted back to the task rows.
func TaskValuesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		childId, err := childScope(c)
		if err != nil {
			RespondError(c, err)
			return
		}

		child, err := models.GetUser(ctx, childId)
		if err != nil {
			RespondError(c, err)
			return
		}
		tasks, err := models.GetTasks(ctx, childId)
		if err != nil {
			RespondError(c, err)
			return
		}

		now := time.Now()
		active := models.ActiveTasksForMonth(tasks, now.Year(), now.Month())
		for _, task := range active {
			value := models.CalculateTaskValue(task, child.MonthlyAllowance, active, now.Year(), now.Month())
			task.Value = &value
		}
		c.JSON(http.StatusOK, active)
	}
}
