package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/chores_backend/models"
	"bitbucket.org/mmdatafocus/chores_backend/utils"
	"bitbucket.org/mmdatafocus/chores_backend/workflow"
	"github.com/gin-gonic/gin"
)

func CreateTaskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		childId, err := paramInt(c, "childId")
		if err != nil {
			RespondError(c, err)
			return
		}
		var input models.NewTask
		if err := c.ShouldBindJSON(&input); err != nil {
			RespondError(c, err)
			return
		}

		task, err := models.CreateTask(c.Request.Context(), childId, &input)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, task)
	}
}

func ListTasksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		childId, err := childScope(c)
		if err != nil {
			RespondError(c, err)
			return
		}

		tasks, err := models.GetTasks(c.Request.Context(), childId)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tasks)
	}
}

func GetTaskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		childId, err := childScope(c)
		if err != nil {
			RespondError(c, err)
			return
		}
		taskId, err := paramInt(c, "taskId")
		if err != nil {
			RespondError(c, err)
			return
		}

		task, err := models.GetTask(c.Request.Context(), childId, taskId)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

func UpdateTaskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		childId, err := paramInt(c, "childId")
		if err != nil {
			RespondError(c, err)
			return
		}
		taskId, err := paramInt(c, "taskId")
		if err != nil {
			RespondError(c, err)
			return
		}
		var input models.NewTask
		if err := c.ShouldBindJSON(&input); err != nil {
			RespondError(c, err)
			return
		}

		task, err := models.UpdateTask(c.Request.Context(), childId, taskId, &input)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

func DeleteTaskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		childId, err := paramInt(c, "childId")
		if err != nil {
			RespondError(c, err)
			return
		}
		taskId, err := paramInt(c, "taskId")
		if err != nil {
			RespondError(c, err)
			return
		}

		task, err := models.DeleteTask(c.Request.Context(), childId, taskId)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

// child marks the chore done
func CompleteTaskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		childId, err := childScope(c)
		if err != nil {
			RespondError(c, err)
			return
		}
		taskId, err := paramInt(c, "taskId")
		if err != nil {
			RespondError(c, err)
			return
		}

		task, err := models.CompleteTask(c.Request.Context(), childId, taskId)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

type submitProofRequest struct {
	ProofUrl    string `json:"proof_url" binding:"required"`
	AiValidated *bool  `json:"ai_validated"`
}

// proof-validation callback from the validation service
func SubmitTaskProofHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		childId, err := childScope(c)
		if err != nil {
			RespondError(c, err)
			return
		}
		taskId, err := paramInt(c, "taskId")
		if err != nil {
			RespondError(c, err)
			return
		}
		var req submitProofRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, err)
			return
		}

		task, err := models.SubmitTaskProof(c.Request.Context(), childId, taskId, req.ProofUrl, req.AiValidated)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

// parent approval; credits the ledger with the task's prorated value
func ApproveTaskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		parentId, err := callerId(ctx)
		if err != nil {
			RespondError(c, err)
			return
		}
		if !callerIsParent(ctx) {
			RespondError(c, utils.ErrorUnauthorized)
			return
		}
		childId, err := paramInt(c, "childId")
		if err != nil {
			RespondError(c, err)
			return
		}
		taskId, err := paramInt(c, "taskId")
		if err != nil {
			RespondError(c, err)
			return
		}

		task, err := workflow.ApproveTask(ctx, parentId, childId, taskId)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

func AcknowledgeTaskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		childId, err := childScope(c)
		if err != nil {
			RespondError(c, err)
			return
		}
		taskId, err := paramInt(c, "taskId")
		if err != nil {
			RespondError(c, err)
			return
		}

		task, err := models.AcknowledgeTask(c.Request.Context(), childId, taskId)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}
