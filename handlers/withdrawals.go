package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/chores_backend/utils"
	"bitbucket.org/mmdatafocus/chores_backend/workflow"
	"github.com/gin-gonic/gin"
)

type withdrawalRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// child requests a withdrawal; the balance hold happens immediately
func RequestWithdrawalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		childId, err := childScope(c)
		if err != nil {
			RespondError(c, err)
			return
		}
		var req withdrawalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, err)
			return
		}
		amount, err := parseAmount(req.Amount)
		if err != nil {
			RespondError(c, err)
			return
		}

		transaction, err := workflow.RequestWithdrawal(c.Request.Context(), childId, amount)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, transaction)
	}
}

type approveWithdrawalRequest struct {
	PaymentProof string `json:"payment_proof" binding:"required"`
}

func ApproveWithdrawalHandler() gin.HandlerFunc {
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
		transactionId, err := paramInt(c, "transactionId")
		if err != nil {
			RespondError(c, err)
			return
		}
		var req approveWithdrawalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, err)
			return
		}

		transaction, err := workflow.ApproveWithdrawal(ctx, parentId, transactionId, req.PaymentProof)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, transaction)
	}
}

type rejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func RejectWithdrawalHandler() gin.HandlerFunc {
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
		transactionId, err := paramInt(c, "transactionId")
		if err != nil {
			RespondError(c, err)
			return
		}
		var req rejectWithdrawalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, err)
			return
		}

		transaction, err := workflow.RejectWithdrawal(ctx, parentId, transactionId, req.Reason)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, transaction)
	}
}
