package handlers

import (
	"fmt"
	"net/http"

	"bitbucket.org/mmdatafocus/chores_backend/config"
	"bitbucket.org/mmdatafocus/chores_backend/models"
	"bitbucket.org/mmdatafocus/chores_backend/utils"
	"bitbucket.org/mmdatafocus/chores_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

type createTransactionRequest struct {
	Amount      string                 `json:"amount" binding:"required"`
	Description string                 `json:"description" binding:"required"`
	Type        models.TransactionType `json:"type" binding:"required"`
}

// CreateTransactionHandler lets a parent post a manual credit or debit to
// a child's ledger (bonus, correction, spent cash). The workflow-only
// types stay out of reach: withdrawals and task earnings have their own
// entry points.
func CreateTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if !callerIsParent(ctx) {
			RespondError(c, utils.ErrorUnauthorized)
			return
		}
		childId, err := childScope(c)
		if err != nil {
			RespondError(c, err)
			return
		}
		var req createTransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, err)
			return
		}
		if req.Type != models.TransactionTypeCredit && req.Type != models.TransactionTypeDebit {
			RespondError(c, utils.ErrorInvalidArgument)
			return
		}
		amount, err := parseAmount(req.Amount)
		if err != nil || !amount.IsPositive() {
			RespondError(c, utils.ErrorInvalidArgument)
			return
		}

		transaction, err := workflow.AddTransaction(ctx, childId, amount, req.Description, req.Type, models.TransactionStatusCompleted)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, transaction)
	}
}

func ListTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		childId, err := childScope(c)
		if err != nil {
			RespondError(c, err)
			return
		}

		transactions, err := workflow.ListTransactions(c.Request.Context(), childId)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, transactions)
	}
}

// ExportStatementHandler streams the child's ledger as an xlsx statement.
func ExportStatementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		childId, err := childScope(c)
		if err != nil {
			RespondError(c, err)
			return
		}

		transactions, err := workflow.ListTransactions(c.Request.Context(), childId)
		if err != nil {
			RespondError(c, err)
			return
		}

		f := excelize.NewFile()
		sheet := "Statement"
		index, err := f.NewSheet(sheet)
		if err != nil {
			config.LogError(logger, "transactions.go", "ExportStatementHandler", "NewSheet", nil, err)
			RespondError(c, err)
			return
		}
		f.SetActiveSheet(index)
		f.DeleteSheet("Sheet1")

		headers := []interface{}{"Date", "Type", "Status", "Description", "Amount", "Signed Amount"}
		if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
			config.LogError(logger, "transactions.go", "ExportStatementHandler", "SetHeaderRow", nil, err)
			RespondError(c, err)
			return
		}

		for i, txn := range transactions {
			row := []interface{}{
				txn.Date.Format("2006-01-02 15:04"),
				string(txn.Type),
				string(txn.Status),
				txn.Description,
				txn.Amount.StringFixedBank(2),
				txn.SignedAmount().StringFixedBank(2),
			}
			cell := fmt.Sprintf("A%d", i+2)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				config.LogError(logger, "transactions.go", "ExportStatementHandler", "SetSheetRow", cell, err)
				RespondError(c, err)
				return
			}
		}

		filename := fmt.Sprintf("statement_%d.xlsx", childId)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := f.Write(c.Writer); err != nil {
			config.LogError(logger, "transactions.go", "ExportStatementHandler", "Write", filename, err)
		}
	}
}
