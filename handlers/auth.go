package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/chores_backend/models"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, err)
			return
		}

		info, err := models.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := models.Logout(c.Request.Context())
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": ok})
	}
}

// LogoutAllHandler revokes every session of the calling user, not just
// the one behind the current token.
func LogoutAllHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		revoked, err := models.LogoutAllDevices(c.Request.Context())
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"revoked": revoked})
	}
}

func CreateChildHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewChild
		if err := c.ShouldBindJSON(&input); err != nil {
			RespondError(c, err)
			return
		}

		child, err := models.CreateChild(c.Request.Context(), &input)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, child)
	}
}

func ListChildrenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		children, err := models.GetChildren(c.Request.Context())
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, children)
	}
}

type allowanceBudgetRequest struct {
	MonthlyAllowance string `json:"monthly_allowance" binding:"required"`
}

func UpdateMonthlyAllowanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		childId, err := paramInt(c, "childId")
		if err != nil {
			RespondError(c, err)
			return
		}
		var req allowanceBudgetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, err)
			return
		}
		budget, err := parseAmount(req.MonthlyAllowance)
		if err != nil {
			RespondError(c, err)
			return
		}

		child, err := models.UpdateMonthlyAllowance(c.Request.Context(), childId, budget)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, child)
	}
}

func GenerateOnboardingCodeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		childId, err := paramInt(c, "childId")
		if err != nil {
			RespondError(c, err)
			return
		}

		code, err := models.GenerateOnboardingCode(c.Request.Context(), childId)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"code": code})
	}
}

type redeemOnboardingRequest struct {
	Code string `json:"code" binding:"required"`
}

func RedeemOnboardingCodeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req redeemOnboardingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, err)
			return
		}

		child, err := models.RedeemOnboardingCode(c.Request.Context(), req.Code)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, child)
	}
}
