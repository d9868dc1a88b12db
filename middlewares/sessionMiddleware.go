package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/chores_backend/config"
	"bitbucket.org/mmdatafocus/chores_backend/utils"
)

// SessionMiddleware checks the token against the redis session store so
// logged-out tokens stop working before the jwt expires. Runs after
// AuthMiddleware; does nothing when no token was presented.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := utils.GetTokenFromContext(c.Request.Context())
		if !ok || token == "" {
			c.Next()
			return
		}
		if config.GetRedisDB() == nil {
			// session store not up yet; the jwt check already passed
			c.Next()
			return
		}
		_, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
