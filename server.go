package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"bitbucket.org/mmdatafocus/chores_backend/config"
	"bitbucket.org/mmdatafocus/chores_backend/handlers"
	"bitbucket.org/mmdatafocus/chores_backend/middlewares"
	"bitbucket.org/mmdatafocus/chores_backend/models"
	"bitbucket.org/mmdatafocus/chores_backend/utils"
	"bitbucket.org/mmdatafocus/chores_backend/workflow"
)

const defaultPort = "8080"

var tracer = otel.Tracer("chores-backend")

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func registerRoutes(r *gin.Engine) {
	r.POST("/login", handlers.LoginHandler())
	r.POST("/onboarding/redeem", handlers.RedeemOnboardingCodeHandler())

	api := r.Group("/", middlewares.RequireAuth())

	api.POST("/logout", handlers.LogoutHandler())
	api.POST("/logout-all", handlers.LogoutAllHandler())

	api.POST("/children", handlers.CreateChildHandler())
	api.GET("/children", handlers.ListChildrenHandler())
	api.PUT("/children/:childId/allowance", handlers.UpdateMonthlyAllowanceHandler())
	api.POST("/children/:childId/onboarding-code", handlers.GenerateOnboardingCodeHandler())

	api.POST("/children/:childId/tasks", handlers.CreateTaskHandler())
	api.GET("/children/:childId/tasks", handlers.ListTasksHandler())
	api.GET("/children/:childId/tasks/:taskId", handlers.GetTaskHandler())
	api.PUT("/children/:childId/tasks/:taskId", handlers.UpdateTaskHandler())
	api.DELETE("/children/:childId/tasks/:taskId", handlers.DeleteTaskHandler())
	api.POST("/children/:childId/tasks/:taskId/complete", handlers.CompleteTaskHandler())
	api.POST("/children/:childId/tasks/:taskId/proof", handlers.SubmitTaskProofHandler())
	api.POST("/children/:childId/tasks/:taskId/approve", handlers.ApproveTaskHandler())
	api.POST("/children/:childId/tasks/:taskId/acknowledge", handlers.AcknowledgeTaskHandler())

	api.POST("/children/:childId/transactions", handlers.CreateTransactionHandler())
	api.GET("/children/:childId/transactions", handlers.ListTransactionsHandler())
	api.GET("/children/:childId/transactions/export", handlers.ExportStatementHandler())
	api.POST("/children/:childId/withdrawals", handlers.RequestWithdrawalHandler())
	api.POST("/withdrawals/:transactionId/approve", handlers.ApproveWithdrawalHandler())
	api.POST("/withdrawals/:transactionId/reject", handlers.RejectWithdrawalHandler())

	api.GET("/children/:childId/allowance/prediction", handlers.PredictedAllowanceHandler())
	api.GET("/children/:childId/allowance/task-values", handlers.TaskValuesHandler())

	api.POST("/uploads/proof", handlers.UploadProofHandler())
}

// runRecurrenceScheduler fires the recurring task reset once a day at
// RESET_HOUR local time. The redis lock inside ResetRecurringTasks keeps
// multiple instances from double-firing.
func runRecurrenceScheduler(ctx context.Context, logger *logrus.Logger) {
	resetHour := 0
	if v := strings.TrimSpace(os.Getenv("RESET_HOUR")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			resetHour = n
		}
	}
	timezone := strings.TrimSpace(os.Getenv("RESET_TIMEZONE"))
	if timezone == "" {
		timezone = "Local"
	}

	for {
		now := utils.ConvertToLocalTime(time.Now(), timezone)
		next := time.Date(now.Year(), now.Month(), now.Day(), resetHour, 5, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
		}

		runCtx, span := tracer.Start(ctx, "ResetRecurringTasks")
		count, err := workflow.ResetRecurringTasks(runCtx)
		span.End()
		if err != nil {
			config.LogError(logger, "server.go", "runRecurrenceScheduler", "ResetRecurringTasks", nil, err)
			continue
		}
		logger.WithFields(logrus.Fields{
			"field": "recurrence",
			"count": count,
		}).Info("daily recurring task reset completed")
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Behind Cloud Run's load balancer; client IPs come from headers we
	// do not use, so trust no proxy.
	utils.ErrorPanic(r.SetTrustedProxies(nil))
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))

	r.Use(middlewares.AuthMiddleware())
	r.Use(middlewares.SessionMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// Now DB is ready; run migrations.
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Start the daily recurrence scheduler.
	schedulerCtx, cancelScheduler := context.WithCancel(context.Background())
	defer cancelScheduler()
	go runRecurrenceScheduler(schedulerCtx, logger)

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while we're draining.
	cancelScheduler()

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
