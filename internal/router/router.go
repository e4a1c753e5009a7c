package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/assesshub/assesshub-backend/internal/config"
	"github.com/assesshub/assesshub-backend/internal/handler"
	"github.com/assesshub/assesshub-backend/internal/middleware"
	"github.com/assesshub/assesshub-backend/internal/model"
	"github.com/assesshub/assesshub-backend/internal/response"
	"github.com/assesshub/assesshub-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Portal     *handler.PortalHandler
	Company    *handler.CompanyHandler
	Section    *handler.SectionHandler
	Question   *handler.QuestionHandler
	Assessment *handler.AssessmentHandler
	User       *handler.UserHandler
	Dashboard  *handler.DashboardHandler
	WS         *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Every response carries tracing metadata.
	router.Use(response.RequestIDMiddleware())

	// Compress large payloads (session snapshots mostly).
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiters for the two abuse magnets.
	authLimiter := middleware.NewRateLimiter(30, time.Minute)
	sandboxLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/verify-email", handlers.Auth.VerifyEmail)
		auth.POST("/resend-otp", handlers.Auth.ResendOTP)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.GET("/me", middleware.RequireCandidateJWT(authService), handlers.Auth.Me)
		auth.POST("/logout", middleware.RequireCandidateJWT(authService), handlers.Auth.Logout)
	}

	// ─── 2. Candidate Portal (JWT + Single Device) ─────────────────────
	portal := router.Group("/api/v1/portal")
	portal.Use(
		middleware.RequireCandidateJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		portal.GET("/companies", handlers.Portal.ListCompanies)
		portal.GET("/companies/:id/assessments", handlers.Portal.ListCompanyAssessments)
		portal.GET("/assessments/:id", handlers.Portal.GetAssessment)

		// Live session surface
		portal.POST("/assessments/:id/start", handlers.Portal.StartSession)
		portal.GET("/assessments/:id/state", handlers.Portal.GetState)
		portal.POST("/assessments/:id/answer", handlers.Portal.RecordAnswer)
		portal.POST("/assessments/:id/navigate", handlers.Portal.Navigate)
		portal.POST("/assessments/:id/submit", handlers.Portal.Submit)
		portal.GET("/assessments/:id/result", handlers.Portal.GetResult)

		// Coding questions
		portal.GET("/runtimes", handlers.Portal.ListRuntimes)
		portal.POST("/run-code", sandboxLimiter.Middleware(), handlers.Portal.RunCode)

		portal.GET("/my-attempts", handlers.Portal.MyAttempts)
	}

	// ─── 3. WebSocket Group (Candidate WS Auth) ────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireCandidateWSAuth(authService))
	{
		ws.GET("/portal/assessments/:id/stream", handlers.WS.SessionStream)
	}

	// ─── 4. Admin Group (JWT + RBAC) ───────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/dashboard",
			middleware.RequireAnyPermission(
				string(model.PermissionAssessmentsRead),
				string(model.PermissionAttemptsRead),
			),
			handlers.Dashboard.Get,
		)

		// Company management
		adminAPI.GET("/companies",
			middleware.RequirePermission(string(model.PermissionCompaniesRead)),
			handlers.Company.List,
		)
		adminAPI.GET("/companies/:id",
			middleware.RequirePermission(string(model.PermissionCompaniesRead)),
			handlers.Company.Get,
		)
		adminAPI.POST("/companies",
			middleware.RequirePermission(string(model.PermissionCompaniesWrite)),
			handlers.Company.Create,
		)
		adminAPI.PUT("/companies/:id",
			middleware.RequirePermission(string(model.PermissionCompaniesWrite)),
			handlers.Company.Update,
		)
		adminAPI.DELETE("/companies/:id",
			middleware.RequirePermission(string(model.PermissionCompaniesWrite)),
			handlers.Company.Delete,
		)

		// Section management
		adminAPI.GET("/sections",
			middleware.RequirePermission(string(model.PermissionSectionsRead)),
			handlers.Section.List,
		)
		adminAPI.GET("/sections/:id",
			middleware.RequirePermission(string(model.PermissionSectionsRead)),
			handlers.Section.Get,
		)
		adminAPI.GET("/sections/:id/questions",
			middleware.RequirePermission(string(model.PermissionQuestionsRead)),
			handlers.Section.ListQuestions,
		)
		adminAPI.POST("/sections",
			middleware.RequirePermission(string(model.PermissionSectionsWrite)),
			handlers.Section.Create,
		)
		adminAPI.PUT("/sections/:id",
			middleware.RequirePermission(string(model.PermissionSectionsWrite)),
			handlers.Section.Update,
		)
		adminAPI.DELETE("/sections/:id",
			middleware.RequirePermission(string(model.PermissionSectionsWrite)),
			handlers.Section.Delete,
		)

		// Question management
		adminAPI.GET("/questions/:id",
			middleware.RequirePermission(string(model.PermissionQuestionsRead)),
			handlers.Question.Get,
		)
		adminAPI.POST("/questions",
			middleware.RequirePermission(string(model.PermissionQuestionsWrite)),
			handlers.Question.Create,
		)
		adminAPI.PUT("/questions/:id",
			middleware.RequirePermission(string(model.PermissionQuestionsWrite)),
			handlers.Question.Update,
		)
		adminAPI.DELETE("/questions/:id",
			middleware.RequirePermission(string(model.PermissionQuestionsWrite)),
			handlers.Question.Delete,
		)

		// Assessment management
		adminAPI.GET("/assessments",
			middleware.RequirePermission(string(model.PermissionAssessmentsRead)),
			handlers.Assessment.List,
		)
		adminAPI.GET("/assessments/:id",
			middleware.RequirePermission(string(model.PermissionAssessmentsRead)),
			handlers.Assessment.Get,
		)
		adminAPI.POST("/assessments",
			middleware.RequirePermission(string(model.PermissionAssessmentsWrite)),
			handlers.Assessment.Create,
		)
		adminAPI.PUT("/assessments/:id",
			middleware.RequirePermission(string(model.PermissionAssessmentsWrite)),
			handlers.Assessment.Update,
		)
		adminAPI.DELETE("/assessments/:id",
			middleware.RequirePermission(string(model.PermissionAssessmentsWrite)),
			handlers.Assessment.Delete,
		)
		adminAPI.POST("/assessments/:id/refresh-cache",
			middleware.RequirePermission(string(model.PermissionAssessmentsWrite)),
			handlers.Assessment.RefreshCache,
		)
		adminAPI.GET("/assessments/:id/attempts",
			middleware.RequirePermission(string(model.PermissionAttemptsRead)),
			handlers.Assessment.ListAttempts,
		)

		// User management
		adminAPI.GET("/users",
			middleware.RequirePermission(string(model.PermissionUsersRead)),
			handlers.User.List,
		)
		adminAPI.GET("/users/:id",
			middleware.RequirePermission(string(model.PermissionUsersRead)),
			handlers.User.Get,
		)
		adminAPI.POST("/users",
			middleware.RequirePermission(string(model.PermissionUsersWrite)),
			handlers.User.Create,
		)
		adminAPI.DELETE("/users/:id",
			middleware.RequirePermission(string(model.PermissionUsersWrite)),
			handlers.User.Delete,
		)
		adminAPI.POST("/users/:id/reset-session",
			middleware.RequirePermission(string(model.PermissionUsersWrite)),
			handlers.User.ResetSession,
		)
		adminAPI.GET("/roles",
			middleware.RequirePermission(string(model.PermissionUsersRead)),
			handlers.User.ListRoles,
		)
	}

	return router
}
