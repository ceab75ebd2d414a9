package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ironlog/fitness-app/internal/service"
	"ironlog/fitness-app/internal/storage"
)

// SetupRoutes wires all HTTP endpoints. Everything except /ping and the
// auth group sits behind JWT authentication and per-user rate limiting.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	rateLimit gin.HandlerFunc,
	authService service.AuthService,
	programService service.ProgramService,
	workoutService service.WorkoutService,
	loggingService service.LoggingService,
	historyService service.HistoryService,
	fileStorage storage.FileStorage,
) {
	authHandler := NewAuthHandler(authService)
	programHandler := NewProgramHandler(programService, fileStorage)
	workoutHandler := NewWorkoutHandler(workoutService)
	historyHandler := NewHistoryHandler(historyService, loggingService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	if rateLimit != nil {
		protected.Use(rateLimit)
	}
	{
		// --- Program / periodization tree ---
		programGroup := protected.Group("/programs")
		{
			programGroup.POST("", programHandler.CreateProgram)
			programGroup.GET("", programHandler.ListPrograms)
			programGroup.GET("/:id", programHandler.GetProgram)
			programGroup.PATCH("/:id", programHandler.RenameProgram)
			programGroup.DELETE("/:id", programHandler.DeleteProgram)

			programGroup.POST("/:id/macrocycles", programHandler.AddMacrocycle)
			programGroup.POST("/:id/macrocycles/:macroId/mesocycles", programHandler.AddMesocycle)
			programGroup.POST("/:id/mesocycles/:mesoId/weeks", programHandler.AddWeek)
			programGroup.POST("/:id/weeks/:weekId/sessions", programHandler.AddSession)

			programGroup.DELETE("/:id/nodes/:nodeId", programHandler.RemoveNode)
			programGroup.PATCH("/:id/nodes/:nodeId", programHandler.RenameNode)
			programGroup.POST("/:id/reorder", programHandler.Reorder)

			programGroup.PUT("/:id/weeks/:weekId/variant", programHandler.SetWeekVariant)
			programGroup.PUT("/:id/periodization", programHandler.SetPeriodizationABCD)
			programGroup.PUT("/:id/complexity", programHandler.SetComplexity)
			programGroup.POST("/:id/template", programHandler.InstantiateTemplate)

			programGroup.POST("/:id/sessions/:sessionId/background/upload-url", programHandler.RequestBackgroundUploadURL)
			programGroup.PUT("/:id/sessions/:sessionId/background", programHandler.ConfirmBackground)
			programGroup.GET("/:id/sessions/:sessionId/background", programHandler.GetBackgroundURL)
		}

		// --- Workout execution ---
		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.GET("/ongoing", workoutHandler.GetOngoing)
			workoutGroup.POST("/start", workoutHandler.Start)
			workoutGroup.POST("/pause", workoutHandler.Pause)
			workoutGroup.POST("/resume", workoutHandler.Resume)
			workoutGroup.POST("/cancel", workoutHandler.Cancel)
			workoutGroup.POST("/finish", workoutHandler.Finish)
		}

		// --- History ---
		historyGroup := protected.Group("/history")
		{
			historyGroup.GET("", historyHandler.GetHistory)
			historyGroup.GET("/:id", historyHandler.GetLog)
			historyGroup.POST("", historyHandler.CreateLog)
		}
	}
}
