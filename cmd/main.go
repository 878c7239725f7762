package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/Mockingbird/config"
	"github.com/lshigami/Mockingbird/database"
	_ "github.com/lshigami/Mockingbird/docs" // Swagger docs - auto-generated
	"github.com/lshigami/Mockingbird/internal/controller"
	"github.com/lshigami/Mockingbird/internal/logger"
	"github.com/lshigami/Mockingbird/internal/model"
	"github.com/lshigami/Mockingbird/internal/repository"
	"github.com/lshigami/Mockingbird/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Mockingbird Interview API
// @version 1.0
// @description AI powered mock interview platform with conversational sessions, answer evaluation and scored results.
// @contact.name API Support
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core Application Components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase, // Provides *gorm.DB
			NewGinEngine,         // Provides *gin.Engine
		),

		// Repositories Layer
		fx.Provide(
			repository.NewInterviewRepository,
			repository.NewRoundRepository,
			repository.NewAnswerRepository,
			repository.NewConversationRepository,
		),

		// Services Layer
		fx.Provide(
			service.NewGeminiLLMService,
			service.NewQuestionService,
			service.NewEvaluationService,
			service.NewResultsService,
			service.NewTTSService,
			func(
				interviewRepo repository.InterviewRepository,
				roundRepo repository.RoundRepository,
				answerRepo repository.AnswerRepository,
				questionSvc service.QuestionService,
				evaluationSvc service.EvaluationService,
				resultsSvc service.ResultsService,
				db *gorm.DB,
			) service.InterviewService {
				return service.NewInterviewService(interviewRepo, roundRepo, answerRepo, questionSvc, evaluationSvc, resultsSvc, db)
			},
			func(
				interviewRepo repository.InterviewRepository,
				convRepo repository.ConversationRepository,
				questionSvc service.QuestionService,
				llm service.LLMService,
				db *gorm.DB,
			) service.ConversationService {
				return service.NewConversationService(interviewRepo, convRepo, questionSvc, llm, db)
			},
		),

		// API Controllers Layer
		fx.Provide(
			controller.NewInterviewController,
			controller.NewRealtimeController,
		),

		// Invokers - Functions that are executed by Fx
		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.DebugMode)

	r := gin.New()

	// Request logging through Zerolog instead of Gin's default logger.
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Be more specific in production
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI at http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	interviewCtrl *controller.InterviewController,
	realtimeCtrl *controller.RealtimeController,
) {
	api := router.Group("/api/v1")
	{
		interviews := api.Group("/interviews")
		interviews.POST("", interviewCtrl.CreateInterview)
		interviews.GET("", interviewCtrl.ListInterviews)
		interviews.GET("/:interview_id", interviewCtrl.GetInterview)
		interviews.POST("/:interview_id/start", interviewCtrl.StartInterview)
		interviews.POST("/:interview_id/answers", interviewCtrl.SubmitAnswer)
		interviews.POST("/:interview_id/skip", interviewCtrl.SkipQuestion)
		interviews.GET("/:interview_id/questions/:question_key/hints/:hint_index", interviewCtrl.GetHint)
		interviews.POST("/:interview_id/complete", interviewCtrl.CompleteInterview)
		interviews.GET("/:interview_id/results", interviewCtrl.GetResults)
		interviews.POST("/:interview_id/abandon", interviewCtrl.AbandonInterview)

		// Conversational mode over WebSocket
		interviews.GET("/:interview_id/live", realtimeCtrl.LiveInterview)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Mockingbird interview API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Interview{},
		&model.Round{},
		&model.Question{},
		&model.Answer{},
		&model.ConversationTurn{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
