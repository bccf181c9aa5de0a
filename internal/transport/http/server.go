package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	appsvc "docassist/internal/app"
	"docassist/internal/bootstrap"
	"docassist/internal/cache"
	"docassist/internal/repository"
	"docassist/internal/transport/http/handler"
	"docassist/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), cors.Default())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	convRepo := repository.NewConversationRepository(app.MySQL)
	turnRepo := repository.NewTurnRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)
	chunkRepo := repository.NewChunkRepository(app.MySQL)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	retriever := appsvc.NewRetriever(docRepo, chunkRepo, app.LLM, app.Config.Retrieval.TopK)
	chatService := appsvc.NewChatService(
		convRepo,
		turnRepo,
		retriever,
		app.LLM,
		app.TurnPublisher,
		historyCache,
		app.Config.Retrieval.HistoryDepth,
	)
	exportService := appsvc.NewExportService(app.Config.Storage.ExportDir)

	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(app.DocService, app.Config.MaxUploadBytes())
	chatHandler := handler.NewChatHandler(chatService)
	exportHandler := handler.NewExportHandler(exportService, chatService)

	optionalAuth := middleware.AuthOptional(app.Config.Auth.JWTSecret)
	router.POST("/upload", optionalAuth, documentHandler.Upload)
	router.GET("/documents", optionalAuth, documentHandler.List)
	router.POST("/chat", optionalAuth, chatHandler.Chat)
	router.POST("/export", optionalAuth, exportHandler.Export)
	router.GET("/download/:file_name", optionalAuth, exportHandler.Download)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	authed := v1.Group("")
	authed.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	authed.GET("/conversations", chatHandler.ListConversations)
	authed.GET("/conversations/:id/history", chatHandler.History)
	authed.DELETE("/conversations/:id", chatHandler.DeleteConversation)
	authed.DELETE("/documents/:id", documentHandler.Delete)

	return router
}
