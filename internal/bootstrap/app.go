package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"docassist/internal/ai"
	appsvc "docassist/internal/app"
	"docassist/internal/config"
	"docassist/internal/model"
	mysqlClient "docassist/internal/platform/mysql"
	rabbitmqClient "docassist/internal/platform/rabbitmq"
	redisClient "docassist/internal/platform/redis"
	"docassist/internal/repository"
	"docassist/internal/worker"
)

type App struct {
	Config *config.Config
	MySQL  *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	LLM           *ai.Client
	DocService    *appsvc.DocumentService
	TurnPublisher *rabbitmqClient.QueuePublisher

	indexWorker *worker.IndexWorker
	turnWorker  *worker.TurnPersistWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN(), mysqlClient.Pool{
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.MySQL.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.MySQL.ConnMaxLifetimeMinute) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.MySQL.ConnMaxIdleMinute) * time.Minute,
	})
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.Chunk{},
		&model.Conversation{},
		&model.Turn{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, redisClient.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  time.Duration(cfg.Redis.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.Redis.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Redis.WriteTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	llm := ai.NewClient(ai.Config{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		ChatModel:      cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
	})

	docRepo := repository.NewDocumentRepository(mysqlDB)
	chunkRepo := repository.NewChunkRepository(mysqlDB)
	indexPublisher := rabbitmqClient.NewQueuePublisher(mqConn, cfg.RabbitMQ.IndexQueue)
	docService := appsvc.NewDocumentService(docRepo, chunkRepo, llm, indexPublisher, appsvc.DocumentServiceConfig{
		UploadDir:      cfg.Storage.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		ChunkSize:      cfg.Retrieval.ChunkSize,
		ChunkOverlap:   cfg.Retrieval.ChunkOverlap,
		EmbedBatchSize: cfg.Retrieval.EmbedBatchSize,
	})

	indexWorker := worker.NewIndexWorker(mqConn, docService, cfg.RabbitMQ.IndexQueue)
	if err := indexWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start index worker failed: %w", err)
	}

	turnRepo := repository.NewTurnRepository(mysqlDB)
	turnWorker := worker.NewTurnPersistWorker(mqConn, turnRepo, cfg.RabbitMQ.TurnPersistQueue)
	if err := turnWorker.Start(ctx); err != nil {
		indexWorker.Close()
		return nil, fmt.Errorf("start turn worker failed: %w", err)
	}

	return &App{
		Config:        cfg,
		MySQL:         mysqlDB,
		Redis:         redisCli,
		MQConn:        mqConn,
		LLM:           llm,
		DocService:    docService,
		TurnPublisher: rabbitmqClient.NewQueuePublisher(mqConn, cfg.RabbitMQ.TurnPersistQueue),
		indexWorker:   indexWorker,
		turnWorker:    turnWorker,
		StartedAt:     time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.indexWorker != nil {
		a.indexWorker.Close()
	}
	if a.turnWorker != nil {
		a.turnWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
