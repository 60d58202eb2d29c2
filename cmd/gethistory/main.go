package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/MR34Z1r0/cdk-agents-resources/handler"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/repository"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/usecase"
)

func main() {
	ctx := context.Background()
	log := slog.Default()

	historyTable := mustEnv("HISTORY_TABLE")

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		fatal(log, "failed to load AWS config", err)
	}

	historyRepo, err := repository.NewHistoryRepository(awsdynamodb.NewFromConfig(cfg), historyTable)
	if err != nil {
		fatal(log, "failed to create history repository", err)
	}
	historyService, err := usecase.NewHistoryService(historyRepo, log)
	if err != nil {
		fatal(log, "failed to create history service", err)
	}
	h, err := handler.NewGetHistoryHandler(historyService)
	if err != nil {
		fatal(log, "failed to create handler", err)
	}

	lambda.Start(h.Handle)
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err)
	os.Exit(1)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}
