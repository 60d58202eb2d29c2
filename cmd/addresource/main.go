package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsbedrock "github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awssecrets "github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/MR34Z1r0/cdk-agents-resources/handler"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/integrations/bedrock"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/integrations/drive"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/integrations/pinecone"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/integrations/s3store"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/integrations/secrets"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/repository"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/usecase"
)

func main() {
	ctx := context.Background()
	log := slog.Default()

	// ---- Configuration (read only here) ----
	resourcesTable := mustEnv("RESOURCES_TABLE")
	hashTable := mustEnv("HASH_TABLE")
	libraryTable := mustEnv("LIBRARY_TABLE")
	bucket := mustEnv("BUCKET_NAME")
	pineconeSecret := mustEnv("PINECONE_SECRET_NAME")
	embeddingsModelID := envOr("EMBEDDINGS_MODEL_ID", "amazon.titan-embed-text-v2:0")

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		fatal(log, "failed to load AWS config", err)
	}

	// ---- Clients ----
	secretsClient, err := secrets.New(awssecrets.NewFromConfig(cfg))
	if err != nil {
		fatal(log, "failed to create secrets client", err)
	}
	embedder, err := bedrock.NewEmbedder(awsbedrock.NewFromConfig(cfg), embeddingsModelID)
	if err != nil {
		fatal(log, "failed to create embedder", err)
	}
	pineconeClient, err := pinecone.NewClient(secretsClient, pineconeSecret)
	if err != nil {
		fatal(log, "failed to create Pinecone client", err)
	}
	objectStore, err := s3store.New(awss3.NewFromConfig(cfg), bucket)
	if err != nil {
		fatal(log, "failed to create object store", err)
	}
	driveClient := drive.NewClient()

	// ---- Repositories ----
	dynamoClient := awsdynamodb.NewFromConfig(cfg)
	resourceRepo, err := repository.NewResourceRepository(dynamoClient, resourcesTable, hashTable)
	if err != nil {
		fatal(log, "failed to create resource repository", err)
	}
	libraryRepo, err := repository.NewLibraryRepository(dynamoClient, libraryTable)
	if err != nil {
		fatal(log, "failed to create library repository", err)
	}

	// ---- Handler ----
	ingestService, err := usecase.NewIngestService(driveClient, objectStore, embedder, pineconeClient, resourceRepo, resourceRepo, libraryRepo, log)
	if err != nil {
		fatal(log, "failed to create ingest service", err)
	}
	h, err := handler.NewAddResourceHandler(ingestService)
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

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
