package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsbedrock "github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awssecrets "github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/MR34Z1r0/cdk-agents-resources/handler"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/integrations/bedrock"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/integrations/paramstore"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/integrations/pinecone"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/integrations/secrets"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/repository"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/usecase"
)

func main() {
	ctx := context.Background()
	log := slog.Default()

	// ---- Configuration (read only here) ----
	historyTable := mustEnv("HISTORY_TABLE")
	libraryTable := mustEnv("LIBRARY_TABLE")
	resourcesTable := mustEnv("RESOURCES_TABLE")
	hashTable := mustEnv("HASH_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	pineconeSecret := mustEnv("PINECONE_SECRET_NAME")
	embeddingsModelID := envOr("EMBEDDINGS_MODEL_ID", "amazon.titan-embed-text-v2:0")

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		fatal(log, "failed to load AWS config", err)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		fatal(log, "failed to create SSM client", err)
	}
	secretsClient, err := secrets.New(awssecrets.NewFromConfig(cfg))
	if err != nil {
		fatal(log, "failed to create secrets client", err)
	}
	bedrockRuntime := awsbedrock.NewFromConfig(cfg)
	bedrockClient, err := bedrock.New(bedrockRuntime)
	if err != nil {
		fatal(log, "failed to create Bedrock client", err)
	}
	embedder, err := bedrock.NewEmbedder(bedrockRuntime, embeddingsModelID)
	if err != nil {
		fatal(log, "failed to create embedder", err)
	}
	pineconeClient, err := pinecone.NewClient(secretsClient, pineconeSecret)
	if err != nil {
		fatal(log, "failed to create Pinecone client", err)
	}
	searcher, err := pinecone.NewSearcher(embedder, pineconeClient)
	if err != nil {
		fatal(log, "failed to create searcher", err)
	}

	// ---- Repositories ----
	dynamoClient := awsdynamodb.NewFromConfig(cfg)
	historyRepo, err := repository.NewHistoryRepository(dynamoClient, historyTable)
	if err != nil {
		fatal(log, "failed to create history repository", err)
	}
	libraryRepo, err := repository.NewLibraryRepository(dynamoClient, libraryTable)
	if err != nil {
		fatal(log, "failed to create library repository", err)
	}
	resourceRepo, err := repository.NewResourceRepository(dynamoClient, resourcesTable, hashTable)
	if err != nil {
		fatal(log, "failed to create resource repository", err)
	}

	// ---- Handler ----
	retriever, err := usecase.NewRetriever(searcher, libraryRepo, log)
	if err != nil {
		fatal(log, "failed to create retriever", err)
	}
	lister, err := usecase.NewLister(libraryRepo, resourceRepo, log)
	if err != nil {
		fatal(log, "failed to create lister", err)
	}
	askService, err := usecase.NewAskService(bedrockClient, historyRepo, retriever, lister, ssmClient, paramPrefix, log)
	if err != nil {
		fatal(log, "failed to create ask service", err)
	}
	h, err := handler.NewAskHandler(askService)
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
