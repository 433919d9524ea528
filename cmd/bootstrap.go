package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/tieubaoca/finsight-be/config"
	"github.com/tieubaoca/finsight-be/database"
	"github.com/tieubaoca/finsight-be/logger"
	"github.com/tieubaoca/finsight-be/repository"
	"github.com/tieubaoca/finsight-be/service"
	"github.com/tieubaoca/finsight-be/types"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// core holds the services shared by the server and the CLI commands.
type core struct {
	ai        service.AIService
	documents *service.DocumentService
	router    *service.RouterService
	insights  *service.InsightService
	closers   []io.Closer
	mongo     *mongo.Client
}

func (c *core) Close(ctx context.Context) {
	for _, cl := range c.closers {
		_ = cl.Close()
	}
	if c.mongo != nil {
		_ = c.mongo.Disconnect(ctx)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, nil
}

func newAIService(ctx context.Context, cfg *config.Config) (service.AIService, io.Closer, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		return service.NewOpenAIService(cfg.LLM.BaseURL, cfg.OpenAIAPIKey, cfg.LLM.Model, cfg.LLM.EmbeddingModel), nil, nil
	case config.ProviderAzure:
		return service.NewAzureOpenAIService(cfg.AzureEndpoint, cfg.OpenAIAPIKey, cfg.LLM.APIVersion, cfg.LLM.Model, cfg.LLM.EmbeddingModel), nil, nil
	case config.ProviderGemini:
		gemini, err := service.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.LLM.Model, cfg.LLM.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		return gemini, gemini, nil
	}
	return nil, nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
}

func newVectorIndex(ctx context.Context, cfg *config.Config) (service.VectorIndex, error) {
	if cfg.VectorStore == config.StoreWeaviate {
		return database.NewWeaviateStore(ctx, cfg.WeaviateStoreConfig)
	}
	return database.NewMemoryIndex(), nil
}

func buildCore(ctx context.Context, cfg *config.Config) (*core, error) {
	ai, closer, err := newAIService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init llm: %w", err)
	}
	c := &core{ai: ai}
	if closer != nil {
		c.closers = append(c.closers, closer)
	}

	index, err := newVectorIndex(ctx, cfg)
	if err != nil {
		c.Close(ctx)
		return nil, fmt.Errorf("failed to init vector store: %w", err)
	}

	counter, err := service.NewTiktokenCounter()
	if err != nil {
		c.Close(ctx)
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}
	splitter := service.NewSentenceSplitter(types.ChunkConfig{
		MaxChunkSize: cfg.Chunk.MaxTokens,
		OverlapSize:  cfg.Chunk.OverlapTokens,
	}, counter)

	documentRepo := repository.NewMemoryDocumentRepo()
	conversationRepo := repository.NewMemoryConversationRepo()

	c.documents = service.NewDocumentService(
		service.NewPDFService(""),
		splitter,
		ai,
		index,
		documentRepo,
		conversationRepo,
	)
	c.router = service.NewRouterService(
		c.documents,
		conversationRepo,
		service.NewSingleSelector(ai),
		service.NewSummarizeStrategy(ai, counter, 0),
		service.NewLookupStrategy(ai, ai, index, cfg.Retrieval.TopK),
	)
	c.insights = service.NewInsightService(c.documents, ai)
	return c, nil
}

func newUserRepo(ctx context.Context, cfg *config.Config, c *core) (repository.UserRepo, error) {
	if cfg.UserStore != config.StoreMongo {
		return repository.NewMemoryUserRepo(), nil
	}
	client, err := database.NewMongoClient(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	c.mongo = client
	return repository.NewMongoUserRepo(client.Database(database.DatabaseName).Collection(database.UsersCollection)), nil
}
