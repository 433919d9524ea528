package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tieubaoca/finsight-be/config"
	"github.com/tieubaoca/finsight-be/logger"
	"github.com/tieubaoca/finsight-be/types"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const (
	BATCH_SIZE     = 200
	SEGMENT_CLASS  = "StatementSegment"
	documentIDProp = "documentId"
)

// segmentClass holds caller supplied vectors, so the class has no vectorizer
// unless one is configured.
func segmentClass(vectorizer string) *models.Class {
	if vectorizer == "" {
		vectorizer = "none"
	}
	return &models.Class{
		Class: SEGMENT_CLASS,
		Properties: []*models.Property{
			{Name: documentIDProp, DataType: []string{"text"}, Tokenization: "field"},
			{Name: "content", DataType: []string{"text"}},
			{Name: "ownerId", DataType: []string{"text"}, Tokenization: "field"},
			{Name: "filename", DataType: []string{"text"}},
			{Name: "pageNum", DataType: []string{"int"}},
			{Name: "segmentIndex", DataType: []string{"int"}},
		},
		Vectorizer:      vectorizer,
		VectorIndexType: "hnsw",
	}
}

// WeaviateStore keeps segment vectors in a Weaviate class and filters every
// query to one document.
type WeaviateStore struct {
	client     *weaviate.Client
	vectorizer string
	logger     *slog.Logger
}

func NewWeaviateStore(ctx context.Context, cfg config.WeaviateStoreConfig) (*WeaviateStore, error) {
	scheme := "http"
	if strings.HasPrefix(cfg.Host, "https") {
		scheme = "https"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	wcfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{
			Value: cfg.APIKey,
		}
		wcfg.Headers = map[string]string{
			"X-Weaviate-Api-Key":     cfg.APIKey,
			"X-Weaviate-Cluster-Url": fmt.Sprintf("%s://%s", scheme, host),
		}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	store := &WeaviateStore{
		client:     client,
		vectorizer: cfg.Text2Vec,
		logger:     logger.NewModuleLogger("database", "weaviate"),
	}
	if err := store.ensureClass(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *WeaviateStore) ensureClass(ctx context.Context) error {
	schema, err := s.client.Schema().Getter().Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema: %w", err)
	}
	for _, class := range schema.Classes {
		if class.Class == SEGMENT_CLASS {
			return nil
		}
	}
	if err := s.client.Schema().ClassCreator().WithClass(segmentClass(s.vectorizer)).Do(ctx); err != nil {
		return fmt.Errorf("failed to create %s class: %w", SEGMENT_CLASS, err)
	}
	return nil
}

// ReInit drops every stored segment by recreating the class.
func (s *WeaviateStore) ReInit(ctx context.Context) error {
	if err := s.client.Schema().ClassDeleter().WithClassName(SEGMENT_CLASS).Do(ctx); err != nil {
		return fmt.Errorf("failed to delete %s class: %w", SEGMENT_CLASS, err)
	}
	if err := s.client.Schema().ClassCreator().WithClass(segmentClass(s.vectorizer)).Do(ctx); err != nil {
		return fmt.Errorf("failed to create %s class: %w", SEGMENT_CLASS, err)
	}
	return nil
}

func (s *WeaviateStore) Upsert(ctx context.Context, documentID string, segments []types.Segment, vectors [][]float32) error {
	if len(segments) != len(vectors) {
		return fmt.Errorf("got %d vectors for %d segments", len(vectors), len(segments))
	}
	total := len(segments)
	for i := 0; i < total; i += BATCH_SIZE {
		end := min(i+BATCH_SIZE, total)

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			seg := segments[j]
			batcher = batcher.WithObjects(&models.Object{
				Class: SEGMENT_CLASS,
				Properties: map[string]interface{}{
					documentIDProp: documentID,
					"content":      seg.Content,
					"ownerId":      seg.Metadata.OwnerID,
					"filename":     seg.Metadata.Filename,
					"pageNum":      seg.Metadata.PageNum,
					"segmentIndex": seg.Index,
				},
				Vector: vectors[j],
			})
		}

		results, err := batcher.Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %w", i, end, err)
		}
		for _, res := range results {
			if res.Result != nil && res.Result.Errors != nil && len(res.Result.Errors.Error) > 0 {
				return fmt.Errorf("failed to insert batch %d-%d: %s", i, end, res.Result.Errors.Error[0].Message)
			}
		}
		s.logger.Debug("inserted segment batch", "pdf_id", documentID, "from", i, "to", end, "total", total)
	}
	return nil
}

func (s *WeaviateStore) Search(ctx context.Context, documentID string, vector []float32, limit int) ([]types.Segment, error) {
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "ownerId"},
		{Name: "filename"},
		{Name: "pageNum"},
		{Name: "segmentIndex"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	getBuilder := s.client.GraphQL().Get().
		WithClassName(SEGMENT_CLASS).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithWhere(documentFilter(documentID))
	if limit > 0 {
		getBuilder = getBuilder.WithLimit(limit)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("search failed: %s", result.Errors[0].Message)
	}

	var segments []types.Segment
	get, _ := result.Data["Get"].(map[string]interface{})
	items, _ := get[SEGMENT_CLASS].([]interface{})
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		segments = append(segments, types.Segment{
			Index:   toInt(obj["segmentIndex"]),
			Content: toString(obj["content"]),
			Metadata: types.SegmentMetadata{
				OwnerID:  toString(obj["ownerId"]),
				Filename: toString(obj["filename"]),
				PageNum:  toInt(obj["pageNum"]),
			},
		})
	}
	return segments, nil
}

func (s *WeaviateStore) Delete(ctx context.Context, documentID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(SEGMENT_CLASS).
		WithOutput("minimal").
		WithWhere(documentFilter(documentID)).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete segments of %s: %w", documentID, err)
	}
	return nil
}

func documentFilter(documentID string) *filters.WhereBuilder {
	return filters.Where().
		WithPath([]string{documentIDProp}).
		WithOperator(filters.Equal).
		WithValueText(documentID)
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// toInt reads GraphQL numbers, which decode as float64.
func toInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}
