package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tieubaoca/finsight-be/logger"
	"github.com/tieubaoca/finsight-be/repository"
	"github.com/tieubaoca/finsight-be/types"
)

// DocumentReader is the read side of the document store.
type DocumentReader interface {
	Get(ctx context.Context, documentID string) (*types.Document, error)
	FullText(ctx context.Context, documentID string) (string, error)
}

// DocumentService ingests statements and owns their indexed representation.
type DocumentService struct {
	extractor     TextExtractor
	splitter      *SentenceSplitter
	embedder      Embedder
	index         VectorIndex
	documents     repository.DocumentRepo
	conversations repository.ConversationRepo
	newID         func() string
	logger        *slog.Logger
}

func NewDocumentService(
	extractor TextExtractor,
	splitter *SentenceSplitter,
	embedder Embedder,
	index VectorIndex,
	documents repository.DocumentRepo,
	conversations repository.ConversationRepo,
) *DocumentService {
	return &DocumentService{
		extractor:     extractor,
		splitter:      splitter,
		embedder:      embedder,
		index:         index,
		documents:     documents,
		conversations: conversations,
		newID:         uuid.NewString,
		logger:        logger.NewModuleLogger("service", "document"),
	}
}

// Ingest indexes the file at req.Path and returns the new document ID. On
// failure nothing is kept in the index, the store or the conversation state.
func (s *DocumentService) Ingest(ctx context.Context, req types.IngestRequest) (string, error) {
	pages, err := s.extractor.ExtractPages(ctx, req.Path)
	if err != nil {
		return "", fmt.Errorf("%w: load %s: %w", types.ErrIngestion, req.Filename, err)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("%w: no text found in %s", types.ErrIngestion, req.Filename)
	}

	segments := s.splitter.SplitPages(pages, types.SegmentMetadata{
		OwnerID:  req.OwnerID,
		Filename: req.Filename,
	})
	if len(segments) == 0 {
		return "", fmt.Errorf("%w: no segments produced for %s", types.ErrIngestion, req.Filename)
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Content
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("%w: embed segments: %w", types.ErrIngestion, err)
	}
	if len(vectors) != len(segments) {
		return "", fmt.Errorf("%w: got %d vectors for %d segments", types.ErrIngestion, len(vectors), len(segments))
	}

	doc := &types.Document{
		ID:        s.newID(),
		OwnerID:   req.OwnerID,
		Filename:  req.Filename,
		Pages:     pages,
		Segments:  segments,
		CreatedAt: time.Now().Unix(),
	}

	if err := s.index.Upsert(ctx, doc.ID, segments, vectors); err != nil {
		s.rollback(ctx, doc.ID, false)
		return "", fmt.Errorf("%w: build index: %w", types.ErrIngestion, err)
	}
	if err := s.documents.SaveDocument(ctx, doc); err != nil {
		s.rollback(ctx, doc.ID, false)
		return "", fmt.Errorf("%w: save document: %w", types.ErrIngestion, err)
	}
	if err := s.conversations.CreateConversation(ctx, doc.ID); err != nil {
		s.rollback(ctx, doc.ID, true)
		return "", fmt.Errorf("%w: init conversation: %w", types.ErrIngestion, err)
	}

	s.logger.Info("document indexed",
		"pdf_id", doc.ID,
		"filename", req.Filename,
		"pages", len(pages),
		"segments", len(segments),
	)
	return doc.ID, nil
}

func (s *DocumentService) rollback(ctx context.Context, id string, saved bool) {
	ctx = context.WithoutCancel(ctx)
	if err := s.index.Delete(ctx, id); err != nil {
		s.logger.Error("failed to drop partial index", "pdf_id", id, "error", err)
	}
	if saved {
		if err := s.documents.DeleteDocument(ctx, id); err != nil {
			s.logger.Error("failed to drop partial document", "pdf_id", id, "error", err)
		}
	}
}

func (s *DocumentService) Get(ctx context.Context, documentID string) (*types.Document, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: pdf_id is required", types.ErrValidation)
	}
	return s.documents.GetDocument(ctx, documentID)
}

func (s *DocumentService) FullText(ctx context.Context, documentID string) (string, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return "", err
	}
	texts := make([]string, len(doc.Pages))
	for i, page := range doc.Pages {
		texts[i] = page.Text
	}
	return strings.Join(texts, "\n"), nil
}
