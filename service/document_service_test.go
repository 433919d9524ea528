package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/finsight-be/repository"
	"github.com/tieubaoca/finsight-be/types"
)

type documentFixture struct {
	extractor     *staticExtractor
	embedder      *hashEmbedder
	index         *recordingIndex
	documents     repository.DocumentRepo
	conversations repository.ConversationRepo
	svc           *DocumentService
}

func newDocumentFixture() *documentFixture {
	f := &documentFixture{
		extractor:     &staticExtractor{pages: statementPages()},
		embedder:      &hashEmbedder{},
		index:         newRecordingIndex(),
		documents:     repository.NewMemoryDocumentRepo(),
		conversations: repository.NewMemoryConversationRepo(),
	}
	f.svc = NewDocumentService(
		f.extractor,
		NewSentenceSplitter(types.ChunkConfig{MaxChunkSize: 8, OverlapSize: 2}, WordCounter{}),
		f.embedder,
		f.index,
		f.documents,
		f.conversations,
	)
	f.svc.newID = func() string { return "doc-1" }
	return f
}

func TestDocumentService_Ingest(t *testing.T) {
	f := newDocumentFixture()
	ctx := context.Background()

	id, err := f.svc.Ingest(ctx, types.IngestRequest{OwnerID: "u1", Filename: "jan.pdf", Path: "/tmp/jan.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)

	doc, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "u1", doc.OwnerID)
	assert.Equal(t, "jan.pdf", doc.Filename)
	require.NotEmpty(t, doc.Segments)
	assert.Equal(t, doc.Segments, f.index.segments[id])

	history, err := f.conversations.GetHistory(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, history)

	text, err := f.svc.FullText(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, statementPages()[0].Text+"\n"+statementPages()[1].Text, text)
}

func TestDocumentService_IngestNoText(t *testing.T) {
	f := newDocumentFixture()
	f.extractor.pages = nil

	_, err := f.svc.Ingest(context.Background(), types.IngestRequest{Filename: "scan.pdf"})
	assert.ErrorIs(t, err, types.ErrIngestion)
	assert.Zero(t, f.embedder.calls)
}

func TestDocumentService_IngestExtractorError(t *testing.T) {
	f := newDocumentFixture()
	f.extractor.err = errBoom

	_, err := f.svc.Ingest(context.Background(), types.IngestRequest{Filename: "bad.pdf"})
	assert.ErrorIs(t, err, types.ErrIngestion)
	assert.ErrorIs(t, err, errBoom)
}

func TestDocumentService_IngestEmbedFailureLeavesNothing(t *testing.T) {
	f := newDocumentFixture()
	f.embedder.err = errBoom
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, types.IngestRequest{Filename: "jan.pdf"})
	assert.ErrorIs(t, err, types.ErrIngestion)

	_, err = f.svc.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = f.conversations.GetHistory(ctx, "doc-1")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Empty(t, f.index.segments)
}

func TestDocumentService_IngestIndexFailureRollsBack(t *testing.T) {
	f := newDocumentFixture()
	f.index.upsertErr = errBoom
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, types.IngestRequest{Filename: "jan.pdf"})
	assert.ErrorIs(t, err, types.ErrIngestion)
	assert.Equal(t, []string{"doc-1"}, f.index.deleted)

	_, err = f.svc.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = f.conversations.GetHistory(ctx, "doc-1")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDocumentService_ConversationFailureRollsBack(t *testing.T) {
	f := newDocumentFixture()
	ctx := context.Background()
	require.NoError(t, f.conversations.CreateConversation(ctx, "doc-1"))

	_, err := f.svc.Ingest(ctx, types.IngestRequest{Filename: "jan.pdf"})
	assert.ErrorIs(t, err, types.ErrIngestion)

	_, err = f.svc.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Empty(t, f.index.segments)
}

func TestDocumentService_GetValidation(t *testing.T) {
	f := newDocumentFixture()

	_, err := f.svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = f.svc.FullText(context.Background(), "nope")
	assert.ErrorIs(t, err, types.ErrNotFound)
}
