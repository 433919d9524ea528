package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tieubaoca/finsight-be/types"
)

// scriptedLLM answers selector prompts with selectReply and every other
// prompt with answer.
type scriptedLLM struct {
	mu          sync.Mutex
	prompts     []string
	selectReply string
	answer      func(prompt string) (string, error)
}

func (l *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	l.mu.Lock()
	l.prompts = append(l.prompts, prompt)
	l.mu.Unlock()

	if strings.HasPrefix(prompt, "Some choices are given below") {
		return l.selectReply, nil
	}
	if l.answer == nil {
		return "ok", nil
	}
	return l.answer(prompt)
}

func (l *scriptedLLM) Prompts() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.prompts...)
}

// hashEmbedder maps each text to a vector of letter counts so related texts
// land close together.
type hashEmbedder struct {
	err   error
	calls int
}

func (e *hashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, 26)
		for _, r := range strings.ToLower(t) {
			if r >= 'a' && r <= 'z' {
				v[r-'a']++
			}
		}
		out[i] = v
	}
	return out, nil
}

type staticExtractor struct {
	pages []types.PageText
	err   error
}

func (e *staticExtractor) ExtractPages(ctx context.Context, path string) ([]types.PageText, error) {
	return e.pages, e.err
}

// recordingIndex is an in-memory VectorIndex that can be told to fail.
type recordingIndex struct {
	mu        sync.Mutex
	segments  map[string][]types.Segment
	upsertErr error
	deleted   []string
}

func newRecordingIndex() *recordingIndex {
	return &recordingIndex{segments: make(map[string][]types.Segment)}
}

func (x *recordingIndex) Upsert(ctx context.Context, documentID string, segments []types.Segment, vectors [][]float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.upsertErr != nil {
		return x.upsertErr
	}
	x.segments[documentID] = segments
	return nil
}

func (x *recordingIndex) Search(ctx context.Context, documentID string, vector []float32, limit int) ([]types.Segment, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	segs, ok := x.segments[documentID]
	if !ok {
		return nil, types.ErrNotFound
	}
	if limit > 0 && len(segs) > limit {
		segs = segs[:limit]
	}
	return segs, nil
}

func (x *recordingIndex) Delete(ctx context.Context, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.segments, documentID)
	x.deleted = append(x.deleted, documentID)
	return nil
}

var errBoom = errors.New("boom")

func statementPages() []types.PageText {
	return []types.PageText{
		{PageNum: 1, Text: "Statement period January 2024.\n01/03 Grocery Mart 54.20\n01/05 Salary 3000.00"},
		{PageNum: 2, Text: "02/02 Rent 1500.00\n02/10 Coffee House 4.50\nClosing balance 2441.30."},
	}
}
