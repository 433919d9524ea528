package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tieubaoca/finsight-be/types"
)

const (
	StrategySummarize = "summarize"
	StrategyLookup    = "lookup"
)

// Strategy answers a prompt against one document. The question is the bare
// user question, used for retrieval; the prompt is what the model answers.
type Strategy interface {
	Name() string
	Description() string
	Query(ctx context.Context, doc *types.Document, question, prompt string) (string, error)
}

const textQATemplate = `Context information is below.
---------------------
%s
---------------------
Given the context information and not prior knowledge, answer the query.
Query: %s
Answer: `

const summaryTemplate = `Context information from multiple sources is below.
---------------------
%s
---------------------
Given the information from multiple sources and not prior knowledge, answer the query.
Query: %s
Answer: `

// LookupStrategy answers from the top-k segments closest to the question.
type LookupStrategy struct {
	llm      LLM
	embedder Embedder
	index    VectorIndex
	topK     int
}

func NewLookupStrategy(llm LLM, embedder Embedder, index VectorIndex, topK int) *LookupStrategy {
	if topK <= 0 {
		topK = 2
	}
	return &LookupStrategy{llm: llm, embedder: embedder, index: index, topK: topK}
}

func (s *LookupStrategy) Name() string { return StrategyLookup }

func (s *LookupStrategy) Description() string {
	return "Useful for retrieving specific context about the bank statement that the user has uploaded."
}

func (s *LookupStrategy) Query(ctx context.Context, doc *types.Document, question, prompt string) (string, error) {
	vectors, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		return "", err
	}
	if len(vectors) != 1 {
		return "", fmt.Errorf("%w: expected 1 query embedding, got %d", types.ErrUpstream, len(vectors))
	}
	segments, err := s.index.Search(ctx, doc.ID, vectors[0], s.topK)
	if err != nil {
		return "", fmt.Errorf("%w: vector search: %w", types.ErrUpstream, err)
	}

	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = fmt.Sprintf("page: %d\n\n%s", seg.Metadata.PageNum, seg.Content)
	}
	return s.llm.Complete(ctx, fmt.Sprintf(textQATemplate, strings.Join(parts, "\n\n"), prompt))
}

// SummarizeStrategy answers over every segment with a tree summarize: the
// segments are packed into groups that fit the context budget, each group is
// answered, and the partial answers are combined the same way until one
// answer is left.
type SummarizeStrategy struct {
	llm     LLM
	counter TokenCounter
	budget  int
}

func NewSummarizeStrategy(llm LLM, counter TokenCounter, budget int) *SummarizeStrategy {
	if counter == nil {
		counter = WordCounter{}
	}
	if budget <= 0 {
		budget = 6000
	}
	return &SummarizeStrategy{llm: llm, counter: counter, budget: budget}
}

func (s *SummarizeStrategy) Name() string { return StrategySummarize }

func (s *SummarizeStrategy) Description() string {
	return "Useful for summarization questions related to the bank statement that the user has uploaded."
}

func (s *SummarizeStrategy) Query(ctx context.Context, doc *types.Document, question, prompt string) (string, error) {
	texts := make([]string, len(doc.Segments))
	for i, seg := range doc.Segments {
		texts[i] = seg.Content
	}
	if len(texts) == 0 {
		return "", fmt.Errorf("%w: document %s has no segments", types.ErrNotFound, doc.ID)
	}

	for {
		groups := s.pack(texts)
		answers := make([]string, 0, len(groups))
		for _, group := range groups {
			answer, err := s.llm.Complete(ctx, fmt.Sprintf(summaryTemplate, strings.Join(group, "\n\n"), prompt))
			if err != nil {
				return "", err
			}
			answers = append(answers, answer)
		}
		if len(answers) == 1 {
			return answers[0], nil
		}
		texts = answers
	}
}

// pack groups consecutive texts under the budget. Every group but a lone
// leftover holds at least two texts so each round shrinks the input.
func (s *SummarizeStrategy) pack(texts []string) [][]string {
	var (
		groups  [][]string
		current []string
		size    int
	)
	for _, text := range texts {
		n := s.counter.CountTokens(text)
		if len(current) >= 2 && size+n > s.budget {
			groups = append(groups, current)
			current, size = nil, 0
		}
		current = append(current, text)
		size += n
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}
