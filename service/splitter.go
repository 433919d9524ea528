package service

import (
	"strings"
	"sync"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	"github.com/tieubaoca/finsight-be/types"
)

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

type TokenCounter interface {
	CountTokens(text string) int
}

// TiktokenCounter counts cl100k_base tokens, the encoding used by the
// gpt-4o and ada-002 models.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
	mu       sync.Mutex
}

func NewTiktokenCounter() (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{encoding: enc}, nil
}

func (c *TiktokenCounter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.encoding.Encode(text, nil, nil))
}

// WordCounter approximates tokens by whitespace separated words.
type WordCounter struct{}

func (WordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}

// SentenceSplitter packs whole sentences into segments of at most
// MaxChunkSize tokens. Consecutive segments share trailing sentences worth
// up to OverlapSize tokens.
type SentenceSplitter struct {
	maxChunkSize int
	overlapSize  int
	counter      TokenCounter
}

func NewSentenceSplitter(config types.ChunkConfig, counter TokenCounter) *SentenceSplitter {
	if config.MaxChunkSize <= 0 {
		config.MaxChunkSize = 1024
	}
	if config.OverlapSize < 0 || config.OverlapSize >= config.MaxChunkSize {
		config.OverlapSize = 0
	}
	if counter == nil {
		counter = WordCounter{}
	}
	return &SentenceSplitter{
		maxChunkSize: config.MaxChunkSize,
		overlapSize:  config.OverlapSize,
		counter:      counter,
	}
}

// SplitPages splits every page and numbers the segments across the document.
func (s *SentenceSplitter) SplitPages(pages []types.PageText, meta types.SegmentMetadata) []types.Segment {
	var segments []types.Segment
	for _, page := range pages {
		for _, chunk := range s.Split(page.Text) {
			m := meta
			m.PageNum = page.PageNum
			segments = append(segments, types.Segment{
				Index:    len(segments),
				Content:  chunk,
				Metadata: m,
			})
		}
	}
	return segments
}

type sentence struct {
	text   string
	tokens int
}

func (s *SentenceSplitter) Split(text string) []string {
	var units []sentence
	for _, sent := range splitSentences(text) {
		units = append(units, s.fit(sent)...)
	}
	if len(units) == 0 {
		return nil
	}

	var (
		chunks  []string
		current []sentence
		size    int
	)
	for _, u := range units {
		if size+u.tokens > s.maxChunkSize && len(current) > 0 {
			chunks = append(chunks, join(current))
			current = s.overlap(current)
			size = total(current)
			if size+u.tokens > s.maxChunkSize {
				current, size = nil, 0
			}
		}
		current = append(current, u)
		size += u.tokens
	}
	if len(current) > 0 {
		chunks = append(chunks, join(current))
	}
	return chunks
}

// fit breaks a sentence longer than the chunk size on word boundaries.
func (s *SentenceSplitter) fit(text string) []sentence {
	n := s.counter.CountTokens(text)
	if n <= s.maxChunkSize {
		return []sentence{{text: text, tokens: n}}
	}

	var (
		out   []sentence
		words []string
		size  int
	)
	for _, w := range strings.Fields(text) {
		wn := s.counter.CountTokens(w)
		if size+wn > s.maxChunkSize && len(words) > 0 {
			out = append(out, sentence{text: strings.Join(words, " "), tokens: size})
			words, size = nil, 0
		}
		words = append(words, w)
		size += wn
	}
	if len(words) > 0 {
		out = append(out, sentence{text: strings.Join(words, " "), tokens: size})
	}
	return out
}

func (s *SentenceSplitter) overlap(prev []sentence) []sentence {
	if s.overlapSize == 0 {
		return nil
	}
	size := 0
	i := len(prev)
	for i > 0 && size+prev[i-1].tokens <= s.overlapSize {
		size += prev[i-1].tokens
		i--
	}
	return append([]sentence(nil), prev[i:]...)
}

// splitSentences cuts after terminal punctuation followed by whitespace and
// at every line break, since statement rows rarely end with a period.
func splitSentences(text string) []string {
	var (
		out   []string
		start int
	)
	runes := []rune(text)
	emit := func(end int) {
		if sent := strings.TrimSpace(string(runes[start:end])); sent != "" {
			out = append(out, sent)
		}
		start = end
	}
	for i, r := range runes {
		switch {
		case r == '\n':
			emit(i + 1)
		case r == '.' || r == '!' || r == '?':
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				emit(i + 1)
			}
		}
	}
	emit(len(runes))
	return out
}

func join(units []sentence) string {
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = u.text
	}
	return strings.Join(parts, " ")
}

func total(units []sentence) int {
	n := 0
	for _, u := range units {
		n += u.tokens
	}
	return n
}
