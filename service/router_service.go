package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tieubaoca/finsight-be/logger"
	"github.com/tieubaoca/finsight-be/repository"
	"github.com/tieubaoca/finsight-be/types"
)

const chatPreamble = `
You are an AI assistant helping users analyze their bank statements. The user has uploaded a PDF containing the financial transactions of their bank statement.
Your role is to provide clear, concise and insightful answers based on the document.
Context:
- The PDF contains financial transactions, including income, expenses and other financial activities.
- Transactions may include merchant names, dates, amounts and categories.
- The user may ask about spending habits, category breakdowns, unusual transactions, trends and budget insights.
- Responses must be factual, analytical and based directly on the provided data.
Example questions:
- "What was my total expenditure last month?"
- "Break down my expenses into categories."
- "Find unusual or large transactions."
- "Compare my spending between two months."
- "Identify my top 5 spending categories."
- If a question requires a comparison, summarize the trend from the available data.
Response guidelines:
1. Be data driven. Answer only from the bank statement data.
2. Be concise and structured. Use bullets or tables where they help.
3. Use simple, unambiguous language.
4. Point out spending patterns when they exist.
READ THE WHOLE DOCUMENT CAREFULLY BEFORE ANSWERING.
DO NOT MAKE UP INFORMATION. IF THE DATA IS NOT AVAILABLE, SAY THAT THE INFORMATION IS NOT IN THE DOCUMENT.
SEND THE RESPONSE AS A PLAIN HTML STRING WRAPPED IN A SINGLE <div> </div>. USE HEADERS OF h3 SIZE OR SMALLER. DO NOT ADD ANY TEXT OUTSIDE THE HTML.
`

const chatOutputInstruction = "Please provide your response in plain HTML format only inside <div> </div> and since it is displayed in a chatbot, use headers of h3 size or smaller like h4. Do not include any explanations or extra text outside the HTML."

// BuildChatPrompt embeds the accumulated history and the current question
// after the fixed instruction preamble.
func BuildChatPrompt(history, question string) string {
	var b strings.Builder
	b.WriteString(chatPreamble)
	b.WriteString("chat history till now : ")
	b.WriteString(history)
	b.WriteString("Current Question that the user is asking Q: ")
	b.WriteString(question)
	b.WriteString("\n")
	b.WriteString(chatOutputInstruction)
	return b.String()
}

// RouterService answers chat questions by picking one retrieval strategy
// per question.
type RouterService struct {
	documents     DocumentReader
	conversations repository.ConversationRepo
	selector      *SingleSelector
	strategies    []Strategy
	fallback      int
	logger        *slog.Logger
}

// NewRouterService routes between the given strategies. When the selector
// reply cannot be used the lookup strategy, or the last one if none is
// named lookup, answers instead.
func NewRouterService(documents DocumentReader, conversations repository.ConversationRepo, selector *SingleSelector, strategies ...Strategy) *RouterService {
	fallback := len(strategies) - 1
	for i, s := range strategies {
		if s.Name() == StrategyLookup {
			fallback = i
		}
	}
	return &RouterService{
		documents:     documents,
		conversations: conversations,
		selector:      selector,
		strategies:    strategies,
		fallback:      fallback,
		logger:        logger.NewModuleLogger("service", "router"),
	}
}

func (s *RouterService) Answer(ctx context.Context, documentID, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is required", types.ErrValidation)
	}
	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return "", err
	}
	history, err := s.conversations.GetHistory(ctx, documentID)
	if err != nil {
		return "", err
	}

	strategy, err := s.route(ctx, question)
	if err != nil {
		return "", err
	}

	raw, err := strategy.Query(ctx, doc, question, BuildChatPrompt(history, question))
	if err != nil {
		return "", upstream(err)
	}
	answer, err := SanitizeAnswer(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrUpstream, err)
	}

	if err := s.conversations.AppendTurn(ctx, documentID, question, answer); err != nil {
		return "", err
	}
	return answer, nil
}

func (s *RouterService) route(ctx context.Context, question string) (Strategy, error) {
	if len(s.strategies) == 0 {
		return nil, errors.New("no retrieval strategies configured")
	}
	if len(s.strategies) == 1 {
		return s.strategies[0], nil
	}

	selection, err := s.selector.Select(ctx, s.strategies, question)
	if errors.Is(err, types.ErrParse) {
		s.logger.Warn("unusable selector reply, using fallback",
			"fallback", s.strategies[s.fallback].Name(),
			"error", err,
		)
		return s.strategies[s.fallback], nil
	}
	if err != nil {
		return nil, upstream(err)
	}

	chosen := s.strategies[selection.Index]
	s.logger.Info("strategy selected", "strategy", chosen.Name(), "reason", selection.Reason)
	return chosen, nil
}

// upstream tags errors from external calls that are not already classified.
func upstream(err error) error {
	if errors.Is(err, types.ErrUpstream) || errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %w", types.ErrUpstream, err)
}
