package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tieubaoca/finsight-be/types"
)

const selectorTemplate = `Some choices are given below. It is provided in a numbered list (1 to %d), where each item in the list corresponds to a summary.
---------------------
%s
---------------------
Using only the choices above and not prior knowledge, return the choice that is most relevant to the question: '%s'

The output should be ONLY a JSON object of the form {"choice": <number>, "reason": "<one sentence>"} with no other text.`

// Selection is the classifier's pick, as a zero-based index into the choices.
type Selection struct {
	Index  int
	Reason string
}

// SingleSelector asks the model to pick exactly one strategy for a question.
type SingleSelector struct {
	llm LLM
}

func NewSingleSelector(llm LLM) *SingleSelector {
	return &SingleSelector{llm: llm}
}

// Select returns an ErrUpstream error when the call fails and an ErrParse
// error when the reply does not name a valid choice.
func (s *SingleSelector) Select(ctx context.Context, choices []Strategy, question string) (Selection, error) {
	list := make([]string, len(choices))
	for i, c := range choices {
		list[i] = fmt.Sprintf("(%d) %s", i+1, c.Description())
	}
	prompt := fmt.Sprintf(selectorTemplate, len(choices), strings.Join(list, "\n\n"), question)

	raw, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return Selection{}, err
	}
	return parseSelection(raw, len(choices))
}

// selectorAnswer takes choice as a number or a quoted number.
type selectorAnswer struct {
	Choice json.Number `json:"choice"`
	Reason string      `json:"reason"`
}

func parseSelection(raw string, numChoices int) (Selection, error) {
	body := StripJSONFence(raw)
	if start, end := strings.IndexAny(body, "[{"), strings.LastIndexAny(body, "]}"); start >= 0 && end > start {
		body = body[start : end+1]
	}

	var answer selectorAnswer
	if strings.HasPrefix(body, "[") {
		var answers []selectorAnswer
		if err := json.Unmarshal([]byte(body), &answers); err != nil || len(answers) == 0 {
			return Selection{}, fmt.Errorf("%w: selector output %q", types.ErrParse, raw)
		}
		answer = answers[0]
	} else if err := json.Unmarshal([]byte(body), &answer); err != nil {
		return Selection{}, fmt.Errorf("%w: selector output %q", types.ErrParse, raw)
	}

	choice, err := strconv.Atoi(answer.Choice.String())
	if err != nil {
		return Selection{}, fmt.Errorf("%w: selector choice %q", types.ErrParse, answer.Choice)
	}
	if choice < 1 || choice > numChoices {
		return Selection{}, fmt.Errorf("%w: choice %d out of range 1..%d", types.ErrParse, choice, numChoices)
	}
	return Selection{Index: choice - 1, Reason: answer.Reason}, nil
}
