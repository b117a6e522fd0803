package expert

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/adapter"
	"github.com/tkumagai/cinexpert/pkg/model"
	"github.com/tkumagai/cinexpert/pkg/tool"
	"github.com/tkumagai/cinexpert/pkg/utils/logging"
	"google.golang.org/genai"
)

// ToolChoice is the first-round function calling policy.
type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = "auto"
	ToolChoiceAny  ToolChoice = "any"
	ToolChoiceNone ToolChoice = "none"
)

// ParseToolChoice validates a tool choice string from configuration.
func ParseToolChoice(s string) (ToolChoice, error) {
	switch ToolChoice(strings.ToLower(s)) {
	case ToolChoiceAuto, "":
		return ToolChoiceAuto, nil
	case ToolChoiceAny:
		return ToolChoiceAny, nil
	case ToolChoiceNone:
		return ToolChoiceNone, nil
	default:
		return "", goerr.New("invalid tool choice", goerr.V("value", s))
	}
}

func (tc ToolChoice) mode() genai.FunctionCallingConfigMode {
	switch tc {
	case ToolChoiceAny:
		return genai.FunctionCallingConfigModeAny
	case ToolChoiceNone:
		return genai.FunctionCallingConfigModeNone
	default:
		return genai.FunctionCallingConfigModeAuto
	}
}

// Expert answers one request with at most one round of tool calls: the first
// model round may request tools, their outputs are fed back, and the second
// round produces the final answer. No retries; any upstream failure is
// returned to the caller.
type Expert struct {
	gemini     adapter.Gemini
	registry   *tool.Registry
	toolChoice ToolChoice
}

// New creates an Expert. The registry is the full advertised tool set.
func New(gemini adapter.Gemini, registry *tool.Registry, toolChoice ToolChoice) *Expert {
	return &Expert{
		gemini:     gemini,
		registry:   registry,
		toolChoice: toolChoice,
	}
}

// Invoke runs the two-round exchange and returns the final generated text.
func (x *Expert) Invoke(ctx context.Context, req model.ExpertRequest) (*model.ExpertResponse, error) {
	if req.UserInput == "" {
		return nil, goerr.New("user input is empty")
	}

	instruction := systemPrompt
	if prompts := x.registry.Prompts(ctx); prompts != "" {
		instruction += "\n\nTool Usage:\n\n" + prompts
	}

	contents := []*genai.Content{
		genai.NewContentFromText(req.UserInput, genai.RoleUser),
	}

	firstConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, ""),
		Tools:             x.registry.Specs(),
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: x.toolChoice.mode(),
			},
		},
	}

	first, err := x.gemini.GenerateContent(ctx, contents, firstConfig)
	if err != nil {
		return nil, goerr.Wrap(err, "first model round failed", goerr.V("request_id", req.RequestID))
	}

	var calls []genai.FunctionCall
	for _, candidate := range first.Candidates {
		if candidate.Content == nil {
			continue
		}
		contents = append(contents, candidate.Content)
		for _, part := range candidate.Content.Parts {
			if part.FunctionCall != nil {
				calls = append(calls, *part.FunctionCall)
			}
		}
	}

	responses, err := x.registry.Dispatch(ctx, calls)
	if err != nil {
		return nil, goerr.Wrap(err, "tool dispatch failed", goerr.V("request_id", req.RequestID))
	}
	if len(responses) > 0 {
		parts := make([]*genai.Part, 0, len(responses))
		for _, fr := range responses {
			parts = append(parts, &genai.Part{FunctionResponse: fr})
		}
		contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
	}

	logging.From(ctx).Debug("dispatched tool calls",
		"request_id", req.RequestID,
		"calls", len(calls),
		"responses", len(responses))

	// Final round: never force tool use, the model must answer in text.
	finalConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, ""),
		Tools:             x.registry.Specs(),
	}

	final, err := x.gemini.GenerateContent(ctx, contents, finalConfig)
	if err != nil {
		return nil, goerr.Wrap(err, "final model round failed", goerr.V("request_id", req.RequestID))
	}

	return &model.ExpertResponse{
		GeneratedResponse: final.Text(),
		UserInput:         req.UserInput,
		ResponseID:        uuid.New(),
		ConversationID:    req.ConversationID,
	}, nil
}
