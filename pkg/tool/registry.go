package tool

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

// ErrToolNotFound is returned in strict mode when the model requests a
// function name no registered tool declares.
var ErrToolNotFound = goerr.New("tool not found")

// Registry is a closed dispatch table from declared function names to tools.
type Registry struct {
	tools     map[string]Tool
	allTools  []Tool
	toolSpecs []*genai.Tool
	strict    bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithStrictDispatch makes Dispatch fail on unrecognized function names
// instead of skipping them with a warning.
func WithStrictDispatch() Option {
	return func(r *Registry) {
		r.strict = true
	}
}

// New creates a new tool registry with the given tools
func New(tools []Tool, opts ...Option) *Registry {
	r := &Registry{
		tools:    make(map[string]Tool),
		allTools: tools,
	}

	for _, opt := range opts {
		opt(r)
	}

	for _, t := range tools {
		spec := t.Spec()
		if spec == nil {
			continue
		}
		r.toolSpecs = append(r.toolSpecs, spec)
		for _, fd := range spec.FunctionDeclarations {
			r.tools[fd.Name] = t
		}
	}

	return r
}

// Specs returns all tool specifications for Gemini function calling
func (r *Registry) Specs() []*genai.Tool {
	return r.toolSpecs
}

// Prompts returns all tool prompts concatenated
func (r *Registry) Prompts(ctx context.Context) string {
	var prompts []string
	for _, t := range r.allTools {
		if prompt := t.Prompt(ctx); prompt != "" {
			prompts = append(prompts, prompt)
		}
	}
	return strings.Join(prompts, "\n\n")
}

// Flags returns all tool flags combined
func (r *Registry) Flags() []cli.Flag {
	var flags []cli.Flag
	for _, t := range r.allTools {
		if toolFlags := t.Flags(); toolFlags != nil {
			flags = append(flags, toolFlags...)
		}
	}
	return flags
}

// Execute runs the tool matching the function call's declared name. The
// call identifier is carried onto the response so the model can pair results
// with parallel calls to the same function.
func (r *Registry) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	tool, ok := r.tools[fc.Name]
	if !ok {
		return nil, goerr.Wrap(ErrToolNotFound, "no tool declares this function", goerr.V("name", fc.Name))
	}

	resp, err := tool.Execute(ctx, fc)
	if err != nil {
		return nil, err
	}
	if resp != nil {
		resp.ID = fc.ID
	}
	return resp, nil
}

// Dispatch resolves every function call in order and returns the responses.
// Unknown names are skipped with a warning unless strict mode is on.
func (r *Registry) Dispatch(ctx context.Context, calls []genai.FunctionCall) ([]*genai.FunctionResponse, error) {
	var responses []*genai.FunctionResponse
	for _, fc := range calls {
		if _, ok := r.tools[fc.Name]; !ok {
			if r.strict {
				return nil, goerr.Wrap(ErrToolNotFound, "no tool declares this function", goerr.V("name", fc.Name))
			}
			logging.From(ctx).Warn("skipping unknown tool call", "name", fc.Name)
			continue
		}

		resp, err := r.Execute(ctx, fc)
		if err != nil {
			return nil, goerr.Wrap(err, "tool execution failed", goerr.V("name", fc.Name))
		}
		responses = append(responses, resp)
	}
	return responses, nil
}
