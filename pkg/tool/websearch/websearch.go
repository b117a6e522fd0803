package websearch

import (
	"context"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
	"gopkg.in/yaml.v3"
)

// defaultDomains is the built-in allow-list of film scholarship sources.
var defaultDomains = []string{
	"cinephiliabeyond.org",
	"rightwalldarkroom.com",
	"filmanalysis.yale.edu",
	"researchguides.dartmouth.edu",
	"wikipedia.com",
}

// WebSearch advertises the Gemini Google-search capability. It declares no
// callable functions; the search runs inside the model, so Execute is never
// dispatched. The domain allow-list is enforced through the system prompt and
// can be replaced with a YAML file.
type WebSearch struct {
	configPath string
	domains    []string
}

type searchConfig struct {
	AllowedDomains []string `yaml:"allowed_domains"`
}

// New creates the web search capability with the built-in allow-list.
func New() *WebSearch {
	return &WebSearch{domains: defaultDomains}
}

// Flags returns CLI flags for this tool
func (x *WebSearch) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "websearch-config",
			Usage:       "Path to a YAML file with an allowed_domains list for web search",
			Sources:     cli.EnvVars("CINEXPERT_WEBSEARCH_CONFIG"),
			Destination: &x.configPath,
		},
	}
}

// LoadConfig replaces the domain allow-list from the configured YAML file.
// Without a configured path the built-in list stays in effect.
func (x *WebSearch) LoadConfig() error {
	if x.configPath == "" {
		return nil
	}

	data, err := os.ReadFile(x.configPath)
	if err != nil {
		return goerr.Wrap(err, "failed to read websearch config", goerr.V("path", x.configPath))
	}

	var cfg searchConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return goerr.Wrap(err, "failed to parse websearch config", goerr.V("path", x.configPath))
	}
	if len(cfg.AllowedDomains) == 0 {
		return goerr.New("websearch config has no allowed_domains", goerr.V("path", x.configPath))
	}

	x.domains = cfg.AllowedDomains
	return nil
}

// Domains returns the active allow-list.
func (x *WebSearch) Domains() []string {
	return x.domains
}

// Prompt returns additional information to be added to the system prompt
func (x *WebSearch) Prompt(ctx context.Context) string {
	return `Use web search for film criticism, information supplementation, and contemporary analysis (e.g. "What did critics say about The Batman?"). Only rely on search results from these domains: ` +
		strings.Join(x.domains, ", ") + `.`
}

// Spec returns the tool specification for Gemini function calling
func (x *WebSearch) Spec() *genai.Tool {
	return &genai.Tool{
		GoogleSearch: &genai.GoogleSearch{},
	}
}

// Execute runs the tool with the given function call
func (x *WebSearch) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	// Search happens inside the model; nothing dispatches here.
	return nil, goerr.New("web search is not dispatchable", goerr.V("name", fc.Name))
}
