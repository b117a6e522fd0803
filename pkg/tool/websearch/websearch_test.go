package websearch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

func TestPromptListsDefaultDomains(t *testing.T) {
	ws := New()
	prompt := ws.Prompt(context.Background())

	gt.S(t, prompt).Contains("cinephiliabeyond.org")
	gt.S(t, prompt).Contains("filmanalysis.yale.edu")
	gt.S(t, prompt).Contains("wikipedia.com")
}

func TestLoadConfigReplacesDomains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "websearch.yml")
	gt.NoError(t, os.WriteFile(path, []byte("allowed_domains:\n  - example.com\n  - film.example.org\n"), 0o644))

	ws := New()
	ws.configPath = path
	gt.NoError(t, ws.LoadConfig())

	gt.Equal(t, ws.Domains(), []string{"example.com", "film.example.org"})
	gt.S(t, ws.Prompt(context.Background())).Contains("film.example.org")
}

func TestLoadConfigWithoutPathKeepsDefaults(t *testing.T) {
	ws := New()
	gt.NoError(t, ws.LoadConfig())
	gt.Equal(t, ws.Domains(), defaultDomains)
}

func TestLoadConfigRejectsEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "websearch.yml")
	gt.NoError(t, os.WriteFile(path, []byte("allowed_domains: []\n"), 0o644))

	ws := New()
	ws.configPath = path
	gt.Error(t, ws.LoadConfig())
}

func TestLoadConfigMissingFile(t *testing.T) {
	ws := New()
	ws.configPath = filepath.Join(t.TempDir(), "missing.yml")
	gt.Error(t, ws.LoadConfig())
}

func TestSpecAndExecute(t *testing.T) {
	ws := New()
	gt.V(t, ws.Spec().GoogleSearch).NotNil()

	_, err := ws.Execute(context.Background(), genai.FunctionCall{Name: "web_search"})
	gt.Error(t, err)
}
