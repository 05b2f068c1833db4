package connectors

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultGitHubBaseURL = "https://api.github.com"

// GitHub is a minimal REST client shared by the GitHub actions.
type GitHub struct {
	client  HTTPDoer
	baseURL string
}

func NewGitHub(client HTTPDoer, baseURL string) *GitHub {
	if baseURL == "" {
		baseURL = defaultGitHubBaseURL
	}

	return &GitHub{client: defaultClient(client), baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (g *GitHub) repoURL(repository string) (string, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return "", fmt.Errorf("%w: repository must be owner/name, got %q", ErrInvalidConfig, repository)
	}

	return g.baseURL + "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo), nil
}

var repositorySchema = map[string]any{
	"type":    "string",
	"pattern": "^[^/]+/[^/]+$",
}

// CreateIssue opens an issue in config.repository.
type CreateIssue struct {
	*GitHub
}

func (a *CreateIssue) ID() string { return "create_issue" }

func (a *CreateIssue) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"repository", "title"},
		"properties": map[string]any{
			"action":     map[string]any{"type": "string"},
			"repository": repositorySchema,
			"title":      map[string]any{"type": "string", "minLength": 1},
			"body":       map[string]any{"type": "string"},
		},
	}
}

func (a *CreateIssue) Execute(ctx context.Context, req Request) (any, error) {
	base, err := a.repoURL(stringValue(req.Config, "repository"))
	if err != nil {
		return nil, err
	}

	body := stringValue(req.Config, "body")
	if body == "" {
		body = req.Content
	}

	var issue struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	}

	err = sendJSON(ctx, a.client, http.MethodPost, base+"/issues", req.AccessToken, map[string]string{
		"title": stringValue(req.Config, "title"),
		"body":  body,
	}, &issue)
	if err != nil {
		return nil, err
	}

	return map[string]any{"number": issue.Number, "url": issue.HTMLURL}, nil
}

// CommitFile creates or replaces config.path in config.repository.
type CommitFile struct {
	*GitHub
}

func (a *CommitFile) ID() string { return "commit_file" }

func (a *CommitFile) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"repository", "path", "message"},
		"properties": map[string]any{
			"action":     map[string]any{"type": "string"},
			"repository": repositorySchema,
			"path":       map[string]any{"type": "string", "minLength": 1},
			"content":    map[string]any{"type": "string"},
			"message":    map[string]any{"type": "string", "minLength": 1},
		},
	}
}

func (a *CommitFile) Execute(ctx context.Context, req Request) (any, error) {
	base, err := a.repoURL(stringValue(req.Config, "repository"))
	if err != nil {
		return nil, err
	}

	content := stringValue(req.Config, "content")
	if content == "" {
		content = req.Content
	}

	path := strings.TrimPrefix(stringValue(req.Config, "path"), "/")

	var result struct {
		Commit struct {
			SHA string `json:"sha"`
		} `json:"commit"`
	}

	err = sendJSON(ctx, a.client, http.MethodPut, base+"/contents/"+path, req.AccessToken, map[string]string{
		"message": stringValue(req.Config, "message"),
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
	}, &result)
	if err != nil {
		return nil, err
	}

	return map[string]any{"sha": result.Commit.SHA}, nil
}

func stringValue(config map[string]any, name string) string {
	value, _ := config[name].(string)

	return value
}
