package connectors

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dukex/fuzzie/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]string
}

func recorder(t *testing.T, response string) (*httptest.Server, func() []recordedRequest) {
	t.Helper()

	var (
		mu       sync.Mutex
		requests []recordedRequest
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)

		var body map[string]string
		_ = json.Unmarshal(data, &body)

		mu.Lock()
		requests = append(requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: body})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	return server, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()

		return append([]recordedRequest(nil), requests...)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	registry := NewDefaultRegistry(testLogger(), Options{})

	action, err := registry.Lookup(models.ServiceGitHub, "")
	require.NoError(t, err)
	assert.Equal(t, "create_issue", action.ID())

	action, err = registry.Lookup(models.ServiceGitHub, "commit_file")
	require.NoError(t, err)
	assert.Equal(t, "commit_file", action.ID())

	_, err = registry.Lookup(models.ServiceNotion, "")
	assert.ErrorIs(t, err, ErrActionNotRegistered)

	_, err = registry.Lookup(models.ServiceGitHub, "delete_repo")
	assert.ErrorIs(t, err, ErrActionNotRegistered)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	action := &CreateIssue{NewGitHub(nil, "")}

	assert.NoError(t, Validate(action, map[string]any{"repository": "acme/api", "title": "Bug"}))
	assert.ErrorIs(t, Validate(action, map[string]any{"repository": "acme", "title": "Bug"}), ErrInvalidConfig)
	assert.ErrorIs(t, Validate(action, map[string]any{"repository": "acme/api"}), ErrInvalidConfig)
	assert.ErrorIs(t, Validate(action, nil), ErrInvalidConfig)
}

func TestCreateIssue_Execute(t *testing.T) {
	t.Parallel()

	server, requests := recorder(t, `{"number": 42, "html_url": "https://github.com/acme/api/issues/42"}`)
	action := &CreateIssue{NewGitHub(server.Client(), server.URL)}

	result, err := action.Execute(t.Context(), Request{
		AccessToken: "gh-token",
		Content:     "fallback body",
		Config:      map[string]any{"repository": "acme/api", "title": "Bug"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"number": 42, "url": "https://github.com/acme/api/issues/42"}, result)

	got := requests()
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodPost, got[0].Method)
	assert.Equal(t, "/repos/acme/api/issues", got[0].Path)
	assert.Equal(t, "Bearer gh-token", got[0].Auth)
	assert.Equal(t, "Bug", got[0].Body["title"])
	assert.Equal(t, "fallback body", got[0].Body["body"])
}

func TestCommitFile_Execute(t *testing.T) {
	t.Parallel()

	server, requests := recorder(t, `{"commit": {"sha": "abc123"}}`)
	action := &CommitFile{NewGitHub(server.Client(), server.URL)}

	result, err := action.Execute(t.Context(), Request{
		AccessToken: "gh-token",
		Config: map[string]any{
			"repository": "acme/api",
			"path":       "docs/notes.md",
			"content":    "hello",
			"message":    "add notes",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"sha": "abc123"}, result)

	got := requests()
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodPut, got[0].Method)
	assert.Equal(t, "/repos/acme/api/contents/docs/notes.md", got[0].Path)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("hello")), got[0].Body["content"])
}

func TestGitHub_UpstreamError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	action := &CreateIssue{NewGitHub(server.Client(), server.URL)}

	_, err := action.Execute(t.Context(), Request{Config: map[string]any{"repository": "acme/api", "title": "Bug"}})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "401")
}

func TestSlackPost_Execute(t *testing.T) {
	t.Parallel()

	server, requests := recorder(t, `{"ok": true}`)
	action := NewSlackPost(server.Client(), server.URL)

	result, err := action.Execute(t.Context(), Request{
		AccessToken: "xoxb",
		Content:     "deploy finished",
		Channels:    []string{"C1", "C2"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"posted": 2}, result)

	got := requests()
	require.Len(t, got, 2)
	assert.Equal(t, "/chat.postMessage", got[0].Path)
	assert.Equal(t, "C1", got[0].Body["channel"])
	assert.Equal(t, "C2", got[1].Body["channel"])
	assert.Equal(t, "deploy finished", got[1].Body["text"])

	_, err = action.Execute(t.Context(), Request{Content: "x"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSlackPost_NotOK(t *testing.T) {
	t.Parallel()

	server, _ := recorder(t, `{"ok": false, "error": "channel_not_found"}`)
	action := NewSlackPost(server.Client(), server.URL)

	_, err := action.Execute(t.Context(), Request{Content: "x", Channels: []string{"C9"}})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestDiscordPost_Execute(t *testing.T) {
	t.Parallel()

	server, requests := recorder(t, ``)
	action := NewDiscordPost(server.Client())

	_, err := action.Execute(t.Context(), Request{
		Content: "new PR",
		Config:  map[string]any{"webhook_url": server.URL + "/api/webhooks/1/abc"},
	})
	require.NoError(t, err)

	got := requests()
	require.Len(t, got, 1)
	assert.Equal(t, "/api/webhooks/1/abc", got[0].Path)
	assert.Equal(t, "new PR", got[0].Body["content"])
	assert.Empty(t, got[0].Auth)
}
