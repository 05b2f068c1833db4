package connectors

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const defaultSlackBaseURL = "https://slack.com/api"

// SlackPost posts the template content to every selected channel.
type SlackPost struct {
	client  HTTPDoer
	baseURL string
}

func NewSlackPost(client HTTPDoer, baseURL string) *SlackPost {
	if baseURL == "" {
		baseURL = defaultSlackBaseURL
	}

	return &SlackPost{client: defaultClient(client), baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (a *SlackPost) ID() string { return "post_message" }

func (a *SlackPost) Schema() map[string]any {
	return map[string]any{"type": "object"}
}

func (a *SlackPost) Execute(ctx context.Context, req Request) (any, error) {
	if len(req.Channels) == 0 {
		return nil, fmt.Errorf("%w: no Slack channel selected", ErrInvalidConfig)
	}

	posted := 0

	for _, channel := range req.Channels {
		var result struct {
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		}

		err := sendJSON(ctx, a.client, http.MethodPost, a.baseURL+"/chat.postMessage", req.AccessToken, map[string]string{
			"channel": channel,
			"text":    req.Content,
		}, &result)
		if err != nil {
			return nil, err
		}

		if !result.OK {
			return nil, fmt.Errorf("%w: slack channel %s: %s", ErrUpstream, channel, result.Error)
		}

		posted++
	}

	return map[string]any{"posted": posted}, nil
}

// DiscordPost sends the template content to config.webhook_url.
type DiscordPost struct {
	client HTTPDoer
}

func NewDiscordPost(client HTTPDoer) *DiscordPost {
	return &DiscordPost{client: defaultClient(client)}
}

func (a *DiscordPost) ID() string { return "post_message" }

func (a *DiscordPost) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"webhook_url"},
		"properties": map[string]any{
			"webhook_url": map[string]any{"type": "string", "pattern": "^https?://"},
		},
	}
}

func (a *DiscordPost) Execute(ctx context.Context, req Request) (any, error) {
	err := sendJSON(ctx, a.client, http.MethodPost, stringValue(req.Config, "webhook_url"), "", map[string]string{
		"content": req.Content,
	}, nil)
	if err != nil {
		return nil, err
	}

	return map[string]any{"posted": 1}, nil
}
