// Package connectors holds the side-effecting calls a workflow node template can trigger on
// external services.
package connectors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukex/fuzzie/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrActionNotRegistered = errors.New("connector action not registered")
	ErrInvalidConfig       = errors.New("invalid connector config")
	ErrUpstream            = errors.New("connector upstream error")
)

// Request is the input of one connector call. AccessToken is used for the call only.
type Request struct {
	AccessToken string
	Content     string
	Channels    []string
	Config      map[string]any
}

// Action is a single connector call.
type Action interface {
	// ID names the action within its service, e.g. "create_issue".
	ID() string
	// Schema is the JSON schema Request.Config must satisfy.
	Schema() map[string]any
	Execute(ctx context.Context, req Request) (any, error)
}

type key struct {
	service models.ServiceType
	action  string
}

// Registry maps (service, action id) to actions. A service's first registered action is its
// default, used when no action id is given.
type Registry struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	actions  map[key]Action
	defaults map[models.ServiceType]string
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger,
		actions:  make(map[key]Action),
		defaults: make(map[models.ServiceType]string),
	}
}

func (r *Registry) Register(service models.ServiceType, action Action) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actions[key{service, action.ID()}] = action

	if _, ok := r.defaults[service]; !ok {
		r.defaults[service] = action.ID()
	}

	r.logger.Debug("registered connector action", "service", service, "action", action.ID())
}

// Lookup returns the action registered for service under actionID, or the service default
// when actionID is empty.
//
//nolint:ireturn
func (r *Registry) Lookup(service models.ServiceType, actionID string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if actionID == "" {
		actionID = r.defaults[service]
	}

	action, ok := r.actions[key{service, actionID}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrActionNotRegistered, service, actionID)
	}

	return action, nil
}

// Supports reports whether any action is registered for service.
func (r *Registry) Supports(service models.ServiceType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.defaults[service]

	return ok
}

// Validate checks config against the action's schema.
func Validate(action Action, config map[string]any) error {
	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(action.Schema()), gojsonschema.NewGoLoader(config))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(messages, "; "))
	}

	return nil
}

// Options configures the built-in connectors.
type Options struct {
	GitHubBaseURL string
	SlackBaseURL  string
	HTTPClient    HTTPDoer
}

// NewDefaultRegistry registers the GitHub, Slack and Discord actions.
func NewDefaultRegistry(logger *slog.Logger, opts Options) *Registry {
	registry := NewRegistry(logger)

	github := NewGitHub(opts.HTTPClient, opts.GitHubBaseURL)
	registry.Register(models.ServiceGitHub, &CreateIssue{github})
	registry.Register(models.ServiceGitHub, &CommitFile{github})
	registry.Register(models.ServiceSlack, NewSlackPost(opts.HTTPClient, opts.SlackBaseURL))
	registry.Register(models.ServiceDiscord, NewDiscordPost(opts.HTTPClient))

	return registry
}
