package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dukex/fuzzie/pkg/authz"
	"github.com/dukex/fuzzie/pkg/connectors"
	"github.com/dukex/fuzzie/pkg/events"
	"github.com/dukex/fuzzie/pkg/models"
	"github.com/dukex/fuzzie/pkg/otelhelper"
	"github.com/dukex/fuzzie/pkg/persistence"
	"github.com/dukex/fuzzie/pkg/prompt"
	"github.com/dukex/fuzzie/pkg/synth"
	"github.com/dukex/fuzzie/pkg/template"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultConnectorTimeout bounds one fire-and-forget connector call.
const DefaultConnectorTimeout = 15 * time.Second

// CloneSuffix is appended to the name of a cloned workflow.
const CloneSuffix = " (Clone)"

type Workflow struct {
	core

	synthesizer      *synth.Synthesizer
	connectors       *connectors.Registry
	connectorTimeout time.Duration
	running          sync.WaitGroup
}

type WorkflowOption func(*Workflow)

// WithSynthesizer replaces the graph synthesizer used by CreateFromPrompt.
func WithSynthesizer(synthesizer *synth.Synthesizer) WorkflowOption {
	return func(s *Workflow) {
		s.synthesizer = synthesizer
	}
}

// WithConnectors enables "execute now" on SaveNodeTemplate.
func WithConnectors(registry *connectors.Registry, timeout time.Duration) WorkflowOption {
	return func(s *Workflow) {
		s.connectors = registry

		if timeout > 0 {
			s.connectorTimeout = timeout
		}
	}
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(deps Dependencies, opts ...WorkflowOption) *Workflow {
	s := &Workflow{
		core:             newCore(deps, "workflow_service"),
		synthesizer:      synth.New(),
		connectorTimeout: DefaultConnectorTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Wait blocks until every connector call started by SaveNodeTemplate has returned.
func (s *Workflow) Wait() {
	s.running.Wait()
}

type CreateWorkflowInput struct {
	Name        string
	Description string
	TeamID      *string
	// Visibility defaults to team for team workflows and private otherwise.
	Visibility models.Visibility
	Graph      *models.Graph
}

// Create stores a new workflow owned by caller. A team workflow requires the caller to hold
// canCreateWorkflows in that team.
func (s *Workflow) Create(ctx context.Context, caller string, input CreateWorkflowInput) (*models.Workflow, error) {
	const op = "CreateWorkflow"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.workflow.create", attribute.String(otelhelper.CallerIDKey, caller))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	workflow, err := s.newWorkflow(op, caller, input)
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	err = s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		return s.insert(ctx, repos, workflow)
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "workflow_id", workflow.ID)
	}

	s.publish(ctx, workflow.ID, events.NewWorkflowChanged(events.WorkflowCreatedEvent, caller, workflow))

	return workflow, nil
}

// CreateFromPrompt analyzes text, synthesizes a trigger→action chain and stores it as a new
// workflow. A prompt that yields no usable graph fails with ErrGenerationFailed and stores
// nothing.
func (s *Workflow) CreateFromPrompt(ctx context.Context, caller, text string, teamID *string) (*models.Workflow, error) {
	const op = "CreateWorkflowFromPrompt"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.workflow.generate", attribute.String(otelhelper.CallerIDKey, caller))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	if strings.TrimSpace(text) == "" {
		return nil, s.fail(ctx, span, op, &ServiceError{Op: op, Code: "EMPTY_PROMPT", Message: "prompt is empty", Err: ErrGenerationFailed})
	}

	info := prompt.Analyze(text)
	graph := s.synthesizer.Synthesize(info)

	if err := graph.Validate(); err != nil || len(graph.Nodes) == 0 || !graph.IsLinearChain() {
		return nil, s.fail(ctx, span, op, &ServiceError{Op: op, Code: "INVALID_GRAPH", Message: "prompt produced no usable graph", Err: ErrGenerationFailed})
	}

	span.SetAttributes(attribute.String("fuzzie.workflow.trigger", string(info.Trigger)), attribute.Int("fuzzie.workflow.actions", len(info.Actions)))

	workflow, err := s.newWorkflow(op, caller, CreateWorkflowInput{
		Name:        info.Name,
		Description: info.Description,
		TeamID:      teamID,
		Graph:       &graph,
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	err = s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		return s.insert(ctx, repos, workflow)
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "workflow_id", workflow.ID)
	}

	s.publish(ctx, workflow.ID, events.NewWorkflowChanged(events.WorkflowCreatedEvent, caller, workflow))

	return workflow, nil
}

func (s *Workflow) newWorkflow(op, caller string, input CreateWorkflowInput) (*models.Workflow, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, NewValidationError(op, "NAME_REQUIRED", "workflow name is required")
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = models.VisibilityPrivate

		if input.TeamID != nil {
			visibility = models.VisibilityTeam
		}
	}

	if !visibility.IsValid() {
		return nil, NewValidationError(op, "INVALID_VISIBILITY", "visibility must be private, team or public")
	}

	graph := models.Graph{Nodes: []*models.Node{}, Edges: []*models.Edge{}}
	if input.Graph != nil {
		err := input.Graph.Validate()
		if err != nil {
			return nil, NewValidationError(op, "INVALID_GRAPH", err.Error())
		}

		graph = input.Graph.Clone()
	}

	now := s.now()
	workflow := &models.Workflow{
		ID:          s.newID(),
		Name:        name,
		Description: input.Description,
		OwnerID:     caller,
		TeamID:      input.TeamID,
		Visibility:  visibility,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	workflow.SetGraph(graph)

	return workflow, nil
}

// insert saves workflow, first authorizing team creation when it is team-scoped.
func (s *Workflow) insert(ctx context.Context, repos persistence.Repositories, workflow *models.Workflow) error {
	if workflow.TeamID != nil {
		err := s.authorizeTeamCreate(ctx, repos, *workflow.TeamID, workflow.OwnerID)
		if err != nil {
			return err
		}
	}

	return repos.Workflows().Save(ctx, workflow)
}

func (s *Workflow) authorizeTeamCreate(ctx context.Context, repos persistence.Repositories, teamID, caller string) error {
	_, err := repos.Teams().GetByID(ctx, teamID)
	if err != nil {
		return err
	}

	callerMembership, err := membership(ctx, repos, teamID, caller)
	if err != nil {
		return err
	}

	return s.authorizer.Authorize(ctx, authz.CreateTeamWorkflow, authz.Subject{CallerID: caller, Membership: callerMembership})
}

// loadAuthorized loads the workflow and checks op against the caller's membership in its team.
func (s *Workflow) loadAuthorized(ctx context.Context, repos persistence.Repositories, op authz.Operation, id, caller string) (*models.Workflow, error) {
	workflow, err := repos.Workflows().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	callerMembership, err := workflowMembership(ctx, repos, workflow, caller)
	if err != nil {
		return nil, err
	}

	err = s.authorizer.Authorize(ctx, op, authz.Subject{CallerID: caller, Membership: callerMembership, Workflow: workflow})
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

// Get returns a workflow the caller may see.
func (s *Workflow) Get(ctx context.Context, id, caller string) (*models.Workflow, error) {
	const op = "GetWorkflow"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.workflow.get",
		attribute.String(otelhelper.CallerIDKey, caller), attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	var workflow *models.Workflow

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		var err error

		workflow, err = s.loadAuthorized(ctx, repos, authz.ViewWorkflow, id, caller)

		return err
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "workflow_id", id)
	}

	return workflow, nil
}

// List returns the caller's own workflows, most recently modified first.
func (s *Workflow) List(ctx context.Context, caller string) ([]*models.Workflow, error) {
	const op = "ListWorkflows"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.workflow.list", attribute.String(otelhelper.CallerIDKey, caller))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	var workflows []*models.Workflow

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		var err error

		workflows, err = repos.Workflows().ListByOwner(ctx, caller)

		return err
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	return workflows, nil
}

type UpdateWorkflowInput struct {
	Name        *string
	Description *string
	Visibility  *models.Visibility
	Graph       *models.Graph
	Templates   *models.Templates
}

// Update applies the non-nil fields and stamps a new modification time.
func (s *Workflow) Update(ctx context.Context, id, caller string, input UpdateWorkflowInput) (*models.Workflow, error) {
	const op = "UpdateWorkflow"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.workflow.update",
		attribute.String(otelhelper.CallerIDKey, caller), attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	if err := validateUpdate(op, input); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	var workflow *models.Workflow

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		var err error

		workflow, err = s.loadAuthorized(ctx, repos, authz.UpdateWorkflow, id, caller)
		if err != nil {
			return err
		}

		if input.Name != nil {
			workflow.Name = strings.TrimSpace(*input.Name)
		}

		if input.Description != nil {
			workflow.Description = *input.Description
		}

		if input.Visibility != nil {
			workflow.Visibility = *input.Visibility
		}

		if input.Graph != nil {
			workflow.SetGraph(input.Graph.Clone())
		}

		if input.Templates != nil {
			workflow.Templates = input.Templates.Clone()
		}

		workflow.UpdatedAt = s.now()

		return repos.Workflows().Save(ctx, workflow)
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "workflow_id", id)
	}

	s.publish(ctx, workflow.ID, events.NewWorkflowChanged(events.WorkflowUpdatedEvent, caller, workflow))

	return workflow, nil
}

func validateUpdate(op string, input UpdateWorkflowInput) error {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return NewValidationError(op, "NAME_REQUIRED", "workflow name cannot be empty")
	}

	if input.Visibility != nil && !input.Visibility.IsValid() {
		return NewValidationError(op, "INVALID_VISIBILITY", "visibility must be private, team or public")
	}

	if input.Graph != nil {
		err := input.Graph.Validate()
		if err != nil {
			return NewValidationError(op, "INVALID_GRAPH", err.Error())
		}
	}

	return nil
}

// Delete removes the workflow permanently.
func (s *Workflow) Delete(ctx context.Context, id, caller string) error {
	const op = "DeleteWorkflow"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.workflow.delete",
		attribute.String(otelhelper.CallerIDKey, caller), attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return s.fail(ctx, span, op, err)
	}

	var workflow *models.Workflow

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		var err error

		workflow, err = s.loadAuthorized(ctx, repos, authz.DeleteWorkflow, id, caller)
		if err != nil {
			return err
		}

		return repos.Workflows().Delete(ctx, id)
	})
	if err != nil {
		return s.fail(ctx, span, op, err, "workflow_id", id)
	}

	s.publish(ctx, id, events.NewWorkflowChanged(events.WorkflowDeletedEvent, caller, workflow))

	return nil
}

// Clone copies a visible workflow's graph and templates into a new private workflow owned by
// caller, optionally attached to teamID.
func (s *Workflow) Clone(ctx context.Context, id, caller string, teamID *string) (*models.Workflow, error) {
	const op = "CloneWorkflow"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.workflow.clone",
		attribute.String(otelhelper.CallerIDKey, caller), attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	var clone *models.Workflow

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		source, err := s.loadAuthorized(ctx, repos, authz.ViewWorkflow, id, caller)
		if err != nil {
			return err
		}

		if teamID != nil {
			err = s.authorizeTeamCreate(ctx, repos, *teamID, caller)
			if err != nil {
				return err
			}
		}

		now := s.now()
		clone = &models.Workflow{
			ID:          s.newID(),
			Name:        source.Name + CloneSuffix,
			Description: source.Description,
			OwnerID:     caller,
			TeamID:      teamID,
			Visibility:  models.VisibilityPrivate,
			Templates:   source.Templates.Clone(),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		clone.SetGraph(source.Graph().Clone())

		return repos.Workflows().Save(ctx, clone)
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "workflow_id", id)
	}

	event := events.NewWorkflowChanged(events.WorkflowClonedEvent, caller, clone)
	event.SourceID = id
	s.publish(ctx, clone.ID, event)

	return clone, nil
}

// ShareWithTeam attaches the caller's own workflow to a team they belong to and sets its
// visibility to team or public.
func (s *Workflow) ShareWithTeam(ctx context.Context, id, caller, teamID string, visibility models.Visibility) (*models.Workflow, error) {
	const op = "ShareWorkflowWithTeam"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.workflow.share",
		attribute.String(otelhelper.CallerIDKey, caller),
		attribute.String(otelhelper.WorkflowIDKey, id),
		attribute.String(otelhelper.TeamIDKey, teamID))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	if !visibility.SharedWithTeam() {
		return nil, s.fail(ctx, span, op, NewValidationError(op, "INVALID_VISIBILITY", "shared visibility must be team or public"))
	}

	var workflow *models.Workflow

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		var err error

		workflow, err = repos.Workflows().GetByID(ctx, id)
		if err != nil {
			return err
		}

		_, err = repos.Teams().GetByID(ctx, teamID)
		if err != nil {
			return err
		}

		target, err := membership(ctx, repos, teamID, caller)
		if err != nil {
			return err
		}

		err = s.authorizer.Authorize(ctx, authz.ShareWorkflow, authz.Subject{CallerID: caller, Membership: target, Workflow: workflow})
		if err != nil {
			return err
		}

		if workflow.InTeam(teamID) && workflow.Visibility == visibility {
			return &ServiceError{Op: op, Code: "ALREADY_SHARED", Message: "workflow is already shared with this team", Err: ErrConflict}
		}

		workflow.TeamID = &teamID
		workflow.Visibility = visibility
		workflow.UpdatedAt = s.now()

		return repos.Workflows().Save(ctx, workflow)
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "workflow_id", id, "team_id", teamID)
	}

	s.publish(ctx, workflow.ID, events.NewWorkflowChanged(events.WorkflowSharedEvent, caller, workflow))

	return workflow, nil
}

// SetPublished toggles the published flag.
func (s *Workflow) SetPublished(ctx context.Context, id, caller string, published bool) (*models.Workflow, error) {
	const op = "SetPublished"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.workflow.publish",
		attribute.String(otelhelper.CallerIDKey, caller), attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	var workflow *models.Workflow

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		var err error

		workflow, err = s.loadAuthorized(ctx, repos, authz.UpdateWorkflow, id, caller)
		if err != nil {
			return err
		}

		workflow.Published = published
		workflow.UpdatedAt = s.now()

		return repos.Workflows().Save(ctx, workflow)
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "workflow_id", id)
	}

	s.publish(ctx, workflow.ID, events.NewWorkflowChanged(events.WorkflowPublishedEvent, caller, workflow))

	return workflow, nil
}

// SaveTemplateInput is the node editor payload for one connector.
type SaveTemplateInput struct {
	Service    models.ServiceType
	Content    string
	Channels   []string
	NotionDBID string
	Config     map[string]any

	// Execute runs the connector action once after the save commits.
	Execute bool
	// Action selects the connector action; empty means the service default.
	Action string
	// AccessToken authorizes the connector call. It is never stored.
	AccessToken string
}

// SaveNodeTemplate stores the template fields of one connector on the workflow. With Execute
// set, the connector action runs in the background after commit and its outcome is only
// logged.
func (s *Workflow) SaveNodeTemplate(ctx context.Context, id, caller string, input SaveTemplateInput) (*models.Workflow, error) {
	const op = "SaveNodeTemplate"

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.workflow.save_template",
		attribute.String(otelhelper.CallerIDKey, caller),
		attribute.String(otelhelper.WorkflowIDKey, id),
		attribute.String(otelhelper.ServiceKey, string(input.Service)))
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	input.Channels = dedupe(input.Channels)

	var action connectors.Action

	if input.Execute {
		var err error

		action, err = s.connectorAction(ctx, op, input)
		if err != nil {
			return nil, s.fail(ctx, span, op, err)
		}
	}

	var workflow *models.Workflow

	err := s.persistence.Transaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		var err error

		workflow, err = s.loadAuthorized(ctx, repos, authz.UpdateWorkflow, id, caller)
		if err != nil {
			return err
		}

		err = applyTemplate(op, &workflow.Templates, input)
		if err != nil {
			return err
		}

		workflow.UpdatedAt = s.now()

		return repos.Workflows().Save(ctx, workflow)
	})
	if err != nil {
		return nil, s.fail(ctx, span, op, err, "workflow_id", id)
	}

	s.publish(ctx, workflow.ID, events.NewWorkflowChanged(events.WorkflowUpdatedEvent, caller, workflow))

	if action != nil {
		content, err := template.Render(input.Content, template.Data{
			Workflow: workflow,
			Service:  input.Service,
			Channels: input.Channels,
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to render connector content", "workflow_id", id, "error", err)

			return workflow, nil
		}

		s.execute(ctx, id, input.Service, action, connectors.Request{
			AccessToken: input.AccessToken,
			Content:     content,
			Channels:    input.Channels,
			Config:      input.Config,
		})
	}

	return workflow, nil
}

// connectorAction resolves the action that runs after the save. The action id comes from
// input.Action, else from config.action, else the service default. A nil action with a nil
// error means nothing runs: connectors are disabled or the service has no actions.
func (s *Workflow) connectorAction(ctx context.Context, op string, input SaveTemplateInput) (connectors.Action, error) {
	if s.connectors == nil {
		s.logger.DebugContext(ctx, "connector execution disabled, saving template only", "service", input.Service)

		return nil, nil
	}

	if !s.connectors.Supports(input.Service) {
		s.logger.DebugContext(ctx, "no connector action for service, saving template only", "service", input.Service)

		return nil, nil
	}

	actionID := input.Action
	if actionID == "" {
		actionID, _ = input.Config["action"].(string)
	}

	action, err := s.connectors.Lookup(input.Service, actionID)
	if errors.Is(err, connectors.ErrActionNotRegistered) {
		return nil, NewValidationError(op, "UNKNOWN_ACTION", err.Error())
	}

	if err != nil {
		return nil, err
	}

	err = connectors.Validate(action, input.Config)
	if err != nil {
		return nil, NewValidationError(op, "INVALID_CONFIG", err.Error())
	}

	err = template.Validate(input.Content)
	if err != nil {
		return nil, NewValidationError(op, "INVALID_TEMPLATE", err.Error())
	}

	return action, nil
}

// execute runs action detached from the request. Its failure is logged and never reported
// to the caller.
func (s *Workflow) execute(ctx context.Context, workflowID string, service models.ServiceType, action connectors.Action, req connectors.Request) {
	ctx = context.WithoutCancel(ctx)
	logger := s.logger.With("workflow_id", workflowID, "service", service, "action", action.ID())

	s.running.Add(1)

	go func() {
		defer s.running.Done()

		ctx, cancel := context.WithTimeout(ctx, s.connectorTimeout)
		defer cancel()

		ctx, span := otelhelper.StartSpan(ctx, s.tracer, "services.workflow.connector",
			attribute.String(otelhelper.WorkflowIDKey, workflowID),
			attribute.String(otelhelper.ServiceKey, string(service)))
		defer span.End()

		_, err := action.Execute(ctx, req)
		if err != nil {
			otelhelper.SetError(span, err)
			logger.ErrorContext(ctx, "connector action failed", "error", err)

			return
		}

		logger.InfoContext(ctx, "connector action executed")
	}()
}

func applyTemplate(op string, templates *models.Templates, input SaveTemplateInput) error {
	switch input.Service {
	case models.ServiceDiscord:
		templates.Discord = input.Content
	case models.ServiceSlack:
		templates.Slack = input.Content
		templates.SlackChannels = input.Channels
	case models.ServiceNotion:
		templates.Notion = input.Content
		templates.NotionDBID = input.NotionDBID
	case models.ServiceEmail:
		templates.Email = input.Content
		templates.EmailConfig = input.Config
	case models.ServiceGitHub:
		templates.GitHub = input.Content
		templates.GitHubConfig = input.Config
	default:
		return NewValidationError(op, "UNSUPPORTED_SERVICE", "service "+string(input.Service)+" has no template")
	}

	return nil
}

// dedupe drops blank and repeated entries, keeping first-seen order.
func dedupe(values []string) []string {
	if values == nil {
		return nil
	}

	out := make([]string, 0, len(values))

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}

	return out
}
