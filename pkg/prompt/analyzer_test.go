package prompt

import (
	"testing"

	"github.com/dukex/fuzzie/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestAnalyze_TriggerAndActions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		prompt      string
		wantTrigger models.ServiceType
		wantActions []models.ServiceType
	}{
		{
			name:        "github issues go to slack",
			prompt:      "Create a workflow that posts new GitHub issues to a Slack channel",
			wantTrigger: models.ServiceGitHub,
			wantActions: []models.ServiceType{models.ServiceSlack},
		},
		{
			name:        "github issues ignore discord",
			prompt:      "Send GitHub issues to Discord",
			wantTrigger: models.ServiceGitHub,
			wantActions: []models.ServiceType{models.ServiceSlack},
		},
		{
			name:        "calendar events send email",
			prompt:      "Send an email when my Google Calendar has an event",
			wantTrigger: models.ServiceGoogleCalendar,
			wantActions: []models.ServiceType{models.ServiceEmail},
		},
		{
			name:        "email attachments saved to drive",
			prompt:      "Save email attachments to Google Drive",
			wantTrigger: models.ServiceEmail,
			wantActions: []models.ServiceType{models.ServiceGoogleDrive},
		},
		{
			name:        "email without drive has no action",
			prompt:      "Forward every email to my inbox",
			wantTrigger: models.ServiceEmail,
			wantActions: []models.ServiceType{},
		},
		{
			name:        "pull requests go to discord when mentioned",
			prompt:      "Notify Discord about GitHub pull requests",
			wantTrigger: models.ServiceGitHub,
			wantActions: []models.ServiceType{models.ServiceDiscord},
		},
		{
			name:        "pull requests default to slack",
			prompt:      "Announce GitHub PR merges",
			wantTrigger: models.ServiceGitHub,
			wantActions: []models.ServiceType{models.ServiceSlack},
		},
		{
			name:        "no rule falls back to manual",
			prompt:      "Water the plants on Sunday",
			wantTrigger: models.ServiceManual,
			wantActions: []models.ServiceType{},
		},
		{
			name:        "services without a rule fall back to manual",
			prompt:      "Copy Notion pages to a custom webhook",
			wantTrigger: models.ServiceManual,
			wantActions: []models.ServiceType{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info := Analyze(tt.prompt)
			assert.Equal(t, tt.wantTrigger, info.Trigger)
			assert.Equal(t, tt.wantActions, info.Actions)
		})
	}
}

func TestAnalyze_RuleOrderWins(t *testing.T) {
	t.Parallel()

	// Matches the issues rule and the pull request rule; the issues rule comes first.
	info := Analyze("When a GitHub PR or new issue is opened, ping Discord")

	assert.Equal(t, models.ServiceGitHub, info.Trigger)
	assert.Equal(t, []models.ServiceType{models.ServiceSlack}, info.Actions)

	// Matches the calendar rule and the email rule; the calendar rule comes first.
	info = Analyze("Email me and save to Google Drive whenever Google Calendar changes")

	assert.Equal(t, models.ServiceGoogleCalendar, info.Trigger)
	assert.Equal(t, []models.ServiceType{models.ServiceEmail}, info.Actions)
}

func TestAnalyze_ReorderedRulesChangeOutcome(t *testing.T) {
	t.Parallel()

	rules := DefaultRules()
	reordered := Rules{rules[3], rules[0], rules[1], rules[2]}

	lower := "when a github pr or new issue is opened, ping discord"
	info := WorkflowInfo{ServicesMentioned: detectServices(lower)}

	trigger, actions := rules.Resolve(info, lower)
	assert.Equal(t, models.ServiceGitHub, trigger)
	assert.Equal(t, []models.ServiceType{models.ServiceSlack}, actions)

	trigger, actions = reordered.Resolve(info, lower)
	assert.Equal(t, models.ServiceGitHub, trigger)
	assert.Equal(t, []models.ServiceType{models.ServiceDiscord}, actions)
}

func TestAnalyze_Name(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		prompt          string
		wantName        string
		wantDescription string
	}{
		{
			name:            "create that",
			prompt:          "Create a workflow that posts new GitHub issues to a Slack channel",
			wantName:        "Posts new GitHub issues to a Slack channel",
			wantDescription: "Create a workflow that posts new GitHub issues to a Slack channel",
		},
		{
			name:            "build which stops at sentence end",
			prompt:          "Build a workflow which syncs Notion pages. It should run daily.",
			wantName:        "Syncs Notion pages",
			wantDescription: "Build a workflow which syncs Notion pages. It should run daily.",
		},
		{
			name:            "case insensitive",
			prompt:          "CREATE A WORKFLOW TO archive email",
			wantName:        "Archive email",
			wantDescription: "CREATE A WORKFLOW TO archive email",
		},
		{
			name:            "no pattern uses placeholder",
			prompt:          "post slack messages",
			wantName:        DefaultName,
			wantDescription: "post slack messages",
		},
		{
			name:            "empty clause uses placeholder",
			prompt:          "create a workflow that .",
			wantName:        DefaultName,
			wantDescription: "create a workflow that .",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info := Analyze(tt.prompt)
			assert.Equal(t, tt.wantName, info.Name)
			assert.Equal(t, tt.wantDescription, info.Description)
		})
	}
}

func TestAnalyze_ServicesMentioned(t *testing.T) {
	t.Parallel()

	info := Analyze("github SLACK Discord email Google Drive google calendar Notion custom webhook")

	assert.Equal(t, []models.ServiceType{
		models.ServiceGitHub,
		models.ServiceSlack,
		models.ServiceDiscord,
		models.ServiceEmail,
		models.ServiceGoogleDrive,
		models.ServiceGoogleCalendar,
		models.ServiceNotion,
		models.ServiceWebhook,
	}, info.ServicesMentioned)

	assert.Empty(t, Analyze("nothing to see").ServicesMentioned)
}
