package prompt

import (
	"strings"

	"github.com/dukex/fuzzie/pkg/models"
)

// Rule is one row of the intent table: when Match holds, the prompt resolves to Trigger
// and the actions returned by Actions.
type Rule struct {
	Name    string
	Match   func(info WorkflowInfo, lower string) bool
	Trigger models.ServiceType
	Actions func(info WorkflowInfo) []models.ServiceType
}

// Rules is evaluated in order; the first matching rule wins.
type Rules []Rule

// Resolve returns the trigger and actions of the first matching rule, or a manual
// trigger with no actions.
func (rs Rules) Resolve(info WorkflowInfo, lower string) (models.ServiceType, []models.ServiceType) {
	for _, rule := range rs {
		if rule.Match(info, lower) {
			return rule.Trigger, rule.Actions(info)
		}
	}

	return models.ServiceManual, []models.ServiceType{}
}

func containsAny(lower string, phrases ...string) bool {
	for _, phrase := range phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	return false
}

func fixed(services ...models.ServiceType) func(WorkflowInfo) []models.ServiceType {
	return func(WorkflowInfo) []models.ServiceType {
		return append([]models.ServiceType{}, services...)
	}
}

// DefaultRules returns the intent table. Order is part of the contract.
func DefaultRules() Rules {
	return Rules{
		{
			Name: "github-issues-to-slack",
			Match: func(info WorkflowInfo, lower string) bool {
				return info.Mentions(models.ServiceGitHub) && containsAny(lower, "new issue", "issues")
			},
			Trigger: models.ServiceGitHub,
			Actions: fixed(models.ServiceSlack),
		},
		{
			Name: "calendar-to-email",
			Match: func(info WorkflowInfo, lower string) bool {
				return info.Mentions(models.ServiceGoogleCalendar) && strings.Contains(lower, "calendar")
			},
			Trigger: models.ServiceGoogleCalendar,
			Actions: fixed(models.ServiceEmail),
		},
		{
			Name: "email-to-drive",
			Match: func(info WorkflowInfo, lower string) bool {
				return info.Mentions(models.ServiceEmail) && strings.Contains(lower, "email")
			},
			Trigger: models.ServiceEmail,
			Actions: func(info WorkflowInfo) []models.ServiceType {
				if info.Mentions(models.ServiceGoogleDrive) {
					return []models.ServiceType{models.ServiceGoogleDrive}
				}

				return []models.ServiceType{}
			},
		},
		{
			Name: "github-pull-requests-to-chat",
			Match: func(info WorkflowInfo, lower string) bool {
				return info.Mentions(models.ServiceGitHub) && containsAny(lower, "pr", "pull request")
			},
			Trigger: models.ServiceGitHub,
			Actions: func(info WorkflowInfo) []models.ServiceType {
				if info.Mentions(models.ServiceDiscord) {
					return []models.ServiceType{models.ServiceDiscord}
				}

				return []models.ServiceType{models.ServiceSlack}
			},
		},
	}
}
