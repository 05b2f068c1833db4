// Package prompt extracts workflow intent from a natural-language description.
package prompt

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dukex/fuzzie/pkg/models"
)

// DefaultName is used when the prompt does not name the workflow.
const DefaultName = "AI Generated Workflow"

var namePattern = regexp.MustCompile(`(?i)(?:create|build) a workflow (?:that|to|which) (.*?)(?:\.|\n|$)`)

// catalogEntry maps a service to the phrase that mentions it in free text.
type catalogEntry struct {
	Service models.ServiceType
	Phrase  string
}

var catalog = []catalogEntry{
	{models.ServiceGitHub, "github"},
	{models.ServiceSlack, "slack"},
	{models.ServiceDiscord, "discord"},
	{models.ServiceEmail, "email"},
	{models.ServiceGoogleDrive, "google drive"},
	{models.ServiceGoogleCalendar, "google calendar"},
	{models.ServiceNotion, "notion"},
	{models.ServiceWebhook, "webhook"},
}

// WorkflowInfo is the intent extracted from a prompt.
type WorkflowInfo struct {
	Name              string               `json:"name"`
	Description       string               `json:"description"`
	Trigger           models.ServiceType   `json:"trigger"`
	Actions           []models.ServiceType `json:"actions"`
	ServicesMentioned []models.ServiceType `json:"services_mentioned"`
}

// Mentions reports whether the service was detected in the prompt.
func (w WorkflowInfo) Mentions(service models.ServiceType) bool {
	return slices.Contains(w.ServicesMentioned, service)
}

// Analyze turns a prompt into a WorkflowInfo. It never fails: a prompt that matches no
// rule yields a manual trigger with no actions.
func Analyze(text string) WorkflowInfo {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	info := WorkflowInfo{
		Name:        DefaultName,
		Description: text,
		Trigger:     models.ServiceManual,
		Actions:     []models.ServiceType{},
	}

	if match := namePattern.FindStringSubmatch(text); match != nil {
		if clause := strings.TrimSpace(match[1]); clause != "" {
			info.Name = capitalize(clause)
		}
	}

	info.ServicesMentioned = detectServices(lower)

	trigger, actions := DefaultRules().Resolve(info, lower)
	info.Trigger = trigger
	info.Actions = actions

	return info
}

func detectServices(lower string) []models.ServiceType {
	services := make([]models.ServiceType, 0, len(catalog))

	for _, entry := range catalog {
		if strings.Contains(lower, entry.Phrase) {
			services = append(services, entry.Service)
		}
	}

	return services
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}
