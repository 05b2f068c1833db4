package models

// ServiceType identifies the external service a node talks to.
type ServiceType string

const (
	ServiceGitHub         ServiceType = "GitHub"
	ServiceSlack          ServiceType = "Slack"
	ServiceDiscord        ServiceType = "Discord"
	ServiceEmail          ServiceType = "Email"
	ServiceGoogleDrive    ServiceType = "GoogleDrive"
	ServiceGoogleCalendar ServiceType = "GoogleCalendar"
	ServiceNotion         ServiceType = "Notion"
	ServiceWebhook        ServiceType = "Webhook"
	ServiceManual         ServiceType = "Manual"
)

var serviceDisplayNames = map[ServiceType]string{
	ServiceGitHub:         "GitHub",
	ServiceSlack:          "Slack",
	ServiceDiscord:        "Discord",
	ServiceEmail:          "Email",
	ServiceGoogleDrive:    "Google Drive",
	ServiceGoogleCalendar: "Google Calendar",
	ServiceNotion:         "Notion",
	ServiceWebhook:        "Webhook",
	ServiceManual:         "Manual",
}

// ServiceTypes lists every known service in catalog order.
func ServiceTypes() []ServiceType {
	return []ServiceType{
		ServiceGitHub,
		ServiceSlack,
		ServiceDiscord,
		ServiceEmail,
		ServiceGoogleDrive,
		ServiceGoogleCalendar,
		ServiceNotion,
		ServiceWebhook,
		ServiceManual,
	}
}

// IsValid reports whether s is one of the known service types.
func (s ServiceType) IsValid() bool {
	_, ok := serviceDisplayNames[s]

	return ok
}

// DisplayName returns the human readable name, e.g. "Google Drive".
func (s ServiceType) DisplayName() string {
	if name, ok := serviceDisplayNames[s]; ok {
		return name
	}

	return string(s)
}
