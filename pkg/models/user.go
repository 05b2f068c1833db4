package models

import "time"

// NotificationTeamInvite is sent to a user added to a team.
const NotificationTeamInvite = "team-invite"

// User is the local profile of an identity-provider account, keyed by its stable ID.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	ProfileImage string    `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Notification is an in-app message addressed to a user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
