package models

import "time"

// Application is a tenant. Maps to: applications table
type Application struct {
	AppID     string    `json:"appid"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Collaborator grants roles on an application to a user.
// Maps to: app_collaborators table
type Collaborator struct {
	AppID  string   `json:"appid"`
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}
