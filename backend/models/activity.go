package models

import "gorm.io/gorm"

// Known activity actions. The log rejects anything outside this set.
const (
	ActionLogin          = "Login"
	ActionSignOut        = "Sign Out"
	ActionUploadedMarker = "Uploaded Marker"
	ActionDownloadedFile = "Downloaded File"
	ActionCreatedSurvey  = "Created Survey"
	ActionUpdatedSurvey  = "Updated Survey"
	ActionDeletedMarker  = "Deleted Marker"
)

var knownActions = map[string]bool{
	ActionLogin:          true,
	ActionSignOut:        true,
	ActionUploadedMarker: true,
	ActionDownloadedFile: true,
	ActionCreatedSurvey:  true,
	ActionUpdatedSurvey:  true,
	ActionDeletedMarker:  true,
}

func KnownAction(action string) bool {
	return knownActions[action]
}

// ActivityLog is an append-only audit record. The application never updates
// or deletes rows.
type ActivityLog struct {
	gorm.Model
	Username string `json:"username"`
	Email    string `gorm:"index" json:"email"`
	Action   string `gorm:"index;not null" json:"action"`
	Details  string `json:"details"`
	UserID   *uint  `json:"user_id,omitempty"`
}
