package models

import "time"

// Habit is the authoritative habit record owned by the API server.
// Clients hold transient copies; CurrentStreak is a cache of the value derived
// from CompletionHistory and is recomputed on every read.
type Habit struct {
	ID                string     `json:"_id" yaml:"id"`
	Title             string     `json:"title" yaml:"title"`
	Description       string     `json:"description" yaml:"description"`
	Category          string     `json:"category" yaml:"category"`
	ReminderTime      string     `json:"reminderTime" yaml:"reminder_time"`
	ImageURL          string     `json:"imageUrl" yaml:"image_url"`
	OwnerEmail        string     `json:"userEmail" yaml:"owner_email"`
	OwnerName         string     `json:"userName" yaml:"owner_name"`
	IsPublic          bool       `json:"isPublic" yaml:"is_public"`
	CompletionHistory []string   `json:"completionHistory" yaml:"completion_history"` // YYYY-MM-DD
	CurrentStreak     int        `json:"currentStreak" yaml:"current_streak"`
	CreatedAt         time.Time  `json:"createdAt" yaml:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" yaml:"updated_at"`
	DeletedAt         *time.Time `json:"deletedAt,omitempty" yaml:"deleted_at,omitempty"`
}

// HabitInput carries the editable fields of a habit on create and update.
type HabitInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	ReminderTime string `json:"reminderTime"`
	ImageURL     string `json:"imageUrl"`
	IsPublic     *bool  `json:"isPublic,omitempty"`
}

// Apply copies the editable fields onto h. IsPublic is only changed when set.
func (in HabitInput) Apply(h *Habit) {
	h.Title = in.Title
	h.Description = in.Description
	h.Category = in.Category
	h.ReminderTime = in.ReminderTime
	h.ImageURL = in.ImageURL
	if in.IsPublic != nil {
		h.IsPublic = *in.IsPublic
	}
}

// HabitFilter narrows the public habit listing.
type HabitFilter struct {
	Search   string
	Category string
	Limit    int
}

// CompletionRequest is the body of a completion call. Date is optional; when
// present it must match the server's calendar day.
type CompletionRequest struct {
	HabitID string `json:"habitId,omitempty"`
	Date    string `json:"date,omitempty"`
}
