package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a registered identity. PasswordHash and the OTP fields
// never leave the server.
type User struct {
	ID           uuid.UUID
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	FocusPeaks   []string
	OTPHash      *string
	OTPExpiresAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasActiveChallenge reports whether an unexpired OTP challenge is set at now.
func (u User) HasActiveChallenge(now time.Time) bool {
	return u.OTPHash != nil && u.OTPExpiresAt != nil && now.Before(*u.OTPExpiresAt)
}

// Priority of a task
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Status of a task
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// CognitiveLoad is a coarse estimate of the mental effort a task needs.
type CognitiveLoad string

const (
	LoadLow    CognitiveLoad = "Low"
	LoadMedium CognitiveLoad = "Medium"
	LoadHigh   CognitiveLoad = "High"
)

func (c CognitiveLoad) Valid() bool {
	switch c {
	case LoadLow, LoadMedium, LoadHigh:
		return true
	}
	return false
}

// ParseCognitiveLoad maps a case-insensitive label onto its canonical value.
func ParseCognitiveLoad(s string) (CognitiveLoad, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return LoadLow, true
	case "medium":
		return LoadMedium, true
	case "high":
		return LoadHigh, true
	}
	return "", false
}

// Task represents a task owned by a single user
type Task struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Title           string
	Description     string
	StartDate       *time.Time
	EndDate         *time.Time
	DueDate         *time.Time
	Priority        Priority
	Status          Status
	CognitiveLoad   *CognitiveLoad
	FocusSlot       *string
	RescheduleCount int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
