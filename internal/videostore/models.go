package videostore

import (
	"strings"
	"time"
)

// Status represents the processing lifecycle of a video record.
type Status string

const (
	StatusPending      Status = "pending"
	StatusTranscribing Status = "transcribing"
	StatusReady        Status = "ready"
	StatusError        Status = "error"
)

var allStatuses = []Status{
	StatusPending,
	StatusTranscribing,
	StatusReady,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusReady || s == StatusError
}

// CanTransition reports whether moving from one status to another is legal.
// Terminal statuses accept nothing; error is reachable from any live status;
// repeating the current status is a permitted no-op for redelivered events.
func CanTransition(from, to Status) bool {
	if from == to {
		return !from.IsTerminal()
	}
	if from.IsTerminal() {
		return false
	}
	if to == StatusError {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusTranscribing || to == StatusReady
	case StatusTranscribing:
		return to == StatusReady
	default:
		return false
	}
}

// Layout identifies which record shape holds a video.
type Layout string

const (
	// LayoutWeek stores the video inside a week aggregate's videos array.
	LayoutWeek Layout = "week"
	// LayoutUser stores the video as a standalone per-user document.
	LayoutUser Layout = "user"
)

// Ref addresses one video record in either layout.
type Ref struct {
	Layout  Layout
	WeekID  string
	UserID  string
	VideoID string
}

// VideoRecord is the unit of work the ingest pipeline drives.
// JSON tags match the document shape embedded in week aggregates.
type VideoRecord struct {
	ID               string    `json:"id"`
	OwnerUserID      string    `json:"ownerUserId,omitempty"`
	WeekID           string    `json:"weekId,omitempty"`
	SourceObjectPath string    `json:"sourceObjectPath,omitempty"`
	Title            string    `json:"title,omitempty"`
	Visibility       string    `json:"visibility,omitempty"`
	DurationSeconds  float64   `json:"durationSeconds"`
	ThumbnailURL     string    `json:"thumbnailUrl,omitempty"`
	Transcript       string    `json:"transcript,omitempty"`
	Status           Status    `json:"processingStatus"`
	LastError        string    `json:"lastError,omitempty"`
	RetryCount       int       `json:"retryCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Ref returns the address of this record based on which parent it belongs to.
func (v *VideoRecord) Ref() Ref {
	if v.WeekID != "" {
		return Ref{Layout: LayoutWeek, WeekID: v.WeekID, VideoID: v.ID}
	}
	return Ref{Layout: LayoutUser, UserID: v.OwnerUserID, VideoID: v.ID}
}

// FieldPatch describes a partial-field merge. Nil fields are left untouched.
type FieldPatch struct {
	Status          *Status
	Title           *string
	Visibility      *string
	DurationSeconds *float64
	ThumbnailURL    *string
	Transcript      *string
	LastError       *string
	RetryCount      *int
}

// IsZero reports whether the patch changes nothing.
func (p FieldPatch) IsZero() bool {
	return p.Status == nil && p.Title == nil && p.Visibility == nil &&
		p.DurationSeconds == nil && p.ThumbnailURL == nil && p.Transcript == nil &&
		p.LastError == nil && p.RetryCount == nil
}

// HealthSummary describes aggregated record counts per lifecycle state.
type HealthSummary struct {
	Total        int
	Pending      int
	Transcribing int
	Ready        int
	Errored      int
}
