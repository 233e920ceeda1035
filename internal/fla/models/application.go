package models

import (
	"time"

	id "coppice/pkg/domain"
)

// Application is the felling licence application aggregate root. It owns its
// status history, assignee history and public register record exclusively;
// children carry the application id rather than a live back-pointer.
type Application struct {
	ID              id.ApplicationID
	CaseReference   string
	WoodlandOwnerID id.UserID
	CreatedByID     id.UserID
	DateReceived    time.Time
	FinalActionDate time.Time

	// StatusHistory is append-only and totally ordered by Created. Entries
	// are never mutated or deleted.
	StatusHistory []StatusHistoryEntry

	// AssigneeHistory is append-only; reassignment closes the previous
	// entry by setting UnassignedAt, never deletes it.
	AssigneeHistory []AssigneeHistoryEntry

	// PublicRegister is nil until the application first reaches a
	// register-relevant status.
	PublicRegister *PublicRegisterRecord
}

// StatusHistoryEntry records one status transition. Created once, immutable
// thereafter.
type StatusHistoryEntry struct {
	ApplicationID id.ApplicationID
	Status        Status
	Created       time.Time
	CreatedByID   id.UserID
}

// AssigneeHistoryEntry records one role assignment. The active assignee for
// a role is the entry with no UnassignedAt.
type AssigneeHistoryEntry struct {
	ApplicationID id.ApplicationID
	Role          Role
	UserID        id.UserID
	AssignedAt    time.Time
	UnassignedAt  *time.Time
}

// Active reports whether this assignment is still open.
func (e AssigneeHistoryEntry) Active() bool { return e.UnassignedAt == nil }

// CurrentStatus derives the current status from the newest history entry.
// A freshly constructed aggregate with no history reports Draft.
func (a *Application) CurrentStatus() Status {
	entry, ok := a.latestStatusEntry()
	if !ok {
		return StatusDraft
	}
	return entry.Status
}

func (a *Application) latestStatusEntry() (StatusHistoryEntry, bool) {
	var latest StatusHistoryEntry
	found := false
	for _, e := range a.StatusHistory {
		if !found || e.Created.After(latest.Created) {
			latest = e
			found = true
		}
	}
	return latest, found
}

// StatusBeforeCurrent scans the log for the newest entry older than the
// current one whose status satisfies the predicate. Used to pick the review
// stage a SentForApproval case returns to, and the status a withdrawn case
// reverts to.
func (a *Application) StatusBeforeCurrent(match func(Status) bool) (Status, bool) {
	current, ok := a.latestStatusEntry()
	if !ok {
		return "", false
	}
	var best StatusHistoryEntry
	found := false
	for _, e := range a.StatusHistory {
		if !e.Created.Before(current.Created) {
			continue
		}
		if !match(e.Status) {
			continue
		}
		if !found || e.Created.After(best.Created) {
			best = e
			found = true
		}
	}
	return best.Status, found
}

// ActiveAssignee returns the user holding the open assignment for the role.
func (a *Application) ActiveAssignee(role Role) (id.UserID, bool) {
	for _, e := range a.AssigneeHistory {
		if e.Role == role && e.Active() {
			return e.UserID, true
		}
	}
	return id.UserID{}, false
}

// AssignedStaff returns every internal staff member with an open assignment,
// de-duplicated, in first-assignment order.
func (a *Application) AssignedStaff() []id.UserID {
	seen := make(map[id.UserID]bool)
	var staff []id.UserID
	for _, e := range a.AssigneeHistory {
		if !e.Active() || !e.Role.IsInternal() {
			continue
		}
		if seen[e.UserID] {
			continue
		}
		seen[e.UserID] = true
		staff = append(staff, e.UserID)
	}
	return staff
}
