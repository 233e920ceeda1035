// Package users exposes the account directory the workflow resolves
// recipients and account types from. Identity management itself lives in an
// external system; this package only defines the contract and an in-memory
// implementation for tests and local development.
package users

import (
	"context"
	"sync"

	id "coppice/pkg/domain"
	"coppice/pkg/platform/sentinel"
)

// AccountType classifies a directory account.
type AccountType string

const (
	AccountExternalApplicant    AccountType = "ExternalApplicant"
	AccountWoodlandOwner        AccountType = "WoodlandOwner"
	AccountInternalUser         AccountType = "InternalUser"
	AccountAccountAdministrator AccountType = "AccountAdministrator"
)

// User is the directory's view of an account.
type User struct {
	ID          id.UserID
	FirstName   string
	LastName    string
	Email       string
	AccountType AccountType
}

// Directory resolves accounts by id.
type Directory interface {
	Get(ctx context.Context, userID id.UserID) (User, error)
	// GetMany resolves a set of ids, skipping unknown ones rather than
	// failing the batch.
	GetMany(ctx context.Context, userIDs []id.UserID) ([]User, error)
}

// InMemoryDirectory is a map-backed Directory.
type InMemoryDirectory struct {
	mu    sync.RWMutex
	users map[id.UserID]User
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{users: make(map[id.UserID]User)}
}

func (d *InMemoryDirectory) Put(user User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user
}

func (d *InMemoryDirectory) Get(_ context.Context, userID id.UserID) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.users[userID]
	if !ok {
		return User{}, sentinel.ErrNotFound
	}
	return user, nil
}

func (d *InMemoryDirectory) GetMany(_ context.Context, userIDs []id.UserID) ([]User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]User, 0, len(userIDs))
	for _, uid := range userIDs {
		if user, ok := d.users[uid]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}
