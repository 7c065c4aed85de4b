package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/vigil/internal/kvstore"
	"github.com/julianstephens/vigil/internal/logger"
)

// Prompter asks the user a yes/no question.
type Prompter interface {
	Confirm(ctx context.Context, title, description string) (bool, error)
}

// Authorizer persists a permission decision in the shared store so every
// process sees the same answer.
type Authorizer struct {
	store       kvstore.Store
	key         string
	prompter    Prompter
	title       string
	description string
}

// NewAuthorizer returns an Authorizer for the permission stored at key. A nil
// prompter means the process cannot ask; undetermined requests are then
// refused without recording a decision.
func NewAuthorizer(store kvstore.Store, key string, prompter Prompter, title, description string) *Authorizer {
	return &Authorizer{store: store, key: key, prompter: prompter, title: title, description: description}
}

func (a *Authorizer) Status(ctx context.Context) (AuthStatus, error) {
	data, err := a.store.Get(ctx, a.key)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return AuthNotDetermined, nil
		}
		return AuthNotDetermined, err
	}
	status := AuthStatus(data)
	if !status.Valid() {
		logger.Warn("Ignoring unknown authorization status", "key", a.key, "value", string(data))
		return AuthNotDetermined, nil
	}
	return status, nil
}

func (a *Authorizer) Set(ctx context.Context, status AuthStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid authorization status %q", status)
	}
	if status == AuthNotDetermined {
		return a.store.Delete(ctx, a.key)
	}
	return a.store.Set(ctx, a.key, []byte(status))
}

// Request returns the recorded decision, asking first when there is none.
func (a *Authorizer) Request(ctx context.Context) (bool, error) {
	status, err := a.Status(ctx)
	if err != nil {
		return false, err
	}
	switch status {
	case AuthAuthorized:
		return true, nil
	case AuthDenied:
		return false, nil
	}

	if a.prompter == nil {
		logger.Debug("Authorization undetermined and no prompt available", "key", a.key)
		return false, nil
	}
	granted, err := a.prompter.Confirm(ctx, a.title, a.description)
	if err != nil {
		return false, fmt.Errorf("authorization prompt failed: %w", err)
	}
	status = AuthDenied
	if granted {
		status = AuthAuthorized
	}
	if err := a.Set(ctx, status); err != nil {
		return granted, err
	}
	return granted, nil
}
