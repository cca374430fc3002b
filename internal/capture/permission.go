package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrPermissionDenied = errors.New("camera permission denied")

type AuthorizationStatus int

const (
	NotDetermined AuthorizationStatus = iota
	Authorized
	Denied
	Restricted
)

func (s AuthorizationStatus) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	case Restricted:
		return "restricted"
	default:
		return "not-determined"
	}
}

func ParseAuthorizationStatus(s string) (AuthorizationStatus, error) {
	switch strings.ToLower(s) {
	case "authorized", "granted":
		return Authorized, nil
	case "denied":
		return Denied, nil
	case "restricted":
		return Restricted, nil
	case "", "prompt", "not-determined":
		return NotDetermined, nil
	}
	return NotDetermined, fmt.Errorf("unknown permission %q", s)
}

// Authorizer reports and requests camera access. RequestAccess may block
// until the user answers.
type Authorizer interface {
	Status() AuthorizationStatus
	RequestAccess(ctx context.Context) (bool, error)
}

// StaticAuthorizer answers with a fixed status.
type StaticAuthorizer struct {
	State AuthorizationStatus
}

func (a StaticAuthorizer) Status() AuthorizationStatus { return a.State }

func (a StaticAuthorizer) RequestAccess(ctx context.Context) (bool, error) {
	return a.State == Authorized, nil
}

// Asker poses a yes/no question to the user and returns the raw answer.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// PromptAuthorizer asks the user once and remembers the answer.
type PromptAuthorizer struct {
	Asker Asker

	mu     sync.Mutex
	status AuthorizationStatus
}

func (a *PromptAuthorizer) Status() AuthorizationStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *PromptAuthorizer) RequestAccess(ctx context.Context) (bool, error) {
	answer, err := a.Asker.Ask(ctx, "Allow TextScope to use the camera? [y/N]")
	if err != nil {
		return false, fmt.Errorf("asking for camera permission: %w", err)
	}
	granted := isYes(answer)

	a.mu.Lock()
	if granted {
		a.status = Authorized
	} else {
		a.status = Denied
	}
	a.mu.Unlock()
	return granted, nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
