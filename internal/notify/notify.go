// Package notify abstracts the local notification surface and its
// permission model.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alvasen/sophamtning-ale/internal/store"
)

// Notification is one reminder to show the user. Tag dedups at the surface:
// repeated sends with the same tag replace each other instead of stacking.
type Notification struct {
	Title string
	Body  string
	Icon  string
	Tag   string
	URL   string // navigation target when the notification is clicked
}

// Notifier delivers notifications.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Permission states for the notification surface.
const (
	PermissionDefault = "default"
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
)

const permissionKey = "ale-waste-notify-permission"

// ErrInvalidPermission is returned for states outside the known three.
var ErrInvalidPermission = errors.New("notify: invalid permission state")

// Permissions persists the user's notification permission decision.
type Permissions struct {
	kv store.KV
}

func NewPermissions(kv store.KV) *Permissions {
	return &Permissions{kv: kv}
}

// Get returns the stored permission state, defaulting to "default".
func (p *Permissions) Get(ctx context.Context) (string, error) {
	state, err := p.kv.Get(ctx, permissionKey)
	if errors.Is(err, store.ErrNotFound) {
		return PermissionDefault, nil
	}
	if err != nil {
		return "", err
	}
	return state, nil
}

// Set stores a permission state.
func (p *Permissions) Set(ctx context.Context, state string) error {
	switch state {
	case PermissionDefault, PermissionGranted, PermissionDenied:
		return p.kv.Set(ctx, permissionKey, state, 0)
	default:
		return ErrInvalidPermission
	}
}

// Log is a Notifier that only logs. Used when no Pushover credentials are
// configured, and in tests.
type Log struct{}

func (Log) Send(ctx context.Context, n Notification) error {
	slog.Info("notification", "title", n.Title, "body", n.Body, "tag", n.Tag)
	return nil
}
