// Package activities follows the current KDE activity over the D-Bus session
// bus.
package activities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	Service                    = "org.kde.ActivityManager"
	ObjectPath dbus.ObjectPath = "/ActivityManager/Activities"
	Interface                  = "org.kde.ActivityManager.Activities"

	currentActivityMethod = Interface + ".CurrentActivity"
	changedMember         = "CurrentActivityChanged"
)

// ErrClosed is returned by Watch when the bus connection goes away.
var ErrClosed = errors.New("activity manager connection closed")

// Source reports the current activity and its changes.
type Source interface {
	Current(ctx context.Context) (string, error)
	Watch(ctx context.Context, fn func(current string)) error
	Close() error
}

// Manager talks to the KDE activity manager.
type Manager struct {
	conn   *dbus.Conn
	obj    dbus.BusObject
	logger *slog.Logger
}

// Connect opens a private session bus connection and checks that the
// activity manager answers.
func Connect(ctx context.Context, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	m := &Manager{
		conn:   conn,
		obj:    conn.Object(Service, ObjectPath),
		logger: logger,
	}
	if _, err := m.Current(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("activity manager unavailable: %w", err)
	}
	return m, nil
}

// Current returns the id of the current activity.
func (m *Manager) Current(ctx context.Context) (string, error) {
	var id string
	if err := m.obj.CallWithContext(ctx, currentActivityMethod, 0).Store(&id); err != nil {
		return "", fmt.Errorf("CurrentActivity failed: %w", err)
	}
	return id, nil
}

// Watch calls fn with the new activity id on every change until ctx is
// cancelled.
func (m *Manager) Watch(ctx context.Context, fn func(current string)) error {
	err := m.conn.AddMatchSignalContext(ctx,
		dbus.WithMatchObjectPath(ObjectPath),
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchMember(changedMember),
	)
	if err != nil {
		return fmt.Errorf("failed to add match rule: %w", err)
	}

	ch := make(chan *dbus.Signal, 16)
	m.conn.Signal(ch)
	defer m.conn.RemoveSignal(ch)

	m.logger.Debug("watching activity changes")
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-ch:
			if !ok {
				return ErrClosed
			}
			if id, ok := activityFromSignal(sig); ok {
				m.logger.Debug("current activity changed", "activity", id)
				fn(id)
			}
		}
	}
}

// Close closes the bus connection.
func (m *Manager) Close() error {
	return m.conn.Close()
}

func activityFromSignal(sig *dbus.Signal) (string, bool) {
	if sig == nil || sig.Path != ObjectPath || sig.Name != Interface+"."+changedMember {
		return "", false
	}
	if len(sig.Body) < 1 {
		return "", false
	}
	id, ok := sig.Body[0].(string)
	return id, ok && id != ""
}

// None is a Source for sessions without activities. Views then do not
// filter by activity.
type None struct{}

func (None) Current(context.Context) (string, error) { return "", nil }

func (None) Watch(ctx context.Context, _ func(string)) error {
	<-ctx.Done()
	return nil
}

func (None) Close() error { return nil }

// Mode selects how the activity source is chosen.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeKDE  Mode = "kde"
	ModeNone Mode = "none"
)

// Open returns the source for mode. In auto mode a missing bus or activity
// manager falls back to None.
func Open(ctx context.Context, mode Mode, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch mode {
	case ModeNone:
		return None{}, nil
	case ModeKDE:
		return Connect(ctx, logger)
	case ModeAuto, "":
		m, err := Connect(ctx, logger)
		if err != nil {
			logger.Info("activities disabled", "reason", err)
			return None{}, nil
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown activities mode %q", mode)
	}
}
