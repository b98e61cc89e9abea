package session

import (
	"context"
	"fmt"
)

// Status is the state of a tunnel session.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusDisconnecting
	StatusReasserting
)

var statusNames = map[Status]string{
	StatusDisconnected:  "disconnected",
	StatusConnecting:    "connecting",
	StatusConnected:     "connected",
	StatusDisconnecting: "disconnecting",
	StatusReasserting:   "reasserting",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus maps a status name back to its value.
func ParseStatus(name string) (Status, error) {
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown session status %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Session is a live tunnel session that can be stopped and started again.
type Session interface {
	// Status returns the current status.
	Status() Status
	// Stop asks the session to disconnect and returns immediately.
	Stop()
	// Start starts the session and waits until it is connected, fails or ctx is done.
	Start(ctx context.Context) error
	// Subscribe returns a channel receiving status transitions and a function
	// that ends the subscription. Slow readers only see the latest status.
	Subscribe() (<-chan Status, func())
}
