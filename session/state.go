package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RegState is the IRC registration state of a session. It only advances
// forward (Disconnected → Registering → Registered → InChannel, with
// InChannel dropping back to Registered on part/kick); the sole regression
// is the terminal move to Disconnected.
type RegState int

const (
	StateDisconnected RegState = iota
	StateRegistering
	StateRegistered
	StateInChannel
)

var stateNames = map[RegState]string{
	StateDisconnected: "disconnected",
	StateRegistering:  "registering",
	StateRegistered:   "registered",
	StateInChannel:    "in_channel",
}

func (s RegState) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// State mutation errors. All of them are defensive: the caller logs and
// ignores, the event never mutates anything.
var (
	ErrBadTransition    = errors.New("illegal registration state transition")
	ErrUntrackedChannel = errors.New("event references a channel this session did not join")
	ErrTerminated       = errors.New("session is disconnected")
)

// Session is the root aggregate for one operator connection. It is owned
// by the session loop; all mutation happens on the loop goroutine. The
// mutex exists only so the status endpoint can take consistent snapshots.
type Session struct {
	mu sync.RWMutex

	id           string
	callsign     string
	nick         string
	channel      string
	away         string
	state        RegState
	startedAt    time.Time
	lastActivity time.Time
}

// New creates a Session for the given callsign in the Disconnected state.
func New(callsign string) *Session {
	now := time.Now()
	return &Session{
		id:           uuid.NewString(),
		callsign:     callsign,
		nick:         callsign,
		state:        StateDisconnected,
		startedAt:    now,
		lastActivity: now,
	}
}

// ID returns the session correlation ID used in log records.
func (s *Session) ID() string { return s.id }

// Callsign returns the operator identity supplied as the first input line.
func (s *Session) Callsign() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.callsign
}

// Nick returns the currently tracked IRC nickname.
func (s *Session) Nick() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nick
}

// CurrentChannel returns the joined channel, or "" when not in one.
func (s *Session) CurrentChannel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channel
}

// State returns the current registration state.
func (s *Session) State() RegState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsRegistered reports whether the server Welcome has been applied.
func (s *Session) IsRegistered() bool {
	st := s.State()
	return st == StateRegistered || st == StateInChannel
}

// Touch records operator activity.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// SetNick updates the tracked nickname. Used both for the optimistic
// /nick update and for confirmed server-side changes.
func (s *Session) SetNick(nick string) {
	s.mu.Lock()
	s.nick = nick
	s.mu.Unlock()
}

// SetAway updates the away message ("" clears it).
func (s *Session) SetAway(text string) {
	s.mu.Lock()
	s.away = text
	s.mu.Unlock()
}

// BeginRegistration moves Disconnected → Registering when the transport
// to the IRC server is up and NICK/USER are on the wire.
func (s *Session) BeginRegistration() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDisconnected {
		return ErrBadTransition
	}
	s.state = StateRegistering
	return nil
}

// ApplyEvent applies the state mutation an inbound event implies, if any.
// It must be called only from the single event-translation path. A non-nil
// error means the event is inconsistent with tracked state and must be
// ignored; the session is left untouched.
func (s *Session) ApplyEvent(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisconnected && ev.Type != EventWelcome && ev.Type != EventDisconnected {
		return ErrTerminated
	}

	switch ev.Type {
	case EventWelcome:
		if s.state != StateRegistering {
			return ErrBadTransition
		}
		s.state = StateRegistered
		if ev.Nick != "" {
			s.nick = ev.Nick
		}

	case EventJoined:
		if ev.Nick != s.nick {
			if ev.Target != s.channel {
				return ErrUntrackedChannel
			}
			return nil // another user joining our channel, no state change
		}
		if s.state != StateRegistered && s.state != StateInChannel {
			return ErrBadTransition
		}
		s.channel = ev.Target
		s.state = StateInChannel

	case EventParted:
		if ev.Nick != s.nick {
			if ev.Target != s.channel {
				return ErrUntrackedChannel
			}
			return nil
		}
		if ev.Target != s.channel {
			return ErrUntrackedChannel
		}
		s.channel = ""
		s.state = StateRegistered

	case EventKicked:
		if ev.Target != s.channel {
			return ErrUntrackedChannel
		}
		if ev.Nick == s.nick {
			s.channel = ""
			s.state = StateRegistered
		}

	case EventNickChanged:
		if ev.Nick == s.nick {
			s.nick = ev.NewNick
		}

	case EventDisconnected:
		s.state = StateDisconnected
	}
	return nil
}

// Snapshot is a read-only copy of session state for the status endpoint.
type Snapshot struct {
	ID           string    `json:"id"`
	Callsign     string    `json:"callsign"`
	Nick         string    `json:"nick"`
	Channel      string    `json:"channel,omitempty"`
	Away         string    `json:"away,omitempty"`
	State        string    `json:"state"`
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:           s.id,
		Callsign:     s.callsign,
		Nick:         s.nick,
		Channel:      s.channel,
		Away:         s.away,
		State:        s.state.String(),
		StartedAt:    s.startedAt,
		LastActivity: s.lastActivity,
	}
}
