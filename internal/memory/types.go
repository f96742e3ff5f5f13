package memory

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultMaxMessages    = 50
	DefaultSessionTimeout = 60 * time.Minute
	DefaultSweepInterval  = 5 * time.Minute
	DefaultRetryInterval  = time.Minute
	DefaultContextLength  = 6
)

// StartOfConversation is returned by ConversationContext when there is no history.
const StartOfConversation = "This is the start of the conversation."

var (
	ErrEmptyUserID   = errors.New("user id is empty")
	ErrInvalidSender = errors.New("invalid sender")
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// Label is the role name used in prompt transcripts.
func (s Sender) Label() string {
	if s == SenderUser {
		return "Customer"
	}
	return "Assistant"
}

func ParseSender(v string) (Sender, error) {
	s := Sender(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSender, v)
	}
	return s, nil
}

type Message struct {
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

type Stats struct {
	TotalSessions         int      `json:"total_sessions"`
	TotalMessages         int      `json:"total_messages"`
	ActiveSessions        []string `json:"active_sessions"`
	AvgMessagesPerSession float64  `json:"avg_messages_per_session"`
}

// Transcript is the retained history of a session removed by the sweep.
type Transcript struct {
	Key          string    `json:"session_key"`
	UserID       string    `json:"user_id"`
	Messages     []Message `json:"messages"`
	LastActivity time.Time `json:"last_activity"`
}

// Archiver receives transcripts of expired sessions.
type Archiver interface {
	Archive(ctx context.Context, transcripts []Transcript) error
}

type Config struct {
	MaxMessages    int
	SessionTimeout time.Duration

	// SweepInterval is ignored when SweepSchedule is set.
	SweepInterval time.Duration
	SweepSchedule string
	RetryInterval time.Duration

	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (c Config) withDefaults() Config {
	if c.MaxMessages <= 0 {
		c.MaxMessages = DefaultMaxMessages
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = DefaultSessionTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}
