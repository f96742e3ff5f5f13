// Package memory keeps a bounded, self-expiring conversation history per user.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/itspaulthegreat/ai-customer-service-bot/internal/logger"
)

type session struct {
	userID       string
	messages     []Message
	lastActivity time.Time
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	cfg      Config
}

func NewStore(cfg Config) *Store {
	cfg = cfg.withDefaults()

	logger.Info("session memory initialized", "max_messages", cfg.MaxMessages, "timeout", cfg.SessionTimeout)

	return &Store{
		sessions: make(map[string]*session),
		cfg:      cfg,
	}
}

// SessionKey maps a user identifier to its session key.
func SessionKey(userID string) string {
	return "session_" + userID
}

func (s *Store) Config() Config {
	return s.cfg
}

func (s *Store) AddMessage(userID, content string, sender Sender) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if !sender.Valid() {
		_, err := ParseSender(string(sender))
		return err
	}

	key := SessionKey(userID)
	now := s.cfg.Clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		sess = &session{userID: userID}
		s.sessions[key] = sess
		logger.Debug("session created", "session", key)
	}

	// keep timestamps non-decreasing if the wall clock steps back
	if n := len(sess.messages); n > 0 && now.Before(sess.messages[n-1].Timestamp) {
		now = sess.messages[n-1].Timestamp
	}

	sess.messages = append(sess.messages, Message{
		Content:   content,
		Sender:    sender,
		Timestamp: now,
	})
	sess.lastActivity = now

	if over := len(sess.messages) - s.cfg.MaxMessages; over > 0 {
		kept := make([]Message, s.cfg.MaxMessages)
		copy(kept, sess.messages[over:])
		sess.messages = kept
	}

	logger.Debug("message added", "session", key, "sender", sender, "count", len(sess.messages))

	return nil
}

// History returns the retained messages for userID in insertion order.
func (s *Store) History(userID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[SessionKey(userID)]
	if !ok {
		return []Message{}
	}

	return copyMessages(sess.messages)
}

// LastMessages returns the most recent n messages in insertion order.
func (s *Store) LastMessages(userID string, n int) []Message {
	if n <= 0 {
		return []Message{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[SessionKey(userID)]
	if !ok {
		return []Message{}
	}

	msgs := sess.messages
	if n < len(msgs) {
		msgs = msgs[len(msgs)-n:]
	}

	return copyMessages(msgs)
}

func (s *Store) LastUserMessage(userID string) (string, bool) {
	return s.lastBy(userID, SenderUser)
}

func (s *Store) LastBotMessage(userID string) (string, bool) {
	return s.lastBy(userID, SenderBot)
}

func (s *Store) lastBy(userID string, sender Sender) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[SessionKey(userID)]
	if !ok {
		return "", false
	}

	for i := len(sess.messages) - 1; i >= 0; i-- {
		if sess.messages[i].Sender == sender {
			return sess.messages[i].Content, true
		}
	}

	return "", false
}

// ConversationContext renders the last n messages as a prompt transcript.
// n <= 0 selects DefaultContextLength.
func (s *Store) ConversationContext(userID string, n int) string {
	if n <= 0 {
		n = DefaultContextLength
	}

	history := s.LastMessages(userID, n)
	if len(history) == 0 {
		return StartOfConversation
	}

	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, msg.Sender.Label()+": "+msg.Content)
	}

	return strings.Join(lines, "\n")
}

func (s *Store) ClearSession(userID string) bool {
	key := SessionKey(userID)

	s.mu.Lock()
	_, ok := s.sessions[key]
	delete(s.sessions, key)
	s.mu.Unlock()

	if ok {
		logger.Info("session cleared", "session", key)
	}

	return ok
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		TotalSessions:  len(s.sessions),
		ActiveSessions: make([]string, 0, len(s.sessions)),
	}

	for key, sess := range s.sessions {
		stats.TotalMessages += len(sess.messages)
		stats.ActiveSessions = append(stats.ActiveSessions, key)
	}
	sort.Strings(stats.ActiveSessions)

	if stats.TotalSessions > 0 {
		stats.AvgMessagesPerSession = float64(stats.TotalMessages) / float64(stats.TotalSessions)
	}

	return stats
}

// Sweep removes every session idle for at least SessionTimeout as of now
// and returns their transcripts.
func (s *Store) Sweep(now time.Time) []Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []Transcript
	for key, sess := range s.sessions {
		if now.Sub(sess.lastActivity) < s.cfg.SessionTimeout {
			continue
		}

		expired = append(expired, Transcript{
			Key:          key,
			UserID:       sess.userID,
			Messages:     sess.messages,
			LastActivity: sess.lastActivity,
		})
		delete(s.sessions, key)
	}

	sort.Slice(expired, func(i, j int) bool { return expired[i].Key < expired[j].Key })

	return expired
}

func copyMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
