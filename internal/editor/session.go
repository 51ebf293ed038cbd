package editor

import (
	"context"
	"encoding/gob"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gnemet/PromptDeck/internal/config"
)

const sessionKey = "editor"

func init() {
	gob.Register(State{})
}

// State is what the server keeps per browser session.
type State struct {
	Template string `json:"template"`
	Prompt   string `json:"prompt"`
	Deck     Deck   `json:"deck"`
}

func NewSessionManager(cfg config.SessionConfig) *scs.SessionManager {
	sm := scs.New()
	if cfg.Lifetime > 0 {
		sm.Lifetime = cfg.Lifetime
	}
	if cfg.CookieName != "" {
		sm.Cookie.Name = cfg.CookieName
	}
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.Secure
	sm.Cookie.SameSite = http.SameSiteLaxMode
	return sm
}

// Sessions reads and writes the editor state of the current request.
// Handlers must run inside sm.LoadAndSave.
type Sessions struct {
	sm *scs.SessionManager
}

func NewSessions(sm *scs.SessionManager) *Sessions {
	return &Sessions{sm: sm}
}

func (s *Sessions) Load(ctx context.Context) (State, bool) {
	st, ok := s.sm.Get(ctx, sessionKey).(State)
	return st, ok
}

func (s *Sessions) Save(ctx context.Context, st State) {
	s.sm.Put(ctx, sessionKey, st)
}

func (s *Sessions) Clear(ctx context.Context) {
	s.sm.Remove(ctx, sessionKey)
}
