package core

import (
	"context"
	"encoding/json"
	"fmt"
	"shipfin/internal/logger"
	"shipfin/pkg/domain"
)

// SessionStorageKey is the slot holding the persisted session subset.
const SessionStorageKey = "shipping-finance-store"

// sessionEnvelope is the persisted document: {"state": {...}, "version": 0}.
type sessionEnvelope struct {
	State   persistedSession `json:"state"`
	Version int              `json:"version"`
}

type persistedSession struct {
	User            *User        `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	Theme           domain.Theme `json:"theme"`
	SidebarOpen     bool         `json:"sidebarOpen"`
}

// EncodeSession renders the persisted subset of sess.
func EncodeSession(sess Session) ([]byte, error) {
	return json.Marshal(sessionEnvelope{State: persistedSession{
		User:            sess.User,
		IsAuthenticated: sess.IsAuthenticated,
		Theme:           sess.Theme,
		SidebarOpen:     sess.SidebarOpen,
	}})
}

func (s *Service) persistSession(ctx context.Context, sess Session) {
	if s.sessions == nil {
		return
	}
	payload, err := EncodeSession(sess)
	if err == nil {
		err = s.sessions.Put(ctx, SessionStorageKey, payload)
	}
	if err != nil {
		s.log.Error(ctx, "Failed to persist session", err, logger.Fields{"key": SessionStorageKey})
	}
}

// Hydrate restores the persisted session subset. Keys that are missing or
// carry values of the wrong shape are ignored.
func (s *Service) Hydrate(ctx context.Context) (Session, error) {
	if s.sessions == nil {
		return s.Session(ctx)
	}
	payload, ok, err := s.sessions.Get(ctx, SessionStorageKey)
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		return s.Session(ctx)
	}
	var envelope struct {
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil || len(envelope.State) == 0 {
		s.log.Warn(ctx, "Ignoring unreadable persisted session", logger.Fields{"key": SessionStorageKey})
		return s.Session(ctx)
	}
	stored := decodeSessionFields(envelope.State)

	var hydrated Session
	_, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		hydrated = tx.UpdateSession(func(sess *Session) {
			if stored.userSet {
				sess.User = stored.user
			}
			if stored.authenticated != nil {
				sess.IsAuthenticated = *stored.authenticated
			}
			if stored.theme != nil && stored.theme.Valid() {
				sess.Theme = *stored.theme
			}
			if stored.sidebarOpen != nil {
				sess.SidebarOpen = *stored.sidebarOpen
			}
		})
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	s.log.LogSystemEvent(ctx, "session hydrated", logger.Fields{"authenticated": hydrated.IsAuthenticated})
	return hydrated, nil
}

// decodedSession carries the persisted fields that were present and well
// formed; nil pointers keep the current value.
type decodedSession struct {
	user          *User
	userSet       bool
	authenticated *bool
	theme         *domain.Theme
	sidebarOpen   *bool
}

// decodeSessionFields decodes each key on its own so one bad value does not
// discard the others.
func decodeSessionFields(raw json.RawMessage) decodedSession {
	var fields map[string]json.RawMessage
	var out decodedSession
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out
	}
	if v, ok := fields["user"]; ok {
		var u *User
		if err := json.Unmarshal(v, &u); err == nil && (u == nil || u.Role.Valid()) {
			out.user, out.userSet = u, true
		}
	}
	if v, ok := fields["isAuthenticated"]; ok {
		var b bool
		if json.Unmarshal(v, &b) == nil {
			out.authenticated = &b
		}
	}
	if v, ok := fields["theme"]; ok {
		var t domain.Theme
		if json.Unmarshal(v, &t) == nil {
			out.theme = &t
		}
	}
	if v, ok := fields["sidebarOpen"]; ok {
		var b bool
		if json.Unmarshal(v, &b) == nil {
			out.sidebarOpen = &b
		}
	}
	return out
}

func (s *Service) updateSession(ctx context.Context, operation, action string, mutate func(*Session)) (Session, error) {
	var updated Session
	_, err := s.run(ctx, operation, func(tx domain.Transaction) error {
		updated = tx.UpdateSession(mutate)
		return nil
	})
	if err != nil {
		s.logOutcome(ctx, "Session update", err, logger.Fields{"action": action})
		return Session{}, err
	}
	s.log.LogUserAction(ctx, action, nil)
	return updated, nil
}

// SetUser replaces the signed-in user. A nil user clears it.
func (s *Service) SetUser(ctx context.Context, user *User) (Session, error) {
	return s.updateSession(ctx, "session.set_user", "set user", func(sess *Session) {
		if user == nil {
			sess.User = nil
			return
		}
		u := *user
		sess.User = &u
	})
}

// SetAuthenticated sets the authenticated flag.
func (s *Service) SetAuthenticated(ctx context.Context, authenticated bool) (Session, error) {
	return s.updateSession(ctx, "session.set_authenticated", "set authenticated", func(sess *Session) {
		sess.IsAuthenticated = authenticated
	})
}

// SetTheme changes the colour scheme. Unknown themes are rejected by the
// enum validity rule.
func (s *Service) SetTheme(ctx context.Context, theme domain.Theme) (Session, error) {
	return s.updateSession(ctx, "session.set_theme", "set theme", func(sess *Session) {
		sess.Theme = theme
	})
}

// SetSidebarOpen opens or closes the sidebar.
func (s *Service) SetSidebarOpen(ctx context.Context, open bool) (Session, error) {
	return s.updateSession(ctx, "session.set_sidebar", "set sidebar", func(sess *Session) {
		sess.SidebarOpen = open
	})
}

// ToggleSidebar flips the sidebar state.
func (s *Service) ToggleSidebar(ctx context.Context) (Session, error) {
	return s.updateSession(ctx, "session.toggle_sidebar", "toggle sidebar", func(sess *Session) {
		sess.SidebarOpen = !sess.SidebarOpen
	})
}

// Logout clears the user, the authenticated flag and the session id and
// closes the sidebar. Domain collections are left untouched.
func (s *Service) Logout(ctx context.Context) (Session, error) {
	prev, _ := s.Session(ctx)
	sess, err := s.updateSession(ctx, "session.logout", "logout", func(sess *Session) {
		sess.User = nil
		sess.IsAuthenticated = false
		sess.SessionID = ""
		sess.SidebarOpen = false
	})
	if err == nil && prev.User != nil {
		s.log.LogSecurityEvent(ctx, "logout", logger.SecurityLow, logger.Fields{"userId": prev.User.ID})
	}
	return sess, err
}

// Session returns the current session flags.
func (s *Service) Session(ctx context.Context) (Session, error) {
	var sess Session
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		sess = v.Session()
		return nil
	})
	return sess, err
}
