package core

import (
	"context"
	"errors"
	"fmt"
	"shipfin/internal/logger"
	"shipfin/pkg/domain"
	"strings"

	"github.com/google/uuid"
)

const userIDPrefix = "USR"

// Credentials are the login form fields. Role defaults to employee.
type Credentials struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

var (
	errMissingEmail    = errors.New("email is required")
	errMissingPassword = errors.New("password is required")
)

func buildUser(c Credentials, id string) (User, error) {
	email := strings.TrimSpace(c.Email)
	if email == "" || !strings.Contains(email, "@") {
		return User{}, errMissingEmail
	}
	if c.Password == "" {
		return User{}, errMissingPassword
	}
	role := c.Role
	if role == "" {
		role = domain.RoleEmployee
	}
	if !role.Valid() {
		return User{}, fmt.Errorf("unknown role %q", role)
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}
	return User{ID: id, Name: name, Email: email, Role: role}, nil
}

// Login signs the user in and reports success. Roles are cosmetic: any
// well-formed credentials are accepted. Every failure is logged at ERROR and
// reported only as false.
func (s *Service) Login(ctx context.Context, c Credentials) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error(ctx, "Login failed", fmt.Errorf("panic: %v", r), logger.Fields{"email": c.Email})
			ok = false
		}
	}()
	user, err := buildUser(c, domain.NewID(userIDPrefix, s.now()))
	if err == nil {
		_, err = s.run(ctx, "session.login", func(tx domain.Transaction) error {
			tx.UpdateSession(func(sess *Session) {
				sess.User = &user
				sess.IsAuthenticated = true
				sess.SessionID = uuid.NewString()
			})
			return nil
		})
	}
	if err != nil {
		s.log.Error(ctx, "Login failed", err, logger.Fields{"email": c.Email})
		s.log.LogSecurityEvent(ctx, "login failed", logger.SecurityMedium, logger.Fields{"email": c.Email})
		return false
	}
	s.log.LogUserAction(ctx, "login", logger.Fields{"userId": user.ID, "role": string(user.Role)})
	return true
}

// SessionIdentity resolves the logged-in user and session id from store for
// stamping log entries.
func SessionIdentity(store domain.PersistentStore) logger.IdentityProvider {
	return func(ctx context.Context) logger.Identity {
		var id logger.Identity
		_ = store.View(ctx, func(v domain.TransactionView) error {
			sess := v.Session()
			if sess.User != nil {
				id.UserID = sess.User.ID
			}
			id.SessionID = sess.SessionID
			return nil
		})
		return id
	}
}
