package session

import (
	"context"
	"errors"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/infrastructure/storage"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAuthenticated   = errors.New("not authenticated")

	// ErrWeakPassword is the auth package's strength error, re-exported as
	// part of this store's error taxonomy.
	ErrWeakPassword = auth.ErrWeakPassword
)

// User is a durable credential record. Emails are unique, case-sensitive
// as stored. The password field holds a bcrypt hash, never plaintext.
type User struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password"`
	Address      string `json:"address"`
}

// Session is the reduced, non-secret projection of the signed-in user.
type Session struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Store owns the users collection and the current session. Every mutation
// persists the whole collection immediately: no batching, no transactions,
// last-writer-wins against concurrent instances.
type Store struct {
	kv   storage.Store
	feed storage.Publisher // optional, nil when no change feed is configured
}

func NewStore(kv storage.Store, feed storage.Publisher) *Store {
	return &Store{kv: kv, feed: feed}
}

// SignUp registers a new user and signs them in.
func (s *Store) SignUp(ctx context.Context, name, email, password, address string) (Session, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return Session{}, err
	}

	for _, u := range users {
		if u.Email == email {
			return Session{}, ErrDuplicateEmail
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, err
	}

	users = append(users, User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Address:      address,
	})
	if err := s.saveUsers(ctx, users); err != nil {
		return Session{}, err
	}

	return s.setSession(ctx, Session{Name: name, Email: email})
}

// SignIn authenticates a user and sets the session. Failure leaks no hint
// of which field was wrong, and leaves the session untouched.
func (s *Store) SignIn(ctx context.Context, email, password string) (Session, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return Session{}, err
	}

	for _, u := range users {
		if u.Email == email && auth.CheckPassword(password, u.PasswordHash) {
			return s.setSession(ctx, Session{Name: u.Name, Email: u.Email})
		}
	}
	return Session{}, ErrInvalidCredentials
}

// SignOut clears the session. Idempotent: signing out twice is fine.
func (s *Store) SignOut(ctx context.Context) error {
	if err := s.kv.Delete(ctx, storage.KeyCurrentUser); err != nil {
		return err
	}
	s.publish(ctx, storage.KeyCurrentUser)
	return nil
}

// UpdateProfile edits the signed-in user's name, address and optionally
// password (empty means keep existing). Email is immutable.
func (s *Store) UpdateProfile(ctx context.Context, name, address, password string) (Session, error) {
	current, ok, err := s.Current(ctx)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrNotAuthenticated
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return Session{}, err
	}

	index := -1
	for i, u := range users {
		if u.Email == current.Email {
			index = i
			break
		}
	}
	if index == -1 {
		// The backing user record vanished under us (edited externally).
		return Session{}, ErrNotAuthenticated
	}

	users[index].Name = name
	users[index].Address = address
	if password != "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return Session{}, err
		}
		users[index].PasswordHash = hash
	}

	if err := s.saveUsers(ctx, users); err != nil {
		return Session{}, err
	}

	return s.setSession(ctx, Session{Name: name, Email: current.Email})
}

// Current returns the active session, if any.
func (s *Store) Current(ctx context.Context) (Session, bool, error) {
	var session Session
	if err := storage.GetJSON(ctx, s.kv, storage.KeyCurrentUser, &session); err != nil {
		return Session{}, false, err
	}
	if session.Email == "" {
		return Session{}, false, nil
	}
	return session, true, nil
}

func (s *Store) loadUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := storage.GetJSON(ctx, s.kv, storage.KeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) saveUsers(ctx context.Context, users []User) error {
	if err := storage.PutJSON(ctx, s.kv, storage.KeyUsers, users); err != nil {
		return err
	}
	s.publish(ctx, storage.KeyUsers)
	return nil
}

func (s *Store) setSession(ctx context.Context, session Session) (Session, error) {
	if err := storage.PutJSON(ctx, s.kv, storage.KeyCurrentUser, session); err != nil {
		return Session{}, err
	}
	s.publish(ctx, storage.KeyCurrentUser)
	return session, nil
}

// publish is best-effort: a slow or missing feed never fails the mutation.
func (s *Store) publish(ctx context.Context, key string) {
	if s.feed == nil {
		return
	}
	_ = s.feed.Publish(ctx, key, storage.NewChangeEvent(key))
}
