package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/rsdoclab/rsdoc/internal/docerr"
	"github.com/rsdoclab/rsdoc/internal/workspace"
)

// Session holds one caller's resolved working context. Sessions are
// ephemeral: created on the first scope-setting call and dropped when
// the calling connection ends. Nothing here is persisted.
type Session struct {
	ID         string
	WorkingDir string
	// Root is the resolved workspace root, empty until a working
	// directory has been set.
	Root string
	// Scope is the member crate the caller is focused on; empty means
	// the whole workspace.
	Scope string
}

// Store tracks live sessions. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create registers a fresh session and returns it.
func (s *Store) Create() *Session {
	sess := &Session{ID: uuid.NewString()}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session for an id.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, docerr.Errorf(docerr.ENOTFOUND, "session %s does not exist", id)
	}
	return sess, nil
}

// GetOrCreate returns the session for an id, minting one when the id is
// unknown or empty. Transports that cannot carry session ids get a
// working implicit session this way.
func (s *Store) GetOrCreate(id string) *Session {
	if id != "" {
		if sess, err := s.Get(id); err == nil {
			return sess
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = uuid.NewString()
	}
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess := &Session{ID: id}
	s.sessions[id] = sess
	return sess
}

// Drop discards a session.
func (s *Store) Drop(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// SetWorkingDirectory resolves path to its enclosing workspace and
// updates the session. When path sits inside a member crate's
// directory the scope narrows to that crate; otherwise the scope is the
// whole workspace.
func (s *Store) SetWorkingDirectory(sess *Session, path string) error {
	root, member, err := workspace.FindRoot(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	sess.WorkingDir = path
	sess.Root = root
	sess.Scope = member
	s.mu.Unlock()
	return nil
}

// CurrentScope reports the session's resolved root and crate scope.
// It never mutates anything.
func (s *Store) CurrentScope(sess *Session) (root, scope string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sess.Root, sess.Scope
}
