package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/TamimulAhsan/sentineliam/core/infra/schema"
	"github.com/TamimulAhsan/sentineliam/core/policy"
)

// SessionState is the edit session lifecycle state.
type SessionState string

const (
	SessionClosed  SessionState = "closed"
	SessionViewing SessionState = "viewing"
	SessionEditing SessionState = "editing"
	SessionSaving  SessionState = "saving"
)

var (
	ErrSessionClosed = errors.New("no open edit session")
	ErrNotViewing    = errors.New("session is not in viewing state")
	ErrNotEditing    = errors.New("session is not in editing state")
	ErrSaveInFlight  = errors.New("save already in progress")
)

// Session governs the edit lifecycle of one record at a time:
// closed -> viewing -> editing -> saving -> closed, with saving falling back
// to editing on failure so the draft is never lost. At most one record is
// open; opening another implicitly discards the current session without
// saving.
type Session struct {
	mu      sync.Mutex
	catalog *Catalog
	state   SessionState
	record  policy.Record
	draft   string
	// gen changes on every open/close so a save resolving after the session
	// moved on cannot drive stale state transitions.
	gen uint64
}

// NewSession returns a closed session bound to the catalog.
func NewSession(c *Catalog) *Session {
	return &Session{catalog: c, state: SessionClosed}
}

// Open starts a session on one catalog record, read-only or editable. The
// draft is initialized from the record's document in its canonical editable
// encoding. Any prior session is discarded.
func (s *Session) Open(id policy.ID, readOnly bool) error {
	rec, ok := s.catalog.Get(id)
	if !ok {
		return errors.New("unknown policy id " + id.String())
	}
	draft, err := policy.EncodeDocument(rec.Document)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.record = rec
	s.draft = draft
	if readOnly {
		s.state = SessionViewing
	} else {
		s.state = SessionEditing
	}
	return nil
}

// BeginEdit switches a read-only session to read-write.
func (s *Session) BeginEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionViewing {
		return ErrNotViewing
	}
	s.state = SessionEditing
	return nil
}

// UpdateDraft replaces the in-session draft text. The catalog is untouched.
func (s *Session) UpdateDraft(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionEditing {
		return ErrNotEditing
	}
	s.draft = text
	return nil
}

// RequestSave decodes the draft, validates it against the platform document
// schema, and pushes it through the catalog. Decode and validation failures
// are resolved locally: the session stays in editing and no network call is
// made. A store failure also returns to editing with the draft intact. On
// success the session closes; the updated record is visible through the
// catalog, not the session.
func (s *Session) RequestSave(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case SessionSaving:
		s.mu.Unlock()
		return ErrSaveInFlight
	case SessionEditing:
	default:
		s.mu.Unlock()
		return ErrNotEditing
	}

	doc, err := policy.DecodeDocument(s.draft)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := schema.ValidateDocument(s.record.Platform, doc); err != nil {
		s.mu.Unlock()
		return err
	}

	s.state = SessionSaving
	gen := s.gen
	id := s.record.ID
	s.mu.Unlock()

	_, saveErr := s.catalog.Save(ctx, id, doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// The session was closed or reopened while the save was in flight.
		// The catalog mutation already applied; the session stays as it is.
		return saveErr
	}
	if saveErr != nil {
		s.state = SessionEditing
		return saveErr
	}
	s.state = SessionClosed
	s.record = policy.Record{}
	s.draft = ""
	return nil
}

// Close discards the draft unconditionally, from any state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.state = SessionClosed
	s.record = policy.Record{}
	s.draft = ""
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Record returns the open record, if any.
func (s *Session) Record() (policy.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionClosed {
		return policy.Record{}, false
	}
	return s.record, true
}

// Draft returns the session-local draft text.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}
