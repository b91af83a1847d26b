// Package session models one user's pass through the guided flow: the
// active tool, its answers and the generated prompt (the artifact).
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"prompt_maker_server/internal/answers"
	"prompt_maker_server/internal/catalog"
)

var (
	ErrIncomplete      = errors.New("answers are incomplete")
	ErrNoArtifact      = errors.New("no generated prompt")
	ErrRefineInFlight  = errors.New("refinement already in progress")
	ErrSessionNotFound = errors.New("session not found")
)

// State is the artifact lifecycle state.
type State string

const (
	StateEmpty     State = "empty"
	StateGenerated State = "generated"
	StateRefining  State = "refining"
)

// Refiner rewrites a generated prompt.
type Refiner interface {
	Refine(ctx context.Context, artifact string) (string, error)
}

// Session is safe for concurrent use.
type Session struct {
	id      string
	catalog *catalog.Catalog

	mu        sync.Mutex
	collector answers.Collector
	artifact  string
	state     State
	lastSeen  time.Time
}

// New returns a session with no active tool and no artifact.
func New(id string, c *catalog.Catalog) *Session {
	return &Session{
		id:       id,
		catalog:  c,
		state:    StateEmpty,
		lastSeen: time.Now(),
	}
}

func (s *Session) ID() string { return s.id }

// Activate makes toolID the active tool with a fresh, empty answer set. An
// unknown id leaves the session with no active tool and returns
// catalog.ErrToolNotFound. The artifact is not affected.
func (s *Session) Activate(toolID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tool, ok := s.catalog.Find(toolID)
	if !ok {
		s.collector.Reset()
		return errors.Wrapf(catalog.ErrToolNotFound, "tool %q", toolID)
	}
	s.collector.Activate(tool)
	return nil
}

// Tool returns the active tool.
func (s *Session) Tool() (*catalog.Tool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.collector.Tool()
	return t, t != nil
}

func (s *Session) SetValue(fieldID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collector.SetValue(fieldID, value)
}

// SetValues applies all values or none of them.
func (s *Session) SetValues(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tool := s.collector.Tool()
	if tool == nil {
		return answers.ErrNoActiveTool
	}
	for id := range values {
		if !tool.HasField(id) {
			return errors.Wrapf(answers.ErrFieldNotDeclared, "tool %q has no field %q", tool.ID, id)
		}
	}
	for id, v := range values {
		if err := s.collector.SetValue(id, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) Values() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collector.Values()
}

func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collector.IsComplete()
}

func (s *Session) Missing() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collector.Missing()
}

// Generate renders the active tool over the current answers and stores the
// result as the artifact, replacing any previous one.
func (s *Session) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tool := s.collector.Tool()
	switch {
	case tool == nil:
		return "", answers.ErrNoActiveTool
	case s.state == StateRefining:
		return "", ErrRefineInFlight
	case !s.collector.IsComplete():
		return "", errors.Wrapf(ErrIncomplete, "missing %v", s.collector.Missing())
	}

	s.artifact = catalog.Render(tool, s.collector.Values())
	s.state = StateGenerated
	return s.artifact, nil
}

// Refine replaces the artifact with the refiner's rewrite. The session lock
// is not held during the call; a second Refine or a Dismiss meanwhile gets
// ErrRefineInFlight. On failure the artifact is left exactly as it was.
func (s *Session) Refine(ctx context.Context, r Refiner) (string, error) {
	s.mu.Lock()
	switch s.state {
	case StateEmpty:
		s.mu.Unlock()
		return "", ErrNoArtifact
	case StateRefining:
		s.mu.Unlock()
		return "", ErrRefineInFlight
	}
	current := s.artifact
	s.state = StateRefining
	s.mu.Unlock()

	refined, err := r.Refine(ctx, current)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateGenerated
	if err != nil {
		return s.artifact, err
	}
	s.artifact = refined
	return s.artifact, nil
}

// Dismiss clears the artifact. Dismissing an empty session is a no-op.
func (s *Session) Dismiss() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRefining {
		return ErrRefineInFlight
	}
	s.artifact = ""
	s.state = StateEmpty
	return nil
}

// Artifact returns the generated prompt; ok is false when there is none.
func (s *Session) Artifact() (text string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEmpty {
		return "", false
	}
	return s.artifact, true
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	ID          string
	ToolID      string
	HasTool     bool
	Values      map[string]string
	Complete    bool
	Missing     []string
	State       State
	Artifact    string
	HasArtifact bool
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.id,
		Values:      s.collector.Values(),
		Complete:    s.collector.IsComplete(),
		Missing:     s.collector.Missing(),
		State:       s.state,
		Artifact:    s.artifact,
		HasArtifact: s.state != StateEmpty,
	}
	if t := s.collector.Tool(); t != nil {
		snap.ToolID, snap.HasTool = t.ID, true
	}
	return snap
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
