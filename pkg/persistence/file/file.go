// Package file provides a file-based persistence implementation backed by a single JSON
// state document.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dukex/fuzzie/pkg/models"
	"github.com/dukex/fuzzie/pkg/persistence"
)

const stateFile = "state.json"

var _ persistence.Persistence = (*Persistence)(nil)

type state struct {
	Users         map[string]*models.User         `json:"users"`
	Teams         map[string]*models.Team         `json:"teams"`
	Members       map[string]*models.TeamMember   `json:"members"`
	Workflows     map[string]*models.Workflow     `json:"workflows"`
	Notifications map[string]*models.Notification `json:"notifications"`
}

func newState() *state {
	return &state{
		Users:         map[string]*models.User{},
		Teams:         map[string]*models.Team{},
		Members:       map[string]*models.TeamMember{},
		Workflows:     map[string]*models.Workflow{},
		Notifications: map[string]*models.Notification{},
	}
}

// clone deep copies the state through its JSON form so a transaction never aliases
// committed data.
func (s *state) clone() (*state, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}

	out := newState()

	err = json.Unmarshal(data, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return out, nil
}

// runner executes fn against a state. write reports whether fn may mutate it.
type runner func(ctx context.Context, write bool, fn func(s *state) error) error

// Persistence implements persistence.Persistence on a JSON file under root.
// Transactions are serialized by a mutex and commit with a temp file rename.
type Persistence struct {
	root  string
	mu    sync.Mutex
	state *state
}

// NewPersistence creates a new file persistence rooted at root. A file:// prefix is accepted.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

func (p *Persistence) Users() persistence.UserRepository {
	return &userRepository{run: p.autocommit}
}

func (p *Persistence) Teams() persistence.TeamRepository {
	return &teamRepository{run: p.autocommit}
}

func (p *Persistence) Members() persistence.MemberRepository {
	return &memberRepository{run: p.autocommit}
}

func (p *Persistence) Workflows() persistence.WorkflowRepository {
	return &workflowRepository{run: p.autocommit}
}

func (p *Persistence) Notifications() persistence.NotificationRepository {
	return &notificationRepository{run: p.autocommit}
}

// Transaction runs fn on a private copy of the state and replaces the committed state
// with it only when fn succeeds.
func (p *Persistence) Transaction(ctx context.Context, fn func(ctx context.Context, repos persistence.Repositories) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, err := p.load()
	if err != nil {
		return err
	}

	work, err := current.clone()
	if err != nil {
		return err
	}

	v := &view{state: work}

	err = fn(ctx, v)
	if err != nil {
		return err
	}

	if !v.dirty {
		return nil
	}

	return p.commit(work)
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) autocommit(ctx context.Context, write bool, fn func(s *state) error) error {
	if !write {
		p.mu.Lock()
		defer p.mu.Unlock()

		current, err := p.load()
		if err != nil {
			return err
		}

		return fn(current)
	}

	return p.Transaction(ctx, func(_ context.Context, repos persistence.Repositories) error {
		v := repos.(*view)
		v.dirty = true

		return fn(v.state)
	})
}

// load returns the committed state, reading it from disk on first use. Callers hold mu.
func (p *Persistence) load() (*state, error) {
	if p.state != nil {
		return p.state, nil
	}

	loaded := newState()

	data, err := os.ReadFile(filepath.Join(p.root, stateFile))

	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read state: %w", err)
	default:
		err = json.Unmarshal(data, loaded)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal state: %w", err)
		}
	}

	p.state = loaded

	return p.state, nil
}

// commit writes s next to the state file and renames it into place. Callers hold mu.
func (p *Persistence) commit(s *state) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	err = os.MkdirAll(p.root, 0o750)
	if err != nil {
		return fmt.Errorf("failed to create root directory: %w", err)
	}

	tmp, err := os.CreateTemp(p.root, stateFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to write state: %w", err)
	}

	err = os.Rename(tmp.Name(), filepath.Join(p.root, stateFile))
	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to replace state: %w", err)
	}

	p.state = s

	return nil
}

// view exposes the repositories of a single in-flight transaction.
type view struct {
	state *state

	// dirty is set by the first write; a clean transaction commits nothing.
	dirty bool
}

func (v *view) run(_ context.Context, write bool, fn func(s *state) error) error {
	if write {
		v.dirty = true
	}

	return fn(v.state)
}

func (v *view) Users() persistence.UserRepository {
	return &userRepository{run: v.run}
}

func (v *view) Teams() persistence.TeamRepository {
	return &teamRepository{run: v.run}
}

func (v *view) Members() persistence.MemberRepository {
	return &memberRepository{run: v.run}
}

func (v *view) Workflows() persistence.WorkflowRepository {
	return &workflowRepository{run: v.run}
}

func (v *view) Notifications() persistence.NotificationRepository {
	return &notificationRepository{run: v.run}
}
