// Package store persists actions as one JSON document per action and
// provides the notebook page store the step interpreter operates on.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkwell-notes/inkwell/pkg/logger"
	"github.com/inkwell-notes/inkwell/pkg/schema"
)

var (
	// ErrNotFound is returned when no action has the requested ID.
	ErrNotFound = errors.New("action not found")
	// ErrBuiltIn is returned for disallowed edits to built-in actions.
	ErrBuiltIn = errors.New("only enabled and triggers can be changed on built-in actions")
)

const builtinVersionFile = "builtin_version.txt"

func writeVersionMarker(dir string, version int) error {
	return os.WriteFile(filepath.Join(dir, builtinVersionFile), []byte(strconv.Itoa(version)), 0o644)
}

// ActionStore keeps actions under dir, one <id>.json per action.
type ActionStore struct {
	dir string
}

// NewActionStore creates the directory if needed. Built-ins are not
// seeded until EnsureBuiltIns is called.
func NewActionStore(dir string) (*ActionStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create actions dir: %w", err)
	}
	return &ActionStore{dir: dir}, nil
}

func (s *ActionStore) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+".json")
}

func (s *ActionStore) write(a *schema.Action) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	if err := os.WriteFile(s.path(a.ID), data, 0o644); err != nil {
		return fmt.Errorf("write action: %w", err)
	}
	return nil
}

// EnsureBuiltIns seeds the built-in catalog, regenerating all of them
// when the catalog version has been bumped. Regeneration preserves
// each existing action's enabled flag; triggers are overwritten so
// version bumps can push new schedules. User trigger edits persist
// until the next bump.
func (s *ActionStore) EnsureBuiltIns() error {
	versionPath := filepath.Join(s.dir, builtinVersionFile)
	current := 0
	if data, err := os.ReadFile(versionPath); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil {
			current = v
		}
	}
	needsRegen := current < schema.BuiltInActionsVersion

	for _, a := range schema.BuiltInActions() {
		path := s.path(a.ID)
		_, statErr := os.Stat(path)
		exists := statErr == nil
		if exists && !needsRegen {
			continue
		}
		if exists {
			if existing, err := s.Get(a.ID); err == nil {
				a.Enabled = existing.Enabled
			}
		}
		if err := s.write(a); err != nil {
			return err
		}
		logger.Info("seeded built-in action", zap.String("name", a.Name))
	}

	if needsRegen {
		if err := writeVersionMarker(s.dir, schema.BuiltInActionsVersion); err != nil {
			return fmt.Errorf("write builtin version: %w", err)
		}
		logger.Info("updated built-in actions", zap.Int("version", schema.BuiltInActionsVersion))
	}
	return nil
}

// List returns all actions sorted by name. Unreadable files are
// skipped with a warning.
func (s *ActionStore) List() ([]*schema.Action, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read actions dir: %w", err)
	}

	var actions []*schema.Action
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		a, err := schema.LoadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			logger.Warn("skipping unreadable action file",
				zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		actions = append(actions, a)
	}

	sort.Slice(actions, func(i, j int) bool {
		return actions[i].Name < actions[j].Name
	})
	return actions, nil
}

// Get returns the action with the given ID.
func (s *ActionStore) Get(id uuid.UUID) (*schema.Action, error) {
	a, err := schema.LoadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return a, nil
}

// Create persists a new action.
func (s *ActionStore) Create(a *schema.Action) error {
	return s.write(a)
}

// Update applies a partial update. Built-in actions accept only the
// enabled flag and triggers; everything else is rejected.
func (s *ActionStore) Update(id uuid.UUID, u schema.ActionUpdate) (*schema.Action, error) {
	a, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if a.IsBuiltIn {
		restricted := u.Name != nil || u.Description != nil || u.Icon != nil ||
			u.Category != nil || u.Steps != nil || u.Variables != nil
		if restricted || (u.Enabled == nil && u.Triggers == nil) {
			return nil, ErrBuiltIn
		}
		if u.Enabled != nil {
			a.Enabled = *u.Enabled
		}
		if u.Triggers != nil {
			a.Triggers = *u.Triggers
		}
		a.UpdatedAt = time.Now().UTC()
		if err := s.write(a); err != nil {
			return nil, err
		}
		return a, nil
	}

	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.Description != nil {
		a.Description = *u.Description
	}
	if u.Icon != nil {
		a.Icon = *u.Icon
	}
	if u.Category != nil {
		a.Category = *u.Category
	}
	if u.Triggers != nil {
		a.Triggers = *u.Triggers
	}
	if u.Steps != nil {
		a.Steps = *u.Steps
	}
	if u.Enabled != nil {
		a.Enabled = *u.Enabled
	}
	if u.Variables != nil {
		a.Variables = *u.Variables
	}
	a.UpdatedAt = time.Now().UTC()

	if err := s.write(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes an action. Built-in actions cannot be deleted.
func (s *ActionStore) Delete(id uuid.UUID) error {
	a, err := s.Get(id)
	if err != nil {
		return err
	}
	if a.IsBuiltIn {
		return errors.New("cannot delete built-in actions")
	}
	return os.Remove(s.path(id))
}

// SetLastRun stamps the action's last run time.
func (s *ActionStore) SetLastRun(id uuid.UUID, t time.Time) error {
	a, err := s.Get(id)
	if err != nil {
		return err
	}
	a.LastRun = &t
	return s.write(a)
}

// SetNextRun stamps the action's next scheduled run time.
func (s *ActionStore) SetNextRun(id uuid.UUID, t time.Time) error {
	a, err := s.Get(id)
	if err != nil {
		return err
	}
	a.NextRun = &t
	return s.write(a)
}

// FindByName looks an action up by name, preferring an exact
// case-insensitive match over a partial one.
func (s *ActionStore) FindByName(name string) (*schema.Action, error) {
	actions, err := s.List()
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(name)
	for _, a := range actions {
		if strings.ToLower(a.Name) == lower {
			return a, nil
		}
	}
	for _, a := range actions {
		if strings.Contains(strings.ToLower(a.Name), lower) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// FindByKeywords returns the enabled actions whose aiChat keywords
// match the input.
func (s *ActionStore) FindByKeywords(input string) ([]*schema.Action, error) {
	actions, err := s.List()
	if err != nil {
		return nil, err
	}
	var matching []*schema.Action
	for _, a := range actions {
		if a.Enabled && a.MatchesKeywords(input) {
			matching = append(matching, a)
		}
	}
	return matching, nil
}

// Scheduled returns the enabled actions that have at least one
// scheduled trigger.
func (s *ActionStore) Scheduled() ([]*schema.Action, error) {
	actions, err := s.List()
	if err != nil {
		return nil, err
	}
	var scheduled []*schema.Action
	for _, a := range actions {
		if a.Enabled && a.HasSchedule() {
			scheduled = append(scheduled, a)
		}
	}
	return scheduled, nil
}
