package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryPageStore is an in-process PageStore. It backs the CLI's dry
// runs and the test suite; all methods are safe for concurrent use.
type MemoryPageStore struct {
	mu        sync.RWMutex
	notebooks map[uuid.UUID]*Notebook
	folders   map[uuid.UUID]*Folder
	pages     map[uuid.UUID]*Page
	now       func() time.Time
}

// NewMemoryPageStore returns an empty store.
func NewMemoryPageStore() *MemoryPageStore {
	return &MemoryPageStore{
		notebooks: make(map[uuid.UUID]*Notebook),
		folders:   make(map[uuid.UUID]*Folder),
		pages:     make(map[uuid.UUID]*Page),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the store's notion of now. Tests use this to
// create pages with deterministic timestamps.
func (s *MemoryPageStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryPageStore) CreateNotebook(name, notebookType string) (*Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb := &Notebook{
		ID:        uuid.New(),
		Name:      name,
		Type:      notebookType,
		CreatedAt: s.now(),
	}
	s.notebooks[nb.ID] = nb
	return nb, nil
}

func (s *MemoryPageStore) GetNotebook(id uuid.UUID) (*Notebook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nb, ok := s.notebooks[id]
	if !ok {
		return nil, fmt.Errorf("notebook %s not found", id)
	}
	return nb, nil
}

func (s *MemoryPageStore) NotebookByName(name string) (*Notebook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, nb := range s.notebooks {
		if strings.EqualFold(nb.Name, name) {
			return nb, nil
		}
	}
	return nil, fmt.Errorf("notebook %q not found", name)
}

func (s *MemoryPageStore) ListNotebooks() ([]*Notebook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Notebook, 0, len(s.notebooks))
	for _, nb := range s.notebooks {
		out = append(out, nb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryPageStore) CreateFolder(notebookID uuid.UUID, name string, parentID *uuid.UUID) (*Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notebooks[notebookID]; !ok {
		return nil, fmt.Errorf("notebook %s not found", notebookID)
	}
	f := &Folder{ID: uuid.New(), NotebookID: notebookID, Name: name, ParentID: parentID}
	s.folders[f.ID] = f
	return f, nil
}

func (s *MemoryPageStore) FolderByName(notebookID uuid.UUID, name string) (*Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.folders {
		if f.NotebookID == notebookID && strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("folder %q not found", name)
}

func (s *MemoryPageStore) GetFolder(id uuid.UUID) (*Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s not found", id)
	}
	return f, nil
}

func (s *MemoryPageStore) CreatePage(notebookID uuid.UUID, title string) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notebooks[notebookID]; !ok {
		return nil, fmt.Errorf("notebook %s not found", notebookID)
	}
	now := s.now()
	p := &Page{
		ID:         uuid.New(),
		NotebookID: notebookID,
		Title:      title,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.pages[p.ID] = p
	return clonePage(p), nil
}

func (s *MemoryPageStore) GetPage(id uuid.UUID) (*Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[id]
	if !ok {
		return nil, fmt.Errorf("page %s not found", id)
	}
	return clonePage(p), nil
}

func (s *MemoryPageStore) UpdatePage(p *Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[p.ID]; !ok {
		return fmt.Errorf("page %s not found", p.ID)
	}
	updated := clonePage(p)
	updated.UpdatedAt = s.now()
	s.pages[p.ID] = updated
	return nil
}

func (s *MemoryPageStore) ListPages(notebookID uuid.UUID) ([]*Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Page
	for _, p := range s.pages {
		if p.NotebookID == notebookID {
			out = append(out, clonePage(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryPageStore) MovePage(pageID, notebookID uuid.UUID, folderID *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[pageID]
	if !ok {
		return fmt.Errorf("page %s not found", pageID)
	}
	if _, ok := s.notebooks[notebookID]; !ok {
		return fmt.Errorf("notebook %s not found", notebookID)
	}
	p.NotebookID = notebookID
	p.FolderID = folderID
	p.UpdatedAt = s.now()
	return nil
}

func (s *MemoryPageStore) Search(query string, limit int) ([]*Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(query))
	var out []*Page
	for _, p := range s.pages {
		if p.Archived {
			continue
		}
		haystack := strings.ToLower(p.Title + "\n" + p.PlainText() + "\n" + strings.Join(p.Tags, " "))
		matches := true
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				matches = false
				break
			}
		}
		if matches {
			out = append(out, clonePage(p))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FolderName returns the name of the page's folder, or "".
func (s *MemoryPageStore) FolderName(p *Page) string {
	if p.FolderID == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f, ok := s.folders[*p.FolderID]; ok {
		return f.Name
	}
	return ""
}

func clonePage(p *Page) *Page {
	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	cp.Blocks = make([]Block, len(p.Blocks))
	for i, b := range p.Blocks {
		cp.Blocks[i] = b
		cp.Blocks[i].Items = append([]ChecklistItem(nil), b.Items...)
	}
	return &cp
}
