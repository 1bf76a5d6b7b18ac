package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// pageSnapshot is the on-disk shape of a FilePageStore.
type pageSnapshot struct {
	Notebooks []*Notebook `json:"notebooks"`
	Folders   []*Folder   `json:"folders"`
	Pages     []*Page     `json:"pages"`
}

// FilePageStore persists notebooks, folders and pages to a single JSON
// file. All reads are served from the in-memory copy; every mutation
// rewrites the file.
type FilePageStore struct {
	*MemoryPageStore
	path string
}

// OpenFilePageStore loads the store at path, creating an empty one if
// the file does not exist yet.
func OpenFilePageStore(path string) (*FilePageStore, error) {
	fs := &FilePageStore{
		MemoryPageStore: NewMemoryPageStore(),
		path:            path,
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading page store: %w", err)
	}
	var snap pageSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("parsing page store %s: %w", path, err)
	}
	fs.restore(&snap)
	return fs, nil
}

func (s *MemoryPageStore) snapshot() *pageSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := &pageSnapshot{}
	for _, nb := range s.notebooks {
		nbCopy := *nb
		snap.Notebooks = append(snap.Notebooks, &nbCopy)
	}
	for _, f := range s.folders {
		fCopy := *f
		snap.Folders = append(snap.Folders, &fCopy)
	}
	for _, p := range s.pages {
		snap.Pages = append(snap.Pages, clonePage(p))
	}
	sort.Slice(snap.Notebooks, func(i, j int) bool { return snap.Notebooks[i].Name < snap.Notebooks[j].Name })
	sort.Slice(snap.Folders, func(i, j int) bool { return snap.Folders[i].Name < snap.Folders[j].Name })
	sort.Slice(snap.Pages, func(i, j int) bool { return snap.Pages[i].CreatedAt.Before(snap.Pages[j].CreatedAt) })
	return snap
}

func (s *MemoryPageStore) restore(snap *pageSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notebooks = make(map[uuid.UUID]*Notebook, len(snap.Notebooks))
	for _, nb := range snap.Notebooks {
		s.notebooks[nb.ID] = nb
	}
	s.folders = make(map[uuid.UUID]*Folder, len(snap.Folders))
	for _, f := range snap.Folders {
		s.folders[f.ID] = f
	}
	s.pages = make(map[uuid.UUID]*Page, len(snap.Pages))
	for _, p := range snap.Pages {
		s.pages[p.ID] = p
	}
}

func (s *FilePageStore) save() error {
	raw, err := json.MarshalIndent(s.snapshot(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FilePageStore) CreateNotebook(name, notebookType string) (*Notebook, error) {
	nb, err := s.MemoryPageStore.CreateNotebook(name, notebookType)
	if err != nil {
		return nil, err
	}
	return nb, s.save()
}

func (s *FilePageStore) CreateFolder(notebookID uuid.UUID, name string, parentID *uuid.UUID) (*Folder, error) {
	f, err := s.MemoryPageStore.CreateFolder(notebookID, name, parentID)
	if err != nil {
		return nil, err
	}
	return f, s.save()
}

func (s *FilePageStore) CreatePage(notebookID uuid.UUID, title string) (*Page, error) {
	p, err := s.MemoryPageStore.CreatePage(notebookID, title)
	if err != nil {
		return nil, err
	}
	return p, s.save()
}

func (s *FilePageStore) UpdatePage(p *Page) error {
	if err := s.MemoryPageStore.UpdatePage(p); err != nil {
		return err
	}
	return s.save()
}

func (s *FilePageStore) MovePage(pageID, notebookID uuid.UUID, folderID *uuid.UUID) error {
	if err := s.MemoryPageStore.MovePage(pageID, notebookID, folderID); err != nil {
		return err
	}
	return s.save()
}
