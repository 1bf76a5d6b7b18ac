package store

import (
	"time"

	"github.com/google/uuid"
)

// BlockType identifies what a page block holds.
type BlockType string

const (
	BlockHeader    BlockType = "header"
	BlockParagraph BlockType = "paragraph"
	BlockList      BlockType = "list"
	BlockChecklist BlockType = "checklist"
	BlockQuote     BlockType = "quote"
)

// ChecklistItem is one entry in a checklist block.
type ChecklistItem struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// Block is one unit of page content. Text is used by header,
// paragraph, and quote blocks; Items by list and checklist blocks;
// Level by headers (1 is largest).
type Block struct {
	ID    string          `json:"id"`
	Type  BlockType       `json:"type"`
	Text  string          `json:"text,omitempty"`
	Level int             `json:"level,omitempty"`
	Items []ChecklistItem `json:"items,omitempty"`
}

// NewHeader builds a header block.
func NewHeader(text string, level int) Block {
	return Block{ID: uuid.NewString(), Type: BlockHeader, Text: text, Level: level}
}

// NewParagraph builds a paragraph block.
func NewParagraph(text string) Block {
	return Block{ID: uuid.NewString(), Type: BlockParagraph, Text: text}
}

// NewChecklist builds a checklist block from item texts, all unchecked.
func NewChecklist(items []string) Block {
	b := Block{ID: uuid.NewString(), Type: BlockChecklist}
	for _, text := range items {
		b.Items = append(b.Items, ChecklistItem{Text: text})
	}
	return b
}

// NewList builds an unordered list block.
func NewList(items []string) Block {
	b := Block{ID: uuid.NewString(), Type: BlockList}
	for _, text := range items {
		b.Items = append(b.Items, ChecklistItem{Text: text})
	}
	return b
}

// Notebook is a top-level container of pages and folders.
type Notebook struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Folder groups pages inside a notebook. ParentID is nil for
// top-level folders.
type Folder struct {
	ID         uuid.UUID  `json:"id"`
	NotebookID uuid.UUID  `json:"notebookId"`
	Name       string     `json:"name"`
	ParentID   *uuid.UUID `json:"parentId,omitempty"`
}

// Page is a single note. Archived pages are hidden from search and
// from selectors unless asked for explicitly.
type Page struct {
	ID         uuid.UUID  `json:"id"`
	NotebookID uuid.UUID  `json:"notebookId"`
	FolderID   *uuid.UUID `json:"folderId,omitempty"`
	Title      string     `json:"title"`
	Tags       []string   `json:"tags,omitempty"`
	TemplateID string     `json:"templateId,omitempty"`
	Archived   bool       `json:"archived,omitempty"`
	Blocks     []Block    `json:"blocks,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// PlainText flattens a page's blocks into text for summarization and
// search. List and checklist items are rendered one per line with a
// leading dash.
func (p *Page) PlainText() string {
	var out []byte
	for _, b := range p.Blocks {
		switch b.Type {
		case BlockHeader, BlockParagraph, BlockQuote:
			if b.Text == "" {
				continue
			}
			if len(out) > 0 {
				out = append(out, '\n', '\n')
			}
			out = append(out, b.Text...)
		case BlockList, BlockChecklist:
			for _, item := range b.Items {
				if item.Text == "" {
					continue
				}
				if len(out) > 0 {
					out = append(out, '\n')
				}
				out = append(out, "- "...)
				out = append(out, item.Text...)
			}
		}
	}
	return string(out)
}

// PageStore is the notebook backend the step interpreter operates on.
type PageStore interface {
	CreateNotebook(name, notebookType string) (*Notebook, error)
	GetNotebook(id uuid.UUID) (*Notebook, error)
	NotebookByName(name string) (*Notebook, error)
	ListNotebooks() ([]*Notebook, error)

	CreateFolder(notebookID uuid.UUID, name string, parentID *uuid.UUID) (*Folder, error)
	FolderByName(notebookID uuid.UUID, name string) (*Folder, error)
	GetFolder(id uuid.UUID) (*Folder, error)

	CreatePage(notebookID uuid.UUID, title string) (*Page, error)
	GetPage(id uuid.UUID) (*Page, error)
	UpdatePage(p *Page) error
	ListPages(notebookID uuid.UUID) ([]*Page, error)
	MovePage(pageID, notebookID uuid.UUID, folderID *uuid.UUID) error

	// Search returns non-archived pages whose title or text matches
	// the query, newest first, at most limit results (0 means no
	// limit).
	Search(query string, limit int) ([]*Page, error)
}
