package models

import (
	"time"
)

// Variant discriminates the three item kinds sharing the items table.
type Variant string

const (
	VariantFolder Variant = "folder"
	VariantNote   Variant = "note"
	VariantAINote Variant = "ai-note"
)

// Valid reports whether v is one of the three known variants.
func (v Variant) Valid() bool {
	switch v {
	case VariantFolder, VariantNote, VariantAINote:
		return true
	}
	return false
}

// Status is the processing lifecycle state of a note or ai-note.
// Folders carry no status.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// ProcessKind identifies the AI operation applied to a note.
type ProcessKind string

const (
	ProcessKindResearch   ProcessKind = "research"
	ProcessKindSummarize  ProcessKind = "summarize"
	ProcessKindExpand     ProcessKind = "expand"
	ProcessKindActionPlan ProcessKind = "actionplan"
)

// ProcessKinds lists every known kind, in display order.
var ProcessKinds = []ProcessKind{
	ProcessKindResearch,
	ProcessKindSummarize,
	ProcessKindExpand,
	ProcessKindActionPlan,
}

// Document is a rich-text document body. The structure is opaque to the
// hierarchy core; only the richtext package interprets it.
type Document = map[string]interface{}

// Item is a node in the hierarchy: a folder, a user note, or an AI-generated
// note. parent_id forms a forest over id (nil = root level).
type Item struct {
	ID       string  `json:"id" db:"id"`
	ParentID *string `json:"parent_id" db:"parent_id"`
	Variant  Variant `json:"variant" db:"variant"`

	// Name is set for folders only.
	Name *string `json:"name,omitempty" db:"name"`

	// Content is set for notes and ai-notes only.
	Content Document `json:"content,omitempty" db:"content"`

	// ProcessKind records which AI operation produced an ai-note. On a note
	// it records the kind of the most recent processing run, which is what
	// retry re-uses; it is null until the note is first processed.
	ProcessKind *ProcessKind `json:"process_kind,omitempty" db:"process_kind"`

	// Status is the processing state for notes and ai-notes; nil for folders.
	Status *Status `json:"status,omitempty" db:"status"`

	// ErrorDetail is populated only when Status is failed.
	ErrorDetail *string `json:"error_detail,omitempty" db:"error_detail"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsFolder reports whether the item can contain children of any variant.
func (i *Item) IsFolder() bool {
	return i.Variant == VariantFolder
}
