package domain

import (
	"errors"
	"strings"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/validate"
)

// Priority ranks a note.
type Priority string

// Note priorities.
const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// ParsePriority normalizes s to the canonical uppercase code, defaulting
// empty input to NORMAL.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(s))); p {
	case "":
		return PriorityNormal, nil
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return p, nil
	default:
		return "", folio.NewValidationError("priority", errors.New("unknown priority "+s))
	}
}

// NoteTarget identifies the row a note is attached to. Storage stays
// polymorphic (kind string + id) but call sites use the typed
// constructors below instead of spelling kinds by hand.
type NoteTarget struct {
	Kind string
	ID   int64
}

// Typed note targets, one per annotatable aggregate.
func TargetCompany(id int64) NoteTarget { return NoteTarget{Kind: "company", ID: id} }
func TargetProduct(id int64) NoteTarget { return NoteTarget{Kind: "product", ID: id} }
func TargetQuote(id int64) NoteTarget   { return NoteTarget{Kind: "quote", ID: id} }
func TargetOrder(id int64) NoteTarget   { return NoteTarget{Kind: "order", ID: id} }
func TargetInvoice(id int64) NoteTarget { return NoteTarget{Kind: "invoice", ID: id} }
func TargetContact(id int64) NoteTarget { return NoteTarget{Kind: "contact", ID: id} }
func TargetAddress(id int64) NoteTarget { return NoteTarget{Kind: "address", ID: id} }
func TargetPlant(id int64) NoteTarget   { return NoteTarget{Kind: "plant", ID: id} }

// Target builds an untyped target for kinds outside the known set. Such
// notes are stored as-is; the note service logs a warning for them.
func Target(kind string, id int64) NoteTarget {
	return NoteTarget{Kind: strings.ToLower(strings.TrimSpace(kind)), ID: id}
}

var knownNoteKinds = map[string]struct{}{
	"company": {}, "product": {}, "quote": {}, "order": {},
	"invoice": {}, "contact": {}, "address": {}, "plant": {},
}

// KnownNoteKind reports whether kind belongs to the canonical target set.
func KnownNoteKind(kind string) bool {
	_, ok := knownNoteKinds[kind]
	return ok
}

// Note is a free-form annotation on any aggregate. Notes never follow
// their target's deletion; cleanup is the deleting caller's job.
type Note struct {
	AuditFields
	SoftDeleteField
	EntityType string
	EntityID   int64
	Title      string
	Content    string
	Priority   Priority
	Category   string
}

// Target returns the note's attachment point.
func (n *Note) Target() NoteTarget { return NoteTarget{Kind: n.EntityType, ID: n.EntityID} }

// Normalize lowercases the entity type, trims the text fields and applies
// the NORMAL priority default.
func (n *Note) Normalize() error {
	n.EntityType = strings.ToLower(strings.TrimSpace(n.EntityType))
	n.Title = strings.TrimSpace(n.Title)
	n.Content = strings.TrimSpace(n.Content)
	n.Category = strings.TrimSpace(n.Category)
	p, err := ParsePriority(string(n.Priority))
	if err != nil {
		return err
	}
	n.Priority = p
	return nil
}

// Validate requires a target and non-empty content. Unknown entity types
// are accepted here; the service warns about them.
func (n *Note) Validate() error {
	if _, err := validate.Required("entity_type", n.EntityType); err != nil {
		return err
	}
	if err := validate.PositiveID("entity_id", n.EntityID); err != nil {
		return err
	}
	_, err := validate.Required("content", n.Content)
	return err
}
