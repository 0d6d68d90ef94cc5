package importer

import (
	"fmt"
	"strings"

	"github.com/sadopc/tasklist/internal/store"
)

// TagStore is the tag persistence the reconciler needs. GetTagByName must
// return nil, nil when the tag does not exist.
type TagStore interface {
	GetTagByName(name string) (*store.Tag, error)
	CreateTag(name, color string) (*store.Tag, error)
}

// Reconciler maps tag names onto tag rows, creating missing ones.
type Reconciler struct {
	tags TagStore
}

func NewReconciler(tags TagStore) *Reconciler {
	return &Reconciler{tags: tags}
}

// Reconcile returns the tag named name, creating it with ColorFor(name) if
// it does not exist yet. An existing tag is returned unchanged.
func (r *Reconciler) Reconcile(name string) (*store.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("reconcile tag: empty name")
	}

	existing, err := r.tags.GetTagByName(name)
	if err != nil {
		return nil, fmt.Errorf("look up tag %q: %w", name, err)
	}
	if existing != nil {
		return existing, nil
	}

	created, err := r.tags.CreateTag(name, ColorFor(name))
	if err != nil {
		return nil, fmt.Errorf("create tag %q: %w", name, err)
	}
	return created, nil
}
