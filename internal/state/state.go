// Package state holds the in-memory live document. There is exactly one
// logical document; handler goroutines serialize their edits through the
// holder's mutex, which is the only locking the system needs.
package state

import (
	"sync"
	"time"

	"github.com/tabdeck/tabdeck/internal/schema"
)

// Live is the in-memory copy of the persisted document.
type Live struct {
	mu         sync.RWMutex
	doc        *schema.Document
	lastLoaded time.Time
}

// NewLive creates an empty holder. Replace must be called before use,
// normally with the result of the storage adapter's Load.
func NewLive() *Live {
	return &Live{}
}

// Replace swaps in a new document wholesale.
func (l *Live) Replace(doc *schema.Document) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.doc = doc
	l.lastLoaded = time.Now()
}

// Snapshot returns a deep copy of the current document. Callers may mutate
// the copy freely.
func (l *Live) Snapshot() *schema.Document {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.doc.Clone()
}

// Update runs fn against the live document under the write lock and returns
// a snapshot of the result. When fn fails the document is left untouched.
func (l *Live) Update(fn func(doc *schema.Document) error) (*schema.Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	working := l.doc.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	l.doc = working
	return working.Clone(), nil
}

// LastLoaded returns when the document was last replaced from storage.
func (l *Live) LastLoaded() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.lastLoaded
}
