package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"bookfolio/internal/config"
	"bookfolio/internal/domain"
	applog "bookfolio/internal/log"
	"bookfolio/internal/repos"
)

var errSlotUnread = errors.New("slot was not read at load; write skipped")

// StorageKey is the slot holding the serialized registry.
const StorageKey = "amazonBooks"

// Slot is the single string-keyed storage the registry writes through to.
// Get returns sql.ErrNoRows when the key has never been written.
type Slot interface {
	Get(key string) (string, error)
	Put(key, value string) error
}

// Warning codes surfaced to the user.
const (
	WarnStorageFull = "storage.full"
	WarnSaveFailed  = "storage.save_failed"
	WarnCorrupt     = "storage.corrupt"
	WarnLoadFailed  = "storage.load_failed"
)

type Warning struct {
	Code    string
	Message string
	Err     error
}

// Registry owns every book record. Mutations go through its methods and are
// written back to the slot after a quiet period; reads return copies.
type Registry struct {
	Slot      Slot
	Expander *Expander
	Removal  config.RemovalPolicy
	// OnWarning is called after the warning is queued, outside the
	// registry's locks.
	OnWarning func(Warning)
	Now       func() time.Time

	mu       sync.Mutex
	books    []domain.Book
	gen      uint64
	warnings []Warning

	// saveMu serialises writes; savedGen is the generation last persisted.
	// loadFailed blocks writes so a slot that could not be read is never
	// overwritten by the stand-in sample set.
	saveMu     sync.Mutex
	savedGen   uint64
	loadFailed bool
	saver      *Debouncer
}

func NewRegistry(slot Slot, exp *Expander, removal config.RemovalPolicy, saveDelay time.Duration) *Registry {
	return &Registry{
		Slot:     slot,
		Expander: exp,
		Removal:  removal,
		Now:      time.Now,
		books:    []domain.Book{},
		saver:    NewDebouncer(saveDelay),
	}
}

// Load adopts the persisted records. A missing slot installs the sample set
// and writes it at once; an unreadable payload installs the samples, warns,
// and lets the next save overwrite it. Load never fails the session.
func (r *Registry) Load() {
	raw, err := r.Slot.Get(StorageKey)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		r.install(SampleBooks(r.Now()))
		applog.Info(nil, "registry.load.samples", map[string]any{"reason": "empty"})
		r.Flush()
		return
	case err != nil:
		r.install(SampleBooks(r.Now()))
		r.saveMu.Lock()
		r.loadFailed = true
		r.saveMu.Unlock()
		r.warn(Warning{Code: WarnLoadFailed, Message: "Saved books could not be read; showing sample books. Changes will not be saved until restart.", Err: err})
		return
	}

	books, err := DecodeBooks(raw)
	if err != nil {
		r.install(SampleBooks(r.Now()))
		r.warn(Warning{Code: WarnCorrupt, Message: "Saved books were damaged and have been replaced with sample books.", Err: err})
		r.scheduleSave()
		return
	}

	r.mu.Lock()
	r.books = books
	r.gen++
	gen := r.gen
	r.mu.Unlock()

	r.saveMu.Lock()
	r.savedGen = gen
	r.saveMu.Unlock()
	applog.Info(nil, "registry.load", map[string]any{"books": len(books)})
}

func (r *Registry) install(books []domain.Book) {
	r.mu.Lock()
	r.books = books
	r.gen++
	r.mu.Unlock()
}

// Submit expands sub and appends the resulting records.
func (r *Registry) Submit(sub domain.Submission, selected domain.Market) ([]domain.Book, error) {
	books, err := r.Expander.Expand(sub, selected)
	if err != nil {
		return nil, err
	}
	r.Add(books...)
	return books, nil
}

// Add appends records produced by the Expander.
func (r *Registry) Add(books ...domain.Book) {
	if len(books) == 0 {
		return
	}
	r.mu.Lock()
	r.books = append(r.books, books...)
	r.gen++
	r.mu.Unlock()
	r.scheduleSave()
}

// Update replaces the patched fields of the record with id.
func (r *Registry) Update(id string, p domain.Patch) (domain.Book, error) {
	if err := validatePatch(p); err != nil {
		return domain.Book{}, err
	}
	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return domain.Book{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	r.books[i] = p.Apply(r.books[i])
	updated := r.books[i]
	r.gen++
	r.mu.Unlock()
	r.scheduleSave()
	return updated, nil
}

func validatePatch(p domain.Patch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if p.Author != nil && strings.TrimSpace(*p.Author) == "" {
		return fmt.Errorf("%w: author is required", ErrValidation)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, *p.Status)
	}
	if p.Account != nil && !domain.ValidAccount(*p.Account) {
		return fmt.Errorf("%w: unknown account %q", ErrValidation, *p.Account)
	}
	return nil
}

// ToggleStatus flips active/archived on the record with id.
func (r *Registry) ToggleStatus(id string) (domain.Book, error) {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return domain.Book{}, fmt.Errorf("toggle %s: %w", id, ErrNotFound)
	}
	r.books[i].Status = r.books[i].Status.Toggle()
	updated := r.books[i]
	r.gen++
	r.mu.Unlock()
	r.scheduleSave()
	return updated, nil
}

// DeleteGroup removes every record sharing groupID and reports how many went.
func (r *Registry) DeleteGroup(groupID string) (int, error) {
	if r.Removal != config.RemoveDelete {
		return 0, ErrDeleteDisabled
	}
	r.mu.Lock()
	kept := make([]domain.Book, 0, len(r.books))
	for _, b := range r.books {
		if b.BaseID != groupID {
			kept = append(kept, b)
		}
	}
	removed := len(r.books) - len(kept)
	if removed == 0 {
		r.mu.Unlock()
		return 0, fmt.Errorf("delete group %s: %w", groupID, ErrNotFound)
	}
	r.books = kept
	r.gen++
	r.mu.Unlock()
	r.scheduleSave()
	return removed, nil
}

func (r *Registry) indexLocked(id string) int {
	for i := range r.books {
		if r.books[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns a copy of the record with id.
func (r *Registry) Get(id string) (domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return domain.Book{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return r.books[i], nil
}

// All returns a copy of every record in insertion order.
func (r *Registry) All() []domain.Book {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append(make([]domain.Book, 0, len(r.books)), r.books...)
}

// View projects the registry through Gallery.
func (r *Registry) View(m domain.Market, dedupe bool) []domain.Book {
	return Gallery(r.All(), m, dedupe)
}

// Warnings drains the queued warnings.
func (r *Registry) Warnings() []Warning {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.warnings
	r.warnings = nil
	return out
}

func (r *Registry) warn(w Warning) {
	applog.Warn(nil, "registry."+w.Code, w.Err, map[string]any{"message": w.Message})
	r.mu.Lock()
	r.warnings = append(r.warnings, w)
	hook := r.OnWarning
	r.mu.Unlock()
	if hook != nil {
		hook(w)
	}
}

func (r *Registry) scheduleSave() { r.saver.Debounce(r.save) }

// Flush cancels any pending save and writes the current state now.
func (r *Registry) Flush() {
	r.saver.Cancel()
	r.save()
}

// Close writes any unsaved state. The registry stays usable in memory.
func (r *Registry) Close() { r.Flush() }

// save writes the state as of the moment it runs. Writes never overlap, so a
// later save always carries a newer or equal snapshot than an earlier one.
// Warnings are raised after saveMu is released.
func (r *Registry) save() {
	if w, ok := r.write(); ok {
		r.warn(w)
	}
}

func (r *Registry) write() (Warning, bool) {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	r.mu.Lock()
	gen := r.gen
	if gen == r.savedGen {
		r.mu.Unlock()
		return Warning{}, false
	}
	if r.loadFailed {
		r.mu.Unlock()
		// Flush after this does not warn again for the same state
		r.savedGen = gen
		return Warning{Code: WarnSaveFailed, Message: "Saved books could not be read earlier, so changes are kept for this session only.", Err: errSlotUnread}, true
	}
	payload, err := EncodeBooks(r.books)
	count := len(r.books)
	r.mu.Unlock()
	if err != nil {
		return Warning{Code: WarnSaveFailed, Message: "Books could not be saved; changes are kept for this session.", Err: err}, true
	}

	if err := r.Slot.Put(StorageKey, payload); err != nil {
		if errors.Is(err, repos.ErrQuotaExceeded) {
			return Warning{Code: WarnStorageFull, Message: "Storage is full. Remove old records or smaller cover images; changes are kept for this session only.", Err: err}, true
		}
		return Warning{Code: WarnSaveFailed, Message: "Books could not be saved; changes are kept for this session.", Err: err}, true
	}
	r.savedGen = gen
	applog.Info(nil, "registry.save", map[string]any{"books": count, "bytes": len(payload)})
	return Warning{}, false
}
