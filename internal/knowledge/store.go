// Package knowledge implements the curated question/answer store: an
// in-memory, file-backed collection of QA entries grouped by category, with
// validation, de-duplication, and backup-before-overwrite persistence.
package knowledge

import (
	"sort"
	"sync"
	"time"

	"github.com/finsight-ai/finsight/internal/domain"
)

// Metadata describes the store's derived summary counters. It is recomputed
// on every mutation so it can never drift from the entries themselves.
type Metadata struct {
	TotalQAPairs   int            `json:"total_qa_pairs"`
	Categories     []string       `json:"categories"`
	CategoryCounts map[string]int `json:"category_counts"`
	Sources        []string       `json:"sources"`
}

// Store owns the curated QA entries. Entries preserve insertion order for
// deterministic export; byCategory and byQuestion are derived views kept
// consistent under the store's lock. All mutation goes through the Manager.
type Store struct {
	mu         sync.RWMutex
	entries    []*domain.QAEntry
	byCategory map[string][]*domain.QAEntry
	byQuestion map[string]*domain.QAEntry

	// revision increments on every successful mutation; the index worker
	// uses it to detect stores that need re-embedding.
	revision uint64
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		entries:    []*domain.QAEntry{},
		byCategory: make(map[string][]*domain.QAEntry),
		byQuestion: make(map[string]*domain.QAEntry),
	}
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Revision returns the current mutation counter.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Get returns the entry whose normalized question matches, or nil.
func (s *Store) Get(question string) *domain.QAEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byQuestion[domain.NormalizeQuestion(question)]
	if !ok {
		return nil
	}
	clone := *e
	return &clone
}

// List returns copies of all entries in insertion order.
func (s *Store) List() []*domain.QAEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEntries(s.entries)
}

// ListCategory returns copies of the entries in one category bucket.
// Returns ErrCategoryNotFound for a category with no live entries.
func (s *Store) ListCategory(category string) ([]*domain.QAEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket, ok := s.byCategory[category]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return cloneEntries(bucket), nil
}

// Categories returns the category names in sorted order.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categoriesLocked()
}

// Metadata returns the derived counters for the current state.
func (s *Store) Metadata() Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadataLocked()
}

// add inserts a new entry. Fails with ErrDuplicateQuestion if the normalized
// question is already present. Called by the Manager under its write lock.
func (s *Store) add(entry *domain.QAEntry) error {
	if err := domain.ValidateQAEntry(entry); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := entry.NormalizedQuestion()
	if _, exists := s.byQuestion[key]; exists {
		return domain.ErrDuplicateQuestion
	}

	clone := *entry
	s.entries = append(s.entries, &clone)
	s.byQuestion[key] = &clone
	s.byCategory[clone.Category] = append(s.byCategory[clone.Category], &clone)
	s.revision++
	return nil
}

// UpdateFields holds the mutable fields of an entry. Nil pointers leave the
// corresponding field unchanged.
type UpdateFields struct {
	Answer     *string
	Context    *string
	Category   *string
	Confidence *domain.Confidence
}

// update applies field changes to the entry matching the normalized
// question. A category change moves the entry between buckets atomically
// under the lock; the old bucket is pruned if it becomes empty.
func (s *Store) update(question string, fields UpdateFields) (*domain.QAEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NormalizeQuestion(question)
	entry, ok := s.byQuestion[key]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}

	if fields.Confidence != nil {
		updated := *entry
		updated.Confidence = *fields.Confidence
		if err := domain.ValidateQAEntry(&updated); err != nil {
			return nil, err
		}
	}
	if fields.Answer != nil {
		updated := *entry
		updated.Answer = *fields.Answer
		if err := domain.ValidateQAEntry(&updated); err != nil {
			return nil, err
		}
	}

	oldCategory := entry.Category

	if fields.Answer != nil {
		entry.Answer = *fields.Answer
	}
	if fields.Context != nil {
		entry.Context = *fields.Context
	}
	if fields.Confidence != nil {
		entry.Confidence = *fields.Confidence
	}
	if fields.Category != nil && *fields.Category != "" && *fields.Category != oldCategory {
		entry.Category = *fields.Category
		s.removeFromBucketLocked(oldCategory, entry)
		s.byCategory[entry.Category] = append(s.byCategory[entry.Category], entry)
	}

	now := time.Now().UTC()
	entry.UpdatedAt = &now
	s.revision++

	clone := *entry
	return &clone, nil
}

// delete removes the entry matching the normalized question, pruning its
// category bucket if it becomes empty.
func (s *Store) delete(question string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NormalizeQuestion(question)
	entry, ok := s.byQuestion[key]
	if !ok {
		return domain.ErrEntryNotFound
	}

	delete(s.byQuestion, key)
	for i, e := range s.entries {
		if e == entry {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	s.removeFromBucketLocked(entry.Category, entry)
	s.revision++
	return nil
}

// replaceAll swaps in a full entry set, rebuilding the derived views.
// Used by load; duplicate normalized questions keep the first occurrence.
func (s *Store) replaceAll(entries []*domain.QAEntry) (skipped []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = s.entries[:0]
	s.byCategory = make(map[string][]*domain.QAEntry)
	s.byQuestion = make(map[string]*domain.QAEntry)

	for _, e := range entries {
		if e == nil {
			continue
		}
		clone := *e
		key := clone.NormalizedQuestion()
		if _, exists := s.byQuestion[key]; exists {
			skipped = append(skipped, clone.Question)
			continue
		}
		s.entries = append(s.entries, &clone)
		s.byQuestion[key] = &clone
		s.byCategory[clone.Category] = append(s.byCategory[clone.Category], &clone)
	}
	s.revision++
	return skipped
}

// restore reinstates a previously captured entry set, rebuilding the
// derived views. Used to roll back an in-memory mutation whose persist
// failed, so the snapshot is duplicate-free by construction.
func (s *Store) restore(entries []*domain.QAEntry) {
	s.replaceAll(entries)
}

func (s *Store) removeFromBucketLocked(category string, entry *domain.QAEntry) {
	bucket := s.byCategory[category]
	for i, e := range bucket {
		if e == entry {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(s.byCategory, category)
	} else {
		s.byCategory[category] = bucket
	}
}

func (s *Store) categoriesLocked() []string {
	categories := make([]string, 0, len(s.byCategory))
	for category := range s.byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

func (s *Store) metadataLocked() Metadata {
	meta := Metadata{
		TotalQAPairs:   len(s.entries),
		Categories:     s.categoriesLocked(),
		CategoryCounts: make(map[string]int, len(s.byCategory)),
	}
	for category, bucket := range s.byCategory {
		meta.CategoryCounts[category] = len(bucket)
	}

	seen := make(map[string]bool)
	for _, e := range s.entries {
		if !seen[e.Source] {
			seen[e.Source] = true
			meta.Sources = append(meta.Sources, e.Source)
		}
	}
	sort.Strings(meta.Sources)
	return meta
}

func cloneEntries(entries []*domain.QAEntry) []*domain.QAEntry {
	out := make([]*domain.QAEntry, 0, len(entries))
	for _, e := range entries {
		clone := *e
		out = append(out, &clone)
	}
	return out
}
