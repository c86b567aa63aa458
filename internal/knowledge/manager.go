package knowledge

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/finsight-ai/finsight/internal/domain"
	"github.com/finsight-ai/finsight/internal/telemetry"
	"github.com/google/uuid"
)

// BackupUploader pushes a knowledge-base backup file to off-site storage.
type BackupUploader interface {
	UploadBackup(ctx context.Context, localPath string) error
}

// Manager is the single writer of the Store. Every mutation is serialized,
// applied in memory, and persisted with a backup of the previous file before
// the caller sees success. A failed persist rolls the in-memory mutation
// back, so the store and the file never disagree after an error.
type Manager struct {
	mu        sync.Mutex
	store     *Store
	path      string
	backupDir string
	uploader  BackupUploader
}

// NewManager creates a Manager owning store, persisting to path with
// backups under backupDir.
func NewManager(store *Store, path, backupDir string) *Manager {
	return &Manager{
		store:     store,
		path:      path,
		backupDir: backupDir,
	}
}

// WithBackupUploader configures off-site backup uploads. Upload failures are
// logged, never surfaced: the local backup is the durability guarantee.
func (m *Manager) WithBackupUploader(uploader BackupUploader) *Manager {
	m.uploader = uploader
	return m
}

// Store returns the managed store for read access.
func (m *Manager) Store() *Store {
	return m.store
}

// AddInput represents the input for adding a QA entry.
type AddInput struct {
	Question   string
	Answer     string
	Context    string
	Category   string
	Source     string
	Confidence domain.Confidence
}

// Add creates a new curated entry. Fails with ErrDuplicateQuestion if the
// normalized question already exists; the store is unchanged on failure.
func (m *Manager) Add(ctx context.Context, input AddInput) (*domain.QAEntry, error) {
	ctx, span := telemetry.StartSpan(ctx, "Manager.Add", telemetry.SpanAttributes{
		Category:  input.Category,
		Operation: "add",
	})
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	source := input.Source
	if source == "" {
		source = "Manual"
	}
	confidence := input.Confidence
	if confidence == "" {
		confidence = domain.ConfidenceHigh
	}

	entry := domain.NewQAEntry(
		input.Question,
		input.Answer,
		input.Context,
		input.Category,
		source,
		uuid.NewString(),
		confidence,
	)

	snapshot := m.store.List()
	if err := m.store.add(entry); err != nil {
		return nil, err
	}

	if err := m.persistLocked(ctx); err != nil {
		m.store.restore(snapshot)
		span.SetError(err)
		return nil, err
	}
	return entry, nil
}

// Update applies field changes to the entry matching question. A category
// change moves the entry between buckets atomically.
func (m *Manager) Update(ctx context.Context, question string, fields UpdateFields) (*domain.QAEntry, error) {
	ctx, span := telemetry.StartSpan(ctx, "Manager.Update", telemetry.SpanAttributes{
		Operation: "update",
	})
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.store.List()
	entry, err := m.store.update(question, fields)
	if err != nil {
		return nil, err
	}

	if err := m.persistLocked(ctx); err != nil {
		m.store.restore(snapshot)
		span.SetError(err)
		return nil, err
	}
	return entry, nil
}

// Delete removes the entry matching question.
func (m *Manager) Delete(ctx context.Context, question string) error {
	ctx, span := telemetry.StartSpan(ctx, "Manager.Delete", telemetry.SpanAttributes{
		Operation: "delete",
	})
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.store.List()
	if err := m.store.delete(question); err != nil {
		return err
	}

	if err := m.persistLocked(ctx); err != nil {
		m.store.restore(snapshot)
		span.SetError(err)
		return err
	}
	return nil
}

// Search returns entries whose question or answer contains the query,
// optionally restricted to one category. This is the operator's substring
// search over the live store, not the vector search used at query time.
func (m *Manager) Search(ctx context.Context, query, category string) []*domain.QAEntry {
	_, span := telemetry.StartSpan(ctx, "Manager.Search", telemetry.SpanAttributes{
		Category:  category,
		Operation: "search",
	})
	defer span.End()

	needle := strings.ToLower(query)
	var results []*domain.QAEntry
	for _, e := range m.store.List() {
		if category != "" && e.Category != category {
			continue
		}
		if strings.Contains(strings.ToLower(e.Question), needle) ||
			strings.Contains(strings.ToLower(e.Answer), needle) {
			results = append(results, e)
		}
	}
	return results
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped,omitempty"`
	Invalid  []string `json:"invalid,omitempty"`
}

// Import merges external entries with add semantics per entry: duplicates
// within the batch or against the store are skipped and reported, never
// overwritten. categoryOverride, when non-empty, replaces each entry's
// category before insertion.
func (m *Manager) Import(ctx context.Context, entries []*domain.QAEntry, categoryOverride string) (*ImportResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "Manager.Import", telemetry.SpanAttributes{
		Category:  categoryOverride,
		Operation: "import",
	})
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.store.List()
	result := &ImportResult{}
	for _, e := range entries {
		if e == nil {
			continue
		}
		clone := *e
		if categoryOverride != "" {
			clone.Category = categoryOverride
		}
		if clone.DocID == "" {
			clone.DocID = uuid.NewString()
		}
		if clone.AddedAt == nil {
			now := time.Now().UTC()
			clone.AddedAt = &now
		}

		switch err := m.store.add(&clone); {
		case err == nil:
			result.Imported++
		case err == domain.ErrDuplicateQuestion:
			result.Skipped = append(result.Skipped, clone.Question)
		default:
			result.Invalid = append(result.Invalid, clone.Question)
		}
	}

	if result.Imported > 0 {
		if err := m.persistLocked(ctx); err != nil {
			m.store.restore(snapshot)
			span.SetError(err)
			return nil, err
		}
	}
	return result, nil
}

// ImportFile reads a knowledge or export file and merges its qa_pairs.
func (m *Manager) ImportFile(ctx context.Context, path, categoryOverride string) (*ImportResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to read import file", err)
	}

	var file File
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to parse import file", err)
	}

	return m.Import(ctx, file.QAPairs, categoryOverride)
}

// CategoryExport is a single category's entries in exportable form.
type CategoryExport struct {
	Category   string            `json:"category"`
	QAPairs    []*domain.QAEntry `json:"qa_pairs"`
	Count      int               `json:"count"`
	ExportedAt time.Time         `json:"exported_at"`
}

// Export returns the entries of one category for external use.
func (m *Manager) Export(ctx context.Context, category string) (*CategoryExport, error) {
	_, span := telemetry.StartSpan(ctx, "Manager.Export", telemetry.SpanAttributes{
		Category:  category,
		Operation: "export",
	})
	defer span.End()

	entries, err := m.store.ListCategory(category)
	if err != nil {
		return nil, err
	}

	return &CategoryExport{
		Category:   category,
		QAPairs:    entries,
		Count:      len(entries),
		ExportedAt: time.Now().UTC(),
	}, nil
}

// Load reads the knowledge file into the store, healing the derived
// categories view and dropping duplicate questions.
func (m *Manager) Load(ctx context.Context) error {
	_, span := telemetry.StartSpan(ctx, "Manager.Load", telemetry.SpanAttributes{
		Operation: "load",
	})
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	skipped, err := m.store.Load(m.path)
	if err != nil {
		span.SetError(err)
		return err
	}
	if len(skipped) > 0 {
		log.Printf("knowledge: dropped %d duplicate questions while loading %s", len(skipped), m.path)
	}
	return nil
}

// Persist writes the store to disk with a backup of the previous file.
func (m *Manager) Persist(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "Manager.Persist", telemetry.SpanAttributes{
		Operation: "persist",
	})
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.persistLocked(ctx); err != nil {
		span.SetError(err)
		return err
	}
	return nil
}

func (m *Manager) persistLocked(ctx context.Context) error {
	backupPath, err := m.store.Save(m.path, m.backupDir)
	if err != nil {
		return err
	}

	if m.uploader != nil && backupPath != "" {
		if err := m.uploader.UploadBackup(ctx, backupPath); err != nil {
			log.Printf("knowledge: backup upload failed (local backup kept): %v", err)
		}
	}
	return nil
}
