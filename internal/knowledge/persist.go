package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/finsight-ai/finsight/internal/domain"
)

// File is the on-disk representation of the knowledge base. QAPairs is
// authoritative; Categories is a derived view persisted for convenience and
// regenerated on load whenever it disagrees with QAPairs.
type File struct {
	Metadata   Metadata                     `json:"metadata"`
	QAPairs    []*domain.QAEntry            `json:"qa_pairs"`
	Categories map[string][]*domain.QAEntry `json:"categories"`
}

// Save serializes the store to path, writing the current on-disk content to
// a uniquely named file under backupDir first. A failure during the backup
// step aborts the save without touching the primary file; the new content is
// written to a temp file and renamed into place so a mid-write failure never
// corrupts the previous file.
func (s *Store) Save(path, backupDir string) (backupPath string, err error) {
	s.mu.RLock()
	file := File{
		Metadata:   s.metadataLocked(),
		QAPairs:    cloneEntries(s.entries),
		Categories: make(map[string][]*domain.QAEntry, len(s.byCategory)),
	}
	for category, bucket := range s.byCategory {
		file.Categories[category] = cloneEntries(bucket)
	}
	s.mu.RUnlock()

	payload, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to encode knowledge file", err)
	}

	if _, statErr := os.Stat(path); statErr == nil {
		backupPath, err = backupFile(path, backupDir)
		if err != nil {
			return "", domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to back up knowledge file", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return backupPath, domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to write knowledge file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return backupPath, domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to replace knowledge file", err)
	}

	return backupPath, nil
}

// Load reads a knowledge file from path and replaces the store's contents.
// The qa_pairs array is authoritative: the categories view is rebuilt from
// it, and duplicate normalized questions keep their first occurrence and are
// reported in the returned slice.
func (s *Store) Load(path string) (skipped []string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to read knowledge file", err)
	}

	var file File
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to parse knowledge file", err)
	}

	return s.replaceAll(file.QAPairs), nil
}

// backupFile copies the current content of path into backupDir under a
// timestamped name, creating the directory if needed.
func backupFile(path, backupDir string) (string, error) {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", err
	}

	current, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	stamp := time.Now().UTC().Format("20060102_150405.000000000")
	backupPath := filepath.Join(backupDir, fmt.Sprintf("qa_backup_%s.json", stamp))
	if err := os.WriteFile(backupPath, current, 0o644); err != nil {
		return "", err
	}
	return backupPath, nil
}
