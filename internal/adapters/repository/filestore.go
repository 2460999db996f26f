package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/okian/apex/internal/domain/model"
	"github.com/okian/apex/pkg/logger"
	"github.com/okian/apex/pkg/metrics"
)

const (
	defaultBackupDir = "backups"
	backupLayout     = "20060102_150405"
	filePerm         = 0o644
	dirPerm          = 0o755
)

// backup_YYYYMMDD_HHMMSS.json, with an optional _N suffix for snapshots
// taken within the same second.
var backupPattern = regexp.MustCompile(`^backup_(\d{8}_\d{6})(?:_(\d+))?\.json$`)

// FileStore implements Store on the local file system.
type FileStore struct {
	path      string
	backupDir string
	retention int
	now       func() time.Time
	logger    logger.Logger

	// mu serializes file writes between the board and the snapshot subscriber.
	mu sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store for the primary document at path.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path:      path,
		backupDir: defaultBackupDir,
		now:       time.Now,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the primary document path.
func (s *FileStore) Path() string { return s.path }

// BackupDir returns the snapshot directory.
func (s *FileStore) BackupDir() string { return s.backupDir }

// Load implements Store.
func (s *FileStore) Load(ctx context.Context) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := readDocument(s.path)
	switch {
	case err == nil:
		return doc, nil
	case errors.Is(err, fs.ErrNotExist):
		return &model.Document{}, nil
	case !errors.Is(err, ErrCorruptStore):
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}

	s.logger.Warn(ctx, "primary document is corrupt, trying latest backup",
		logger.String("path", s.path),
		logger.Error(err),
	)

	backup, berr := s.latestBackup()
	if berr != nil {
		s.logger.Warn(ctx, "no backup to recover from, starting empty", logger.Error(berr))
		return &model.Document{}, nil
	}
	doc, berr = readDocument(backup)
	if berr != nil {
		s.logger.Warn(ctx, "latest backup is unusable, starting empty",
			logger.String("backup", backup),
			logger.Error(berr),
		)
		return &model.Document{}, nil
	}

	if werr := s.write(s.path, doc); werr != nil {
		return nil, fmt.Errorf("rewrite %s from %s: %w", s.path, backup, werr)
	}
	metrics.RecordStoreRecovery()
	s.logger.Info(ctx, "recovered document from backup",
		logger.String("backup", backup),
		logger.Int("collaborators", len(doc.Collaborators)),
	)
	return doc, nil
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.write(s.path, doc)
	metrics.RecordStoreSave(err)
	if err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	return nil
}

// Snapshot implements Store.
func (s *FileStore) Snapshot(_ context.Context, doc *model.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.backupDir, dirPerm); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	data, err := encode(doc)
	if err != nil {
		return "", err
	}

	stamp := s.now().Format(backupLayout)
	for seq := 0; ; seq++ {
		name := "backup_" + stamp + ".json"
		if seq > 0 {
			name = "backup_" + stamp + "_" + strconv.Itoa(seq) + ".json"
		}
		path := filepath.Join(s.backupDir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create snapshot: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write snapshot: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close snapshot: %w", err)
		}
		metrics.RecordSnapshot()
		return path, nil
	}
}

// Prune removes the oldest snapshots beyond the retention limit and returns
// how many were deleted.
func (s *FileStore) Prune(ctx context.Context) (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	backups, err := s.backups()
	if err != nil {
		return 0, err
	}
	if len(backups) <= s.retention {
		return 0, nil
	}

	removed := 0
	for _, b := range backups[s.retention:] {
		if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn(ctx, "failed to prune backup", logger.String("path", b.path), logger.Error(err))
			continue
		}
		removed++
	}
	metrics.RecordSnapshotsPruned(removed)
	return removed, nil
}

// Backups lists snapshot paths, newest first.
func (s *FileStore) Backups() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	backups, err := s.backups()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(backups))
	for i, b := range backups {
		out[i] = b.path
	}
	return out, nil
}

type backupFile struct {
	path  string
	stamp string
	seq   int
}

// backups returns the snapshot files, newest first. Callers hold mu.
func (s *FileStore) backups() ([]backupFile, error) {
	entries, err := os.ReadDir(s.backupDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var out []backupFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := backupPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		seq := 0
		if m[2] != "" {
			seq, _ = strconv.Atoi(m[2])
		}
		out = append(out, backupFile{path: filepath.Join(s.backupDir, e.Name()), stamp: m[1], seq: seq})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].stamp != out[j].stamp {
			return out[i].stamp > out[j].stamp
		}
		return out[i].seq > out[j].seq
	})
	return out, nil
}

func (s *FileStore) latestBackup() (string, error) {
	backups, err := s.backups()
	if err != nil {
		return "", err
	}
	if len(backups) == 0 {
		return "", ErrNoBackup
	}
	return backups[0].path, nil
}

func (s *FileStore) write(path string, doc *model.Document) error {
	data, err := encode(doc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, filePerm)
}

func readDocument(path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrCorruptStore, path)
	}
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptStore, path, err)
	}
	return &doc, nil
}

func encode(doc *model.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}
