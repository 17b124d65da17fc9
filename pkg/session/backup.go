package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/natshell-dev/natshell/pkg/difftext"
)

// BackupRecord is the Backup Record data model.
type BackupRecord struct {
	OriginalPath string    `json:"original_path"`
	BackupPath   string    `json:"backup_path"`
	Timestamp    time.Time `json:"timestamp"`
}

// BackupStore manages the backup "arena": a single directory holding
// every <basename>.<unix-ms>.bak snapshot, pruned on write. Filenames
// encode (original basename, timestamp); pruning is a periodic
// sort-and-trim on write.
type BackupStore struct {
	Dir        string
	MaxPerFile int
}

// NewBackupStore ensures Dir exists with mode 0o700.
func NewBackupStore(dir string, maxPerFile int) (*BackupStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating backup dir: %w", err)
	}
	if maxPerFile <= 0 {
		maxPerFile = 10
	}
	return &BackupStore{Dir: dir, MaxPerFile: maxPerFile}, nil
}

// rejectSymlinkComponents walks every component of path (from the
// filesystem root down, so symlinked parents of the backup directory count
// too) and fails if any is a symlink, an anti-exfiltration guard
// against a backup destination that has been swapped out from under us.
func rejectSymlinkComponents(path string) error {
	cur := string(filepath.Separator)
	for _, part := range splitPath(path) {
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if err != nil {
			if os.IsNotExist(err) {
				continue // not-yet-created components can't be symlinks
			}
			return fmt.Errorf("checking backup path component %s: %w", cur, err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("refusing backup destination: %s is a symlink", cur)
		}
	}
	return nil
}

func splitPath(path string) []string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	slashed := filepath.ToSlash(filepath.Clean(abs))
	raw := strings.Split(slashed, "/")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Create snapshots the current content of originalPath before a mutation,
// then prunes older backups for that same file down to MaxPerFile.
func (s *BackupStore) Create(originalPath string, content []byte) (*BackupRecord, error) {
	basename := filepath.Base(originalPath)
	ts := time.Now().UnixMilli()
	backupPath := filepath.Join(s.Dir, fmt.Sprintf("%s.%d.bak", basename, ts))

	if err := rejectSymlinkComponents(backupPath); err != nil {
		return nil, err
	}
	if err := os.WriteFile(backupPath, content, 0o600); err != nil {
		return nil, fmt.Errorf("writing backup for %s: %w", originalPath, err)
	}

	rec := &BackupRecord{OriginalPath: originalPath, BackupPath: backupPath, Timestamp: time.Now()}
	if err := s.prune(basename); err != nil {
		return rec, err
	}
	return rec, nil
}

// prune keeps only the newest MaxPerFile backups for basename, deleting
// the rest oldest-first.
func (s *BackupStore) prune(basename string) error {
	entries, err := s.listFor(basename)
	if err != nil {
		return err
	}
	if len(entries) <= s.MaxPerFile {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ts > entries[j].ts })
	for _, e := range entries[s.MaxPerFile:] {
		os.Remove(filepath.Join(s.Dir, e.name))
	}
	return nil
}

type backupEntry struct {
	name string
	ts   int64
}

func (s *BackupStore) listFor(basename string) ([]backupEntry, error) {
	files, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("listing backup dir: %w", err)
	}
	prefix := basename + "."
	var out []backupEntry
	for _, f := range files {
		name := f.Name()
		if !hasPrefixSuffix(name, prefix, ".bak") {
			continue
		}
		tsStr := name[len(prefix) : len(name)-len(".bak")]
		ts, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, backupEntry{name: name, ts: ts})
	}
	return out, nil
}

func hasPrefixSuffix(s, prefix, suffix string) bool {
	return len(s) >= len(prefix)+len(suffix) && s[:len(prefix)] == prefix && s[len(s)-len(suffix):] == suffix
}

// Newest returns the most recent BackupRecord for originalPath, or false
// if none exist.
func (s *BackupStore) Newest(originalPath string) (*BackupRecord, bool, error) {
	basename := filepath.Base(originalPath)
	entries, err := s.listFor(basename)
	if err != nil {
		return nil, false, err
	}
	if len(entries) == 0 {
		return nil, false, nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ts > entries[j].ts })
	newest := entries[0]
	return &BackupRecord{
		OriginalPath: originalPath,
		BackupPath:   filepath.Join(s.Dir, newest.name),
		Timestamp:    time.UnixMilli(newest.ts),
	}, true, nil
}

// Undo restores originalPath to the content of its newest backup and
// returns the diff from the pre-undo content to the restored content,
// sharing the diffmatchpatch-based unified-diff helper edit_file uses.
func (s *BackupStore) Undo(originalPath string) (string, error) {
	rec, ok, err := s.Newest(originalPath)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no backup found for %s", originalPath)
	}

	backupContent, err := os.ReadFile(rec.BackupPath)
	if err != nil {
		return "", fmt.Errorf("reading backup %s: %w", rec.BackupPath, err)
	}
	currentContent, _ := os.ReadFile(originalPath)

	if err := os.WriteFile(originalPath, backupContent, 0o644); err != nil {
		return "", fmt.Errorf("restoring %s from backup: %w", originalPath, err)
	}

	return difftext.Unified(filepath.Base(originalPath), string(currentContent), string(backupContent)), nil
}
