package store

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lowrydr/tapline/internal/errs"
	"github.com/lowrydr/tapline/internal/logger"
	"github.com/lowrydr/tapline/internal/utils"
	"github.com/lowrydr/tapline/internal/version"
)

// Store is the durable record of installed versions. Layout under root:
//
//	versions/<version>/<binary>      stored executable
//	versions/<version>/metadata.json record
//	cache/                           release metadata cache
//	current                          file naming the active version
//
// Every mutation commits through a temp path plus a single atomic rename,
// so concurrent runs can race but never observe a half-written version or
// a dangling current pointer.
type Store struct {
	root        string
	versionsDir string
	cacheDir    string
	binary      string
	keep        int
}

const (
	metadataFile = "metadata.json"
	currentFile  = "current"
)

// New opens (creating if needed) the store rooted at root, managing the
// named binary with a retention bound of keep non-current versions.
func New(root, binary string, keep int) (*Store, error) {
	if keep < 1 {
		keep = 1
	}
	s := &Store{
		root:        root,
		versionsDir: filepath.Join(root, "versions"),
		cacheDir:    filepath.Join(root, "cache"),
		binary:      binary,
		keep:        keep,
	}
	for _, dir := range []string{s.versionsDir, s.cacheDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return nil, errs.Wrap(errs.StorageError, err, "failed to open store at %s", root)
		}
	}
	return s, nil
}

func (s *Store) Root() string     { return s.root }
func (s *Store) CacheDir() string { return s.cacheDir }

// BinaryPath returns where a version's stored binary lives.
func (s *Store) BinaryPath(ver string) string {
	return filepath.Join(s.versionsDir, ver, s.binary)
}

// Install writes data and rec as one unit: everything is staged in a temp
// directory inside the store and renamed into place, then retention
// eviction runs. Install never touches the current pointer; activation is
// a separate SetCurrent call so versions can be pre-staged.
func (s *Store) Install(rec Record, data []byte, mode fs.FileMode) (Record, error) {
	if _, err := version.Parse(rec.Version); err != nil {
		return Record{}, err
	}
	if len(data) == 0 {
		return Record{}, errs.New(errs.StorageError, "refusing to install empty binary for version %s", rec.Version)
	}
	if rec.InstalledAt.IsZero() {
		rec.InstalledAt = time.Now().UTC()
	}
	if mode&0o111 == 0 {
		mode |= 0o755
	}

	tmpDir := filepath.Join(s.versionsDir, ".tmp-"+rec.Version+"-"+randSuffix())
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return Record{}, errs.Wrap(errs.StorageError, err, "failed to stage version %s", rec.Version)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	binPath := filepath.Join(tmpDir, s.binary)
	if err := os.WriteFile(binPath, data, mode.Perm()); err != nil {
		return Record{}, errs.Wrap(errs.StorageError, err, "failed to write binary for version %s", rec.Version)
	}
	if err := utils.WriteJSONAtomic(filepath.Join(tmpDir, metadataFile), rec); err != nil {
		return Record{}, errs.Wrap(errs.StorageError, err, "failed to write metadata for version %s", rec.Version)
	}

	finalDir := filepath.Join(s.versionsDir, rec.Version)
	if err := s.swapDir(tmpDir, finalDir); err != nil {
		return Record{}, errs.Wrap(errs.StorageError, err, "failed to commit version %s", rec.Version)
	}

	if err := s.EvictExcess(s.keep); err != nil {
		// retention is best-effort bookkeeping; the install itself is done
		logger.Warn("retention eviction failed: %v", err)
	}

	rec.BinaryPath = s.BinaryPath(rec.Version)
	return rec, nil
}

// SetCurrent atomically repoints the current indirection. An external
// observer sees either the old target or the new one, never a missing or
// partial pointer.
func (s *Store) SetCurrent(ver string) error {
	if _, ok, err := s.Get(ver); err != nil {
		return err
	} else if !ok {
		return errs.New(errs.VersionNotFound, "version %q not found in store", ver)
	}
	path := filepath.Join(s.root, currentFile)
	tmp := path + ".tmp-" + randSuffix()
	if err := utils.WriteFileAtomic(tmp, path, bytes.NewReader([]byte(ver+"\n")), 0o644); err != nil {
		return errs.Wrap(errs.StorageError, err, "failed to update current pointer")
	}
	return nil
}

// CurrentVersion reads the current pointer. ok is false when no version
// has ever been activated.
func (s *Store) CurrentVersion() (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(s.root, currentFile))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Wrap(errs.StorageError, err, "failed to read current pointer")
	}
	ver := string(bytes.TrimSpace(data))
	if ver == "" {
		return "", false, nil
	}
	return ver, true, nil
}

// Current returns the active record, if any.
func (s *Store) Current() (Record, bool, error) {
	ver, ok, err := s.CurrentVersion()
	if err != nil || !ok {
		return Record{}, false, err
	}
	rec, ok, err := s.Get(ver)
	if err != nil {
		return Record{}, false, err
	}
	if !ok {
		// pointer invariant violated externally; surface, don't guess
		return Record{}, false, errs.New(errs.StorageError, "current pointer references missing version %q", ver)
	}
	return rec, true, nil
}

// Get loads one record by version string.
func (s *Store) Get(ver string) (Record, bool, error) {
	metaPath := filepath.Join(s.versionsDir, ver, metadataFile)
	var rec Record
	if err := utils.ReadJSONFile(metaPath, &rec); err != nil {
		if os.IsNotExist(err) {
			return Record{}, false, nil
		}
		return Record{}, false, errs.Wrap(errs.StorageError, err, "failed to read metadata for version %s", ver)
	}
	rec.BinaryPath = s.BinaryPath(ver)
	return rec, true, nil
}

// List returns all records ordered by install timestamp, newest first.
func (s *Store) List() ([]Record, error) {
	entries, err := os.ReadDir(s.versionsDir)
	if err != nil {
		return nil, errs.Wrap(errs.StorageError, err, "failed to list store")
	}

	var records []Record
	for _, e := range entries {
		if !e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		rec, ok, err := s.Get(e.Name())
		if err != nil {
			logger.Debug("skipping unreadable version dir %s: %v", e.Name(), err)
			continue
		}
		if ok {
			records = append(records, rec)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].InstalledAt.Equal(records[j].InstalledAt) {
			return records[i].InstalledAt.After(records[j].InstalledAt)
		}
		return records[i].Version > records[j].Version
	})
	return records, nil
}

// Remove deletes a stored version. The active version is protected: the
// caller must switch current first.
func (s *Store) Remove(ver string) error {
	cur, hasCur, err := s.CurrentVersion()
	if err != nil {
		return err
	}
	if hasCur && cur == ver {
		return errs.New(errs.RollbackFailed, "version %s is the active version; switch current before removing it", ver)
	}
	if _, ok, err := s.Get(ver); err != nil {
		return err
	} else if !ok {
		return errs.New(errs.VersionNotFound, "version %q not found in store", ver)
	}
	if err := os.RemoveAll(filepath.Join(s.versionsDir, ver)); err != nil {
		return errs.Wrap(errs.StorageError, err, "failed to remove version %s", ver)
	}
	return nil
}

// EvictExcess deletes the oldest non-current records beyond keep. The
// current version is never eligible regardless of age.
func (s *Store) EvictExcess(keep int) error {
	records, err := s.List()
	if err != nil {
		return err
	}
	cur, hasCur, err := s.CurrentVersion()
	if err != nil {
		return err
	}

	var nonCurrent []Record
	for _, rec := range records {
		if hasCur && rec.Version == cur {
			continue
		}
		nonCurrent = append(nonCurrent, rec)
	}
	if len(nonCurrent) <= keep {
		return nil
	}

	// List is newest-first, so everything past keep is oldest
	for _, rec := range nonCurrent[keep:] {
		if err := os.RemoveAll(filepath.Join(s.versionsDir, rec.Version)); err != nil {
			return errs.Wrap(errs.StorageError, err, "failed to evict version %s", rec.Version)
		}
		logger.Debug("evicted old version %s (installed %s)", rec.Version, rec.InstalledAt.Format(time.RFC3339))
	}
	return nil
}

// ReadBinary returns the stored bytes for a version, validating the
// executable invariant on the way out.
func (s *Store) ReadBinary(ver string) ([]byte, fs.FileMode, error) {
	path := s.BinaryPath(ver)
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, errs.Wrap(errs.StorageError, err, "stored binary for version %s is missing", ver)
	}
	if info.Size() == 0 {
		return nil, 0, errs.New(errs.StorageError, "stored binary for version %s is empty", ver)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, errs.Wrap(errs.StorageError, err, "failed to read stored binary for version %s", ver)
	}
	mode := info.Mode()
	if mode&0o111 == 0 {
		mode |= 0o755
	}
	return data, mode, nil
}

// swapDir renames tmpDir over finalDir, displacing any existing directory
// first so the visible path flips in a single rename.
func (s *Store) swapDir(tmpDir, finalDir string) error {
	if _, err := os.Stat(finalDir); err == nil {
		old := finalDir + ".old-" + randSuffix()
		if err := os.Rename(finalDir, old); err != nil {
			return err
		}
		defer func() { _ = os.RemoveAll(old) }()
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.Rename(tmpDir, finalDir); err != nil {
		return err
	}
	return utils.FsyncDir(s.versionsDir)
}

func randSuffix() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
