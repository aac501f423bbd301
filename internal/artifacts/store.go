// Package artifacts stores sentence audio, concatenated recordings and
// transcripts as named blobs on an afero filesystem.
package artifacts

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/TEQST/TEQST-Backend-sub000/internal/errors"
	"github.com/TEQST/TEQST-Backend-sub000/internal/logger"
)

const (
	dirPermissions  = 0o755
	filePermissions = 0o644

	// DefaultBackupDir receives superseded blobs below the store root
	DefaultBackupDir = "_backup"

	tempPrefix = ".tmp-"
)

// Store is byte addressable blob storage. Names are slash separated and
// relative to the store root.
type Store struct {
	fs        afero.Fs
	root      string
	backupDir string
	clock     func() time.Time
	log       logger.Logger
}

// Option configures a Store
type Option func(*Store)

// WithBackupDir overrides the backup directory name
func WithBackupDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.backupDir = dir
		}
	}
}

// WithClock sets the time source used for dated backup directories
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log.Module("artifacts")
		}
	}
}

// New creates a store over an arbitrary afero filesystem, typically
// afero.NewMemMapFs in tests.
func New(fsys afero.Fs, opts ...Option) *Store {
	s := &Store{
		fs:        fsys,
		backupDir: DefaultBackupDir,
		clock:     time.Now,
		log:       logger.NewSlogLogger(nil, logger.LogLevelInfo, nil).Module("artifacts"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewOS creates a store rooted at dir on the local disk. Blobs in an OS backed
// store have local paths, which the ffmpeg concatenator requires.
func NewOS(dir string, opts ...Option) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve data directory: %w", err)
	}
	if err := os.MkdirAll(abs, dirPermissions); err != nil {
		return nil, errors.New(fmt.Errorf("create data directory: %w", err)).
			Component("artifacts").
			Category(errors.CategoryFileIO).
			Context("dir", abs).
			Build()
	}

	s := New(afero.NewBasePathFs(afero.NewOsFs(), abs), opts...)
	s.root = abs
	return s, nil
}

// cleanName validates a blob name and returns its canonical form
func cleanName(name string) (string, error) {
	if name == "" {
		return "", errors.Newf("empty artifact name").
			Component("artifacts").
			Category(errors.CategoryValidation).
			Build()
	}
	cleaned := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") || cleaned == "." {
		return "", errors.Newf("artifact name %q escapes the store", name).
			Component("artifacts").
			Category(errors.CategoryValidation).
			Build()
	}
	return cleaned, nil
}

func ioError(op, name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return errors.New(fmt.Errorf("%s %s: %w", op, name, err)).
			Component("artifacts").
			Category(errors.CategoryNotFound).
			Context("name", name).
			Build()
	}
	return errors.New(fmt.Errorf("%s %s: %w", op, name, err)).
		Component("artifacts").
		Category(errors.CategoryFileIO).
		Context("name", name).
		Build()
}

func (s *Store) ensureParent(name string) error {
	if dir := path.Dir(name); dir != "." {
		if err := s.fs.MkdirAll(dir, dirPermissions); err != nil {
			return ioError("mkdir", dir, err)
		}
	}
	return nil
}

// Write stores data under name, replacing any existing blob
func (s *Store) Write(name string, data []byte) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if err := s.ensureParent(name); err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, name, data, filePermissions); err != nil {
		return ioError("write", name, err)
	}
	return nil
}

// WriteAtomic writes data to a temporary sibling and renames it over name,
// so readers see either the previous or the new content.
func (s *Store) WriteAtomic(name string, data []byte) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	tmp := s.TempName(name)
	if err := s.Write(tmp, data); err != nil {
		return err
	}
	if err := s.fs.Rename(tmp, name); err != nil {
		_ = s.fs.Remove(tmp)
		return ioError("rename", name, err)
	}
	return nil
}

// Read returns the blob stored under name
func (s *Store) Read(name string) ([]byte, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, name)
	if err != nil {
		return nil, ioError("read", name, err)
	}
	return data, nil
}

// Exists reports whether a blob is stored under name
func (s *Store) Exists(name string) (bool, error) {
	name, err := cleanName(name)
	if err != nil {
		return false, err
	}
	ok, err := afero.Exists(s.fs, name)
	if err != nil {
		return false, ioError("stat", name, err)
	}
	return ok, nil
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *Store) Delete(name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ioError("delete", name, err)
	}
	return nil
}

// Rename moves a blob, replacing any blob at the destination
func (s *Store) Rename(from, to string) error {
	from, err := cleanName(from)
	if err != nil {
		return err
	}
	to, err = cleanName(to)
	if err != nil {
		return err
	}
	if err := s.ensureParent(to); err != nil {
		return err
	}
	if err := s.fs.Rename(from, to); err != nil {
		return ioError("rename", from, err)
	}
	return nil
}

// TempName returns a unique hidden name next to name
func (s *Store) TempName(name string) string {
	dir, base := path.Split(name)
	return dir + tempPrefix + uuid.NewString() + "-" + base
}

// backupName places name below the dated backup directory with a unique suffix
func (s *Store) backupName(name string) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	day := s.clock().Format(time.DateOnly)
	return path.Join(s.backupDir, day, stem+"_"+uuid.NewString()+ext)
}

// Backup moves the blob at name into the dated backup location and returns the
// backup name. It returns "" when nothing is stored under name.
func (s *Store) Backup(name string) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	exists, err := s.Exists(name)
	if err != nil || !exists {
		return "", err
	}

	backup := s.backupName(name)
	if err := s.Rename(name, backup); err != nil {
		return "", err
	}
	s.log.Debug("moved artifact to backup",
		logger.String("name", name),
		logger.String("backup", backup))
	return backup, nil
}

// WriteWithBackup writes data to name after moving any existing blob into the
// backup location. On write failure the previous blob is put back.
func (s *Store) WriteWithBackup(name string, data []byte) (string, error) {
	backup, err := s.Backup(name)
	if err != nil {
		return "", err
	}
	if err := s.Write(name, data); err != nil {
		if backup != "" {
			if rerr := s.Restore(backup, name); rerr != nil {
				s.log.Error("failed to restore artifact after write failure",
					logger.String("name", name),
					logger.String("backup", backup),
					logger.Error(rerr))
			}
		}
		return "", err
	}
	return backup, nil
}

// Restore moves a backup blob back to name, replacing whatever is there
func (s *Store) Restore(backup, name string) error {
	return s.Rename(backup, name)
}

// OnDisk reports whether blobs are plain files that external tools can open
func (s *Store) OnDisk() bool {
	return s.root != ""
}

// LocalPath returns the path of name on the local disk, if the store is OS backed
func (s *Store) LocalPath(name string) (string, bool) {
	if s.root == "" {
		return "", false
	}
	name, err := cleanName(name)
	if err != nil {
		return "", false
	}
	return filepath.Join(s.root, filepath.FromSlash(name)), true
}
