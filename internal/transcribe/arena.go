package transcribe

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/teemow/inboxpal/internal/logging"
)

const scratchPrefix = "recording-"

// Arena hands out per-call scratch files in one directory.
type Arena struct {
	dir    string
	logger logging.Logger
}

// NewArena creates an arena in dir, or in os.TempDir() when dir is empty.
func NewArena(dir string, logger logging.Logger) *Arena {
	if dir == "" {
		dir = os.TempDir()
	}
	if logger == nil {
		logger = logging.NewSlogAdapter(nil)
	}
	return &Arena{dir: dir, logger: logger}
}

// Dir returns the scratch directory.
func (a *Arena) Dir() string {
	return a.dir
}

// Scratch is one acquired scratch file. Release must be called exactly
// once, normally deferred right after Acquire.
type Scratch struct {
	file   *os.File
	logger logging.Logger
}

// Acquire creates a new, exclusively owned scratch file with extension ext.
func (a *Arena) Acquire(ext string) (*Scratch, error) {
	name := filepath.Join(a.dir, scratchPrefix+uuid.NewString()+ext)
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch file: %w", err)
	}
	return &Scratch{file: f, logger: a.logger}, nil
}

// File returns the open scratch file.
func (s *Scratch) File() *os.File {
	return s.file
}

// Path returns the scratch file path.
func (s *Scratch) Path() string {
	return s.file.Name()
}

// Release closes and removes the scratch file. Failures are logged.
func (s *Scratch) Release() {
	path := s.file.Name()
	if err := s.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		s.logger.Warn("failed to close scratch file", "path", path, logging.KeyError, err.Error())
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove scratch file", "path", path, logging.KeyError, err.Error())
		return
	}
	s.logger.Debug("released scratch file", "path", path)
}
