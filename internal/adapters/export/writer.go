package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/raffle/pkg/errs"
)

const (
	opWrite = "export.write"

	// maxNameAttempts bounds the suffix search when a second export lands in
	// the same second.
	maxNameAttempts = 1000
)

// FileWriter stores export bytes as registrations_<unix seconds>.xlsx in Dir.
type FileWriter struct {
	dir string
	now func() time.Time
}

// WriterOption applies a configuration option to the FileWriter.
type WriterOption func(*FileWriter)

// WithClock overrides the time source used for file names.
func WithClock(now func() time.Time) WriterOption {
	return func(w *FileWriter) {
		if now != nil {
			w.now = now
		}
	}
}

// NewFileWriter creates a writer targeting dir. The directory is created on
// first write.
func NewFileWriter(dir string, opts ...WriterOption) *FileWriter {
	w := &FileWriter{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the export directory.
func (w *FileWriter) Dir() string { return w.dir }

// Write creates a new file holding data and returns its path. An existing
// file is never overwritten: a name already taken gets a _<n> suffix.
func (w *FileWriter) Write(_ context.Context, data []byte) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errs.WrapKind(opWrite, ErrWriteFailure, err)
	}

	base := fmt.Sprintf("registrations_%d", w.now().Unix())
	for n := 0; n < maxNameAttempts; n++ {
		name := base + ".xlsx"
		if n > 0 {
			name = fmt.Sprintf("%s_%d.xlsx", base, n)
		}
		path := filepath.Join(w.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", errs.WrapKind(opWrite, ErrWriteFailure, err)
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", errs.WrapKind(opWrite, ErrWriteFailure, err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return "", errs.WrapKind(opWrite, ErrWriteFailure, err)
		}
		return path, nil
	}
	return "", errs.WrapKind(opWrite, ErrWriteFailure, fmt.Errorf("no free file name for %s", base))
}
