package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/nao1215/telnetpot/internal/model"
)

// Recorder accepts captured credentials for append-only recording. The
// session performs exactly one Record call per login attempt and does not
// interpret failures beyond logging them; the deception continues either
// way.
type Recorder interface {
	Record(ctx context.Context, cred model.Credential) error
}

// FileRecorder appends captures to a flat file, one "addr - user:pass"
// line per attempt.
type FileRecorder struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileRecorder opens (or creates) the log file for appending. The file
// is created owner-readable only.
func NewFileRecorder(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) //nolint:gosec // operator-provided log path is intentional
	if err != nil {
		return nil, fmt.Errorf("open capture log: %w", err)
	}
	return &FileRecorder{file: f}, nil
}

// Record appends one capture line. Writes are serialized so concurrent
// sessions cannot interleave partial lines.
func (r *FileRecorder) Record(_ context.Context, cred model.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := fmt.Fprintln(r.file, cred.LogLine()); err != nil {
		return fmt.Errorf("append capture line: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (r *FileRecorder) Close() error {
	return r.file.Close()
}

// MultiRecorder fans one capture out to several recorders.
type MultiRecorder struct {
	recorders []Recorder
}

// NewMultiRecorder creates a Recorder that records to every given
// recorder.
func NewMultiRecorder(recorders ...Recorder) *MultiRecorder {
	return &MultiRecorder{recorders: recorders}
}

// Record records the capture everywhere. Every recorder is attempted even
// if an earlier one fails; the errors are joined.
func (m *MultiRecorder) Record(ctx context.Context, cred model.Credential) error {
	var errs []error
	for _, r := range m.recorders {
		if err := r.Record(ctx, cred); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
