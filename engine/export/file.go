// Package export holds the savers an Extractor hands serialized threads to.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileSaver writes each document to Dir/filename.
type FileSaver struct {
	Dir string
}

// Save writes data through a temp file in the target directory and renames
// it into place, so readers never observe a partial file.
func (s FileSaver) Save(_ context.Context, data []byte, filename, _ string) error {
	if filename == "" || strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return fmt.Errorf("invalid filename %q", filename)
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filename+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		tmp.Close()
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	dst := filepath.Join(dir, filename)
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("rename to %s: %w", dst, err)
	}
	committed = true
	return nil
}

// WriterSaver writes each document to W, e.g. stdout. It is safe for
// concurrent use.
type WriterSaver struct {
	W  io.Writer
	mu sync.Mutex
}

// Save writes data followed by a newline so consecutive documents stay
// line-separated.
func (s *WriterSaver) Save(_ context.Context, data []byte, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.W.Write(data); err != nil {
		return err
	}
	_, err := io.WriteString(s.W, "\n")
	return err
}
