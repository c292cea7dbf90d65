// Package xex reads and writes .xex archives: zip containers holding one
// compiled bytecode module per entry. The compiler core never sees the
// container; it hands over a byte vector per source and the archive names
// the entry after the source file's stem plus a .xexm suffix.
package xex

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ModuleSuffix is appended to every archive entry name.
const ModuleSuffix = ".xexm"

// ModuleName derives an archive entry name from a source path:
// "scripts/demo.dc" becomes "demo.xexm".
func ModuleName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + ModuleSuffix
}

// Writer packages compiled modules into a .xex archive on disk.
type Writer struct {
	f  *os.File
	zw *zip.Writer
}

// Create opens a new archive at path, truncating any existing file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	return &Writer{f: f, zw: zip.NewWriter(f)}, nil
}

// Add stores one module's bytecode under the given entry name.
func (w *Writer) Add(name string, bytecode []byte) error {
	if len(bytecode) == 0 {
		return fmt.Errorf("empty bytecode for %s", name)
	}

	entry, err := w.zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := entry.Write(bytecode); err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	return nil
}

// Close finalizes the archive. The Writer is unusable afterwards.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("finalize archive: %w", err)
	}
	return w.f.Close()
}

// Archive provides read access to a .xex archive.
type Archive struct {
	rc *zip.ReadCloser
}

// Open opens an existing archive for reading.
func Open(path string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return &Archive{rc: rc}, nil
}

// Modules lists the archive's entry names in sorted order.
func (a *Archive) Modules() []string {
	names := make([]string, 0, len(a.rc.File))
	for _, f := range a.rc.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

// Read returns one module's bytecode.
func (a *Archive) Read(name string) ([]byte, error) {
	for _, f := range a.rc.File {
		if f.Name != name {
			continue
		}
		r, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		defer r.Close()
		return io.ReadAll(r)
	}
	return nil, fmt.Errorf("no module %s in archive", name)
}

func (a *Archive) Close() error {
	return a.rc.Close()
}
