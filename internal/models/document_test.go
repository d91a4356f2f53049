package models

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Manual.PDF")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatal(err)
	}

	blob, f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	if blob.Name != "Manual.PDF" || blob.Size != 8 {
		t.Errorf("OpenFile() = %+v, want name Manual.PDF size 8", blob)
	}
	if !blob.IsPDF() {
		t.Error("IsPDF() = false for .PDF file")
	}
	data, _ := io.ReadAll(blob.Body)
	if string(data) != "%PDF-1.4" {
		t.Errorf("body = %q", data)
	}
}

func TestOpenFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := OpenFile(filepath.Join(dir, "missing.pdf")); err == nil {
		t.Error("OpenFile() on missing file returned nil error")
	}
	if _, _, err := OpenFile(dir); err == nil {
		t.Error("OpenFile() on directory returned nil error")
	}
}
