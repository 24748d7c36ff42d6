package pefile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/osprey-sec/malscan/internal/domain"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "sample.bin")
	if err := os.WriteFile(path, []byte("MZ content"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(data) != "MZ content" {
		t.Errorf("Load() = %q", data)
	}

	if _, err := Load(filepath.Join(dir, "missing.bin")); !errors.Is(err, domain.ErrUnreadableInput) {
		t.Errorf("Load(missing) error = %v, want ErrUnreadableInput", err)
	}

	empty := filepath.Join(dir, "empty.bin")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(empty); !errors.Is(err, domain.ErrEmptyInput) {
		t.Errorf("Load(empty) error = %v, want ErrEmptyInput", err)
	}
}
