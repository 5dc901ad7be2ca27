package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestFindFileCaseInsensitive(t *testing.T) {
	// Create a temporary directory for testing
	tmpDir := t.TempDir()

	testFiles := []string{
		"ScriptData.bundle",
		"UPPERCASE.BSS",
		"lowercase.toml",
	}

	for _, filename := range testFiles {
		path := filepath.Join(tmpDir, filename)
		if err := os.WriteFile(path, []byte("test"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(tmpDir, "subdir.bundle"), 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name          string
		searchName    string
		shouldFind    bool
		expectedMatch string
	}{
		{"exact match", "ScriptData.bundle", true, "ScriptData.bundle"},
		{"lowercase search for mixed case file", "scriptdata.bundle", true, "ScriptData.bundle"},
		{"uppercase search for mixed case file", "SCRIPTDATA.BUNDLE", true, "ScriptData.bundle"},
		{"mixed case search for uppercase file", "Uppercase.bss", true, "UPPERCASE.BSS"},
		{"uppercase search for lowercase file", "LOWERCASE.TOML", true, "lowercase.toml"},
		{"directories are skipped", "subdir.bundle", false, ""},
		{"file not found", "nonexistent.txt", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := FindFileCaseInsensitive(tmpDir, tt.searchName)

			if tt.shouldFind {
				if err != nil {
					t.Errorf("Expected to find file, but got error: %v", err)
					return
				}
				if actual := filepath.Base(path); actual != tt.expectedMatch {
					t.Errorf("Expected filename %s, got %s", tt.expectedMatch, actual)
				}
				if _, err := os.Stat(path); err != nil {
					t.Errorf("Returned path does not exist: %s", path)
				}
			} else {
				if err == nil {
					t.Errorf("Expected error for non-existent file, but got path: %s", path)
				}
				if !errors.Is(err, fs.ErrNotExist) {
					t.Errorf("error should wrap fs.ErrNotExist: %v", err)
				}
			}
		})
	}
}

func TestFindFileCaseInsensitive_MissingDir(t *testing.T) {
	_, err := FindFileCaseInsensitive(filepath.Join(t.TempDir(), "missing"), "x")
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestResolvePath(t *testing.T) {
	tmpDir := t.TempDir()
	actual := filepath.Join(tmpDir, "Event.bss")
	if err := os.WriteFile(actual, nil, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ResolvePath(actual)
	if err != nil || got != actual {
		t.Errorf("ResolvePath(exact) = %q, %v", got, err)
	}

	got, err = ResolvePath(filepath.Join(tmpDir, "event.BSS"))
	if err != nil || got != actual {
		t.Errorf("ResolvePath(case) = %q, %v; want %q", got, err, actual)
	}

	if _, err := ResolvePath(filepath.Join(tmpDir, "other.bss")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFindFilesByExt(t *testing.T) {
	tmpDir := t.TempDir()
	files := []string{"b.bss", "a.BSS", "c.txt", filepath.Join("sub", "d.bss")}
	if err := os.Mkdir(filepath.Join(tmpDir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := FindFilesByExt(tmpDir, ".bss")
	if err != nil {
		t.Fatalf("FindFilesByExt() error: %v", err)
	}
	want := []string{
		filepath.Join(tmpDir, "a.BSS"),
		filepath.Join(tmpDir, "b.bss"),
		filepath.Join(tmpDir, "sub", "d.bss"),
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("file %d = %q, want %q", i, got[i], want[i])
		}
	}

	if !IsDir(tmpDir) || IsDir(want[0]) {
		t.Error("IsDir() mismatch")
	}
}
