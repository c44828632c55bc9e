package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAdminDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "admins.yaml")
	content := "admins:\n  - alice\n  - ops-bot\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write admin file: %v", err)
	}

	admins, err := LoadAdminDirectory(path)
	if err != nil {
		t.Fatalf("LoadAdminDirectory() failed: %v", err)
	}

	if !admins.IsAdmin("alice") {
		t.Error("alice should be an admin")
	}
	if !admins.IsAdmin("ops-bot") {
		t.Error("ops-bot should be an admin")
	}
	if admins.IsAdmin("mallory") {
		t.Error("mallory should not be an admin")
	}
}

func TestLoadAdminDirectoryEmptyPath(t *testing.T) {
	admins, err := LoadAdminDirectory("")
	if err != nil {
		t.Fatalf("LoadAdminDirectory(\"\") failed: %v", err)
	}
	if admins.IsAdmin("anyone") {
		t.Error("empty directory must grant nobody")
	}
}

func TestLoadAdminDirectoryMissingFile(t *testing.T) {
	if _, err := LoadAdminDirectory("/nonexistent/admins.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadAdminDirectoryBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "admins.yaml")
	if err := os.WriteFile(path, []byte("admins: {not a list"), 0o644); err != nil {
		t.Fatalf("write admin file: %v", err)
	}

	if _, err := LoadAdminDirectory(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestIsAdminNilDirectory(t *testing.T) {
	var admins *AdminDirectory
	if admins.IsAdmin("anyone") {
		t.Error("nil directory must grant nobody")
	}
}
