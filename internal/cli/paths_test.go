package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDataDirs(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name string
		env  string
		val  string
		fn   func() (string, error)
		want string
	}{
		{"cache default", "XDG_CACHE_HOME", "", cacheDir, filepath.Join(home, ".cache", appName)},
		{"cache xdg", "XDG_CACHE_HOME", "/tmp/xdg-cache", cacheDir, filepath.Join("/tmp/xdg-cache", appName)},
		{"history default", "XDG_DATA_HOME", "", historyDir, filepath.Join(home, ".local", "share", appName, "runs")},
		{"history xdg", "XDG_DATA_HOME", "/tmp/xdg-data", historyDir, filepath.Join("/tmp/xdg-data", appName, "runs")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.val)
			got, err := tt.fn()
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpenArchiveFallback(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv(envArchive, "")

	store, err := openArchive(t.Context(), "")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close(t.Context())
	if _, err := os.Stat(filepath.Join(dir, appName, "runs")); err != nil {
		t.Errorf("history directory not created: %v", err)
	}

	t.Setenv(envArchive, "memory")
	store, err = openArchive(t.Context(), "")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close(t.Context())
	if _, err := store.List(t.Context(), 1); err != nil {
		t.Errorf("memory archive List: %v", err)
	}
}
