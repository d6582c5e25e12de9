package validation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"media-catalog/internal/filesystem"
)

// TestParseUsers verifies comma-list parsing.
func TestParseUsers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []User
	}{
		{"empty", "", nil},
		{"single", "Alice", []User{{ID: "alice", Name: "Alice"}}},
		{
			"multiple with spaces",
			"Alice, Bob ,charlie",
			[]User{
				{ID: "alice", Name: "Alice"},
				{ID: "bob", Name: "Bob"},
				{ID: "charlie", Name: "charlie"},
			},
		},
		{"blank entries dropped", "Alice,,  ,Bob", []User{
			{ID: "alice", Name: "Alice"},
			{ID: "bob", Name: "Bob"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseUsers(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseUsers(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("ParseUsers(%q)[%d] = %v, want %v", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

// TestViewValidatorMissingView verifies a user without a view folder
// completes immediately.
func TestViewValidatorMissingView(t *testing.T) {
	t.Parallel()

	log := &eventLog{}
	v := NewViewValidator(filesystem.NewOS(), &stubFolders{log: log}, filepath.Join(t.TempDir(), "views"))

	progress := &progressRecorder{}
	if err := v.ValidateCollectionFolders(context.Background(), User{ID: "alice", Name: "Alice"}, progress); err != nil {
		t.Fatalf("Expected missing view to be a no-op, got %v", err)
	}
	progress.assertMonotonicTo100(t)
	if events := log.snapshot(); len(events) != 0 {
		t.Errorf("Expected no folder validation, got %v", events)
	}
}

// TestViewValidatorPasses verifies the shallow/deep split between collection
// and library validation.
func TestViewValidatorPasses(t *testing.T) {
	t.Parallel()

	viewsDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(viewsDir, "alice"), 0o755); err != nil {
		t.Fatal(err)
	}

	log := &eventLog{}
	v := NewViewValidator(filesystem.NewOS(), &stubFolders{log: log}, viewsDir)
	user := User{ID: "alice", Name: "Alice"}

	if err := v.ValidateCollectionFolders(context.Background(), user, nil); err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateMediaLibrary(context.Background(), user, nil); err != nil {
		t.Fatal(err)
	}

	events := log.snapshot()
	want := []string{"folders:shallow", "folders:deep"}
	if len(events) != 2 || events[0] != want[0] || events[1] != want[1] {
		t.Errorf("Expected %v, got %v", want, events)
	}
}
