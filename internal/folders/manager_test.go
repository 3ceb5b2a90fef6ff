package folders

import (
	"testing"

	"google.golang.org/api/drive/v3"
)

func TestEscapeQueryString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Backups", "Backups"},
		{"single quote", "Bob's files", `Bob\'s files`},
		{"backslash", `dir\name`, `dir\\name`},
		{"backslash then quote", `it\'s`, `it\\\'s`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeQueryString(tt.input); got != tt.want {
				t.Errorf("escapeQueryString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestConvertDriveFile(t *testing.T) {
	in := &drive.File{
		Id:           "folder-1",
		Name:         "Backups",
		MimeType:     "application/vnd.google-apps.folder",
		Size:         0,
		CreatedTime:  "2024-01-01T00:00:00Z",
		ModifiedTime: "2024-06-01T00:00:00Z",
		Parents:      []string{"root"},
		Trashed:      false,
	}

	got := convertDriveFile(in)

	if got.ID != "folder-1" {
		t.Errorf("ID = %q, want folder-1", got.ID)
	}
	if got.Name != "Backups" {
		t.Errorf("Name = %q, want Backups", got.Name)
	}
	if !got.IsFolder() {
		t.Error("expected IsFolder() to be true for a folder mime type")
	}
	if len(got.Parents) != 1 || got.Parents[0] != "root" {
		t.Errorf("Parents = %v, want [root]", got.Parents)
	}
	if got.Trashed {
		t.Error("Trashed should be false")
	}
}

func TestConvertDriveFileRegularFile(t *testing.T) {
	in := &drive.File{
		Id:          "file-1",
		Name:        "notes.txt",
		MimeType:    "text/plain",
		Size:        42,
		Md5Checksum: "abc123",
	}

	got := convertDriveFile(in)

	if got.IsFolder() {
		t.Error("plain file misclassified as folder")
	}
	if got.Size != 42 {
		t.Errorf("Size = %d, want 42", got.Size)
	}
	if got.MD5Checksum != "abc123" {
		t.Errorf("MD5Checksum = %q, want abc123", got.MD5Checksum)
	}
}
