package resolver

import (
	"context"
	"reflect"
	"testing"

	"github.com/kumbirai/google-drive-backup/internal/api"
	"github.com/kumbirai/google-drive-backup/internal/testing/mocks"
	"github.com/kumbirai/google-drive-backup/internal/types"
	"github.com/kumbirai/google-drive-backup/internal/utils"
)

func newTestResolver(remote *mocks.FakeRemote) *PathResolver {
	return NewPathResolver(remote, nil)
}

func testReqCtx() *types.RequestContext {
	return api.NewRequestContext(types.RequestTypeListOrSearch, "", "")
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []string
	}{
		{"empty", "", nil},
		{"single segment", "Backups", []string{"Backups"}},
		{"nested", "Backups/Photos/2024", []string{"Backups", "Photos", "2024"}},
		{"leading slash", "/Backups/Photos", []string{"Backups", "Photos"}},
		{"trailing slash", "Backups/Photos/", []string{"Backups", "Photos"}},
		{"doubled separators", "Backups//Photos", []string{"Backups", "Photos"}},
		{"backslash separators", `Backups\Photos`, []string{"Backups", "Photos"}},
		{"only slashes", "///", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitPath(tt.path)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolveOrCreateEmptyPathIsRoot(t *testing.T) {
	remote := mocks.NewFakeRemote()
	r := newTestResolver(remote)

	for _, path := range []string{"", "/", "//"} {
		got, err := r.ResolveOrCreate(context.Background(), testReqCtx(), path)
		if err != nil {
			t.Fatalf("ResolveOrCreate(%q) error: %v", path, err)
		}
		if got != utils.RootFolderID {
			t.Errorf("ResolveOrCreate(%q) = %q, want %q", path, got, utils.RootFolderID)
		}
	}

	if remote.EntryCount() != 0 {
		t.Errorf("expected no folders created, got %d entries", remote.EntryCount())
	}
}

func TestResolveOrCreateCreatesMissingChain(t *testing.T) {
	remote := mocks.NewFakeRemote()
	r := newTestResolver(remote)

	id, err := r.ResolveOrCreate(context.Background(), testReqCtx(), "Backups/Photos/2024")
	if err != nil {
		t.Fatalf("ResolveOrCreate error: %v", err)
	}
	if id == "" || id == utils.RootFolderID {
		t.Fatalf("expected a created folder ID, got %q", id)
	}
	if remote.EntryCount() != 3 {
		t.Errorf("expected 3 folders created, got %d", remote.EntryCount())
	}
}

func TestResolveOrCreateReusesExistingFolders(t *testing.T) {
	remote := mocks.NewFakeRemote()
	r := newTestResolver(remote)
	ctx := context.Background()

	first, err := r.ResolveOrCreate(ctx, testReqCtx(), "Backups/Photos")
	if err != nil {
		t.Fatalf("first resolve error: %v", err)
	}

	second, err := r.ResolveOrCreate(ctx, testReqCtx(), "Backups/Photos")
	if err != nil {
		t.Fatalf("second resolve error: %v", err)
	}

	if first != second {
		t.Errorf("resolve not idempotent: first %q, second %q", first, second)
	}
	if remote.EntryCount() != 2 {
		t.Errorf("expected 2 folders after repeated resolve, got %d", remote.EntryCount())
	}
}

func TestResolveOrCreateFirstMatchWins(t *testing.T) {
	remote := mocks.NewFakeRemote()
	a := remote.AddFolder(utils.RootFolderID, "Backups")
	remote.AddFolder(utils.RootFolderID, "Backups")

	r := newTestResolver(remote)
	got, err := r.ResolveOrCreate(context.Background(), testReqCtx(), "Backups")
	if err != nil {
		t.Fatalf("ResolveOrCreate error: %v", err)
	}
	if got != a {
		t.Errorf("expected first matching folder %q, got %q", a, got)
	}
	if remote.EntryCount() != 2 {
		t.Errorf("duplicate name must not trigger creation, got %d entries", remote.EntryCount())
	}
}

func TestResolveOrCreateRecreatesDeletedFolder(t *testing.T) {
	remote := mocks.NewFakeRemote()
	r := newTestResolver(remote)
	ctx := context.Background()

	first, err := r.ResolveOrCreate(ctx, testReqCtx(), "Backups")
	if err != nil {
		t.Fatalf("first resolve error: %v", err)
	}

	if err := remote.Delete(ctx, testReqCtx(), first); err != nil {
		t.Fatalf("delete error: %v", err)
	}

	second, err := r.ResolveOrCreate(ctx, testReqCtx(), "Backups")
	if err != nil {
		t.Fatalf("second resolve error: %v", err)
	}
	if second == first {
		t.Error("expected a fresh folder ID after remote deletion")
	}
	if !remote.Exists(second) {
		t.Error("recreated folder not present in remote tree")
	}
}
