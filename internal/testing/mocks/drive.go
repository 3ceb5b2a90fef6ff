// Package mocks provides in-memory fakes for exercising the backup
// engine and path resolver without the Drive API.
package mocks

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kumbirai/google-drive-backup/internal/files"
	"github.com/kumbirai/google-drive-backup/internal/types"
	"github.com/kumbirai/google-drive-backup/internal/utils"
)

type entry struct {
	id     string
	name   string
	mime   string
	parent string
}

// FakeRemote is an in-memory Drive folder tree. The root is addressed
// by the same sentinel ID the real API uses.
type FakeRemote struct {
	mu      sync.Mutex
	entries map[string]*entry
	nextID  int

	// FailDelete maps entry IDs to the error their deletion returns
	FailDelete map[string]error
	// FailUpload maps local paths to the error their upload returns
	FailUpload map[string]error
	// FailList maps folder IDs to the error listing them returns
	FailList map[string]error

	// Uploads records local paths in upload order
	Uploads []string
}

// NewFakeRemote creates an empty fake Drive tree
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		entries:    make(map[string]*entry),
		FailDelete: make(map[string]error),
		FailUpload: make(map[string]error),
		FailList:   make(map[string]error),
	}
}

func (f *FakeRemote) newID() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

// AddFolder creates a folder under a parent and returns its ID
func (f *FakeRemote) AddFolder(parentID, name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.newID()
	f.entries[id] = &entry{id: id, name: name, mime: utils.MimeTypeFolder, parent: parentID}
	return id
}

// AddFile creates a file under a parent and returns its ID
func (f *FakeRemote) AddFile(parentID, name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.newID()
	f.entries[id] = &entry{id: id, name: name, mime: "application/octet-stream", parent: parentID}
	return id
}

// Exists reports whether an entry is still present
func (f *FakeRemote) Exists(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[id]
	return ok
}

// ChildNames returns the sorted names of a folder's children
func (f *FakeRemote) ChildNames(parentID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, e := range f.entries {
		if e.parent == parentID {
			names = append(names, e.name)
		}
	}
	sort.Strings(names)
	return names
}

// EntryCount returns the number of entries in the tree
func (f *FakeRemote) EntryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *FakeRemote) toDriveFile(e *entry) *types.DriveFile {
	return &types.DriveFile{
		ID:       e.id,
		Name:     e.name,
		MimeType: e.mime,
		Parents:  []string{e.parent},
	}
}

// ListChildren lists a folder's direct children
func (f *FakeRemote) ListChildren(ctx context.Context, reqCtx *types.RequestContext, folderID string) ([]*types.DriveFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.FailList[folderID]; ok {
		return nil, err
	}
	var ids []string
	for id, e := range f.entries {
		if e.parent == folderID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	children := make([]*types.DriveFile, len(ids))
	for i, id := range ids {
		children[i] = f.toDriveFile(f.entries[id])
	}
	return children, nil
}

// FindChildFolder finds a direct child folder by name
func (f *FakeRemote) FindChildFolder(ctx context.Context, reqCtx *types.RequestContext, parentID string, name string) (*types.DriveFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, e := range f.entries {
		if e.parent == parentID && e.name == name && e.mime == utils.MimeTypeFolder {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)
	return f.toDriveFile(f.entries[ids[0]]), nil
}

// Create creates a folder
func (f *FakeRemote) Create(ctx context.Context, reqCtx *types.RequestContext, name string, parentID string) (*types.DriveFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.newID()
	e := &entry{id: id, name: name, mime: utils.MimeTypeFolder, parent: parentID}
	f.entries[id] = e
	return f.toDriveFile(e), nil
}

// Delete removes an entry and everything under it
func (f *FakeRemote) Delete(ctx context.Context, reqCtx *types.RequestContext, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.FailDelete[id]; ok {
		return err
	}
	if _, ok := f.entries[id]; !ok {
		return fmt.Errorf("entry %s not found", id)
	}
	f.removeTree(id)
	return nil
}

func (f *FakeRemote) removeTree(id string) {
	for childID, e := range f.entries {
		if e.parent == id {
			f.removeTree(childID)
		}
	}
	delete(f.entries, id)
}

// Upload records an uploaded local file as a child of the parent folder
func (f *FakeRemote) Upload(ctx context.Context, reqCtx *types.RequestContext, localPath string, opts files.UploadOptions) (*types.DriveFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.FailUpload[localPath]; ok {
		return nil, err
	}
	name := opts.Name
	if name == "" {
		name = filepath.Base(localPath)
	}
	id := f.newID()
	e := &entry{id: id, name: name, mime: "application/octet-stream", parent: opts.ParentID}
	f.entries[id] = e
	f.Uploads = append(f.Uploads, localPath)
	return f.toDriveFile(e), nil
}

// FindByName finds direct children with a given name
func (f *FakeRemote) FindByName(ctx context.Context, reqCtx *types.RequestContext, parentID string, name string) ([]*types.DriveFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, e := range f.entries {
		if e.parent == parentID && e.name == name {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	matches := make([]*types.DriveFile, len(ids))
	for i, id := range ids {
		matches[i] = f.toDriveFile(f.entries[id])
	}
	return matches, nil
}
