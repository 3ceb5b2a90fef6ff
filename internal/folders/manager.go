package folders

import (
	"context"
	"fmt"
	"strings"

	"github.com/kumbirai/google-drive-backup/internal/api"
	"github.com/kumbirai/google-drive-backup/internal/types"
	"github.com/kumbirai/google-drive-backup/internal/utils"
	"google.golang.org/api/drive/v3"
)

const fileFields = "id,name,mimeType,size,md5Checksum,createdTime,modifiedTime,parents,trashed"

// Manager handles folder operations
type Manager struct {
	client *api.Client
}

// NewManager creates a new folder manager
func NewManager(client *api.Client) *Manager {
	return &Manager{client: client}
}

// Create creates a new folder
func (m *Manager) Create(ctx context.Context, reqCtx *types.RequestContext, name string, parentID string) (*types.DriveFile, error) {
	metadata := &drive.File{
		Name:     name,
		MimeType: utils.MimeTypeFolder,
	}
	if parentID != "" {
		metadata.Parents = []string{parentID}
	}

	call := m.client.Service().Files.Create(metadata)
	call = call.Fields(fileFields)

	result, err := api.ExecuteWithRetry(ctx, m.client, reqCtx, func() (*drive.File, error) {
		return call.Do()
	})
	if err != nil {
		return nil, err
	}

	return convertDriveFile(result), nil
}

// List lists one page of non-trashed folder contents
func (m *Manager) List(ctx context.Context, reqCtx *types.RequestContext, folderID string, pageSize int, pageToken string) (*types.FileListResult, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", escapeQueryString(folderID))

	call := m.client.Service().Files.List().Q(query)
	call = call.Fields("nextPageToken,incompleteSearch,files(" + fileFields + ")")

	if pageSize > 0 {
		call = call.PageSize(int64(pageSize))
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	result, err := api.ExecuteWithRetry(ctx, m.client, reqCtx, func() (*drive.FileList, error) {
		return call.Do()
	})
	if err != nil {
		return nil, err
	}

	files := make([]*types.DriveFile, len(result.Files))
	for i, f := range result.Files {
		files[i] = convertDriveFile(f)
	}

	return &types.FileListResult{
		Files:            files,
		NextPageToken:    result.NextPageToken,
		IncompleteSearch: result.IncompleteSearch,
	}, nil
}

// ListChildren lists all non-trashed children of a folder, walking
// every result page.
func (m *Manager) ListChildren(ctx context.Context, reqCtx *types.RequestContext, folderID string) ([]*types.DriveFile, error) {
	var children []*types.DriveFile
	pageToken := ""
	for {
		result, err := m.List(ctx, reqCtx, folderID, utils.DefaultPageSize, pageToken)
		if err != nil {
			return nil, err
		}
		children = append(children, result.Files...)
		if result.NextPageToken == "" {
			break
		}
		pageToken = result.NextPageToken
	}
	return children, nil
}

// FindChildFolder looks up a direct child folder by name. When several
// children share the name, the first match the API returns wins.
func (m *Manager) FindChildFolder(ctx context.Context, reqCtx *types.RequestContext, parentID string, name string) (*types.DriveFile, error) {
	query := fmt.Sprintf("'%s' in parents and name = '%s' and mimeType = '%s' and trashed = false",
		escapeQueryString(parentID), escapeQueryString(name), utils.MimeTypeFolder)

	call := m.client.Service().Files.List().Q(query)
	call = call.Fields("files(" + fileFields + ")")
	call = call.PageSize(1)

	result, err := api.ExecuteWithRetry(ctx, m.client, reqCtx, func() (*drive.FileList, error) {
		return call.Do()
	})
	if err != nil {
		return nil, err
	}

	if len(result.Files) == 0 {
		return nil, nil
	}
	return convertDriveFile(result.Files[0]), nil
}

// Delete permanently deletes a folder and everything under it
func (m *Manager) Delete(ctx context.Context, reqCtx *types.RequestContext, folderID string) error {
	call := m.client.Service().Files.Delete(folderID)

	_, err := api.ExecuteWithRetry(ctx, m.client, reqCtx, func() (interface{}, error) {
		return nil, call.Do()
	})
	return err
}

// Get retrieves folder metadata
func (m *Manager) Get(ctx context.Context, reqCtx *types.RequestContext, folderID string) (*types.DriveFile, error) {
	call := m.client.Service().Files.Get(folderID)
	call = call.Fields(fileFields)

	result, err := api.ExecuteWithRetry(ctx, m.client, reqCtx, func() (*drive.File, error) {
		return call.Do()
	})
	if err != nil {
		return nil, err
	}

	return convertDriveFile(result), nil
}

// escapeQueryString escapes a value for a Drive query literal.
// Backslashes first, then single quotes.
func escapeQueryString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

func convertDriveFile(f *drive.File) *types.DriveFile {
	return &types.DriveFile{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		Size:         f.Size,
		MD5Checksum:  f.Md5Checksum,
		CreatedTime:  f.CreatedTime,
		ModifiedTime: f.ModifiedTime,
		Parents:      f.Parents,
		Trashed:      f.Trashed,
	}
}
