package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kumbirai/google-drive-backup/internal/api"
	"github.com/kumbirai/google-drive-backup/internal/types"
	"github.com/kumbirai/google-drive-backup/internal/utils"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// Manager handles file operations
type Manager struct {
	client *api.Client
}

// NewManager creates a new file manager
func NewManager(client *api.Client) *Manager {
	return &Manager{client: client}
}

// UploadOptions configures file upload
type UploadOptions struct {
	ParentID string
	Name     string
	MimeType string
}

// Upload uploads a local file to Drive. Files above the simple-upload
// threshold go through the resumable protocol.
func (m *Manager) Upload(ctx context.Context, reqCtx *types.RequestContext, localPath string, opts UploadOptions) (*types.DriveFile, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return nil, utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument,
			fmt.Sprintf("Failed to open file: %s", err)).
			WithContext("path", localPath).
			Build())
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = filepath.Base(localPath)
	}

	metadata := &drive.File{
		Name: name,
	}
	if opts.ParentID != "" {
		metadata.Parents = []string{opts.ParentID}
	}
	if opts.MimeType != "" {
		metadata.MimeType = opts.MimeType
	}

	call := m.client.Service().Files.Create(metadata)
	switch selectUploadType(stat.Size(), metadata) {
	case "resumable":
		call = call.Media(file, googleapi.ChunkSize(utils.UploadChunkSize))
	default:
		call = call.Media(file)
	}
	call = call.Fields("id,name,mimeType,size,md5Checksum,createdTime,modifiedTime,parents,trashed")

	result, err := api.ExecuteWithRetry(ctx, m.client, reqCtx, func() (*drive.File, error) {
		return call.Do()
	})
	if err != nil {
		return nil, err
	}

	return convertDriveFile(result), nil
}

func selectUploadType(size int64, metadata *drive.File) string {
	if size > int64(utils.UploadSimpleMaxBytes) {
		return "resumable"
	}
	if metadata.Name != "" || metadata.MimeType != "" || len(metadata.Parents) > 0 {
		return "multipart"
	}
	return "simple"
}

// FindByName finds non-trashed files with the given name directly under
// a parent folder.
func (m *Manager) FindByName(ctx context.Context, reqCtx *types.RequestContext, parentID string, name string) ([]*types.DriveFile, error) {
	query := fmt.Sprintf("'%s' in parents and name = '%s' and trashed = false",
		escapeQueryString(parentID), escapeQueryString(name))

	call := m.client.Service().Files.List().Q(query)
	call = call.Fields("files(id,name,mimeType,size,md5Checksum,createdTime,modifiedTime,parents,trashed)")

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
	return files, nil
}

// Delete permanently deletes a file
func (m *Manager) Delete(ctx context.Context, reqCtx *types.RequestContext, fileID string) error {
	call := m.client.Service().Files.Delete(fileID)

	_, err := api.ExecuteWithRetry(ctx, m.client, reqCtx, func() (interface{}, error) {
		return nil, call.Do()
	})
	return err
}

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
