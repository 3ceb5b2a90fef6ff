package resolver

import (
	"context"
	"strings"

	"github.com/kumbirai/google-drive-backup/internal/logging"
	"github.com/kumbirai/google-drive-backup/internal/types"
	"github.com/kumbirai/google-drive-backup/internal/utils"
)

// FolderAPI is the slice of folder operations path resolution needs
type FolderAPI interface {
	FindChildFolder(ctx context.Context, reqCtx *types.RequestContext, parentID string, name string) (*types.DriveFile, error)
	Create(ctx context.Context, reqCtx *types.RequestContext, name string, parentID string) (*types.DriveFile, error)
}

// PathResolver resolves slash-separated Drive paths to folder IDs,
// creating missing segments along the way. Resolution is never cached:
// each call re-walks the chain so a folder deleted out from under us is
// recreated instead of referenced by a stale ID.
type PathResolver struct {
	folders FolderAPI
	logger  logging.Logger
}

// NewPathResolver creates a new path resolver
func NewPathResolver(folders FolderAPI, logger logging.Logger) *PathResolver {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &PathResolver{
		folders: folders,
		logger:  logger,
	}
}

// ResolveOrCreate walks a destination path segment by segment, looking
// up each folder under the current parent and creating it when absent.
// The empty path resolves to the Drive root. When duplicate sibling
// folders share a name the first match wins.
func (r *PathResolver) ResolveOrCreate(ctx context.Context, reqCtx *types.RequestContext, path string) (string, error) {
	segments := splitPath(path)
	parentID := utils.RootFolderID

	for _, segment := range segments {
		folder, err := r.folders.FindChildFolder(ctx, reqCtx, parentID, segment)
		if err != nil {
			return "", err
		}

		if folder == nil {
			created, err := r.folders.Create(ctx, reqCtx, segment, parentID)
			if err != nil {
				return "", err
			}
			r.logger.Info("Created remote folder",
				logging.F("name", segment),
				logging.F("folderId", created.ID),
			)
			parentID = created.ID
			continue
		}

		parentID = folder.ID
	}

	return parentID, nil
}

// splitPath normalizes a destination path into its folder segments.
// Leading, trailing, and doubled separators are ignored.
func splitPath(path string) []string {
	path = strings.ReplaceAll(path, "\\", "/")
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}
