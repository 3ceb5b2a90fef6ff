package backup

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/kumbirai/google-drive-backup/internal/api"
	"github.com/kumbirai/google-drive-backup/internal/files"
	"github.com/kumbirai/google-drive-backup/internal/logging"
	"github.com/kumbirai/google-drive-backup/internal/types"
)

// FolderService is the slice of folder operations the engine needs
type FolderService interface {
	ListChildren(ctx context.Context, reqCtx *types.RequestContext, folderID string) ([]*types.DriveFile, error)
	Delete(ctx context.Context, reqCtx *types.RequestContext, folderID string) error
}

// FileService is the slice of file operations the engine needs
type FileService interface {
	Upload(ctx context.Context, reqCtx *types.RequestContext, localPath string, opts files.UploadOptions) (*types.DriveFile, error)
	FindByName(ctx context.Context, reqCtx *types.RequestContext, parentID string, name string) ([]*types.DriveFile, error)
	Delete(ctx context.Context, reqCtx *types.RequestContext, fileID string) error
}

// Resolver resolves destination paths to folder IDs
type Resolver interface {
	ResolveOrCreate(ctx context.Context, reqCtx *types.RequestContext, path string) (string, error)
}

// Agent runs the backup mappings. Each mapping is a full mirror: the
// destination folder is emptied, then the source tree is re-uploaded.
type Agent struct {
	folders  FolderService
	files    FileService
	resolver Resolver
	logger   logging.Logger
}

// NewAgent creates a new backup agent
func NewAgent(folders FolderService, fileSvc FileService, resolver Resolver, logger logging.Logger) *Agent {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Agent{
		folders:  folders,
		files:    fileSvc,
		resolver: resolver,
		logger:   logger,
	}
}

// Run processes every mapping in order. A failed mapping never stops
// the ones after it; the caller gets one result per mapping.
func (a *Agent) Run(ctx context.Context, mappings []types.BackupMapping) []types.MappingResult {
	results := make([]types.MappingResult, 0, len(mappings))
	for _, mapping := range mappings {
		reqCtx := api.NewRequestContext(types.RequestTypeUpload, mapping.Source, mapping.Destination)
		logger := a.logger.WithTraceID(reqCtx.TraceID)
		logger.Info("Processing mapping",
			logging.F("source", mapping.Source),
			logging.F("destination", mapping.Destination),
		)

		result := a.ProcessMapping(ctx, reqCtx, mapping)
		results = append(results, result)

		logger.Info("Mapping finished",
			logging.F("status", result.Status()),
			logging.F("uploaded", result.Uploaded),
			logging.F("deleted", result.Deleted),
			logging.F("errors", len(result.Errors)),
		)
	}
	return results
}

// ProcessMapping mirrors a single source into its destination
func (a *Agent) ProcessMapping(ctx context.Context, reqCtx *types.RequestContext, mapping types.BackupMapping) types.MappingResult {
	result := types.MappingResult{Mapping: mapping}
	logger := a.logger.WithTraceID(reqCtx.TraceID)

	info, err := os.Stat(mapping.Source)
	if err != nil {
		logger.Warn("Source path does not exist, skipping",
			logging.F("source", mapping.Source),
		)
		result.Skipped = true
		return result
	}

	if info.IsDir() {
		a.mirrorDirectory(ctx, reqCtx, mapping, &result)
	} else {
		a.mirrorFile(ctx, reqCtx, mapping, &result)
	}

	return result
}

// mirrorDirectory empties the destination folder, then walks the source
// tree and re-uploads every regular file.
func (a *Agent) mirrorDirectory(ctx context.Context, reqCtx *types.RequestContext, mapping types.BackupMapping, result *types.MappingResult) {
	logger := a.logger.WithTraceID(reqCtx.TraceID)

	destID, err := a.resolver.ResolveOrCreate(ctx, reqCtx, mapping.Destination)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Errorf("resolve destination %q: %w", mapping.Destination, err))
		return
	}

	deleted, deleteErrs := a.DeleteChildren(ctx, reqCtx, destID)
	result.Deleted += deleted
	result.Errors = append(result.Errors, deleteErrs...)

	walkErr := filepath.WalkDir(mapping.Source, func(localPath string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("walk %q: %w", localPath, err))
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(mapping.Source, localPath)
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}

		destPath := mapping.Destination
		if dir := filepath.Dir(rel); dir != "." {
			destPath = path.Join(mapping.Destination, filepath.ToSlash(dir))
		}

		parentID, err := a.resolver.ResolveOrCreate(ctx, reqCtx, destPath)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Errorf("resolve %q for %q: %w", destPath, localPath, err))
			return nil
		}

		if _, err := a.files.Upload(ctx, reqCtx, localPath, files.UploadOptions{ParentID: parentID}); err != nil {
			result.Errors = append(result.Errors,
				fmt.Errorf("upload %q: %w", localPath, err))
			return nil
		}

		result.Uploaded++
		logger.Debug("Uploaded file",
			logging.F("path", localPath),
			logging.F("destination", destPath),
		)
		return nil
	})
	if walkErr != nil {
		result.Errors = append(result.Errors, walkErr)
	}
}

// mirrorFile replaces any same-named files in the destination folder
// with a fresh copy of the source file.
func (a *Agent) mirrorFile(ctx context.Context, reqCtx *types.RequestContext, mapping types.BackupMapping, result *types.MappingResult) {
	logger := a.logger.WithTraceID(reqCtx.TraceID)

	parentID, err := a.resolver.ResolveOrCreate(ctx, reqCtx, mapping.Destination)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Errorf("resolve destination %q: %w", mapping.Destination, err))
		return
	}

	name := filepath.Base(mapping.Source)
	existing, err := a.files.FindByName(ctx, reqCtx, parentID, name)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Errorf("find existing %q: %w", name, err))
	} else {
		for _, f := range existing {
			if err := a.files.Delete(ctx, reqCtx, f.ID); err != nil {
				result.Errors = append(result.Errors,
					fmt.Errorf("delete existing %q (%s): %w", f.Name, f.ID, err))
				continue
			}
			result.Deleted++
			logger.Debug("Deleted existing remote file",
				logging.F("name", f.Name),
				logging.F("fileId", f.ID),
			)
		}
	}

	if _, err := a.files.Upload(ctx, reqCtx, mapping.Source, files.UploadOptions{ParentID: parentID}); err != nil {
		result.Errors = append(result.Errors,
			fmt.Errorf("upload %q: %w", mapping.Source, err))
		return
	}
	result.Uploaded++
}

// DeleteChildren deletes everything inside a folder, depth first. The
// folder itself survives. A failed entry is recorded and its siblings
// are still attempted; a subfolder that could not be fully emptied is
// left in place rather than cascade-deleted with its survivors.
func (a *Agent) DeleteChildren(ctx context.Context, reqCtx *types.RequestContext, folderID string) (int, []error) {
	logger := a.logger.WithTraceID(reqCtx.TraceID)

	children, err := a.folders.ListChildren(ctx, reqCtx, folderID)
	if err != nil {
		return 0, []error{fmt.Errorf("list children of %q: %w", folderID, err)}
	}

	deleted := 0
	var errs []error

	for _, child := range children {
		if child.IsFolder() {
			subDeleted, subErrs := a.DeleteChildren(ctx, reqCtx, child.ID)
			deleted += subDeleted
			if len(subErrs) > 0 {
				// Deleting the folder now would cascade over the
				// entries that just failed. Keep it for the next run.
				errs = append(errs, subErrs...)
				continue
			}
		}

		if err := a.folders.Delete(ctx, reqCtx, child.ID); err != nil {
			errs = append(errs, fmt.Errorf("delete %q (%s): %w", child.Name, child.ID, err))
			continue
		}
		deleted++
		logger.Debug("Deleted remote entry",
			logging.F("name", child.Name),
			logging.F("entryId", child.ID),
		)
	}

	return deleted, errs
}
