package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/kumbirai/google-drive-backup/internal/api"
	"github.com/kumbirai/google-drive-backup/internal/auth"
	"github.com/kumbirai/google-drive-backup/internal/backup"
	"github.com/kumbirai/google-drive-backup/internal/config"
	"github.com/kumbirai/google-drive-backup/internal/files"
	"github.com/kumbirai/google-drive-backup/internal/folders"
	"github.com/kumbirai/google-drive-backup/internal/logging"
	"github.com/kumbirai/google-drive-backup/internal/resolver"
	"github.com/kumbirai/google-drive-backup/internal/types"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func runBackup(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(globalFlags.Config)
	if err != nil {
		return err
	}
	log = attachLogFile(cfg, log)

	session, err := obtainSession(ctx, cfg, log)
	if err != nil {
		return err
	}

	client := api.NewClient(session.Service, cfg.MaxRetries, cfg.RetryDelayMs, log)
	folderMgr := folders.NewManager(client)
	fileMgr := files.NewManager(client)
	pathResolver := resolver.NewPathResolver(folderMgr, log)

	agent := backup.NewAgent(folderMgr, fileMgr, pathResolver, log)
	results := agent.Run(ctx, cfg.Mappings())

	if !globalFlags.Quiet {
		printSummary(results)
	}

	for _, r := range results {
		if r.Failed() {
			log.Warn("Run completed with errors",
				logging.F("source", r.Mapping.Source),
				logging.F("errors", len(r.Errors)),
			)
		}
	}

	return nil
}

// attachLogFile rebuilds the logger with the config's log file when no
// --log-file flag already set one. The console sink carries over.
func attachLogFile(cfg *config.Config, log logging.Logger) logging.Logger {
	if globalFlags.LogFile != "" || cfg.LogFile == "" {
		return log
	}

	logConfig := logging.DefaultLogConfig()
	logConfig.OutputFile = cfg.LogFile
	logConfig.EnableConsole = !globalFlags.Quiet
	if globalFlags.Verbose {
		logConfig.Level = logging.DEBUG
	}

	rebuilt, err := logging.NewLogger(logConfig)
	if err != nil {
		log.Warn("Cannot open log file, continuing with console only",
			logging.F("path", cfg.LogFile),
			logging.F("error", err.Error()),
		)
		return log
	}

	_ = log.Close()
	logger = rebuilt
	return rebuilt
}

// obtainSession builds the auth manager from the config and walks the
// credential lifecycle.
func obtainSession(ctx context.Context, cfg *config.Config, log logging.Logger) (*auth.Session, error) {
	storage := newTokenStorage(cfg)
	mgr := auth.NewManager(storage, log)

	if err := mgr.LoadClientSecretFile(cfg.CredentialsFile); err != nil {
		return nil, err
	}

	return mgr.ObtainSession(ctx, nil, auth.OAuthAuthOptions{NoBrowser: globalFlags.NoBrowser})
}

func newTokenStorage(cfg *config.Config) auth.StorageBackend {
	if cfg.TokenStore == "keyring" && auth.CheckKeyringAvailable("drive-backup") {
		return auth.NewKeyringStorage("drive-backup", "default")
	}
	return auth.NewTokenFileStorage(cfg.TokenFile)
}

func printSummary(results []types.MappingResult) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Source", "Destination", "Status", "Uploaded", "Deleted", "Errors"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, r := range results {
		table.Append([]string{
			r.Mapping.Source,
			r.Mapping.Destination,
			r.Status(),
			strconv.Itoa(r.Uploaded),
			strconv.Itoa(r.Deleted),
			strconv.Itoa(len(r.Errors)),
		})
	}

	fmt.Println()
	table.Render()

	for _, r := range results {
		for _, err := range r.Errors {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", r.Mapping.Source, err)
		}
	}
}
