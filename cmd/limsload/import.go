package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"limscore/internal/assets"
	"limscore/internal/importer"
	"limscore/internal/infra/persistence"
	"limscore/internal/logging"
	"limscore/internal/metrics"
	"limscore/internal/setupdata"
	"limscore/internal/workbook"
)

type importOptions struct {
	workbook    string
	dataset     string
	logMode     string
	storage     string
	sqlitePath  string
	postgresDSN string
	assetDriver string
	assetDir    string
	startRow    int
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a setup-data workbook into the repository",
		Long: `Import runs every registered worksheet driver over a workbook, in
dependency order, then resolves deferred cross-sheet references and
checkpoints the repository.

The workbook is either an .xlsx file or a directory holding one
"<sheet title>.csv" file per worksheet. Storage and asset flags override
the corresponding LIMSCORE_* environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.workbook, "workbook", "", "Workbook: .xlsx file or directory of per-sheet CSV files (required)")
	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "Dataset label for logs and the report (default: workbook basename)")
	cmd.Flags().StringVar(&opts.logMode, "log", "dev", "Log mode: dev|prod")
	cmd.Flags().StringVar(&opts.storage, "storage", "", "Storage driver: memory|sqlite|postgres")
	cmd.Flags().StringVar(&opts.sqlitePath, "sqlite-path", "", "SQLite file when --storage=sqlite")
	cmd.Flags().StringVar(&opts.postgresDSN, "postgres-dsn", "", "PostgreSQL DSN when --storage=postgres")
	cmd.Flags().StringVar(&opts.assetDriver, "assets", "", "Asset source: fs|s3|memory")
	cmd.Flags().StringVar(&opts.assetDir, "asset-dir", "", "Asset directory when --assets=fs")
	cmd.Flags().IntVar(&opts.startRow, "start-row", importer.DefaultStartRow, "Last skipped physical row; data begins on the next row")
	_ = cmd.MarkFlagRequired("workbook")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if opts.startRow < 0 {
			return fmt.Errorf("invalid --start-row %d", opts.startRow)
		}
		if opts.dataset == "" {
			base := filepath.Base(opts.workbook)
			opts.dataset = strings.TrimSuffix(base, filepath.Ext(base))
		}
		return nil
	}

	return cmd
}

func runImport(cmd *cobra.Command, opts importOptions) error {
	ctx := cmd.Context()

	log, err := logging.New(opts.logMode)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	applyEnvOverrides(opts)

	book, err := workbook.Open(opts.workbook)
	if err != nil {
		return err
	}
	defer book.Close()

	repo, err := persistence.Open()
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	defer repo.Close()

	source, err := assets.Open(ctx)
	if err != nil {
		log.Warnw("Asset source unavailable, attachments will be skipped", "error", err)
		source = nil
	}

	rec := metrics.NewRecorder()
	run := importer.NewRun(book, repo, source, log, rec)
	run.StartRow = opts.startRow

	engine := importer.Engine{Drivers: setupdata.Drivers(), Dataset: opts.dataset}
	report, err := engine.Execute(ctx, run)
	if err != nil {
		return err
	}
	rec.ObserveRunDuration(report.Elapsed)

	if summary, err := rec.Summary(); err == nil {
		var skipped uint64
		for _, n := range summary.RowsSkipped {
			skipped += n
		}
		log.Infow("Run counters",
			"entities_created", summary.Total(),
			"rows_skipped", skipped,
			"assets_missing", summary.AssetsMissing)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s dataset %q\n", report.RunID, report.Dataset)
	fmt.Fprintf(out, "  worksheets processed: %d, absent: %d\n", report.Sheets, report.Missing)
	fmt.Fprintf(out, "  references deferred: %d, unresolved: %d\n", report.Deferred, report.Unresolved)
	fmt.Fprintf(out, "  elapsed: %s\n", report.Elapsed.Round(time.Millisecond))
	return nil
}

// applyEnvOverrides pushes non-empty flag values into the environment the
// backend factories read.
func applyEnvOverrides(opts importOptions) {
	setIf := func(key, val string) {
		if val != "" {
			os.Setenv(key, val)
		}
	}
	setIf("LIMSCORE_STORAGE_DRIVER", opts.storage)
	setIf("LIMSCORE_SQLITE_PATH", opts.sqlitePath)
	setIf("LIMSCORE_POSTGRES_DSN", opts.postgresDSN)
	setIf("LIMSCORE_ASSET_DRIVER", opts.assetDriver)
	setIf("LIMSCORE_ASSET_DIR", opts.assetDir)
}
