package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/reckless-spender/internal/cli"
	"github.com/Veraticus/reckless-spender/internal/ofx"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [files...]",
		Short: "Upload OFX/QFX statements to the store",
		Long: `Upload OFX or QFX (Quicken) statements exported from your bank.

Transactions the store has already seen are skipped, so importing the
same file twice is safe.

Examples:
  # Import a single file
  reckless import ~/Downloads/checking_jan_2024.qfx

  # Import every statement in a directory
  reckless import ~/Downloads/*.ofx ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}
}

type importSummary struct {
	files     int
	failed    int
	accounts  int
	collected int
	inserted  int
}

func runImport(cmd *cobra.Command, args []string) error {
	files, err := expandStatementFiles(args)
	if err != nil {
		return err
	}

	client, err := newStoreClient()
	if err != nil {
		return err
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interrupts.HandleInterrupts(cmd.Context(), "Files uploaded so far stay imported.")

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Uploading statements...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)

	var sum importSummary
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}

		name := filepath.Base(path)
		f, err := os.Open(path)
		if err != nil {
			slog.Error("failed to open statement", "file", path, "error", err)
			sum.failed++
			_ = bar.Add(1)
			continue
		}

		result, err := client.UploadOFX(ctx, name, f)
		_ = f.Close()
		_ = bar.Add(1)
		if err != nil {
			slog.Error("failed to upload statement", "file", name, "error", err)
			sum.failed++
			continue
		}

		slog.Debug("uploaded statement",
			"file", name,
			"batch_id", result.BatchID,
			"collected", result.TransactionsCollected,
			"inserted", result.TransactionsInserted)
		sum.files++
		sum.accounts += result.AccountsProcessed
		sum.collected += result.TransactionsCollected
		sum.inserted += result.TransactionsInserted
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderBox("Import summary", fmt.Sprintf(
		"Files uploaded:      %d\nAccounts processed:  %d\nTransactions found:  %d\nNew transactions:    %d\nDuplicates skipped:  %d",
		sum.files, sum.accounts, sum.collected, sum.inserted, sum.collected-sum.inserted)))

	if interrupts.WasInterrupted() {
		return fmt.Errorf("import interrupted after %d of %d files", sum.files+sum.failed, len(files))
	}
	if sum.failed > 0 {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d file(s) could not be imported; see the log for details", sum.failed)))
		if sum.files == 0 {
			return fmt.Errorf("no statements were imported")
		}
	}
	return nil
}

// expandStatementFiles expands globs and keeps only .ofx/.qfx files.
func expandStatementFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			// If no glob matches, check if it's a direct file
			if _, err := os.Stat(pattern); err == nil {
				matches = []string{pattern}
			} else {
				slog.Warn("no files found matching pattern", "pattern", pattern)
			}
		}
		for _, m := range matches {
			if !ofx.IsStatementFile(m) {
				slog.Warn("skipping file that is not a statement", "file", m)
				continue
			}
			files = append(files, m)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no .ofx or .qfx files found to import")
	}
	return files, nil
}
