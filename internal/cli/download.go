package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/instantshare/instantshare/internal/core"
	"github.com/instantshare/instantshare/internal/logging"
	"github.com/instantshare/instantshare/internal/progress"
	"github.com/instantshare/instantshare/internal/retrieval"
)

// newDownloadCmd creates the 'download' command.
func newDownloadCmd() *cobra.Command {
	var dst string

	cmd := &cobra.Command{
		Use:   "download <code>",
		Short: "Redeem a retrieval code and save the file",
		Long: `Download the file shared under a 6-character retrieval code. Codes are
case-insensitive. The server decides the file name; an existing file is never
overwritten.

Examples:
  instantshare download AB12CD
  instantshare download ab12cd --dst ~/Desktop`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No network and no prompts for a malformed code.
			if _, err := retrieval.Validate(args[0]); err != nil {
				return errors.New(retrieval.MsgInvalidCode)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, logging.ModeCLI)
			if err != nil {
				return err
			}
			defer a.Close()

			return runDownload(GetContext(), a.ctl, args[0], dst, progress.NewCLIProgress(nil), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&dst, "dst", "d", "", "Destination directory (default: download_dir from config)")

	return cmd
}

func runDownload(ctx context.Context, ctl *core.Controller, code, dst string, reporter progress.Reporter, out io.Writer) error {
	started := false
	onProgress := func(p retrieval.Progress) {
		if !started {
			reporter.Start(p.BytesTotal, "Downloading "+p.Code)
			started = true
		}
		reporter.Update(p.BytesReceived)
	}

	res, err := ctl.Redeem(ctx, code, dst, onProgress)
	if err != nil {
		GetLogger().Debug().Err(err).Msg("Download failed")
		return errors.New(retrieval.Reason(err))
	}
	if started {
		reporter.Finish()
	}

	fmt.Fprintf(out, "Saved %s (%s) to %s\n", res.FileName, humanize.Bytes(uint64(res.Bytes)), res.Path)
	return nil
}
