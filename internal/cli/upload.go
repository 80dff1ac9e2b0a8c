package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/instantshare/instantshare/internal/core"
	"github.com/instantshare/instantshare/internal/events"
	"github.com/instantshare/instantshare/internal/logging"
	"github.com/instantshare/instantshare/internal/progress"
	"github.com/instantshare/instantshare/internal/qr"
	"github.com/instantshare/instantshare/internal/transfer"
)

type uploadOptions struct {
	noWait bool
	showQR bool
	copy   bool
}

// newUploadCmd creates the 'upload' command.
func newUploadCmd() *cobra.Command {
	var opts uploadOptions

	cmd := &cobra.Command{
		Use:   "upload <file> [file...]",
		Short: "Upload files and print a retrieval code",
		Long: `Upload one or more files in a single request. The server answers with a
6-character retrieval code that stays valid for the expiry window.

By default the command stays in the foreground and shows the countdown until
the code expires. Use --no-wait to exit as soon as the code is issued.

Examples:
  instantshare upload report.pdf
  instantshare upload *.png --qr
  instantshare upload notes.txt --no-wait --copy`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, logging.ModeCLI)
			if err != nil {
				return err
			}
			defer a.Close()

			return runUpload(GetContext(), a.ctl, args, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.noWait, "no-wait", false, "Exit once the code is issued instead of following the countdown")
	cmd.Flags().BoolVar(&opts.showQR, "qr", false, "Print the download link as a QR code")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Copy the code to the clipboard")

	return cmd
}

func runUpload(ctx context.Context, ctl *core.Controller, paths []string, opts uploadOptions, out io.Writer) error {
	if err := ctl.StageFiles(paths); err != nil {
		return err
	}
	files := ctl.Staging().Current()
	GetLogger().Debug().Int("files", len(files)).
		Str("size", humanize.Bytes(uint64(ctl.Staging().TotalSize()))).Msg("Files staged")

	// Subscribed before Submit so the first countdown render is not missed.
	ticks := ctl.Bus().Subscribe(events.EventCountdownTick, events.EventCountdownExpired)
	defer ctl.Bus().Unsubscribe(ticks)

	ui := progress.NewUploadUI(files)
	outcome, err := ctl.Submit(ctx, ui.Track())
	ui.Finish(err)
	if err != nil {
		GetLogger().Debug().Err(err).Msg("Upload failed")
		return errors.New(transfer.Reason(err))
	}

	view := ctl.Result()
	fmt.Fprintln(out, transfer.MsgUploadSuccess)
	fmt.Fprintf(out, "Code: %s\n", view.Code)
	if len(outcome.Codes) > 1 {
		fmt.Fprintf(out, "Codes: %v\n", outcome.Codes)
	}
	fmt.Fprintf(out, "Link: %s\n", view.LinkURL)
	if opts.showQR {
		qr.Render(out, view.LinkURL)
	}
	if opts.copy {
		if err := ctl.CopyCode(); err == nil {
			fmt.Fprintln(out, core.MsgCodeCopied)
		}
	}

	if opts.noWait {
		fmt.Fprintf(out, "Expires in %s\n", view.Countdown)
		return nil
	}
	return followCountdown(ctx, ticks, os.Stderr)
}

// followCountdown prints countdown renders on one line until expiry or ctx
// is cancelled.
func followCountdown(ctx context.Context, ticks <-chan events.Event, w io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w)
			return nil
		case e, ok := <-ticks:
			if !ok {
				return nil
			}
			ce, isCountdown := e.(*events.CountdownEvent)
			if !isCountdown {
				continue
			}
			if ce.Type() == events.EventCountdownExpired {
				fmt.Fprintf(w, "\r%-24s\n", core.MsgFileExpired)
				return nil
			}
			fmt.Fprintf(w, "\rExpires in %s   ", ce.Display)
		}
	}
}
