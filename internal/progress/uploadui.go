package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/instantshare/instantshare/internal/staging"
	"github.com/instantshare/instantshare/internal/transfer"
)

// UploadUI draws one progress bar per file of a multipart upload using mpb.
// Without a terminal it prints one line per file instead.
type UploadUI struct {
	progress   *mpb.Progress
	out        io.Writer
	isTerminal bool
	bars       []*FileBar

	mu      sync.Mutex
	current int   // index of the file being streamed
	offset  int64 // session bytes sent when the current file started
}

// FileBar is the bar of one staged file.
type FileBar struct {
	bar       *mpb.Bar
	ui        *UploadUI
	index     int
	name      string
	size      int64
	startTime time.Time
	done      bool
}

// NewUploadUI creates bars for files, drawing on stderr.
func NewUploadUI(files []staging.File) *UploadUI {
	return newUploadUI(files, os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
}

func newUploadUI(files []staging.File, out io.Writer, isTerminal bool) *UploadUI {
	var p *mpb.Progress
	if isTerminal {
		enableANSIOnWindows(out)
		p = mpb.New(
			mpb.WithOutput(out),
			mpb.WithRefreshRate(150*time.Millisecond),
			mpb.WithWidth(80),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	u := &UploadUI{progress: p, out: out, isTerminal: isTerminal, current: -1}
	for i, f := range files {
		u.bars = append(u.bars, u.addFileBar(i, len(files), f))
	}
	return u
}

func (u *UploadUI) addFileBar(index, total int, f staging.File) *FileBar {
	fb := &FileBar{ui: u, index: index, name: f.Name, size: f.Size, startTime: time.Now()}
	if !u.isTerminal {
		return fb
	}

	label := fmt.Sprintf("[%d/%d] %s (%s)", index+1, total, truncatePath(f.Path, 2), humanize.IBytes(uint64(f.Size)))
	fb.bar = u.progress.New(f.Size,
		mpb.BarStyle().
			Lbound("[").
			Filler("█").
			Tip("█").
			Padding("░").
			Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(label, decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
			decor.Name("  "),
			decor.Percentage(decor.WCSyncSpace),
			decor.Name("  "),
			decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 30, decor.WCSyncSpace),
		),
	)
	return fb
}

// Track returns a transfer progress callback that drives the bars. Bytes
// are attributed to the file being streamed; multipart headers make the
// per-file figure approximate until the file completes.
func (u *UploadUI) Track() func(transfer.Progress) {
	return func(p transfer.Progress) {
		u.mu.Lock()
		defer u.mu.Unlock()

		if p.FileIndex != u.current {
			for i := u.current; i >= 0 && i < p.FileIndex && i < len(u.bars); i++ {
				u.bars[i].complete()
			}
			u.current = p.FileIndex
			u.offset = p.BytesSent
			if p.FileIndex >= 0 && p.FileIndex < len(u.bars) {
				u.bars[p.FileIndex].start()
			}
		}
		if p.FileIndex >= 0 && p.FileIndex < len(u.bars) {
			u.bars[p.FileIndex].set(p.BytesSent - u.offset)
		}
		if p.BytesSent == p.BytesTotal {
			for _, b := range u.bars {
				b.complete()
			}
		}
	}
}

func (f *FileBar) start() {
	f.startTime = time.Now()
	if !f.ui.isTerminal {
		fmt.Fprintf(f.ui.out, "Uploading [%d/%d]: %s (%s)\n",
			f.index+1, len(f.ui.bars), f.name, humanize.IBytes(uint64(f.size)))
	}
}

func (f *FileBar) set(n int64) {
	if f.bar == nil || f.done {
		return
	}
	if n > f.size {
		n = f.size
	}
	if n > f.bar.Current() {
		f.bar.EwmaSetCurrent(n, time.Since(f.startTime))
	}
}

func (f *FileBar) complete() {
	if f.done {
		return
	}
	f.done = true
	if f.bar != nil {
		f.bar.SetCurrent(f.size)
		f.bar.SetTotal(f.size, true)
	}
}

// Finish completes or aborts every bar and waits for the final render.
func (u *UploadUI) Finish(err error) {
	u.mu.Lock()
	for _, b := range u.bars {
		if err == nil {
			b.complete()
		} else if b.bar != nil && !b.done {
			b.done = true
			b.bar.Abort(false)
		}
	}
	u.mu.Unlock()
	u.progress.Wait()
}

// Writer returns an io.Writer that prints above the bars.
func (u *UploadUI) Writer() io.Writer {
	if u.isTerminal {
		return u.progress
	}
	return u.out
}

// IsTerminal returns true if output is to a terminal (progress bars are active).
func (u *UploadUI) IsTerminal() bool {
	return u.isTerminal
}

// truncatePath truncates a file path to show only the last N components
// Example: truncatePath("/a/b/c/d/file.txt", 3) → "…/c/d/file.txt"
func truncatePath(path string, maxComponents int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= maxComponents {
		return filepath.Base(path)
	}
	relevant := parts[len(parts)-maxComponents:]
	return "…/" + strings.Join(relevant, "/")
}

// enableANSIOnWindows turns on virtual terminal processing when out is a
// Windows console.
func enableANSIOnWindows(out io.Writer) {
	if runtime.GOOS != "windows" {
		return
	}
	if f, ok := out.(*os.File); ok {
		enableWindowsANSI(f)
	}
}
