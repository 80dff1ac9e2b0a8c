// Package staging owns the set of files selected for the next upload.
package staging

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/instantshare/instantshare/internal/events"
	"github.com/instantshare/instantshare/internal/format"
)

var (
	// ErrIsDirectory is returned when a selected path is a directory.
	ErrIsDirectory = errors.New("is a directory")

	// ErrNotRegular is returned for sockets, devices and other special files.
	ErrNotRegular = errors.New("not a regular file")
)

// File is one staged file. It is never modified after staging.
type File struct {
	Name     string // base name sent as the multipart filename
	Size     int64
	Path     string // location on the staging filesystem
	MimeType string
}

// PreviewLine is the derived display form of a staged file.
type PreviewLine struct {
	Name      string
	Extension string
	SizeText  string
}

func (l PreviewLine) String() string {
	return l.Extension + " • " + l.SizeText
}

// Area holds the staged set. The set is replaced as a whole on every
// selection and is either empty or fully populated.
type Area struct {
	mu    sync.RWMutex
	files []File
	fs    afero.Fs
	bus   *events.EventBus
}

// NewArea creates an empty staging area reading files from fs.
func NewArea(fs afero.Fs, bus *events.EventBus) *Area {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Area{fs: fs, bus: bus}
}

// Fs returns the filesystem staged paths refer to.
func (a *Area) Fs() afero.Fs {
	return a.fs
}

// Stage replaces the staged set with files, in order. Staging zero files is
// a no-op and keeps the previous set.
func (a *Area) Stage(files []File) {
	if len(files) == 0 {
		return
	}
	staged := make([]File, len(files))
	copy(staged, files)

	a.mu.Lock()
	a.files = staged
	total := sumSizes(staged)
	a.mu.Unlock()

	a.bus.Publish(&events.StagedEvent{
		BaseEvent:  events.NewBase(events.EventStaged),
		Files:      len(staged),
		TotalBytes: total,
	})
}

// StagePaths resolves paths picked by the user and stages them. If any path
// cannot be staged the previous set is kept and the error is returned.
func (a *Area) StagePaths(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		f, err := a.Resolve(p)
		if err != nil {
			return err
		}
		files = append(files, f)
	}
	a.Stage(files)
	return nil
}

// Drop stages the files of a drag-and-drop payload. An empty payload is
// silently ignored.
func (a *Area) Drop(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	return a.StagePaths(paths)
}

// DropText parses text pasted by a terminal drag-and-drop and stages the
// result. Text that contains no paths is ignored.
func (a *Area) DropText(text string) error {
	return a.Drop(ParseDropPayload(text))
}

// Resolve builds a File for path without staging it.
func (a *Area) Resolve(path string) (File, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("cannot stage %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("cannot stage %s: %w", path, ErrIsDirectory)
	}
	if !info.Mode().IsRegular() {
		return File{}, fmt.Errorf("cannot stage %s: %w", path, ErrNotRegular)
	}

	return File{
		Name:     filepath.Base(path),
		Size:     info.Size(),
		Path:     path,
		MimeType: a.detectMIME(path),
	}, nil
}

func (a *Area) detectMIME(path string) string {
	f, err := a.fs.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "application/octet-stream"
	}
	return mt.String()
}

// Clear empties the staged set.
func (a *Area) Clear() {
	a.mu.Lock()
	had := len(a.files) > 0
	a.files = nil
	a.mu.Unlock()

	if had {
		a.bus.Publish(&events.StagedEvent{BaseEvent: events.NewBase(events.EventStagedCleared)})
	}
}

// Current returns a copy of the staged set in input order.
func (a *Area) Current() []File {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]File, len(a.files))
	copy(out, a.files)
	return out
}

// Empty reports whether nothing is staged.
func (a *Area) Empty() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.files) == 0
}

// TotalSize returns the sum of staged file sizes.
func (a *Area) TotalSize() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return sumSizes(a.files)
}

// Preview renders the staged set for display, in input order.
func (a *Area) Preview() []PreviewLine {
	return Preview(a.Current())
}

// Preview renders files for display, in input order.
func Preview(files []File) []PreviewLine {
	lines := make([]PreviewLine, len(files))
	for i, f := range files {
		lines[i] = PreviewLine{
			Name:      f.Name,
			Extension: format.Extension(f.Name),
			SizeText:  format.Size(f.Size),
		}
	}
	return lines
}

func sumSizes(files []File) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}
