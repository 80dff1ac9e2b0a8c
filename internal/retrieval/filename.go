package retrieval

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/instantshare/instantshare/internal/validation"
)

// partSuffix marks a download still being written.
const partSuffix = ".part"

// filenameFromDisposition returns the file name announced by a
// Content-Disposition header, reduced to a safe base name, or "".
func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return sanitizeName(params["filename"])
}

func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if validation.ValidateFilename(name) != nil {
		return ""
	}
	if strings.HasSuffix(name, partSuffix) {
		name = strings.TrimSuffix(name, partSuffix)
		if name == "" {
			return ""
		}
	}
	return name
}

// fallbackName is used when the server does not name the bundle.
func fallbackName(code string) string {
	return code + ".bin"
}

// uniquePath returns dir/name, or dir/"base (n).ext" for the first n that
// is not taken.
func uniquePath(fs afero.Fs, dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	taken, err := exists(fs, candidate)
	if err != nil || !taken {
		return candidate, err
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, n, ext))
		taken, err := exists(fs, candidate)
		if err != nil || !taken {
			return candidate, err
		}
	}
}

func exists(fs afero.Fs, path string) (bool, error) {
	_, err := fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
