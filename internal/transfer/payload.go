package transfer

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/spf13/afero"

	"github.com/instantshare/instantshare/internal/constants"
	"github.com/instantshare/instantshare/internal/staging"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func partHeader(f staging.File) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(constants.UploadFieldName), quoteEscaper.Replace(f.Name)))
	ct := f.MimeType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	return h
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}

// payloadLength returns the exact size of the multipart body for files
// encoded with boundary.
func payloadLength(files []staging.File, boundary string) (int64, error) {
	cw := &countingWriter{}
	mw := multipart.NewWriter(cw)
	if err := mw.SetBoundary(boundary); err != nil {
		return 0, err
	}
	var size int64
	for _, f := range files {
		if _, err := mw.CreatePart(partHeader(f)); err != nil {
			return 0, err
		}
		size += f.Size
	}
	if err := mw.Close(); err != nil {
		return 0, err
	}
	return cw.n + size, nil
}

// progressWriter counts bytes accepted by the transport. Writes to an
// io.Pipe return only after the reader consumed them.
type progressWriter struct {
	w      io.Writer
	sent   int64
	report func(sent int64)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	if n > 0 {
		p.sent += int64(n)
		p.report(p.sent)
	}
	return n, err
}

// writePayload streams files as multipart parts into w. setIndex is called
// before each file is streamed.
func writePayload(w io.Writer, fs afero.Fs, files []staging.File, boundary string, setIndex func(int)) error {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(boundary); err != nil {
		return err
	}
	buf := make([]byte, constants.UploadCopyBufferSize)

	for i, f := range files {
		setIndex(i)
		part, err := mw.CreatePart(partHeader(f))
		if err != nil {
			return err
		}
		if err := copyFile(part, fs, f, buf); err != nil {
			return err
		}
	}
	return mw.Close()
}

// localError marks failures reading staged files, as opposed to the
// transport closing the pipe.
type localError struct {
	err error
}

func (e *localError) Error() string { return e.err.Error() }
func (e *localError) Unwrap() error { return e.err }

type localReader struct {
	r io.Reader
}

func (l localReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	if err != nil && err != io.EOF {
		err = &localError{err: err}
	}
	return n, err
}

func copyFile(dst io.Writer, fs afero.Fs, f staging.File, buf []byte) error {
	src, err := fs.Open(f.Path)
	if err != nil {
		return &localError{err: fmt.Errorf("failed to open %s: %w", f.Name, err)}
	}
	defer src.Close()

	n, err := io.CopyBuffer(dst, localReader{io.LimitReader(src, f.Size+1)}, buf)
	if err != nil {
		return err
	}
	if n != f.Size {
		return &localError{err: fmt.Errorf("%s: %w", f.Name, ErrFileChanged)}
	}
	return nil
}
