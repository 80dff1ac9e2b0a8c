package retrieval

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"

	"github.com/instantshare/instantshare/internal/api"
	"github.com/instantshare/instantshare/internal/diskspace"
	"github.com/instantshare/instantshare/internal/events"
)

type backend struct {
	hits atomic.Int32
	srv  *httptest.Server
}

func newBackend(t *testing.T, handler http.HandlerFunc) *backend {
	t.Helper()
	b := &backend{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func newTestController(t *testing.T, baseURL string) (*Controller, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	c := NewController(api.NewClientWithHTTP(baseURL, http.DefaultClient, nil, nil), fs, "/downloads", nil, nil)
	c.Interval = 0
	c.CheckSpace = nil
	return c, fs
}

func serveBundle(name, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		if name != "" {
			w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		}
		_, _ = w.Write([]byte(body))
	}
}

func TestInvalidCodesMakeNoRequest(t *testing.T) {
	b := newBackend(t, serveBundle("x", "x"))
	c, _ := newTestController(t, b.srv.URL)

	for _, code := range []string{"", "   ", "abc", "ABCDEFG", "AB 12", "\tab12c\n"} {
		_, err := c.Redeem(context.Background(), code, nil)
		if !errors.Is(err, ErrInvalidCodeFormat) {
			t.Errorf("Redeem(%q) err = %v, want ErrInvalidCodeFormat", code, err)
		}
		if Reason(err) != "Please enter a valid 6-character code." {
			t.Errorf("Reason = %q", Reason(err))
		}
	}
	if n := b.hits.Load(); n != 0 {
		t.Errorf("server received %d requests for invalid codes", n)
	}
}

func TestRedeemSavesBundle(t *testing.T) {
	var path string
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		serveBundle("report.pdf", "%PDF-1.7 bundle")(w, r)
	})
	c, fs := newTestController(t, b.srv.URL)

	var last Progress
	res, err := c.Redeem(context.Background(), "  ab12cd ", func(p Progress) { last = p })
	if err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if path != "/download_direct/AB12CD" {
		t.Errorf("requested %s", path)
	}
	if res.Path != "/downloads/report.pdf" || res.Bytes != 15 || res.Code != "AB12CD" {
		t.Errorf("Result = %+v", res)
	}
	data, err := afero.ReadFile(fs, res.Path)
	if err != nil || string(data) != "%PDF-1.7 bundle" {
		t.Errorf("saved content = %q, %v", data, err)
	}
	if ok, _ := afero.Exists(fs, res.Path+".part"); ok {
		t.Error(".part file left behind")
	}
	if last.BytesReceived != 15 || last.BytesTotal != 15 {
		t.Errorf("final progress = %+v", last)
	}
}

func TestRedeemFallbackName(t *testing.T) {
	b := newBackend(t, serveBundle("", "data"))
	c, _ := newTestController(t, b.srv.URL)

	res, err := c.Redeem(context.Background(), "xy98zt", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != "/downloads/XY98ZT.bin" {
		t.Errorf("Path = %s, want fallback name", res.Path)
	}
}

func TestRedeemDoesNotOverwrite(t *testing.T) {
	b := newBackend(t, serveBundle("notes.txt", "new"))
	c, fs := newTestController(t, b.srv.URL)
	if err := afero.WriteFile(fs, "/downloads/notes.txt", []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	first, err := c.Redeem(context.Background(), "AB12CD", nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Redeem(context.Background(), "AB12CD", nil)
	if err != nil {
		t.Fatal(err)
	}

	if first.Path != "/downloads/notes (1).txt" || second.Path != "/downloads/notes (2).txt" {
		t.Errorf("paths = %s, %s", first.Path, second.Path)
	}
	if data, _ := afero.ReadFile(fs, "/downloads/notes.txt"); string(data) != "old" {
		t.Error("existing file was overwritten")
	}
}

func TestRedeemSanitizesServerName(t *testing.T) {
	b := newBackend(t, serveBundle("../../etc/passwd", "x"))
	c, _ := newTestController(t, b.srv.URL)

	res, err := c.RedeemTo(context.Background(), "AB12CD", "/elsewhere", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != "/elsewhere/passwd" {
		t.Errorf("Path = %s", res.Path)
	}
}

func TestRedeemErrorEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		envelope bool
		message  string
	}{
		{"expired", http.StatusNotFound, `{"error":"Invalid or expired code!"}`, true, "Invalid or expired code!"},
		{"ok status envelope", http.StatusOK, `{"error":"File expired!"}`, true, "File expired!"},
		{"empty envelope", http.StatusNotFound, `{}`, true, "Download failed."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			c, fs := newTestController(t, b.srv.URL)

			_, err := c.Redeem(context.Background(), "AB12CD", nil)
			var de *DownloadError
			if !errors.As(err, &de) {
				t.Fatalf("err = %v", err)
			}
			if de.Envelope != tt.envelope || de.Message != tt.message {
				t.Errorf("DownloadError = %+v", de)
			}
			if ok, _ := afero.DirExists(fs, "/downloads"); ok {
				entries, _ := afero.ReadDir(fs, "/downloads")
				if len(entries) != 0 {
					t.Error("files written for an error envelope")
				}
			}
		})
	}
}

func TestRedeemNonJSONErrorStatus(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<h1>boom</h1>"))
	})
	c, _ := newTestController(t, b.srv.URL)

	_, err := c.Redeem(context.Background(), "AB12CD", nil)
	if Reason(err) != "Download failed." {
		t.Errorf("Reason = %q (%v)", Reason(err), err)
	}
}

func TestRedeemNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, _ := newTestController(t, url)
	_, err := c.Redeem(context.Background(), "AB12CD", nil)
	var de *DownloadError
	if !errors.As(err, &de) || de.Message != "Network error!" || !api.IsNetworkError(err) {
		t.Errorf("err = %v", err)
	}
}

func TestRedeemInsufficientSpace(t *testing.T) {
	b := newBackend(t, serveBundle("big.iso", strings.Repeat("x", 100)))
	c, fs := newTestController(t, b.srv.URL)
	c.CheckSpace = func(path string, size int64) error {
		return &diskspace.InsufficientSpaceError{Path: path, RequiredBytes: size, AvailableBytes: 1}
	}

	_, err := c.Redeem(context.Background(), "AB12CD", nil)
	if !diskspace.IsInsufficientSpaceError(err) {
		t.Fatalf("err = %v", err)
	}
	if ok, _ := afero.Exists(fs, "/downloads/big.iso"); ok {
		t.Error("file written despite insufficient space")
	}
}

func TestRedeemPublishesEvents(t *testing.T) {
	b := newBackend(t, serveBundle("a.txt", "abc"))
	bus := events.NewEventBus(100)
	defer bus.Close()
	ch := bus.Subscribe(events.EventRedeemStarted, events.EventRedeemProgress, events.EventRedeemCompleted)

	c := NewController(api.NewClientWithHTTP(b.srv.URL, http.DefaultClient, nil, nil), afero.NewMemMapFs(), "/d", bus, nil)
	c.Interval = 0
	c.CheckSpace = nil
	if _, err := c.Redeem(context.Background(), "AB12CD", nil); err != nil {
		t.Fatal(err)
	}

	var types []events.EventType
	for len(ch) > 0 {
		types = append(types, (<-ch).Type())
	}
	if types[0] != events.EventRedeemStarted || types[len(types)-1] != events.EventRedeemCompleted {
		t.Errorf("event order = %v", types)
	}
}

func TestFilenameFromDisposition(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{`attachment; filename="a b.txt"`, "a b.txt"},
		{`attachment; filename*=UTF-8''%C3%A9t%C3%A9.txt`, "été.txt"},
		{`attachment; filename="..\\..\\x.exe"`, "x.exe"},
		{`attachment; filename=".part"`, ""},
		{`garbage;;`, ""},
	}
	for _, tt := range tests {
		if got := filenameFromDisposition(tt.header); got != tt.want {
			t.Errorf("filenameFromDisposition(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestValidateNormalizesPastedCodes(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{" ab12cd ", "AB12CD", false},
		{"ab\u200B12cd", "AB12CD", false},
		{"\uFEFFXY34ZW\n", "XY34ZW", false},
		{"ab12c", "", true},
		{"ab12cde", "", true},
	}
	for _, tt := range tests {
		got, err := Validate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Validate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
