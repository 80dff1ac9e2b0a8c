package cli

import (
	"bytes"
	"context"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/instantshare/instantshare/internal/api"
	"github.com/instantshare/instantshare/internal/config"
	"github.com/instantshare/instantshare/internal/core"
	"github.com/instantshare/instantshare/internal/events"
	"github.com/instantshare/instantshare/internal/expiry"
	"github.com/instantshare/instantshare/internal/progress"
)

func TestRootCommands(t *testing.T) {
	root := NewRootCmd()
	AddCommands(root)

	want := []string{"upload", "download", "theme", "ui", "config", "version", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	for _, flag := range []string{"config", "server", "verbose"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("--%s flag not found", flag)
		}
	}
}

func TestUploadCmdFlags(t *testing.T) {
	cmd := newUploadCmd()
	for _, flag := range []string{"no-wait", "qr", "copy"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("--%s flag not found", flag)
		}
	}
	if err := cmd.Args(cmd, nil); err == nil {
		t.Error("upload without files should be rejected")
	}
}

func TestDownloadCmdRejectsBadCode(t *testing.T) {
	cmd := newDownloadCmd()
	if cmd.Flags().Lookup("dst") == nil {
		t.Error("--dst flag not found")
	}
	cmd.SetArgs([]string{"abc"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	if err == nil || err.Error() != "Please enter a valid 6-character code." {
		t.Errorf("Execute() error = %v", err)
	}
}

func TestVersionCmd(t *testing.T) {
	cmd := newVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "instantshare ") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestThemeCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.ini")
	orig := themeStorePath
	themeStorePath = func() string { return path }
	t.Cleanup(func() { themeStorePath = orig })

	run := func(args ...string) string {
		cmd := newThemeCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		if err := cmd.Execute(); err != nil {
			t.Fatalf("theme %v: %v", args, err)
		}
		return strings.TrimSpace(out.String())
	}

	if got := run(); got != "🌙 dark" {
		t.Errorf("theme = %q, want dark default", got)
	}
	if got := run("toggle"); got != "☀️ light" {
		t.Errorf("theme toggle = %q", got)
	}
	if got := run(); got != "☀️ light" {
		t.Errorf("toggle was not persisted, theme = %q", got)
	}
}

func newTestController(t *testing.T) (*core.Controller, afero.Fs) {
	t.Helper()
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/upload_ajax", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"codes":["QW12ER"]}`)
	})
	mux.HandleFunc("/download_direct/QW12ER", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Content-Disposition", `attachment; filename="hello.txt"`)
		fmt.Fprint(w, "hello")
	})
	mux.HandleFunc("/static/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG\r\n\x1a\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.NewConfig()
	cfg.ServerURL = srv.URL
	cfg.DownloadDir = "/downloads"

	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/data/hello.txt", []byte("hello"), 0644)

	ctl, err := core.New(core.Options{
		Config: cfg,
		Client: api.NewClientWithHTTP(srv.URL, srv.Client(), nil, nil),
		Fs:     fs,
		Clock:  expiry.NewManualClock(time.Unix(0, 0)),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(ctl.Close)
	return ctl, fs
}

func TestRunUploadNoWait(t *testing.T) {
	ctl, _ := newTestController(t)

	var out bytes.Buffer
	err := runUpload(context.Background(), ctl, []string{"/data/hello.txt"}, uploadOptions{noWait: true, showQR: true}, &out)
	if err != nil {
		t.Fatalf("runUpload() error = %v", err)
	}
	for _, want := range []string{"Upload successful!", "Code: QW12ER", "/download_direct/QW12ER", "Expires in 05:00"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunUploadMissingFile(t *testing.T) {
	ctl, _ := newTestController(t)
	if err := runUpload(context.Background(), ctl, []string{"/data/nope"}, uploadOptions{noWait: true}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestRunDownload(t *testing.T) {
	ctl, fs := newTestController(t)

	var rec progress.Recorder
	var out bytes.Buffer
	if err := runDownload(context.Background(), ctl, "qw12er", "", &rec, &out); err != nil {
		t.Fatalf("runDownload() error = %v", err)
	}
	data, err := afero.ReadFile(fs, "/downloads/hello.txt")
	if err != nil || string(data) != "hello" {
		t.Errorf("saved file = %q, %v", data, err)
	}
	if !rec.Finished || rec.Last() != 5 {
		t.Errorf("progress not reported: %+v", rec)
	}
	if !strings.Contains(out.String(), "/downloads/hello.txt") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunDownloadUnknownCode(t *testing.T) {
	ctl, _ := newTestController(t)
	err := runDownload(context.Background(), ctl, "ZZZZZZ", "", &progress.Recorder{}, &bytes.Buffer{})
	if err == nil || err.Error() != "Download failed." {
		t.Errorf("runDownload() error = %v, want Download failed.", err)
	}
}

func TestFollowCountdown(t *testing.T) {
	ticks := make(chan events.Event, 3)
	ticks <- &events.CountdownEvent{BaseEvent: events.NewBase(events.EventCountdownTick), Display: "00:01"}
	ticks <- &events.CountdownEvent{BaseEvent: events.NewBase(events.EventCountdownTick), Display: "00:00"}
	ticks <- &events.CountdownEvent{BaseEvent: events.NewBase(events.EventCountdownExpired), Display: "Expired"}

	var out bytes.Buffer
	if err := followCountdown(context.Background(), ticks, &out); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Expires in 00:01", "Expires in 00:00", "File expired!"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q: %q", want, out.String())
		}
	}
}

func TestFollowCountdownCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := followCountdown(ctx, make(chan events.Event), &bytes.Buffer{}); err != nil {
		t.Errorf("followCountdown() error = %v", err)
	}
}
