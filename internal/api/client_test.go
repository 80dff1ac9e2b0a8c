package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/instantshare/instantshare/internal/config"
)

func TestNewClientRejectsEmptyBaseURL(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ServerURL = " "

	_, err := NewClient(cfg, nil)
	if !errors.Is(err, ErrEmptyBaseURL) {
		t.Fatalf("NewClient() error = %v, want ErrEmptyBaseURL", err)
	}
}

func TestNewClientAcceptsValidBaseURL(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ServerURL = "https://share.example.com/"
	cfg.ProxyMode = config.ProxyModeNone

	client, err := NewClient(cfg, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v, want nil", err)
	}
	if client.UploadURL() != "https://share.example.com/upload_ajax" {
		t.Errorf("UploadURL() = %s", client.UploadURL())
	}
	if client.DownloadURL("AB12CD") != "https://share.example.com/download_direct/AB12CD" {
		t.Errorf("DownloadURL() = %s", client.DownloadURL("AB12CD"))
	}
}

func TestParseUploadResponse(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  string
		wantCodes int
		wantErr   error
		backend   string
	}{
		{"code", `{"success":true,"code":"ab12cd"}`, "AB12CD", 1, nil, ""},
		{"codes", `{"success":true,"codes":[" xy98zt ","QQQQQQ"]}`, "XY98ZT", 2, nil, ""},
		{"codes preferred", `{"success":true,"code":"AAAAAA","codes":["BBBBBB"]}`, "BBBBBB", 1, nil, ""},
		{"no code", `{"success":true}`, "", 0, ErrMissingCode, ""},
		{"empty codes", `{"success":true,"codes":[]}`, "", 0, ErrMissingCode, ""},
		{"rejected", `{"success":false,"error":"quota exceeded"}`, "", 0, nil, "quota exceeded"},
		{"rejected silent", `{"success":false}`, "", 0, nil, ""},
		{"not json", `<html>oops</html>`, "", 0, ErrMalformedResponse, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseUploadResponse([]byte(tt.body))

			var be *BackendError
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			case strings.Contains(tt.body, `"success":false`):
				if !errors.As(err, &be) {
					t.Fatalf("err = %v, want *BackendError", err)
				}
				if be.Message != tt.backend {
					t.Errorf("Message = %q, want %q", be.Message, tt.backend)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				if res.Code != tt.wantCode || len(res.Codes) != tt.wantCodes {
					t.Errorf("result = %+v", res)
				}
			}
		})
	}
}

func TestUpload(t *testing.T) {
	var gotType string
	var gotLen int64
	var gotBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload_ajax" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotType = r.Header.Get("Content-Type")
		gotLen = r.ContentLength
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"codes":["AB12CD"]}`))
	}))
	defer srv.Close()

	c := NewClientWithHTTP(srv.URL, srv.Client(), nil, nil)
	res, err := c.Upload(context.Background(), strings.NewReader("payload"), "multipart/form-data; boundary=x", 7)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res.Code != "AB12CD" {
		t.Errorf("Code = %s", res.Code)
	}
	if gotType != "multipart/form-data; boundary=x" || gotLen != 7 || gotBody != "payload" {
		t.Errorf("server saw type=%q len=%d body=%q", gotType, gotLen, gotBody)
	}
}

func TestUploadStatusError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"json error", http.StatusBadRequest, `{"error":"No file selected!"}`, "No file selected!"},
		{"html error", http.StatusInternalServerError, `<h1>boom</h1>`, ""},
		{"empty", http.StatusRequestEntityTooLarge, ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClientWithHTTP(srv.URL, srv.Client(), nil, nil)
			_, err := c.Upload(context.Background(), strings.NewReader("x"), "text/plain", 1)

			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want *StatusError", err)
			}
			if se.StatusCode != tt.status || se.Message != tt.message {
				t.Errorf("StatusError = %+v", se)
			}
		})
	}
}

func TestUploadNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClientWithHTTP(url, http.DefaultClient, nil, nil)
	_, err := c.Upload(context.Background(), strings.NewReader("x"), "text/plain", 1)
	if !IsNetworkError(err) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/download_direct/AB12CD" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("bundle"))
	}))
	defer srv.Close()

	c := NewClientWithHTTP(srv.URL+"/", srv.Client(), nil, nil)
	resp, err := c.Download(context.Background(), "AB12CD")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if string(b) != "bundle" {
		t.Errorf("body = %q", b)
	}
}

func TestFetchAssetRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG"))
	}))
	defer srv.Close()

	cfg := config.NewConfig()
	cfg.ServerURL = srv.URL
	cfg.ProxyMode = config.ProxyModeNone
	cfg.QRRetryMax = 2

	c, err := NewClient(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	data, mt, err := c.FetchAsset(context.Background(), srv.URL+"/static/AB12CD.png")
	if err != nil {
		t.Fatalf("FetchAsset() error = %v", err)
	}
	if mt != "image/png" || string(data) != "\x89PNG" {
		t.Errorf("got %q %q", mt, data)
	}
	if calls.Load() != 2 {
		t.Errorf("expected one retry, server saw %d calls", calls.Load())
	}
}

func TestErrorMessageAndMediaType(t *testing.T) {
	if ErrorMessage([]byte(` {"error":"File not found or expired"} `)) != "File not found or expired" {
		t.Error("ErrorMessage did not extract the envelope")
	}
	if ErrorMessage([]byte("nope")) != "" {
		t.Error("ErrorMessage should be empty for non-JSON")
	}
	if MediaType("Application/JSON; charset=utf-8") != "application/json" {
		t.Errorf("MediaType = %q", MediaType("Application/JSON; charset=utf-8"))
	}
	if MediaType("") != "" {
		t.Error("MediaType(\"\") should be empty")
	}
}

func TestNormalizeCode(t *testing.T) {
	if got := NormalizeCode("  ab12cd \n"); got != "AB12CD" {
		t.Errorf("NormalizeCode() = %q", got)
	}
}
