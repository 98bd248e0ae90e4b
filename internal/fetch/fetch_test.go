package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/quasar/launchercore/internal/errs"
)

func TestGetJSONDecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"hello": "world"})
	}))
	defer srv.Close()

	f := New(0)
	got, err := GetJSON[map[string]string](context.Background(), f, srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if got["hello"] != "world" {
		t.Fatalf("got %v", got)
	}
}

func TestGetJSONTerminalOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(0)
	_, err := GetJSON[map[string]string](context.Background(), f, srv.URL)
	if !errs.Is(err, errs.Network) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestDownloadVerifiesChecksum(t *testing.T) {
	const body = "hello world"
	const sha1Hex = "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "file.bin")

	f := New(0)
	if err := f.Download(context.Background(), srv.URL, dest, Expected{SHA1: sha1Hex, Size: int64(len(body))}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != body {
		t.Fatalf("got %q", data)
	}
}

func TestDownloadRejectsChecksumMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "file.bin")

	f := New(0)
	err := f.Download(context.Background(), srv.URL, dest, Expected{SHA1: "deadbeef"})
	if !errs.Is(err, errs.Checksum) {
		t.Fatalf("expected checksum error, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatal("expected no file left behind on checksum mismatch")
	}
}

func TestDownloadSkipsWhenAlreadyPresent(t *testing.T) {
	const body = "hello world"
	const sha1Hex = "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed"

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(dest, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	f := New(0)
	if err := f.Download(context.Background(), srv.URL, dest, Expected{SHA1: sha1Hex}); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("expected download to be skipped when destination already matches")
	}
}
