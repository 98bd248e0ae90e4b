package paths

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicWritePreservesPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instance.json")

	if err := AtomicWrite(path, []byte("v1")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := AtomicWrite(path, []byte("v2")); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v2" {
		t.Fatalf("expected v2, got %q", data)
	}

	// no stray temp file left behind
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be gone, stat err=%v", err)
	}

	// a write whose temp file cannot be created fails and leaves v2 intact
	if err := os.Mkdir(path+".tmp", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := AtomicWrite(path, []byte("v3")); err == nil {
		t.Fatal("expected write with a blocked temp path to fail")
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v2" {
		t.Fatalf("expected v2 to survive the failed write, got %q", data)
	}
}

func TestSHA1FileStreaming(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	hash, err := SHA1File(path)
	if err != nil {
		t.Fatal(err)
	}
	const want = "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed"
	if hash != want {
		t.Fatalf("got %s want %s", hash, want)
	}
	if !FileMatchesSHA1(path, want) {
		t.Fatal("expected match")
	}
	if FileMatchesSHA1(path, "deadbeef") {
		t.Fatal("expected mismatch")
	}
}

func TestUnzipRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")

	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("../../escape.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("pwned")); err != nil {
		t.Fatal(err)
	}
	zw.Close()
	f.Close()

	dest := filepath.Join(dir, "dest")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := UnzipInto(archivePath, dest, false); err == nil {
		t.Fatal("expected path-traversal entry to be rejected")
	}
}

func TestUnzipStripsMetaInf(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "native.jar")

	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, name := range []string{"META-INF/MANIFEST.MF", "libnative.so"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte("data"))
	}
	zw.Close()
	f.Close()

	dest := filepath.Join(dir, "natives")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := UnzipInto(archivePath, dest, true); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dest, "libnative.so")); err != nil {
		t.Fatalf("expected libnative.so to be extracted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "META-INF")); !os.IsNotExist(err) {
		t.Fatalf("expected META-INF to be skipped, err=%v", err)
	}
}
