package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	cases := map[string]string{
		"~":                   home,
		"~/models/nomic.gguf": filepath.Join(home, "models", "nomic.gguf"),
		"/abs/model.onnx":     "/abs/model.onnx",
		"relative/model.gguf": "relative/model.gguf",
		"~other/model.gguf":   "~other/model.gguf",
		"":                    "",
	}
	for in, want := range cases {
		if got := ExpandHome(in); got != want {
			t.Fatalf("ExpandHome(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExistsAndIsFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "model.gguf")
	if err := os.WriteFile(f, []byte("gguf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !Exists(f) || !IsFile(f) {
		t.Fatalf("expected %s to exist as a file", f)
	}
	if !Exists(dir) || IsFile(dir) {
		t.Fatalf("directory should exist but not be a file")
	}
	missing := filepath.Join(dir, "missing.gguf")
	if Exists(missing) || IsFile(missing) {
		t.Fatalf("missing path reported present")
	}
}

func TestSibling(t *testing.T) {
	if got := Sibling("/m/model.onnx", "tokenizer.json", ""); got != filepath.Join("/m", "tokenizer.json") {
		t.Fatalf("got %q", got)
	}
	if got := Sibling("/m/model.onnx", "tokenizer.json", "/t/tok.json"); got != "/t/tok.json" {
		t.Fatalf("explicit path should win, got %q", got)
	}
}
