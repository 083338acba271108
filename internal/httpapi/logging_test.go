package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"weird": LevelInfo, // default
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?log=debug", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("query override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x?log=1", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("legacy query override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("header override failed: %v", got)
	}
	SetRequestLogLevel("off")
	defer SetRequestLogLevel("info")
	if got := requestLogLevel(httptest.NewRequest("GET", "/x", nil)); got != LevelOff {
		t.Fatalf("default level not applied: %v", got)
	}
}

func TestAccessLogWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.Nop())

	h := AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/brew", nil))
	out := buf.String()
	if !strings.Contains(out, `"status":418`) || !strings.Contains(out, `"component":"http"`) {
		t.Fatalf("unexpected log line: %q", out)
	}

	buf.Reset()
	r := httptest.NewRequest("GET", "/quiet?log=off", nil)
	h.ServeHTTP(httptest.NewRecorder(), r)
	if buf.Len() != 0 {
		t.Fatalf("log=off must suppress the access line, got %q", buf.String())
	}
}
