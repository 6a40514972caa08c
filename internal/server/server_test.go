package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FocuswithJustin/JuniperTorah/internal/logging"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSMiddlewareAllowAll(t *testing.T) {
	handler := CORSMiddleware(CORSConfig{}, ok)

	req := httptest.NewRequest(http.MethodGet, "/data/metadata/books.json", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("credentials must not be allowed with a wildcard origin")
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "DELETE") {
		t.Error("DELETE should be allowed for cache clearing")
	}
}

func TestCORSMiddlewareRestrictedOrigins(t *testing.T) {
	handler := CORSMiddleware(CORSConfig{AllowedOrigins: []string{"https://reader.example.org"}}, ok)

	tests := []struct {
		name        string
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		wantCredits bool
	}{
		{"allowed origin", http.MethodGet, "https://reader.example.org", http.StatusOK, "https://reader.example.org", true},
		{"disallowed origin", http.MethodGet, "https://evil.example", http.StatusOK, "", false},
		{"no origin", http.MethodGet, "", http.StatusOK, "", false},
		{"preflight allowed", http.MethodOptions, "https://reader.example.org", http.StatusOK, "https://reader.example.org", true},
		{"preflight disallowed", http.MethodOptions, "https://evil.example", http.StatusForbidden, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/cache", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials") == "true"; got != tt.wantCredits {
				t.Errorf("Allow-Credentials = %v, want %v", got, tt.wantCredits)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders(APICSPConfig(), ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/verse/genesis/6/9", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'",
	}
	for header, value := range want {
		if got := w.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
}

func TestBuildCSPHeader(t *testing.T) {
	got := DataCSPConfig().BuildCSPHeader()
	want := "default-src 'self'; connect-src 'self'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'"
	if got != want {
		t.Errorf("BuildCSPHeader() = %q, want %q", got, want)
	}
	if (CSPConfig{}).BuildCSPHeader() != "" {
		t.Error("empty config should produce an empty header")
	}

	w := httptest.NewRecorder()
	SecurityHeaders(CSPConfig{}, ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("Content-Security-Policy") != "" {
		t.Error("empty CSP should not set the header")
	}
}

func TestNoStore(t *testing.T) {
	w := httptest.NewRecorder()
	NoStore(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cache", nil))
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestTimingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logging.InitLoggerTo(&buf, logging.LevelDebug, logging.FormatJSON)
	t.Cleanup(func() { logging.InitLoggerTo(os.Stderr, logging.LevelInfo, logging.FormatJSON) })

	fast := TimingMiddleware(ok)
	fast.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if !strings.Contains(buf.String(), "request_timing") {
		t.Errorf("fast request log = %s", buf.String())
	}

	buf.Reset()
	slow := TimingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(SlowRequestThreshold + 20*time.Millisecond)
	}))
	slow.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/verse/genesis/1/1", nil))
	if !strings.Contains(buf.String(), "slow_request") || !strings.Contains(buf.String(), "/api/verse/genesis/1/1") {
		t.Errorf("slow request log = %s", buf.String())
	}
}

func TestAbsPath(t *testing.T) {
	if got := AbsPath("data"); !filepath.IsAbs(got) {
		t.Errorf("AbsPath(data) = %q, want absolute", got)
	}
	if got := AbsPath("/srv/torah"); got != "/srv/torah" {
		t.Errorf("AbsPath(abs) = %q", got)
	}
}
