package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/linkgraph/internal/apperr"
	"github.com/starford/linkgraph/internal/index"
	"github.com/starford/linkgraph/internal/sse"
	"github.com/starford/linkgraph/internal/testutil"
)

func dumpConfig(d testutil.Dumps) *Config {
	cfg := NewDefaultConfig()
	cfg.Inputs.Pages = d.Pages
	cfg.Inputs.Redirects = d.Redirects
	cfg.Inputs.Links = d.Links
	cfg.Inputs.Unmatched = d.Unmatched
	return cfg
}

func TestRun_WritesStdout(t *testing.T) {
	d := testutil.WriteDumps(t, "1\tA\t0\n2\tB\t0\n3\tC\t0\n", "1\t3\n", "1\tB\n")
	var stdout bytes.Buffer

	err := Run(context.Background(),
		WithConfig(dumpConfig(d)),
		WithStdout(&stdout),
		WithStderr(io.Discard))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := stdout.String(); got != "3\t2\n" {
		t.Errorf("stdout = %q, want %q", got, "3\t2\n")
	}
}

func TestRun_NoExportWithoutSQLitePath(t *testing.T) {
	d := testutil.WriteDumps(t, "1\tA\t0\n2\tB\t0\n", "", "1\tB\n")
	cfg := dumpConfig(d)
	cfg.SQLite.Path = ""

	if err := Run(context.Background(), WithConfig(cfg), WithStdout(io.Discard), WithStderr(io.Discard)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{
		"pages.txt.zst": true, "redirects.txt.zst": true,
		"links.txt.zst": true, "unmatched.txt.zst": true,
	}
	for _, e := range entries {
		if !want[e.Name()] {
			t.Errorf("unexpected file %s after a run without export", e.Name())
		}
	}
}

func TestRun_CompressedOutputFile(t *testing.T) {
	d := testutil.WriteDumps(t, "1\tA\t0\n2\tB\t0\n", "", "1\tB\n")
	cfg := dumpConfig(d)
	cfg.Inputs.Output = filepath.Join(d.Dir, "resolved.txt.zst")
	var stdout bytes.Buffer

	if err := Run(context.Background(), WithConfig(cfg), WithStdout(&stdout), WithStderr(io.Discard)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout should be empty, got %q", stdout.String())
	}
	if got := testutil.ReadZst(t, cfg.Inputs.Output); got != "1\t2\n" {
		t.Errorf("resolved = %q", got)
	}
}

func TestRun_Export(t *testing.T) {
	d := testutil.WriteDumps(t, "1\tA\t0\n2\tB\t0\n", "", "1\tB\n1\tZ\n")
	cfg := dumpConfig(d)
	cfg.SQLite.Path = filepath.Join(d.Dir, "graph.db")

	if err := Run(context.Background(), WithConfig(cfg), WithStdout(io.Discard), WithStderr(io.Discard)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	counts, err := db.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if counts.Pages != 2 || counts.Links != 1 || counts.Unmatched != 1 {
		t.Errorf("counts = %+v", counts)
	}
}

func TestRun_ConfigErrorBeforeProcessing(t *testing.T) {
	d := testutil.WriteDumps(t, "1\tA\t0\n", "", "1\tA\n")
	cfg := dumpConfig(d)
	cfg.Inputs.Pages = "pages.txt"
	var stdout bytes.Buffer

	err := Run(context.Background(), WithConfig(cfg), WithStdout(&stdout), WithStderr(io.Discard))
	if !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("nothing should be written, got %q", stdout.String())
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestServeMCP_RequiresSQLite(t *testing.T) {
	err := ServeMCP(context.Background(), WithConfig(NewDefaultConfig()), WithStderr(io.Discard))
	if !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
}

func TestNewRouter_HealthAndAuth(t *testing.T) {
	db := testutil.TestDB(t)
	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	cfg := NewDefaultConfig()
	cfg.Auth = AuthConfig{Mode: AuthModeToken, Token: "secret"}
	h := newRouter(cfg, db, broker)

	for _, path := range []string{"/health/live", "/health/ready"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", w.Code)
	}
}

func TestHealth_FailingCheck(t *testing.T) {
	w := httptest.NewRecorder()
	health(func() error { return errors.New("down") })(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
