package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/starford/linkgraph/internal/apperr"
	"github.com/starford/linkgraph/internal/catalog"
	"github.com/starford/linkgraph/internal/models"
	"github.com/starford/linkgraph/internal/redirect"
	"github.com/starford/linkgraph/internal/tsv"
)

// recorder collects sink emissions.
type recorder struct {
	resolved  []models.ResolvedLink
	unmatched []models.UnmatchedTarget
	failAfter int
}

func (r *recorder) Resolved(l models.ResolvedLink) error {
	if r.failAfter > 0 && len(r.resolved) >= r.failAfter {
		return errors.New("sink full")
	}
	r.resolved = append(r.resolved, l)
	return nil
}

func (r *recorder) Unmatched(u models.UnmatchedTarget) error {
	r.unmatched = append(r.unmatched, u)
	return nil
}

func newResolver(t *testing.T, pages, redirects string) *Resolver {
	t.Helper()
	cat, err := catalog.Load(tsv.Pages(strings.NewReader(pages), "pages"))
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	red, err := redirect.Load(tsv.Redirects(strings.NewReader(redirects), "redirects"))
	if err != nil {
		t.Fatalf("redirects: %v", err)
	}
	return New(cat, red)
}

func stream(t *testing.T, r *Resolver, links string) (*recorder, Stats) {
	t.Helper()
	rec := &recorder{}
	st, err := r.Stream(context.Background(), tsv.Links(strings.NewReader(links), "links"), rec)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	return rec, st
}

func TestStream_BasicScenario(t *testing.T) {
	r := newResolver(t, "1\tA\t0\n2\tB\t0\n", "")
	rec, st := stream(t, r, "1\tB\n1\tC\n9\tA\n")

	if len(rec.resolved) != 1 || rec.resolved[0] != (models.ResolvedLink{SourceID: "1", TargetID: "2"}) {
		t.Errorf("resolved = %+v, want [(1,2)]", rec.resolved)
	}
	if len(rec.unmatched) != 1 || rec.unmatched[0] != (models.UnmatchedTarget{SourceID: "1", TargetTitle: "C"}) {
		t.Errorf("unmatched = %+v, want [(1,C)]", rec.unmatched)
	}
	want := Stats{Links: 3, Resolved: 1, Unmatched: 1, Dropped: 1}
	if st != want {
		t.Errorf("stats = %+v, want %+v", st, want)
	}
}

func TestStream_SourceRedirectScenario(t *testing.T) {
	r := newResolver(t, "1\tA\t0\n2\tB\t0\n3\tC\t0\n", "1\t3\n")
	rec, _ := stream(t, r, "1\tB\n")

	if len(rec.resolved) != 1 || rec.resolved[0] != (models.ResolvedLink{SourceID: "3", TargetID: "2"}) {
		t.Errorf("resolved = %+v, want [(3,2)]", rec.resolved)
	}
}

func TestResolve_DroppedSourceProducesNothing(t *testing.T) {
	r := newResolver(t, "1\tA\t0\n", "9\t1\n")
	// 9 is a redirect source but not a catalog page; the existence check uses
	// the raw id.
	out := r.Resolve(models.RawLink{SourceID: "9", TargetTitle: "A"})
	if out.Kind != Dropped {
		t.Errorf("kind = %v, want dropped", out.Kind)
	}
	out = r.Resolve(models.RawLink{SourceID: "9", TargetTitle: "Nope"})
	if out.Kind != Dropped {
		t.Errorf("kind = %v, want dropped", out.Kind)
	}
}

func TestResolve_SelfLinkSuppressed(t *testing.T) {
	r := newResolver(t, "1\tA\t0\n", "")
	out := r.Resolve(models.RawLink{SourceID: "1", TargetTitle: "A"})
	if out.Kind != SelfLink {
		t.Errorf("kind = %v, want self_link", out.Kind)
	}
}

func TestResolve_SelfLinkAfterSourceRedirect(t *testing.T) {
	// Source 1 redirects to 2 and links to "B" (id 2): equal after the
	// source hop, so nothing is emitted.
	r := newResolver(t, "1\tA\t0\n2\tB\t0\n", "1\t2\n")
	rec, st := stream(t, r, "1\tB\n")
	if len(rec.resolved) != 0 || len(rec.unmatched) != 0 {
		t.Errorf("expected no output, got %+v / %+v", rec.resolved, rec.unmatched)
	}
	if st.SelfLinks != 1 {
		t.Errorf("self links = %d, want 1", st.SelfLinks)
	}
}

func TestResolve_SelfLinkOnlyAfterTargetRedirectIsEmitted(t *testing.T) {
	// Target "B" (2) redirects to 1, the source. The comparison happens
	// before the target hop, so the edge (1,1) is still emitted.
	r := newResolver(t, "1\tA\t0\n2\tB\t0\n", "2\t1\n")
	out := r.Resolve(models.RawLink{SourceID: "1", TargetTitle: "B"})
	if out.Kind != Resolved {
		t.Fatalf("kind = %v, want resolved", out.Kind)
	}
	if out.Link != (models.ResolvedLink{SourceID: "1", TargetID: "1"}) {
		t.Errorf("link = %+v, want (1,1)", out.Link)
	}
}

func TestResolve_TargetRedirectOneHopOnly(t *testing.T) {
	r := newResolver(t, "1\tA\t0\n2\tB\t0\n3\tC\t0\n4\tD\t0\n", "2\t3\n3\t4\n")
	out := r.Resolve(models.RawLink{SourceID: "1", TargetTitle: "B"})
	if out.Link.TargetID != "3" {
		t.Errorf("target = %q, want %q", out.Link.TargetID, "3")
	}
}

func TestResolve_SourceRedirectOneHopOnly(t *testing.T) {
	r := newResolver(t, "1\tA\t0\n2\tB\t0\n3\tC\t0\n4\tD\t0\n", "1\t2\n2\t3\n")
	out := r.Resolve(models.RawLink{SourceID: "1", TargetTitle: "D"})
	if out.Link.SourceID != "2" {
		t.Errorf("source = %q, want %q", out.Link.SourceID, "2")
	}
}

func TestResolve_UnmatchedUsesRedirectedSource(t *testing.T) {
	r := newResolver(t, "1\tA\t0\n2\tB\t0\n", "1\t2\n")
	out := r.Resolve(models.RawLink{SourceID: "1", TargetTitle: "Missing"})
	if out.Kind != Unmatched {
		t.Fatalf("kind = %v", out.Kind)
	}
	if out.Unmatched != (models.UnmatchedTarget{SourceID: "2", TargetTitle: "Missing"}) {
		t.Errorf("unmatched = %+v", out.Unmatched)
	}
}

func TestStream_PreservesInputOrder(t *testing.T) {
	r := newResolver(t, "1\tA\t0\n2\tB\t0\n3\tC\t0\n", "")
	rec, _ := stream(t, r, "3\tA\n1\tX\n2\tA\n1\tY\n1\tC\n")

	wantResolved := []models.ResolvedLink{{SourceID: "3", TargetID: "1"}, {SourceID: "2", TargetID: "1"}, {SourceID: "1", TargetID: "3"}}
	if len(rec.resolved) != len(wantResolved) {
		t.Fatalf("resolved = %+v", rec.resolved)
	}
	for i := range wantResolved {
		if rec.resolved[i] != wantResolved[i] {
			t.Errorf("resolved[%d] = %+v, want %+v", i, rec.resolved[i], wantResolved[i])
		}
	}
	if len(rec.unmatched) != 2 || rec.unmatched[0].TargetTitle != "X" || rec.unmatched[1].TargetTitle != "Y" {
		t.Errorf("unmatched = %+v", rec.unmatched)
	}
}

func TestStream_MalformedLinkIsFatal(t *testing.T) {
	r := newResolver(t, "1\tA\t0\n", "")
	rec := &recorder{}
	st, err := r.Stream(context.Background(), tsv.Links(strings.NewReader("1\tA\nbroken\n1\tA\n"), "links"), rec)
	if !errors.Is(err, apperr.ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
	if st.Links != 1 {
		t.Errorf("links processed = %d, want 1", st.Links)
	}
}

func TestStream_SinkErrorStops(t *testing.T) {
	r := newResolver(t, "1\tA\t0\n2\tB\t0\n", "")
	rec := &recorder{failAfter: 1}
	_, err := r.Stream(context.Background(), tsv.Links(strings.NewReader("1\tB\n2\tA\n"), "links"), rec)
	if err == nil || !strings.Contains(err.Error(), "sink full") {
		t.Fatalf("err = %v, want sink error", err)
	}
}

func TestStream_Cancelled(t *testing.T) {
	r := newResolver(t, "1\tA\t0\n", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Stream(ctx, tsv.Links(strings.NewReader("1\tA\n"), "links"), &recorder{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestMultiSink(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := MultiSink{a, b}
	_ = m.Resolved(models.ResolvedLink{SourceID: "1", TargetID: "2"})
	_ = m.Unmatched(models.UnmatchedTarget{SourceID: "1", TargetTitle: "X"})
	if len(a.resolved) != 1 || len(b.resolved) != 1 || len(a.unmatched) != 1 || len(b.unmatched) != 1 {
		t.Errorf("fan-out incomplete: %+v %+v", a, b)
	}
}

func TestKindString(t *testing.T) {
	if Resolved.String() != "resolved" || Kind(42).String() != "Kind(42)" {
		t.Errorf("unexpected names: %s %s", Resolved, Kind(42))
	}
}
