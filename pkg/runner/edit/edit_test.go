package edit

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tableflip.dev/journal/pkg/app"
	"tableflip.dev/journal/pkg/draft"
	"tableflip.dev/journal/pkg/entry"
	"tableflip.dev/journal/pkg/store"
)

type tempConfig string

func (c tempConfig) BasePath() string { return string(c) }
func (c tempConfig) Driver() string   { return store.DriverDiskv }
func (c tempConfig) WatchFiles() bool { return false }

func newService(t *testing.T) *app.Service {
	t.Helper()
	p, err := store.Load(tempConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return &app.Service{Persistence: p}
}

func ptr(s string) *string { return &s }

func TestEditSavesNewContent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	id, err := svc.Insert(ctx, entry.New("A", "B"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	var out bytes.Buffer
	e := Edit{Service: svc, ID: id, Content: ptr("B2"), JSON: true, Out: &out}
	if err := e.Do(ctx); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !strings.Contains(out.String(), `"saved"`) {
		t.Fatalf("expected saved outcome, got %s", out.String())
	}
	got, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "A" || got.Content != "B2" {
		t.Fatalf("unexpected entry %+v", got)
	}
}

func TestEditUnchanged(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	id, _ := svc.Insert(ctx, entry.New("A", "B"))

	var out bytes.Buffer
	e := Edit{Service: svc, ID: id, Title: ptr("A"), JSON: true, Out: &out}
	if err := e.Do(ctx); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !strings.Contains(out.String(), `"unchanged"`) {
		t.Fatalf("expected unchanged outcome, got %s", out.String())
	}
}

func TestEditBlankDeletes(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	id, _ := svc.Insert(ctx, entry.New("A", "B"))

	var out bytes.Buffer
	e := Edit{Service: svc, ID: id, Title: ptr(""), Content: ptr("  "), Out: &out}
	if err := e.Do(ctx); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if _, err := svc.Get(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("blank entry should be deleted, got %v", err)
	}
	if !strings.Contains(out.String(), "deleted") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestEditMissingEntry(t *testing.T) {
	svc := newService(t)
	e := Edit{Service: svc, ID: 42, Title: ptr("x"), LoadTimeout: 20 * time.Millisecond, Out: &bytes.Buffer{}}
	err := e.Do(context.Background())
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Get(context.Background(), 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing entry must not be created, got %v", err)
	}
}

func TestEditReportsVanishedEntry(t *testing.T) {
	svc := newService(t)
	var out bytes.Buffer
	e := Edit{Service: svc, ID: 9, Out: &out}
	if err := e.print(context.Background(), draft.OutcomeNone); err != nil {
		t.Fatalf("print: %v", err)
	}
	if got := out.String(); !strings.Contains(got, "entry 9 no longer exists") || strings.Contains(got, "saved") {
		t.Fatalf("unexpected output %q", got)
	}
}
