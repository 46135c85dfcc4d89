package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"tableflip.dev/journal/pkg/clock"
	"tableflip.dev/journal/pkg/entry"
	"tableflip.dev/journal/pkg/store"
)

type tempConfig struct {
	path string
}

func (c tempConfig) BasePath() string { return c.path }
func (c tempConfig) Driver() string   { return store.DriverDiskv }
func (c tempConfig) WatchFiles() bool { return false }

func newService(t *testing.T) (*Service, *clock.Fake) {
	t.Helper()
	c := clock.Fixed()
	p, err := store.Load(tempConfig{path: t.TempDir()}, store.WithClock(c))
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return &Service{Persistence: p, Clock: c}, c
}

func TestServiceWithoutPersistence(t *testing.T) {
	svc := &Service{}
	ctx := context.Background()
	if _, err := svc.Entries(ctx, false); !errors.Is(err, ErrNoPersistence) {
		t.Fatalf("Entries: %v", err)
	}
	if _, err := svc.Create(ctx); !errors.Is(err, ErrNoPersistence) {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Subscribe(ctx, 1); !errors.Is(err, ErrNoPersistence) {
		t.Fatalf("Subscribe: %v", err)
	}
}

func TestCreateAndPrune(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	d, err := svc.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !d.Draft || d.ID == 0 {
		t.Fatalf("expected persisted draft, got %+v", d)
	}
	if _, err := svc.Insert(ctx, entry.New("kept", "")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := svc.Insert(ctx, entry.New("  ", "\n")); err != nil {
		t.Fatalf("insert blank: %v", err)
	}

	visible, err := svc.Entries(ctx, false)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(visible) != 1 || visible[0].Title != "kept" {
		t.Fatalf("drafts must be hidden from listings: %v", visible)
	}

	n, err := svc.Prune(ctx)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 pruned, got %d", n)
	}
	all, _ := svc.Entries(ctx, true)
	if len(all) != 1 {
		t.Fatalf("expected only the kept entry to remain, got %v", all)
	}
}

func TestDeleteID(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	id, err := svc.Insert(ctx, entry.New("gone", ""))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := svc.DeleteID(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.DeleteID(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete should report not found, got %v", err)
	}
}

func nextEntry(t *testing.T, f *EntryFeed) *entry.Entry {
	t.Helper()
	select {
	case e, ok := <-f.Updates():
		if !ok {
			t.Fatal("feed closed")
		}
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for entry update")
	}
	return nil
}

func TestSubscribeFollowsEntry(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	f, err := svc.Subscribe(ctx, 1)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer f.Unsubscribe()

	if e := nextEntry(t, f); e != nil {
		t.Fatalf("missing entry should be delivered as nil, got %v", e)
	}

	if _, err := svc.Insert(ctx, entry.New("hello", "")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if e := nextEntry(t, f); e == nil || e.Title != "hello" {
		t.Fatalf("expected inserted entry, got %v", e)
	}

	if _, err := svc.Insert(ctx, entry.New("other", "")); err != nil {
		t.Fatalf("insert other: %v", err)
	}
	if _, err := svc.DeleteID(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if e := nextEntry(t, f); e != nil {
		t.Fatalf("deleted entry should be delivered as nil, got %v", e)
	}
}

func TestSubscribeAllIsOrdered(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()

	f, err := svc.SubscribeAll(ctx)
	if err != nil {
		t.Fatalf("subscribe all: %v", err)
	}
	defer f.Unsubscribe()
	if first := <-f.Updates(); len(first) != 0 {
		t.Fatalf("expected empty list, got %v", first)
	}

	if _, err := svc.Insert(ctx, entry.New("first", "")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	c.Advance(time.Minute)
	if _, err := svc.Insert(ctx, entry.New("second", "")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case list := <-f.Updates():
			if len(list) == 2 {
				if list[0].Title != "second" || list[1].Title != "first" {
					t.Fatalf("expected newest first, got %v", list)
				}
				return
			}
		case <-deadline:
			t.Fatal("list never reached two entries")
		}
	}
}

func TestReportGroupsByDay(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()
	start := c.Now()

	if _, err := svc.Insert(ctx, entry.New("monday", "")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	c.Advance(24 * time.Hour)
	if _, err := svc.Insert(ctx, entry.New("tuesday a", "")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	c.Advance(time.Hour)
	if _, err := svc.Insert(ctx, entry.New("tuesday b", "")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	c.Advance(72 * time.Hour)
	if _, err := svc.Insert(ctx, entry.New("later", "")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	res, err := svc.Report(ctx, start.Add(48*time.Hour), start)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if res.Total != 3 || len(res.Sections) != 2 {
		t.Fatalf("unexpected report: %+v", res)
	}
	if got := res.Sections[0].Entries; len(got) != 2 || got[0].Title != "tuesday b" {
		t.Fatalf("expected tuesday first, newest first: %v", got)
	}
	if got := res.Sections[1].Entries; len(got) != 1 || got[0].Title != "monday" {
		t.Fatalf("expected monday section: %v", got)
	}
}
