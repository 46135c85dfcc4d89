package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/peterbourgon/diskv/v3"

	"tableflip.dev/journal/pkg/entry"
)

const (
	entriesBucket = "entries"
	metaBucket    = "meta"
	sequenceKey   = metaBucket + "-sequence"
)

type diskvPersistence struct {
	d        *diskv.Diskv
	basePath string
	opts     options
	hub      *hub

	// mu serialises id assignment and read-modify-write cycles.
	mu sync.Mutex

	stopWatch context.CancelFunc
}

func openDiskv(basePath string, watch bool, o options) (*diskvPersistence, error) {
	if basePath == "" {
		return nil, errors.New("store: base path unknown")
	}
	if err := os.MkdirAll(filepath.Join(basePath, entriesBucket), 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	p := &diskvPersistence{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			// Other processes may rewrite records, so reads always hit disk.
			CacheSizeMax: 0,
		}),
		basePath: basePath,
		opts:     o,
		hub:      newHub(),
	}
	if watch {
		ctx, cancel := context.WithCancel(context.Background())
		if err := watchTree(ctx, basePath, p.classify, p.hub.publish, o.logger); err != nil {
			cancel()
			return nil, err
		}
		p.stopWatch = cancel
	}
	return p, nil
}

func (p *diskvPersistence) read(key string) (*entry.Entry, error) {
	val, err := p.d.Read(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	e := &entry.Entry{}
	if err := json.Unmarshal(val, e); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", key, err)
	}
	pk := keyToPathTransform(key)
	id, err := strconv.ParseInt(pk.FileName, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("store: bad key %s: %w", key, err)
	}
	e.ID = id
	return e, nil
}

func (p *diskvPersistence) write(e *entry.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.d.Write(toKey(e.ID), data)
}

func (p *diskvPersistence) Get(_ context.Context, id int64) (*entry.Entry, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	return p.read(toKey(id))
}

func (p *diskvPersistence) List(ctx context.Context) ([]*entry.Entry, error) {
	all, err := p.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return entry.NonEmpty(all), nil
}

func (p *diskvPersistence) ListAll(ctx context.Context) ([]*entry.Entry, error) {
	all := make([]*entry.Entry, 0)
	for key := range p.d.KeysPrefix(entriesBucket+"-", ctx.Done()) {
		if _, err := strconv.ParseInt(keyToPathTransform(key).FileName, 10, 64); err != nil {
			continue
		}
		e, err := p.read(key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			p.opts.logger.Warn(ctx, "skipping unreadable entry", "key", key, "err", err)
			continue
		}
		all = append(all, e)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry.Sort(all)
	return all, nil
}

func (p *diskvPersistence) Insert(_ context.Context, e *entry.Entry) (int64, error) {
	if e == nil {
		return 0, errors.New("store: nil entry")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.insertLocked(e); err != nil {
		return 0, err
	}
	p.hub.publish(Event{Type: EventEntryChanged, ID: e.ID})
	return e.ID, nil
}

func (p *diskvPersistence) insertLocked(e *entry.Entry) error {
	if e.ID == 0 {
		id, err := p.nextIDLocked()
		if err != nil {
			return err
		}
		e.ID = id
	} else if err := p.bumpSequenceLocked(e.ID); err != nil {
		return err
	}
	now := entry.Stamp(p.opts.clock.Now())
	if e.Created.IsZero() {
		e.Created = now
	}
	e.Timestamp = now
	if err := p.write(e); err != nil {
		return fmt.Errorf("store: insert %d: %w", e.ID, err)
	}
	return nil
}

func (p *diskvPersistence) Update(_ context.Context, e *entry.Entry) error {
	if e == nil {
		return errors.New("store: nil entry")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	existing, err := p.read(toKey(e.ID))
	if err != nil {
		return err
	}
	if err := p.updateLocked(existing, e); err != nil {
		return err
	}
	p.hub.publish(Event{Type: EventEntryChanged, ID: e.ID})
	return nil
}

func (p *diskvPersistence) updateLocked(existing, e *entry.Entry) error {
	if e.Created.IsZero() {
		e.Created = existing.Created
	}
	e.Timestamp = entry.Stamp(p.opts.clock.Now())
	if err := p.write(e); err != nil {
		return fmt.Errorf("store: update %d: %w", e.ID, err)
	}
	return nil
}

func (p *diskvPersistence) Upsert(_ context.Context, e *entry.Entry) error {
	if e == nil {
		return errors.New("store: nil entry")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if e.ID == 0 {
		err = p.insertLocked(e)
	} else {
		existing, rerr := p.read(toKey(e.ID))
		switch {
		case errors.Is(rerr, ErrNotFound):
			err = p.insertLocked(e)
		case rerr != nil:
			err = rerr
		default:
			err = p.updateLocked(existing, e)
		}
	}
	if err != nil {
		return err
	}
	p.hub.publish(Event{Type: EventEntryChanged, ID: e.ID})
	return nil
}

func (p *diskvPersistence) Delete(_ context.Context, e *entry.Entry) error {
	if e == nil || e.ID == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.d.Erase(toKey(e.ID)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("store: delete %d: %w", e.ID, err)
	}
	p.hub.publish(Event{Type: EventEntryDeleted, ID: e.ID})
	return nil
}

// Watch streams change events until ctx is cancelled. Callers should drain the
// returned channel; a consumer that falls behind receives an
// EventEntriesInvalidated once it catches up. The channel is closed once ctx
// is done or the persistence is closed.
func (p *diskvPersistence) Watch(ctx context.Context) (<-chan Event, error) {
	return p.hub.subscribe(ctx), nil
}

func (p *diskvPersistence) Close() error {
	if p.stopWatch != nil {
		p.stopWatch()
	}
	p.hub.close()
	return nil
}

// nextIDLocked hands out monotonic ids, persisted under meta/sequence so
// deleted ids are never reused.
func (p *diskvPersistence) nextIDLocked() (int64, error) {
	current, err := p.sequenceLocked()
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := p.d.WriteString(sequenceKey, strconv.FormatInt(next, 10)); err != nil {
		return 0, fmt.Errorf("store: write sequence: %w", err)
	}
	return next, nil
}

func (p *diskvPersistence) bumpSequenceLocked(id int64) error {
	current, err := p.sequenceLocked()
	if err != nil {
		return err
	}
	if id <= current {
		return nil
	}
	if err := p.d.WriteString(sequenceKey, strconv.FormatInt(id, 10)); err != nil {
		return fmt.Errorf("store: write sequence: %w", err)
	}
	return nil
}

func (p *diskvPersistence) sequenceLocked() (int64, error) {
	if p.d.Has(sequenceKey) {
		raw := strings.TrimSpace(p.d.ReadString(sequenceKey))
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("store: corrupt sequence %q: %w", raw, err)
		}
		return n, nil
	}
	// No sequence yet: recover from the highest stored id.
	var highest int64
	for key := range p.d.KeysPrefix(entriesBucket+"-", nil) {
		id, err := strconv.ParseInt(keyToPathTransform(key).FileName, 10, 64)
		if err == nil && id > highest {
			highest = id
		}
	}
	return highest, nil
}

// classify maps a file under entries/ to an event for that id. Anything else
// (the sequence file) is ignored.
func (p *diskvPersistence) classify(path string, removed bool) (Event, bool) {
	if filepath.Base(filepath.Dir(path)) != entriesBucket {
		if filepath.Base(path) == entriesBucket {
			return Event{Type: EventEntriesInvalidated}, true
		}
		return Event{}, false
	}
	id, err := strconv.ParseInt(filepath.Base(path), 10, 64)
	if err != nil {
		return Event{Type: EventEntriesInvalidated}, true
	}
	if removed {
		return Event{Type: EventEntryDeleted, ID: id}, true
	}
	return Event{Type: EventEntryChanged, ID: id}, true
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "-")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}

// toKey makes `entries-<id>`
func toKey(id int64) string {
	return fmt.Sprintf("%s-%d", entriesBucket, id)
}
