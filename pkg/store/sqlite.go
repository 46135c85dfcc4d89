package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"tableflip.dev/journal/pkg/entry"
	"tableflip.dev/journal/pkg/store/migrations"
)

const sqliteFile = "journal.db"

type sqlitePersistence struct {
	db     *sql.DB
	dbFile string
	opts   options
	hub    *hub

	stopWatch context.CancelFunc
}

// openSQLite opens <basePath>/journal.db, migrating it to the current schema.
func openSQLite(basePath string, watch bool, o options) (*sqlitePersistence, error) {
	if basePath == "" {
		return nil, errors.New("store: base path unknown")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	dbFile := filepath.Join(basePath, sqliteFile)
	db, err := sql.Open("sqlite3", dbFile)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// A single connection serialises writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: configure database: %w", err)
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	p := &sqlitePersistence{db: db, dbFile: dbFile, opts: o, hub: newHub()}
	if watch {
		ctx, cancel := context.WithCancel(context.Background())
		if err := watchTree(ctx, basePath, p.classify, p.hub.publish, o.logger); err != nil {
			cancel()
			db.Close()
			return nil, err
		}
		p.stopWatch = cancel
	}
	return p, nil
}

const entryColumns = `id, title, content, created_at, updated_at, is_draft`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*entry.Entry, error) {
	var (
		e                entry.Entry
		created, updated int64
		draft            int
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Content, &created, &updated, &draft); err != nil {
		return nil, err
	}
	e.Created = entry.Stamp(time.Unix(0, created).UTC())
	e.Timestamp = entry.Stamp(time.Unix(0, updated).UTC())
	e.Draft = draft != 0
	return &e, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (p *sqlitePersistence) Get(ctx context.Context, id int64) (*entry.Entry, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get %d: %w", id, err)
	}
	return e, nil
}

func (p *sqlitePersistence) List(ctx context.Context) ([]*entry.Entry, error) {
	all, err := p.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return entry.NonEmpty(all), nil
}

func (p *sqlitePersistence) ListAll(ctx context.Context) ([]*entry.Entry, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	all := make([]*entry.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan entry: %w", err)
		}
		all = append(all, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	entry.Sort(all)
	return all, nil
}

func (p *sqlitePersistence) stamp(e *entry.Entry) {
	now := entry.Stamp(p.opts.clock.Now())
	if e.Created.IsZero() {
		e.Created = now
	}
	e.Timestamp = now
}

func (p *sqlitePersistence) Insert(ctx context.Context, e *entry.Entry) (int64, error) {
	if e == nil {
		return 0, errors.New("store: nil entry")
	}
	p.stamp(e)
	var (
		res sql.Result
		err error
	)
	if e.ID == 0 {
		res, err = p.db.ExecContext(ctx,
			`INSERT INTO entries (title, content, created_at, updated_at, is_draft) VALUES (?, ?, ?, ?, ?)`,
			e.Title, e.Content, e.Created.UnixNano(), e.Timestamp.UnixNano(), boolInt(e.Draft))
	} else {
		res, err = p.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.Title, e.Content, e.Created.UnixNano(), e.Timestamp.UnixNano(), boolInt(e.Draft))
	}
	if err != nil {
		return 0, fmt.Errorf("store: insert: %w", err)
	}
	if e.ID == 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("store: insert id: %w", err)
		}
		e.ID = id
	}
	p.hub.publish(Event{Type: EventEntryChanged, ID: e.ID})
	return e.ID, nil
}

func (p *sqlitePersistence) Update(ctx context.Context, e *entry.Entry) error {
	if e == nil {
		return errors.New("store: nil entry")
	}
	e.Timestamp = entry.Stamp(p.opts.clock.Now())
	res, err := p.db.ExecContext(ctx,
		`UPDATE entries SET title = ?, content = ?, updated_at = ?, is_draft = ? WHERE id = ?`,
		e.Title, e.Content, e.Timestamp.UnixNano(), boolInt(e.Draft), e.ID)
	if err != nil {
		return fmt.Errorf("store: update %d: %w", e.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update %d: %w", e.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if e.Created.IsZero() {
		if stored, err := p.Get(ctx, e.ID); err == nil {
			e.Created = stored.Created
		}
	}
	p.hub.publish(Event{Type: EventEntryChanged, ID: e.ID})
	return nil
}

func (p *sqlitePersistence) Upsert(ctx context.Context, e *entry.Entry) error {
	if e == nil {
		return errors.New("store: nil entry")
	}
	if e.ID == 0 {
		_, err := p.Insert(ctx, e)
		return err
	}
	err := p.Update(ctx, e)
	if errors.Is(err, ErrNotFound) {
		_, err = p.Insert(ctx, e)
	}
	return err
}

func (p *sqlitePersistence) Delete(ctx context.Context, e *entry.Entry) error {
	if e == nil || e.ID == 0 {
		return nil
	}
	res, err := p.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, e.ID)
	if err != nil {
		return fmt.Errorf("store: delete %d: %w", e.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		p.hub.publish(Event{Type: EventEntryDeleted, ID: e.ID})
	}
	return nil
}

func (p *sqlitePersistence) Watch(ctx context.Context) (<-chan Event, error) {
	return p.hub.subscribe(ctx), nil
}

func (p *sqlitePersistence) Close() error {
	if p.stopWatch != nil {
		p.stopWatch()
	}
	p.hub.close()
	return p.db.Close()
}

// classify reports any change to the database file (or its journal) as an
// invalidation: sqlite pages cannot be attributed to a single entry.
func (p *sqlitePersistence) classify(path string, _ bool) (Event, bool) {
	if strings.HasPrefix(filepath.Base(path), filepath.Base(p.dbFile)) {
		return Event{Type: EventEntriesInvalidated}, true
	}
	return Event{}, false
}
