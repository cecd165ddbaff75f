// Package store mediates all reads and writes of business cards against a
// single SQLite file and exposes a live view of the current card set.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"dvcard/internal/card"
)

// ErrNotFound is returned when an id does not match any stored card.
var ErrNotFound = errors.New("card not found")

const cardColumns = `id, title, familyName, givenName, position, company,
	phone, email, website, street, postalCode, city, country, isPrivate`

// Store wraps the SQLite connection and provides CRUD operations plus a
// watch subscription that re-emits the full card list after every mutation.
type Store struct {
	db     *sql.DB
	logger *zap.Logger

	mu       sync.Mutex
	watchers map[int]chan []card.Card
	nextSub  int
	closed   bool

	// guards the auto-create-on-empty path against double creation when a
	// delete and the empty-list observer race
	creating atomic.Bool
}

// Open opens (or creates) the SQLite database at path, migrates it to the
// current schema and returns a Store. A migration failure fails the open; the
// file is unusable until the caller intervenes.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// single writer: the driver serializes everything over one connection
	db.SetMaxOpenConns(1)

	s := &Store{
		db:       db,
		logger:   logger,
		watchers: make(map[int]chan []card.Card),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	// Fire the empty-check observer once so a brand-new store ends up with
	// one editable card. The store is allowed to look empty until this runs.
	go s.notify()

	return s, nil
}

// Close stops all watchers and closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for id, ch := range s.watchers {
			close(ch)
			delete(s.watchers, id)
		}
	}
	s.mu.Unlock()
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping() error { return s.db.Ping() }

// List returns all cards ordered by family name, then given name.
func (s *Store) List(ctx context.Context) ([]card.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM business_cards ORDER BY familyName ASC, givenName ASC`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	cards := []card.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// Get returns the card with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (card.Card, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM business_cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if err == sql.ErrNoRows {
		return card.Card{}, ErrNotFound
	}
	if err != nil {
		return card.Card{}, fmt.Errorf("get card %d: %w", id, err)
	}
	return c, nil
}

// Count returns the number of stored cards.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM business_cards`).Scan(&n)
	return n, err
}

// Insert stores a new card and returns the assigned id.
func (s *Store) Insert(ctx context.Context, c card.Card) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO business_cards (title, familyName, givenName, position, company,
	phone, email, website, street, postalCode, city, country, isPrivate)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.Title, c.FamilyName, c.GivenName, c.Position, c.Company,
		c.Phone, c.Email, c.Website, c.Street, c.PostalCode, c.City, c.Country,
		boolToInt(c.IsPrivate))
	if err != nil {
		s.logger.Error("insert card failed", zap.Error(err))
		return 0, fmt.Errorf("insert card: %w", err)
	}
	id, _ := res.LastInsertId()
	s.logger.Debug("card inserted", zap.Int64("id", id))
	go s.notify()
	return id, nil
}

// Update replaces every field of an existing card (full-record replacement).
func (s *Store) Update(ctx context.Context, c card.Card) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE business_cards SET title=?, familyName=?, givenName=?, position=?,
	company=?, phone=?, email=?, website=?, street=?, postalCode=?, city=?,
	country=?, isPrivate=?
WHERE id=?`,
		c.Title, c.FamilyName, c.GivenName, c.Position, c.Company,
		c.Phone, c.Email, c.Website, c.Street, c.PostalCode, c.City, c.Country,
		boolToInt(c.IsPrivate), c.ID)
	if err != nil {
		s.logger.Error("update card failed", zap.Int64("id", c.ID), zap.Error(err))
		return fmt.Errorf("update card %d: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.logger.Debug("card updated", zap.Int64("id", c.ID))
	go s.notify()
	return nil
}

// Delete removes a card. Deleting the last remaining card inserts a fresh
// empty replacement so the store never stays at zero cards after a delete;
// failure to insert the replacement is logged, not surfaced.
func (s *Store) Delete(ctx context.Context, c card.Card) error {
	n, err := s.Count(ctx)
	if err == nil && n <= 1 {
		// claim the creation slot before the empty list is observable
		s.creating.Store(true)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM business_cards WHERE id=?`, c.ID)
	if err != nil {
		s.creating.Store(false)
		s.logger.Error("delete card failed", zap.Int64("id", c.ID), zap.Error(err))
		return fmt.Errorf("delete card %d: %w", c.ID, err)
	}
	if deleted, _ := res.RowsAffected(); deleted == 0 {
		s.creating.Store(false)
		return ErrNotFound
	}
	s.logger.Debug("card deleted", zap.Int64("id", c.ID))

	if s.creating.Load() {
		if _, err := s.Insert(ctx, card.Card{}); err != nil {
			s.logger.Warn("auto-create after last delete failed", zap.Error(err))
		}
		s.creating.Store(false)
	}
	go s.notify()
	return nil
}

// Watch subscribes to the live card list. The returned channel receives the
// current set immediately and the complete new set after every successful
// mutation; a slow receiver only ever sees the latest snapshot. The cancel
// function detaches the subscription.
func (s *Store) Watch() (<-chan []card.Card, func()) {
	ch := make(chan []card.Card, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.watchers[id] = ch
	s.mu.Unlock()

	go s.notify()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(c)
		}
	}
	return ch, cancel
}

// notify queries the full card set, pushes it to every watcher and runs the
// auto-create-on-empty check. Mutations fire it asynchronously, so watchers
// observe commit order, not issue order.
func (s *Store) notify() {
	cards, err := s.List(context.Background())
	if err != nil {
		s.logger.Warn("watch refresh failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	for _, ch := range s.watchers {
		select {
		case ch <- cards:
		default:
			// drop the stale snapshot, then try again
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- cards:
			default:
			}
		}
	}
	s.mu.Unlock()

	if len(cards) == 0 && s.creating.CompareAndSwap(false, true) {
		s.logger.Info("card list empty, auto-creating a new card")
		if _, err := s.Insert(context.Background(), card.Card{}); err != nil {
			s.logger.Warn("auto-create card failed", zap.Error(err))
		}
		s.creating.Store(false)
	}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCard(r scanner) (card.Card, error) {
	var c card.Card
	var private int
	err := r.Scan(&c.ID, &c.Title, &c.FamilyName, &c.GivenName, &c.Position,
		&c.Company, &c.Phone, &c.Email, &c.Website, &c.Street, &c.PostalCode,
		&c.City, &c.Country, &private)
	if err != nil {
		return card.Card{}, err
	}
	c.IsPrivate = private != 0
	return c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
