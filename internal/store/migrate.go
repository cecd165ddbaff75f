package store

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// latestSchemaVersion is the newest known column layout of business_cards,
// tracked in the database file via PRAGMA user_version.
const latestSchemaVersion = 4

const createTableV4 = `
CREATE TABLE business_cards (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    title      TEXT NOT NULL DEFAULT '',
    familyName TEXT NOT NULL DEFAULT '',
    givenName  TEXT NOT NULL DEFAULT '',
    position   TEXT NOT NULL DEFAULT '',
    company    TEXT NOT NULL DEFAULT '',
    phone      TEXT NOT NULL DEFAULT '',
    email      TEXT NOT NULL DEFAULT '',
    website    TEXT NOT NULL DEFAULT '',
    street     TEXT NOT NULL DEFAULT '',
    postalCode TEXT NOT NULL DEFAULT '',
    city       TEXT NOT NULL DEFAULT '',
    country    TEXT NOT NULL DEFAULT '',
    isPrivate  INTEGER NOT NULL DEFAULT 0
)`

// migrations holds the one-way upgrade steps, indexed by the version they
// start from. Each step only adds, renames or copies columns; user data with
// a mapping into the new layout is never dropped.
var migrations = []struct {
	from  int
	stmts []string
}{
	{
		// v1 -> v2: card-level display title.
		from:  1,
		stmts: []string{`ALTER TABLE business_cards ADD COLUMN title TEXT NOT NULL DEFAULT ''`},
	},
	{
		// v2 -> v3: expansion flag. Dropped again in v4 once it became
		// view-only state.
		from:  2,
		stmts: []string{`ALTER TABLE business_cards ADD COLUMN isExpanded INTEGER NOT NULL DEFAULT 0`},
	},
	{
		// v3 -> v4: split the combined name column. The whole old name
		// lands in familyName and givenName starts blank; users have to
		// redistribute it by hand. SQLite cannot rename a column in place
		// at this level, so copy through a temp table.
		from: 3,
		stmts: []string{
			`CREATE TABLE business_cards_new (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				title      TEXT NOT NULL DEFAULT '',
				familyName TEXT NOT NULL DEFAULT '',
				givenName  TEXT NOT NULL DEFAULT '',
				position   TEXT NOT NULL DEFAULT '',
				company    TEXT NOT NULL DEFAULT '',
				phone      TEXT NOT NULL DEFAULT '',
				email      TEXT NOT NULL DEFAULT '',
				website    TEXT NOT NULL DEFAULT '',
				street     TEXT NOT NULL DEFAULT '',
				postalCode TEXT NOT NULL DEFAULT '',
				city       TEXT NOT NULL DEFAULT '',
				country    TEXT NOT NULL DEFAULT '',
				isPrivate  INTEGER NOT NULL DEFAULT 0
			)`,
			`INSERT INTO business_cards_new (
				id, title, familyName, position, company,
				phone, email, website, street, postalCode,
				city, country, isPrivate
			)
			SELECT
				id, title, name, position, company,
				phone, email, website, street, postalCode,
				city, country, isPrivate
			FROM business_cards`,
			`DROP TABLE business_cards`,
			`ALTER TABLE business_cards_new RENAME TO business_cards`,
		},
	},
}

// migrate brings the database file to latestSchemaVersion. A fresh file is
// created at the latest layout directly. A file at an unknown version (newer
// than any known step) is destroyed and recreated empty; that is the
// documented last-resort recovery, not a normal migration path.
func (s *Store) migrate() error {
	version, err := s.userVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	switch {
	case version == 0:
		return s.createFresh()
	case version == latestSchemaVersion:
		return nil
	case version > latestSchemaVersion || version < 1:
		s.logger.Warn("unrecognized schema version, recreating empty table (data loss)",
			zap.Int("found", version),
			zap.Int("latest", latestSchemaVersion))
		return s.recreate()
	}

	for _, m := range migrations {
		if m.from < version {
			continue
		}
		if err := s.applyStep(m.from, m.stmts); err != nil {
			return fmt.Errorf("migrate v%d to v%d: %w", m.from, m.from+1, err)
		}
		s.logger.Info("applied schema migration",
			zap.Int("from", m.from),
			zap.Int("to", m.from+1))
	}
	return nil
}

// applyStep runs one migration step atomically and bumps user_version with
// it, so a failed step leaves neither the layout change nor the version tag.
func (s *Store) applyStep(from int, stmts []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", from+1)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) createFresh() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(createTableV4); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", latestSchemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) recreate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DROP TABLE IF EXISTS business_cards`); err != nil {
		return err
	}
	if _, err := tx.Exec(createTableV4); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", latestSchemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) userVersion() (int, error) {
	var v int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return v, err
}
