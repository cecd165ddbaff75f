// Package prefs persists small application settings, currently the UI
// language, in a key-value table of the SQLite file. The table lives outside
// the business_cards schema version chain and is created idempotently.
package prefs

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	LanguageGerman  = "de"
	LanguageEnglish = "en"

	// German is the shipped default.
	DefaultLanguage = LanguageGerman

	languageKey = "language_code"
)

// Prefs reads and writes persisted settings.
type Prefs struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens the settings table in the SQLite file at path.
func Open(path string, logger *zap.Logger) (*Prefs, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open prefs db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS prefs (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init prefs table: %w", err)
	}
	return &Prefs{db: db, logger: logger}, nil
}

// Close closes the underlying connection.
func (p *Prefs) Close() error { return p.db.Close() }

// Language returns the stored language code, falling back to the default
// when nothing is stored or the stored value is unknown.
func (p *Prefs) Language(ctx context.Context) string {
	var code string
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM prefs WHERE key = ?`, languageKey).Scan(&code)
	if err != nil {
		if err != sql.ErrNoRows {
			p.logger.Warn("read language preference failed", zap.Error(err))
		}
		return DefaultLanguage
	}
	if code != LanguageGerman && code != LanguageEnglish {
		return DefaultLanguage
	}
	return code
}

// SetLanguage stores the language code.
func (p *Prefs) SetLanguage(ctx context.Context, code string) error {
	if code != LanguageGerman && code != LanguageEnglish {
		return fmt.Errorf("unsupported language %q", code)
	}
	_, err := p.db.ExecContext(ctx, `
INSERT INTO prefs (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		languageKey, code)
	if err != nil {
		return fmt.Errorf("store language preference: %w", err)
	}
	return nil
}

// ToggleLanguage switches between German and English and returns the new
// active code.
func (p *Prefs) ToggleLanguage(ctx context.Context) (string, error) {
	next := LanguageGerman
	if p.Language(ctx) == LanguageGerman {
		next = LanguageEnglish
	}
	if err := p.SetLanguage(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}

// SwitchLabel returns the text for a language switcher control: the code of
// the language a toggle would activate.
func (p *Prefs) SwitchLabel(ctx context.Context) string {
	if p.Language(ctx) == LanguageGerman {
		return "EN"
	}
	return "DE"
}
