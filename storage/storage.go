// Package storage optionally persists the trade journal to Postgres. It
// subscribes to order-filled bus events; when DATABASE_URL is unset it is a
// no-op recorder, per spec.md's optional-persistence component.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	_ "github.com/lib/pq"

	"github.com/web3guy0/gradsniper/bus"
	"github.com/web3guy0/gradsniper/paper"
)

// Store persists fills to Postgres when configured, and is a safe no-op
// otherwise.
type Store struct {
	db      *sql.DB
	enabled bool
}

// Open connects to connStr and migrates the schema. An empty connStr
// yields a disabled Store rather than an error — persistence is optional.
func Open(connStr string) (*Store, error) {
	if connStr == "" {
		log.Warn().Msg("storage: DATABASE_URL not set, running without persistence")
		return &Store{enabled: false}, nil
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("storage: opening connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("storage: pinging database: %w", err)
	}

	s := &Store{db: db, enabled: true}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("storage: migrating schema: %w", err)
	}

	log.Info().Msg("storage: database connected")
	return s, nil
}

func (s *Store) migrate() error {
	if !s.enabled {
		return nil
	}
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS fills (
		id SERIAL PRIMARY KEY,
		token TEXT NOT NULL,
		side TEXT NOT NULL,
		price NUMERIC(24,10) NOT NULL,
		quantity NUMERIC(24,10) NOT NULL,
		tx_signature TEXT,
		created_at TIMESTAMP DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS round_trips (
		id SERIAL PRIMARY KEY,
		token TEXT NOT NULL,
		entry_price NUMERIC(24,10) NOT NULL,
		exit_price NUMERIC(24,10) NOT NULL,
		quantity NUMERIC(24,10) NOT NULL,
		pnl_usd NUMERIC(24,10) NOT NULL,
		pnl_pct NUMERIC(12,6) NOT NULL,
		created_at TIMESTAMP DEFAULT NOW()
	);`)
	return err
}

// Attach subscribes the store to order-filled events.
func (s *Store) Attach(b *bus.Bus) {
	b.Subscribe(bus.KindOrderFilled, s.onOrderFilled)
}

func (s *Store) onOrderFilled(e bus.Event) error {
	if !s.enabled {
		return nil
	}
	f, ok := e.Payload.(paper.FillPayload)
	if !ok {
		return nil
	}
	return s.LogFill(f.Token, f.Side, f.Price, f.Quantity, f.TxSignature)
}

// LogFill inserts one fill record. A no-op, returning nil, when the store
// is disabled.
func (s *Store) LogFill(token, side string, price, quantity decimal.Decimal, txSignature string) error {
	if !s.enabled {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO fills (token, side, price, quantity, tx_signature) VALUES ($1, $2, $3, $4, $5)`,
		token, side, price.String(), quantity.String(), txSignature,
	)
	if err != nil {
		return fmt.Errorf("storage: logging fill: %w", err)
	}
	return nil
}

// LogRoundTrip inserts one completed round trip.
func (s *Store) LogRoundTrip(token string, entryPrice, exitPrice, quantity, pnlUSD decimal.Decimal, pnlPct float64) error {
	if !s.enabled {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO round_trips (token, entry_price, exit_price, quantity, pnl_usd, pnl_pct) VALUES ($1, $2, $3, $4, $5, $6)`,
		token, entryPrice.String(), exitPrice.String(), quantity.String(), pnlUSD.String(), pnlPct,
	)
	if err != nil {
		return fmt.Errorf("storage: logging round trip: %w", err)
	}
	return nil
}

// RecentFill is a row returned by RecentFills.
type RecentFill struct {
	Token       string
	Side        string
	Price       decimal.Decimal
	Quantity    decimal.Decimal
	TxSignature string
	CreatedAt   time.Time
}

// RecentFills returns the most recent fills, newest first. Returns an
// empty slice, not an error, when the store is disabled.
func (s *Store) RecentFills(limit int) ([]RecentFill, error) {
	if !s.enabled {
		return nil, nil
	}

	rows, err := s.db.Query(
		`SELECT token, side, price, quantity, tx_signature, created_at FROM fills ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: querying recent fills: %w", err)
	}
	defer rows.Close()

	var out []RecentFill
	for rows.Next() {
		var (
			r        RecentFill
			priceStr string
			qtyStr   string
		)
		if err := rows.Scan(&r.Token, &r.Side, &priceStr, &qtyStr, &r.TxSignature, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scanning fill row: %w", err)
		}
		r.Price, _ = decimal.NewFromString(priceStr)
		r.Quantity, _ = decimal.NewFromString(qtyStr)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Enabled reports whether the store is backed by a live connection.
func (s *Store) Enabled() bool {
	return s.enabled
}

// Close releases the underlying connection, if any.
func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}
