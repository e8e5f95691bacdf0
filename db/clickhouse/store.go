// Package clickhouse persists tenant price book snapshots. Each snapshot is
// a point-in-time capture of canonical-key unit prices for one service type;
// at most one snapshot per service type is active and feeds the resolver's
// merge layer.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config holds ClickHouse connection configuration.
type Config struct {
	Addr     string
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:     "localhost:9000",
		Database: "tradeworks",
		Username: "default",
		Password: "",
	}
}

// BookSnapshot is a point-in-time price book capture for one service type.
type BookSnapshot struct {
	ID          uuid.UUID `ch:"id"`
	ServiceType string    `ch:"service_type"`
	Source      string    `ch:"source"`
	IsActive    bool      `ch:"is_active"`
	CreatedAt   time.Time `ch:"created_at"`
}

// BookEntry is one canonical key/price row within a snapshot.
type BookEntry struct {
	SnapshotID uuid.UUID       `ch:"snapshot_id"`
	Key        string          `ch:"key"`
	UnitPrice  decimal.Decimal `ch:"unit_price"`
}

// Store implements the resolver's BookStore over ClickHouse.
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewStore connects to ClickHouse.
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &Store{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// SavePriceBook captures entries as a new active snapshot for serviceType,
// deactivating any previous snapshot.
func (s *Store) SavePriceBook(ctx context.Context, serviceType, source string, entries map[string]float64) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now()

	deactivate := `
		ALTER TABLE price_book_snapshots
		UPDATE is_active = 0
		WHERE service_type = ? AND is_active = 1
	`
	if err := s.conn.Exec(ctx, deactivate, serviceType); err != nil {
		return uuid.Nil, fmt.Errorf("failed to deactivate snapshots: %w", err)
	}

	insert := `
		INSERT INTO price_book_snapshots (id, service_type, source, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if err := s.conn.Exec(ctx, insert, id, serviceType, source, uint8(1), now); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create snapshot: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO price_book_entries (snapshot_id, key, unit_price)")
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to prepare entry batch: %w", err)
	}
	for key, price := range entries {
		if err := batch.Append(id, key, decimal.NewFromFloat(price)); err != nil {
			return uuid.Nil, fmt.Errorf("failed to append entry %s: %w", key, err)
		}
	}
	if err := batch.Send(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert entries: %w", err)
	}
	return id, nil
}

// GetPriceBook returns the entries of the active snapshot for serviceType.
// No active snapshot yields an empty map, not an error.
func (s *Store) GetPriceBook(ctx context.Context, serviceType string) (map[string]float64, error) {
	query := `
		SELECT e.key, e.unit_price
		FROM price_book_entries e
		JOIN price_book_snapshots sn ON sn.id = e.snapshot_id
		WHERE sn.service_type = ? AND sn.is_active = 1
	`
	rows, err := s.conn.Query(ctx, query, serviceType)
	if err != nil {
		return nil, fmt.Errorf("failed to query price book: %w", err)
	}
	defer rows.Close()

	book := make(map[string]float64)
	for rows.Next() {
		var key string
		var price decimal.Decimal
		if err := rows.Scan(&key, &price); err != nil {
			return nil, fmt.Errorf("failed to scan price book entry: %w", err)
		}
		book[key] = price.InexactFloat64()
	}
	return book, rows.Err()
}

// ListSnapshots lists snapshots for a service type, newest first.
func (s *Store) ListSnapshots(ctx context.Context, serviceType string) ([]*BookSnapshot, error) {
	query := `
		SELECT id, service_type, source, is_active, created_at
		FROM price_book_snapshots
		WHERE service_type = ?
		ORDER BY created_at DESC
	`
	rows, err := s.conn.Query(ctx, query, serviceType)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*BookSnapshot
	for rows.Next() {
		var snap BookSnapshot
		var isActive uint8
		if err := rows.Scan(&snap.ID, &snap.ServiceType, &snap.Source, &isActive, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.IsActive = isActive == 1
		snapshots = append(snapshots, &snap)
	}
	return snapshots, rows.Err()
}
