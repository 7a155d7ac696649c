// Package catalog reads destination records from the PostgreSQL catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/destination"
)

const columns = `id, name, city, country, description, price,
	activities, categories, trip_types, rating, available, main_image,
	lat, lon, address`

const (
	getQuery  = `SELECT ` + columns + ` FROM destinations WHERE id = $1`
	listQuery = `SELECT ` + columns + ` FROM destinations WHERE id > $1 ORDER BY id LIMIT $2`
)

// querier is the consumer interface for the connection pool (ISP).
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Repo implements the indexing pipeline's catalog reader.
type Repo struct {
	db    querier
	close func()
}

// Connect opens a pgx pool for dsn and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*Repo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("catalog ping: %w: %w", domain.ErrCatalogUnavailable, err)
	}
	return &Repo{db: pool, close: pool.Close}, nil
}

// New wraps an existing querier.
func New(q querier) *Repo {
	return &Repo{db: q, close: func() {}}
}

// Get returns the record with the given id. Missing → domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id string) (destination.Record, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, getQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return destination.Record{}, fmt.Errorf("destination %s: %w", id, domain.ErrNotFound)
		}
		return destination.Record{}, fmt.Errorf("get destination %s: %w: %w", id, domain.ErrCatalogUnavailable, err)
	}
	return rec, nil
}

// List returns up to limit records with id > afterID, ordered by id.
// An empty afterID starts from the beginning.
func (r *Repo) List(ctx context.Context, afterID string, limit int) ([]destination.Record, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("page size must be positive: %w", domain.ErrInvalidInput)
	}

	rows, err := r.db.Query(ctx, listQuery, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w: %w", domain.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	out := make([]destination.Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan destination: %w: %w", domain.ErrCatalogUnavailable, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list destinations: %w: %w", domain.ErrCatalogUnavailable, err)
	}
	return out, nil
}

// Ping checks catalog connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("catalog ping: %w: %w", domain.ErrCatalogUnavailable, err)
	}
	return nil
}

// Close releases the pool.
func (r *Repo) Close() {
	r.close()
}

func scanRecord(row pgx.Row) (destination.Record, error) {
	var (
		rec       destination.Record
		mainImage *string
		lat, lon  *float64
		address   *string
	)
	err := row.Scan(
		&rec.ID, &rec.Name, &rec.City, &rec.Country, &rec.Description, &rec.Price,
		&rec.Activities, &rec.Categories, &rec.TripTypes, &rec.Rating, &rec.Available, &mainImage,
		&lat, &lon, &address,
	)
	if err != nil {
		return destination.Record{}, err
	}
	if mainImage != nil {
		rec.MainImage = *mainImage
	}
	if lat != nil && lon != nil {
		loc := &destination.Location{Lat: *lat, Lon: *lon}
		if address != nil {
			loc.Address = *address
		}
		rec.Location = loc
	}
	return rec, nil
}
