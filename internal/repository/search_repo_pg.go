package repository

import (
	"context"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SearchRepository interface {
	Insert(ctx context.Context, record *domain.SearchRecord) error
	FindByProvider(ctx context.Context, provider string, limit int) ([]domain.SearchRecord, error)
	FindByRoute(ctx context.Context, origin, destination string, limit int) ([]domain.SearchRecord, error)
	CountByProvider(ctx context.Context, provider string) (int64, error)
}

type PGSearchRepository struct {
	db *pgxpool.Pool
}

func NewSearchRepository(db *pgxpool.Pool) SearchRepository {
	return &PGSearchRepository{db: db}
}

const searchColumns = `id, origin, destination, departure_date, return_date,
	adults, children, infants, api_provider, search_timestamp, search_response`

func (r *PGSearchRepository) Insert(ctx context.Context, s *domain.SearchRecord) error {
	return r.db.QueryRow(ctx, `INSERT INTO flight_searches (
			origin, destination, departure_date, return_date,
			adults, children, infants, api_provider, search_timestamp, search_response)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		s.Origin, s.Destination, s.DepartureDate, s.ReturnDate,
		s.Adults, s.Children, s.Infants, s.Provider, s.SearchedAt, s.RawResponse,
	).Scan(&s.ID)
}

func (r *PGSearchRepository) FindByProvider(ctx context.Context, provider string, limit int) ([]domain.SearchRecord, error) {
	return r.findMany(ctx, `SELECT `+searchColumns+` FROM flight_searches
		WHERE api_provider=$1 ORDER BY search_timestamp DESC, id DESC LIMIT $2`, provider, limit)
}

func (r *PGSearchRepository) FindByRoute(ctx context.Context, origin, destination string, limit int) ([]domain.SearchRecord, error) {
	return r.findMany(ctx, `SELECT `+searchColumns+` FROM flight_searches
		WHERE origin=$1 AND destination=$2 ORDER BY search_timestamp DESC, id DESC LIMIT $3`, origin, destination, limit)
}

func (r *PGSearchRepository) CountByProvider(ctx context.Context, provider string) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM flight_searches WHERE api_provider=$1`, provider).Scan(&n)
	return n, err
}

func (r *PGSearchRepository) findMany(ctx context.Context, query string, args ...any) ([]domain.SearchRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.SearchRecord, 0)
	for rows.Next() {
		var s domain.SearchRecord
		if err := rows.Scan(&s.ID, &s.Origin, &s.Destination, &s.DepartureDate, &s.ReturnDate,
			&s.Adults, &s.Children, &s.Infants, &s.Provider, &s.SearchedAt, &s.RawResponse); err != nil {
			return nil, err
		}
		records = append(records, s)
	}
	return records, rows.Err()
}

var _ SearchRepository = (*PGSearchRepository)(nil)
