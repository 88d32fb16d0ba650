package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AirportRepository interface {
	NextID(ctx context.Context) (int64, error)
	List(ctx context.Context, offset, limit int) ([]domain.Airport, error)
	Count(ctx context.Context) (int64, error)
	ListByName(ctx context.Context) ([]domain.Airport, error)
	GetByID(ctx context.Context, id int64) (*domain.Airport, error)
	GetByCode(ctx context.Context, code string) (*domain.Airport, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Insert(ctx context.Context, airport *domain.Airport) error
	UpdateField(ctx context.Context, id int64, field domain.AirportField, value string) error
	DeleteByCode(ctx context.Context, code string, now time.Time) (*domain.AirportRemoval, error)
	SummaryByCountry(ctx context.Context) ([]domain.CountryCount, error)
}

type PGAirportRepository struct {
	db *pgxpool.Pool
}

func NewAirportRepository(db *pgxpool.Pool) AirportRepository {
	return &PGAirportRepository{db: db}
}

const airportColumns = `airportid, name, iatacode, city, country`

var airportFieldColumns = map[domain.AirportField]string{
	domain.AirportFieldName:     "name",
	domain.AirportFieldIATACode: "iatacode",
	domain.AirportFieldCity:     "city",
	domain.AirportFieldCountry:  "country",
}

func scanAirport(row pgx.Row) (*domain.Airport, error) {
	var a domain.Airport
	if err := row.Scan(&a.ID, &a.Name, &a.IATACode, &a.City, &a.Country); err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *PGAirportRepository) queryAirports(ctx context.Context, sql string, args ...any) ([]domain.Airport, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	airports := make([]domain.Airport, 0)
	for rows.Next() {
		a, err := scanAirport(rows)
		if err != nil {
			return nil, err
		}
		airports = append(airports, *a)
	}
	return airports, translate(rows.Err())
}

func (r *PGAirportRepository) NextID(ctx context.Context) (int64, error) {
	var next int64
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(airportid), 0) + 1 FROM airports`).Scan(&next); err != nil {
		return 0, translate(err)
	}
	return next, nil
}

func (r *PGAirportRepository) List(ctx context.Context, offset, limit int) ([]domain.Airport, error) {
	return r.queryAirports(ctx, `SELECT `+airportColumns+` FROM airports ORDER BY airportid OFFSET $1 LIMIT $2`, offset, limit)
}

func (r *PGAirportRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM airports`).Scan(&n); err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (r *PGAirportRepository) ListByName(ctx context.Context) ([]domain.Airport, error) {
	return r.queryAirports(ctx, `SELECT `+airportColumns+` FROM airports ORDER BY name`)
}

func (r *PGAirportRepository) GetByID(ctx context.Context, id int64) (*domain.Airport, error) {
	return scanAirport(r.db.QueryRow(ctx, `SELECT `+airportColumns+` FROM airports WHERE airportid=$1`, id))
}

func (r *PGAirportRepository) GetByCode(ctx context.Context, code string) (*domain.Airport, error) {
	return scanAirport(r.db.QueryRow(ctx, `SELECT `+airportColumns+` FROM airports WHERE iatacode=$1`, code))
}

func (r *PGAirportRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM airports WHERE name=$1)`, name)
}

func (r *PGAirportRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM airports WHERE iatacode=$1)`, code)
}

func (r *PGAirportRepository) exists(ctx context.Context, sql string, arg string) (bool, error) {
	var found bool
	if err := r.db.QueryRow(ctx, sql, arg).Scan(&found); err != nil {
		return false, translate(err)
	}
	return found, nil
}

func (r *PGAirportRepository) Insert(ctx context.Context, a *domain.Airport) error {
	_, err := r.db.Exec(ctx, `INSERT INTO airports (airportid, name, iatacode, city, country) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Name, a.IATACode, a.City, a.Country)
	return translate(err)
}

func (r *PGAirportRepository) UpdateField(ctx context.Context, id int64, field domain.AirportField, value string) error {
	column, ok := airportFieldColumns[field]
	if !ok {
		return domain.NewValidationError(string(field), fmt.Sprintf("unsupported airport field %q", field))
	}

	res, err := r.db.Exec(ctx, `UPDATE airports SET `+column+`=$1 WHERE airportid=$2`, value, id)
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByCode refuses while any flight touching the airport has not landed
// yet; otherwise it purges the airport's past flights and the airport itself
// in one transaction.
func (r *PGAirportRepository) DeleteByCode(ctx context.Context, code string, now time.Time) (*domain.AirportRemoval, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, translate(err)
	}
	defer tx.Rollback(ctx)

	var airportID int64
	if err := tx.QueryRow(ctx, `SELECT airportid FROM airports WHERE iatacode=$1`, code).Scan(&airportID); err != nil {
		return nil, translate(err)
	}

	upcoming, err := countUpcomingFlights(ctx, tx, airportID, now)
	if err != nil {
		return nil, err
	}
	if upcoming > 0 {
		return nil, &domain.UpcomingFlightsError{Code: code, Count: upcoming}
	}

	purged, err := tx.Exec(ctx, `DELETE FROM flights
		WHERE (departureairportid=$1 OR arrivalairportid=$1) AND arrivaltime <= $2`, airportID, now)
	if err != nil {
		return nil, translate(err)
	}

	res, err := tx.Exec(ctx, `DELETE FROM airports WHERE airportid=$1`, airportID)
	if err != nil {
		return nil, translate(err)
	}
	if res.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, translate(err)
	}
	return &domain.AirportRemoval{AirportID: airportID, PurgedFlights: purged.RowsAffected()}, nil
}

func (r *PGAirportRepository) SummaryByCountry(ctx context.Context) ([]domain.CountryCount, error) {
	rows, err := r.db.Query(ctx, `SELECT country, COUNT(*) FROM airports GROUP BY country ORDER BY COUNT(*) DESC, country`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	summary := make([]domain.CountryCount, 0)
	for rows.Next() {
		var c domain.CountryCount
		if err := rows.Scan(&c.Country, &c.Count); err != nil {
			return nil, translate(err)
		}
		summary = append(summary, c)
	}
	return summary, translate(rows.Err())
}

var _ AirportRepository = (*PGAirportRepository)(nil)
