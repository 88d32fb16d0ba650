package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FlightRepository only reads flights; they are owned by another system and
// matter here as references that can block an airport removal.
type FlightRepository interface {
	ListByAirport(ctx context.Context, airportID int64) ([]domain.Flight, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) ListByAirport(ctx context.Context, airportID int64) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT flightid, flightcode, departureairportid, arrivalairportid, departuretime, arrivaltime
		FROM flights WHERE departureairportid=$1 OR arrivalairportid=$1 ORDER BY departuretime`, airportID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.ID, &f.Code, &f.DepartureAirportID, &f.ArrivalAirportID, &f.DepartureTime, &f.ArrivalTime); err != nil {
			return nil, translate(err)
		}
		flights = append(flights, f)
	}
	return flights, translate(rows.Err())
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// countUpcomingFlights counts flights touching the airport that have not
// landed at now. The airport delete runs it inside its transaction.
func countUpcomingFlights(ctx context.Context, q rowQuerier, airportID int64, now time.Time) (int64, error) {
	var n int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM flights
		WHERE (departureairportid=$1 OR arrivalairportid=$1) AND arrivaltime > $2`, airportID, now).Scan(&n)
	if err != nil {
		return 0, translate(err)
	}
	return n, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
