//go:build integration

package repository_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/Domenick1991/airadmin/config"
	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/Domenick1991/airadmin/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type RepositorySuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool

	airports repository.AirportRepository
	flights  repository.FlightRepository
	users    repository.UserRepository
	roles    repository.UserRoleRepository
	audit    repository.AuditRepository
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupSuite() {
	s.ctx = context.Background()

	var err error
	s.container, err = postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("airline_test"),
		postgres.WithUsername("admin"),
		postgres.WithPassword("secret"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute),
		),
	)
	s.Require().NoError(err)

	host, err := s.container.Host(s.ctx)
	s.Require().NoError(err)
	port, err := s.container.MappedPort(s.ctx, "5432/tcp")
	s.Require().NoError(err)

	cfg := config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "admin",
		Password: "secret",
		Name:     "airline_test",
		Schema:   "airline",
		SSLMode:  "disable",
		MaxConns: 4,
	}
	s.pool, err = repository.NewPool(s.ctx, cfg)
	s.Require().NoError(err)
	s.Require().NoError(repository.Migrate(s.ctx, s.pool, cfg.Schema))
	// second run is a no-op
	s.Require().NoError(repository.Migrate(s.ctx, s.pool, cfg.Schema))

	s.airports = repository.NewAirportRepository(s.pool)
	s.flights = repository.NewFlightRepository(s.pool)
	s.users = repository.NewUserRepository(s.pool)
	s.roles = repository.NewUserRoleRepository(s.pool)
	s.audit = repository.NewAuditRepository(s.pool)
}

func (s *RepositorySuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(s.ctx))
	}
}

func (s *RepositorySuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE flights, airports, users, audit_events RESTART IDENTITY`)
	s.Require().NoError(err)
}

func (s *RepositorySuite) insertAirport(name, code, city, country string) domain.Airport {
	id, err := s.airports.NextID(s.ctx)
	s.Require().NoError(err)
	a := domain.Airport{ID: id, Name: name, IATACode: code, City: city, Country: country}
	s.Require().NoError(s.airports.Insert(s.ctx, &a))
	return a
}

func (s *RepositorySuite) insertFlight(code string, from, to int64, arrival time.Time) {
	_, err := s.pool.Exec(s.ctx, `INSERT INTO flights (flightcode, departureairportid, arrivalairportid, departuretime, arrivaltime)
		VALUES ($1, $2, $3, $4, $5)`, code, from, to, arrival.Add(-2*time.Hour), arrival)
	s.Require().NoError(err)
}

func (s *RepositorySuite) TestNewPoolUnreachable() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	_, err := repository.NewPool(ctx, config.DatabaseConfig{
		Host: "127.0.0.1", Port: 1, User: "nobody", Name: "none", SSLMode: "disable", MaxConns: 1,
	})
	s.ErrorIs(err, domain.ErrUnavailable)
}

func (s *RepositorySuite) TestAirportLifecycle() {
	lhr := s.insertAirport("Heathrow", "LHR", "London", "United Kingdom")
	s.Equal(int64(1), lhr.ID)
	jfk := s.insertAirport("Kennedy", "JFK", "New York", "United States")
	s.Equal(int64(2), jfk.ID)

	count, err := s.airports.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	page, err := s.airports.List(s.ctx, 1, 50)
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal("JFK", page[0].IATACode)

	byName, err := s.airports.ListByName(s.ctx)
	s.Require().NoError(err)
	s.Equal("Heathrow", byName[0].Name)

	got, err := s.airports.GetByCode(s.ctx, "LHR")
	s.Require().NoError(err)
	s.Equal(lhr, *got)

	_, err = s.airports.GetByID(s.ctx, 99)
	s.ErrorIs(err, domain.ErrNotFound)

	exists, err := s.airports.ExistsByName(s.ctx, "Heathrow")
	s.Require().NoError(err)
	s.True(exists)
	exists, err = s.airports.ExistsByName(s.ctx, "heathrow")
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(s.airports.UpdateField(s.ctx, lhr.ID, domain.AirportFieldCity, "Hillingdon"))
	got, err = s.airports.GetByID(s.ctx, lhr.ID)
	s.Require().NoError(err)
	s.Equal("Hillingdon", got.City)

	s.ErrorIs(s.airports.UpdateField(s.ctx, 99, domain.AirportFieldCity, "Nowhere"), domain.ErrNotFound)
}

func (s *RepositorySuite) TestAirportDuplicates() {
	s.insertAirport("Heathrow", "LHR", "London", "United Kingdom")

	err := s.airports.Insert(s.ctx, &domain.Airport{ID: 2, Name: "Heathrow", IATACode: "LGW", City: "London", Country: "United Kingdom"})
	s.Equal(domain.OutcomeAlreadyExists, domain.OutcomeOf(err))
	s.Equal("An airport with this name already exists", err.Error())

	err = s.airports.Insert(s.ctx, &domain.Airport{ID: 2, Name: "Gatwick", IATACode: "LHR", City: "London", Country: "United Kingdom"})
	s.Equal("An airport with this IATA code already exists", err.Error())

	err = s.airports.Insert(s.ctx, &domain.Airport{ID: 1, Name: "Gatwick", IATACode: "LGW", City: "London", Country: "United Kingdom"})
	s.Equal(domain.OutcomeConflict, domain.OutcomeOf(err))

	err = s.airports.Insert(s.ctx, &domain.Airport{ID: 3, Name: "Gatwick", IATACode: "lgw", City: "London", Country: "United Kingdom"})
	s.Equal(domain.OutcomeValidation, domain.OutcomeOf(err))
}

func (s *RepositorySuite) TestDeleteAirportWithUpcomingFlights() {
	now := time.Now().UTC()
	lhr := s.insertAirport("Heathrow", "LHR", "London", "United Kingdom")
	jfk := s.insertAirport("Kennedy", "JFK", "New York", "United States")
	s.insertFlight("BA1", lhr.ID, jfk.ID, now.Add(-24*time.Hour))
	s.insertFlight("BA2", jfk.ID, lhr.ID, now.Add(24*time.Hour))

	_, err := s.airports.DeleteByCode(s.ctx, "LHR", now)
	var blocked *domain.UpcomingFlightsError
	s.Require().ErrorAs(err, &blocked)
	s.Equal(int64(1), blocked.Count)
	s.Equal("cannot delete airport LHR: there are 1 upcoming flights associated with it", err.Error())

	flights, err := s.flights.ListByAirport(s.ctx, lhr.ID)
	s.Require().NoError(err)
	s.Len(flights, 2)
	_, err = s.airports.GetByCode(s.ctx, "LHR")
	s.NoError(err)
}

func (s *RepositorySuite) TestDeleteAirportPurgesPastFlights() {
	now := time.Now().UTC()
	lhr := s.insertAirport("Heathrow", "LHR", "London", "United Kingdom")
	jfk := s.insertAirport("Kennedy", "JFK", "New York", "United States")
	s.insertFlight("BA1", lhr.ID, jfk.ID, now.Add(-48*time.Hour))
	s.insertFlight("BA2", jfk.ID, lhr.ID, now.Add(-24*time.Hour))

	removal, err := s.airports.DeleteByCode(s.ctx, "LHR", now)
	s.Require().NoError(err)
	s.Equal(lhr.ID, removal.AirportID)
	s.Equal(int64(2), removal.PurgedFlights)

	_, err = s.airports.GetByCode(s.ctx, "LHR")
	s.ErrorIs(err, domain.ErrNotFound)

	_, err = s.airports.DeleteByCode(s.ctx, "LHR", now)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *RepositorySuite) TestSummaryByCountry() {
	s.insertAirport("Heathrow", "LHR", "London", "United Kingdom")
	s.insertAirport("Gatwick", "LGW", "London", "United Kingdom")
	s.insertAirport("Kennedy", "JFK", "New York", "United States")
	s.insertAirport("Charles De Gaulle", "CDG", "Paris", "France")

	summary, err := s.airports.SummaryByCountry(s.ctx)
	s.Require().NoError(err)
	s.Equal([]domain.CountryCount{
		{Country: "United Kingdom", Count: 2},
		{Country: "France", Count: 1},
		{Country: "United States", Count: 1},
	}, summary)
}

func (s *RepositorySuite) TestUserLifecycle() {
	roles, err := s.roles.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(roles, 2)
	s.True(roles[1].IsAdmin)

	alice := domain.User{ID: "alice", FirstName: "Alice", LastName: "Smith", RoleID: 2, PasswordHash: "$2a$10$hash"}
	s.Require().NoError(s.users.Insert(s.ctx, &alice))
	err = s.users.Insert(s.ctx, &alice)
	s.Equal("A user with this user id already exists", err.Error())

	for i := 0; i < 3; i++ {
		u := domain.User{ID: "traveller" + strconv.Itoa(i), FirstName: "Bob", LastName: "Jones", RoleID: 1, PasswordHash: "plain"}
		s.Require().NoError(s.users.Insert(s.ctx, &u))
	}

	joined, err := s.users.GetWithRole(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("$2a$10$hash", joined.PasswordHash)
	s.Equal("Administrator", joined.Role.Name)

	list, err := s.users.List(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 4)
	for _, u := range list {
		s.Empty(u.PasswordHash)
	}

	byRole, err := s.users.ListByField(s.ctx, domain.UserFieldRoleID, "1")
	s.Require().NoError(err)
	s.Len(byRole, 3)

	counts, err := s.users.CountByRole(s.ctx)
	s.Require().NoError(err)
	s.Equal([]domain.RoleCount{{RoleID: 1, Count: 3}, {RoleID: 2, Count: 1}}, counts)

	withRoles, err := s.users.ListWithRoles(s.ctx)
	s.Require().NoError(err)
	s.Len(withRoles, 4)

	found, err := s.users.Search(s.ctx, domain.UserFieldFirstName, domain.OpLike, "LIC")
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal("alice", found[0].ID)

	found, err = s.users.Search(s.ctx, domain.UserFieldLastName, domain.OpEqual, "JONES")
	s.Require().NoError(err)
	s.Len(found, 3)

	_, err = s.users.Search(s.ctx, domain.UserField("password"), domain.OpEqual, "x")
	s.ErrorIs(err, domain.ErrValidation)

	name := "Alicia"
	s.Require().NoError(s.users.Update(s.ctx, "alice", domain.UserUpdate{FirstName: &name}))
	s.ErrorIs(s.users.Update(s.ctx, "alice", domain.UserUpdate{}), domain.ErrNothingToUpdate)
	s.ErrorIs(s.users.Update(s.ctx, "ghost", domain.UserUpdate{FirstName: &name}), domain.ErrNotFound)

	stored, err := s.users.ListPasswords(s.ctx)
	s.Require().NoError(err)
	s.Equal("plain", stored["traveller0"])
	s.Require().NoError(s.users.SetPasswordHash(s.ctx, "traveller0", "$2a$10$other"))

	s.Require().NoError(s.users.Delete(s.ctx, "alice"))
	s.ErrorIs(s.users.Delete(s.ctx, "alice"), domain.ErrNotFound)
}

func (s *RepositorySuite) TestAuditEvents() {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, typ := range []string{"airport_created", "airport_updated", "airport_deleted"} {
		s.Require().NoError(s.audit.Insert(s.ctx, domain.AuditEvent{
			Type: typ, Entity: "airport", Key: "LHR", Actor: "alice", OccurredAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := s.audit.ListRecent(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.Equal("airport_deleted", recent[0].Type)
	s.Equal("airport_updated", recent[1].Type)
}
