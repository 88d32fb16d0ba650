package airports

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/Domenick1991/airadmin/internal/metrics"
	"github.com/Domenick1991/airadmin/internal/repository"
	"github.com/Domenick1991/airadmin/internal/validation"
	"go.uber.org/zap"
)

const defaultPageSize = 50

type AirportUseCase interface {
	Create(ctx context.Context, input CreateAirportInput) (*domain.Airport, error)
	ListPage(ctx context.Context, page int) (*domain.AirportPage, error)
	Range(ctx context.Context, offset, limit int) ([]domain.Airport, int64, error)
	ListByName(ctx context.Context) ([]domain.Airport, error)
	GetByID(ctx context.Context, id int64) (*domain.Airport, error)
	GetByCode(ctx context.Context, code string) (*domain.Airport, error)
	UpdateName(ctx context.Context, code, name string) (*domain.Airport, error)
	UpdateCode(ctx context.Context, code, newCode string) (*domain.Airport, error)
	UpdateCity(ctx context.Context, code, city string) (*domain.Airport, error)
	UpdateCountry(ctx context.Context, code, country string) (*domain.Airport, error)
	PreviewDelete(ctx context.Context, code string) (*RemovalPreview, error)
	DeleteByCode(ctx context.Context, code string) (*domain.AirportRemoval, error)
	Summary(ctx context.Context) ([]domain.CountryCount, error)
	RefreshSummary(ctx context.Context) ([]domain.CountryCount, error)
}

// SummaryCache holds the country summary. A nil slice from GetCountrySummary
// is a miss.
type SummaryCache interface {
	GetCountrySummary(ctx context.Context) ([]domain.CountryCount, error)
	SetCountrySummary(ctx context.Context, summary []domain.CountryCount) error
	InvalidateCountrySummary(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, event domain.AuditEvent) error
}

type CreateAirportInput struct {
	Name     string `json:"name"`
	IATACode string `json:"iata_code"`
	City     string `json:"city"`
	Country  string `json:"country"`
}

// RemovalPreview is what an operator confirms before an airport goes.
type RemovalPreview struct {
	Airport  domain.Airport
	Upcoming []domain.Flight
	Past     int
}

// Blocked reports whether the airport still has flights in the air or
// scheduled.
func (p RemovalPreview) Blocked() bool {
	return len(p.Upcoming) > 0
}

type AirportService struct {
	airports repository.AirportRepository
	flights  repository.FlightRepository
	cache    SummaryCache
	producer Producer
	logger   *zap.Logger
	pageSize int
	now      func() time.Time
}

type Option func(*AirportService)

func WithCache(cache SummaryCache) Option {
	return func(s *AirportService) { s.cache = cache }
}

func WithProducer(producer Producer) Option {
	return func(s *AirportService) { s.producer = producer }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *AirportService) { s.logger = logger }
}

func WithPageSize(size int) Option {
	return func(s *AirportService) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *AirportService) { s.now = now }
}

func NewAirportService(airports repository.AirportRepository, flights repository.FlightRepository, opts ...Option) *AirportService {
	s := &AirportService{
		airports: airports,
		flights:  flights,
		logger:   zap.NewNop(),
		pageSize: defaultPageSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	errInvalidName    = domain.NewValidationError("name", "Invalid airport name. Only alphabetic characters are allowed.")
	errInvalidCode    = domain.NewValidationError("iatacode", "Invalid IATA code. It must be exactly 3 letters.")
	errInvalidCity    = domain.NewValidationError("city", "Invalid city name. Only alphabetic characters are allowed.")
	errInvalidCountry = domain.NewValidationError("country", "Invalid country name. Only alphabetic characters are allowed.")
)

// Create checks input in a fixed order and reports the first failure only:
// name format, code format, name taken, code taken, city, country.
func (s *AirportService) Create(ctx context.Context, input CreateAirportInput) (*domain.Airport, error) {
	airport, err := s.create(ctx, input)
	return airport, metrics.ObserveOperation("airport", "create", err)
}

func (s *AirportService) create(ctx context.Context, input CreateAirportInput) (*domain.Airport, error) {
	a := domain.Airport{
		Name:     validation.TitleCase(input.Name),
		IATACode: validation.NormalizeCode(input.IATACode),
		City:     validation.TitleCase(input.City),
		Country:  validation.TitleCase(input.Country),
	}

	if !validation.IsAlphabetic(a.Name) {
		return nil, errInvalidName
	}
	if !validation.IsIATACode(a.IATACode) {
		return nil, errInvalidCode
	}
	if err := s.ensureNameFree(ctx, a.Name); err != nil {
		return nil, err
	}
	if err := s.ensureCodeFree(ctx, a.IATACode); err != nil {
		return nil, err
	}
	if !validation.IsAlphabetic(a.City) {
		return nil, errInvalidCity
	}
	if !validation.IsAlphabetic(a.Country) {
		return nil, errInvalidCountry
	}

	id, err := s.airports.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate airport id: %w", err)
	}
	a.ID = id

	if err := s.airports.Insert(ctx, &a); err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx)
	s.publish(ctx, "airport_created", a.IATACode, fmt.Sprintf("id=%d name=%s", a.ID, a.Name))
	return &a, nil
}

func (s *AirportService) ensureNameFree(ctx context.Context, name string) error {
	taken, err := s.airports.ExistsByName(ctx, name)
	if err != nil {
		return err
	}
	if taken {
		return &domain.DuplicateError{Entity: "airport", Field: "name"}
	}
	return nil
}

func (s *AirportService) ensureCodeFree(ctx context.Context, code string) error {
	taken, err := s.airports.ExistsByCode(ctx, code)
	if err != nil {
		return err
	}
	if taken {
		return &domain.DuplicateError{Entity: "airport", Field: "iatacode"}
	}
	return nil
}

// ListPage clamps page to at least 1 and to the largest page whose offset
// still fits in an int.
func (s *AirportService) ListPage(ctx context.Context, page int) (*domain.AirportPage, error) {
	if page < 1 {
		page = 1
	}
	if maxPage := math.MaxInt / s.pageSize; page > maxPage {
		page = maxPage
	}
	offset := (page - 1) * s.pageSize

	airports, total, err := s.Range(ctx, offset, s.pageSize)
	if err != nil {
		return nil, err
	}
	return &domain.AirportPage{
		Airports:    airports,
		CurrentPage: page,
		PageSize:    s.pageSize,
		Total:       total,
		TotalPages:  domain.TotalPages(total, s.pageSize),
	}, nil
}

func (s *AirportService) Range(ctx context.Context, offset, limit int) ([]domain.Airport, int64, error) {
	airports, err := s.airports.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list airports: %w", err)
	}
	total, err := s.airports.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count airports: %w", err)
	}
	return airports, total, nil
}

func (s *AirportService) ListByName(ctx context.Context) ([]domain.Airport, error) {
	return s.airports.ListByName(ctx)
}

func (s *AirportService) GetByID(ctx context.Context, id int64) (*domain.Airport, error) {
	return s.airports.GetByID(ctx, id)
}

func (s *AirportService) GetByCode(ctx context.Context, code string) (*domain.Airport, error) {
	return s.airports.GetByCode(ctx, validation.NormalizeCode(code))
}

func (s *AirportService) UpdateName(ctx context.Context, code, name string) (*domain.Airport, error) {
	airport, err := s.updateField(ctx, code, domain.AirportFieldName, name)
	return airport, metrics.ObserveOperation("airport", "update_name", err)
}

func (s *AirportService) UpdateCode(ctx context.Context, code, newCode string) (*domain.Airport, error) {
	airport, err := s.updateField(ctx, code, domain.AirportFieldIATACode, newCode)
	return airport, metrics.ObserveOperation("airport", "update_iatacode", err)
}

func (s *AirportService) UpdateCity(ctx context.Context, code, city string) (*domain.Airport, error) {
	airport, err := s.updateField(ctx, code, domain.AirportFieldCity, city)
	return airport, metrics.ObserveOperation("airport", "update_city", err)
}

func (s *AirportService) UpdateCountry(ctx context.Context, code, country string) (*domain.Airport, error) {
	airport, err := s.updateField(ctx, code, domain.AirportFieldCountry, country)
	return airport, metrics.ObserveOperation("airport", "update_country", err)
}

func (s *AirportService) updateField(ctx context.Context, code string, field domain.AirportField, raw string) (*domain.Airport, error) {
	current, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	updated := *current
	var value string
	switch field {
	case domain.AirportFieldName:
		if validation.SameText(current.Name, raw) {
			return nil, fmt.Errorf("%w: name", domain.ErrNoChange)
		}
		value = validation.TitleCase(raw)
		if err := s.ensureNameFree(ctx, value); err != nil {
			return nil, err
		}
		if !validation.IsAlphabetic(value) {
			return nil, errInvalidName
		}
		updated.Name = value
	case domain.AirportFieldIATACode:
		if validation.SameText(current.IATACode, raw) {
			return nil, fmt.Errorf("%w: iatacode", domain.ErrNoChange)
		}
		value = validation.NormalizeCode(raw)
		if !validation.IsIATACode(value) {
			return nil, domain.NewValidationError("iatacode", "Length of IATA Code should be exactly 3 letters and alphabetic!")
		}
		if err := s.ensureCodeFree(ctx, value); err != nil {
			return nil, err
		}
		updated.IATACode = value
	case domain.AirportFieldCity:
		if validation.SameText(current.City, raw) {
			return nil, fmt.Errorf("%w: city", domain.ErrNoChange)
		}
		value = validation.TitleCase(raw)
		if !validation.IsAlphabetic(value) {
			return nil, errInvalidCity
		}
		updated.City = value
	case domain.AirportFieldCountry:
		if validation.SameText(current.Country, raw) {
			return nil, fmt.Errorf("%w: country", domain.ErrNoChange)
		}
		value = validation.TitleCase(raw)
		if !validation.IsAlphabetic(value) {
			return nil, errInvalidCountry
		}
		updated.Country = value
	default:
		return nil, domain.NewValidationError(string(field), fmt.Sprintf("unsupported airport field %q", field))
	}

	if err := s.airports.UpdateField(ctx, current.ID, field, value); err != nil {
		return nil, err
	}

	if field == domain.AirportFieldCountry {
		s.invalidateSummary(ctx)
	}
	s.publish(ctx, "airport_updated", updated.IATACode, fmt.Sprintf("%s: %q -> %q", field, fieldValue(*current, field), value))
	return &updated, nil
}

func fieldValue(a domain.Airport, field domain.AirportField) string {
	switch field {
	case domain.AirportFieldName:
		return a.Name
	case domain.AirportFieldIATACode:
		return a.IATACode
	case domain.AirportFieldCity:
		return a.City
	case domain.AirportFieldCountry:
		return a.Country
	}
	return ""
}

func (s *AirportService) PreviewDelete(ctx context.Context, code string) (*RemovalPreview, error) {
	airport, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	flights, err := s.flights.ListByAirport(ctx, airport.ID)
	if err != nil {
		return nil, fmt.Errorf("list flights for %s: %w", airport.IATACode, err)
	}

	now := s.now()
	preview := &RemovalPreview{Airport: *airport, Upcoming: make([]domain.Flight, 0)}
	for _, f := range flights {
		if f.Upcoming(now) {
			preview.Upcoming = append(preview.Upcoming, f)
		} else {
			preview.Past++
		}
	}
	return preview, nil
}

// DeleteByCode removes the airport and its landed flights, or refuses with
// an UpcomingFlightsError.
func (s *AirportService) DeleteByCode(ctx context.Context, code string) (*domain.AirportRemoval, error) {
	code = validation.NormalizeCode(code)

	removal, err := s.airports.DeleteByCode(ctx, code, s.now())
	if err != nil {
		return nil, metrics.ObserveOperation("airport", "delete", err)
	}

	s.invalidateSummary(ctx)
	s.publish(ctx, "airport_deleted", code, fmt.Sprintf("id=%d purged_flights=%d", removal.AirportID, removal.PurgedFlights))
	return removal, metrics.ObserveOperation("airport", "delete", nil)
}

// Summary reads through the cache when one is configured. Cache failures
// fall back to the store.
func (s *AirportService) Summary(ctx context.Context) ([]domain.CountryCount, error) {
	if s.cache != nil {
		cached, err := s.cache.GetCountrySummary(ctx)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			s.logger.Warn("summary cache read failed", zap.Error(err))
		}
	}
	return s.RefreshSummary(ctx)
}

// RefreshSummary recomputes the summary and stores it in the cache.
func (s *AirportService) RefreshSummary(ctx context.Context) ([]domain.CountryCount, error) {
	summary, err := s.airports.SummaryByCountry(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize airports: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SetCountrySummary(ctx, summary); err != nil {
			s.logger.Warn("summary cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

func (s *AirportService) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCountrySummary(ctx); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.Error(err))
	}
}

func (s *AirportService) publish(ctx context.Context, eventType, key, detail string) {
	if s.producer == nil {
		return
	}
	event := domain.AuditEvent{
		Type:       eventType,
		Entity:     "airport",
		Key:        key,
		Actor:      domain.ActorFrom(ctx),
		Detail:     detail,
		OccurredAt: s.now().UTC(),
	}
	if err := s.producer.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish audit event",
			zap.String("type", eventType), zap.String("key", key), zap.Error(err))
	}
}

var _ AirportUseCase = (*AirportService)(nil)
