package api

import (
	"context"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/Domenick1991/airadmin/internal/service/airports"
	"github.com/Domenick1991/airadmin/internal/service/users"
	"github.com/stretchr/testify/mock"
)

type MockAirportUseCase struct {
	mock.Mock
}

func (m *MockAirportUseCase) Create(ctx context.Context, input airports.CreateAirportInput) (*domain.Airport, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Airport), args.Error(1)
}

func (m *MockAirportUseCase) ListPage(ctx context.Context, page int) (*domain.AirportPage, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AirportPage), args.Error(1)
}

func (m *MockAirportUseCase) Range(ctx context.Context, offset, limit int) ([]domain.Airport, int64, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Airport), args.Get(1).(int64), args.Error(2)
}

func (m *MockAirportUseCase) ListByName(ctx context.Context) ([]domain.Airport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Airport), args.Error(1)
}

func (m *MockAirportUseCase) GetByID(ctx context.Context, id int64) (*domain.Airport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Airport), args.Error(1)
}

func (m *MockAirportUseCase) GetByCode(ctx context.Context, code string) (*domain.Airport, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Airport), args.Error(1)
}

func (m *MockAirportUseCase) UpdateName(ctx context.Context, code, name string) (*domain.Airport, error) {
	args := m.Called(ctx, code, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Airport), args.Error(1)
}

func (m *MockAirportUseCase) UpdateCode(ctx context.Context, code, newCode string) (*domain.Airport, error) {
	args := m.Called(ctx, code, newCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Airport), args.Error(1)
}

func (m *MockAirportUseCase) UpdateCity(ctx context.Context, code, city string) (*domain.Airport, error) {
	args := m.Called(ctx, code, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Airport), args.Error(1)
}

func (m *MockAirportUseCase) UpdateCountry(ctx context.Context, code, country string) (*domain.Airport, error) {
	args := m.Called(ctx, code, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Airport), args.Error(1)
}

func (m *MockAirportUseCase) PreviewDelete(ctx context.Context, code string) (*airports.RemovalPreview, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*airports.RemovalPreview), args.Error(1)
}

func (m *MockAirportUseCase) DeleteByCode(ctx context.Context, code string) (*domain.AirportRemoval, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AirportRemoval), args.Error(1)
}

func (m *MockAirportUseCase) Summary(ctx context.Context) ([]domain.CountryCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CountryCount), args.Error(1)
}

func (m *MockAirportUseCase) RefreshSummary(ctx context.Context) ([]domain.CountryCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CountryCount), args.Error(1)
}

type MockUserUseCase struct {
	mock.Mock
}

func (m *MockUserUseCase) Authenticate(ctx context.Context, userID, password string) (*domain.UserWithRole, error) {
	args := m.Called(ctx, userID, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserWithRole), args.Error(1)
}

func (m *MockUserUseCase) Create(ctx context.Context, input users.CreateUserInput) (*domain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserUseCase) Update(ctx context.Context, input users.UpdateUserInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *MockUserUseCase) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserUseCase) Get(ctx context.Context, userID string) (*domain.UserWithRole, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserWithRole), args.Error(1)
}

func (m *MockUserUseCase) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserUseCase) ListByField(ctx context.Context, field domain.UserField, value string) ([]domain.User, error) {
	args := m.Called(ctx, field, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserUseCase) ListWithRoles(ctx context.Context) ([]domain.UserWithRole, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserWithRole), args.Error(1)
}

func (m *MockUserUseCase) RoleStats(ctx context.Context) ([]domain.RoleCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RoleCount), args.Error(1)
}

func (m *MockUserUseCase) Search(ctx context.Context, field, operator, value string) ([]domain.User, error) {
	args := m.Called(ctx, field, operator, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserUseCase) ListRoles(ctx context.Context) ([]domain.UserRole, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserRole), args.Error(1)
}

func (m *MockUserUseCase) RehashLegacyPasswords(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// memorySessions is an in-process SessionStore.
type memorySessions struct {
	sessions map[string]domain.Session
	deleted  []string
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: make(map[string]domain.Session)}
}

func (m *memorySessions) CreateSession(_ context.Context, s domain.Session) (*domain.Session, error) {
	s.Token = "token-" + s.UserID
	s.ExpiresAt = fixedExpiry
	m.sessions[s.Token] = s
	return &s, nil
}

func (m *memorySessions) GetSession(_ context.Context, token string) (*domain.Session, error) {
	s, ok := m.sessions[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *memorySessions) DeleteSession(_ context.Context, token string) error {
	delete(m.sessions, token)
	m.deleted = append(m.deleted, token)
	return nil
}

func (m *memorySessions) DeleteUserSessions(_ context.Context, userID string) error {
	for token, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, token)
			m.deleted = append(m.deleted, token)
		}
	}
	return nil
}

var _ SessionStore = (*memorySessions)(nil)
