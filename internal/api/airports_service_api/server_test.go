package airports_service_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/Domenick1991/airadmin/internal/service/airports"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAirportUseCase overrides the read methods the gateway calls.
type MockAirportUseCase struct {
	airports.AirportUseCase
	mock.Mock
}

func (m *MockAirportUseCase) Range(ctx context.Context, offset, limit int) ([]domain.Airport, int64, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Airport), args.Get(1).(int64), args.Error(2)
}

func (m *MockAirportUseCase) GetByCode(ctx context.Context, code string) (*domain.Airport, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Airport), args.Error(1)
}

func (m *MockAirportUseCase) Summary(ctx context.Context) ([]domain.CountryCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CountryCount), args.Error(1)
}

func newMux(t *testing.T, svc *MockAirportUseCase) *runtime.ServeMux {
	t.Helper()
	mux := runtime.NewServeMux()
	require.NoError(t, NewServer(svc).Register(mux))
	return mux
}

func serve(mux *runtime.ServeMux, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestListAirports(t *testing.T) {
	svc := &MockAirportUseCase{}
	svc.On("Range", mock.Anything, 10, 200).Return([]domain.Airport{
		{ID: 11, Name: "Heathrow", IATACode: "LHR", City: "London", Country: "United Kingdom"},
	}, int64(11), nil)

	w := serve(newMux(t, svc), "/api/v1/airports?offset=10&limit=5000")

	require.Equal(t, http.StatusOK, w.Code)
	var resp ListAirportsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 10, resp.Offset)
	assert.Equal(t, 200, resp.Limit)
	assert.Equal(t, int64(11), resp.Total)
	require.Len(t, resp.Airports, 1)
	assert.Equal(t, "LHR", resp.Airports[0].IATACode)
	svc.AssertExpectations(t)
}

func TestGetAirport(t *testing.T) {
	svc := &MockAirportUseCase{}
	svc.On("GetByCode", mock.Anything, "lhr").Return(&domain.Airport{ID: 4, Name: "Heathrow", IATACode: "LHR"}, nil)
	svc.On("GetByCode", mock.Anything, "ZZZ").Return(nil, fmt.Errorf("airport ZZZ: %w", domain.ErrNotFound))
	mux := newMux(t, svc)

	w := serve(mux, "/api/v1/airports/lhr")
	require.Equal(t, http.StatusOK, w.Code)
	var resp GetAirportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(4), resp.Airport.ID)

	w = serve(mux, "/api/v1/airports/ZZZ")
	assert.Equal(t, http.StatusNotFound, w.Code)
	svc.AssertExpectations(t)
}

func TestListCountries(t *testing.T) {
	svc := &MockAirportUseCase{}
	svc.On("Summary", mock.Anything).Return([]domain.CountryCount{{Country: "Germany", Count: 3}}, nil)

	w := serve(newMux(t, svc), "/api/v1/countries")

	require.Equal(t, http.StatusOK, w.Code)
	var resp ListCountriesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []*CountryCount{{Country: "Germany", Count: 3}}, resp.Countries)
}

func TestListCountries_Unavailable(t *testing.T) {
	svc := &MockAirportUseCase{}
	svc.On("Summary", mock.Anything).Return(nil, fmt.Errorf("%w: connection reset", domain.ErrUnavailable))

	w := serve(newMux(t, svc), "/api/v1/countries")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}
