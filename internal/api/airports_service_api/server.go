package airports_service_api

import (
	"fmt"
	"net/http"

	"github.com/Domenick1991/airadmin/internal/api/gateway"
	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/Domenick1991/airadmin/internal/service/airports"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
)

// Server serves read-only airport data on the gateway mux.
type Server struct {
	airports airports.AirportUseCase
	mux      *runtime.ServeMux
}

func NewServer(airports airports.AirportUseCase) *Server {
	return &Server{airports: airports}
}

type Airport struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IATACode string `json:"iata_code"`
	City     string `json:"city"`
	Country  string `json:"country"`
}

type ListAirportsResponse struct {
	Airports []*Airport `json:"airports"`
	Offset   int        `json:"offset"`
	Limit    int        `json:"limit"`
	Total    int64      `json:"total"`
}

type GetAirportResponse struct {
	Airport *Airport `json:"airport"`
}

type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

type ListCountriesResponse struct {
	Countries []*CountryCount `json:"countries"`
}

// Register mounts the airport endpoints on mux.
func (s *Server) Register(mux *runtime.ServeMux) error {
	s.mux = mux
	routes := map[string]runtime.HandlerFunc{
		"/api/v1/airports":        s.ListAirports,
		"/api/v1/airports/{code}": s.GetAirport,
		"/api/v1/countries":       s.ListCountries,
	}
	for path, h := range routes {
		if err := mux.HandlePath(http.MethodGet, path, h); err != nil {
			return fmt.Errorf("register %s: %w", path, err)
		}
	}
	return nil
}

func (s *Server) ListAirports(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	offset, limit := gateway.Window(r.URL.Query())
	list, total, err := s.airports.Range(r.Context(), offset, limit)
	if err != nil {
		gateway.WriteError(s.mux, w, r, err)
		return
	}

	resp := &ListAirportsResponse{
		Airports: make([]*Airport, 0, len(list)),
		Offset:   offset,
		Limit:    limit,
		Total:    total,
	}
	for _, a := range list {
		resp.Airports = append(resp.Airports, toAirport(&a))
	}
	gateway.WriteJSON(s.mux, w, r, resp)
}

func (s *Server) GetAirport(w http.ResponseWriter, r *http.Request, params map[string]string) {
	airport, err := s.airports.GetByCode(r.Context(), params["code"])
	if err != nil {
		gateway.WriteError(s.mux, w, r, err)
		return
	}
	gateway.WriteJSON(s.mux, w, r, &GetAirportResponse{Airport: toAirport(airport)})
}

func (s *Server) ListCountries(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	summary, err := s.airports.Summary(r.Context())
	if err != nil {
		gateway.WriteError(s.mux, w, r, err)
		return
	}

	resp := &ListCountriesResponse{Countries: make([]*CountryCount, 0, len(summary))}
	for _, c := range summary {
		resp.Countries = append(resp.Countries, &CountryCount{Country: c.Country, Count: c.Count})
	}
	gateway.WriteJSON(s.mux, w, r, resp)
}

func toAirport(a *domain.Airport) *Airport {
	if a == nil {
		return nil
	}
	return &Airport{
		ID:       a.ID,
		Name:     a.Name,
		IATACode: a.IATACode,
		City:     a.City,
		Country:  a.Country,
	}
}
