package users_service_api

import (
	"fmt"
	"net/http"

	"github.com/Domenick1991/airadmin/internal/api/gateway"
	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/Domenick1991/airadmin/internal/service/users"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
)

// Server serves read-only user data on the gateway mux. Password hashes
// never leave the service layer.
type Server struct {
	users users.UserUseCase
	mux   *runtime.ServeMux
}

func NewServer(users users.UserUseCase) *Server {
	return &Server{users: users}
}

type Role struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      *Role  `json:"role"`
}

type ListUsersResponse struct {
	Users []*User `json:"users"`
}

type RoleCount struct {
	RoleID int64 `json:"role_id"`
	Count  int64 `json:"count"`
}

type RoleStatsResponse struct {
	Roles []*RoleCount `json:"roles"`
}

func (s *Server) Register(mux *runtime.ServeMux) error {
	s.mux = mux
	if err := mux.HandlePath(http.MethodGet, "/api/v1/users", s.ListUsers); err != nil {
		return fmt.Errorf("register users: %w", err)
	}
	if err := mux.HandlePath(http.MethodGet, "/api/v1/users/stats", s.RoleStats); err != nil {
		return fmt.Errorf("register user stats: %w", err)
	}
	return nil
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	list, err := s.users.ListWithRoles(r.Context())
	if err != nil {
		gateway.WriteError(s.mux, w, r, err)
		return
	}

	resp := &ListUsersResponse{Users: make([]*User, 0, len(list))}
	for _, u := range list {
		resp.Users = append(resp.Users, toUser(&u))
	}
	gateway.WriteJSON(s.mux, w, r, resp)
}

func (s *Server) RoleStats(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	stats, err := s.users.RoleStats(r.Context())
	if err != nil {
		gateway.WriteError(s.mux, w, r, err)
		return
	}

	resp := &RoleStatsResponse{Roles: make([]*RoleCount, 0, len(stats))}
	for _, c := range stats {
		resp.Roles = append(resp.Roles, &RoleCount{RoleID: c.RoleID, Count: c.Count})
	}
	gateway.WriteJSON(s.mux, w, r, resp)
}

func toUser(u *domain.UserWithRole) *User {
	return &User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role: &Role{
			ID:      u.Role.ID,
			Name:    u.Role.Name,
			IsAdmin: u.Role.IsAdmin,
		},
	}
}
