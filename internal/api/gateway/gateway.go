// Package gateway holds the plumbing shared by the JSON endpoints mounted on
// the grpc-gateway mux.
package gateway

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Status converts a domain error into a gRPC status. Infrastructure and
// unexpected errors lose their text.
func Status(err error) error {
	switch domain.OutcomeOf(err) {
	case domain.OutcomeOK:
		return nil
	case domain.OutcomeNotFound:
		return status.Error(codes.NotFound, err.Error())
	case domain.OutcomeAlreadyExists:
		return status.Error(codes.AlreadyExists, err.Error())
	case domain.OutcomeConflict, domain.OutcomeNoChange:
		return status.Error(codes.FailedPrecondition, err.Error())
	case domain.OutcomeValidation:
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.OutcomeUnauthenticated:
		return status.Error(codes.Unauthenticated, err.Error())
	case domain.OutcomeForbidden:
		return status.Error(codes.PermissionDenied, err.Error())
	case domain.OutcomeUnavailable:
		return status.Error(codes.Unavailable, "data store unavailable")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// WriteError renders err through the mux's error handler.
func WriteError(mux *runtime.ServeMux, w http.ResponseWriter, r *http.Request, err error) {
	_, outbound := runtime.MarshalerForRequest(mux, r)
	runtime.HTTPError(r.Context(), mux, outbound, w, r, Status(err))
}

// WriteJSON marshals v with the mux's outbound marshaler.
func WriteJSON(mux *runtime.ServeMux, w http.ResponseWriter, r *http.Request, v any) {
	_, outbound := runtime.MarshalerForRequest(mux, r)
	buf, err := outbound.Marshal(v)
	if err != nil {
		runtime.HTTPError(r.Context(), mux, outbound, w, r, status.Error(codes.Internal, "failed to encode response"))
		return
	}
	w.Header().Set("Content-Type", outbound.ContentType(v))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf)
}

// Window reads offset and limit from the query. Missing or malformed values
// fall back to defaults and limit is capped at MaxLimit.
func Window(q url.Values) (offset, limit int) {
	limit = DefaultLimit
	if v, err := strconv.Atoi(strings.TrimSpace(q.Get("limit"))); err == nil && v > 0 {
		limit = v
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if v, err := strconv.Atoi(strings.TrimSpace(q.Get("offset"))); err == nil && v >= 0 {
		offset = v
	}
	return offset, limit
}
