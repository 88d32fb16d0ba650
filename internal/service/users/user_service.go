package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/airadmin/internal/auth"
	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/Domenick1991/airadmin/internal/metrics"
	"github.com/Domenick1991/airadmin/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultRoleID    int64 = 1
	defaultFirstName       = "Empty firstname"
	defaultLastName        = "Empty lastname"
)

type UserUseCase interface {
	Authenticate(ctx context.Context, userID, password string) (*domain.UserWithRole, error)
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, input UpdateUserInput) error
	Delete(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (*domain.UserWithRole, error)
	List(ctx context.Context) ([]domain.User, error)
	ListByField(ctx context.Context, field domain.UserField, value string) ([]domain.User, error)
	ListWithRoles(ctx context.Context) ([]domain.UserWithRole, error)
	RoleStats(ctx context.Context) ([]domain.RoleCount, error)
	Search(ctx context.Context, field, operator, value string) ([]domain.User, error)
	ListRoles(ctx context.Context) ([]domain.UserRole, error)
	RehashLegacyPasswords(ctx context.Context) (int, error)
}

type Producer interface {
	Publish(ctx context.Context, event domain.AuditEvent) error
}

type CreateUserInput struct {
	UserID    string
	FirstName string
	LastName  string
	RoleID    int64
	Password  string
}

// UpdateUserInput leaves nil fields untouched.
type UpdateUserInput struct {
	UserID    string
	FirstName *string
	LastName  *string
	RoleID    *int64
	Password  *string
}

type UserService struct {
	users    repository.UserRepository
	roles    repository.UserRoleRepository
	producer Producer
	logger   *zap.Logger
	hash     func(string) (string, error)
}

type Option func(*UserService)

func WithProducer(producer Producer) Option {
	return func(s *UserService) { s.producer = producer }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *UserService) { s.logger = logger }
}

// WithHasher swaps the password hash function; tests use it to skip bcrypt.
func WithHasher(hash func(string) (string, error)) Option {
	return func(s *UserService) { s.hash = hash }
}

func NewUserService(users repository.UserRepository, roles repository.UserRoleRepository, opts ...Option) *UserService {
	s := &UserService{
		users:  users,
		roles:  roles,
		logger: zap.NewNop(),
		hash:   auth.HashPassword,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate reports ErrInvalidCredentials for an unknown user and for a
// wrong password alike; both paths run one bcrypt comparison.
func (s *UserService) Authenticate(ctx context.Context, userID, password string) (*domain.UserWithRole, error) {
	user, err := s.users.GetWithRole(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			auth.BurnComparison(password)
			return nil, metrics.ObserveOperation("user", "login", domain.ErrInvalidCredentials)
		}
		return nil, metrics.ObserveOperation("user", "login", err)
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, metrics.ObserveOperation("user", "login", domain.ErrInvalidCredentials)
	}

	user.PasswordHash = ""
	return user, metrics.ObserveOperation("user", "login", nil)
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	user, err := s.create(ctx, input)
	return user, metrics.ObserveOperation("user", "create", err)
}

func (s *UserService) create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, domain.NewValidationError("userid", "Can not add user without a userid")
	}
	if input.Password == "" {
		return nil, domain.NewValidationError("password", "Can not add user without a password")
	}

	user := domain.User{
		ID:        userID,
		FirstName: orDefault(input.FirstName, defaultFirstName),
		LastName:  orDefault(input.LastName, defaultLastName),
		RoleID:    input.RoleID,
	}
	if user.RoleID == 0 {
		user.RoleID = defaultRoleID
	}

	hash, err := s.hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash

	if err := s.users.Insert(ctx, &user); err != nil {
		return nil, err
	}

	s.publish(ctx, "user_created", user.ID, fmt.Sprintf("role=%d", user.RoleID))
	user.PasswordHash = ""
	return &user, nil
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// Update returns ErrNothingToUpdate without touching the store when no
// optional field is set.
func (s *UserService) Update(ctx context.Context, input UpdateUserInput) error {
	return metrics.ObserveOperation("user", "update", s.update(ctx, input))
}

func (s *UserService) update(ctx context.Context, input UpdateUserInput) error {
	if strings.TrimSpace(input.UserID) == "" {
		return domain.NewValidationError("userid", "Can not update without a userid")
	}

	update := domain.UserUpdate{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		RoleID:    input.RoleID,
	}
	if input.Password != nil {
		hash, err := s.hash(*input.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		update.PasswordHash = &hash
	}
	if update.Empty() {
		return fmt.Errorf("%w for user %s", domain.ErrNothingToUpdate, input.UserID)
	}

	if err := s.users.Update(ctx, input.UserID, update); err != nil {
		return err
	}

	s.publish(ctx, "user_updated", input.UserID, describeUpdate(update))
	return nil
}

func describeUpdate(u domain.UserUpdate) string {
	var fields []string
	if u.FirstName != nil {
		fields = append(fields, "firstname")
	}
	if u.LastName != nil {
		fields = append(fields, "lastname")
	}
	if u.RoleID != nil {
		fields = append(fields, "userroleid")
	}
	if u.PasswordHash != nil {
		fields = append(fields, "password")
	}
	return "fields=" + strings.Join(fields, ",")
}

func (s *UserService) Delete(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return metrics.ObserveOperation("user", "delete", err)
	}
	s.publish(ctx, "user_deleted", userID, "")
	return metrics.ObserveOperation("user", "delete", nil)
}

// Get never exposes the stored hash.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.UserWithRole, error) {
	user, err := s.users.GetWithRole(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) ListByField(ctx context.Context, field domain.UserField, value string) ([]domain.User, error) {
	return s.users.ListByField(ctx, field, value)
}

func (s *UserService) ListWithRoles(ctx context.Context) ([]domain.UserWithRole, error) {
	return s.users.ListWithRoles(ctx)
}

func (s *UserService) RoleStats(ctx context.Context) ([]domain.RoleCount, error) {
	return s.users.CountByRole(ctx)
}

// Search checks field and operator against the allow-lists before any query
// runs.
func (s *UserService) Search(ctx context.Context, field, operator, value string) ([]domain.User, error) {
	f, ok := domain.ParseUserField(field)
	if !ok {
		return nil, domain.NewValidationError("searchfield", fmt.Sprintf("Cannot search users by %q", field))
	}
	op, ok := domain.ParseSearchOperator(operator)
	if !ok {
		return nil, domain.NewValidationError("operator", fmt.Sprintf("Unsupported search operator %q", operator))
	}
	return s.users.Search(ctx, f, op, value)
}

func (s *UserService) ListRoles(ctx context.Context) ([]domain.UserRole, error) {
	return s.roles.List(ctx)
}

// RehashLegacyPasswords replaces every stored password that is not a bcrypt
// hash with one. It returns how many were converted.
func (s *UserService) RehashLegacyPasswords(ctx context.Context) (int, error) {
	stored, err := s.users.ListPasswords(ctx)
	if err != nil {
		return 0, fmt.Errorf("list passwords: %w", err)
	}

	converted := 0
	for userID, password := range stored {
		if auth.IsHashed(password) {
			continue
		}
		hash, err := s.hash(password)
		if err != nil {
			return converted, fmt.Errorf("hash password for %s: %w", userID, err)
		}
		if err := s.users.SetPasswordHash(ctx, userID, hash); err != nil {
			return converted, fmt.Errorf("store hash for %s: %w", userID, err)
		}
		converted++
	}

	s.logger.Info("legacy passwords rehashed", zap.Int("converted", converted), zap.Int("total", len(stored)))
	return converted, nil
}

func (s *UserService) publish(ctx context.Context, eventType, key, detail string) {
	if s.producer == nil {
		return
	}
	event := domain.AuditEvent{
		Type:       eventType,
		Entity:     "user",
		Key:        key,
		Actor:      domain.ActorFrom(ctx),
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.producer.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish audit event",
			zap.String("type", eventType), zap.String("key", key), zap.Error(err))
	}
}

var _ UserUseCase = (*UserService)(nil)
