package identity

import (
	"context"
	"errors"
	"time"

	"github.com/expensetracker/backend/internal/domain/identity"
	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/expensetracker/backend/internal/infrastructure/auth"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/tenant"
	"github.com/expensetracker/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Provisioner prepares a tenant schema for use. It must be idempotent.
type Provisioner interface {
	Provision(ctx context.Context, schema string) error
}

// PasswordHasher hashes and checks credentials
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	// SchemaIsolation gives every principal its own schema.
	SchemaIsolation bool
	// SchemaPrefix prefixes derived schema names.
	SchemaPrefix string
}

var errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")

// AuthService registers principals and issues their access tokens
type AuthService struct {
	principals  identity.PrincipalRepository
	tenants     identity.TenantRepository
	provisioner Provisioner
	hasher      PasswordHasher
	jwtService  *auth.JWTService
	blacklist   auth.TokenBlacklist
	config      AuthServiceConfig
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service. provisioner and
// tenants may be nil when config.SchemaIsolation is false.
func NewAuthService(
	principals identity.PrincipalRepository,
	tenants identity.TenantRepository,
	provisioner Provisioner,
	hasher PasswordHasher,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		principals:  principals,
		tenants:     tenants,
		provisioner: provisioner,
		hasher:      hasher,
		jwtService:  jwtService,
		blacklist:   blacklist,
		config:      config,
		logger:      logger,
	}
}

// Register creates a principal and, under schema isolation, its tenant schema.
// Registering again with the same credentials behaves like a login, so a
// client retrying after a timeout gets a token instead of a conflict.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (result *AuthResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "register")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	email, err := identity.NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := identity.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	principal, err := s.principals.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return s.reRegister(ctx, principal, input.Password)
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, err
	}
	principal, err = identity.NewPrincipal(input.Name, email, hash)
	if err != nil {
		return nil, err
	}

	if err := s.principals.Create(ctx, principal); err != nil {
		if !errors.Is(err, shared.ErrAlreadyExists) {
			return nil, err
		}
		// lost a race with a concurrent registration of the same email
		existing, findErr := s.principals.FindByEmail(ctx, email)
		if findErr != nil {
			return nil, findErr
		}
		return s.reRegister(ctx, existing, input.Password)
	}

	s.logger.Info("Principal registered",
		zap.String("principal_id", principal.ID.String()),
		zap.String("email", principal.Email))

	return s.authenticate(ctx, principal)
}

func (s *AuthService) reRegister(ctx context.Context, principal *identity.Principal, password string) (*AuthResult, error) {
	if err := s.hasher.Compare(principal.PasswordHash, password); err != nil {
		return nil, shared.ErrAlreadyExists
	}
	return s.authenticate(ctx, principal)
}

// Login verifies credentials and issues an access token. Under schema
// isolation the principal's schema is provisioned again, which is a no-op
// once it is current.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (result *AuthResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "login")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	principal, err := s.principals.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login attempt for unknown email")
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := s.hasher.Compare(principal.PasswordHash, input.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("Invalid password attempt", zap.String("principal_id", principal.ID.String()))
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	return s.authenticate(ctx, principal)
}

// Logout revokes the access token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenID == "" {
		return shared.ErrInvalidInput
	}
	ttl := time.Until(input.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, input.TokenID, ttl); err != nil {
		s.logger.Error("Failed to revoke token", zap.Error(err))
		return err
	}
	return nil
}

func (s *AuthService) authenticate(ctx context.Context, principal *identity.Principal) (*AuthResult, error) {
	schema, err := s.ensureTenant(ctx, principal)
	if err != nil {
		return nil, err
	}

	token, err := s.jwtService.Issue(auth.IssueInput{
		UserID: principal.ID,
		Email:  principal.Email,
		Schema: schema,
	})
	if err != nil {
		s.logger.Error("Failed to issue access token", zap.Error(err))
		return nil, err
	}

	return &AuthResult{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		Principal: PrincipalInfo{
			ID:     principal.ID,
			Name:   principal.Name,
			Email:  principal.Email,
			Schema: schema,
		},
	}, nil
}

// ensureTenant records the principal's tenant and provisions its schema.
// It returns "" when the deployment isolates by owner column.
func (s *AuthService) ensureTenant(ctx context.Context, principal *identity.Principal) (string, error) {
	if !s.config.SchemaIsolation {
		return "", nil
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "provision",
		attribute.String("principal.id", principal.ID.String()))
	defer span.End()

	t, err := identity.NewTenant(principal.ID, tenant.SchemaName(s.config.SchemaPrefix, principal.Email))
	if err != nil {
		return "", err
	}
	stored, err := s.tenants.Ensure(ctx, t)
	if err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}
	span.SetAttributes(attribute.String("db.tenant", stored.SchemaName))

	if err := s.provisioner.Provision(ctx, stored.SchemaName); err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to provision tenant schema",
			zap.String("schema", stored.SchemaName),
			zap.Error(err))
		return "", err
	}
	return stored.SchemaName, nil
}
