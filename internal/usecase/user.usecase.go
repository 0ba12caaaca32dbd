package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/algobasket/hissabbook-api-system/internal/domain"
	"github.com/algobasket/hissabbook-api-system/internal/service/phone"
	"github.com/algobasket/hissabbook-api-system/pkg/jwtutil"
	"github.com/algobasket/hissabbook-api-system/pkg/utils"
	"github.com/algobasket/hissabbook-api-system/pkg/utils/id"
	"github.com/algobasket/hissabbook-api-system/pkg/xerrors"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, bool, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	SetPassword(ctx context.Context, userID, hash string) error
}

type ProfileStore interface {
	Upsert(ctx context.Context, p *domain.Profile) error
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	Update(ctx context.Context, userID string, upd domain.ProfileUpdate) error
}

type RoleStore interface {
	Assign(ctx context.Context, userID, role string) error
	ListByUser(ctx context.Context, userID string) ([]string, error)
}

// EventPublisher fans a lifecycle event out to one sink. Publishing is
// fire-and-forget; the login path never fails on it.
type EventPublisher interface {
	Publish(ctx context.Context, ev *domain.UserEvent) error
}

// DLQPublisher is the optional dead-letter hook a sink may expose. Events
// whose publish fails are parked there for later replay.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, ev *domain.UserEvent) error
}

// ResolveResult distinguishes a hard failure (no identity, returned as an
// error) from a soft one: the identity exists but enrichment, role
// assignment or the login-time bookkeeping failed. Callers may retry
// enrichment later.
type ResolveResult struct {
	User          *domain.User
	Created       bool
	EnrichmentErr error
}

// AuthResult is what a completed login or registration hands back.
type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type UserUseCase struct {
	users       UserStore
	profiles    ProfileStore
	roles       RoleStore
	sf          *id.Snowflake
	normalizer  *phone.Normalizer
	tokens      *jwtutil.Generator
	publishers  []EventPublisher
	placeholder string // placeholder email domain
	defaultRole string
	logger      *zap.Logger
}

func NewUserUseCase(
	users UserStore,
	profiles ProfileStore,
	roles RoleStore,
	sf *id.Snowflake,
	normalizer *phone.Normalizer,
	tokens *jwtutil.Generator,
	publishers []EventPublisher,
	placeholderDomain string,
	defaultRole string,
	logger *zap.Logger,
) *UserUseCase {
	return &UserUseCase{
		users:       users,
		profiles:    profiles,
		roles:       roles,
		sf:          sf,
		normalizer:  normalizer,
		tokens:      tokens,
		publishers:  publishers,
		placeholder: placeholderDomain,
		defaultRole: defaultRole,
		logger:      logger,
	}
}

// ResolveOrCreate maps a verified identity to the durable account, creating
// it on first contact. The upsert underneath makes concurrent first
// contacts converge on one row; the second caller gets the winner's
// identity back. Enrichment failures are logged and carried in the result,
// never raised.
func (uc *UserUseCase) ResolveOrCreate(ctx context.Context, channel domain.Channel, identity string, hints domain.ProfileHints) (*ResolveResult, error) {
	existing, err := uc.lookup(ctx, channel, identity)
	if err != nil && !errors.Is(err, xerrors.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrStoreUnavailable, err)
	}

	if existing != nil {
		res := &ResolveResult{User: existing}
		if err := uc.users.UpdateLastLogin(ctx, existing.ID); err != nil {
			uc.logger.Warn("failed to update last login",
				zap.String("user_id", existing.ID), zap.Error(err))
			res.EnrichmentErr = err
		}
		uc.loadRoles(ctx, res)
		uc.publish(domain.EventUserLogin, existing, channel)
		return res, nil
	}

	email := identity
	var phoneDigits *string
	if channel == domain.ChannelSMS {
		email = fmt.Sprintf("phone_%s@%s.temp", identity, uc.placeholder)
		phoneDigits = &identity
	}

	user := &domain.User{
		ID:     uc.sf.Generate(),
		Email:  email,
		Status: domain.StatusActive,
	}
	saved, created, err := uc.users.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrStoreUnavailable, err)
	}

	res := &ResolveResult{User: saved, Created: created}
	uc.enrich(ctx, res, domain.Profile{
		UserID:    saved.ID,
		FirstName: hints.FirstName,
		LastName:  hints.LastName,
		Phone:     coalescePtr(hints.Phone, phoneDigits),
	})
	uc.loadRoles(ctx, res)

	if created {
		uc.publish(domain.EventUserRegistered, saved, channel)
	} else {
		uc.publish(domain.EventUserLogin, saved, channel)
	}
	return res, nil
}

func (uc *UserUseCase) lookup(ctx context.Context, channel domain.Channel, identity string) (*domain.User, error) {
	switch channel {
	case domain.ChannelSMS:
		return uc.users.GetUserByPhone(ctx, identity)
	case domain.ChannelEmail:
		return uc.users.GetUserByEmail(ctx, identity)
	default:
		return nil, xerrors.ErrInvalidChannel
	}
}

// enrich assigns the default role and writes the profile row. Failures are
// demoted to the result's EnrichmentErr: an identity without its trimmings
// is still an identity.
func (uc *UserUseCase) enrich(ctx context.Context, res *ResolveResult, p domain.Profile) {
	if err := uc.roles.Assign(ctx, res.User.ID, uc.defaultRole); err != nil {
		uc.logger.Warn("failed to assign default role",
			zap.String("user_id", res.User.ID), zap.Error(err))
		if res.EnrichmentErr == nil {
			res.EnrichmentErr = err
		}
	}
	if err := uc.profiles.Upsert(ctx, &p); err != nil {
		uc.logger.Warn("failed to create profile",
			zap.String("user_id", res.User.ID), zap.Error(err))
		if res.EnrichmentErr == nil {
			res.EnrichmentErr = err
		}
	}
}

func (uc *UserUseCase) loadRoles(ctx context.Context, res *ResolveResult) {
	roles, err := uc.roles.ListByUser(ctx, res.User.ID)
	if err != nil {
		uc.logger.Warn("failed to load roles",
			zap.String("user_id", res.User.ID), zap.Error(err))
		if res.EnrichmentErr == nil {
			res.EnrichmentErr = err
		}
		return
	}
	res.User.Roles = roles
}

// IssueSession signs the credential for a resolved identity. An account
// with no roles yet is stamped with the default role.
func (uc *UserUseCase) IssueSession(user *domain.User) (string, error) {
	roles := user.Roles
	if len(roles) == 0 {
		roles = []string{uc.defaultRole}
	}
	token, _, err := uc.tokens.Generate(user.ID, user.Email, user.Status, roles, user.PrimaryRole(uc.defaultRole))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// Register creates a password account, or claims a passwordless account
// created earlier through OTP login for the same email.
func (uc *UserUseCase) Register(ctx context.Context, rawEmail, password string, firstName, lastName *string) (*AuthResult, error) {
	if !utils.ValidateEmail(rawEmail) {
		return nil, xerrors.ErrInvalidEmailFormat
	}
	if err := utils.ValidatePassword(password); err != nil {
		return nil, err
	}
	email := utils.NormalizeEmail(rawEmail)

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uc.sf.Generate(),
		Email:        email,
		PasswordHash: &hash,
		Status:       domain.StatusActive,
	}
	saved, created, err := uc.users.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrStoreUnavailable, err)
	}
	if !created {
		if saved.PasswordHash != nil {
			return nil, xerrors.ErrEmailAlreadyInUse
		}
		// OTP-created account without a credential: claim it.
		if err := uc.users.SetPassword(ctx, saved.ID, hash); err != nil {
			return nil, fmt.Errorf("%w: %v", xerrors.ErrStoreUnavailable, err)
		}
		saved.PasswordHash = &hash
	}

	res := &ResolveResult{User: saved, Created: created}
	uc.enrich(ctx, res, domain.Profile{
		UserID:    saved.ID,
		FirstName: firstName,
		LastName:  lastName,
	})
	uc.loadRoles(ctx, res)
	uc.publish(domain.EventUserRegistered, saved, "")

	token, err := uc.IssueSession(saved)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: saved}, nil
}

// LoginWithPassword authenticates an email+password pair.
func (uc *UserUseCase) LoginWithPassword(ctx context.Context, rawEmail, password string) (*AuthResult, error) {
	email := utils.NormalizeEmail(rawEmail)
	user, err := uc.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, xerrors.ErrPasswordNotSet
	}
	if !utils.CheckPasswordHash(password, *user.PasswordHash) {
		return nil, xerrors.ErrInvalidCredentials
	}
	if user.Status == domain.StatusSuspended {
		return nil, xerrors.ErrAccountSuspended
	}
	if user.Status == domain.StatusDeleted {
		return nil, xerrors.ErrAccountDeleted
	}

	res := &ResolveResult{User: user}
	if err := uc.users.UpdateLastLogin(ctx, user.ID); err != nil {
		uc.logger.Warn("failed to update last login",
			zap.String("user_id", user.ID), zap.Error(err))
	}
	uc.loadRoles(ctx, res)
	uc.publish(domain.EventUserLogin, user, "")

	token, err := uc.IssueSession(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// GetProfile returns the account with its profile row and roles attached.
func (uc *UserUseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := uc.profiles.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
		return nil, err
	}
	user.Profile = profile
	roles, err := uc.roles.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return user, nil
}

// UpdateProfile merges the changed fields. A phone change is normalized
// first so the stored value stays canonical.
func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) error {
	if upd.Phone != nil {
		canonical, err := uc.normalizer.Normalize(*upd.Phone)
		if err != nil {
			return err
		}
		upd.Phone = &canonical
	}
	return uc.profiles.Update(ctx, userID, upd)
}

// publish fans the event out without blocking the request. Failures are
// logged; the first failing sink does not stop the rest.
func (uc *UserUseCase) publish(eventType string, user *domain.User, channel domain.Channel) {
	ev := domain.UserEvent{
		EventID:    id.GenerateUUID("evt"),
		Type:       eventType,
		UserID:     user.ID,
		Email:      user.Email,
		Channel:    string(channel),
		OccurredAt: time.Now().UTC(),
	}
	if channel == "" {
		ev.Channel = "password"
	}
	for _, p := range uc.publishers {
		go func(p EventPublisher, ev domain.UserEvent) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := p.Publish(ctx, &ev); err != nil {
				uc.logger.Warn("failed to publish user event",
					zap.String("type", ev.Type),
					zap.String("user_id", ev.UserID),
					zap.Error(err))
				dlq, ok := p.(DLQPublisher)
				if !ok {
					return
				}
				if err := dlq.PublishToDLQ(ctx, &ev); err != nil {
					uc.logger.Error("failed to park user event in DLQ",
						zap.String("type", ev.Type),
						zap.String("user_id", ev.UserID),
						zap.Error(err))
				}
			}
		}(p, ev)
	}
}

func coalescePtr(a, b *string) *string {
	if a != nil {
		return a
	}
	return b
}
