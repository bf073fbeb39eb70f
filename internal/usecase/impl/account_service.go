package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/domain/service"
	"tradepost/internal/usecase"
	"tradepost/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	referralCodeLength   = 8
	maxReferralAttempts  = 10
	minPasswordLength    = 8
	maxPasswordLength    = 72
	maxNameLength        = 100
	maxAppealLength      = 2000
	maxProfileFieldLen   = 255
	maxAdminReasonLength = 500
)

// accountService implements the AccountUsecase interface.
type accountService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	referralRepo repository.ReferralRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	qrCode       service.QRCodeService
	ledger       usecase.LedgerUsecase
	referral     usecase.ReferralUsecase
	dispatcher   usecase.NotificationDispatcher
	audit        usecase.AuditUsecase
	clock        service.Clock
	validate     *validator.Validate
	logger       *slog.Logger
}

// AccountServiceParams holds dependencies for AccountService, injected by Fx.
type AccountServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	ReferralRepo repository.ReferralRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	QRCode       service.QRCodeService
	Ledger       usecase.LedgerUsecase
	Referral     usecase.ReferralUsecase
	Dispatcher   usecase.NotificationDispatcher
	Audit        usecase.AuditUsecase
	Clock        service.Clock
	Logger       *slog.Logger
}

// NewAccountService is the constructor for accountService.
func NewAccountService(params AccountServiceParams) usecase.AccountUsecase {
	return &accountService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		referralRepo: params.ReferralRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		qrCode:       params.QRCode,
		ledger:       params.Ledger,
		referral:     params.Referral,
		dispatcher:   params.Dispatcher,
		audit:        params.Audit,
		clock:        params.Clock,
		validate:     validator.New(),
		logger:       params.Logger,
	}
}

func (srv *accountService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// normalizeReferralCode accepts a typed code or the JSON payload of a scanned referral QR code.
func (srv *accountService) normalizeReferralCode(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		code, err := srv.qrCode.ParseReferralQR(raw)
		if err != nil {
			return "", domainerrors.ErrReferralCodeInvalid.WithDetails(err.Error())
		}

		return code, nil
	}

	return strings.ToUpper(raw), nil
}

// Register creates a user with a unique referral code, linking the referrer when a code was given.
func (srv *accountService) Register(ctx context.Context, input *usecase.RegisterInput) (*entity.User, error) {
	name := strings.TrimSpace(input.Name)
	email := entity.NormalizeEmail(input.Email)

	if name == "" || len([]rune(name)) > maxNameLength {
		return nil, domainerrors.NewValidationError("name", "must be 1..100 characters")
	}
	if err := srv.validate.Var(email, "required,email"); err != nil {
		return nil, domainerrors.NewValidationError("email", "must be a valid email address")
	}
	if n := len(input.Password); n < minPasswordLength || n > maxPasswordLength {
		return nil, domainerrors.NewValidationError("password", fmt.Sprintf("must be %d..%d bytes", minPasswordLength, maxPasswordLength))
	}

	var referrer *entity.User
	if strings.TrimSpace(input.ReferralCode) != "" {
		code, err := srv.normalizeReferralCode(input.ReferralCode)
		if err != nil {
			return nil, err
		}
		referrer, err = srv.userRepo.FindByReferralCode(ctx, code)
		if errors.Is(err, domainerrors.ErrUserNotFound) {
			return nil, domainerrors.ErrReferralCodeInvalid
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to find referrer")
		}
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, domainerrors.ErrPasswordHashFailed.WrapMessage(err.Error())
	}

	user := &entity.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Roles:        entity.Roles{entity.RoleUser},
		Level:        entity.MinLevel,
	}

	err = srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		code, err := uniqueReferralCode(ctx, repos.UserRepo())
		if err != nil {
			return err
		}
		user.ReferralCode = code

		if err := repos.UserRepo().Create(ctx, user); err != nil {
			return err
		}

		if referrer != nil {
			if err := repos.ReferralRepo().Create(ctx, &entity.Referral{
				ID:         uuid.New(),
				ReferrerID: referrer.ID,
				ReferredID: user.ID,
			}); err != nil {
				return errors.Wrap(err, "failed to link referrer")
			}
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("email", email), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Info("User registered",
		slog.String("userID", user.ID.String()),
		slog.Bool("referred", referrer != nil),
	)

	return user, nil
}

func uniqueReferralCode(ctx context.Context, userRepo repository.UserRepository) (string, error) {
	for range maxReferralAttempts {
		code, err := util.RandomCode(referralCodeLength)
		if err != nil {
			return "", err
		}
		exists, err := userRepo.ReferralCodeExists(ctx, code)
		if err != nil {
			return "", errors.Wrap(err, "failed to check referral code")
		}
		if !exists {
			return code, nil
		}
	}

	return "", domainerrors.ErrUserCreationFailed.WithDetails("could not allocate a referral code")
}

// Login verifies the password and issues an access token. Banned users are refused.
func (srv *accountService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	user, err := srv.userRepo.FindByEmail(ctx, entity.NormalizeEmail(input.Email))
	if errors.Is(err, domainerrors.ErrUserNotFound) {
		return nil, domainerrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}
	if user.AnonymisedAt != nil || !srv.hasher.Check(input.Password, user.PasswordHash) {
		return nil, domainerrors.ErrInvalidCredentials
	}
	if user.Banned {
		return nil, domainerrors.ErrUserBanned.WithDetails(user.BanReason)
	}
	if srv.hasher.NeedsRehash(user.PasswordHash) {
		srv.rehash(ctx, user, input.Password)
	}

	token, expiresAt, err := srv.tokenService.GenerateAccessToken(user.ID, user.Roles.ToStrings())
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue access token")
	}

	srv.log(ctx).Debug("User logged in", slog.String("userID", user.ID.String()))

	return &usecase.LoginOutput{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

// rehash upgrades a stored hash to the current cost. Failure keeps the old hash.
func (srv *accountService) rehash(ctx context.Context, user *entity.User, password string) {
	hash, err := srv.hasher.Hash(password)
	if err == nil {
		err = srv.userRepo.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		srv.log(ctx).Warn("Failed to upgrade password hash", slog.Any("error", err))

		return
	}
	user.PasswordHash = hash
}

// GetProfile returns the user with the derived gamification fields.
func (srv *accountService) GetProfile(ctx context.Context, userID uuid.UUID) (*usecase.Profile, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	count, err := srv.referralRepo.CountByReferrer(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count referrals")
	}

	profile := &usecase.Profile{User: user, Tier: user.Tier(), ReferredCount: count}
	if user.Level < entity.MaxLevel {
		next := entity.LevelThreshold(user.Level + 1)
		profile.NextLevelAt = &next
	}

	return profile, nil
}

// UpdateProfile stores the contact fields. Completing them pays the referrer's signup bonus once.
func (srv *accountService) UpdateProfile(ctx context.Context, userID uuid.UUID, input *usecase.UpdateProfileInput) (*usecase.Profile, error) {
	fields := map[string]string{
		"phone":   input.Phone,
		"address": input.Address,
		"city":    input.City,
		"state":   input.State,
	}
	for field, value := range fields {
		if len(strings.TrimSpace(value)) > maxProfileFieldLen {
			return nil, domainerrors.NewValidationError(field, "must be at most 255 characters")
		}
	}

	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		user, err := repos.UserRepo().FindByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		user.Phone = strings.TrimSpace(input.Phone)
		user.Address = strings.TrimSpace(input.Address)
		user.City = strings.TrimSpace(input.City)
		user.State = strings.TrimSpace(input.State)
		if err := repos.UserRepo().Update(ctx, user); err != nil {
			return errors.Wrap(err, "failed to update profile")
		}

		if !user.ProfileComplete() {
			return nil
		}
		_, err = srv.referral.MaybeAward(ctx, repos, user.ID, entity.ReferralMilestoneSignup)

		return err
	})
	if err != nil {
		return nil, err
	}

	return srv.GetProfile(ctx, userID)
}

// SubmitAppeal stores the appeal text of a banned user.
func (srv *accountService) SubmitAppeal(ctx context.Context, userID uuid.UUID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" || len([]rune(text)) > maxAppealLength {
		return domainerrors.NewValidationError("text", "must be 1..2000 characters")
	}

	return srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		user, err := repos.UserRepo().FindByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if !user.Banned {
			return domainerrors.NewValidationError("text", "only suspended accounts can appeal")
		}
		user.Appeal = text

		return repos.UserRepo().Update(ctx, user)
	})
}

// DeleteAccount anonymises the user and keeps the row so ledger sums still reconcile.
func (srv *accountService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		user, err := repos.UserRepo().FindByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user.AnonymisedAt != nil {
			return nil
		}
		user.Anonymise(srv.clock.Now())
		if err := repos.UserRepo().Update(ctx, user); err != nil {
			return errors.Wrap(err, "failed to anonymise user")
		}

		devices, err := repos.DeviceRepo().ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, device := range devices {
			if err := repos.DeviceRepo().Delete(ctx, userID, device.ID); err != nil {
				return err
			}
		}

		subs, err := repos.WishlistRepo().ListSubscriptionsByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			if !sub.Active {
				continue
			}
			sub.Active = false
			if err := repos.WishlistRepo().UpdateSubscription(ctx, sub); err != nil {
				return err
			}
		}

		return repos.CartRepo().Clear(ctx, userID)
	})
	if err != nil {
		return err
	}

	srv.log(ctx).Info("Account anonymised", slog.String("userID", userID.String()))

	return nil
}

// GrantCredits credits a user on behalf of an admin.
func (srv *accountService) GrantCredits(ctx context.Context, input *usecase.GrantCreditsInput) (*entity.LedgerEntry, error) {
	reason := strings.TrimSpace(input.Reason)
	if input.Amount <= 0 {
		return nil, domainerrors.NewValidationError("amount", "must be a positive integer")
	}
	if reason == "" || len([]rune(reason)) > maxAdminReasonLength {
		return nil, domainerrors.NewValidationError("reason", "must be 1..500 characters")
	}

	var (
		entry  *entity.LedgerEntry
		before int64
	)
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		user, err := repos.UserRepo().FindByIDForUpdate(ctx, input.UserID)
		if err != nil {
			return err
		}
		before = user.CreditBalance

		entry, err = srv.ledger.Credit(ctx, repos, user, usecase.LedgerPosting{
			Amount: input.Amount,
			Kind:   entity.LedgerKindAdminGrant,
			Reason: reason,
		})
		if err != nil {
			return err
		}

		_, err = srv.dispatcher.Dispatch(ctx, repos, &usecase.DispatchRequest{
			UserID:  user.ID,
			Kind:    entity.NotificationCreditGrant,
			Message: fmt.Sprintf("You received %d credits: %s", input.Amount, reason),
			Payload: map[string]any{"amount": input.Amount},
			InApp:   true,
			Email:   true,
		})

		return err
	})
	if err != nil {
		return nil, err
	}

	srv.audit.Log(ctx, &entity.AuditEntry{
		AdminID:    input.AdminID,
		Action:     entity.AuditActionGrantCredits,
		TargetType: entity.AuditTargetUser,
		TargetID:   input.UserID,
		Before:     map[string]any{"balance": before},
		After:      map[string]any{"balance": entry.BalanceAfter},
		Reason:     reason,
		IP:         input.IP,
	})

	return entry, nil
}

// Ban suspends a user. Admins cannot ban themselves.
func (srv *accountService) Ban(ctx context.Context, input *usecase.BanInput) (*entity.User, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" || len([]rune(reason)) > maxAdminReasonLength {
		return nil, domainerrors.NewValidationError("reason", "must be 1..500 characters")
	}
	if input.UserID == input.AdminID {
		return nil, domainerrors.ErrForbidden.WithDetails("admins cannot ban themselves")
	}

	return srv.setBanned(ctx, input, true, reason, entity.AuditActionBanUser)
}

// Unban lifts a suspension and clears the appeal.
func (srv *accountService) Unban(ctx context.Context, input *usecase.BanInput) (*entity.User, error) {
	return srv.setBanned(ctx, input, false, strings.TrimSpace(input.Reason), entity.AuditActionUnbanUser)
}

func (srv *accountService) setBanned(ctx context.Context, input *usecase.BanInput, banned bool, reason string, action entity.AuditAction) (*entity.User, error) {
	var (
		updated *entity.User
		before  map[string]any
	)
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		user, err := repos.UserRepo().FindByIDForUpdate(ctx, input.UserID)
		if err != nil {
			return err
		}
		before = map[string]any{"banned": user.Banned, "ban_reason": user.BanReason}

		user.Banned = banned
		if banned {
			user.BanReason = reason
		} else {
			user.BanReason = ""
			user.Appeal = ""
		}
		if err := repos.UserRepo().Update(ctx, user); err != nil {
			return errors.Wrap(err, "failed to update ban state")
		}
		updated = user

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.audit.Log(ctx, &entity.AuditEntry{
		AdminID:    input.AdminID,
		Action:     action,
		TargetType: entity.AuditTargetUser,
		TargetID:   updated.ID,
		Before:     before,
		After:      map[string]any{"banned": updated.Banned, "ban_reason": updated.BanReason},
		Reason:     reason,
		IP:         input.IP,
	})
	srv.log(ctx).Info("User ban state changed",
		slog.String("userID", updated.ID.String()),
		slog.Bool("banned", banned),
		slog.String("adminID", input.AdminID.String()),
	)

	return updated, nil
}
