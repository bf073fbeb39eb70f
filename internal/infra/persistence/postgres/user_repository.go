package postgres

import (
	"context"

	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository implements the repository.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a repository.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return repo.first(ctx, repo.db.WithContext(ctx), "id = ?", id)
}

// FindByIDForUpdate retrieves a user and locks the row for the rest of the transaction.
func (repo *userRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return repo.first(ctx, repo.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

// FindByEmail retrieves a single user by their normalised email address.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.first(ctx, repo.db.WithContext(ctx), "email = ?", entity.NormalizeEmail(email))
}

// FindByReferralCode retrieves the owner of a referral code.
func (repo *userRepository) FindByReferralCode(ctx context.Context, code string) (*entity.User, error) {
	return repo.first(ctx, repo.db.WithContext(ctx), "referral_code = ?", code)
}

func (repo *userRepository) first(_ context.Context, db *gorm.DB, query string, arg any) (*entity.User, error) {
	var userM model.UserModel
	if err := db.Where(query, arg).First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return toUserDomain(&userM), nil
}

// ReferralCodeExists reports whether a code is already taken.
func (repo *userRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("referral_code = ?", code).
		Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check referral code")
	}

	return count > 0, nil
}

// Create persists a new user entity to the database.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrUserCreationFailed.WrapMessage("missing required user information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// Update writes every mutable column of the user.
func (repo *userRepository) Update(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", user.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(userM)
	if result.Error != nil {
		if isUniqueConstraintViolation(result.Error) {
			return domainerrors.ErrUserAlreadyExists
		}
		if isCheckConstraintViolation(result.Error) {
			return domainerrors.NewDatabaseExecuteError(result.Error, "user balance constraint violated")
		}

		return errors.Wrap(result.Error, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

func (repo *userRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update password hash")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}

	return nil
}

// --- Mapper Functions ---

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	user := &entity.User{
		ID:                  data.ID,
		Name:                data.Name,
		PasswordHash:        data.PasswordHash,
		Roles:               entity.SplitRoles(data.Roles),
		CreditBalance:       data.CreditBalance,
		TradingPoints:       data.TradingPoints,
		Level:               data.Level,
		Phone:               data.Phone,
		Address:             data.Address,
		City:                data.City,
		State:               data.State,
		ReferralCode:        data.ReferralCode,
		Banned:              data.Banned,
		BanReason:           data.BanReason,
		Appeal:              data.Appeal,
		HasApprovedUpload:   data.HasApprovedUpload,
		HasPurchased:        data.HasPurchased,
		LastCheckoutToken:   data.LastCheckoutToken,
		LastCheckoutAt:      data.LastCheckoutAt,
		LastCheckoutOrderID: data.LastCheckoutOrderID,
		AnonymisedAt:        data.AnonymisedAt,
		CreatedAt:           data.CreatedAt,
		UpdatedAt:           data.UpdatedAt,
	}
	if data.Email != nil {
		user.Email = *data.Email
	}

	return user
}

// fromUserDomain converts a domain User entity to a GORM UserModel.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	var email *string
	if data.Email != "" {
		normalized := entity.NormalizeEmail(data.Email)
		email = &normalized
	}

	return &model.UserModel{
		ID:                  data.ID,
		Name:                data.Name,
		Email:               email,
		PasswordHash:        data.PasswordHash,
		Roles:               entity.JoinRoles(data.Roles),
		CreditBalance:       data.CreditBalance,
		TradingPoints:       data.TradingPoints,
		Level:               data.Level,
		Phone:               data.Phone,
		Address:             data.Address,
		City:                data.City,
		State:               data.State,
		ReferralCode:        data.ReferralCode,
		Banned:              data.Banned,
		BanReason:           data.BanReason,
		Appeal:              data.Appeal,
		HasApprovedUpload:   data.HasApprovedUpload,
		HasPurchased:        data.HasPurchased,
		LastCheckoutToken:   data.LastCheckoutToken,
		LastCheckoutAt:      data.LastCheckoutAt,
		LastCheckoutOrderID: data.LastCheckoutOrderID,
		AnonymisedAt:        data.AnonymisedAt,
		CreatedAt:           data.CreatedAt,
		UpdatedAt:           data.UpdatedAt,
	}
}
