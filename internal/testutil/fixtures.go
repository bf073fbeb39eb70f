package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"tradepost/internal/domain/entity"
	"tradepost/internal/infra/persistence/postgres"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SeedUser inserts a regular user with the given balance. Mutators run before insert.
func SeedUser(t testing.TB, db *gorm.DB, balance int64, mutators ...func(*entity.User)) *entity.User {
	t.Helper()

	id := uuid.New()
	user := &entity.User{
		ID:            id,
		Name:          "user " + id.String()[:8],
		Email:         id.String()[:8] + "@example.com",
		PasswordHash:  "x",
		Roles:         entity.Roles{entity.RoleUser},
		CreditBalance: balance,
		Level:         entity.MinLevel,
		ReferralCode:  "R" + id.String()[:7],
	}
	for _, m := range mutators {
		m(user)
	}

	ctx := context.Background()
	require.NoError(t, postgres.NewUserRepository(db).Create(ctx, user))
	if user.CreditBalance != 0 {
		require.NoError(t, postgres.NewLedgerRepository(db).Append(ctx, &entity.LedgerEntry{
			UserID:        user.ID,
			Amount:        user.CreditBalance,
			Kind:          entity.LedgerKindAdminGrant,
			Reason:        "seed",
			BalanceBefore: 0,
			BalanceAfter:  user.CreditBalance,
		}))
	}

	return user
}

// SeedAdmin inserts a user holding the admin role.
func SeedAdmin(t testing.TB, db *gorm.DB) *entity.User {
	t.Helper()

	return SeedUser(t, db, 0, func(u *entity.User) {
		u.Roles = entity.Roles{entity.RoleUser, entity.RoleAdmin}
	})
}

var itemSeq atomic.Int64

// SeedItem inserts an item in a non-sold state. Approved items are listed at the given value.
func SeedItem(t testing.TB, db *gorm.DB, uploader *entity.User, name string, state entity.ItemState, value int64) *entity.Item {
	t.Helper()

	seq := itemSeq.Add(1)
	now := time.Now().UTC()
	item := &entity.Item{
		ID:          uuid.New(),
		ItemNumber:  fmt.Sprintf("TP-20260101-%06d", seq),
		UploaderID:  uploader.ID,
		OwnerID:     uploader.ID,
		Name:        name,
		Description: "a perfectly fine item for testing purposes",
		Condition:   entity.ConditionGood,
		Category:    entity.CategoryElectronics,
		State:       entity.ItemStatePending,
		Images: []*entity.ItemImage{{
			StorageKey:  "items/test/0.jpg",
			URL:         "http://localhost/items/test/0.jpg",
			ContentType: "image/jpeg",
			Width:       100,
			Height:      100,
			ByteSize:    1024,
			Checksum:    "00",
		}},
	}
	if state == entity.ItemStateApproved {
		require.NoError(t, item.Approve(value, now))
	} else {
		item.State = state
	}

	require.NoError(t, postgres.NewItemRepository(db).Create(context.Background(), item))

	return item
}
