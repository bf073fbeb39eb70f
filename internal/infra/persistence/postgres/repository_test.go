package postgres_test

import (
	"context"
	"testing"
	"time"

	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/infra/persistence/postgres"
	"tradepost/internal/testutil"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemRepository_ListListed_OnlyVisibleItems(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	seller := testutil.SeedUser(t, db, 0)

	listed := testutil.SeedItem(t, db, seller, "listed lamp", entity.ItemStateApproved, 50)
	testutil.SeedItem(t, db, seller, "pending lamp", entity.ItemStatePending, 0)
	testutil.SeedItem(t, db, seller, "withdrawn lamp", entity.ItemStateWithdrawn, 0)

	items, total, err := postgres.NewItemRepository(db).ListListed(ctx, repository.ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, listed.ID, items[0].ID)
	require.Len(t, items[0].Images, 1)
}

func TestItemRepository_Update_CheckConstraintRejectsInconsistentRow(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	seller := testutil.SeedUser(t, db, 0)
	item := testutil.SeedItem(t, db, seller, "desk", entity.ItemStateApproved, 40)

	// Sold to its own uploader is not a representable row.
	item.State = entity.ItemStateSold
	item.IsVisible = false

	err := postgres.NewItemRepository(db).Update(ctx, item)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidStateTransition))
}

func TestItemRepository_Create_DuplicateNumber(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	seller := testutil.SeedUser(t, db, 0)
	first := testutil.SeedItem(t, db, seller, "chair", entity.ItemStatePending, 0)

	dup := &entity.Item{
		ItemNumber:  first.ItemNumber,
		UploaderID:  seller.ID,
		OwnerID:     seller.ID,
		Name:        "chair two",
		Description: "another chair with the same number",
		Condition:   entity.ConditionFair,
		Category:    entity.CategoryHome,
		State:       entity.ItemStatePending,
	}
	err := postgres.NewItemRepository(db).Create(ctx, dup)
	assert.True(t, errors.Is(err, domainerrors.ErrConflict))
}

func TestLedgerRepository_FindDiscrepancies(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	consistent := testutil.SeedUser(t, db, 100)
	drifted := testutil.SeedUser(t, db, 100)

	users := postgres.NewUserRepository(db)
	drifted.CreditBalance = 130
	require.NoError(t, users.Update(ctx, drifted))

	ledger := postgres.NewLedgerRepository(db)
	sum, err := ledger.SumByUser(ctx, consistent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), sum)

	rows, err := ledger.FindDiscrepancies(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, drifted.ID, rows[0].UserID)
	assert.Equal(t, int64(130), rows[0].Balance)
	assert.Equal(t, int64(100), rows[0].LedgerSum)
}

func TestCartRepository_AddIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	seller := testutil.SeedUser(t, db, 0)
	buyer := testutil.SeedUser(t, db, 0)
	item := testutil.SeedItem(t, db, seller, "kettle", entity.ItemStateApproved, 25)

	carts := postgres.NewCartRepository(db)
	added, err := carts.Add(ctx, &entity.CartItem{UserID: buyer.ID, ItemID: item.ID, AddedAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = carts.Add(ctx, &entity.CartItem{UserID: buyer.ID, ItemID: item.ID, AddedAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.False(t, added)

	items, err := carts.ListByUser(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Item)
	assert.Equal(t, "kettle", items[0].Item.Name)

	require.NoError(t, carts.Remove(ctx, buyer.ID, item.ID))
	items, err = carts.ListByUser(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestWishlistRepository_InsertMatchIfAbsent(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	seller := testutil.SeedUser(t, db, 0)
	watcher := testutil.SeedUser(t, db, 0)
	item := testutil.SeedItem(t, db, seller, "camera", entity.ItemStateApproved, 90)

	repo := postgres.NewWishlistRepository(db)
	sub := &entity.WishlistSubscription{
		UserID: watcher.ID, Kind: entity.SubscriptionKindItemName, Target: "camera",
		Active: true, NotifyApp: true,
	}
	require.NoError(t, repo.CreateSubscription(ctx, sub))

	created, err := repo.InsertMatchIfAbsent(ctx, &entity.WishlistMatch{SubscriptionID: sub.ID, ItemID: item.ID})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.InsertMatchIfAbsent(ctx, &entity.WishlistMatch{SubscriptionID: sub.ID, ItemID: item.ID})
	require.NoError(t, err)
	assert.False(t, created)

	count, err := repo.CountMatchesByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNotificationRepository_ReadFlow(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, db, 0)
	other := testutil.SeedUser(t, db, 0)

	repo := postgres.NewNotificationRepository(db)
	n := &entity.Notification{
		UserID: user.ID, Kind: entity.NotificationOrderPlaced, Category: entity.NotificationCategoryOrder,
		Priority: entity.NotificationPriorityNormal, Message: "order placed",
		Payload: map[string]any{"order_id": "abc"},
	}
	require.NoError(t, repo.Create(ctx, n))
	require.NoError(t, repo.Create(ctx, &entity.Notification{
		UserID: user.ID, Kind: entity.NotificationLevelUp, Category: entity.NotificationCategoryGamification,
		Priority: entity.NotificationPriorityHigh, Message: "level up",
	}))

	unread, err := repo.CountUnread(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	err = repo.MarkRead(ctx, other.ID, n.ID)
	assert.True(t, errors.Is(err, domainerrors.ErrNotificationNotFound))

	require.NoError(t, repo.MarkRead(ctx, user.ID, n.ID))
	require.NoError(t, repo.MarkRead(ctx, user.ID, n.ID))

	changed, err := repo.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	list, err := repo.ListByUser(ctx, user.ID, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, got := range list {
		assert.True(t, got.Read)
		if got.ID == n.ID {
			assert.Equal(t, "abc", got.Payload["order_id"])
		}
	}

	pref, err := repo.FindPreference(ctx, user.ID, entity.NotificationOrderPlaced)
	require.NoError(t, err)
	assert.Nil(t, pref)

	require.NoError(t, repo.UpsertPreference(ctx, &entity.NotificationPreference{UserID: user.ID, Kind: entity.NotificationOrderPlaced, EmailEnabled: false}))
	require.NoError(t, repo.UpsertPreference(ctx, &entity.NotificationPreference{UserID: user.ID, Kind: entity.NotificationOrderPlaced, EmailEnabled: true}))
	pref, err = repo.FindPreference(ctx, user.ID, entity.NotificationOrderPlaced)
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.True(t, pref.EmailEnabled)
}

func TestReferralRepository_OneReferrerPerUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	a := testutil.SeedUser(t, db, 0)
	b := testutil.SeedUser(t, db, 0)
	c := testutil.SeedUser(t, db, 0)

	repo := postgres.NewReferralRepository(db)
	require.NoError(t, repo.Create(ctx, &entity.Referral{ReferrerID: a.ID, ReferredID: c.ID}))

	err := repo.Create(ctx, &entity.Referral{ReferrerID: b.ID, ReferredID: c.ID})
	assert.True(t, errors.Is(err, domainerrors.ErrConflict))

	ref, err := repo.FindByReferredForUpdate(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, a.ID, ref.ReferrerID)

	none, err := repo.FindByReferredForUpdate(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestTransactionManager_AfterCommitHooks(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	tm := postgres.NewTransactionManager(db, testutil.NewLogger())

	var order []string
	err := tm.Execute(ctx, func(f repository.RepositoryFactory) error {
		f.AfterCommit(func(context.Context) error {
			order = append(order, "first")

			return errors.New("logged and ignored")
		})
		f.AfterCommit(func(context.Context) error {
			order = append(order, "second")

			panic("hook blew up")
		})
		f.AfterCommit(func(context.Context) error {
			order = append(order, "third")

			return nil
		})

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestTransactionManager_PanickingHookKeepsCommit(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	tm := postgres.NewTransactionManager(db, testutil.NewLogger())

	user := &entity.User{
		Name: "kept", Email: "kept@example.com", Roles: entity.Roles{entity.RoleUser},
		Level: entity.MinLevel, ReferralCode: "KEPT0001",
	}
	require.NotPanics(t, func() {
		err := tm.Execute(ctx, func(f repository.RepositoryFactory) error {
			if err := f.UserRepo().Create(ctx, user); err != nil {
				return err
			}
			f.AfterCommit(func(context.Context) error { panic("after commit") })

			return nil
		})
		require.NoError(t, err)
	})

	stored, err := postgres.NewUserRepository(db).FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept@example.com", stored.Email)
}

func TestTransactionManager_RollbackSkipsHooks(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	tm := postgres.NewTransactionManager(db, testutil.NewLogger())

	ran := false
	var userID uuid.UUID
	err := tm.Execute(ctx, func(f repository.RepositoryFactory) error {
		user := &entity.User{
			Name: "ghost", Email: "ghost@example.com", Roles: entity.Roles{entity.RoleUser},
			Level: entity.MinLevel, ReferralCode: "GHOST001",
		}
		if err := f.UserRepo().Create(ctx, user); err != nil {
			return err
		}
		userID = user.ID
		f.AfterCommit(func(context.Context) error {
			ran = true

			return nil
		})

		return domainerrors.ErrInternalError
	})
	require.Error(t, err)
	assert.False(t, ran)

	_, err = postgres.NewUserRepository(db).FindByID(ctx, userID)
	assert.True(t, errors.Is(err, domainerrors.ErrUserNotFound))
}
