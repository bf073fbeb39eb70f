package impl

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"tradepost/config"
	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
	"tradepost/internal/domain/service"
	"tradepost/internal/infra/auth"
	"tradepost/internal/infra/imaging"
	"tradepost/internal/infra/persistence/postgres"
	"tradepost/internal/infra/qrcode"
	"tradepost/internal/infra/storage"
	mocks "tradepost/internal/mocks/service"
	"tradepost/internal/testutil"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
	"gorm.io/gorm"
)

// recordingMailQueue accepts every message and keeps it for inspection.
type recordingMailQueue struct {
	mu   sync.Mutex
	msgs []*service.EmailMessage
}

func (q *recordingMailQueue) Enqueue(msg *service.EmailMessage) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)

	return true
}

func (q *recordingMailQueue) sent() []*service.EmailMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	return append([]*service.EmailMessage(nil), q.msgs...)
}

// deliverAll simulates the transport accepting every queued message.
func (q *recordingMailQueue) deliverAll(ctx context.Context) {
	for _, msg := range q.sent() {
		if msg.OnDelivered != nil {
			msg.OnDelivered(ctx)
		}
	}
}

type testEnv struct {
	db        *gorm.DB
	clock     *testutil.Clock
	mail      *recordingMailQueue
	publisher *mocks.MockJobPublisher
	jobs      []*service.Job
	jobsMu    sync.Mutex

	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	itemRepo     repository.ItemRepository
	ledgerRepo   repository.LedgerRepository
	orderRepo    repository.OrderRepository
	cartRepo     repository.CartRepository
	notifRepo    repository.NotificationRepository
	wishlistRepo repository.WishlistRepository
	referralRepo repository.ReferralRepository
	auditRepo    repository.AuditRepository
	pointsRepo   repository.PointsRepository

	ledger       usecase.LedgerUsecase
	dispatcher   usecase.NotificationDispatcher
	gamification usecase.GamificationUsecase
	referral     usecase.ReferralUsecase
	audit        usecase.AuditUsecase
	items        usecase.ItemUsecase
	moderation   usecase.ModerationUsecase
	cart         usecase.CartUsecase
	checkout     usecase.CheckoutUsecase
	orders       usecase.OrderUsecase
	wishlist     usecase.WishlistUsecase
	matcher      usecase.WishlistMatcher
	accounts     usecase.AccountUsecase
	inbox        usecase.NotificationUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	logger := testutil.NewLogger()
	clock := testutil.NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	cfg := &config.Config{}
	cfg.SecretKey.Access = "test-secret-key-that-is-long-enough-for-hmac"
	cfg.Auth = &config.AuthConfig{BcryptCost: 4, AccessTokenTTL: time.Hour}
	cfg.QRCode = &config.QRCodeConfig{Size: 128, ErrorCorrectionLevel: "M", BaseURL: "https://tradepost.test"}

	env := &testEnv{
		db:           db,
		clock:        clock,
		mail:         &recordingMailQueue{},
		publisher:    mocks.NewMockJobPublisher(t),
		txManager:    postgres.NewTransactionManager(db, logger),
		userRepo:     postgres.NewUserRepository(db),
		itemRepo:     postgres.NewItemRepository(db),
		ledgerRepo:   postgres.NewLedgerRepository(db),
		orderRepo:    postgres.NewOrderRepository(db),
		cartRepo:     postgres.NewCartRepository(db),
		notifRepo:    postgres.NewNotificationRepository(db),
		wishlistRepo: postgres.NewWishlistRepository(db),
		referralRepo: postgres.NewReferralRepository(db),
		auditRepo:    postgres.NewAuditRepository(db),
		pointsRepo:   postgres.NewPointsRepository(db),
	}
	env.publisher.EXPECT().
		PublishJob(mock.Anything, mock.AnythingOfType("*service.Job")).
		Run(func(_ context.Context, job *service.Job) {
			env.jobsMu.Lock()
			defer env.jobsMu.Unlock()
			env.jobs = append(env.jobs, job)
		}).
		Return(nil).
		Maybe()

	qr := qrcode.NewQRCodeService(cfg)
	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	env.ledger = NewLedgerService(LedgerServiceParams{
		UserRepo:   env.userRepo,
		LedgerRepo: env.ledgerRepo,
		Logger:     logger,
	})
	env.dispatcher = NewNotificationDispatcher(NotificationDispatcherParams{
		NotificationRepo: env.notifRepo,
		DeviceRepo:       postgres.NewDeviceRepository(db),
		MailQueue:        env.mail,
		Logger:           logger,
	})
	env.gamification = NewGamificationService(GamificationServiceParams{
		Ledger:     env.ledger,
		Dispatcher: env.dispatcher,
		Logger:     logger,
	})
	env.referral = NewReferralService(ReferralServiceParams{
		UserRepo:     env.userRepo,
		ReferralRepo: env.referralRepo,
		Ledger:       env.ledger,
		Dispatcher:   env.dispatcher,
		QRCode:       qr,
		Clock:        clock,
		Logger:       logger,
	})
	env.audit = NewAuditService(AuditServiceParams{AuditRepo: env.auditRepo, Logger: logger})

	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() { _ = bucket.Close() })
	env.items = NewItemService(ItemServiceParams{
		TxManager: env.txManager,
		ItemRepo:  env.itemRepo,
		Validator: imaging.NewValidator(nil, logger),
		Blobs:     storage.AsBlobStore(storage.NewBlobStore(bucket, "/media")),
		Clock:     clock,
		Logger:    logger,
	})
	env.moderation = NewModerationService(ModerationServiceParams{
		TxManager:    env.txManager,
		Ledger:       env.ledger,
		Gamification: env.gamification,
		Referral:     env.referral,
		Dispatcher:   env.dispatcher,
		Audit:        env.audit,
		Publisher:    env.publisher,
		Clock:        clock,
		Config:       cfg,
		Logger:       logger,
	})
	env.cart = NewCartService(CartServiceParams{
		CartRepo: env.cartRepo,
		ItemRepo: env.itemRepo,
		Clock:    clock,
		Logger:   logger,
	})
	env.checkout = NewCheckoutService(CheckoutServiceParams{
		TxManager:    env.txManager,
		Ledger:       env.ledger,
		Gamification: env.gamification,
		Referral:     env.referral,
		Dispatcher:   env.dispatcher,
		Clock:        clock,
		Logger:       logger,
	})
	env.orders = NewOrderService(OrderServiceParams{
		TxManager:  env.txManager,
		OrderRepo:  env.orderRepo,
		Ledger:     env.ledger,
		Dispatcher: env.dispatcher,
		Audit:      env.audit,
		Clock:      clock,
		Logger:     logger,
	})
	env.wishlist = NewWishlistService(env.wishlistRepo)
	env.matcher = NewWishlistMatcher(WishlistMatcherParams{
		TxManager:    env.txManager,
		ItemRepo:     env.itemRepo,
		WishlistRepo: env.wishlistRepo,
		Dispatcher:   env.dispatcher,
		Clock:        clock,
		Logger:       logger,
	})
	env.accounts = NewAccountService(AccountServiceParams{
		TxManager:    env.txManager,
		UserRepo:     env.userRepo,
		ReferralRepo: env.referralRepo,
		Hasher:       auth.NewBcryptHasher(cfg),
		TokenService: tokens,
		QRCode:       qr,
		Ledger:       env.ledger,
		Referral:     env.referral,
		Dispatcher:   env.dispatcher,
		Audit:        env.audit,
		Clock:        clock,
		Logger:       logger,
	})
	env.inbox = NewNotificationService(env.notifRepo)

	return env
}

func (env *testEnv) publishedJobs() []*service.Job {
	env.jobsMu.Lock()
	defer env.jobsMu.Unlock()

	return append([]*service.Job(nil), env.jobs...)
}

func (env *testEnv) user(t *testing.T, id uuid.UUID) *entity.User {
	t.Helper()

	u, err := env.userRepo.FindByID(context.Background(), id)
	require.NoError(t, err)

	return u
}

func (env *testEnv) item(t *testing.T, id uuid.UUID) *entity.Item {
	t.Helper()

	it, err := env.itemRepo.FindByID(context.Background(), id)
	require.NoError(t, err)

	return it
}

func (env *testEnv) entries(t *testing.T, userID uuid.UUID) []*entity.LedgerEntry {
	t.Helper()

	entries, err := env.ledgerRepo.ListByUser(context.Background(), userID, 100, 0)
	require.NoError(t, err)

	return entries
}

func (env *testEnv) entriesOfKind(t *testing.T, userID uuid.UUID, kind entity.LedgerKind) []*entity.LedgerEntry {
	t.Helper()

	var out []*entity.LedgerEntry
	for _, e := range env.entries(t, userID) {
		if e.Kind == kind {
			out = append(out, e)
		}
	}

	return out
}

func (env *testEnv) notificationsOfKind(t *testing.T, userID uuid.UUID, kind entity.NotificationKind) []*entity.Notification {
	t.Helper()

	all, err := env.notifRepo.ListByUser(context.Background(), userID, false, 100, 0)
	require.NoError(t, err)

	var out []*entity.Notification
	for _, n := range all {
		if n.Kind == kind {
			out = append(out, n)
		}
	}

	return out
}

// requireReconciled asserts that every stored balance equals its ledger sum.
func (env *testEnv) requireReconciled(t *testing.T) {
	t.Helper()

	discrepancies, err := env.ledger.Reconcile(context.Background())
	require.NoError(t, err)
	require.Empty(t, discrepancies)
}

func (env *testEnv) approve(t *testing.T, admin *entity.User, itemID uuid.UUID, value int64) *entity.Item {
	t.Helper()

	item, err := env.moderation.Approve(context.Background(), &usecase.ApproveInput{
		AdminAction: usecase.AdminAction{AdminID: admin.ID, IP: "127.0.0.1"},
		ItemID:      itemID,
		Value:       value,
	})
	require.NoError(t, err)

	return item
}

func (env *testEnv) buy(t *testing.T, buyer *entity.User, token string, itemIDs ...uuid.UUID) *usecase.CheckoutOutput {
	t.Helper()

	ctx := context.Background()
	for _, id := range itemIDs {
		_, err := env.cart.AddItem(ctx, buyer.ID, id)
		require.NoError(t, err)
	}

	out, err := env.checkout.Checkout(ctx, &usecase.CheckoutInput{
		BuyerID:  buyer.ID,
		Delivery: entity.Delivery{Method: entity.DeliveryPickup, Station: "ST-01"},
		Token:    token,
	})
	require.NoError(t, err)

	return out
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}
