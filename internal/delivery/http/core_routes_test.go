package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"tradepost/internal/delivery/http/router"
	"tradepost/internal/delivery/http/router/handler"
	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/infra/imaging"
	"tradepost/internal/infra/persistence/postgres"
	"tradepost/internal/infra/storage"
	"tradepost/internal/testutil"
	"tradepost/internal/usecase"
	"tradepost/internal/usecase/impl"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
	"gorm.io/gorm"
)

type recordingModeration struct {
	approved *usecase.ApproveInput
	rejected *usecase.RejectInput
}

func (m *recordingModeration) Approve(_ context.Context, input *usecase.ApproveInput) (*entity.Item, error) {
	m.approved = input

	return &entity.Item{ID: input.ItemID, State: entity.ItemStateApproved, AppraisedValue: input.Value}, nil
}

func (m *recordingModeration) Reject(_ context.Context, input *usecase.RejectInput) (*entity.Item, error) {
	m.rejected = input

	return &entity.Item{ID: input.ItemID, State: entity.ItemStateRejected, RejectionReason: input.Reason}, nil
}

type recordingCart struct {
	gone  uuid.UUID
	added []uuid.UUID
}

func (c *recordingCart) AddItem(_ context.Context, userID, itemID uuid.UUID) (*entity.Cart, error) {
	if itemID == c.gone {
		return nil, domainerrors.NewItemNotAvailableError(itemID)
	}
	c.added = append(c.added, itemID)
	item := &entity.Item{ID: itemID, Name: "Lamp", State: entity.ItemStateApproved, AppraisedValue: 40}

	return &entity.Cart{UserID: userID, Items: []*entity.CartItem{{UserID: userID, ItemID: itemID, Item: item}}, Total: 40}, nil
}

func (c *recordingCart) RemoveItem(_ context.Context, userID, _ uuid.UUID) (*entity.Cart, error) {
	return &entity.Cart{UserID: userID}, nil
}

func (c *recordingCart) GetCart(_ context.Context, userID uuid.UUID) (*entity.Cart, error) {
	return &entity.Cart{UserID: userID}, nil
}

type recordingCheckout struct {
	mu     sync.Mutex
	inputs []*usecase.CheckoutInput
	orders map[string]uuid.UUID
}

func (c *recordingCheckout) Checkout(_ context.Context, input *usecase.CheckoutInput) (*usecase.CheckoutOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inputs = append(c.inputs, input)
	if id, ok := c.orders[input.Token]; ok {
		return &usecase.CheckoutOutput{OrderID: id, Replayed: true}, nil
	}
	if c.orders == nil {
		c.orders = map[string]uuid.UUID{}
	}
	c.orders[input.Token] = uuid.New()

	return &usecase.CheckoutOutput{OrderID: c.orders[input.Token]}, nil
}

type recordingWishlist struct {
	input *usecase.SubscribeInput
}

func (w *recordingWishlist) Subscribe(_ context.Context, input *usecase.SubscribeInput) (*entity.WishlistSubscription, error) {
	w.input = input
	kind, target := entity.SubscriptionKindItemName, input.ItemName
	if input.SearchType == usecase.WishlistSearchCategory {
		kind, target = entity.SubscriptionKindCategory, input.Category
	}

	return &entity.WishlistSubscription{
		ID:          uuid.New(),
		UserID:      input.UserID,
		Kind:        kind,
		Target:      target,
		Active:      true,
		NotifyEmail: input.NotifyViaEmail,
		NotifyApp:   input.NotifyViaApp,
	}, nil
}

func (w *recordingWishlist) ListSubscriptions(context.Context, uuid.UUID) ([]*entity.WishlistSubscription, error) {
	return nil, nil
}

func (w *recordingWishlist) Deactivate(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

type coreServer struct {
	*testServer
	db         *gorm.DB
	moderation *recordingModeration
	cart       *recordingCart
	checkout   *recordingCheckout
	wishlist   *recordingWishlist
}

// newCoreServer backs uploads with the real item service on SQLite and records
// what the other marketplace endpoints pass to their use cases.
func newCoreServer(t *testing.T) *coreServer {
	t.Helper()

	logger := testutil.NewLogger()
	db := testutil.NewTestDB(t)
	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() { _ = bucket.Close() })
	blobs := storage.NewBlobStore(bucket, "/media")

	items := impl.NewItemService(impl.ItemServiceParams{
		TxManager: postgres.NewTransactionManager(db, logger),
		ItemRepo:  postgres.NewItemRepository(db),
		Validator: imaging.NewValidator(nil, logger),
		Blobs:     storage.AsBlobStore(blobs),
		Clock:     testutil.NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		Logger:    logger,
	})

	cs := &coreServer{
		db:         db,
		moderation: &recordingModeration{},
		cart:       &recordingCart{gone: uuid.New()},
		checkout:   &recordingCheckout{},
		wishlist:   &recordingWishlist{},
	}
	cs.testServer = newTestServer(t, func(p *router.RouterParams) {
		p.ItemHandler = handler.NewItemHandler(handler.ItemHandlerParams{ItemUC: items, Blobs: blobs, Logger: logger})
		p.AdminHandler = handler.NewAdminHandler(handler.AdminHandlerParams{ModerationUC: cs.moderation, ItemUC: items, Logger: logger})
		p.CartHandler = handler.NewCartHandler(handler.CartHandlerParams{CartUC: cs.cart, CheckoutUC: cs.checkout, Logger: logger})
		p.WishlistHandler = handler.NewWishlistHandler(handler.WishlistHandlerParams{WishlistUC: cs.wishlist, Logger: logger})
	})

	return cs
}

func (s *coreServer) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	return rec
}

func (s *coreServer) postForm(target, token string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	return s.send(req, token)
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 64, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func uploadRequest(t *testing.T, fields map[string]string, images int) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	data := pngImage(t, 80, 80)
	for i := range images {
		part, err := mw.CreateFormFile("images", fmt.Sprintf("photo-%d.png", i))
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/items/upload", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())

	return req
}

func dataOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	return envelope.Data
}

func TestCoreRoutes_UploadItem(t *testing.T) {
	srv := newCoreServer(t)
	uploader := testutil.SeedUser(t, srv.db, 0)
	token := srv.tokenFor(t, uploader.ID, entity.RoleUser)

	fields := map[string]string{
		"name":        "Desk lamp",
		"description": "Brass desk lamp with a new cable and warm bulb.",
		"condition":   "good",
		"category":    "home",
	}

	t.Run("pending item from multipart form", func(t *testing.T) {
		rec := srv.send(uploadRequest(t, fields, 2), token)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		data := dataOf(t, rec)
		assert.Equal(t, "Desk lamp", data["name"])
		assert.Equal(t, string(entity.ItemStatePending), data["state"])
		assert.Equal(t, uploader.ID.String(), data["uploader_id"])
		assert.Len(t, data["images"], 2)
	})

	for _, n := range []int{0, 7} {
		t.Run(fmt.Sprintf("%d images", n), func(t *testing.T) {
			rec := srv.send(uploadRequest(t, fields, n), token)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeEnvelope(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
			assert.Contains(t, resp.Error.Details, "images")
		})
	}

	t.Run("anonymous", func(t *testing.T) {
		rec := srv.send(uploadRequest(t, fields, 1), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCoreRoutes_ApproveAndReject(t *testing.T) {
	srv := newCoreServer(t)
	adminID := uuid.New()
	admin := srv.tokenFor(t, adminID, entity.RoleUser, entity.RoleAdmin)
	itemID := uuid.New()

	rec := srv.postForm("/admin/items/"+itemID.String()+"/approve", admin, url.Values{"value": {"150"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, srv.moderation.approved)
	assert.Equal(t, itemID, srv.moderation.approved.ItemID)
	assert.Equal(t, int64(150), srv.moderation.approved.Value)
	assert.Equal(t, adminID, srv.moderation.approved.AdminID)
	assert.NotEmpty(t, srv.moderation.approved.IP)
	assert.InDelta(t, 150, dataOf(t, rec)["appraised_value"], 0)

	srv.moderation.approved = nil
	rec = srv.postForm("/admin/items/"+itemID.String()+"/approve", admin, url.Values{"value": {"lots"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "value", decodeEnvelope(t, rec).Error.Details)
	assert.Nil(t, srv.moderation.approved)

	rec = srv.postForm("/admin/items/"+itemID.String()+"/reject", admin, url.Values{"reason": {"blurry photos"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, srv.moderation.rejected)
	assert.Equal(t, "blurry photos", srv.moderation.rejected.Reason)
	assert.Equal(t, "blurry photos", dataOf(t, rec)["rejection_reason"])

	rec = srv.postForm("/admin/items/"+itemID.String()+"/approve", srv.token(t, entity.RoleUser), url.Values{"value": {"10"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCoreRoutes_AddToCart(t *testing.T) {
	srv := newCoreServer(t)
	token := srv.token(t, entity.RoleUser)
	itemID := uuid.New()

	rec := srv.do(http.MethodPost, "/cart/add/"+itemID.String(), token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []uuid.UUID{itemID}, srv.cart.added)
	assert.InDelta(t, 40, dataOf(t, rec)["total"], 0)

	rec = srv.do(http.MethodPost, "/cart/add/"+srv.cart.gone.String(), token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ITEM_NOT_AVAILABLE", resp.Error.Code)
	assert.Equal(t, srv.cart.gone.String(), resp.Error.Details)
}

func TestCoreRoutes_CheckoutFormAndReplay(t *testing.T) {
	srv := newCoreServer(t)
	buyerID := uuid.New()
	token := srv.tokenFor(t, buyerID, entity.RoleUser)

	form := url.Values{
		"delivery_method": {"pickup"},
		"station_id":      {"ST-04"},
		"token":           {"nonce-1"},
	}
	first := srv.postForm("/checkout", token, form)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	require.Len(t, srv.checkout.inputs, 1)
	input := srv.checkout.inputs[0]
	assert.Equal(t, buyerID, input.BuyerID)
	assert.Equal(t, entity.DeliveryPickup, input.Delivery.Method)
	assert.Equal(t, "ST-04", input.Delivery.Station)
	assert.Equal(t, "nonce-1", input.Token)

	replay := srv.postForm("/checkout", token, form)
	require.Equal(t, http.StatusOK, replay.Code)
	assert.Equal(t, dataOf(t, first)["order_id"], dataOf(t, replay)["order_id"])
	assert.Equal(t, true, dataOf(t, replay)["replayed"])

	home := srv.postForm("/checkout", token, url.Values{
		"delivery_method": {"home"},
		"address":         {"12 Harbour Road, Flat 3"},
		"token":           {"nonce-2"},
	})
	require.Equal(t, http.StatusCreated, home.Code)
	require.Len(t, srv.checkout.inputs, 3)
	assert.Equal(t, entity.DeliveryHome, srv.checkout.inputs[2].Delivery.Method)
	assert.Equal(t, "12 Harbour Road, Flat 3", srv.checkout.inputs[2].Delivery.Address)
}

func TestCoreRoutes_WishlistAdd(t *testing.T) {
	srv := newCoreServer(t)
	userID := uuid.New()
	token := srv.tokenFor(t, userID, entity.RoleUser)

	rec := srv.do(http.MethodPost, "/wishlist/add", token,
		`{"search_type":"item","item_name":"nintendo switch","notify_via_email":true,"notify_via_app":false}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, srv.wishlist.input)
	assert.Equal(t, usecase.SubscribeInput{
		UserID:         userID,
		SearchType:     "item",
		ItemName:       "nintendo switch",
		NotifyViaEmail: true,
	}, *srv.wishlist.input)
	data := dataOf(t, rec)
	assert.Equal(t, string(entity.SubscriptionKindItemName), data["kind"])
	assert.Equal(t, true, data["notify_via_email"])

	rec = srv.do(http.MethodPost, "/wishlist/add", token,
		`{"search_type":"category","category":"electronics","notify_via_app":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "electronics", srv.wishlist.input.Category)
	assert.True(t, srv.wishlist.input.NotifyViaApp)

	rec = srv.do(http.MethodPost, "/wishlist/add", token, `{"search_type":"price"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "search_type", decodeEnvelope(t, rec).Error.Details)
}
