package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketplace-gateway/internal/catalogue"
	"marketplace-gateway/internal/domain"
	"marketplace-gateway/internal/pricing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubCartService struct {
	cart       *domain.Cart
	err        error
	getErrs    []error
	lastKey    *uuid.UUID
	lastItem   uuid.UUID
	lastModel  uuid.UUID
	linkedWith int64
	linkErr    error
	calls      []string
}

func (s *stubCartService) result(op string, key *uuid.UUID) (*domain.Cart, error) {
	s.calls = append(s.calls, op)
	s.lastKey = key
	if s.err != nil {
		return nil, s.err
	}
	return s.cart, nil
}

func (s *stubCartService) GetCart(_ context.Context, key *uuid.UUID) (*domain.Cart, error) {
	if len(s.getErrs) > 0 {
		err := s.getErrs[0]
		s.getErrs = s.getErrs[1:]
		if err != nil {
			s.calls = append(s.calls, "get")
			s.lastKey = key
			return nil, err
		}
	}
	return s.result("get", key)
}

func (s *stubCartService) AddItem(_ context.Context, key *uuid.UUID, _ string, pricingModelID uuid.UUID) (*domain.Cart, error) {
	s.lastModel = pricingModelID
	return s.result("add", key)
}

func (s *stubCartService) RemoveItem(_ context.Context, key *uuid.UUID, itemKey uuid.UUID) (*domain.Cart, error) {
	s.lastItem = itemKey
	return s.result("remove", key)
}

func (s *stubCartService) Clear(_ context.Context, key *uuid.UUID) (*domain.Cart, error) {
	return s.result("clear", key)
}

func (s *stubCartService) SetAccount(_ context.Context, key *uuid.UUID, accountID int64) (*domain.Cart, error) {
	s.calls = append(s.calls, "link")
	s.linkedWith = accountID
	if s.linkErr != nil {
		return nil, s.linkErr
	}
	linked := s.cart.Clone()
	linked.AccountID = &accountID
	return linked, nil
}

type stubQuoteService struct {
	models []pricing.Model
	err    error
}

func (s *stubQuoteService) PricingModels(_ context.Context, _ string) ([]pricing.Model, error) {
	return s.models, s.err
}

func (s *stubQuoteService) Quote(_ context.Context, _ string, key uuid.UUID) (pricing.Model, error) {
	if s.err != nil {
		return nil, s.err
	}
	if m, ok := pricing.Find(s.models, key); ok {
		return m, nil
	}
	return nil, fmt.Errorf("model: %w", domain.ErrNotFound)
}

var (
	testModelKey = uuid.MustParse("6f1c2b9e-1111-4000-8000-000000000001")
	testModel    = pricing.ComputeFixed(pricing.Command{
		Key:                    testModelKey,
		Type:                   pricing.KindFixed,
		TotalPriceExcludingTax: decimal.RequireFromString("10.005"),
	}, decimal.NewFromInt(24), "EUR")
)

func testCart() *domain.Cart {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c := &domain.Cart{ID: 1, Key: uuid.New(), Currency: "EUR", CreatedAt: now, ModifiedAt: now}
	item := c.AddOrUpdateItem("asset-1", testModelKey, now)
	item.PricingModel = testModel
	gone := c.AddOrUpdateItem("asset-2", uuid.New(), now).Key
	_ = c.RemoveItem(gone, now)
	return c
}

func newTestRouter(t *testing.T, carts *stubCartService, quotes *stubQuoteService) *gin.Engine {
	t.Helper()
	router, err := buildRouter(nil, PingFunc(func(context.Context) error { return nil }), Deps{CartSvc: carts, QuoteSvc: quotes}, Options{})
	if err != nil {
		t.Fatalf("buildRouter: %v", err)
	}
	gin.SetMode(gin.TestMode)
	return router
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestBuildRouter_RequiresServices(t *testing.T) {
	if _, err := buildRouter(nil, nil, Deps{}, Options{}); err == nil {
		t.Fatalf("expected error for missing services")
	}
}

func TestReadyz(t *testing.T) {
	router, err := buildRouter(nil, PingFunc(func(context.Context) error { return errors.New("down") }),
		Deps{CartSvc: &stubCartService{}, QuoteSvc: &stubQuoteService{}}, Options{})
	if err != nil {
		t.Fatalf("buildRouter: %v", err)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestGetCart_SetsCookieAndTotals(t *testing.T) {
	cart := testCart()
	carts := &stubCartService{cart: cart}
	router := newTestRouter(t, carts, &stubQuoteService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/action/cart", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if carts.lastKey != nil {
		t.Fatalf("expected nil key without cookie, got %v", carts.lastKey)
	}
	cookie := rec.Result().Cookies()
	if len(cookie) != 1 || cookie[0].Name != "cart" || cookie[0].Value != cart.Key.String() || !cookie[0].HttpOnly {
		t.Fatalf("unexpected cookies %+v", cookie)
	}

	body := decode(t, rec)
	result := body["result"].(map[string]interface{})
	if result["totalPrice"] != "12.41" || result["taxTotal"] != "2.4" || result["totalItems"].(float64) != 1 {
		t.Fatalf("unexpected totals %+v", result)
	}
	items := result["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected only the active item, got %d", len(items))
	}
	model := items[0].(map[string]interface{})["pricingModel"].(map[string]interface{})
	if model["type"] != "FIXED" || model["id"] != testModelKey.String() {
		t.Fatalf("unexpected pricing model %+v", model)
	}
}

func TestGetCart_UsesCookie(t *testing.T) {
	cart := testCart()
	carts := &stubCartService{cart: cart}
	router := newTestRouter(t, carts, &stubQuoteService{})

	req := httptest.NewRequest(http.MethodGet, "/action/cart", nil)
	req.AddCookie(&http.Cookie{Name: "cart", Value: cart.Key.String()})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if carts.lastKey == nil || *carts.lastKey != cart.Key {
		t.Fatalf("expected cookie key to be used, got %v", carts.lastKey)
	}
}

func TestGetCart_StaleCookieStartsOver(t *testing.T) {
	carts := &stubCartService{cart: testCart(), getErrs: []error{fmt.Errorf("cart: %w", domain.ErrNotFound)}}
	router := newTestRouter(t, carts, &stubQuoteService{})

	req := httptest.NewRequest(http.MethodGet, "/action/cart", nil)
	req.AddCookie(&http.Cookie{Name: "cart", Value: uuid.NewString()})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(carts.calls) != 2 || carts.lastKey != nil {
		t.Fatalf("expected retry without key, calls=%v key=%v", carts.calls, carts.lastKey)
	}
}

func TestAddItem_LinksAccountFromHeader(t *testing.T) {
	carts := &stubCartService{cart: testCart()}
	router := newTestRouter(t, carts, &stubQuoteService{})

	body := fmt.Sprintf(`{"productId":"asset-1","pricingModelId":%q}`, testModelKey)
	req := httptest.NewRequest(http.MethodPost, "/action/cart", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(accountHeader, "42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if carts.lastModel != testModelKey || carts.linkedWith != 42 {
		t.Fatalf("unexpected calls model=%s linked=%d", carts.lastModel, carts.linkedWith)
	}
}

func TestAddItem_BadBody(t *testing.T) {
	router := newTestRouter(t, &stubCartService{cart: testCart()}, &stubQuoteService{})

	req := httptest.NewRequest(http.MethodPost, "/action/cart", strings.NewReader(`{"pricingModelId":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRemoveItem(t *testing.T) {
	carts := &stubCartService{cart: testCart()}
	router := newTestRouter(t, carts, &stubQuoteService{})
	itemKey := uuid.New()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/action/cart/"+itemKey.String(), nil))
	if rec.Code != http.StatusOK || carts.lastItem != itemKey {
		t.Fatalf("expected removal of %s, got %d item=%s", itemKey, rec.Code, carts.lastItem)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/action/cart/not-a-key", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed key, got %d", rec.Code)
	}
}

func TestClearCart(t *testing.T) {
	carts := &stubCartService{cart: testCart()}
	router := newTestRouter(t, carts, &stubQuoteService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/action/cart", nil))
	if rec.Code != http.StatusOK || carts.calls[0] != "clear" {
		t.Fatalf("expected clear, got %d %v", rec.Code, carts.calls)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("cart: %w", domain.ErrNotFound), http.StatusNotFound, "NotFound"},
		{"already linked", fmt.Errorf("cart: %w", domain.ErrAlreadyLinked), http.StatusConflict, "AlreadyLinked"},
		{"validation", fmt.Errorf("%w: product id required", domain.ErrValidation), http.StatusBadRequest, "ValidationFailure"},
		{"invalid pricing", fmt.Errorf("item: %w", pricing.ErrInvalidCommand), http.StatusBadRequest, "ValidationFailure"},
		{"catalogue down", fmt.Errorf("%w: status 503", catalogue.ErrUnavailable), http.StatusBadGateway, "CatalogueUnavailable"},
		{"storage", domain.StorageFailure("update cart", errors.New("timeout")), http.StatusInternalServerError, "InternalError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &stubCartService{err: tt.err}, &stubQuoteService{})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/action/cart", nil))

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			body := decode(t, rec)
			if body["success"] != false {
				t.Fatalf("expected success=false, got %v", body["success"])
			}
			msg := body["messages"].([]interface{})[0].(map[string]interface{})
			if msg["code"] != tt.code {
				t.Fatalf("expected code %s, got %v", tt.code, msg["code"])
			}
		})
	}
}

func TestLinkFailureIsReported(t *testing.T) {
	carts := &stubCartService{cart: testCart(), linkErr: fmt.Errorf("account 9: %w", domain.ErrNotFound)}
	router := newTestRouter(t, carts, &stubQuoteService{})

	req := httptest.NewRequest(http.MethodGet, "/action/cart", nil)
	req.Header.Set(accountHeader, "9")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestLinkFailureKeepsNewCartReachable(t *testing.T) {
	carts := &stubCartService{cart: testCart(), linkErr: fmt.Errorf("account 999: %w", domain.ErrNotFound)}
	router := newTestRouter(t, carts, &stubQuoteService{})

	body := fmt.Sprintf(`{"productId":"asset-1","pricingModelId":%q}`, testModelKey)
	req := httptest.NewRequest(http.MethodPost, "/action/cart", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(accountHeader, "999")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if strings.Join(carts.calls, ",") != "add,link" {
		t.Fatalf("expected add then link, got %v", carts.calls)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "cart" || cookies[0].Value != carts.cart.Key.String() {
		t.Fatalf("expected cart cookie with key %s, got %+v", carts.cart.Key, cookies)
	}
}

func TestPricingModels(t *testing.T) {
	router := newTestRouter(t, &stubCartService{}, &stubQuoteService{models: []pricing.Model{testModel}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/action/catalogue/asset-1/pricing-models", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := decode(t, rec)["result"].([]interface{})
	if len(result) != 1 || result[0].(map[string]interface{})["totalPrice"] != "12.41" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestQuotation(t *testing.T) {
	router := newTestRouter(t, &stubCartService{}, &stubQuoteService{models: []pricing.Model{testModel}})

	body := fmt.Sprintf(`{"assetId":"asset-1","pricingModelKey":%q}`, testModelKey)
	req := httptest.NewRequest(http.MethodPost, "/action/quotation", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/action/quotation", strings.NewReader(fmt.Sprintf(`{"assetId":"asset-1","pricingModelKey":%q}`, uuid.New())))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown model, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/action/quotation", strings.NewReader(`{"assetId":""}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", rec.Code)
	}
}
