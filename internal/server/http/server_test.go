package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/and161185/shopkeeper/internal/errs"
	"github.com/and161185/shopkeeper/internal/model"
	"github.com/and161185/shopkeeper/internal/service"
)

/************ in-memory repositories ************/

type memUsers struct {
	mu sync.Mutex
	m  map[string]*model.User
}

func (r *memUsers) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m == nil {
		r.m = map[string]*model.User{}
	}
	if _, ok := r.m[u.Email]; ok {
		return errs.ErrAlreadyExists
	}
	c := *u
	r.m[u.Email] = &c
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.m {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.m[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *memUsers) UpdatePassword(_ context.Context, id uuid.UUID, saltHex, hashHex string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.m {
		if u.ID == id {
			u.PasswordSalt = saltHex
			u.PasswordHash = hashHex
			return nil
		}
	}
	return errs.ErrNotFound
}

type memSessions struct {
	mu   sync.Mutex
	m    map[string]*model.Session
	data map[string]map[string]string
}

func (r *memSessions) init() {
	if r.m == nil {
		r.m = map[string]*model.Session{}
		r.data = map[string]map[string]string{}
	}
}

func (r *memSessions) Replace(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.init()
	for id, old := range r.m {
		if old.UserID == s.UserID {
			delete(r.m, id)
			delete(r.data, id)
		}
	}
	c := *s
	r.m[s.ID] = &c
	return nil
}

func (r *memSessions) Get(_ context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.init()
	s, ok := r.m[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (r *memSessions) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.init()
	delete(r.m, id)
	delete(r.data, id)
	return nil
}

func (r *memSessions) DeleteAllForUser(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.init()
	for id, s := range r.m {
		if s.UserID == userID {
			delete(r.m, id)
			delete(r.data, id)
		}
	}
	return nil
}

func (r *memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.init()
	var n int64
	for id, s := range r.m {
		if s.Expired(now) {
			delete(r.m, id)
			delete(r.data, id)
			n++
		}
	}
	return n, nil
}

func (r *memSessions) GetData(_ context.Context, sessionID, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.init()
	v, ok := r.data[sessionID][key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

func (r *memSessions) SetDataIfAbsent(_ context.Context, sessionID, key, value string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.init()
	if _, ok := r.m[sessionID]; !ok {
		return "", errs.ErrNotFound
	}
	if r.data[sessionID] == nil {
		r.data[sessionID] = map[string]string{}
	}
	if cur, ok := r.data[sessionID][key]; ok {
		return cur, nil
	}
	r.data[sessionID][key] = value
	return value, nil
}

type memCatalog struct {
	mu       sync.Mutex
	products map[int64]*model.Product
	cats     map[int64]*model.Category
	nextP    int64
	nextC    int64
}

func (r *memCatalog) GetProduct(_ context.Context, id int64) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *memCatalog) ListProducts(_ context.Context, categoryID int64) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if categoryID == 0 || p.CategoryID == categoryID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memCatalog) InsertProduct(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.products == nil {
		r.products = map[int64]*model.Product{}
	}
	r.nextP++
	p.ID = r.nextP
	c := *p
	r.products[p.ID] = &c
	return nil
}

func (r *memCatalog) UpdateProduct(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return errs.ErrNotFound
	}
	c := *p
	r.products[p.ID] = &c
	return nil
}

func (r *memCatalog) DeleteProduct(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memCatalog) ListCategories(_ context.Context) ([]model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Category
	for _, c := range r.cats {
		out = append(out, *c)
	}
	return out, nil
}

func (r *memCatalog) InsertCategory(_ context.Context, c *model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cats == nil {
		r.cats = map[int64]*model.Category{}
	}
	r.nextC++
	c.ID = r.nextC
	cc := *c
	r.cats[c.ID] = &cc
	return nil
}

func (r *memCatalog) DeleteCategory(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cats[id]; !ok {
		return errs.ErrNotFound
	}
	for _, p := range r.products {
		if p.CategoryID == id {
			return errs.ErrConflict
		}
	}
	delete(r.cats, id)
	return nil
}

type memOrders struct {
	mu sync.Mutex
	m  map[uuid.UUID]*model.Order
}

func (r *memOrders) Create(_ context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m == nil {
		r.m = map[uuid.UUID]*model.Order{}
	}
	c := *o
	c.Items = append([]model.OrderItem(nil), o.Items...)
	r.m[o.ID] = &c
	return nil
}

func (r *memOrders) Get(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.m[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *o
	c.Items = append([]model.OrderItem(nil), o.Items...)
	return &c, nil
}

func (r *memOrders) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.OrderStatus, ppOrder, ppTxn string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.m[id]
	if !ok {
		return errs.ErrNotFound
	}
	if o.Status != from {
		return errs.ErrConflict
	}
	o.Status = to
	if ppOrder != "" {
		o.PaypalOrderID = ppOrder
	}
	if ppTxn != "" {
		o.PaypalTxnID = ppTxn
	}
	return nil
}

func (r *memOrders) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}

type noopLimiter struct{}

func (noopLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	return true, 0, nil
}
func (noopLimiter) Success(context.Context, string, []byte) error { return nil }
func (noopLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	return false, 0, nil
}

/************ fixture ************/

type fixture struct {
	ts       *httptest.Server
	client   *http.Client
	users    *memUsers
	sessions *memSessions
	catalog  *memCatalog
	orders   *memOrders
	auth     *service.AuthServiceImpl
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := &memUsers{}
	sessions := &memSessions{}
	catalog := &memCatalog{}
	orders := &memOrders{}

	sm := service.NewSessionManager(sessions, 24*time.Hour)
	auth := service.NewAuthService(users, sm, noopLimiter{})
	csrf := service.NewCSRFGuard(sessions)
	cat := service.NewCatalogService(catalog)
	checkout := service.NewCheckoutService(catalog, orders, []byte("test-sign-key"), "USD", "shop@example.com")

	srv := New(auth, sm, csrf, cat, checkout, zap.NewNop(), Config{
		SessionTTL: 24 * time.Hour,
		CSRFTTL:    2 * time.Hour,
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &fixture{
		ts:       ts,
		client:   &http.Client{Jar: jar},
		users:    users,
		sessions: sessions,
		catalog:  catalog,
		orders:   orders,
		auth:     auth,
	}
}

// seedAdmin registers an admin account directly through the repository.
func (f *fixture) seedAdmin(t *testing.T, email, password string) *model.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), email, password)
	require.NoError(t, err)
	f.users.mu.Lock()
	f.users.m[email].IsAdmin = true
	f.users.mu.Unlock()
	u.IsAdmin = true
	return u
}

func (f *fixture) seedProduct(t *testing.T, name string, priceCents int64) *model.Product {
	t.Helper()
	c := &model.Category{Name: name + " category"}
	require.NoError(t, f.catalog.InsertCategory(context.Background(), c))
	p := &model.Product{CategoryID: c.ID, Name: name, PriceCents: priceCents}
	require.NoError(t, f.catalog.InsertProduct(context.Background(), p))
	return p
}

// csrfToken fetches a fresh double-submit token; the cookie lands in the jar.
func (f *fixture) csrfToken(t *testing.T) string {
	t.Helper()
	resp, err := f.client.Get(f.ts.URL + "/api/csrf-token")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Token string `json:"csrf_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func (f *fixture) postJSON(t *testing.T, path, csrf string, payload any) *http.Response {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, f.ts.URL+path, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	resp, err := f.client.Do(req)
	require.NoError(t, err)
	return resp
}

func (f *fixture) getJSON(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := f.client.Get(f.ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

/************ tests ************/

func TestLoginFlow_AdminScenario(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedAdmin(t, "admin@example.com", "adminabc")
	tok := f.csrfToken(t)

	resp := f.postJSON(t, "/api/auth/login", tok, map[string]string{
		"email":    "admin@example.com",
		"password": "adminabc",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Success bool `json:"success"`
		User    struct {
			Email   string `json:"email"`
			IsAdmin bool   `json:"is_admin"`
		} `json:"user"`
	}
	decodeBody(t, resp, &login)
	require.True(t, login.Success)
	require.Equal(t, "admin@example.com", login.User.Email)
	require.True(t, login.User.IsAdmin)

	// session cookie from the jar authenticates the follow-up request
	var me struct {
		Email   string `json:"email"`
		IsAdmin bool   `json:"is_admin"`
	}
	require.Equal(t, http.StatusOK, f.getJSON(t, "/api/auth/user", &me))
	require.Equal(t, "admin@example.com", me.Email)
	require.True(t, me.IsAdmin)
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedAdmin(t, "admin@example.com", "adminabc")
	tok := f.csrfToken(t)

	resp := f.postJSON(t, "/api/auth/login", tok, map[string]string{
		"email":    "admin@example.com",
		"password": "wrong",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, "Invalid email or password", body.Error)

	resp = f.postJSON(t, "/api/auth/login", tok, map[string]string{
		"email": "admin@example.com",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_RequiresCSRF(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedAdmin(t, "admin@example.com", "adminabc")

	// no token issued at all
	resp := f.postJSON(t, "/api/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "adminabc",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// cookie A vs submitted B
	_ = f.csrfToken(t)
	resp = f.postJSON(t, "/api/auth/login", "completely-different-token", map[string]string{
		"email":    "admin@example.com",
		"password": "adminabc",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCSRF_BodyTokenAccepted(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedAdmin(t, "admin@example.com", "adminabc")
	tok := f.csrfToken(t)

	// token in the JSON body instead of the header
	resp := f.postJSON(t, "/api/auth/login", "", map[string]string{
		"email":      "admin@example.com",
		"password":   "adminabc",
		"csrf_token": tok,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCurrentUser_NoSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.Equal(t, http.StatusUnauthorized, f.getJSON(t, "/api/auth/user", nil))
}

func TestLogout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedAdmin(t, "admin@example.com", "adminabc")
	tok := f.csrfToken(t)

	resp := f.postJSON(t, "/api/auth/login", tok, map[string]string{
		"email": "admin@example.com", "password": "adminabc",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.postJSON(t, "/api/auth/logout", tok, map[string]string{})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, http.StatusUnauthorized, f.getJSON(t, "/api/auth/user", nil))
}

func TestChangePassword_InvalidatesOldSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedAdmin(t, "admin@example.com", "adminabc")
	tok := f.csrfToken(t)

	resp := f.postJSON(t, "/api/auth/login", tok, map[string]string{
		"email": "admin@example.com", "password": "adminabc",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// weak new password
	resp = f.postJSON(t, "/api/auth/change-password", tok, map[string]string{
		"currentPassword": "adminabc", "newPassword": "short",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// wrong current password
	resp = f.postJSON(t, "/api/auth/change-password", tok, map[string]string{
		"currentPassword": "nope", "newPassword": "newpassword1",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.postJSON(t, "/api/auth/change-password", tok, map[string]string{
		"currentPassword": "adminabc", "newPassword": "newpassword1",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// replaying the old session cookie is rejected
	require.Equal(t, http.StatusUnauthorized, f.getJSON(t, "/api/auth/user", nil))
}

func TestAdminGate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedAdmin(t, "admin@example.com", "adminabc")
	cat := &model.Category{Name: "Apparel"}
	require.NoError(t, f.catalog.InsertCategory(context.Background(), cat))
	tok := f.csrfToken(t)

	newProduct := map[string]any{"category_id": cat.ID, "name": "Shirt", "price_cents": 1500}

	// anonymous -> 401
	resp := f.postJSON(t, "/api/admin/products", tok, newProduct)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// regular user -> 403
	regResp := f.postJSON(t, "/api/auth/register", tok, map[string]string{
		"email": "user@example.com", "password": "password1",
	})
	regResp.Body.Close()
	require.Equal(t, http.StatusCreated, regResp.StatusCode)
	resp = f.postJSON(t, "/api/auth/login", tok, map[string]string{
		"email": "user@example.com", "password": "password1",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = f.postJSON(t, "/api/admin/products", tok, newProduct)
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// admin -> 201
	resp = f.postJSON(t, "/api/auth/login", tok, map[string]string{
		"email": "admin@example.com", "password": "adminabc",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = f.postJSON(t, "/api/admin/products", tok, newProduct)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created productDTO
	decodeBody(t, resp, &created)
	require.Equal(t, "Shirt", created.Name)
	require.NotZero(t, created.ID)
}

func TestDeleteCategory_ConflictWithProducts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedAdmin(t, "admin@example.com", "adminabc")
	p := f.seedProduct(t, "Mug", 330)
	tok := f.csrfToken(t)

	resp := f.postJSON(t, "/api/auth/login", tok, map[string]string{
		"email": "admin@example.com", "password": "adminabc",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/admin/categories/%d", f.ts.URL, p.CategoryID), nil)
	require.NoError(t, err)
	req.Header.Set("X-CSRF-Token", tok)
	del, err := f.client.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	require.Equal(t, http.StatusConflict, del.StatusCode)
}

func TestCreateOrder_GuestCheckout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.seedProduct(t, "Mug", 330)
	tok := f.csrfToken(t)

	resp := f.postJSON(t, "/api/orders/create", tok, map[string]any{
		"items": []map[string]any{{"pid": p.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body struct {
		OrderID string `json:"orderId"`
		Digest  string `json:"orderDigest"`
		Total   string `json:"total"`
		Items   []orderItemDTO
		Payment []model.PaymentField `json:"payment"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.OrderID)
	require.NotEmpty(t, body.Digest)
	// catalog price 3.30 x 2 = 6.60, whatever the client might have claimed
	require.Equal(t, "6.60", body.Total)

	fields := map[string]string{}
	for _, pf := range body.Payment {
		fields[pf.Name] = pf.Value
	}
	require.Equal(t, "Mug", fields["item_name_1"])
	require.Equal(t, "3.30", fields["amount_1"])
	require.Equal(t, "2", fields["quantity_1"])
	require.Equal(t, 1, f.orders.count())
}

func TestCreateOrder_NoPartialOrders(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.seedProduct(t, "Mug", 330)
	tok := f.csrfToken(t)

	resp := f.postJSON(t, "/api/orders/create", tok, map[string]any{
		"items": []map[string]any{
			{"pid": p.ID, "quantity": 1},
			{"pid": 9999, "quantity": 1},
		},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Zero(t, f.orders.count())
}

func TestCreateOrder_RequiresCSRF(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.seedProduct(t, "Mug", 330)

	resp := f.postJSON(t, "/api/orders/create", "", map[string]any{
		"items": []map[string]any{{"pid": p.ID, "quantity": 1}},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Zero(t, f.orders.count())
}

func TestCreateOrder_V1CartPayload(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.seedProduct(t, "Mug", 330)
	tok := f.csrfToken(t)

	resp := f.postJSON(t, "/api/orders/create", tok, map[string]any{
		"cart_version": 1,
		"items":        map[string]any{"Mug": map[string]any{"id": p.ID, "qty": 3}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body struct {
		Total string `json:"total"`
	}
	decodeBody(t, resp, &body)
	require.Equal(t, "9.90", body.Total)
}

func TestOrderReturn_SettlesOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.seedProduct(t, "Mug", 330)
	tok := f.csrfToken(t)

	resp := f.postJSON(t, "/api/orders/create", tok, map[string]any{
		"items": []map[string]any{{"pid": p.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		OrderID string `json:"orderId"`
		Digest  string `json:"orderDigest"`
	}
	decodeBody(t, resp, &created)

	var settled orderDTO
	status := f.getJSON(t, "/api/orders/return?ref="+created.Digest+"&pp=pp-1&tx=txn-1", &settled)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, string(model.OrderCompleted), settled.Status)

	// forged reference
	require.Equal(t, http.StatusForbidden, f.getJSON(t, "/api/orders/return?ref="+created.Digest+"xx", nil))

	// double settlement
	require.Equal(t, http.StatusConflict, f.getJSON(t, "/api/orders/return?ref="+created.Digest, nil))
}

func TestGetOrder_OwnerOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.seedProduct(t, "Mug", 330)
	tok := f.csrfToken(t)

	// user A places an order
	resp := f.postJSON(t, "/api/auth/register", tok, map[string]string{
		"email": "a@example.com", "password": "password1",
	})
	resp.Body.Close()
	resp = f.postJSON(t, "/api/auth/login", tok, map[string]string{
		"email": "a@example.com", "password": "password1",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.postJSON(t, "/api/orders/create", tok, map[string]any{
		"items": []map[string]any{{"pid": p.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		OrderID string `json:"orderId"`
	}
	decodeBody(t, resp, &created)

	// the owner can read it
	var got orderDTO
	require.Equal(t, http.StatusOK, f.getJSON(t, "/api/orders/"+created.OrderID, &got))
	require.Equal(t, created.OrderID, got.OrderID)

	// user B cannot
	resp = f.postJSON(t, "/api/auth/register", tok, map[string]string{
		"email": "b@example.com", "password": "password1",
	})
	resp.Body.Close()
	resp = f.postJSON(t, "/api/auth/login", tok, map[string]string{
		"email": "b@example.com", "password": "password1",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, http.StatusNotFound, f.getJSON(t, "/api/orders/"+created.OrderID, nil))
}
