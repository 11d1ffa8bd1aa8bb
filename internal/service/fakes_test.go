package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/shopkeeper/internal/errs"
	"github.com/and161185/shopkeeper/internal/model"
	"github.com/and161185/shopkeeper/internal/repository"
)

// In-memory fakes shared by the service tests.

type fakeUsers struct {
	byEmail map[string]*model.User

	createErr error
	getErr    error
	updErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byEmail == nil {
		f.byEmail = map[string]*model.User{}
	}
	if _, exists := f.byEmail[u.Email]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *u
	f.byEmail[u.Email] = &cpy
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, saltHex, hashHex string) error {
	if f.updErr != nil {
		return f.updErr
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			u.PasswordSalt = saltHex
			u.PasswordHash = hashHex
			return nil
		}
	}
	return errs.ErrNotFound
}

type fakeSessions struct {
	byID map[string]*model.Session
	data map[string]map[string]string

	replaceErr error
	getErr     error
}

var _ repository.SessionRepository = (*fakeSessions)(nil)

func (f *fakeSessions) init() {
	if f.byID == nil {
		f.byID = map[string]*model.Session{}
	}
	if f.data == nil {
		f.data = map[string]map[string]string{}
	}
}

func (f *fakeSessions) Replace(_ context.Context, s *model.Session) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.init()
	for id, old := range f.byID {
		if old.UserID == s.UserID {
			delete(f.byID, id)
			delete(f.data, id)
		}
	}
	cpy := *s
	f.byID[s.ID] = &cpy
	return nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (*model.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.init()
	s, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.init()
	delete(f.byID, id)
	delete(f.data, id)
	return nil
}

func (f *fakeSessions) DeleteAllForUser(_ context.Context, userID uuid.UUID) error {
	f.init()
	for id, s := range f.byID {
		if s.UserID == userID {
			delete(f.byID, id)
			delete(f.data, id)
		}
	}
	return nil
}

func (f *fakeSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.init()
	var n int64
	for id, s := range f.byID {
		if s.Expired(now) {
			delete(f.byID, id)
			delete(f.data, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) GetData(_ context.Context, sessionID, key string) (string, error) {
	f.init()
	v, ok := f.data[sessionID][key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

func (f *fakeSessions) SetDataIfAbsent(_ context.Context, sessionID, key, value string) (string, error) {
	f.init()
	if _, ok := f.byID[sessionID]; !ok {
		return "", errs.ErrNotFound
	}
	m := f.data[sessionID]
	if m == nil {
		m = map[string]string{}
		f.data[sessionID] = m
	}
	if cur, ok := m[key]; ok {
		return cur, nil
	}
	m[key] = value
	return value, nil
}

func (f *fakeSessions) countForUser(userID uuid.UUID) int {
	n := 0
	for _, s := range f.byID {
		if s.UserID == userID {
			n++
		}
	}
	return n
}

type fakeCatalog struct {
	products map[int64]*model.Product
	getErr   error
}

var _ repository.CatalogRepository = (*fakeCatalog)(nil)

func (f *fakeCatalog) GetProduct(_ context.Context, id int64) (*model.Product, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.products[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakeCatalog) ListProducts(_ context.Context, categoryID int64) ([]model.Product, error) {
	var out []model.Product
	for _, p := range f.products {
		if categoryID == 0 || p.CategoryID == categoryID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) InsertProduct(_ context.Context, p *model.Product) error {
	if f.products == nil {
		f.products = map[int64]*model.Product{}
	}
	p.ID = int64(len(f.products) + 1)
	c := *p
	f.products[p.ID] = &c
	return nil
}

func (f *fakeCatalog) UpdateProduct(_ context.Context, p *model.Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return errs.ErrNotFound
	}
	c := *p
	f.products[p.ID] = &c
	return nil
}

func (f *fakeCatalog) DeleteProduct(_ context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeCatalog) ListCategories(_ context.Context) ([]model.Category, error) { return nil, nil }
func (f *fakeCatalog) InsertCategory(_ context.Context, c *model.Category) error {
	c.ID = 1
	return nil
}
func (f *fakeCatalog) DeleteCategory(_ context.Context, id int64) error { return nil }

type fakeOrders struct {
	byID map[uuid.UUID]*model.Order

	createErr error
}

var _ repository.OrderRepository = (*fakeOrders)(nil)

func (f *fakeOrders) Create(_ context.Context, o *model.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byID == nil {
		f.byID = map[uuid.UUID]*model.Order{}
	}
	cpy := *o
	cpy.Items = append([]model.OrderItem(nil), o.Items...)
	f.byID[o.ID] = &cpy
	return nil
}

func (f *fakeOrders) Get(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *o
	c.Items = append([]model.OrderItem(nil), o.Items...)
	return &c, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.OrderStatus, paypalOrderID, paypalTxnID string) error {
	o, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	if o.Status != from {
		return errs.ErrConflict
	}
	o.Status = to
	if paypalOrderID != "" {
		o.PaypalOrderID = paypalOrderID
	}
	if paypalTxnID != "" {
		o.PaypalTxnID = paypalTxnID
	}
	return nil
}

type fakeLimiter struct {
	allowOK    bool
	allowErr   error
	blockNext  bool
	failures   int
	successes  int
}

func (f *fakeLimiter) Allow(_ context.Context, _ string, _ []byte) (bool, time.Duration, error) {
	return f.allowOK, 0, f.allowErr
}

func (f *fakeLimiter) Success(_ context.Context, _ string, _ []byte) error {
	f.successes++
	return nil
}

func (f *fakeLimiter) Failure(_ context.Context, _ string, _ []byte) (bool, time.Duration, error) {
	f.failures++
	return f.blockNext, 0, nil
}
