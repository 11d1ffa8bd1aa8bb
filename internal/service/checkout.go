package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/shopkeeper/internal/errs"
	"github.com/and161185/shopkeeper/internal/model"
	"github.com/and161185/shopkeeper/internal/repository"
)

// CheckoutResult is everything the browser needs to hand off to the payment
// processor: the persisted order, a signed reference for the return step and
// the hidden form fields in processor shape.
type CheckoutResult struct {
	Order         *model.Order
	Ref           string
	PaymentFields []model.PaymentField
}

// CheckoutService turns client cart lines into persisted orders and settles
// payment-return callbacks.
type CheckoutService interface {
	// Create re-prices the lines against the catalog and persists the order
	// in CREATED state. Any unknown product or bad quantity aborts the whole
	// checkout; no partial orders.
	Create(ctx context.Context, userID *uuid.UUID, lines []model.CartLine) (*CheckoutResult, error)
	// Get loads an order with items.
	Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// Complete verifies a signed reference and transitions
	// CREATED -> COMPLETED, recording processor references.
	Complete(ctx context.Context, ref, paypalOrderID, paypalTxnID string) (*model.Order, error)
	// Cancel verifies a signed reference and transitions CREATED -> FAILED.
	Cancel(ctx context.Context, ref string) (*model.Order, error)
}

type CheckoutServiceImpl struct {
	catalog  repository.CatalogRepository
	orders   repository.OrderRepository
	signKey  []byte
	currency string
	business string // processor merchant account, goes into the form fields
	refTTL   time.Duration
	now      func() time.Time
}

// NewCheckoutService constructs the checkout orchestrator.
func NewCheckoutService(catalog repository.CatalogRepository, orders repository.OrderRepository, signKey []byte, currency, business string) *CheckoutServiceImpl {
	if currency == "" {
		currency = "USD"
	}
	return &CheckoutServiceImpl{
		catalog:  catalog,
		orders:   orders,
		signKey:  signKey,
		currency: currency,
		business: business,
		refTTL:   24 * time.Hour,
		now:      time.Now,
	}
}

// Create validates every line, snapshots catalog name/price, and persists the
// order atomically. Client-supplied prices never reach this path: only
// (product_id, quantity) pairs come in.
func (s *CheckoutServiceImpl) Create(ctx context.Context, userID *uuid.UUID, lines []model.CartLine) (*CheckoutResult, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty cart", errs.ErrValidation)
	}

	// full pre-validation pass: a single unknown product rejects the whole
	// checkout before anything is written
	items := make([]model.OrderItem, 0, len(lines))
	var total int64
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for product %d must be positive", errs.ErrValidation, l.ProductID)
		}
		p, err := s.catalog.GetProduct(ctx, l.ProductID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown product %d", errs.ErrValidation, l.ProductID)
			}
			return nil, err
		}
		items = append(items, model.OrderItem{
			ProductID:  p.ID,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			Quantity:   l.Quantity,
		})
		total += p.PriceCents * int64(l.Quantity)
	}

	oid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	o := &model.Order{
		ID:         oid,
		UserID:     userID,
		Items:      items,
		TotalCents: total,
		Currency:   s.currency,
		Status:     model.OrderCreated,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	ref, err := s.signRef(o)
	if err != nil {
		return nil, fmt.Errorf("sign order ref: %w", err)
	}
	return &CheckoutResult{
		Order:         o,
		Ref:           ref,
		PaymentFields: s.paymentFields(o, ref),
	}, nil
}

// Get loads an order with items.
func (s *CheckoutServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return s.orders.Get(ctx, id)
}

// Complete settles a payment return: the signed reference proves the callback
// talks about an order we created, without trusting client-supplied ids.
func (s *CheckoutServiceImpl) Complete(ctx context.Context, ref, paypalOrderID, paypalTxnID string) (*model.Order, error) {
	id, err := s.verifyRef(ref)
	if err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, id, model.OrderCreated, model.OrderCompleted, paypalOrderID, paypalTxnID); err != nil {
		return nil, err
	}
	return s.orders.Get(ctx, id)
}

// Cancel marks a created order as failed.
func (s *CheckoutServiceImpl) Cancel(ctx context.Context, ref string) (*model.Order, error) {
	id, err := s.verifyRef(ref)
	if err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, id, model.OrderCreated, model.OrderFailed, "", ""); err != nil {
		return nil, err
	}
	return s.orders.Get(ctx, id)
}

type refClaims struct {
	Total int64 `json:"amt"`
	jwt.RegisteredClaims
}

// signRef issues an HS256-signed reference binding order id and total.
func (s *CheckoutServiceImpl) signRef(o *model.Order) (string, error) {
	now := s.now()
	claims := refClaims{
		Total: o.TotalCents,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   o.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
}

// verifyRef validates the signature and expiry and extracts the order id.
// A tampered or expired reference maps to CSRF-class rejection.
func (s *CheckoutServiceImpl) verifyRef(ref string) (uuid.UUID, error) {
	var claims refClaims
	tok, err := jwt.ParseWithClaims(ref, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return uuid.Nil, fmt.Errorf("%w: bad order reference", errs.ErrForbidden)
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad order reference", errs.ErrForbidden)
	}
	return id, nil
}

// paymentFields builds the processor's hidden form fields. Item fields are
// 1-based indexed and amounts are 2-decimal strings, as the processor
// requires.
func (s *CheckoutServiceImpl) paymentFields(o *model.Order, ref string) []model.PaymentField {
	fields := []model.PaymentField{
		{Name: "cmd", Value: "_cart"},
		{Name: "upload", Value: "1"},
		{Name: "business", Value: s.business},
		{Name: "currency_code", Value: o.Currency},
		{Name: "custom", Value: ref},
	}
	for i, it := range o.Items {
		n := strconv.Itoa(i + 1)
		fields = append(fields,
			model.PaymentField{Name: "item_name_" + n, Value: it.Name},
			model.PaymentField{Name: "item_number_" + n, Value: strconv.FormatInt(it.ProductID, 10)},
			model.PaymentField{Name: "amount_" + n, Value: FormatCents(it.PriceCents)},
			model.PaymentField{Name: "quantity_" + n, Value: strconv.Itoa(it.Quantity)},
		)
	}
	return fields
}

// FormatCents renders a cent amount as a 2-decimal string ("660" -> "6.60").
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
