// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// User represents an account. Password material is stored as a per-user salt
// plus a PBKDF2-SHA512 derived key, both hex-encoded; the plaintext never
// leaves the verification path.
type User struct {
	ID           uuid.UUID // PK
	Email        string    // unique, case-sensitive as stored
	PasswordHash string    // hex(PBKDF2-SHA512(password, salt))
	PasswordSalt string    // hex, per-user
	IsAdmin      bool
	CreatedAt    time.Time
}

// Session is a server-side login session keyed by an opaque random token.
// At most one active session exists per user.
type Session struct {
	ID        string // opaque 256-bit random token, PK
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at the given instant.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Category groups products for the storefront.
type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Product is a catalog entry. PriceCents is the authoritative price; client
// submitted prices are never trusted.
type Product struct {
	ID         int64
	CategoryID int64
	Name       string
	PriceCents int64
	ImagePath  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CartLine is one line of a client-held cart after normalization: only the
// product reference and quantity cross the trust boundary.
type CartLine struct {
	ProductID int64
	Quantity  int
}

// OrderStatus is the payment lifecycle state of an order.
type OrderStatus string

const (
	OrderCreated   OrderStatus = "CREATED"
	OrderApproved  OrderStatus = "APPROVED"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderFailed    OrderStatus = "FAILED"
)

// Order is a persisted checkout with server-derived pricing. UserID is nil
// for guest checkouts.
type Order struct {
	ID            uuid.UUID
	UserID        *uuid.UUID
	Items         []OrderItem
	TotalCents    int64
	Currency      string
	Status        OrderStatus
	PaypalOrderID string // processor-side order reference, set on return
	PaypalTxnID   string // processor transaction id, set on completion
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem snapshots a product's name and price at purchase time so later
// catalog edits do not alter historical orders.
type OrderItem struct {
	ProductID  int64
	Name       string
	PriceCents int64 // unit price at purchase
	Quantity   int
}

// PaymentField is one hidden form field for the processor redirect form,
// already in the processor's required shape (amounts as 2-decimal strings,
// item fields 1-based indexed).
type PaymentField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
