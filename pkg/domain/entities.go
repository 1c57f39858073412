// Package domain defines the logistics and accounting records held by the
// shipfin state store, their closed value sets, and the rule evaluation
// primitives applied inside store transactions.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies the type of record stored in the state store.
type EntityType string

// Supported entity type identifiers used in Change records and log context.
const (
	// EntityShipment identifies a shipment record.
	EntityShipment EntityType = "shipment"
	// EntityClient identifies a client record.
	EntityClient EntityType = "client"
	// EntityTask identifies a task record.
	EntityTask EntityType = "task"
	// EntityNotification identifies a notification record.
	EntityNotification EntityType = "notification"
	// EntityVoucher identifies an accounting voucher.
	EntityVoucher EntityType = "voucher"
	// EntityWarehouseItem identifies a stocked warehouse item.
	EntityWarehouseItem EntityType = "warehouse_item"
	// EntityWarehouseShipment identifies a warehouse movement tied to a shipment.
	EntityWarehouseShipment EntityType = "warehouse_shipment"
	// EntityReceiptVoucher identifies a goods receipt document.
	EntityReceiptVoucher EntityType = "receipt_voucher"
	// EntityDeliveryVoucher identifies a goods delivery document.
	EntityDeliveryVoucher EntityType = "delivery_voucher"
	// EntitySession identifies the session flags (user, theme, sidebar).
	EntitySession EntityType = "session"
)

// Shipment tracks a consignment moving between origin and destination.
type Shipment struct {
	ID             string          `json:"id"`
	TrackingNumber string          `json:"tracking_number"`
	Status         ShipmentStatus  `json:"status"`
	Origin         string          `json:"origin"`
	Destination    string          `json:"destination"`
	ClientName     string          `json:"client_name"`
	Weight         float64         `json:"weight"`
	Value          decimal.Decimal `json:"value"`
	Currency       string          `json:"currency"`
	Progress       int             `json:"progress"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Client is a customer account.
type Client struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Phone     string       `json:"phone"`
	Address   string       `json:"address"`
	Status    ClientStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// Task is a unit of work assigned to a staff member.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	AssignedTo  string       `json:"assigned_to"`
	DueDate     time.Time    `json:"due_date"`
	ShipmentID  *string      `json:"shipment_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Notification is a user-facing message. Notifications never expire.
type Notification struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// Voucher is an accounting document. VoucherNumber always equals ID.
// Delivery vouchers are expected to carry a zero amount; the store does not
// enforce it.
type Voucher struct {
	ID            string          `json:"id"`
	VoucherNumber string          `json:"voucher_number"`
	Type          VoucherType     `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description"`
	Status        VoucherStatus   `json:"status"`
	Date          time.Time       `json:"date"`
	ShipmentID    *string         `json:"shipment_id,omitempty"`
	PaymentMethod *PaymentMethod  `json:"payment_method,omitempty"`
}

// WarehouseItem is a stocked article. Quantity may go negative.
type WarehouseItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	Unit        string    `json:"unit"`
	Location    string    `json:"location"`
	LastUpdated time.Time `json:"last_updated"`
}

// LineItem is one goods line on a warehouse or voucher document.
type LineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit"`
}

// WarehouseShipment records goods entering or leaving the warehouse for a
// shipment. ShipmentID is not checked against the shipment collection.
type WarehouseShipment struct {
	ID         string                  `json:"id"`
	ShipmentID string                  `json:"shipment_id"`
	Items      []LineItem              `json:"items"`
	Status     WarehouseShipmentStatus `json:"status"`
	Location   string                  `json:"location"`
	CreatedAt  time.Time               `json:"created_at"`
}

// ReceiptVoucher documents goods received for a shipment.
type ReceiptVoucher struct {
	ID         string     `json:"id"`
	ShipmentID string     `json:"shipment_id"`
	Items      []LineItem `json:"items"`
	ReceivedBy string     `json:"received_by"`
	Notes      string     `json:"notes"`
	CreatedAt  time.Time  `json:"created_at"`
}

// DeliveryVoucher documents goods handed over for a shipment.
type DeliveryVoucher struct {
	ID          string     `json:"id"`
	ShipmentID  string     `json:"shipment_id"`
	Items       []LineItem `json:"items"`
	DeliveredTo string     `json:"delivered_to"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
}

// User is the signed-in dashboard user.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// Session holds the flags that survive a reload. SessionID is minted at login
// and is not persisted.
type Session struct {
	User            *User  `json:"user"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	Theme           Theme  `json:"theme"`
	SidebarOpen     bool   `json:"sidebarOpen"`
	SessionID       string `json:"-"`
}

// DefaultSession returns the session flags of a fresh store.
func DefaultSession() Session {
	return Session{Theme: ThemeLight, SidebarOpen: true}
}

// Equal reports whether two sessions carry the same persisted fields.
func (s Session) Equal(other Session) bool {
	if s.IsAuthenticated != other.IsAuthenticated || s.Theme != other.Theme || s.SidebarOpen != other.SidebarOpen {
		return false
	}
	if (s.User == nil) != (other.User == nil) {
		return false
	}
	if s.User != nil && *s.User != *other.User {
		return false
	}
	return true
}

// Clone deep-copies the session.
func (s Session) Clone() Session {
	cp := s
	if s.User != nil {
		u := *s.User
		cp.User = &u
	}
	return cp
}
