package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Patches carry partial updates. A nil field keeps the stored value; a set
// field replaces it. IDs and creation timestamps are never patched.

// ShipmentPatch is a partial Shipment update.
type ShipmentPatch struct {
	TrackingNumber *string          `json:"tracking_number,omitempty"`
	Status         *ShipmentStatus  `json:"status,omitempty"`
	Origin         *string          `json:"origin,omitempty"`
	Destination    *string          `json:"destination,omitempty"`
	ClientName     *string          `json:"client_name,omitempty"`
	Weight         *float64         `json:"weight,omitempty"`
	Value          *decimal.Decimal `json:"value,omitempty"`
	Currency       *string          `json:"currency,omitempty"`
	Progress       *int             `json:"progress,omitempty"`
}

// Apply merges the patch onto s.
func (p ShipmentPatch) Apply(s *Shipment) {
	set(&s.TrackingNumber, p.TrackingNumber)
	set(&s.Status, p.Status)
	set(&s.Origin, p.Origin)
	set(&s.Destination, p.Destination)
	set(&s.ClientName, p.ClientName)
	set(&s.Weight, p.Weight)
	set(&s.Value, p.Value)
	set(&s.Currency, p.Currency)
	set(&s.Progress, p.Progress)
}

// ClientPatch is a partial Client update.
type ClientPatch struct {
	Name    *string       `json:"name,omitempty"`
	Email   *string       `json:"email,omitempty"`
	Phone   *string       `json:"phone,omitempty"`
	Address *string       `json:"address,omitempty"`
	Status  *ClientStatus `json:"status,omitempty"`
}

// Apply merges the patch onto c.
func (p ClientPatch) Apply(c *Client) {
	set(&c.Name, p.Name)
	set(&c.Email, p.Email)
	set(&c.Phone, p.Phone)
	set(&c.Address, p.Address)
	set(&c.Status, p.Status)
}

// TaskPatch is a partial Task update.
type TaskPatch struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Status      *TaskStatus   `json:"status,omitempty"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	AssignedTo  *string       `json:"assigned_to,omitempty"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
}

// Apply merges the patch onto t.
func (p TaskPatch) Apply(t *Task) {
	set(&t.Title, p.Title)
	set(&t.Description, p.Description)
	set(&t.Status, p.Status)
	set(&t.Priority, p.Priority)
	set(&t.AssignedTo, p.AssignedTo)
	set(&t.DueDate, p.DueDate)
}

// NotificationPatch is a partial Notification update.
type NotificationPatch struct {
	Title   *string           `json:"title,omitempty"`
	Message *string           `json:"message,omitempty"`
	Type    *NotificationType `json:"type,omitempty"`
	Read    *bool             `json:"read,omitempty"`
}

// Apply merges the patch onto n.
func (p NotificationPatch) Apply(n *Notification) {
	set(&n.Title, p.Title)
	set(&n.Message, p.Message)
	set(&n.Type, p.Type)
	set(&n.Read, p.Read)
}

// VoucherPatch is a partial Voucher update.
type VoucherPatch struct {
	Type          *VoucherType     `json:"type,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Currency      *string          `json:"currency,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Status        *VoucherStatus   `json:"status,omitempty"`
	Date          *time.Time       `json:"date,omitempty"`
	ShipmentID    *string          `json:"shipment_id,omitempty"`
	PaymentMethod *PaymentMethod   `json:"payment_method,omitempty"`
}

// Apply merges the patch onto v.
func (p VoucherPatch) Apply(v *Voucher) {
	set(&v.Type, p.Type)
	set(&v.Amount, p.Amount)
	set(&v.Currency, p.Currency)
	set(&v.Description, p.Description)
	set(&v.Status, p.Status)
	set(&v.Date, p.Date)
	if p.ShipmentID != nil {
		id := *p.ShipmentID
		v.ShipmentID = &id
	}
	if p.PaymentMethod != nil {
		m := *p.PaymentMethod
		v.PaymentMethod = &m
	}
}

// WarehouseItemPatch is a partial WarehouseItem update.
type WarehouseItemPatch struct {
	Name     *string `json:"name,omitempty"`
	Quantity *int    `json:"quantity,omitempty"`
	Unit     *string `json:"unit,omitempty"`
	Location *string `json:"location,omitempty"`
}

// Apply merges the patch onto w.
func (p WarehouseItemPatch) Apply(w *WarehouseItem) {
	set(&w.Name, p.Name)
	set(&w.Quantity, p.Quantity)
	set(&w.Unit, p.Unit)
	set(&w.Location, p.Location)
}

// WarehouseShipmentPatch is a partial WarehouseShipment update.
type WarehouseShipmentPatch struct {
	Items    []LineItem               `json:"items,omitempty"`
	Status   *WarehouseShipmentStatus `json:"status,omitempty"`
	Location *string                  `json:"location,omitempty"`
}

// Apply merges the patch onto w.
func (p WarehouseShipmentPatch) Apply(w *WarehouseShipment) {
	if p.Items != nil {
		w.Items = append([]LineItem(nil), p.Items...)
	}
	set(&w.Status, p.Status)
	set(&w.Location, p.Location)
}

// ReceiptVoucherPatch is a partial ReceiptVoucher update.
type ReceiptVoucherPatch struct {
	Items      []LineItem `json:"items,omitempty"`
	ReceivedBy *string    `json:"received_by,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

// Apply merges the patch onto r.
func (p ReceiptVoucherPatch) Apply(r *ReceiptVoucher) {
	if p.Items != nil {
		r.Items = append([]LineItem(nil), p.Items...)
	}
	set(&r.ReceivedBy, p.ReceivedBy)
	set(&r.Notes, p.Notes)
}

// DeliveryVoucherPatch is a partial DeliveryVoucher update.
type DeliveryVoucherPatch struct {
	Items       []LineItem `json:"items,omitempty"`
	DeliveredTo *string    `json:"delivered_to,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// Apply merges the patch onto d.
func (p DeliveryVoucherPatch) Apply(d *DeliveryVoucher) {
	if p.Items != nil {
		d.Items = append([]LineItem(nil), p.Items...)
	}
	set(&d.DeliveredTo, p.DeliveredTo)
	set(&d.Notes, p.Notes)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Ptr returns a pointer to v. Handy when building patches.
func Ptr[T any](v T) *T {
	return &v
}
