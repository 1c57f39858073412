package domain

import "fmt"

// ShipmentStatus enumerates shipment states.
type ShipmentStatus string

// Canonical shipment statuses.
const (
	ShipmentPending        ShipmentStatus = "pending"
	ShipmentProcessing     ShipmentStatus = "processing"
	ShipmentInTransit      ShipmentStatus = "in_transit"
	ShipmentAtPort         ShipmentStatus = "at_port"
	ShipmentCustoms        ShipmentStatus = "customs"
	ShipmentOutForDelivery ShipmentStatus = "out_for_delivery"
	ShipmentDelivered      ShipmentStatus = "delivered"
	ShipmentCancelled      ShipmentStatus = "cancelled"
)

// shipmentProgress maps statuses that force a progress value. at_port is the
// only coupling; every other status leaves progress untouched.
var shipmentProgress = map[ShipmentStatus]int{
	ShipmentAtPort: 70,
}

// ProgressFor returns the progress forced by a status transition, if any.
func ProgressFor(status ShipmentStatus) (int, bool) {
	p, ok := shipmentProgress[status]
	return p, ok
}

// ClientStatus enumerates client account states.
type ClientStatus string

// Canonical client statuses.
const (
	ClientActive    ClientStatus = "active"
	ClientInactive  ClientStatus = "inactive"
	ClientSuspended ClientStatus = "suspended"
)

// TaskStatus enumerates task workflow states.
type TaskStatus string

// Canonical task statuses.
const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// TaskPriority ranks tasks.
type TaskPriority string

// Canonical task priorities.
const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// NotificationType classifies notifications for display.
type NotificationType string

// Canonical notification types.
const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// VoucherType enumerates accounting voucher kinds.
type VoucherType string

// Canonical voucher types.
const (
	VoucherReceipt  VoucherType = "receipt"
	VoucherDelivery VoucherType = "delivery"
	VoucherPayment  VoucherType = "payment"
	VoucherExpense  VoucherType = "expense"
)

// VoucherStatus enumerates voucher approval states.
type VoucherStatus string

// Canonical voucher statuses.
const (
	VoucherDraft     VoucherStatus = "draft"
	VoucherPending   VoucherStatus = "pending"
	VoucherApproved  VoucherStatus = "approved"
	VoucherPaid      VoucherStatus = "paid"
	VoucherCancelled VoucherStatus = "cancelled"
)

// PaymentMethod enumerates how a payment voucher is settled.
type PaymentMethod string

// Canonical payment methods.
const (
	PaymentCash         PaymentMethod = "cash"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCard         PaymentMethod = "card"
	PaymentCheque       PaymentMethod = "cheque"
)

// WarehouseShipmentStatus enumerates warehouse movement states.
type WarehouseShipmentStatus string

// Canonical warehouse shipment statuses.
const (
	WarehouseInbound  WarehouseShipmentStatus = "inbound"
	WarehouseStored   WarehouseShipmentStatus = "stored"
	WarehouseOutbound WarehouseShipmentStatus = "outbound"
)

// Role is a cosmetic dashboard role; it gates nothing.
type Role string

// Dashboard roles.
const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleClient   Role = "client"
)

// Theme is the UI colour scheme.
type Theme string

// Supported themes.
const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

var (
	shipmentStatuses = toSet(ShipmentPending, ShipmentProcessing, ShipmentInTransit, ShipmentAtPort,
		ShipmentCustoms, ShipmentOutForDelivery, ShipmentDelivered, ShipmentCancelled)
	clientStatuses    = toSet(ClientActive, ClientInactive, ClientSuspended)
	taskStatuses      = toSet(TaskPending, TaskInProgress, TaskCompleted, TaskCancelled)
	taskPriorities    = toSet(PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent)
	notificationTypes = toSet(NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError)
	voucherTypes      = toSet(VoucherReceipt, VoucherDelivery, VoucherPayment, VoucherExpense)
	voucherStatuses   = toSet(VoucherDraft, VoucherPending, VoucherApproved, VoucherPaid, VoucherCancelled)
	paymentMethods    = toSet(PaymentCash, PaymentBankTransfer, PaymentCard, PaymentCheque)
	warehouseStatuses = toSet(WarehouseInbound, WarehouseStored, WarehouseOutbound)
	roles             = toSet(RoleAdmin, RoleEmployee, RoleClient)
	themes            = toSet(ThemeLight, ThemeDark, ThemeSystem)
)

func toSet[T ~string](values ...T) map[T]struct{} {
	set := make(map[T]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func contains[T ~string](set map[T]struct{}, v T) bool {
	_, ok := set[v]
	return ok
}

// Valid reports whether s is a known shipment status.
func (s ShipmentStatus) Valid() bool { return contains(shipmentStatuses, s) }

// Valid reports whether s is a known client status.
func (s ClientStatus) Valid() bool { return contains(clientStatuses, s) }

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool { return contains(taskStatuses, s) }

// Valid reports whether p is a known task priority.
func (p TaskPriority) Valid() bool { return contains(taskPriorities, p) }

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool { return contains(notificationTypes, t) }

// Valid reports whether t is a known voucher type.
func (t VoucherType) Valid() bool { return contains(voucherTypes, t) }

// Valid reports whether s is a known voucher status.
func (s VoucherStatus) Valid() bool { return contains(voucherStatuses, s) }

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool { return contains(paymentMethods, m) }

// Valid reports whether s is a known warehouse shipment status.
func (s WarehouseShipmentStatus) Valid() bool { return contains(warehouseStatuses, s) }

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return contains(roles, r) }

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool { return contains(themes, t) }

// ParseShipmentStatus converts free text into a ShipmentStatus.
func ParseShipmentStatus(s string) (ShipmentStatus, error) {
	status := ShipmentStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown shipment status %q", s)
	}
	return status, nil
}

// ParseRole converts free text into a Role.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// ParseTheme converts free text into a Theme.
func ParseTheme(s string) (Theme, error) {
	theme := Theme(s)
	if !theme.Valid() {
		return "", fmt.Errorf("unknown theme %q", s)
	}
	return theme, nil
}

// ParsePaymentMethod converts free text into a PaymentMethod.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown payment method %q", s)
	}
	return m, nil
}
