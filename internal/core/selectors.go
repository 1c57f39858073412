package core

import (
	"context"
	"shipfin/pkg/domain"
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold is the quantity at or below which DashboardStats
// counts an item as low on stock.
const DefaultLowStockThreshold = 10

// Selectors derives read models from one committed snapshot. The snapshot is
// immutable, so a Selectors value can be kept and queried repeatedly.
type Selectors struct {
	view domain.TransactionView
}

// NewSelectors wraps a snapshot view.
func NewSelectors(view domain.TransactionView) Selectors {
	return Selectors{view: view}
}

// Select captures the current committed state.
func (s *Service) Select(ctx context.Context) (Selectors, error) {
	var sel Selectors
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		sel = NewSelectors(v)
		return nil
	})
	return sel, err
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func refersTo(ptr *string, id string) bool {
	return ptr != nil && *ptr == id
}

// Shipments lists shipments newest first.
func (s Selectors) Shipments() []Shipment { return s.view.ListShipments() }

// ShipmentByID looks a shipment up by id.
func (s Selectors) ShipmentByID(id string) (Shipment, bool) { return s.view.FindShipment(id) }

// ShipmentsByStatus lists shipments in the given status.
func (s Selectors) ShipmentsByStatus(status domain.ShipmentStatus) []Shipment {
	return filter(s.view.ListShipments(), func(sh Shipment) bool { return sh.Status == status })
}

// Clients lists clients newest first.
func (s Selectors) Clients() []Client { return s.view.ListClients() }

// Tasks lists tasks newest first.
func (s Selectors) Tasks() []Task { return s.view.ListTasks() }

// TasksForShipment lists tasks linked to a shipment.
func (s Selectors) TasksForShipment(shipmentID string) []Task {
	return filter(s.view.ListTasks(), func(t Task) bool { return refersTo(t.ShipmentID, shipmentID) })
}

// Notifications lists notifications newest first.
func (s Selectors) Notifications() []Notification { return s.view.ListNotifications() }

// UnreadNotifications lists notifications not yet read.
func (s Selectors) UnreadNotifications() []Notification {
	return filter(s.view.ListNotifications(), func(n Notification) bool { return !n.Read })
}

// UnreadCount counts unread notifications.
func (s Selectors) UnreadCount() int { return len(s.UnreadNotifications()) }

// Vouchers lists vouchers newest first.
func (s Selectors) Vouchers() []Voucher { return s.view.ListVouchers() }

// VouchersForShipment lists vouchers linked to a shipment.
func (s Selectors) VouchersForShipment(shipmentID string) []Voucher {
	return filter(s.view.ListVouchers(), func(v Voucher) bool { return refersTo(v.ShipmentID, shipmentID) })
}

// PendingVouchers lists vouchers awaiting approval (draft or pending).
func (s Selectors) PendingVouchers() []Voucher {
	return filter(s.view.ListVouchers(), func(v Voucher) bool {
		return v.Status == domain.VoucherPending || v.Status == domain.VoucherDraft
	})
}

// VoucherTotal is the summed amount of one voucher type in one currency.
type VoucherTotal struct {
	Type     domain.VoucherType `json:"type"`
	Currency string             `json:"currency"`
	Count    int                `json:"count"`
	Total    decimal.Decimal    `json:"total"`
}

// VoucherTotals sums non-cancelled vouchers by type and currency, ordered by
// type then currency.
func (s Selectors) VoucherTotals() []VoucherTotal {
	type key struct {
		typ      domain.VoucherType
		currency string
	}
	sums := make(map[key]*VoucherTotal)
	for _, v := range s.view.ListVouchers() {
		if v.Status == domain.VoucherCancelled {
			continue
		}
		k := key{v.Type, v.Currency}
		t, ok := sums[k]
		if !ok {
			t = &VoucherTotal{Type: v.Type, Currency: v.Currency, Total: decimal.Zero}
			sums[k] = t
		}
		t.Count++
		t.Total = t.Total.Add(v.Amount)
	}
	out := make([]VoucherTotal, 0, len(sums))
	for _, t := range sums {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Currency < out[j].Currency
	})
	return out
}

// WarehouseItems lists stocked items newest first.
func (s Selectors) WarehouseItems() []WarehouseItem { return s.view.ListWarehouseItems() }

// LowStockItems lists items whose quantity is at or below threshold.
func (s Selectors) LowStockItems(threshold int) []WarehouseItem {
	return filter(s.view.ListWarehouseItems(), func(w WarehouseItem) bool { return w.Quantity <= threshold })
}

// WarehouseShipments lists warehouse movements newest first.
func (s Selectors) WarehouseShipments() []WarehouseShipment { return s.view.ListWarehouseShipments() }

// ReceiptVouchers lists receipts newest first.
func (s Selectors) ReceiptVouchers() []ReceiptVoucher { return s.view.ListReceiptVouchers() }

// DeliveryVouchers lists delivery documents newest first.
func (s Selectors) DeliveryVouchers() []DeliveryVoucher { return s.view.ListDeliveryVouchers() }

// Session returns the session flags of the snapshot.
func (s Selectors) Session() Session { return s.view.Session() }

// DashboardStats holds the dashboard headline counts.
type DashboardStats struct {
	TotalShipments      int `json:"totalShipments"`
	ActiveShipments     int `json:"activeShipments"`
	DeliveredShipments  int `json:"deliveredShipments"`
	TotalClients        int `json:"totalClients"`
	ActiveClients       int `json:"activeClients"`
	PendingTasks        int `json:"pendingTasks"`
	UnreadNotifications int `json:"unreadNotifications"`
	PendingVouchers     int `json:"pendingVouchers"`
	LowStockItems       int `json:"lowStockItems"`
}

// DashboardStats computes the dashboard counts.
func (s Selectors) DashboardStats() DashboardStats {
	var stats DashboardStats
	for _, sh := range s.view.ListShipments() {
		stats.TotalShipments++
		switch sh.Status {
		case domain.ShipmentDelivered:
			stats.DeliveredShipments++
		case domain.ShipmentCancelled:
		default:
			stats.ActiveShipments++
		}
	}
	for _, c := range s.view.ListClients() {
		stats.TotalClients++
		if c.Status == domain.ClientActive {
			stats.ActiveClients++
		}
	}
	for _, t := range s.view.ListTasks() {
		if t.Status == domain.TaskPending || t.Status == domain.TaskInProgress {
			stats.PendingTasks++
		}
	}
	stats.UnreadNotifications = s.UnreadCount()
	stats.PendingVouchers = len(s.PendingVouchers())
	stats.LowStockItems = len(s.LowStockItems(DefaultLowStockThreshold))
	return stats
}
