package core

import (
	"context"
	"reflect"
	"shipfin/pkg/domain"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/shopspring/decimal"
)

func seedDashboard(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()
	statuses := []domain.ShipmentStatus{domain.ShipmentPending, domain.ShipmentInTransit, domain.ShipmentDelivered, domain.ShipmentCancelled}
	for _, st := range statuses {
		sh := sampleShipment("TRK-" + string(st))
		sh.Status = st
		if _, _, err := svc.AddShipment(ctx, sh); err != nil {
			t.Fatalf("seed shipment: %v", err)
		}
	}
	_, _, _ = svc.AddClient(ctx, Client{Name: "A", Status: domain.ClientActive})
	_, _, _ = svc.AddClient(ctx, Client{Name: "B", Status: domain.ClientInactive})
	_, _, _ = svc.AddTask(ctx, Task{Title: "t1", Status: domain.TaskPending, Priority: domain.PriorityLow})
	_, _, _ = svc.AddTask(ctx, Task{Title: "t2", Status: domain.TaskInProgress, Priority: domain.PriorityLow})
	_, _, _ = svc.AddTask(ctx, Task{Title: "t3", Status: domain.TaskCompleted, Priority: domain.PriorityLow})
	_, _, _ = svc.AddNotification(ctx, Notification{Title: "n", Type: domain.NotificationInfo})
	vouchers := []Voucher{
		{Type: domain.VoucherPayment, Status: domain.VoucherPending, Amount: decimal.RequireFromString("10.10"), Currency: "USD"},
		{Type: domain.VoucherPayment, Status: domain.VoucherApproved, Amount: decimal.RequireFromString("0.20"), Currency: "USD"},
		{Type: domain.VoucherPayment, Status: domain.VoucherDraft, Amount: decimal.NewFromInt(7), Currency: "EUR"},
		{Type: domain.VoucherExpense, Status: domain.VoucherCancelled, Amount: decimal.NewFromInt(999), Currency: "USD"},
		{Type: domain.VoucherExpense, Status: domain.VoucherPaid, Amount: decimal.NewFromInt(5), Currency: "USD"},
	}
	for _, v := range vouchers {
		if _, _, err := svc.AddVoucher(ctx, v); err != nil {
			t.Fatalf("seed voucher: %v", err)
		}
	}
	_, _, _ = svc.AddWarehouseItem(ctx, WarehouseItem{Name: "low", Quantity: 10, Unit: "pcs"})
	_, _, _ = svc.AddWarehouseItem(ctx, WarehouseItem{Name: "ok", Quantity: 11, Unit: "pcs"})
}

func TestDashboardStats(t *testing.T) {
	svc, _ := newTestService(t)
	seedDashboard(t, svc)
	got := mustSelect(t, svc).DashboardStats()
	want := DashboardStats{
		TotalShipments:      4,
		ActiveShipments:     2,
		DeliveredShipments:  1,
		TotalClients:        2,
		ActiveClients:       1,
		PendingTasks:        2,
		UnreadNotifications: 1,
		PendingVouchers:     2,
		LowStockItems:       1,
	}
	if got != want {
		t.Fatalf("unexpected stats\nwant %s\ngot  %s", spew.Sdump(want), spew.Sdump(got))
	}
}

func TestVoucherTotals(t *testing.T) {
	svc, _ := newTestService(t)
	seedDashboard(t, svc)
	got := mustSelect(t, svc).VoucherTotals()
	if len(got) != 3 {
		t.Fatalf("expected 3 groups, got %s", spew.Sdump(got))
	}
	type row struct {
		typ      domain.VoucherType
		currency string
		count    int
		total    string
	}
	want := []row{
		{domain.VoucherExpense, "USD", 1, "5"},
		{domain.VoucherPayment, "EUR", 1, "7"},
		{domain.VoucherPayment, "USD", 2, "10.3"},
	}
	for i, w := range want {
		g := got[i]
		if g.Type != w.typ || g.Currency != w.currency || g.Count != w.count || !g.Total.Equal(decimal.RequireFromString(w.total)) {
			t.Fatalf("row %d: want %+v, got %s", i, w, spew.Sdump(g))
		}
	}
}

func TestSelectorFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sh, _, _ := svc.AddShipment(ctx, sampleShipment("TRK-1"))
	other, _, _ := svc.AddShipment(ctx, sampleShipment("TRK-2"))
	_, _, _ = svc.UpdateShipment(ctx, other.ID, domain.ShipmentPatch{Status: domain.Ptr(domain.ShipmentCustoms)})
	_, _, _ = svc.AddTask(ctx, Task{Title: "linked", Status: domain.TaskPending, Priority: domain.PriorityLow, ShipmentID: domain.Ptr(sh.ID)})
	_, _, _ = svc.AddTask(ctx, Task{Title: "loose", Status: domain.TaskPending, Priority: domain.PriorityLow})

	sel := mustSelect(t, svc)
	if got := sel.ShipmentsByStatus(domain.ShipmentCustoms); len(got) != 1 || got[0].ID != other.ID {
		t.Fatalf("unexpected status filter %s", spew.Sdump(got))
	}
	if got := sel.TasksForShipment(sh.ID); len(got) != 1 || got[0].Title != "linked" {
		t.Fatalf("unexpected task filter %s", spew.Sdump(got))
	}
	if _, ok := sel.ShipmentByID("SHP_1_missing"); ok {
		t.Fatalf("expected missing shipment")
	}
}

func TestSelectorsKeepTheirSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, _, _ = svc.AddClient(ctx, Client{Name: "A", Status: domain.ClientActive})
	sel := mustSelect(t, svc)
	before := sel.Clients()
	_, _, _ = svc.AddClient(ctx, Client{Name: "B", Status: domain.ClientActive})
	if !reflect.DeepEqual(before, sel.Clients()) {
		t.Fatalf("selector snapshot observed a later commit")
	}
	if len(mustSelect(t, svc).Clients()) != 2 {
		t.Fatalf("fresh selector missed the commit")
	}
}
