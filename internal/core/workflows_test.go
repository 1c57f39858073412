package core

import (
	"context"
	"errors"
	"fmt"
	"shipfin/internal/logger"
	"shipfin/pkg/domain"
	"strings"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/shopspring/decimal"
)

type blockEntityRule struct {
	entity EntityType
}

func (r blockEntityRule) Name() string { return "block_" + string(r.entity) }

func (r blockEntityRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []Change) (Result, error) {
	var res Result
	for _, c := range changes {
		if c.Entity == r.entity && c.Action == ActionCreate {
			res.Violations = append(res.Violations, Violation{
				Rule:     r.Name(),
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("%s writes are frozen", r.entity),
				Entity:   c.Entity,
				EntityID: c.EntityID,
			})
		}
	}
	return res, nil
}

func TestGeneratePaymentVoucherWritesAllRecords(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()
	sh, _, _ := svc.AddShipment(ctx, sampleShipment("TRK-PAY"))

	out, _, err := svc.GeneratePaymentVoucher(ctx, sh.ID, decimal.RequireFromString("1200.50"), domain.PaymentBankTransfer)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	sel := mustSelect(t, svc)
	vouchers := sel.VouchersForShipment(sh.ID)
	if len(vouchers) != 1 {
		t.Fatalf("expected one voucher, got %s", spew.Sdump(vouchers))
	}
	v := vouchers[0]
	if v.Type != domain.VoucherPayment || v.Status != domain.VoucherPending || v.Currency != "EUR" ||
		!v.Amount.Equal(decimal.RequireFromString("1200.5")) || v.PaymentMethod == nil || *v.PaymentMethod != domain.PaymentBankTransfer {
		t.Fatalf("unexpected voucher %s", spew.Sdump(v))
	}
	tasks := sel.TasksForShipment(sh.ID)
	if len(tasks) != 1 || tasks[0].Priority != domain.PriorityHigh || tasks[0].Status != domain.TaskPending {
		t.Fatalf("unexpected tasks %s", spew.Sdump(tasks))
	}
	if !tasks[0].DueDate.Equal(now.Add(PaymentReviewDue)) {
		t.Fatalf("expected due date %s, got %s", now.Add(PaymentReviewDue), tasks[0].DueDate)
	}
	if !strings.Contains(tasks[0].Title, v.VoucherNumber) {
		t.Fatalf("task should reference the voucher number: %q", tasks[0].Title)
	}
	notes := sel.Notifications()
	if len(notes) != 1 || notes[0].ID != out.Notification.ID || !strings.Contains(notes[0].Message, sh.ID) {
		t.Fatalf("unexpected notifications %s", spew.Sdump(notes))
	}
}

func TestGeneratePaymentVoucherIsAtomic(t *testing.T) {
	engine := NewDefaultRulesEngine()
	engine.Register(blockEntityRule{entity: EntityNotification})
	var out strings.Builder
	log, _ := logger.New(logger.Config{}, logger.WithConsoleWriter(&out))
	svc := NewInMemoryService(engine, WithLogger(log))
	ctx := context.Background()

	_, _, err := svc.GeneratePaymentVoucher(ctx, "SHP_1_unknown", decimal.NewFromInt(10), domain.PaymentCash)
	if !errors.As(err, new(RuleViolationError)) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	sel := mustSelect(t, svc)
	if len(sel.Vouchers()) != 0 || len(sel.Tasks()) != 0 || len(sel.Notifications()) != 0 {
		t.Fatalf("partial workflow committed: %s", spew.Sdump(sel.Vouchers(), sel.Tasks()))
	}
	if !strings.Contains(out.String(), "Payment voucher generation failed") {
		t.Fatalf("expected failure log, got %s", out.String())
	}
}

func TestGeneratePaymentVoucherDefaultsCurrencyForUnknownShipment(t *testing.T) {
	svc, _ := newTestService(t)
	out, _, err := svc.GeneratePaymentVoucher(context.Background(), "SHP_1_elsewhere", decimal.NewFromInt(3), domain.PaymentCard)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out.Voucher.Currency != DefaultCurrency {
		t.Fatalf("expected %s, got %s", DefaultCurrency, out.Voucher.Currency)
	}
}

func TestGenerateReceiptVoucher(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	items := []LineItem{{Name: "Crate", Quantity: 12, Unit: "pcs"}}
	out, _, err := svc.GenerateReceiptVoucher(ctx, "SHP_1_x", items, "dock-2")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	sel := mustSelect(t, svc)
	if len(sel.ReceiptVouchers()) != 1 || sel.ReceiptVouchers()[0].ReceivedBy != "dock-2" {
		t.Fatalf("unexpected receipts %s", spew.Sdump(sel.ReceiptVouchers()))
	}
	ws := sel.WarehouseShipments()
	if len(ws) != 1 || ws[0].Status != domain.WarehouseInbound || ws[0].ShipmentID != "SHP_1_x" || len(ws[0].Items) != 1 {
		t.Fatalf("unexpected warehouse movement %s", spew.Sdump(ws))
	}
	if out.Notification.Type != domain.NotificationSuccess || sel.UnreadCount() != 1 {
		t.Fatalf("expected one success notification")
	}
	items[0].Quantity = 99
	if sel.ReceiptVouchers()[0].Items[0].Quantity != 12 {
		t.Fatalf("stored items alias the caller's slice")
	}
}

func TestGenerateDeliveryVoucherHasZeroAmount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sh, _, _ := svc.AddShipment(ctx, sampleShipment("TRK-DLV"))
	out, res, err := svc.GenerateDeliveryVoucher(ctx, sh.ID, []LineItem{{Name: "Crate", Quantity: 1, Unit: "pcs"}}, "Acme")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("zero-amount delivery should not warn: %s", spew.Sdump(res))
	}
	if !out.Voucher.Amount.IsZero() || out.Voucher.Type != domain.VoucherDelivery || out.Voucher.Currency != "EUR" {
		t.Fatalf("unexpected voucher %s", spew.Sdump(out.Voucher))
	}
	sel := mustSelect(t, svc)
	if len(sel.DeliveryVouchers()) != 1 || sel.DeliveryVouchers()[0].DeliveredTo != "Acme" {
		t.Fatalf("delivery document missing")
	}
}

func TestUpdateShipmentStatusAppliesProgress(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sh, _, _ := svc.AddShipment(ctx, sampleShipment("TRK-ST"))

	cases := []struct {
		status   domain.ShipmentStatus
		progress int
	}{
		{domain.ShipmentInTransit, 0},
		{domain.ShipmentAtPort, 70},
		{domain.ShipmentCustoms, 70},
		{domain.ShipmentDelivered, 70},
	}
	for _, tc := range cases {
		got, _, err := svc.UpdateShipmentStatus(ctx, sh.ID, tc.status)
		if err != nil {
			t.Fatalf("%s: %v", tc.status, err)
		}
		if got.Status != tc.status || got.Progress != tc.progress {
			t.Fatalf("%s: expected progress %d, got %d", tc.status, tc.progress, got.Progress)
		}
	}
	if n := len(mustSelect(t, svc).Notifications()); n != len(cases) {
		t.Fatalf("expected %d notifications, got %d", len(cases), n)
	}

	// a plain update does not apply the progress table
	got, _, _ := svc.UpdateShipment(ctx, sh.ID, domain.ShipmentPatch{Status: domain.Ptr(domain.ShipmentAtPort), Progress: domain.Ptr(20)})
	if got.Progress != 20 {
		t.Fatalf("plain update changed progress to %d", got.Progress)
	}
}

func TestUpdateShipmentStatusMissing(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.UpdateShipmentStatus(context.Background(), "SHP_1_missing", domain.ShipmentDelivered)
	if !errors.As(err, new(ErrNotFound)) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(mustSelect(t, svc).Notifications()) != 0 {
		t.Fatalf("notification committed for a missing shipment")
	}
}

func TestAdjustInventory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.AdjustInventory(ctx, "WIDGET", -5)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if created.ID != "WIDGET" || created.Quantity != 0 || created.Unit != "pcs" {
		t.Fatalf("expected new item clamped to 0, got %s", spew.Sdump(created))
	}
	if item, _, _ := svc.AdjustInventory(ctx, "WIDGET", 3); item.Quantity != 3 {
		t.Fatalf("expected 3, got %d", item.Quantity)
	}
	if item, _, _ := svc.AdjustInventory(ctx, "WIDGET", -10); item.Quantity != -7 {
		t.Fatalf("existing items are not clamped, got %d", item.Quantity)
	}
	if item, _, _ := svc.AdjustInventory(ctx, "GADGET", 4); item.Quantity != 4 {
		t.Fatalf("expected new item with 4, got %d", item.Quantity)
	}
	if n := len(mustSelect(t, svc).WarehouseItems()); n != 2 {
		t.Fatalf("expected 2 items, got %d", n)
	}
}

func TestApproveVoucher(t *testing.T) {
	svc, out := newTestService(t)
	ctx := context.Background()
	v, _, _ := svc.AddVoucher(ctx, Voucher{Type: domain.VoucherExpense, Status: domain.VoucherPending, Amount: decimal.NewFromInt(80), Currency: "USD"})

	approved, _, err := svc.ApproveVoucher(ctx, v.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.VoucherApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	sel := mustSelect(t, svc)
	if len(sel.PendingVouchers()) != 0 || sel.UnreadCount() != 1 {
		t.Fatalf("unexpected state after approval: %s", spew.Sdump(sel.Vouchers(), sel.Notifications()))
	}
	if !strings.Contains(out.String(), "voucher approved") {
		t.Fatalf("expected financial log, got %s", out.String())
	}
	if _, _, err := svc.ApproveVoucher(ctx, "VCH_1_missing"); !errors.As(err, new(ErrNotFound)) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
