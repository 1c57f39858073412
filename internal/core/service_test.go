package core

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"shipfin/internal/logger"
	"shipfin/pkg/domain"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

// newTestService returns a service on a fresh in-memory store whose audit
// console output is captured in the returned buffer.
func newTestService(t *testing.T, opts ...Option) (*Service, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	log, err := logger.New(logger.Config{Level: logger.LevelDebug}, logger.WithConsoleWriter(&out))
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	t.Cleanup(func() { _ = log.Close(context.Background()) })
	opts = append([]Option{WithLogger(log)}, opts...)
	return NewInMemoryService(NewDefaultRulesEngine(), opts...), &out
}

func mustSelect(t *testing.T, svc *Service) Selectors {
	t.Helper()
	sel, err := svc.Select(context.Background())
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	return sel
}

func sampleShipment(tracking string) Shipment {
	return Shipment{
		TrackingNumber: tracking,
		Status:         domain.ShipmentPending,
		Origin:         "Shanghai",
		Destination:    "Rotterdam",
		ClientName:     "Acme Imports",
		Weight:         1250.5,
		Value:          decimal.RequireFromString("48000.00"),
		Currency:       "EUR",
	}
}

func TestGeneratedIDsAreUniqueAndWellFormed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		sh, _, err := svc.AddShipment(ctx, sampleShipment("TRK"))
		if err != nil {
			t.Fatalf("add shipment: %v", err)
		}
		if !domain.ValidID(sh.ID) || !strings.HasPrefix(sh.ID, domain.PrefixShipment+"_") {
			t.Fatalf("unexpected id format %q", sh.ID)
		}
		if _, dup := seen[sh.ID]; dup {
			t.Fatalf("duplicate id %q", sh.ID)
		}
		seen[sh.ID] = struct{}{}
	}
	v, _, err := svc.AddVoucher(ctx, Voucher{Type: domain.VoucherExpense, Status: domain.VoucherDraft, Amount: decimal.NewFromInt(5), Currency: "USD"})
	if err != nil {
		t.Fatalf("add voucher: %v", err)
	}
	if !strings.HasPrefix(v.ID, domain.PrefixVoucher+"_") || v.VoucherNumber != v.ID {
		t.Fatalf("expected voucher number to mirror id: %+v", v)
	}
}

func TestAddPrependsNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	x, _, _ := svc.AddClient(ctx, Client{Name: "X", Status: domain.ClientActive})
	y, _, _ := svc.AddClient(ctx, Client{Name: "Y", Status: domain.ClientActive})
	list := mustSelect(t, svc).Clients()
	if len(list) != 2 || list[0].ID != y.ID || list[1].ID != x.ID {
		t.Fatalf("expected [Y, X], got %s", spew.Sdump(list))
	}
	if list[0].CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be stamped")
	}
}

func TestUpdateIsPartialMerge(t *testing.T) {
	svc, out := newTestService(t)
	ctx := context.Background()
	a, _, _ := svc.AddShipment(ctx, sampleShipment("TRK-A"))
	b, _, _ := svc.AddShipment(ctx, sampleShipment("TRK-B"))
	before := mustSelect(t, svc)
	bBefore, _ := before.ShipmentByID(b.ID)

	updated, _, err := svc.UpdateShipment(ctx, a.ID, domain.ShipmentPatch{Destination: domain.Ptr("Hamburg")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := a
	want.Destination = "Hamburg"
	if !reflect.DeepEqual(updated, want) {
		t.Fatalf("expected only destination to change\nwant %s\ngot  %s", spew.Sdump(want), spew.Sdump(updated))
	}
	bAfter, _ := mustSelect(t, svc).ShipmentByID(b.ID)
	if !reflect.DeepEqual(bBefore, bAfter) {
		t.Fatalf("untouched record changed: %s", spew.Sdump(bAfter))
	}
	if !strings.Contains(out.String(), "Shipment updated") {
		t.Fatalf("expected update to be logged, got %s", out.String())
	}
}

func TestUpdateMissingIDReturnsNotFoundAndLogsAttempt(t *testing.T) {
	svc, out := newTestService(t)
	ctx := context.Background()
	_, _, _ = svc.AddTask(ctx, Task{Title: "call", Status: domain.TaskPending, Priority: domain.PriorityLow})
	before := mustSelect(t, svc).Tasks()

	_, _, err := svc.UpdateTask(ctx, "TSK_0_missing", domain.TaskPatch{Title: domain.Ptr("x")})
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) || nf.Entity != EntityTask || nf.ID != "TSK_0_missing" {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !reflect.DeepEqual(before, mustSelect(t, svc).Tasks()) {
		t.Fatalf("state changed on missing update")
	}
	if !strings.Contains(out.String(), "Task updated skipped: record not found") {
		t.Fatalf("expected attempt to be logged, got %s", out.String())
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	keep, _, _ := svc.AddNotification(ctx, Notification{Title: "a", Type: domain.NotificationInfo})
	drop, _, _ := svc.AddNotification(ctx, Notification{Title: "b", Type: domain.NotificationInfo})

	if _, err := svc.DeleteNotification(ctx, drop.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	once := mustSelect(t, svc).Notifications()
	if _, err := svc.DeleteNotification(ctx, drop.ID); !errors.As(err, new(domain.ErrNotFound)) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	twice := mustSelect(t, svc).Notifications()
	if !reflect.DeepEqual(once, twice) || len(twice) != 1 || twice[0].ID != keep.ID {
		t.Fatalf("second delete changed state: %s", spew.Sdump(twice))
	}
}

func TestAllEntityCommandsRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	item, _, err := svc.AddWarehouseItem(ctx, WarehouseItem{Name: "Pallet", Quantity: 4, Unit: "pcs"})
	if err != nil || item.LastUpdated.IsZero() {
		t.Fatalf("add item: %v %+v", err, item)
	}
	if item, _, err = svc.UpdateWarehouseItem(ctx, item.ID, domain.WarehouseItemPatch{Location: domain.Ptr("A-1")}); err != nil || item.Location != "A-1" {
		t.Fatalf("update item: %v %+v", err, item)
	}
	ws, _, err := svc.AddWarehouseShipment(ctx, WarehouseShipment{ShipmentID: "SHP_1_x", Status: domain.WarehouseInbound})
	if err != nil {
		t.Fatalf("add warehouse shipment: %v", err)
	}
	if ws, _, err = svc.UpdateWarehouseShipment(ctx, ws.ID, domain.WarehouseShipmentPatch{Status: domain.Ptr(domain.WarehouseStored)}); err != nil || ws.Status != domain.WarehouseStored {
		t.Fatalf("update warehouse shipment: %v", err)
	}
	rv, _, err := svc.AddReceiptVoucher(ctx, ReceiptVoucher{ShipmentID: "SHP_1_x", ReceivedBy: "dock"})
	if err != nil {
		t.Fatalf("add receipt: %v", err)
	}
	if rv, _, err = svc.UpdateReceiptVoucher(ctx, rv.ID, domain.ReceiptVoucherPatch{Notes: domain.Ptr("damaged")}); err != nil || rv.Notes != "damaged" {
		t.Fatalf("update receipt: %v", err)
	}
	dv, _, err := svc.AddDeliveryVoucher(ctx, DeliveryVoucher{ShipmentID: "SHP_1_x", DeliveredTo: "Acme"})
	if err != nil {
		t.Fatalf("add delivery: %v", err)
	}
	if dv, _, err = svc.UpdateDeliveryVoucher(ctx, dv.ID, domain.DeliveryVoucherPatch{DeliveredTo: domain.Ptr("Acme BV")}); err != nil || dv.DeliveredTo != "Acme BV" {
		t.Fatalf("update delivery: %v", err)
	}
	cl, _, _ := svc.AddClient(ctx, Client{Name: "Acme", Status: domain.ClientActive})
	if cl, _, err = svc.UpdateClient(ctx, cl.ID, domain.ClientPatch{Status: domain.Ptr(domain.ClientSuspended)}); err != nil || cl.Status != domain.ClientSuspended {
		t.Fatalf("update client: %v", err)
	}
	v, _, _ := svc.AddVoucher(ctx, Voucher{Type: domain.VoucherExpense, Status: domain.VoucherDraft, Currency: "USD", Amount: decimal.NewFromInt(10)})
	if v, _, err = svc.UpdateVoucher(ctx, v.ID, domain.VoucherPatch{Status: domain.Ptr(domain.VoucherPaid)}); err != nil || v.Status != domain.VoucherPaid {
		t.Fatalf("update voucher: %v", err)
	}

	deletes := []func() (Result, error){
		func() (Result, error) { return svc.DeleteWarehouseItem(ctx, item.ID) },
		func() (Result, error) { return svc.DeleteWarehouseShipment(ctx, ws.ID) },
		func() (Result, error) { return svc.DeleteReceiptVoucher(ctx, rv.ID) },
		func() (Result, error) { return svc.DeleteDeliveryVoucher(ctx, dv.ID) },
		func() (Result, error) { return svc.DeleteClient(ctx, cl.ID) },
		func() (Result, error) { return svc.DeleteVoucher(ctx, v.ID) },
	}
	for i, del := range deletes {
		if _, err := del(); err != nil {
			t.Fatalf("delete %d: %v", i, err)
		}
	}
	sel := mustSelect(t, svc)
	if n := len(sel.WarehouseItems()) + len(sel.WarehouseShipments()) + len(sel.ReceiptVouchers()) +
		len(sel.DeliveryVouchers()) + len(sel.Clients()) + len(sel.Vouchers()); n != 0 {
		t.Fatalf("expected empty collections, %d records left", n)
	}
}

func TestInvalidEnumIsBlocked(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bad := sampleShipment("TRK")
	bad.Status = "lost_at_sea"
	_, res, err := svc.AddShipment(ctx, bad)
	var rv domain.RuleViolationError
	if !errors.As(err, &rv) || !res.HasBlocking() {
		t.Fatalf("expected blocking violation, got %v", err)
	}
	if rv.Result.Violations[0].Rule != "enum_validity" {
		t.Fatalf("unexpected violations: %s", spew.Sdump(rv.Result.Violations))
	}
	if len(mustSelect(t, svc).Shipments()) != 0 {
		t.Fatalf("blocked shipment was committed")
	}
}

func TestDeliveryVoucherAmountWarnsButCommits(t *testing.T) {
	svc, out := newTestService(t)
	ctx := context.Background()
	v, res, err := svc.AddVoucher(ctx, Voucher{Type: domain.VoucherDelivery, Status: domain.VoucherDraft, Currency: "USD", Amount: decimal.NewFromInt(15)})
	if err != nil {
		t.Fatalf("expected commit, got %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Severity != SeverityWarn || res.Violations[0].EntityID != v.ID {
		t.Fatalf("expected one warning, got %s", spew.Sdump(res))
	}
	if len(mustSelect(t, svc).Vouchers()) != 1 {
		t.Fatalf("voucher not committed")
	}
	if !strings.Contains(out.String(), "rule=delivery_amount") {
		t.Fatalf("expected warning to be logged: %s", out.String())
	}
}

func TestMarkNotificationsRead(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a, _, _ := svc.AddNotification(ctx, Notification{Title: "a", Type: domain.NotificationInfo, Read: true})
	_, _, _ = svc.AddNotification(ctx, Notification{Title: "b", Type: domain.NotificationWarning})
	_, _, _ = svc.AddNotification(ctx, Notification{Title: "c", Type: domain.NotificationError})
	if a.Read {
		t.Fatalf("new notifications must start unread")
	}
	if _, _, err := svc.MarkNotificationRead(ctx, a.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if got := mustSelect(t, svc).UnreadCount(); got != 2 {
		t.Fatalf("expected 2 unread, got %d", got)
	}
	n, err := svc.MarkAllNotificationsRead(ctx)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 flipped, got %d (%v)", n, err)
	}
	if got := mustSelect(t, svc).UnreadCount(); got != 0 {
		t.Fatalf("expected 0 unread, got %d", got)
	}
}

func TestSubscribersSeeCommittedState(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	var calls atomic.Int32
	var lastCount atomic.Int32
	unsubscribe := svc.Subscribe(func(v domain.TransactionView) {
		calls.Add(1)
		lastCount.Store(int32(len(v.ListShipments())))
	})
	_, _, _ = svc.AddShipment(ctx, sampleShipment("T1"))
	_, _, _ = svc.AddShipment(ctx, sampleShipment("T2"))
	_, _ = svc.DeleteShipment(ctx, "SHP_0_missing")
	if calls.Load() != 2 || lastCount.Load() != 2 {
		t.Fatalf("expected 2 notifications with 2 shipments, got %d/%d", calls.Load(), lastCount.Load())
	}
	unsubscribe()
	_, _, _ = svc.AddShipment(ctx, sampleShipment("T3"))
	if calls.Load() != 2 {
		t.Fatalf("unsubscribed listener was called")
	}
}

func TestMetricsRecorderObservesOperations(t *testing.T) {
	rec := NewPrometheusMetricsRecorder(nil)
	svc, _ := newTestService(t, WithMetricsRecorder(rec))
	ctx := context.Background()
	_, _, _ = svc.AddShipment(ctx, sampleShipment("T1"))
	_, _ = svc.DeleteShipment(ctx, "SHP_0_missing")
	if got := testutil.ToFloat64(rec.Results().WithLabelValues("shipment.add", "success")); got != 1 {
		t.Fatalf("expected 1 successful add, got %v", got)
	}
	if got := testutil.ToFloat64(rec.Results().WithLabelValues("shipment.delete", "error")); got != 1 {
		t.Fatalf("expected 1 failed delete, got %v", got)
	}
}

func TestLogEntriesCarrySessionIdentity(t *testing.T) {
	var out bytes.Buffer
	store := NewInMemoryService(NewDefaultRulesEngine()).Store()
	log, err := logger.New(logger.Config{}, logger.WithConsoleWriter(&out), logger.WithIdentity(SessionIdentity(store)))
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	defer func() { _ = log.Close(context.Background()) }()
	svc := NewService(store, WithLogger(log), WithClock(func() time.Time { return time.Unix(1700000000, 0).UTC() }))
	ctx := context.Background()
	if !svc.Login(ctx, Credentials{Email: "ana@shipfin.test", Password: "pw", Role: domain.RoleAdmin}) {
		t.Fatalf("login failed")
	}
	sess, _ := svc.Session(ctx)
	out.Reset()
	_, _, _ = svc.AddClient(ctx, Client{Name: "Acme", Status: domain.ClientActive})
	if !strings.Contains(out.String(), "user_id="+sess.User.ID) || !strings.Contains(out.String(), "session_id="+sess.SessionID) {
		t.Fatalf("expected identity on log line: %s", out.String())
	}
	if !strings.HasPrefix(sess.User.ID, "USR_1700000000000_") {
		t.Fatalf("user id should use the service clock: %s", sess.User.ID)
	}
}
