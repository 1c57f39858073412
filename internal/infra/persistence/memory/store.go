// Package memory provides the in-memory transactional state container that
// backs the shipfin service. Every transaction works on a cloned copy of the
// state and commits by swapping the clone in, so readers never observe a
// partially applied change.
package memory

import (
	"context"
	"fmt"
	"shipfin/pkg/domain"
	"sync"
	"time"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Shipment aliases domain.Shipment for in-memory persistence operations.
	Shipment = domain.Shipment
	// Client aliases domain.Client.
	Client = domain.Client
	// Task aliases domain.Task.
	Task = domain.Task
	// Notification aliases domain.Notification.
	Notification = domain.Notification
	// Voucher aliases domain.Voucher.
	Voucher = domain.Voucher
	// WarehouseItem aliases domain.WarehouseItem.
	WarehouseItem = domain.WarehouseItem
	// WarehouseShipment aliases domain.WarehouseShipment.
	WarehouseShipment = domain.WarehouseShipment
	// ReceiptVoucher aliases domain.ReceiptVoucher.
	ReceiptVoucher = domain.ReceiptVoucher
	// DeliveryVoucher aliases domain.DeliveryVoucher.
	DeliveryVoucher = domain.DeliveryVoucher
	// Session aliases domain.Session.
	Session = domain.Session
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// memoryState keeps every collection newest first.
type memoryState struct {
	shipments          []Shipment
	clients            []Client
	tasks              []Task
	notifications      []Notification
	vouchers           []Voucher
	warehouseItems     []WarehouseItem
	warehouseShipments []WarehouseShipment
	receiptVouchers    []ReceiptVoucher
	deliveryVouchers   []DeliveryVoucher
	session            Session
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Shipments          []Shipment          `json:"shipments"`
	Clients            []Client            `json:"clients"`
	Tasks              []Task              `json:"tasks"`
	Notifications      []Notification      `json:"notifications"`
	Vouchers           []Voucher           `json:"vouchers"`
	WarehouseItems     []WarehouseItem     `json:"warehouse_items"`
	WarehouseShipments []WarehouseShipment `json:"warehouse_shipments"`
	ReceiptVouchers    []ReceiptVoucher    `json:"receipt_vouchers"`
	DeliveryVouchers   []DeliveryVoucher   `json:"delivery_vouchers"`
	Session            Session             `json:"session"`
}

func newMemoryState() memoryState {
	return memoryState{session: domain.DefaultSession()}
}

func (s memoryState) clone() memoryState {
	return memoryState{
		shipments:          cloneSlice(s.shipments, cloneShipment),
		clients:            cloneSlice(s.clients, cloneClient),
		tasks:              cloneSlice(s.tasks, cloneTask),
		notifications:      cloneSlice(s.notifications, cloneNotification),
		vouchers:           cloneSlice(s.vouchers, cloneVoucher),
		warehouseItems:     cloneSlice(s.warehouseItems, cloneWarehouseItem),
		warehouseShipments: cloneSlice(s.warehouseShipments, cloneWarehouseShipment),
		receiptVouchers:    cloneSlice(s.receiptVouchers, cloneReceiptVoucher),
		deliveryVouchers:   cloneSlice(s.deliveryVouchers, cloneDeliveryVoucher),
		session:            s.session.Clone(),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	c := state.clone()
	return Snapshot{
		Shipments:          c.shipments,
		Clients:            c.clients,
		Tasks:              c.tasks,
		Notifications:      c.notifications,
		Vouchers:           c.vouchers,
		WarehouseItems:     c.warehouseItems,
		WarehouseShipments: c.warehouseShipments,
		ReceiptVouchers:    c.receiptVouchers,
		DeliveryVouchers:   c.deliveryVouchers,
		Session:            c.session,
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := memoryState{
		shipments:          s.Shipments,
		clients:            s.Clients,
		tasks:              s.Tasks,
		notifications:      s.Notifications,
		vouchers:           s.Vouchers,
		warehouseItems:     s.WarehouseItems,
		warehouseShipments: s.WarehouseShipments,
		receiptVouchers:    s.ReceiptVouchers,
		deliveryVouchers:   s.DeliveryVouchers,
		session:            s.Session,
	}
	if state.session.Theme == "" {
		state.session.Theme = domain.ThemeLight
	}
	return state.clone()
}

func cloneSlice[T any](in []T, cloneFn func(T) T) []T {
	if len(in) == 0 {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = cloneFn(v)
	}
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneShipment(s Shipment) Shipment { return s }
func cloneClient(c Client) Client       { return c }
func cloneTask(t Task) Task {
	cp := t
	cp.ShipmentID = cloneStringPtr(t.ShipmentID)
	return cp
}
func cloneNotification(n Notification) Notification { return n }
func cloneVoucher(v Voucher) Voucher {
	cp := v
	cp.ShipmentID = cloneStringPtr(v.ShipmentID)
	if v.PaymentMethod != nil {
		m := *v.PaymentMethod
		cp.PaymentMethod = &m
	}
	return cp
}
func cloneWarehouseItem(w WarehouseItem) WarehouseItem { return w }
func cloneWarehouseShipment(w WarehouseShipment) WarehouseShipment {
	cp := w
	cp.Items = append([]domain.LineItem(nil), w.Items...)
	return cp
}
func cloneReceiptVoucher(r ReceiptVoucher) ReceiptVoucher {
	cp := r
	cp.Items = append([]domain.LineItem(nil), r.Items...)
	return cp
}
func cloneDeliveryVoucher(d DeliveryVoucher) DeliveryVoucher {
	cp := d
	cp.Items = append([]domain.LineItem(nil), d.Items...)
	return cp
}

// Store provides an in-memory transactional store for the shipfin domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time

	subMu       sync.Mutex
	subscribers map[int]func(TransactionView)
	nextSubID   int
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:       newMemoryState(),
		engine:      engine,
		nowFn:       func() time.Time { return time.Now().UTC() },
		subscribers: make(map[int]func(TransactionView)),
	}
}

// SetNowFunc overrides the clock used for ids and timestamps.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

// NowFunc exposes the clock used for ids and timestamps.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the live state only when fn succeeds and no blocking rule
// violation is reported.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()

	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		s.mu.Unlock()
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, newTransactionView(&tx.state), tx.changes)
		if err != nil {
			s.mu.Unlock()
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			s.mu.Unlock()
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	committed := s.state.clone()
	s.mu.Unlock()

	if len(tx.changes) > 0 {
		s.notify(committed)
	}
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(newTransactionView(&snapshot))
}

// Subscribe registers fn to receive the committed state after every
// transaction that recorded at least one change.
func (s *Store) Subscribe(fn func(TransactionView)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) notify(state memoryState) {
	s.subMu.Lock()
	fns := make([]func(TransactionView), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		snapshot := state.clone()
		fn(newTransactionView(&snapshot))
	}
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	state   memoryState
	changes []Change
	now     time.Time
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// Session returns the transactional session flags.
func (tx *transaction) Session() Session {
	return tx.state.session.Clone()
}

// UpdateSession mutates the session flags. A change is recorded only when a
// persisted field actually changed.
func (tx *transaction) UpdateSession(mutator func(*Session)) Session {
	before := tx.state.session.Clone()
	current := before.Clone()
	mutator(&current)
	tx.state.session = current.Clone()
	if !before.Equal(current) || before.SessionID != current.SessionID {
		tx.recordChange(Change{Entity: domain.EntitySession, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	}
	return current.Clone()
}

// --- generic collection helpers ---

func indexByID[T any](items []T, id string, idOf func(T) string) int {
	for i, item := range items {
		if idOf(item) == id {
			return i
		}
	}
	return -1
}

func prepend[T any](items []T, v T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, v)
	return append(out, items...)
}

func removeAt[T any](items []T, i int) []T {
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}

// collectionOps bundles the per-entity plumbing shared by create, update and
// delete.
type collectionOps[T any] struct {
	entity  domain.EntityType
	prefix  string
	items   func(*memoryState) *[]T
	idOf    func(T) string
	setID   func(*T, string)
	stamp   func(*T, time.Time)
	cloneFn func(T) T
}

func (c collectionOps[T]) create(tx *transaction, v T) (T, error) {
	var zero T
	items := c.items(&tx.state)
	id := c.idOf(v)
	if id == "" {
		id = domain.NewID(c.prefix, tx.now)
		c.setID(&v, id)
	}
	if indexByID(*items, id, c.idOf) >= 0 {
		return zero, fmt.Errorf("%s %q already exists", c.entity, id)
	}
	c.stamp(&v, tx.now)
	*items = prepend(*items, c.cloneFn(v))
	tx.recordChange(Change{Entity: c.entity, Action: domain.ActionCreate, EntityID: id, After: c.cloneFn(v)})
	return c.cloneFn(v), nil
}

func (c collectionOps[T]) update(tx *transaction, id string, mutator func(*T) error) (T, error) {
	var zero T
	items := c.items(&tx.state)
	i := indexByID(*items, id, c.idOf)
	if i < 0 {
		return zero, domain.ErrNotFound{Entity: c.entity, ID: id}
	}
	before := c.cloneFn((*items)[i])
	current := c.cloneFn((*items)[i])
	if err := mutator(&current); err != nil {
		return zero, err
	}
	c.setID(&current, id)
	(*items)[i] = c.cloneFn(current)
	tx.recordChange(Change{Entity: c.entity, Action: domain.ActionUpdate, EntityID: id, Before: before, After: c.cloneFn(current)})
	return c.cloneFn(current), nil
}

func (c collectionOps[T]) remove(tx *transaction, id string) error {
	items := c.items(&tx.state)
	i := indexByID(*items, id, c.idOf)
	if i < 0 {
		return domain.ErrNotFound{Entity: c.entity, ID: id}
	}
	before := c.cloneFn((*items)[i])
	*items = removeAt(*items, i)
	tx.recordChange(Change{Entity: c.entity, Action: domain.ActionDelete, EntityID: id, Before: before})
	return nil
}

func (c collectionOps[T]) find(state *memoryState, id string) (T, bool) {
	var zero T
	items := c.items(state)
	i := indexByID(*items, id, c.idOf)
	if i < 0 {
		return zero, false
	}
	return c.cloneFn((*items)[i]), true
}

func (c collectionOps[T]) list(state *memoryState) []T {
	items := *c.items(state)
	out := make([]T, len(items))
	for i, v := range items {
		out[i] = c.cloneFn(v)
	}
	return out
}

var (
	shipmentOps = collectionOps[Shipment]{
		entity:  domain.EntityShipment,
		prefix:  domain.PrefixShipment,
		items:   func(s *memoryState) *[]Shipment { return &s.shipments },
		idOf:    func(v Shipment) string { return v.ID },
		setID:   func(v *Shipment, id string) { v.ID = id },
		stamp:   func(v *Shipment, now time.Time) { v.CreatedAt = now },
		cloneFn: cloneShipment,
	}
	clientOps = collectionOps[Client]{
		entity:  domain.EntityClient,
		prefix:  domain.PrefixClient,
		items:   func(s *memoryState) *[]Client { return &s.clients },
		idOf:    func(v Client) string { return v.ID },
		setID:   func(v *Client, id string) { v.ID = id },
		stamp:   func(v *Client, now time.Time) { v.CreatedAt = now },
		cloneFn: cloneClient,
	}
	taskOps = collectionOps[Task]{
		entity:  domain.EntityTask,
		prefix:  domain.PrefixTask,
		items:   func(s *memoryState) *[]Task { return &s.tasks },
		idOf:    func(v Task) string { return v.ID },
		setID:   func(v *Task, id string) { v.ID = id },
		stamp:   func(v *Task, now time.Time) { v.CreatedAt = now },
		cloneFn: cloneTask,
	}
	notificationOps = collectionOps[Notification]{
		entity:  domain.EntityNotification,
		prefix:  domain.PrefixNotification,
		items:   func(s *memoryState) *[]Notification { return &s.notifications },
		idOf:    func(v Notification) string { return v.ID },
		setID:   func(v *Notification, id string) { v.ID = id },
		stamp:   func(v *Notification, now time.Time) { v.CreatedAt = now },
		cloneFn: cloneNotification,
	}
	voucherOps = collectionOps[Voucher]{
		entity: domain.EntityVoucher,
		prefix: domain.PrefixVoucher,
		items:  func(s *memoryState) *[]Voucher { return &s.vouchers },
		idOf:   func(v Voucher) string { return v.ID },
		setID: func(v *Voucher, id string) {
			v.ID = id
			v.VoucherNumber = id
		},
		stamp: func(v *Voucher, now time.Time) {
			if v.Date.IsZero() {
				v.Date = now
			}
		},
		cloneFn: cloneVoucher,
	}
	warehouseItemOps = collectionOps[WarehouseItem]{
		entity:  domain.EntityWarehouseItem,
		prefix:  domain.PrefixWarehouseItem,
		items:   func(s *memoryState) *[]WarehouseItem { return &s.warehouseItems },
		idOf:    func(v WarehouseItem) string { return v.ID },
		setID:   func(v *WarehouseItem, id string) { v.ID = id },
		stamp:   func(v *WarehouseItem, now time.Time) { v.LastUpdated = now },
		cloneFn: cloneWarehouseItem,
	}
	warehouseShipmentOps = collectionOps[WarehouseShipment]{
		entity:  domain.EntityWarehouseShipment,
		prefix:  domain.PrefixWarehouseShipment,
		items:   func(s *memoryState) *[]WarehouseShipment { return &s.warehouseShipments },
		idOf:    func(v WarehouseShipment) string { return v.ID },
		setID:   func(v *WarehouseShipment, id string) { v.ID = id },
		stamp:   func(v *WarehouseShipment, now time.Time) { v.CreatedAt = now },
		cloneFn: cloneWarehouseShipment,
	}
	receiptVoucherOps = collectionOps[ReceiptVoucher]{
		entity:  domain.EntityReceiptVoucher,
		prefix:  domain.PrefixReceiptVoucher,
		items:   func(s *memoryState) *[]ReceiptVoucher { return &s.receiptVouchers },
		idOf:    func(v ReceiptVoucher) string { return v.ID },
		setID:   func(v *ReceiptVoucher, id string) { v.ID = id },
		stamp:   func(v *ReceiptVoucher, now time.Time) { v.CreatedAt = now },
		cloneFn: cloneReceiptVoucher,
	}
	deliveryVoucherOps = collectionOps[DeliveryVoucher]{
		entity:  domain.EntityDeliveryVoucher,
		prefix:  domain.PrefixDeliveryVoucher,
		items:   func(s *memoryState) *[]DeliveryVoucher { return &s.deliveryVouchers },
		idOf:    func(v DeliveryVoucher) string { return v.ID },
		setID:   func(v *DeliveryVoucher, id string) { v.ID = id },
		stamp:   func(v *DeliveryVoucher, now time.Time) { v.CreatedAt = now },
		cloneFn: cloneDeliveryVoucher,
	}
)

// CreateShipment prepends a new shipment.
func (tx *transaction) CreateShipment(s Shipment) (Shipment, error) {
	return shipmentOps.create(tx, s)
}

// UpdateShipment mutates a shipment using the provided mutator function.
func (tx *transaction) UpdateShipment(id string, mutator func(*Shipment) error) (Shipment, error) {
	return shipmentOps.update(tx, id, mutator)
}

// DeleteShipment removes a shipment.
func (tx *transaction) DeleteShipment(id string) error { return shipmentOps.remove(tx, id) }

// FindShipment exposes shipment lookup within the transaction scope.
func (tx *transaction) FindShipment(id string) (Shipment, bool) {
	return shipmentOps.find(&tx.state, id)
}

// CreateClient prepends a new client.
func (tx *transaction) CreateClient(c Client) (Client, error) { return clientOps.create(tx, c) }

// UpdateClient mutates a client.
func (tx *transaction) UpdateClient(id string, mutator func(*Client) error) (Client, error) {
	return clientOps.update(tx, id, mutator)
}

// DeleteClient removes a client.
func (tx *transaction) DeleteClient(id string) error { return clientOps.remove(tx, id) }

// CreateTask prepends a new task.
func (tx *transaction) CreateTask(t Task) (Task, error) { return taskOps.create(tx, t) }

// UpdateTask mutates a task.
func (tx *transaction) UpdateTask(id string, mutator func(*Task) error) (Task, error) {
	return taskOps.update(tx, id, mutator)
}

// DeleteTask removes a task.
func (tx *transaction) DeleteTask(id string) error { return taskOps.remove(tx, id) }

// CreateNotification prepends a new notification.
func (tx *transaction) CreateNotification(n Notification) (Notification, error) {
	return notificationOps.create(tx, n)
}

// UpdateNotification mutates a notification.
func (tx *transaction) UpdateNotification(id string, mutator func(*Notification) error) (Notification, error) {
	return notificationOps.update(tx, id, mutator)
}

// DeleteNotification removes a notification.
func (tx *transaction) DeleteNotification(id string) error { return notificationOps.remove(tx, id) }

// MarkAllNotificationsRead flips every unread notification and returns how
// many changed.
func (tx *transaction) MarkAllNotificationsRead() int {
	changed := 0
	for i, n := range tx.state.notifications {
		if n.Read {
			continue
		}
		before := n
		n.Read = true
		tx.state.notifications[i] = n
		tx.recordChange(Change{Entity: domain.EntityNotification, Action: domain.ActionUpdate, EntityID: n.ID, Before: before, After: n})
		changed++
	}
	return changed
}

// CreateVoucher prepends a new voucher. VoucherNumber mirrors the id.
func (tx *transaction) CreateVoucher(v Voucher) (Voucher, error) { return voucherOps.create(tx, v) }

// UpdateVoucher mutates a voucher.
func (tx *transaction) UpdateVoucher(id string, mutator func(*Voucher) error) (Voucher, error) {
	return voucherOps.update(tx, id, mutator)
}

// DeleteVoucher removes a voucher.
func (tx *transaction) DeleteVoucher(id string) error { return voucherOps.remove(tx, id) }

// FindVoucher exposes voucher lookup within the transaction scope.
func (tx *transaction) FindVoucher(id string) (Voucher, bool) {
	return voucherOps.find(&tx.state, id)
}

// CreateWarehouseItem prepends a new warehouse item.
func (tx *transaction) CreateWarehouseItem(w WarehouseItem) (WarehouseItem, error) {
	return warehouseItemOps.create(tx, w)
}

// UpdateWarehouseItem mutates a warehouse item and refreshes LastUpdated.
func (tx *transaction) UpdateWarehouseItem(id string, mutator func(*WarehouseItem) error) (WarehouseItem, error) {
	return warehouseItemOps.update(tx, id, func(w *WarehouseItem) error {
		if err := mutator(w); err != nil {
			return err
		}
		w.LastUpdated = tx.now
		return nil
	})
}

// DeleteWarehouseItem removes a warehouse item.
func (tx *transaction) DeleteWarehouseItem(id string) error { return warehouseItemOps.remove(tx, id) }

// FindWarehouseItem exposes item lookup within the transaction scope.
func (tx *transaction) FindWarehouseItem(id string) (WarehouseItem, bool) {
	return warehouseItemOps.find(&tx.state, id)
}

// CreateWarehouseShipment prepends a new warehouse shipment.
func (tx *transaction) CreateWarehouseShipment(w WarehouseShipment) (WarehouseShipment, error) {
	return warehouseShipmentOps.create(tx, w)
}

// UpdateWarehouseShipment mutates a warehouse shipment.
func (tx *transaction) UpdateWarehouseShipment(id string, mutator func(*WarehouseShipment) error) (WarehouseShipment, error) {
	return warehouseShipmentOps.update(tx, id, mutator)
}

// DeleteWarehouseShipment removes a warehouse shipment.
func (tx *transaction) DeleteWarehouseShipment(id string) error {
	return warehouseShipmentOps.remove(tx, id)
}

// CreateReceiptVoucher prepends a new receipt voucher.
func (tx *transaction) CreateReceiptVoucher(r ReceiptVoucher) (ReceiptVoucher, error) {
	return receiptVoucherOps.create(tx, r)
}

// UpdateReceiptVoucher mutates a receipt voucher.
func (tx *transaction) UpdateReceiptVoucher(id string, mutator func(*ReceiptVoucher) error) (ReceiptVoucher, error) {
	return receiptVoucherOps.update(tx, id, mutator)
}

// DeleteReceiptVoucher removes a receipt voucher.
func (tx *transaction) DeleteReceiptVoucher(id string) error { return receiptVoucherOps.remove(tx, id) }

// CreateDeliveryVoucher prepends a new delivery voucher.
func (tx *transaction) CreateDeliveryVoucher(d DeliveryVoucher) (DeliveryVoucher, error) {
	return deliveryVoucherOps.create(tx, d)
}

// UpdateDeliveryVoucher mutates a delivery voucher.
func (tx *transaction) UpdateDeliveryVoucher(id string, mutator func(*DeliveryVoucher) error) (DeliveryVoucher, error) {
	return deliveryVoucherOps.update(tx, id, mutator)
}

// DeleteDeliveryVoucher removes a delivery voucher.
func (tx *transaction) DeleteDeliveryVoucher(id string) error {
	return deliveryVoucherOps.remove(tx, id)
}

// transactionView exposes a read-only snapshot of the transactional state.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) ListShipments() []Shipment { return shipmentOps.list(v.state) }
func (v transactionView) ListClients() []Client     { return clientOps.list(v.state) }
func (v transactionView) ListTasks() []Task         { return taskOps.list(v.state) }
func (v transactionView) ListNotifications() []Notification {
	return notificationOps.list(v.state)
}
func (v transactionView) ListVouchers() []Voucher { return voucherOps.list(v.state) }
func (v transactionView) ListWarehouseItems() []WarehouseItem {
	return warehouseItemOps.list(v.state)
}
func (v transactionView) ListWarehouseShipments() []WarehouseShipment {
	return warehouseShipmentOps.list(v.state)
}
func (v transactionView) ListReceiptVouchers() []ReceiptVoucher {
	return receiptVoucherOps.list(v.state)
}
func (v transactionView) ListDeliveryVouchers() []DeliveryVoucher {
	return deliveryVoucherOps.list(v.state)
}

// FindShipment retrieves a shipment by ID from the snapshot.
func (v transactionView) FindShipment(id string) (Shipment, bool) {
	return shipmentOps.find(v.state, id)
}

// FindVoucher retrieves a voucher by ID from the snapshot.
func (v transactionView) FindVoucher(id string) (Voucher, bool) {
	return voucherOps.find(v.state, id)
}

// FindWarehouseItem retrieves a warehouse item by ID from the snapshot.
func (v transactionView) FindWarehouseItem(id string) (WarehouseItem, bool) {
	return warehouseItemOps.find(v.state, id)
}

// Session returns the snapshot session flags.
func (v transactionView) Session() Session { return v.state.session.Clone() }
