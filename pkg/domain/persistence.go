package domain

import (
	"context"
	"fmt"
)

// Transaction exposes the mutations a store must support within one atomic
// scope. Create prepends to the collection (newest first); Update and Delete
// return ErrNotFound when the id is absent.
type Transaction interface {
	Snapshot() TransactionView

	CreateShipment(Shipment) (Shipment, error)
	UpdateShipment(id string, mutator func(*Shipment) error) (Shipment, error)
	DeleteShipment(id string) error
	FindShipment(id string) (Shipment, bool)

	CreateClient(Client) (Client, error)
	UpdateClient(id string, mutator func(*Client) error) (Client, error)
	DeleteClient(id string) error

	CreateTask(Task) (Task, error)
	UpdateTask(id string, mutator func(*Task) error) (Task, error)
	DeleteTask(id string) error

	CreateNotification(Notification) (Notification, error)
	UpdateNotification(id string, mutator func(*Notification) error) (Notification, error)
	DeleteNotification(id string) error
	MarkAllNotificationsRead() int

	CreateVoucher(Voucher) (Voucher, error)
	UpdateVoucher(id string, mutator func(*Voucher) error) (Voucher, error)
	DeleteVoucher(id string) error
	FindVoucher(id string) (Voucher, bool)

	CreateWarehouseItem(WarehouseItem) (WarehouseItem, error)
	UpdateWarehouseItem(id string, mutator func(*WarehouseItem) error) (WarehouseItem, error)
	DeleteWarehouseItem(id string) error
	FindWarehouseItem(id string) (WarehouseItem, bool)

	CreateWarehouseShipment(WarehouseShipment) (WarehouseShipment, error)
	UpdateWarehouseShipment(id string, mutator func(*WarehouseShipment) error) (WarehouseShipment, error)
	DeleteWarehouseShipment(id string) error

	CreateReceiptVoucher(ReceiptVoucher) (ReceiptVoucher, error)
	UpdateReceiptVoucher(id string, mutator func(*ReceiptVoucher) error) (ReceiptVoucher, error)
	DeleteReceiptVoucher(id string) error

	CreateDeliveryVoucher(DeliveryVoucher) (DeliveryVoucher, error)
	UpdateDeliveryVoucher(id string, mutator func(*DeliveryVoucher) error) (DeliveryVoucher, error)
	DeleteDeliveryVoucher(id string) error

	Session() Session
	UpdateSession(mutator func(*Session)) Session
}

// TransactionView provides read-only access to snapshot data for rules and
// selectors. List methods return newest-first copies.
type TransactionView interface {
	ListShipments() []Shipment
	ListClients() []Client
	ListTasks() []Task
	ListNotifications() []Notification
	ListVouchers() []Voucher
	ListWarehouseItems() []WarehouseItem
	ListWarehouseShipments() []WarehouseShipment
	ListReceiptVouchers() []ReceiptVoucher
	ListDeliveryVouchers() []DeliveryVoucher
	FindShipment(id string) (Shipment, bool)
	FindVoucher(id string) (Voucher, bool)
	FindWarehouseItem(id string) (WarehouseItem, bool)
	Session() Session
}

// PersistentStore is the state container used by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	Subscribe(fn func(TransactionView)) (unsubscribe func())
}

// SessionStorage is a named key-value slot holding the persisted session
// subset. Get returns (nil, false, nil) when the key was never written.
type SessionStorage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, payload []byte) error
}

// ErrNotFound is returned when an update or delete targets a missing record.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
