package core

import (
	"context"
	"shipfin/internal/logger"
	"shipfin/pkg/domain"
)

// collection names one entity kind for the generic command helpers.
type collection[T any] struct {
	entity EntityType
	label  string
	idOf   func(T) string
}

var (
	shipments          = collection[Shipment]{EntityShipment, "Shipment", func(v Shipment) string { return v.ID }}
	clients            = collection[Client]{EntityClient, "Client", func(v Client) string { return v.ID }}
	tasks              = collection[Task]{EntityTask, "Task", func(v Task) string { return v.ID }}
	notifications      = collection[Notification]{EntityNotification, "Notification", func(v Notification) string { return v.ID }}
	vouchers           = collection[Voucher]{EntityVoucher, "Voucher", func(v Voucher) string { return v.ID }}
	warehouseItems     = collection[WarehouseItem]{EntityWarehouseItem, "Warehouse item", func(v WarehouseItem) string { return v.ID }}
	warehouseShipments = collection[WarehouseShipment]{EntityWarehouseShipment, "Warehouse shipment", func(v WarehouseShipment) string { return v.ID }}
	receiptVouchers    = collection[ReceiptVoucher]{EntityReceiptVoucher, "Receipt voucher", func(v ReceiptVoucher) string { return v.ID }}
	deliveryVouchers   = collection[DeliveryVoucher]{EntityDeliveryVoucher, "Delivery voucher", func(v DeliveryVoucher) string { return v.ID }}
)

func addRecord[T any](ctx context.Context, s *Service, c collection[T], input T, create func(domain.Transaction, T) (T, error)) (T, Result, error) {
	var created T
	res, err := s.run(ctx, string(c.entity)+".add", func(tx domain.Transaction) error {
		var err error
		created, err = create(tx, input)
		return err
	})
	fields := logger.Fields{"entity": string(c.entity)}
	if err == nil {
		fields["id"] = c.idOf(created)
	}
	s.logOutcome(ctx, c.label+" added", err, fields)
	return created, res, err
}

func updateRecord[T, P any](ctx context.Context, s *Service, c collection[T], id string, patch P,
	apply func(P, *T), update func(domain.Transaction, string, func(*T) error) (T, error)) (T, Result, error) {
	var updated T
	res, err := s.run(ctx, string(c.entity)+".update", func(tx domain.Transaction) error {
		var err error
		updated, err = update(tx, id, func(v *T) error {
			apply(patch, v)
			return nil
		})
		return err
	})
	s.logOutcome(ctx, c.label+" updated", err, logger.Fields{"entity": string(c.entity), "id": id, "changes": patch})
	return updated, res, err
}

func deleteRecord[T any](ctx context.Context, s *Service, c collection[T], id string, remove func(domain.Transaction, string) error) (Result, error) {
	res, err := s.run(ctx, string(c.entity)+".delete", func(tx domain.Transaction) error {
		return remove(tx, id)
	})
	s.logOutcome(ctx, c.label+" deleted", err, logger.Fields{"entity": string(c.entity), "id": id})
	return res, err
}

// AddShipment generates an id, stamps CreatedAt and prepends the shipment.
func (s *Service) AddShipment(ctx context.Context, shipment Shipment) (Shipment, Result, error) {
	return addRecord(ctx, s, shipments, shipment, domain.Transaction.CreateShipment)
}

// UpdateShipment merges the patch onto the shipment.
func (s *Service) UpdateShipment(ctx context.Context, id string, patch domain.ShipmentPatch) (Shipment, Result, error) {
	return updateRecord(ctx, s, shipments, id, patch, domain.ShipmentPatch.Apply, domain.Transaction.UpdateShipment)
}

// DeleteShipment removes a shipment.
func (s *Service) DeleteShipment(ctx context.Context, id string) (Result, error) {
	return deleteRecord(ctx, s, shipments, id, domain.Transaction.DeleteShipment)
}

// AddClient persists a new client.
func (s *Service) AddClient(ctx context.Context, client Client) (Client, Result, error) {
	return addRecord(ctx, s, clients, client, domain.Transaction.CreateClient)
}

// UpdateClient merges the patch onto the client.
func (s *Service) UpdateClient(ctx context.Context, id string, patch domain.ClientPatch) (Client, Result, error) {
	return updateRecord(ctx, s, clients, id, patch, domain.ClientPatch.Apply, domain.Transaction.UpdateClient)
}

// DeleteClient removes a client.
func (s *Service) DeleteClient(ctx context.Context, id string) (Result, error) {
	return deleteRecord(ctx, s, clients, id, domain.Transaction.DeleteClient)
}

// AddTask persists a new task.
func (s *Service) AddTask(ctx context.Context, task Task) (Task, Result, error) {
	return addRecord(ctx, s, tasks, task, domain.Transaction.CreateTask)
}

// UpdateTask merges the patch onto the task.
func (s *Service) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (Task, Result, error) {
	return updateRecord(ctx, s, tasks, id, patch, domain.TaskPatch.Apply, domain.Transaction.UpdateTask)
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, id string) (Result, error) {
	return deleteRecord(ctx, s, tasks, id, domain.Transaction.DeleteTask)
}

// AddNotification persists a new notification. New notifications are unread.
func (s *Service) AddNotification(ctx context.Context, n Notification) (Notification, Result, error) {
	n.Read = false
	return addRecord(ctx, s, notifications, n, domain.Transaction.CreateNotification)
}

// UpdateNotification merges the patch onto the notification.
func (s *Service) UpdateNotification(ctx context.Context, id string, patch domain.NotificationPatch) (Notification, Result, error) {
	return updateRecord(ctx, s, notifications, id, patch, domain.NotificationPatch.Apply, domain.Transaction.UpdateNotification)
}

// DeleteNotification removes a notification.
func (s *Service) DeleteNotification(ctx context.Context, id string) (Result, error) {
	return deleteRecord(ctx, s, notifications, id, domain.Transaction.DeleteNotification)
}

// MarkNotificationRead flips one notification to read.
func (s *Service) MarkNotificationRead(ctx context.Context, id string) (Notification, Result, error) {
	return s.UpdateNotification(ctx, id, domain.NotificationPatch{Read: domain.Ptr(true)})
}

// MarkAllNotificationsRead flips every unread notification and reports how
// many changed.
func (s *Service) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	var changed int
	_, err := s.run(ctx, "notification.mark_all_read", func(tx domain.Transaction) error {
		changed = tx.MarkAllNotificationsRead()
		return nil
	})
	s.logOutcome(ctx, "Notifications marked read", err, logger.Fields{"count": changed})
	return changed, err
}

// AddVoucher persists a new voucher. VoucherNumber mirrors the generated id.
func (s *Service) AddVoucher(ctx context.Context, v Voucher) (Voucher, Result, error) {
	created, res, err := addRecord(ctx, s, vouchers, v, domain.Transaction.CreateVoucher)
	if err == nil {
		s.log.LogFinancialOperation(ctx, "voucher created", created.Amount, created.Currency, logger.Fields{
			"voucherId": created.ID,
			"type":      string(created.Type),
		})
	}
	return created, res, err
}

// UpdateVoucher merges the patch onto the voucher.
func (s *Service) UpdateVoucher(ctx context.Context, id string, patch domain.VoucherPatch) (Voucher, Result, error) {
	return updateRecord(ctx, s, vouchers, id, patch, domain.VoucherPatch.Apply, domain.Transaction.UpdateVoucher)
}

// DeleteVoucher removes a voucher.
func (s *Service) DeleteVoucher(ctx context.Context, id string) (Result, error) {
	return deleteRecord(ctx, s, vouchers, id, domain.Transaction.DeleteVoucher)
}

// AddWarehouseItem persists a new item and stamps LastUpdated.
func (s *Service) AddWarehouseItem(ctx context.Context, item WarehouseItem) (WarehouseItem, Result, error) {
	return addRecord(ctx, s, warehouseItems, item, domain.Transaction.CreateWarehouseItem)
}

// UpdateWarehouseItem merges the patch onto the item and refreshes LastUpdated.
func (s *Service) UpdateWarehouseItem(ctx context.Context, id string, patch domain.WarehouseItemPatch) (WarehouseItem, Result, error) {
	return updateRecord(ctx, s, warehouseItems, id, patch, domain.WarehouseItemPatch.Apply, domain.Transaction.UpdateWarehouseItem)
}

// DeleteWarehouseItem removes an item.
func (s *Service) DeleteWarehouseItem(ctx context.Context, id string) (Result, error) {
	return deleteRecord(ctx, s, warehouseItems, id, domain.Transaction.DeleteWarehouseItem)
}

// AddWarehouseShipment persists a warehouse movement.
func (s *Service) AddWarehouseShipment(ctx context.Context, ws WarehouseShipment) (WarehouseShipment, Result, error) {
	return addRecord(ctx, s, warehouseShipments, ws, domain.Transaction.CreateWarehouseShipment)
}

// UpdateWarehouseShipment merges the patch onto the movement.
func (s *Service) UpdateWarehouseShipment(ctx context.Context, id string, patch domain.WarehouseShipmentPatch) (WarehouseShipment, Result, error) {
	return updateRecord(ctx, s, warehouseShipments, id, patch, domain.WarehouseShipmentPatch.Apply, domain.Transaction.UpdateWarehouseShipment)
}

// DeleteWarehouseShipment removes a warehouse movement.
func (s *Service) DeleteWarehouseShipment(ctx context.Context, id string) (Result, error) {
	return deleteRecord(ctx, s, warehouseShipments, id, domain.Transaction.DeleteWarehouseShipment)
}

// AddReceiptVoucher persists a goods receipt.
func (s *Service) AddReceiptVoucher(ctx context.Context, rv ReceiptVoucher) (ReceiptVoucher, Result, error) {
	return addRecord(ctx, s, receiptVouchers, rv, domain.Transaction.CreateReceiptVoucher)
}

// UpdateReceiptVoucher merges the patch onto the receipt.
func (s *Service) UpdateReceiptVoucher(ctx context.Context, id string, patch domain.ReceiptVoucherPatch) (ReceiptVoucher, Result, error) {
	return updateRecord(ctx, s, receiptVouchers, id, patch, domain.ReceiptVoucherPatch.Apply, domain.Transaction.UpdateReceiptVoucher)
}

// DeleteReceiptVoucher removes a receipt.
func (s *Service) DeleteReceiptVoucher(ctx context.Context, id string) (Result, error) {
	return deleteRecord(ctx, s, receiptVouchers, id, domain.Transaction.DeleteReceiptVoucher)
}

// AddDeliveryVoucher persists a goods delivery document.
func (s *Service) AddDeliveryVoucher(ctx context.Context, dv DeliveryVoucher) (DeliveryVoucher, Result, error) {
	return addRecord(ctx, s, deliveryVouchers, dv, domain.Transaction.CreateDeliveryVoucher)
}

// UpdateDeliveryVoucher merges the patch onto the delivery document.
func (s *Service) UpdateDeliveryVoucher(ctx context.Context, id string, patch domain.DeliveryVoucherPatch) (DeliveryVoucher, Result, error) {
	return updateRecord(ctx, s, deliveryVouchers, id, patch, domain.DeliveryVoucherPatch.Apply, domain.Transaction.UpdateDeliveryVoucher)
}

// DeleteDeliveryVoucher removes a delivery document.
func (s *Service) DeleteDeliveryVoucher(ctx context.Context, id string) (Result, error) {
	return deleteRecord(ctx, s, deliveryVouchers, id, domain.Transaction.DeleteDeliveryVoucher)
}
