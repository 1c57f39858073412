package core

import (
	"context"
	"fmt"
	"shipfin/internal/logger"
	"shipfin/pkg/domain"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used by workflows when the shipment is unknown.
const DefaultCurrency = "USD"

// PaymentReviewDue is how long finance has to review a generated payment voucher.
const PaymentReviewDue = 24 * time.Hour

// PaymentVoucherResult holds the records written by GeneratePaymentVoucher.
type PaymentVoucherResult struct {
	Voucher      Voucher
	Task         Task
	Notification Notification
}

// ReceiptVoucherResult holds the records written by GenerateReceiptVoucher.
type ReceiptVoucherResult struct {
	Receipt           ReceiptVoucher
	WarehouseShipment WarehouseShipment
	Notification      Notification
}

// DeliveryVoucherResult holds the records written by GenerateDeliveryVoucher.
type DeliveryVoucherResult struct {
	Delivery     DeliveryVoucher
	Voucher      Voucher
	Notification Notification
}

func notify(tx domain.Transaction, typ domain.NotificationType, title, message string) (Notification, error) {
	return tx.CreateNotification(Notification{Title: title, Message: message, Type: typ})
}

func shipmentCurrency(tx domain.Transaction, shipmentID string) string {
	if sh, ok := tx.FindShipment(shipmentID); ok && sh.Currency != "" {
		return sh.Currency
	}
	return DefaultCurrency
}

// GeneratePaymentVoucher writes a pending payment voucher, a review task and
// a notification for the shipment in one transaction.
func (s *Service) GeneratePaymentVoucher(ctx context.Context, shipmentID string, amount decimal.Decimal, method domain.PaymentMethod) (PaymentVoucherResult, Result, error) {
	var out PaymentVoucherResult
	due := s.now().Add(PaymentReviewDue)
	res, err := s.run(ctx, "workflow.payment_voucher", func(tx domain.Transaction) error {
		var err error
		out.Voucher, err = tx.CreateVoucher(Voucher{
			Type:          domain.VoucherPayment,
			Amount:        amount,
			Currency:      shipmentCurrency(tx, shipmentID),
			Description:   fmt.Sprintf("Payment for shipment %s", shipmentID),
			Status:        domain.VoucherPending,
			ShipmentID:    domain.Ptr(shipmentID),
			PaymentMethod: domain.Ptr(method),
		})
		if err != nil {
			return err
		}
		out.Task, err = tx.CreateTask(Task{
			Title:       fmt.Sprintf("Review payment voucher %s", out.Voucher.VoucherNumber),
			Description: fmt.Sprintf("Verify the %s payment of %s %s for shipment %s", method, amount, out.Voucher.Currency, shipmentID),
			Status:      domain.TaskPending,
			Priority:    domain.PriorityHigh,
			AssignedTo:  "finance",
			DueDate:     due,
			ShipmentID:  domain.Ptr(shipmentID),
		})
		if err != nil {
			return err
		}
		out.Notification, err = notify(tx, domain.NotificationInfo, "Payment voucher generated",
			fmt.Sprintf("Payment voucher %s created for shipment %s", out.Voucher.VoucherNumber, shipmentID))
		return err
	})
	if err != nil {
		s.logOutcome(ctx, "Payment voucher generation", err, logger.Fields{"shipmentId": shipmentID})
		return PaymentVoucherResult{}, res, err
	}
	s.log.LogFinancialOperation(ctx, "payment voucher generated", amount, out.Voucher.Currency, logger.Fields{
		"shipmentId":    shipmentID,
		"voucherId":     out.Voucher.ID,
		"taskId":        out.Task.ID,
		"paymentMethod": string(method),
	})
	return out, res, nil
}

// GenerateReceiptVoucher writes a receipt, an inbound warehouse movement and
// a notification for the shipment in one transaction.
func (s *Service) GenerateReceiptVoucher(ctx context.Context, shipmentID string, items []LineItem, receivedBy string) (ReceiptVoucherResult, Result, error) {
	var out ReceiptVoucherResult
	res, err := s.run(ctx, "workflow.receipt_voucher", func(tx domain.Transaction) error {
		var err error
		out.Receipt, err = tx.CreateReceiptVoucher(ReceiptVoucher{
			ShipmentID: shipmentID,
			Items:      items,
			ReceivedBy: receivedBy,
		})
		if err != nil {
			return err
		}
		out.WarehouseShipment, err = tx.CreateWarehouseShipment(WarehouseShipment{
			ShipmentID: shipmentID,
			Items:      items,
			Status:     domain.WarehouseInbound,
			Location:   "receiving",
		})
		if err != nil {
			return err
		}
		out.Notification, err = notify(tx, domain.NotificationSuccess, "Goods received",
			fmt.Sprintf("Receipt voucher %s recorded for shipment %s", out.Receipt.ID, shipmentID))
		return err
	})
	s.logOutcome(ctx, "Receipt voucher generated", err, logger.Fields{
		"shipmentId": shipmentID,
		"receiptId":  out.Receipt.ID,
		"items":      len(items),
		"receivedBy": receivedBy,
	})
	if err != nil {
		return ReceiptVoucherResult{}, res, err
	}
	return out, res, nil
}

// GenerateDeliveryVoucher writes a delivery document, a zero-amount delivery
// voucher and a notification for the shipment in one transaction.
func (s *Service) GenerateDeliveryVoucher(ctx context.Context, shipmentID string, items []LineItem, deliveredTo string) (DeliveryVoucherResult, Result, error) {
	var out DeliveryVoucherResult
	res, err := s.run(ctx, "workflow.delivery_voucher", func(tx domain.Transaction) error {
		var err error
		out.Delivery, err = tx.CreateDeliveryVoucher(DeliveryVoucher{
			ShipmentID:  shipmentID,
			Items:       items,
			DeliveredTo: deliveredTo,
		})
		if err != nil {
			return err
		}
		out.Voucher, err = tx.CreateVoucher(Voucher{
			Type:        domain.VoucherDelivery,
			Amount:      decimal.Zero,
			Currency:    shipmentCurrency(tx, shipmentID),
			Description: fmt.Sprintf("Delivery of shipment %s to %s", shipmentID, deliveredTo),
			Status:      domain.VoucherDraft,
			ShipmentID:  domain.Ptr(shipmentID),
		})
		if err != nil {
			return err
		}
		out.Notification, err = notify(tx, domain.NotificationSuccess, "Goods delivered",
			fmt.Sprintf("Delivery voucher %s recorded for shipment %s", out.Delivery.ID, shipmentID))
		return err
	})
	s.logOutcome(ctx, "Delivery voucher generated", err, logger.Fields{
		"shipmentId":  shipmentID,
		"deliveryId":  out.Delivery.ID,
		"voucherId":   out.Voucher.ID,
		"deliveredTo": deliveredTo,
	})
	if err != nil {
		return DeliveryVoucherResult{}, res, err
	}
	return out, res, nil
}

// UpdateShipmentStatus sets the status, applies the status→progress table and
// adds a notification.
func (s *Service) UpdateShipmentStatus(ctx context.Context, shipmentID string, status domain.ShipmentStatus) (Shipment, Result, error) {
	var updated Shipment
	res, err := s.run(ctx, "workflow.shipment_status", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateShipment(shipmentID, func(sh *Shipment) error {
			sh.Status = status
			if progress, ok := domain.ProgressFor(status); ok {
				sh.Progress = progress
			}
			return nil
		})
		if err != nil {
			return err
		}
		_, err = notify(tx, domain.NotificationInfo, "Shipment status updated",
			fmt.Sprintf("Shipment %s is now %s", updated.TrackingNumber, status))
		return err
	})
	s.logOutcome(ctx, "Shipment status updated", err, logger.Fields{
		"shipmentId": shipmentID,
		"status":     string(status),
		"progress":   updated.Progress,
	})
	return updated, res, err
}

// AdjustInventory adds delta to an existing item's quantity without clamping.
// An unknown item is created with quantity max(0, delta).
func (s *Service) AdjustInventory(ctx context.Context, itemID string, delta int) (WarehouseItem, Result, error) {
	var item WarehouseItem
	created := false
	res, err := s.run(ctx, "workflow.adjust_inventory", func(tx domain.Transaction) error {
		var err error
		if _, ok := tx.FindWarehouseItem(itemID); ok {
			item, err = tx.UpdateWarehouseItem(itemID, func(w *WarehouseItem) error {
				w.Quantity += delta
				return nil
			})
			return err
		}
		created = true
		item, err = tx.CreateWarehouseItem(WarehouseItem{
			ID:       itemID,
			Name:     itemID,
			Quantity: max(0, delta),
			Unit:     "pcs",
		})
		return err
	})
	s.logOutcome(ctx, "Inventory adjusted", err, logger.Fields{
		"itemId":   itemID,
		"delta":    delta,
		"quantity": item.Quantity,
		"created":  created,
	})
	return item, res, err
}

// ApproveVoucher moves the voucher to approved and adds a notification.
func (s *Service) ApproveVoucher(ctx context.Context, voucherID string) (Voucher, Result, error) {
	var approved Voucher
	res, err := s.run(ctx, "workflow.approve_voucher", func(tx domain.Transaction) error {
		var err error
		approved, err = tx.UpdateVoucher(voucherID, func(v *Voucher) error {
			v.Status = domain.VoucherApproved
			return nil
		})
		if err != nil {
			return err
		}
		_, err = notify(tx, domain.NotificationSuccess, "Voucher approved",
			fmt.Sprintf("Voucher %s has been approved", approved.VoucherNumber))
		return err
	})
	if err != nil {
		s.logOutcome(ctx, "Voucher approval", err, logger.Fields{"voucherId": voucherID})
		return Voucher{}, res, err
	}
	s.log.LogFinancialOperation(ctx, "voucher approved", approved.Amount, approved.Currency, logger.Fields{"voucherId": voucherID})
	return approved, res, nil
}
