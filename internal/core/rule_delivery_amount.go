package core

import (
	"context"
	"fmt"
	"shipfin/pkg/domain"
)

// NewDeliveryAmountRule warns when a delivery voucher carries a non-zero
// amount. The commit still goes through.
func NewDeliveryAmountRule() domain.Rule {
	return deliveryAmountRule{}
}

type deliveryAmountRule struct{}

func (deliveryAmountRule) Name() string { return "delivery_amount" }

func (deliveryAmountRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityVoucher || change.Action == domain.ActionDelete {
			continue
		}
		voucher, ok := change.After.(domain.Voucher)
		if !ok || voucher.Type != domain.VoucherDelivery || voucher.Amount.IsZero() {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "delivery_amount",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("delivery voucher %s carries amount %s %s; delivery vouchers should be zero", voucher.ID, voucher.Amount, voucher.Currency),
			Entity:   domain.EntityVoucher,
			EntityID: voucher.ID,
		})
	}
	return res, nil
}
