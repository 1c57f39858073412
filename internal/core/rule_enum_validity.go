package core

import (
	"context"
	"fmt"
	"shipfin/pkg/domain"
)

// EnumValidityRule blocks records whose closed-set fields carry unknown values.
func EnumValidityRule() domain.Rule {
	return enumValidityRule{}
}

type enumValidityRule struct{}

type enumField struct {
	name  string
	value string
	valid bool
}

type enumChecker struct {
	label     string
	extractor func(after any) (id string, fields []enumField, ok bool)
}

var enumCheckers = map[domain.EntityType]enumChecker{
	domain.EntityShipment: {
		label: "shipment",
		extractor: func(after any) (string, []enumField, bool) {
			s, ok := after.(domain.Shipment)
			if !ok {
				return "", nil, false
			}
			return s.ID, []enumField{{"status", string(s.Status), s.Status.Valid()}}, true
		},
	},
	domain.EntityClient: {
		label: "client",
		extractor: func(after any) (string, []enumField, bool) {
			c, ok := after.(domain.Client)
			if !ok {
				return "", nil, false
			}
			return c.ID, []enumField{{"status", string(c.Status), c.Status.Valid()}}, true
		},
	},
	domain.EntityTask: {
		label: "task",
		extractor: func(after any) (string, []enumField, bool) {
			t, ok := after.(domain.Task)
			if !ok {
				return "", nil, false
			}
			return t.ID, []enumField{
				{"status", string(t.Status), t.Status.Valid()},
				{"priority", string(t.Priority), t.Priority.Valid()},
			}, true
		},
	},
	domain.EntityNotification: {
		label: "notification",
		extractor: func(after any) (string, []enumField, bool) {
			n, ok := after.(domain.Notification)
			if !ok {
				return "", nil, false
			}
			return n.ID, []enumField{{"type", string(n.Type), n.Type.Valid()}}, true
		},
	},
	domain.EntityVoucher: {
		label: "voucher",
		extractor: func(after any) (string, []enumField, bool) {
			v, ok := after.(domain.Voucher)
			if !ok {
				return "", nil, false
			}
			fields := []enumField{
				{"type", string(v.Type), v.Type.Valid()},
				{"status", string(v.Status), v.Status.Valid()},
			}
			if v.PaymentMethod != nil {
				fields = append(fields, enumField{"payment method", string(*v.PaymentMethod), v.PaymentMethod.Valid()})
			}
			return v.ID, fields, true
		},
	},
	domain.EntityWarehouseShipment: {
		label: "warehouse shipment",
		extractor: func(after any) (string, []enumField, bool) {
			w, ok := after.(domain.WarehouseShipment)
			if !ok {
				return "", nil, false
			}
			return w.ID, []enumField{{"status", string(w.Status), w.Status.Valid()}}, true
		},
	},
	domain.EntitySession: {
		label: "session",
		extractor: func(after any) (string, []enumField, bool) {
			s, ok := after.(domain.Session)
			if !ok {
				return "", nil, false
			}
			fields := []enumField{{"theme", string(s.Theme), s.Theme.Valid()}}
			if s.User != nil {
				fields = append(fields, enumField{"role", string(s.User.Role), s.User.Role.Valid()})
			}
			return "", fields, true
		},
	},
}

func (enumValidityRule) Name() string { return "enum_validity" }

func (enumValidityRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action == domain.ActionDelete {
			continue
		}
		checker, ok := enumCheckers[change.Entity]
		if !ok {
			continue
		}
		id, fields, ok := checker.extractor(change.After)
		if !ok {
			continue
		}
		for _, f := range fields {
			if f.valid {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "enum_validity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("%s %s has invalid %s %q", checker.label, id, f.name, f.value),
				Entity:   change.Entity,
				EntityID: id,
			})
		}
	}
	return res, nil
}
