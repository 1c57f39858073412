package core

import "shipfin/pkg/domain"

type (
	EntityType         = domain.EntityType
	Shipment           = domain.Shipment
	Client             = domain.Client
	Task               = domain.Task
	Notification       = domain.Notification
	Voucher            = domain.Voucher
	WarehouseItem      = domain.WarehouseItem
	WarehouseShipment  = domain.WarehouseShipment
	ReceiptVoucher     = domain.ReceiptVoucher
	DeliveryVoucher    = domain.DeliveryVoucher
	LineItem           = domain.LineItem
	User               = domain.User
	Session            = domain.Session
	Severity           = domain.Severity
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	ErrNotFound        = domain.ErrNotFound
)

const (
	EntityShipment          = domain.EntityShipment
	EntityClient            = domain.EntityClient
	EntityTask              = domain.EntityTask
	EntityNotification      = domain.EntityNotification
	EntityVoucher           = domain.EntityVoucher
	EntityWarehouseItem     = domain.EntityWarehouseItem
	EntityWarehouseShipment = domain.EntityWarehouseShipment
	EntityReceiptVoucher    = domain.EntityReceiptVoucher
	EntityDeliveryVoucher   = domain.EntityDeliveryVoucher
	EntitySession           = domain.EntitySession
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
