package jsonapi

// Status is the lifecycle status shared by most resources.
type Status string

// Known statuses. Unknown values are kept as sent by the server.
const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusPending   Status = "pending"
	StatusSuspended Status = "suspended"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)

// OrderStatus is the status of an order.
type OrderStatus string

// Known order statuses.
const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// PaymentStatus is the status of a payment.
type PaymentStatus string

// Known payment statuses.
const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ParseStatus returns value as a Status, defaulting to active.
func ParseStatus(value any) Status {
	return Status(parseEnum(value, string(StatusActive)))
}

// ParseOrderStatus returns value as an OrderStatus, defaulting to pending.
func ParseOrderStatus(value any) OrderStatus {
	return OrderStatus(parseEnum(value, string(OrderStatusPending)))
}

// ParsePaymentStatus returns value as a PaymentStatus, defaulting to pending.
func ParsePaymentStatus(value any) PaymentStatus {
	return PaymentStatus(parseEnum(value, string(PaymentStatusPending)))
}

func parseEnum(value any, fallback string) string {
	s, ok := value.(string)
	if !ok || s == "" {
		return fallback
	}

	return s
}
