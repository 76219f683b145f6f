package reservation

// ResourceKind distinguishes the four booking domains that share this engine.
type ResourceKind string

const (
	KindCertificate ResourceKind = "certificate"
	KindEvent       ResourceKind = "event"
	KindCareer      ResourceKind = "career"
	KindTrip        ResourceKind = "trip"
)

func (k ResourceKind) IsValid() bool {
	switch k {
	case KindCertificate, KindEvent, KindCareer, KindTrip:
		return true
	default:
		return false
	}
}

// FulfillmentPath selects the branch of the status graph after payment.
type FulfillmentPath string

const (
	PathPickup   FulfillmentPath = "pickup"
	PathDelivery FulfillmentPath = "delivery"
)

func (p FulfillmentPath) IsValid() bool {
	return p == PathPickup || p == PathDelivery
}

type PaymentMethod string

const (
	PaymentWallet  PaymentMethod = "wallet"
	PaymentGateway PaymentMethod = "gateway"
	PaymentMixed   PaymentMethod = "mixed"
)

type Status string

const (
	StatusDraft          Status = "draft"
	StatusPendingPayment Status = "pending_payment"
	StatusProcessing     Status = "processing"
	StatusReadyForPickup Status = "ready_for_pickup"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusCompleted      Status = "completed"
	StatusRejected       Status = "rejected"
	StatusCancelled      Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPendingPayment, StatusProcessing,
		StatusReadyForPickup, StatusOutForDelivery,
		StatusCompleted, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are permitted.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsActive reports whether the reservation still occupies capacity and
// participates in overlap checks.
func (s Status) IsActive() bool {
	return !(s == StatusRejected || s == StatusCancelled)
}
