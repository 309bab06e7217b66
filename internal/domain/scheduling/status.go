package scheduling

// ===============================
// Booking Status
// ===============================

type Status string

const (
	StatusPendingDeposit Status = "PENDING_DEPOSIT"
	StatusConfirmed      Status = "CONFIRMED"
	StatusCancelled      Status = "CANCELLED"
)

// Cancellation reasons recorded on the booking row.
const (
	ReasonCustomer       = "customer"
	ReasonProvider       = "provider"
	ReasonDepositTimeout = "deposit_timeout"
)

// Active reports whether the booking still occupies capacity.
func (s Status) Active() bool {
	return s == StatusPendingDeposit || s == StatusConfirmed
}

// ===============================
// Transitions
// ===============================

func CanCancel(current Status) bool {
	return current.Active()
}

func CanConfirm(current Status) bool {
	return current == StatusPendingDeposit
}

func CanReschedule(current Status) bool {
	return current.Active()
}

// InitialStatus is the status a fresh reservation is created with.
func InitialStatus(depositRequired bool) Status {
	if depositRequired {
		return StatusPendingDeposit
	}
	return StatusConfirmed
}
