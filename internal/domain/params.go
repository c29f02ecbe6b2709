package domain

// LimitEnable carries the two direction flags shared by every range-style
// algorithm (OutOfRange, FloatingLimit, DoubleOutOfRange, SignedOutOfRange,
// UnsignedOutOfRange). When a binding is unconfigured both flags default to
// true.
type LimitEnable struct {
	High bool
	Low  bool
}

// DefaultLimitEnable is used whenever pLimitEnable is unbound.
var DefaultLimitEnable = LimitEnable{High: true, Low: true}

// StatusFlags is the four-bit status-flags bitstring carried by every
// notification: in-alarm, fault, overridden, out-of-service.
type StatusFlags struct {
	InAlarm     bool
	Fault       bool
	Overridden  bool
	OutOfService bool
}

// NotificationParams is implemented by each concrete algorithm's
// notification payload struct (internal/algorithms). The Notification
// Emitter treats it opaquely and forwards it to the sink.
type NotificationParams interface {
	// AlgorithmKind names the concrete algorithm that produced this
	// payload, used for logging/metrics labels.
	AlgorithmKind() string
}
