package algorithms

import "eventcore/internal/domain"

// Each NotificationParameters* type below is one concrete algorithm's
// notification payload, implementing domain.NotificationParams
// so internal/notify can forward it opaquely.

type NotificationParametersOutOfRange struct {
	Kind           string
	ExceedingValue domain.Value
	StatusFlags    domain.StatusFlags
	Deadband       domain.Value
	ExceededLimit  domain.Value
}

func (p NotificationParametersOutOfRange) AlgorithmKind() string { return p.Kind }

type NotificationParametersChangeOfState struct {
	Kind        string
	NewState    domain.Value
	StatusFlags domain.StatusFlags
}

func (p NotificationParametersChangeOfState) AlgorithmKind() string { return p.Kind }

type NotificationParametersChangeOfBitstring struct {
	Kind           string
	ReferencedBitstring domain.Value
	StatusFlags    domain.StatusFlags
}

func (p NotificationParametersChangeOfBitstring) AlgorithmKind() string { return p.Kind }

type NotificationParametersChangeOfValue struct {
	Kind        string
	NewValue    domain.Value
	StatusFlags domain.StatusFlags
}

func (p NotificationParametersChangeOfValue) AlgorithmKind() string { return p.Kind }

type NotificationParametersCommandFailure struct {
	Kind           string
	CommandValue   domain.Value
	StatusFlags    domain.StatusFlags
	FeedbackValue  domain.Value
}

func (p NotificationParametersCommandFailure) AlgorithmKind() string { return p.Kind }

type NotificationParametersBufferReady struct {
	Kind              string
	BufferProperty    domain.ObjectPropertyRef
	PreviousNotification uint64
	CurrentNotification  uint64
}

func (p NotificationParametersBufferReady) AlgorithmKind() string { return p.Kind }

type NotificationParametersChangeOfStatusFlags struct {
	Kind            string
	PresentValue    domain.Value
	ReferencedFlags domain.StatusFlags
}

func (p NotificationParametersChangeOfStatusFlags) AlgorithmKind() string { return p.Kind }

type NotificationParametersChangeOfCharacterString struct {
	Kind          string
	ChangedValue  string
	StatusFlags   domain.StatusFlags
	AlarmValue    string
}

func (p NotificationParametersChangeOfCharacterString) AlgorithmKind() string { return p.Kind }

type NotificationParametersChangeOfDiscreteValue struct {
	Kind         string
	NewValue     domain.Value
	StatusFlags  domain.StatusFlags
}

func (p NotificationParametersChangeOfDiscreteValue) AlgorithmKind() string { return p.Kind }

// NotificationParametersExtended carries whatever an Extended evaluator
// produces; Values is intentionally open-ended since the vendor registry
// defines its own payload shape per (vendorID, extendedEventType).
type NotificationParametersExtended struct {
	Kind             string
	VendorID         uint32
	ExtendedEventType uint32
	Values           map[string]domain.Value
}

func (p NotificationParametersExtended) AlgorithmKind() string { return p.Kind }

// NotificationParametersNone is the payload type for the None algorithm. No
// code path constructs it: None never proposes a transition of its own, and
// the Fault/Normal re-stamps come from Base's fault/recovery handling, which
// uses recoveryParams/faultParams instead.
type NotificationParametersNone struct {
	Kind string
}

func (p NotificationParametersNone) AlgorithmKind() string { return p.Kind }
