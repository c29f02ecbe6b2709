package fault

import "errors"

// errNoWrite is returned by reliabilityCell.Set: the event algorithm core
// treats evaluated_reliability as read-only, per the Fault Interlock's
// read-only contract.
var errNoWrite = errors.New("fault: evaluated_reliability is read-only")
