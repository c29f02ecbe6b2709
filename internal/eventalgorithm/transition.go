package eventalgorithm

import "eventcore/internal/domain"

// TransitionInput carries the facts a TransitionHandler needs to decide
// whether a proposed transition commits.
type TransitionInput struct {
	Reliability        domain.Reliability
	ReliabilityChanged bool
	Inhibited          bool
}

// TransitionHandler decides whether a proposed (fromGroup, toGroup)
// transition commits. A false return silently drops the proposal: the
// current state, timestamps, and messages are left untouched.
type TransitionHandler func(TransitionInput) bool

type transitionKey struct {
	From domain.EventStateGroup
	To   domain.EventStateGroup
}

// TransitionTable is the total function over (currentGroup, newGroup)
// pairs deciding whether a proposed transition may commit.
type TransitionTable struct {
	handlers map[transitionKey]TransitionHandler
}

// Lookup returns the handler for (from, to), or false if none is
// registered. Base.StateTransition treats a miss as a corrupt-state error.
func (t *TransitionTable) Lookup(from, to domain.EventStateGroup) (TransitionHandler, bool) {
	h, ok := t.handlers[transitionKey{From: from, To: to}]
	return h, ok
}

// DefaultTransitionTable implements the clause-13.2.2.1 interlocks.
//
// Fault→OffNormal has no entry. Base.Evaluate never proposes it: when
// reliability is unhealthy it always proposes Fault, and when reliability
// has just cleared from a Fault current state it always proposes Normal
// first rather than deferring to the concrete algorithm's own predicate —
// so an off-normal substate can only be reached on a later evaluation that
// starts from Normal. A lookup miss on that pair is therefore unreachable
// by construction; StateTransition treats one as corrupt state.
var DefaultTransitionTable = &TransitionTable{
	handlers: map[transitionKey]TransitionHandler{
		{domain.GroupNormal, domain.GroupNormal}: func(in TransitionInput) bool {
			return in.Reliability.Healthy() && !in.Inhibited
		},
		{domain.GroupNormal, domain.GroupOffNormal}: func(in TransitionInput) bool {
			return in.Reliability.Healthy() && !in.Inhibited
		},
		{domain.GroupNormal, domain.GroupFault}: func(in TransitionInput) bool {
			return !in.Reliability.Healthy()
		},
		{domain.GroupOffNormal, domain.GroupNormal}: func(in TransitionInput) bool {
			// (no-fault AND algorithm says normal) OR (no-fault AND inhibit):
			// reaching this row at all already means the concrete algorithm
			// proposed Normal, so the live condition reduces to no-fault.
			return in.Reliability.Healthy()
		},
		{domain.GroupOffNormal, domain.GroupOffNormal}: func(in TransitionInput) bool {
			return in.Reliability.Healthy() && !in.Inhibited
		},
		{domain.GroupOffNormal, domain.GroupFault}: func(in TransitionInput) bool {
			return !in.Reliability.Healthy()
		},
		{domain.GroupFault, domain.GroupNormal}: func(in TransitionInput) bool {
			return in.Reliability.Healthy()
		},
		{domain.GroupFault, domain.GroupFault}: func(in TransitionInput) bool {
			// "reliability changed AND new != NoFault, OR same reliability
			// re-announced": Base.Evaluate proposes Fault on every
			// evaluation while reliability is unhealthy, so both disjuncts
			// reduce to "still not healthy" and each one re-stamps Fault.
			return !in.Reliability.Healthy()
		},
	},
}
