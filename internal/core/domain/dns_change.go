package domain

import (
	"fmt"
	"strings"
)

// ChangeAction is the operation a DNSChangeRequest asks the provider to
// perform.
type ChangeAction string

const (
	ActionCreate ChangeAction = "CREATE"
	ActionUpdate ChangeAction = "UPDATE"
	ActionDelete ChangeAction = "DELETE"
	ActionIgnore ChangeAction = "IGNORE"
)

// DNSChangeRequest is the provider-agnostic result of planning: either a
// concrete mutation or the IGNORE sentinel meaning "nothing to do".
type DNSChangeRequest struct {
	Action     ChangeAction
	ZoneID     string
	RecordName string
	RecordType RecordType
	TTL        int
	SRVPriority int
	SRVWeight   int
	SRVPort     int
	Values     []string // ordered
}

// IgnoreChange is the sentinel value returned whenever planning determines
// no DNS mutation is required.
var IgnoreChange = DNSChangeRequest{Action: ActionIgnore}

// Validate enforces that any non-IGNORE request names a record.
func (r DNSChangeRequest) Validate() error {
	if r.Action == ActionIgnore {
		return nil
	}
	if r.RecordName == "" || r.RecordType == "" {
		return fmt.Errorf("%w: non-IGNORE DNSChangeRequest requires record_name and record_type", ErrValidation)
	}
	return nil
}

// CanonicalString returns a deterministic textual form used for equality
// comparisons (idempotence checks in §8).
func (r DNSChangeRequest) CanonicalString() string {
	return fmt.Sprintf("%s|%s|%s|%s|%d|%d|%d|%d|%s",
		r.Action, r.ZoneID, r.RecordName, r.RecordType, r.TTL,
		r.SRVPriority, r.SRVWeight, r.SRVPort, strings.Join(sortedStrings(r.Values), ","))
}

// LifecycleTransitionAction is the mapping used by the planner to turn an
// event transition into a DnsChangeCommand action.
type LifecycleTransitionAction string

const (
	CommandAppend  LifecycleTransitionAction = "APPEND"
	CommandRemove  LifecycleTransitionAction = "REMOVE"
	CommandReplace LifecycleTransitionAction = "REPLACE"
)

// TransitionToCommandAction maps a LifecycleTransition to the planner
// command action, per §4.7: LAUNCHING -> APPEND, DRAINING -> REMOVE,
// RECONCILING -> REPLACE.
func TransitionToCommandAction(t LifecycleTransition) (LifecycleTransitionAction, bool) {
	switch t {
	case TransitionLaunching:
		return CommandAppend, true
	case TransitionDraining:
		return CommandRemove, true
	case TransitionReconciling:
		return CommandReplace, true
	default:
		return "", false
	}
}

// DNSChangeCommandValue carries one instance's contribution to a planned
// DNS change: the resolved value, plus launch_time and instance_id so
// SINGLE_LATEST tie-breaking can be applied downstream in the provider
// adapter. This type is not named in spec.md's §3 data model but is
// required to carry launch_time through to generate_change_request.
type DNSChangeCommandValue struct {
	Value      string
	LaunchTime int64
	InstanceID string
}

// DnsChangeCommand is the planner's output, handed to
// DNSProvider.generate_change_request.
type DnsChangeCommand struct {
	Action     LifecycleTransitionAction
	DNSConfig  DNSRecordConfig
	Values     []DNSChangeCommandValue
}

// SingleLatest picks the value from the instance with the greatest
// LaunchTime, breaking ties by the lexicographically greatest InstanceID
// (§4.7 step 3, §8's quantified invariant). Returns the zero value and
// false when Values is empty.
func (c DnsChangeCommand) SingleLatest() (DNSChangeCommandValue, bool) {
	if len(c.Values) == 0 {
		return DNSChangeCommandValue{}, false
	}
	best := c.Values[0]
	for _, v := range c.Values[1:] {
		if v.LaunchTime > best.LaunchTime {
			best = v
			continue
		}
		if v.LaunchTime == best.LaunchTime && v.InstanceID > best.InstanceID {
			best = v
		}
	}
	return best, true
}

// MultivalueSet returns the sorted set of distinct values across Values,
// for MULTIVALUE mode.
func (c DnsChangeCommand) MultivalueSet() []string {
	seen := make(map[string]struct{}, len(c.Values))
	out := make([]string, 0, len(c.Values))
	for _, v := range c.Values {
		if _, ok := seen[v.Value]; ok {
			continue
		}
		seen[v.Value] = struct{}{}
		out = append(out, v.Value)
	}
	return sortedStrings(out)
}
