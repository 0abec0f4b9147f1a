// Package domain holds the data model of the scaling-group DNS reconciler:
// lifecycle events, the per-scaling-group configuration set, instance
// snapshots, probe results, and the DNS change types the planner produces.
package domain

import "fmt"

// LifecycleTransition classifies why a LifecycleEvent was raised.
type LifecycleTransition string

const (
	TransitionLaunching   LifecycleTransition = "LAUNCHING"
	TransitionDraining    LifecycleTransition = "DRAINING"
	TransitionReconciling LifecycleTransition = "RECONCILING"
	TransitionUnrelated   LifecycleTransition = "UNRELATED"
)

// LifecycleEvent is the immutable trigger for one pipeline invocation.
type LifecycleEvent struct {
	Transition       LifecycleTransition
	ScalingGroupName string
	InstanceID       string
	HookToken        string
	SourceSpecific   map[string]string
}

// Validate enforces the invariant that LAUNCHING/DRAINING events carry a
// non-empty instance and scaling group identity.
func (e LifecycleEvent) Validate() error {
	if e.Transition == TransitionLaunching || e.Transition == TransitionDraining {
		if e.InstanceID == "" {
			return fmt.Errorf("%w: instance_id is required for transition %s", ErrValidation, e.Transition)
		}
		if e.ScalingGroupName == "" {
			return fmt.Errorf("%w: scaling_group_name is required for transition %s", ErrValidation, e.Transition)
		}
	}
	return nil
}
