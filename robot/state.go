// Package robot ties the kinematic chain, dynamics model, integrator, and IK
// solver together into a single simulated robot with snapshot-consistent state.
package robot

import (
	"github.com/robosim-dev/robosim/spatialmath"
)

// State is an immutable snapshot of the robot at one instant. All slices and maps
// are owned by the snapshot; readers may hold it indefinitely without observing
// later steps.
type State struct {
	// Positions and Velocities are joint-space values ordered as the chain's
	// movable joints.
	Positions  []float64
	Velocities []float64
	// LinkPoses maps every link name to its world pose at this instant.
	LinkPoses map[string]spatialmath.Pose
	// Step is the number of dynamics steps taken since construction or Reset.
	Step uint64
	// Time is the simulated time in seconds, Step * dt.
	Time float64
}

// EndEffectorPose returns the pose of the named link in this snapshot, or false
// if the snapshot has no such link.
func (s *State) EndEffectorPose(linkName string) (spatialmath.Pose, bool) {
	p, ok := s.LinkPoses[linkName]
	return p, ok
}

// clone deep-copies the snapshot. Poses are immutable once built, so the map
// values are shared.
func (s *State) clone() *State {
	next := &State{
		Positions:  append([]float64(nil), s.Positions...),
		Velocities: append([]float64(nil), s.Velocities...),
		LinkPoses:  make(map[string]spatialmath.Pose, len(s.LinkPoses)),
		Step:       s.Step,
		Time:       s.Time,
	}
	for name, pose := range s.LinkPoses {
		next.LinkPoses[name] = pose
	}
	return next
}
