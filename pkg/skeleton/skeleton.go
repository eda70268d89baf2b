// Package skeleton defines the skeletal-tracking data produced by a depth
// sensor each tick: skeletons, their joints, and the frame that carries them.
//
// Positions are in sensor space, metres: X to the sensor's right, Y up,
// Z outward from the sensor toward the viewer (the depth axis).
package skeleton

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// TrackingState is the overall tracking quality of a skeleton.
type TrackingState int

const (
	NotTracked TrackingState = iota
	PositionOnly
	Tracked
)

func (s TrackingState) String() string {
	switch s {
	case PositionOnly:
		return "position_only"
	case Tracked:
		return "tracked"
	default:
		return "not_tracked"
	}
}

// ParseTrackingState maps a wire name to a TrackingState.
// Unknown names are NotTracked.
func ParseTrackingState(s string) TrackingState {
	switch s {
	case "position_only":
		return PositionOnly
	case "tracked":
		return Tracked
	default:
		return NotTracked
	}
}

// Followable reports whether a skeleton in this state can be selected.
func (s TrackingState) Followable() bool {
	return s == PositionOnly || s == Tracked
}

// JointState is the tracking quality of a single joint.
type JointState int

const (
	JointNotTracked JointState = iota
	JointInferred
	JointTracked
)

func (s JointState) String() string {
	switch s {
	case JointInferred:
		return "inferred"
	case JointTracked:
		return "tracked"
	default:
		return "not_tracked"
	}
}

// ParseJointState maps a wire name to a JointState.
func ParseJointState(s string) JointState {
	switch s {
	case "inferred":
		return JointInferred
	case "tracked":
		return JointTracked
	default:
		return JointNotTracked
	}
}

// JointType names a joint.
type JointType string

// Joints reported by the skeleton stream.
const (
	HipCenter      JointType = "hip_center"
	Spine          JointType = "spine"
	ShoulderCenter JointType = "shoulder_center"
	Head           JointType = "head"
	ShoulderLeft   JointType = "shoulder_left"
	ElbowLeft      JointType = "elbow_left"
	WristLeft      JointType = "wrist_left"
	HandLeft       JointType = "hand_left"
	ShoulderRight  JointType = "shoulder_right"
	ElbowRight     JointType = "elbow_right"
	WristRight     JointType = "wrist_right"
	HandRight      JointType = "hand_right"
	HipLeft        JointType = "hip_left"
	KneeLeft       JointType = "knee_left"
	AnkleLeft      JointType = "ankle_left"
	FootLeft       JointType = "foot_left"
	HipRight       JointType = "hip_right"
	KneeRight      JointType = "knee_right"
	AnkleRight     JointType = "ankle_right"
	FootRight      JointType = "foot_right"
)

// AllJoints lists every joint in stream order, from the hips outward.
var AllJoints = []JointType{
	HipCenter, Spine, ShoulderCenter, Head,
	ShoulderLeft, ElbowLeft, WristLeft, HandLeft,
	ShoulderRight, ElbowRight, WristRight, HandRight,
	HipLeft, KneeLeft, AnkleLeft, FootLeft,
	HipRight, KneeRight, AnkleRight, FootRight,
}

// Joint is one tracked body point.
type Joint struct {
	Type     JointType
	Position mgl64.Vec3
	State    JointState
}

// Skeleton is one candidate person in a frame.
// Skeletons are read-only once produced by a frame source.
type Skeleton struct {
	ID       int
	State    TrackingState
	Position mgl64.Vec3
	Joints   map[JointType]Joint
}

// Joint returns the named joint, or a NotTracked joint if it is missing.
func (s Skeleton) Joint(t JointType) Joint {
	if j, ok := s.Joints[t]; ok {
		return j
	}
	return Joint{Type: t, State: JointNotTracked}
}

// Head returns the head joint.
func (s Skeleton) Head() Joint {
	return s.Joint(Head)
}

// Depth returns the distance from the sensor along the depth axis.
func (s Skeleton) Depth() float64 {
	return s.Position.Z()
}

// Frame is an immutable snapshot of all skeletons seen in one sensor frame.
type Frame struct {
	Number    uint64
	Timestamp time.Time
	Skeletons []Skeleton
}

// Find returns the skeleton with the given ID, in any tracking state.
func (f Frame) Find(id int) (Skeleton, bool) {
	for _, s := range f.Skeletons {
		if s.ID == id {
			return s, true
		}
	}
	return Skeleton{}, false
}

// Followable returns how many skeletons are PositionOnly or Tracked.
func (f Frame) Followable() int {
	n := 0
	for _, s := range f.Skeletons {
		if s.State.Followable() {
			n++
		}
	}
	return n
}
