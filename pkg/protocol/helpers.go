package protocol

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/teslashibe/go-fishtank/pkg/skeleton"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewSkeletonsMessage creates a skeletons message from a frame
func NewSkeletonsMessage(frame skeleton.Frame) (*Message, error) {
	data := SkeletonsData{
		Frame:     frame.Number,
		Skeletons: make([]SkeletonData, 0, len(frame.Skeletons)),
	}
	if !frame.Timestamp.IsZero() {
		data.SensorTS = frame.Timestamp.UnixMilli()
	}
	for _, s := range frame.Skeletons {
		data.Skeletons = append(data.Skeletons, FromSkeleton(s))
	}
	return NewMessage(TypeSkeletons, data)
}

// NewTiltStatusMessage creates a tilt status message
func NewTiltStatusMessage(angle, maxAngle int, lastError string) (*Message, error) {
	return NewMessage(TypeTiltStatus, TiltStatusData{
		Angle:     angle,
		MaxAngle:  maxAngle,
		LastError: lastError,
	})
}

// NewRestrictTrackingMessage creates a restrict tracking message
func NewRestrictTrackingMessage(id int) (*Message, error) {
	return NewMessage(TypeRestrictTracking, RestrictTrackingData{ID: id})
}

// NewSetTiltMessage creates a set tilt message
func NewSetTiltMessage(angle int) (*Message, error) {
	return NewMessage(TypeSetTilt, SetTiltData{Angle: angle})
}

// NewPoseMessage creates a pose message
func NewPoseMessage(pose PoseData) (*Message, error) {
	return NewMessage(TypePose, pose)
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Conversions
// =============================================================================

// FromSkeleton converts a skeleton to its wire form. Joints are sorted by
// the order they appear in skeleton.AllJoints.
func FromSkeleton(s skeleton.Skeleton) SkeletonData {
	out := SkeletonData{
		ID:       s.ID,
		State:    s.State.String(),
		Position: [3]float64(s.Position),
	}
	for _, jt := range skeleton.AllJoints {
		j, ok := s.Joints[jt]
		if !ok {
			continue
		}
		out.Joints = append(out.Joints, JointData{
			Name:     string(jt),
			Position: [3]float64(j.Position),
			State:    j.State.String(),
		})
	}
	return out
}

// Skeleton converts the wire form back to a skeleton.
func (d SkeletonData) Skeleton() skeleton.Skeleton {
	s := skeleton.Skeleton{
		ID:       d.ID,
		State:    skeleton.ParseTrackingState(d.State),
		Position: mgl64.Vec3(d.Position),
		Joints:   make(map[skeleton.JointType]skeleton.Joint, len(d.Joints)),
	}
	for _, j := range d.Joints {
		jt := skeleton.JointType(j.Name)
		s.Joints[jt] = skeleton.Joint{
			Type:     jt,
			Position: mgl64.Vec3(j.Position),
			State:    skeleton.ParseJointState(j.State),
		}
	}
	return s
}

// ToFrame converts the wire form to a frame.
// A missing sensor timestamp is replaced with received.
func (d SkeletonsData) ToFrame(received time.Time) skeleton.Frame {
	f := skeleton.Frame{
		Number:    d.Frame,
		Timestamp: received,
		Skeletons: make([]skeleton.Skeleton, 0, len(d.Skeletons)),
	}
	if d.SensorTS != 0 {
		f.Timestamp = time.UnixMilli(d.SensorTS)
	}
	for _, s := range d.Skeletons {
		f.Skeletons = append(f.Skeletons, s.Skeleton())
	}
	return f
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetSkeletonsData extracts skeleton frame data from a message
func (m *Message) GetSkeletonsData() (*SkeletonsData, error) {
	var data SkeletonsData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetTiltStatusData extracts tilt status from a message
func (m *Message) GetTiltStatusData() (*TiltStatusData, error) {
	var data TiltStatusData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetRestrictTrackingData extracts a restrict tracking request from a message
func (m *Message) GetRestrictTrackingData() (*RestrictTrackingData, error) {
	var data RestrictTrackingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSetTiltData extracts a tilt request from a message
func (m *Message) GetSetTiltData() (*SetTiltData, error) {
	var data SetTiltData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPoseData extracts pose data from a message
func (m *Message) GetPoseData() (*PoseData, error) {
	var data PoseData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
