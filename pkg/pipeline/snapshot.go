package pipeline

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/teslashibe/go-fishtank/pkg/camera"
	"github.com/teslashibe/go-fishtank/pkg/protocol"
	"github.com/teslashibe/go-fishtank/pkg/sensor"
	"github.com/teslashibe/go-fishtank/pkg/tilt"
	"github.com/teslashibe/go-fishtank/pkg/tracking"
)

// Snapshot is the observable result of one tick.
type Snapshot struct {
	Tick uint64    `json:"tick"`
	Time time.Time `json:"time"`

	// Frame source
	HasFrame        bool          `json:"has_frame"`
	Frame           uint64        `json:"frame"`
	Candidates      int           `json:"candidates"`
	TrackedPlayers  int           `json:"tracked_players"`
	SensorConnected bool          `json:"sensor_connected"`
	Sensor          *sensor.Stats `json:"sensor,omitempty"` // Bridge counters, nil for other sources

	// Selection
	Selected         int       `json:"selected"`
	Selecting        bool      `json:"selecting"`
	SelectionChanged bool      `json:"selection_changed"`
	Session          uuid.UUID `json:"session"`

	// Head anchor
	Anchor       tracking.AnchorStatus `json:"-"`
	AnchorState  string                `json:"anchor"`
	Established  bool                  `json:"established"`
	Baseline     mgl64.Vec3            `json:"baseline"`
	Displacement mgl64.Vec3            `json:"displacement"`

	// Camera
	Camera        camera.State `json:"camera"`
	CameraVersion uint64       `json:"camera_version"`

	// Tilt
	Tilt        tilt.Status  `json:"tilt"`
	TiltOutcome tilt.Outcome `json:"-"`
}

// Pose converts the snapshot to the browser pose message payload.
func (s Snapshot) Pose() protocol.PoseData {
	pose := protocol.PoseData{
		Tick:         s.Tick,
		Frame:        s.Frame,
		Anchor:       s.Anchor.String(),
		Displacement: [3]float64(s.Displacement),
		Eye:          [3]float64(s.Camera.Eye),
		Frustum: protocol.FrustumData{
			Left:   s.Camera.Frustum.Left,
			Right:  s.Camera.Frustum.Right,
			Bottom: s.Camera.Frustum.Bottom,
			Top:    s.Camera.Frustum.Top,
			Near:   s.Camera.Frustum.Near,
			Far:    s.Camera.Frustum.Far,
		},
		View:       [16]float64(s.Camera.View),
		Projection: [16]float64(s.Camera.Projection),
		Degenerate: s.Camera.Degenerate,
	}
	if s.Selecting {
		pose.Selected = s.Selected
		pose.Session = s.Session.String()
	}
	return pose
}
