// Package protocol defines the WebSocket message types exchanged with the
// skeleton sensor bridge and with browser pose viewers.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Sensor → fishtank messages
	TypeSkeletons  MessageType = "skeletons"   // One skeleton frame
	TypeTiltStatus MessageType = "tilt_status" // Motor angle report

	// Fishtank → sensor messages
	TypeRestrictTracking MessageType = "restrict_tracking" // Track only one skeleton
	TypeSetTilt          MessageType = "set_tilt"          // Move the motor

	// Fishtank → browser messages
	TypePose MessageType = "pose" // Solved camera for one tick

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Sensor → Fishtank Message Types
// =============================================================================

// SkeletonsData carries one skeleton frame
type SkeletonsData struct {
	Frame     uint64         `json:"frame"`
	SensorTS  int64          `json:"sensor_ts,omitempty"` // Unix milliseconds, sensor clock
	Skeletons []SkeletonData `json:"skeletons"`
}

// SkeletonData is one candidate person
type SkeletonData struct {
	ID       int         `json:"id"`
	State    string      `json:"state"`    // "not_tracked", "position_only", "tracked"
	Position [3]float64  `json:"position"` // Metres, sensor space
	Joints   []JointData `json:"joints,omitempty"`
}

// JointData is one body point
type JointData struct {
	Name     string     `json:"name"` // "head", "hand_left", ...
	Position [3]float64 `json:"position"`
	State    string     `json:"state"` // "not_tracked", "inferred", "tracked"
}

// TiltStatusData reports the motor
type TiltStatusData struct {
	Angle     int    `json:"angle"`
	MaxAngle  int    `json:"max_angle"`
	LastError string `json:"last_error,omitempty"` // Set when the last set_tilt was refused
}

// =============================================================================
// Fishtank → Sensor Message Types
// =============================================================================

// RestrictTrackingData asks the sensor to track only one skeleton
type RestrictTrackingData struct {
	ID int `json:"id"`
}

// SetTiltData moves the motor
type SetTiltData struct {
	Angle int `json:"angle"` // Degrees
}

// =============================================================================
// Fishtank → Browser Message Types
// =============================================================================

// PoseData is the solved camera for one tick
type PoseData struct {
	Tick         uint64      `json:"tick"`
	Frame        uint64      `json:"frame"`
	Selected     int         `json:"selected"` // Skeleton ID, 0 if none
	Session      string      `json:"session,omitempty"`
	Anchor       string      `json:"anchor"` // "idle", "established", "tracking", "held"
	Displacement [3]float64  `json:"displacement"`
	Eye          [3]float64  `json:"eye"`
	Frustum      FrustumData `json:"frustum"`
	View         [16]float64 `json:"view"`       // Column-major
	Projection   [16]float64 `json:"projection"` // Column-major
	Degenerate   bool        `json:"degenerate,omitempty"`
}

// FrustumData holds off-center frustum bounds at the near plane
type FrustumData struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Top    float64 `json:"top"`
	Near   float64 `json:"near"`
	Far    float64 `json:"far"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
