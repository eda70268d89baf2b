package tracking

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/teslashibe/go-fishtank/pkg/skeleton"
)

// mockHinter records RestrictTrackingTo calls
type mockHinter struct {
	mu    sync.Mutex
	calls []int
}

func (m *mockHinter) RestrictTrackingTo(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, id)
}

func (m *mockHinter) recorded() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.calls...)
}

// body builds a skeleton at depth z with a head joint at head.
func body(id int, state skeleton.TrackingState, z float64, head mgl64.Vec3, headState skeleton.JointState) skeleton.Skeleton {
	return skeleton.Skeleton{
		ID:       id,
		State:    state,
		Position: mgl64.Vec3{head.X(), head.Y() - 0.5, z},
		Joints: map[skeleton.JointType]skeleton.Joint{
			skeleton.Head: {Type: skeleton.Head, Position: head, State: headState},
		},
	}
}

func trackedAt(id int, head mgl64.Vec3) skeleton.Skeleton {
	return body(id, skeleton.Tracked, head.Z(), head, skeleton.JointTracked)
}

func frameOf(skels ...skeleton.Skeleton) skeleton.Frame {
	return skeleton.Frame{Skeletons: skels}
}
