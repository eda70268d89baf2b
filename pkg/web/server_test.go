package web

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-fishtank/pkg/camera"
	"github.com/teslashibe/go-fishtank/pkg/pipeline"
	"github.com/teslashibe/go-fishtank/pkg/protocol"
	"github.com/teslashibe/go-fishtank/pkg/sensor"
	"github.com/teslashibe/go-fishtank/pkg/tilt"
)

func newTestServer(t *testing.T) (*Server, *pipeline.Pipeline) {
	t.Helper()
	s := NewServer("0", nil)
	sim := sensor.NewSim(sensor.DefaultSimConfig())
	p, err := pipeline.New(pipeline.Deps{
		Source:   sim,
		Device:   sim,
		Renderer: s,
		Observer: s,
	}, pipeline.DefaultConfig(), nil)
	require.NoError(t, err)
	s.SetController(p)
	return s, p
}

func do(t *testing.T, s *Server, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	data, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(data, &out)
	return resp.StatusCode, out
}

func TestStatus_NotReady(t *testing.T) {
	s := NewServer("0", nil)
	code, body := do(t, s, http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "pipeline not ready", body["error"])
}

func TestStatus(t *testing.T) {
	s, p := newTestServer(t)
	p.Tick(time.Now(), nil)

	code, body := do(t, s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, code)

	snap, ok := body["snapshot"].(map[string]interface{})
	require.True(t, ok, "snapshot missing: %v", body)
	assert.Equal(t, float64(1), snap["tick"])
	assert.Equal(t, float64(1), snap["selected"])
	assert.Equal(t, "established", snap["anchor"])
	assert.Equal(t, float64(1), body["renders"])
}

func TestStatus_IncludesSensorLink(t *testing.T) {
	s := NewServer("0", nil)
	bridge := sensor.NewBridge(sensor.DefaultConfig(), nil)
	p, err := pipeline.New(pipeline.Deps{
		Source: bridge,
		Device: sensor.NewSim(sensor.DefaultSimConfig()),
	}, pipeline.DefaultConfig(), nil)
	require.NoError(t, err)
	s.SetController(p)
	p.Tick(time.Now(), nil)

	code, body := do(t, s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, code)

	snap := body["snapshot"].(map[string]interface{})
	link, ok := snap["sensor"].(map[string]interface{})
	require.True(t, ok, "sensor stats missing: %v", snap)
	assert.Equal(t, false, link["connected"])
	assert.Equal(t, float64(0), link["reconnects"])

	viewers := body["viewers"].(map[string]interface{})
	assert.Equal(t, false, viewers["running"])
}

func TestCamera_GetAndPut(t *testing.T) {
	s, _ := newTestServer(t)

	code, body := do(t, s, http.MethodGet, "/api/camera", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["version"])

	code, body = do(t, s, http.MethodPut, "/api/camera", `{"preset":"tv","world_scale":220}`)
	require.Equal(t, http.StatusOK, code, "body: %v", body)
	assert.Equal(t, float64(1), body["version"])
	cfg := body["config"].(map[string]interface{})
	assert.Equal(t, float64(220), cfg["world_scale"])
	assert.Equal(t, camera.TVConfig().WindowHeight, cfg["window_height_m"])
}

func TestCamera_PutInvalid(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown preset", `{"preset":"imax"}`},
		{"unknown field", `{"fov":80}`},
		{"invalid value", `{"near":-1}`},
		{"not json", `near=1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, s, http.MethodPut, "/api/camera", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestCamera_Presets(t *testing.T) {
	s, _ := newTestServer(t)
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/camera/presets", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var names []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&names))
	assert.Equal(t, camera.PresetNames(), names)
}

func TestCameraState(t *testing.T) {
	s, p := newTestServer(t)

	code, _ := do(t, s, http.MethodGet, "/api/camera/state", "")
	assert.Equal(t, http.StatusNotFound, code)

	p.Tick(time.Now(), nil)
	code, body := do(t, s, http.MethodGet, "/api/camera/state", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "projection")
	assert.Contains(t, body, "frustum")
}

func TestTilt(t *testing.T) {
	s, p := newTestServer(t)

	code, body := do(t, s, http.MethodPost, "/api/tilt/up", "")
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "up", body["queued"])

	snap := p.Tick(time.Now(), nil)
	assert.Equal(t, tilt.OutcomeDispatched, snap.TiltOutcome.Kind)

	code, body = do(t, s, http.MethodGet, "/api/tilt", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["commanded"])
	assert.Equal(t, "cooldown", body["state"])

	code, _ = do(t, s, http.MethodPost, "/api/tilt/sideways", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

// fullController refuses every command.
type fullController struct {
	cameras *camera.Manager
}

func (f fullController) Snapshot() pipeline.Snapshot { return pipeline.Snapshot{} }
func (f fullController) Submit(tilt.Command) bool    { return false }
func (f fullController) Cameras() *camera.Manager    { return f.cameras }

func TestTilt_QueueFull(t *testing.T) {
	s := NewServer("0", nil)
	s.SetController(fullController{cameras: camera.NewManager()})

	code, _ := do(t, s, http.MethodPost, "/api/tilt/down", "")
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func TestPoseWS_RequiresUpgrade(t *testing.T) {
	s, _ := newTestServer(t)
	code, _ := do(t, s, http.MethodGet, "/ws/pose", "")
	assert.Equal(t, http.StatusUpgradeRequired, code)
}

func TestPoseWS_StreamsTicks(t *testing.T) {
	s, p := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx, ln)

	url := "ws://" + ln.Addr().String() + "/ws/pose"
	var ws *websocket.Conn
	require.Eventually(t, func() bool {
		ws, _, err = websocket.DefaultDialer.Dial(url, nil)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer ws.Close()

	require.Eventually(t, func() bool { return s.PoseHub().ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	p.Tick(time.Now(), nil)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	msg, err := protocol.ParseMessage(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypePose, msg.Type)

	pose, err := msg.GetPoseData()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pose.Tick)
	assert.Equal(t, 1, pose.Selected)
	assert.Equal(t, "established", pose.Anchor)
}

func TestObserve_PoseEvery(t *testing.T) {
	s := NewServer("0", nil)
	s.PoseEvery = 3

	// No viewers: nothing is queued regardless of tick.
	s.Observe(pipeline.Snapshot{Tick: 3})
	assert.Zero(t, s.PoseHub().Stats().Dropped)
}
