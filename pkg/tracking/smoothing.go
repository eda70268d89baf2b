package tracking

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/go-gl/mathgl/mgl64"
)

// HeadFilter smooths the lateral head position with a constant-velocity
// Kalman filter. Depth passes through unfiltered.
type HeadFilter struct {
	dt               float64
	processNoise     float64
	measurementNoise float64

	kf *kalman_filter.Kalman2D
}

// NewHeadFilter creates a filter. Call Reset before the first Filter.
func NewHeadFilter(config Config) *HeadFilter {
	dt := config.FrameInterval.Seconds()
	if dt <= 0 {
		dt = DefaultConfig().FrameInterval.Seconds()
	}
	return &HeadFilter{
		dt:               dt,
		processNoise:     config.ProcessNoise,
		measurementNoise: config.MeasurementNoise,
	}
}

// Reset restarts the filter at the given position with zero velocity.
func (f *HeadFilter) Reset(p mgl64.Vec3) {
	f.kf = kalman_filter.NewKalman2D(
		f.dt,
		0, 0, // no control input
		f.processNoise,
		f.measurementNoise, f.measurementNoise,
		kalman_filter.WithState2D(p.X(), p.Y()),
	)
}

// Filter feeds one measurement and returns the smoothed position.
func (f *HeadFilter) Filter(p mgl64.Vec3) mgl64.Vec3 {
	if f.kf == nil {
		f.Reset(p)
		return p
	}
	f.kf.Predict()
	if err := f.kf.Update(p.X(), p.Y()); err != nil {
		// Singular innovation; restart from the raw measurement.
		f.Reset(p)
		return p
	}
	x, y := f.kf.GetState()
	return mgl64.Vec3{x, y, p.Z()}
}
