package skeleton

// Source delivers skeleton frames. PollSkeletons must not block for longer
// than one polling attempt; ok=false means no frame was available this tick.
type Source interface {
	PollSkeletons() (frame Frame, ok bool)
	// RestrictTrackingTo asks the device to track only the given skeleton.
	// It is advisory and fire-and-forget.
	RestrictTrackingTo(id int)
}
