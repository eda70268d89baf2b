package tracking

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/teslashibe/go-fishtank/pkg/skeleton"
)

// TrackingHinter receives the "track only this skeleton" hint.
// skeleton.Source satisfies it.
type TrackingHinter interface {
	RestrictTrackingTo(id int)
}

// Selection is the Selector's output for one tick.
type Selection struct {
	Skeleton skeleton.Skeleton // Valid only when Valid is true
	ID       int
	Valid    bool // False when no skeleton is followed

	// Changed is true on the tick the followed skeleton changed
	// (including to or from none).
	Changed     bool
	PreviousID  int
	HadPrevious bool

	// Session identifies one uninterrupted selection of a skeleton.
	Session uuid.UUID
}

// Selector picks the skeleton closest to the sensor and keeps following it.
type Selector struct {
	hinter TrackingHinter
	logger *slog.Logger

	id      int
	has     bool
	session uuid.UUID
}

// NewSelector creates a selector. hinter may be nil.
func NewSelector(hinter TrackingHinter, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{hinter: hinter, logger: logger}
}

// Select runs one tick of selection over the frame's candidates.
func (s *Selector) Select(frame skeleton.Frame) Selection {
	prevID, prevHas := s.id, s.has

	var (
		next    skeleton.Skeleton
		nextHas bool
	)
	if _, present := frame.Find(prevID); prevHas && !present {
		// Followed skeleton left the frame: drop it for this tick.
		nextHas = false
	} else {
		next, nextHas = Closest(frame.Skeletons)
	}

	changed := nextHas != prevHas || (nextHas && next.ID != prevID)
	if changed {
		s.id, s.has = next.ID, nextHas
		if nextHas {
			s.session = uuid.New()
			if s.hinter != nil {
				s.hinter.RestrictTrackingTo(next.ID)
			}
			s.logger.Info("viewer selected",
				"skeleton", next.ID, "depth", next.Depth(), "session", s.session)
		} else {
			s.logger.Info("viewer lost", "skeleton", prevID, "session", s.session)
			s.id, s.session = 0, uuid.Nil
		}
	}

	return Selection{
		Skeleton:    next,
		ID:          s.id,
		Valid:       nextHas,
		Changed:     changed,
		PreviousID:  prevID,
		HadPrevious: prevHas,
		Session:     s.session,
	}
}

// Closest returns the PositionOnly or Tracked skeleton nearest the sensor.
// On equal depth the earlier skeleton wins.
func Closest(candidates []skeleton.Skeleton) (skeleton.Skeleton, bool) {
	var (
		best  skeleton.Skeleton
		found bool
	)
	for _, c := range candidates {
		if !c.State.Followable() {
			continue
		}
		if !found || c.Depth() < best.Depth() {
			best, found = c, true
		}
	}
	return best, found
}
