package detector

import (
	"sync/atomic"
	"time"
)

// Snapshot is one detection result as delivered by a producer.
type Snapshot struct {
	Poses []Pose
	At    time.Time
}

// Feed holds the latest detection snapshot. Producers overwrite it at their
// own cadence; the game loop reads whatever is current without waiting.
// The zero value is ready to use.
type Feed struct {
	latest  atomic.Pointer[Snapshot]
	started atomic.Bool
}

// NewFeed creates an empty Feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Publish replaces the current snapshot. The first non-empty snapshot marks
// the feed as started.
func (f *Feed) Publish(poses []Pose) {
	f.latest.Store(&Snapshot{Poses: poses, At: time.Now()})
	if len(poses) > 0 {
		f.started.Store(true)
	}
}

// Poses returns the poses of the current snapshot, possibly empty.
// Callers must treat the result as read-only.
func (f *Feed) Poses() []Pose {
	s := f.latest.Load()
	if s == nil {
		return nil
	}
	return s.Poses
}

// Snapshot returns the current snapshot.
func (f *Feed) Snapshot() Snapshot {
	s := f.latest.Load()
	if s == nil {
		return Snapshot{}
	}
	return *s
}

// Started reports whether real pose data has ever arrived.
func (f *Feed) Started() bool {
	return f.started.Load()
}
