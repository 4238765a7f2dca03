// Package audio plays the game's sound cues.
package audio

import "sync"

// Cue identifies a sound effect.
type Cue int

const (
	// CueCleared plays when a matched target crosses the match line.
	CueCleared Cue = iota
	// CueLifeLost plays when a target is missed and lives remain.
	CueLifeLost
	// CueGameOver plays when the last life is lost.
	CueGameOver
	// CueTransition plays when a scene transition starts.
	CueTransition
)

func (c Cue) String() string {
	switch c {
	case CueCleared:
		return "cleared"
	case CueLifeLost:
		return "life_lost"
	case CueGameOver:
		return "game_over"
	case CueTransition:
		return "transition"
	default:
		return "unknown"
	}
}

// Player plays cues. Play must not block the caller.
type Player interface {
	Play(cue Cue)
}

// Nop is a Player that plays nothing.
type Nop struct{}

// Play does nothing.
func (Nop) Play(Cue) {}

// Recorder is a Player that remembers every cue it was asked to play.
type Recorder struct {
	mu   sync.Mutex
	cues []Cue
}

// Play records the cue.
func (r *Recorder) Play(cue Cue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, cue)
}

// Cues returns a copy of the recorded cues in play order.
func (r *Recorder) Cues() []Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Cue, len(r.cues))
	copy(out, r.cues)
	return out
}

// Count returns how many times cue was played.
func (r *Recorder) Count(cue Cue) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.cues {
		if c == cue {
			n++
		}
	}
	return n
}

// Reset forgets all recorded cues.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = nil
}
