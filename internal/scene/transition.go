package scene

import (
	"image"

	"github.com/ayusman/superimpose/internal/render"
)

// Effect is how a transition style is animated. A masked effect reveals the
// incoming scene through one mask per frame. A coded effect has no masks and
// composes the frames itself.
type Effect struct {
	Masks []image.Image
	// Frames is the frame count of a coded effect.
	Frames int
	// EveryNth advances the animation every nth tick.
	EveryNth int
	// Compose, when set, draws a frame instead of the mask reveal.
	Compose func(s render.Surface, from, to Scene, frame, frames int)
}

// FrameCount returns the number of animation frames.
func (e Effect) FrameCount() int {
	if len(e.Masks) > 0 {
		return len(e.Masks)
	}
	return e.Frames
}

// SlashEffect reveals the incoming scene through a sequence of masks, one
// per tick.
func SlashEffect(masks []image.Image) Effect {
	return Effect{Masks: masks, EveryNth: 1}
}

// FadeEffect fades the outgoing scene to black and the incoming one back in.
func FadeEffect(frames int) Effect {
	return Effect{Frames: frames, EveryNth: 1, Compose: fade}
}

func fade(s render.Surface, from, to Scene, frame, frames int) {
	p := 1.0
	if frames > 1 {
		p = float64(frame) / float64(frames-1)
	}
	w, h := s.Size()
	var alpha float64
	if p < 0.5 {
		if from != nil {
			from.Draw(s)
		}
		alpha = p * 2
	} else {
		to.Draw(s)
		alpha = (1 - p) * 2
	}
	s.Rect(render.Rect{W: w, H: h}, render.Filled(render.WithAlpha(render.Black, uint8(alpha*255))))
}

// Transition animates between two scenes and then makes the incoming one
// current.
type Transition struct {
	machine *Machine
	from    Scene
	to      Scene
	target  Name
	style   string
	effect  Effect
	known   bool
	frames  int
	frame   int
	ticks   int
}

func newTransition(m *Machine, from, to Scene, target Name, style string, effect Effect, known bool) *Transition {
	frames := -1
	if known {
		frames = effect.FrameCount()
	}
	if effect.EveryNth <= 0 {
		effect.EveryNth = 1
	}
	return &Transition{
		machine: m,
		from:    from,
		to:      to,
		target:  target,
		style:   style,
		effect:  effect,
		known:   known,
		frames:  frames,
	}
}

// Target returns the name of the incoming scene.
func (t *Transition) Target() Name { return t.target }

// Style returns the transition style.
func (t *Transition) Style() string { return t.style }

// Frame returns the current animation frame and the total frame count,
// which is -1 for a style with no registered effect.
func (t *Transition) Frame() (int, int) { return t.frame, t.frames }

// Update advances the animation and finishes the transition on its last
// frame. A style without a registered effect finishes on the first update.
func (t *Transition) Update() {
	t.ticks++
	if t.ticks%t.effect.EveryNth == 0 {
		t.frame++
	}
	if t.frame >= t.frames-1 {
		t.machine.SwitchTo(t.target, false)
	}
}

// Draw paints the outgoing scene, the incoming scene through the current
// mask, or the effect's own composition.
func (t *Transition) Draw(s render.Surface) {
	if !t.known {
		t.to.Draw(s)
		return
	}

	frame := min(t.frame, max(t.frames-1, 0))
	if t.effect.Compose != nil {
		t.effect.Compose(s, t.from, t.to, frame, t.frames)
		return
	}

	if t.from != nil {
		t.from.Draw(s)
	}
	if len(t.effect.Masks) == 0 {
		return
	}
	s.PushMask(t.effect.Masks[frame])
	t.to.Draw(s)
	s.PopMask()
}

// HandleKey ignores input while the animation plays.
func (t *Transition) HandleKey(rune) {}
