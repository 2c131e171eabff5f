// Package video models video assets and the playback state of video
// widgets. Decoding and drawing frames belong to the rendering engine; this
// package only tracks what the engine is asked to do.
package video

import (
	"fmt"
	"math"
)

// State is the playback state of a video
type State string

const (
	StateStopped State = "stopped"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// EndBehavior decides what happens when playback reaches the end
type EndBehavior string

const (
	EndLoop  EndBehavior = "loop"
	EndPause EndBehavior = "pause"
	EndStop  EndBehavior = "stop"
)

// ParseEndBehavior validates an end behavior name
func ParseEndBehavior(s string) (EndBehavior, error) {
	switch EndBehavior(s) {
	case EndLoop, EndPause, EndStop:
		return EndBehavior(s), nil
	}
	return "", fmt.Errorf("unknown end behavior %q", s)
}

// Options are the playback settings taken from a video widget
type Options struct {
	Volume      float64
	AutoPlay    bool
	EndBehavior EndBehavior
}

// Player tracks position, volume and state of one video widget
type Player struct {
	asset       Asset
	state       State
	position    float64
	volume      float64
	endBehavior EndBehavior
}

// NewPlayer creates a Player for asset. It starts playing when AutoPlay is
// set.
func NewPlayer(asset Asset, opts Options) *Player {
	p := &Player{
		asset:       asset,
		state:       StateStopped,
		endBehavior: opts.EndBehavior,
	}
	if p.endBehavior == "" {
		p.endBehavior = EndLoop
	}
	p.SetVolume(opts.Volume)
	if opts.AutoPlay {
		p.Play()
	}
	return p
}

// Asset is the video being played
func (p *Player) Asset() Asset { return p.asset }

// State is the playback state
func (p *Player) State() State { return p.state }

// Position is the playback position in seconds
func (p *Player) Position() float64 { return p.position }

// Duration is the length of the asset in seconds
func (p *Player) Duration() float64 { return p.asset.Duration }

// Volume is the playback volume between 0 and 1
func (p *Player) Volume() float64 { return p.volume }

// EndBehavior is what happens when playback reaches the end
func (p *Player) EndBehavior() EndBehavior { return p.endBehavior }

// WidgetState is the state as reported by the widget: play, pause or stop
func (p *Player) WidgetState() string {
	switch p.state {
	case StatePlaying:
		return "play"
	case StatePaused:
		return "pause"
	}
	return "stop"
}

// Play starts or resumes playback from the current position
func (p *Player) Play() {
	p.state = StatePlaying
}

// Pause holds the current position
func (p *Player) Pause() {
	if p.state == StatePlaying {
		p.state = StatePaused
	}
}

// Stop halts playback and rewinds to the beginning
func (p *Player) Stop() {
	p.state = StateStopped
	p.position = 0
}

// Seek jumps to a fraction (0.0 to 1.0) of the video
func (p *Player) Seek(fraction float64) {
	p.SetPosition(clamp(fraction, 0, 1) * p.asset.Duration)
}

// SetPosition jumps to an absolute position in seconds
func (p *Player) SetPosition(secs float64) {
	p.position = clamp(secs, 0, p.asset.Duration)
}

// SetVolume sets the volume, clamped to 0.0 to 1.0
func (p *Player) SetVolume(v float64) {
	p.volume = clamp(v, 0, 1)
}

// SetEndBehavior changes what happens at the end of the video
func (p *Player) SetEndBehavior(b EndBehavior) {
	p.endBehavior = b
}

// Advance moves playback forward by dt seconds
func (p *Player) Advance(dt float64) {
	if p.state != StatePlaying || dt <= 0 {
		return
	}

	p.position += dt
	d := p.asset.Duration
	if d <= 0 || p.position < d {
		return
	}

	switch p.endBehavior {
	case EndLoop:
		p.position = math.Mod(p.position, d)
	case EndPause:
		p.position = d
		p.state = StatePaused
	default:
		p.Stop()
	}
}

// Apply runs a control event action. seek takes a fraction, volume a level
// and position seconds.
func (p *Player) Apply(action string, value any) error {
	switch action {
	case "play":
		p.Play()
	case "pause":
		p.Pause()
	case "stop":
		p.Stop()
	case "seek", "volume", "position":
		v, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("video action %s requires a numeric value, got %v", action, value)
		}
		switch action {
		case "seek":
			p.Seek(v)
		case "volume":
			p.SetVolume(v)
		default:
			p.SetPosition(v)
		}
	default:
		return fmt.Errorf("unknown video action %q", action)
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if hi >= lo && v > hi {
		return hi
	}
	return v
}
