// Package audio holds the audio interface settings of the media controller.
package audio

import (
	"fmt"
	"time"

	"github.com/faiface/beep"
	"go.uber.org/zap"

	"github.com/ivlev/mcslides/internal/configspec"
)

const (
	DefaultBufferSamples = 2048
	DefaultChannels      = 1
	DefaultSampleRate    = 44100
	DefaultMasterVolume  = 0.5
)

// Settings are the parameters the audio interface is opened with
type Settings struct {
	Enabled       bool    `json:"enabled"`
	BufferSamples int     `json:"buffer_samples"`
	AudioChannels int     `json:"audio_channels"`
	SampleRate    int     `json:"sample_rate"`
	MasterVolume  float64 `json:"master_volume"`
}

// DefaultSettings returns the settings used when sound_system: is absent
func DefaultSettings() Settings {
	return Settings{
		Enabled:       true,
		BufferSamples: DefaultBufferSamples,
		AudioChannels: DefaultChannels,
		SampleRate:    DefaultSampleRate,
		MasterVolume:  DefaultMasterVolume,
	}
}

// FromConfig validates a sound_system: section. A buffer size that is not a
// power of two cannot be used by the audio interface and is replaced by the
// default.
func FromConfig(section map[string]any, v *configspec.Validator, logger *zap.Logger) (Settings, error) {
	if v == nil {
		v = configspec.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	validated, err := v.ValidateConfig("sound_system", section, "")
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		Enabled:       validated["enabled"].(bool),
		BufferSamples: validated["buffer"].(int),
		AudioChannels: validated["channels"].(int),
		SampleRate:    validated["frequency"].(int),
		MasterVolume:  validated["master_volume"].(float64),
	}

	if !isPowerOfTwo(s.BufferSamples) {
		logger.Warn("audio buffer size is not a power of two, using default",
			zap.Int("buffer", s.BufferSamples),
			zap.Int("default", DefaultBufferSamples))
		s.BufferSamples = DefaultBufferSamples
	}
	if s.AudioChannels < 1 || s.AudioChannels > 2 {
		return Settings{}, fmt.Errorf("sound_system: channels must be 1 or 2, got %d", s.AudioChannels)
	}
	if s.SampleRate <= 0 {
		return Settings{}, fmt.Errorf("sound_system: frequency must be positive, got %d", s.SampleRate)
	}
	if s.MasterVolume < 0 || s.MasterVolume > 1 {
		return Settings{}, fmt.Errorf("sound_system: master_volume must be between 0 and 1, got %v", s.MasterVolume)
	}
	return s, nil
}

// BufferLatency is the time it takes to play one buffer
func (s Settings) BufferLatency() time.Duration {
	return beep.SampleRate(s.SampleRate).D(s.BufferSamples)
}

// Map returns the settings in the shape the audio interface reports them
func (s Settings) Map() map[string]any {
	return map[string]any{
		"enabled":        s.Enabled,
		"buffer_samples": s.BufferSamples,
		"audio_channels": s.AudioChannels,
		"sample_rate":    s.SampleRate,
		"master_volume":  s.MasterVolume,
	}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
