package animation

import "sort"

// Step animates a set of properties to target values
type Step struct {
	Targets  map[string]float64
	Relative bool // targets are offsets from the value the step starts at
	Duration float64
	Easing   string
	// WithPrevious starts the step together with the previous one instead of
	// after it
	WithPrevious bool
}

// Keyframe is the value of one property at a point in time. Easing shapes
// the approach to this keyframe from the one before it.
type Keyframe struct {
	Time   float64
	Value  float64
	Easing string
}

// Timeline holds a keyframe track per animated property
type Timeline struct {
	tracks map[string][]Keyframe
	length float64
}

// NewTimeline lays steps out in time starting from the given property
// values. Properties missing from start begin at 0. A step that overlaps an
// earlier one on the same property starts from the value the track has at
// its begin time, and its keyframes are merged into the track in time order.
func NewTimeline(start map[string]float64, steps []Step) *Timeline {
	tl := &Timeline{tracks: make(map[string][]Keyframe)}

	cursor, prevBegin := 0.0, 0.0
	for _, step := range steps {
		begin := cursor
		if step.WithPrevious {
			begin = prevBegin
		}
		end := begin + step.Duration

		for _, prop := range sortedProps(step.Targets) {
			track := tl.tracks[prop]
			from := start[prop]
			if len(track) > 0 {
				from = Interpolate(track, begin)
			}
			to := step.Targets[prop]
			if step.Relative {
				to += from
			}

			if !hasKeyframeAt(track, begin) {
				track = setKeyframe(track, Keyframe{Time: begin, Value: from, Easing: segmentEasing(track, begin)})
			}
			tl.tracks[prop] = setKeyframe(track, Keyframe{Time: end, Value: to, Easing: step.Easing})
		}

		if end > cursor {
			cursor = end
		}
		prevBegin = begin
	}
	tl.length = cursor
	return tl
}

func hasKeyframeAt(track []Keyframe, t float64) bool {
	i := sort.Search(len(track), func(i int) bool { return track[i].Time >= t })
	return i < len(track) && track[i].Time == t
}

// setKeyframe inserts kf keeping the track sorted by time. A keyframe
// already at that time is replaced.
func setKeyframe(track []Keyframe, kf Keyframe) []Keyframe {
	i := sort.Search(len(track), func(i int) bool { return track[i].Time >= kf.Time })
	if i < len(track) && track[i].Time == kf.Time {
		track[i] = kf
		return track
	}
	track = append(track, Keyframe{})
	copy(track[i+1:], track[i:])
	track[i] = kf
	return track
}

// segmentEasing is the easing of the segment that contains t, so splitting
// it keeps its shape on the approach.
func segmentEasing(track []Keyframe, t float64) string {
	i := sort.Search(len(track), func(i int) bool { return track[i].Time > t })
	if i > 0 && i < len(track) {
		return track[i].Easing
	}
	return "linear"
}

// Length is the time the last step ends at
func (tl *Timeline) Length() float64 {
	return tl.length
}

// Properties lists the animated properties
func (tl *Timeline) Properties() []string {
	names := make([]string, 0, len(tl.tracks))
	for name := range tl.tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Values returns every animated property at time t
func (tl *Timeline) Values(t float64) map[string]float64 {
	out := make(map[string]float64, len(tl.tracks))
	for prop, track := range tl.tracks {
		out[prop] = Interpolate(track, t)
	}
	return out
}

// Interpolate returns the value of a keyframe track at time t. Before the
// first keyframe the first value holds; after the last the last value holds.
func Interpolate(keyframes []Keyframe, t float64) float64 {
	if len(keyframes) == 0 {
		return 0
	}
	if t <= keyframes[0].Time {
		return keyframes[0].Value
	}
	last := keyframes[len(keyframes)-1]
	if t >= last.Time {
		return last.Value
	}

	var prev, next Keyframe
	for i := 0; i < len(keyframes)-1; i++ {
		if t >= keyframes[i].Time && t < keyframes[i+1].Time {
			prev, next = keyframes[i], keyframes[i+1]
			break
		}
	}

	delta := next.Time - prev.Time
	if delta <= 0 {
		return next.Value
	}
	return Lerp(prev.Value, next.Value, Ease(next.Easing, (t-prev.Time)/delta))
}

func sortedProps(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
