package ambient

import "maps"

// VolumePolicy scales a session's requested volume by mood so that calm
// moods sit quieter than energetic ones.
type VolumePolicy map[Mood]float64

// DefaultVolumePolicy returns the built-in table. Sleep is the quietest
// mood; energy and powerful are the loudest.
func DefaultVolumePolicy() VolumePolicy {
	return VolumePolicy{
		Sleep:      0.15,
		Anxious:    0.25,
		Peaceful:   0.30,
		Focus:      0.30,
		Angry:      0.35,
		Stressed:   0.35,
		Sad:        0.40,
		Emotional:  0.40,
		Devotional: 0.40,
		Divine:     0.40,
		Happy:      0.50,
		Energy:     0.55,
		Powerful:   0.55,
	}
}

// Multiplier returns the scale for m. MoodNone and moods missing from the
// table play at the requested volume.
func (p VolumePolicy) Multiplier(m Mood) float64 {
	if v, ok := p[m]; ok {
		return v
	}
	return 1
}

// Override sets the multiplier for the mood named name, clamped to [0,1].
func (p VolumePolicy) Override(name string, v float64) error {
	m, err := ParseMood(name)
	if err != nil {
		return err
	}
	if m == MoodNone {
		return ErrUnknownMood
	}
	p[m] = clamp01(v)
	return nil
}

// Clone returns an independent copy.
func (p VolumePolicy) Clone() VolumePolicy {
	return maps.Clone(p)
}

// EffectiveVolume is the master level for a session at volume with mood m.
func (p VolumePolicy) EffectiveVolume(volume float64, m Mood) float64 {
	volume = clamp01(volume)
	if m == MoodNone {
		return volume
	}
	return volume * p.Multiplier(m)
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
