package ambient

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownMood       = errors.New("unknown mood")
	ErrUnknownInstrument = errors.New("unknown instrument")
)

// Mood is an emotional state that selects a recipe and a volume multiplier.
type Mood uint8

const (
	MoodNone Mood = iota
	Peaceful
	Stressed
	Sad
	Emotional
	Angry
	Anxious
	Happy
	Devotional
	Divine
	Sleep
	Focus
	Energy
	Powerful
)

var moodNames = [...]string{
	MoodNone:   "",
	Peaceful:   "peaceful",
	Stressed:   "stressed",
	Sad:        "sad",
	Emotional:  "emotional",
	Angry:      "angry",
	Anxious:    "anxious",
	Happy:      "happy",
	Devotional: "devotional",
	Divine:     "divine",
	Sleep:      "sleep",
	Focus:      "focus",
	Energy:     "energy",
	Powerful:   "powerful",
}

func (m Mood) String() string {
	if int(m) < len(moodNames) {
		return moodNames[m]
	}
	return fmt.Sprintf("mood(%d)", uint8(m))
}

func (m Mood) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mood) UnmarshalText(b []byte) error {
	v, err := ParseMood(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMood maps a key like "Peaceful" or " sleep " to a Mood. The empty
// string is MoodNone.
func ParseMood(s string) (Mood, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return MoodNone, nil
	}
	for i, name := range moodNames {
		if i > 0 && name == key {
			return Mood(i), nil
		}
	}
	return MoodNone, fmt.Errorf("%w: %q", ErrUnknownMood, s)
}

// Moods lists every mood except MoodNone.
func Moods() []Mood {
	out := make([]Mood, 0, len(moodNames)-1)
	for i := 1; i < len(moodNames); i++ {
		out = append(out, Mood(i))
	}
	return out
}

// Instrument is a sound character chosen directly, bypassing the mood recipe.
type Instrument uint8

const (
	InstrumentNone Instrument = iota
	Om
	Bells
	Tanpura
	Flute
	Nature
	Water
	Wind
	Chimes
	SingingBowls
	MantraRhythm
)

var instrumentNames = [...]string{
	InstrumentNone: "",
	Om:             "om",
	Bells:          "bells",
	Tanpura:        "tanpura",
	Flute:          "flute",
	Nature:         "nature",
	Water:          "water",
	Wind:           "wind",
	Chimes:         "chimes",
	SingingBowls:   "singing-bowls",
	MantraRhythm:   "mantra-rhythm",
}

func (i Instrument) String() string {
	if int(i) < len(instrumentNames) {
		return instrumentNames[i]
	}
	return fmt.Sprintf("instrument(%d)", uint8(i))
}

func (i Instrument) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Instrument) UnmarshalText(b []byte) error {
	v, err := ParseInstrument(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// ParseInstrument maps a key like "singing-bowls" to an Instrument.
// Underscores are accepted in place of hyphens. The empty string is
// InstrumentNone.
func ParseInstrument(s string) (Instrument, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	if key == "" {
		return InstrumentNone, nil
	}
	for i, name := range instrumentNames {
		if i > 0 && name == key {
			return Instrument(i), nil
		}
	}
	return InstrumentNone, fmt.Errorf("%w: %q", ErrUnknownInstrument, s)
}

// Instruments lists every instrument except InstrumentNone.
func Instruments() []Instrument {
	out := make([]Instrument, 0, len(instrumentNames)-1)
	for i := 1; i < len(instrumentNames); i++ {
		out = append(out, Instrument(i))
	}
	return out
}
