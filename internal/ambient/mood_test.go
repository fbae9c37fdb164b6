package ambient

import (
	"errors"
	"testing"
)

func TestParseMood(t *testing.T) {
	tests := []struct {
		in   string
		want Mood
		err  error
	}{
		{"peaceful", Peaceful, nil},
		{"  Sleep ", Sleep, nil},
		{"EMOTIONAL", Emotional, nil},
		{"powerful", Powerful, nil},
		{"", MoodNone, nil},
		{"ecstatic", MoodNone, ErrUnknownMood},
	}
	for _, tt := range tests {
		got, err := ParseMood(tt.in)
		if got != tt.want || !errors.Is(err, tt.err) {
			t.Errorf("ParseMood(%q) = %v, %v; want %v, %v", tt.in, got, err, tt.want, tt.err)
		}
	}
}

func TestParseInstrument(t *testing.T) {
	tests := []struct {
		in   string
		want Instrument
		err  error
	}{
		{"singing-bowls", SingingBowls, nil},
		{"singing_bowls", SingingBowls, nil},
		{"Mantra-Rhythm", MantraRhythm, nil},
		{"om", Om, nil},
		{"", InstrumentNone, nil},
		{"harp", InstrumentNone, ErrUnknownInstrument},
	}
	for _, tt := range tests {
		got, err := ParseInstrument(tt.in)
		if got != tt.want || !errors.Is(err, tt.err) {
			t.Errorf("ParseInstrument(%q) = %v, %v; want %v, %v", tt.in, got, err, tt.want, tt.err)
		}
	}
}

func TestNamesRoundTrip(t *testing.T) {
	for _, m := range Moods() {
		got, err := ParseMood(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMood(%q) = %v, %v; want %v", m.String(), got, err, m)
		}
	}
	for _, i := range Instruments() {
		got, err := ParseInstrument(i.String())
		if err != nil || got != i {
			t.Errorf("ParseInstrument(%q) = %v, %v; want %v", i.String(), got, err, i)
		}
	}
	if len(Moods()) != 13 {
		t.Errorf("len(Moods()) = %d, want 13", len(Moods()))
	}
	if len(Instruments()) != 10 {
		t.Errorf("len(Instruments()) = %d, want 10", len(Instruments()))
	}
}

func TestOutOfRangeNames(t *testing.T) {
	if got := Mood(200).String(); got != "mood(200)" {
		t.Errorf("Mood(200).String() = %q", got)
	}
	if got := Instrument(99).String(); got != "instrument(99)" {
		t.Errorf("Instrument(99).String() = %q", got)
	}
}

func TestTextMarshaling(t *testing.T) {
	b, err := Divine.MarshalText()
	if err != nil || string(b) != "divine" {
		t.Errorf("Divine.MarshalText() = %q, %v", b, err)
	}
	var i Instrument
	if err := i.UnmarshalText([]byte("tanpura")); err != nil || i != Tanpura {
		t.Errorf("UnmarshalText(tanpura) = %v, %v", i, err)
	}
	var m Mood
	if err := m.UnmarshalText([]byte("nope")); !errors.Is(err, ErrUnknownMood) {
		t.Errorf("UnmarshalText(nope) err = %v, want ErrUnknownMood", err)
	}
}

// Every key in the closed sets must have a recipe; every mood must have a
// volume multiplier.
func TestTablesCoverEveryKey(t *testing.T) {
	policy := DefaultVolumePolicy()
	for _, m := range Moods() {
		if moodRecipes[m] == nil {
			t.Errorf("mood %q has no recipe", m)
		}
		if _, ok := policy[m]; !ok {
			t.Errorf("mood %q has no volume multiplier", m)
		}
	}
	for _, i := range Instruments() {
		if instrumentRecipes[i] == nil {
			t.Errorf("instrument %q has no recipe", i)
		}
	}
}

func TestSelectRecipe(t *testing.T) {
	if SelectRecipe(MoodNone, InstrumentNone) != nil {
		t.Error("no mood and no instrument should select nothing")
	}
	if SelectRecipe(Mood(200), InstrumentNone) != nil {
		t.Error("unknown mood should select nothing")
	}
	if SelectRecipe(Peaceful, Instrument(99)) != nil {
		t.Error("unknown instrument should win over mood and select nothing")
	}
	if SelectRecipe(Peaceful, InstrumentNone) == nil {
		t.Error("peaceful should select a recipe")
	}
}
