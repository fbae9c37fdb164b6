// Package catalog holds the meditation moods and tracks offered to
// listeners. Every track maps onto an ambient instrument recipe.
package catalog

import (
	_ "embed"
	"fmt"

	"github.com/satindergrewal/naad/internal/ambient"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is the list of meditation moods.
type Catalog struct {
	Moods []Mood `yaml:"moods" json:"moods"`
}

// Mood is one meditation mood and its tracks.
type Mood struct {
	ID          string       `yaml:"id" json:"id"`
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description" json:"description"`
	Mood        ambient.Mood `yaml:"-" json:"mood"`
	Tracks      []Track      `yaml:"tracks" json:"tracks"`
}

// Track is a selectable sound: the parent mood's policy with an instrument
// recipe.
type Track struct {
	ID          string             `yaml:"id" json:"id"`
	Name        string             `yaml:"name" json:"name"`
	Description string             `yaml:"description" json:"description"`
	RawInstr    string             `yaml:"instrument" json:"-"`
	Instrument  ambient.Instrument `yaml:"-" json:"instrument"`
}

// Load parses the embedded catalogue.
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Parse decodes and validates a catalogue document. Mood ids must be ambient
// moods, instruments must be ambient instruments, and ids must be unique.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Moods) == 0 {
		return nil, fmt.Errorf("catalog has no moods")
	}

	seen := make(map[string]bool)
	for i := range c.Moods {
		m := &c.Moods[i]
		mood, err := ambient.ParseMood(m.ID)
		if err != nil || mood == ambient.MoodNone {
			return nil, fmt.Errorf("catalog mood %q: %w", m.ID, ambient.ErrUnknownMood)
		}
		m.Mood = mood
		if seen[m.ID] {
			return nil, fmt.Errorf("catalog: duplicate id %q", m.ID)
		}
		seen[m.ID] = true

		for j := range m.Tracks {
			tr := &m.Tracks[j]
			instr, err := ambient.ParseInstrument(tr.RawInstr)
			if err != nil || instr == ambient.InstrumentNone {
				return nil, fmt.Errorf("catalog track %q: instrument %q: %w", tr.ID, tr.RawInstr, ambient.ErrUnknownInstrument)
			}
			tr.Instrument = instr
			if seen[tr.ID] {
				return nil, fmt.Errorf("catalog: duplicate id %q", tr.ID)
			}
			seen[tr.ID] = true
		}
	}
	return &c, nil
}

// FindMood returns the mood with the given id.
func (c *Catalog) FindMood(id string) (*Mood, bool) {
	for i := range c.Moods {
		if c.Moods[i].ID == id {
			return &c.Moods[i], true
		}
	}
	return nil, false
}

// FindTrack returns the track with the given id and the mood it belongs to.
func (c *Catalog) FindTrack(id string) (*Mood, *Track, bool) {
	for i := range c.Moods {
		m := &c.Moods[i]
		for j := range m.Tracks {
			if m.Tracks[j].ID == id {
				return m, &m.Tracks[j], true
			}
		}
	}
	return nil, nil, false
}

// Options returns the player options that play track t of mood m.
func (t *Track) Options(m *Mood, volume *float64) ambient.Options {
	return ambient.Options{Mood: m.Mood, Instrument: t.Instrument, Volume: volume}
}
