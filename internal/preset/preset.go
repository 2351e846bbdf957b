// Package preset maps genres and named targets to mastering engine
// configurations.
package preset

import (
	"sort"
	"strings"

	"quantum/internal/catalog"
	"quantum/internal/mastering"
)

// Preset names accepted on the command line and in configuration.
const (
	PopRadio   = "pop_radio"
	Audiophile = "audiophile"
	Streaming  = "streaming"
	Classical  = "classical"
	Electronic = "electronic"
)

// Default is used when no preset or genre information is available.
const Default = Streaming

var presets = map[string]mastering.Config{
	PopRadio: {
		Threshold: 0.95,
		Limiter:   true,
		Normalize: true,
	},
	Audiophile: {
		Threshold:          0.85,
		RMSCorrectionSteps: 6,
		Limiter:            true,
		Normalize:          true,
	},
	Streaming: {
		Threshold: 0.90,
		Limiter:   true,
		Normalize: true,
	},
	Classical: {
		Threshold:          0.75,
		RMSCorrectionSteps: 2,
		Limiter:            true,
		Normalize:          true,
	},
	Electronic: {
		Threshold: 0.98,
		Limiter:   true,
		Normalize: true,
	},
}

var genrePresets = map[catalog.Genre]string{
	catalog.GenreTrap:       Electronic,
	catalog.GenreHipHop:     PopRadio,
	catalog.GenreElectronic: Electronic,
	catalog.GenreRock:       PopRadio,
	catalog.GenrePop:        PopRadio,
	catalog.GenreJazz:       Audiophile,
	catalog.GenreClassical:  Classical,
	catalog.GenreRnB:        PopRadio,
	catalog.GenreReggae:     Streaming,
	catalog.GenreGeneral:    Streaming,
}

// Lookup resolves a preset name to its engine configuration. Unknown
// names fall back to the default preset.
func Lookup(name string) mastering.Config {
	if cfg, ok := presets[strings.ToLower(strings.TrimSpace(name))]; ok {
		return cfg
	}
	return presets[Default]
}

// Known reports whether name identifies a configured preset.
func Known(name string) bool {
	_, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// ForGenre picks the preset suited to a detected genre. It never fails;
// unmapped genres use the default preset.
func ForGenre(genre catalog.Genre) mastering.Config {
	if name, ok := genrePresets[genre]; ok {
		return presets[name]
	}
	return presets[Default]
}

// NameForGenre returns the preset name ForGenre would apply.
func NameForGenre(genre catalog.Genre) string {
	if name, ok := genrePresets[genre]; ok {
		return name
	}
	return Default
}

// Names lists all preset names in sorted order.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
