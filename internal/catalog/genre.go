package catalog

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
)

// Genre is the finite tag set presets are keyed by. GenreGeneral is the
// documented default for anything unmatched.
type Genre string

const (
	GenreTrap       Genre = "trap"
	GenreHipHop     Genre = "hip-hop"
	GenreElectronic Genre = "electronic"
	GenreRock       Genre = "rock"
	GenrePop        Genre = "pop"
	GenreJazz       Genre = "jazz"
	GenreClassical  Genre = "classical"
	GenreRnB        Genre = "rnb"
	GenreReggae     Genre = "reggae"
	GenreGeneral    Genre = "general"
)

// genreKeywords maps each genre to the filename fragments that imply it.
// Order matters: the first matching genre wins, so more specific tags come
// first.
var genreOrder = []Genre{
	GenreTrap,
	GenreHipHop,
	GenreElectronic,
	GenreRock,
	GenrePop,
	GenreJazz,
	GenreClassical,
	GenreRnB,
	GenreReggae,
}

var genreKeywords = map[Genre][]string{
	GenreTrap:       {"trap", "808", "drill", "rage"},
	GenreHipHop:     {"rap", "hip hop", "hiphop", "hip-hop", "boom bap"},
	GenreElectronic: {"edm", "house", "techno", "dubstep", "dnb", "electronic"},
	GenreRock:       {"rock", "metal", "punk", "indie"},
	GenrePop:        {"pop", "chart", "radio"},
	GenreJazz:       {"jazz", "swing", "bebop"},
	GenreClassical:  {"classical", "symphony", "orchestra"},
	GenreRnB:        {"rnb", "r&b", "soul"},
	GenreReggae:     {"reggae", "reggaeton", "dancehall"},
}

// DetectGenre infers a genre tag for an audio file. MP3 files are checked
// for an ID3 genre frame first; everything falls back to filename keyword
// matching, then GenreGeneral.
func DetectGenre(path string) Genre {
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		if genre, ok := genreFromID3(path); ok {
			return genre
		}
	}
	return matchGenre(stemOf(path))
}

// NormalizeGenre maps free-form genre text onto the known tag set.
func NormalizeGenre(value string) (Genre, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return GenreGeneral, false
	}
	if genre := matchGenre(normalized); genre != GenreGeneral {
		return genre, true
	}
	return GenreGeneral, false
}

func genreFromID3(path string) (Genre, bool) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Genre"}})
	if err != nil {
		return GenreGeneral, false
	}
	defer tag.Close()
	return NormalizeGenre(tag.Genre())
}

func matchGenre(text string) Genre {
	lowered := strings.ToLower(text)
	for _, genre := range genreOrder {
		for _, keyword := range genreKeywords[genre] {
			if strings.Contains(lowered, keyword) {
				return genre
			}
		}
	}
	return GenreGeneral
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DominantGenre returns the most common genre across candidates, preferring
// the earlier candidate's tag on ties. Used for album-level preset choice.
func DominantGenre(candidates []Candidate) Genre {
	if len(candidates) == 0 {
		return GenreGeneral
	}
	counts := make(map[Genre]int, len(candidates))
	order := make([]Genre, 0, len(candidates))
	for _, candidate := range candidates {
		if counts[candidate.Genre] == 0 {
			order = append(order, candidate.Genre)
		}
		counts[candidate.Genre]++
	}
	best := order[0]
	for _, genre := range order {
		if counts[genre] > counts[best] {
			best = genre
		}
	}
	return best
}
