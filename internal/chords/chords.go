// Package chords transposes chord symbols and the chord annotations of song text.
//
// Songs mark chords either inline in brackets ("[G]Amazing [D/F#]grace") or on lines holding only chords
// ("G   D/F#   Em"). Flat roots stay flat after transposition.
package chords

import (
	"regexp"
	"strings"
)

var (
	sharps   = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	flats    = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}
	toSharps = map[string]string{"Db": "C#", "Eb": "D#", "Gb": "F#", "Ab": "G#", "Bb": "A#"}

	chordPattern = regexp.MustCompile(`^([CDEFGAB][b#]?)((?:maj|min|m|M|sus|add|dim|°|aug|dom|b5|#5|\d)*)(?:/([CDEFGAB][b#]?))?$`)
	bracketed    = regexp.MustCompile(`\[([^\]]+)\]`)
	token        = regexp.MustCompile(`\S+`)
)

// IsChord reports whether s is a chord symbol.
func IsChord(s string) bool {
	return chordPattern.MatchString(s)
}

// Transpose shifts chord by semitones. Symbols that are not chords are returned unchanged.
func Transpose(chord string, semitones int) string {
	m := chordPattern.FindStringSubmatch(chord)
	if m == nil {
		return chord
	}

	root, ok := transposeRoot(m[1], semitones)
	if !ok {
		return chord
	}
	out := root + m[2]
	if m[3] != "" {
		bass, ok := transposeRoot(m[3], semitones)
		if !ok {
			return chord
		}
		out += "/" + bass
	}
	return out
}

func transposeRoot(root string, semitones int) (string, bool) {
	norm := root
	if s, ok := toSharps[root]; ok {
		norm = s
	}

	idx := -1
	for i, n := range sharps {
		if n == norm {
			idx = i
			break
		}
	}
	if idx < 0 {
		return root, false
	}

	next := ((idx+semitones)%12 + 12) % 12
	if strings.Contains(root, "b") {
		return flats[next], true
	}
	return sharps[next], true
}

// TransposeText shifts every chord in content by semitones.
//
// Bracketed chords are rewritten wherever they appear. Lines without brackets are rewritten only when
// every token on them is a chord, so lyrics are never touched.
func TransposeText(content string, semitones int) string {
	if semitones%12 == 0 || content == "" {
		return content
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.Contains(line, "[") {
			lines[i] = bracketed.ReplaceAllStringFunc(line, func(s string) string {
				inner := s[1 : len(s)-1]
				if !IsChord(inner) {
					return s
				}
				return "[" + Transpose(inner, semitones) + "]"
			})
			continue
		}
		if IsChordLine(line) {
			lines[i] = token.ReplaceAllStringFunc(line, func(s string) string {
				return Transpose(s, semitones)
			})
		}
	}
	return strings.Join(lines, "\n")
}

// IsChordLine reports whether line is non-blank and made only of chord symbols.
func IsChordLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !IsChord(f) {
			return false
		}
	}
	return true
}
