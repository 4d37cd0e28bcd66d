// Package chunk implements language-aware recursive character splitting:
// a file's content is recursively divided on a priority list of separators
// (paragraph breaks, then statement-ish separators, down to individual
// characters) so that no produced segment exceeds the configured chunk
// size, with a configurable character overlap between adjacent segments.
package chunk

import "strings"

// Split divides content into chunks no larger than opts.ChunkSize
// characters, with opts.ChunkOverlap characters of overlap between
// adjacent chunks, using the separator priority list for language (or
// opts.Language if set). Line numbers are attached by locating each
// chunk's first occurrence in content from a non-decreasing search
// cursor; a chunk whose text cannot be located (a pathological separator
// transform) gets StartLine/EndLine == 0.
func Split(content string, language string, opts Options) []Chunk {
	opts = opts.withDefaults()
	if strings.TrimSpace(content) == "" {
		return nil
	}
	if opts.Language != "" {
		language = opts.Language
	}

	pieces := splitRecursive(content, separatorsFor(language), opts.ChunkSize, opts.ChunkOverlap)
	return locateLines(content, pieces)
}

// splitRecursive implements the recursive-character splitting strategy.
func splitRecursive(text string, separators []string, chunkSize, overlap int) []string {
	if len([]rune(text)) <= chunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	sep, remaining := pickSeparator(text, separators)
	parts := splitOnSeparator(text, sep)

	var merged []string
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		if s := buf.String(); strings.TrimSpace(s) != "" {
			merged = append(merged, s)
		}
		buf.Reset()
		bufLen = 0
	}

	for _, part := range parts {
		partLen := len([]rune(part))

		if partLen > chunkSize {
			flush()
			merged = append(merged, splitRecursive(part, remaining, chunkSize, overlap)...)
			continue
		}

		if bufLen+partLen > chunkSize && bufLen > 0 {
			flush()
			// Cap the carried tail so tail+part still fits in chunkSize.
			n := overlap
			if n > chunkSize-partLen {
				n = chunkSize - partLen
			}
			if n > 0 {
				tail := lastRunes(merged[len(merged)-1], n)
				buf.WriteString(tail)
				bufLen = len([]rune(tail))
			}
		}

		buf.WriteString(part)
		bufLen += partLen
	}
	flush()

	return merged
}

// pickSeparator returns the first separator (in priority order) that
// occurs in text, and the remaining lower-priority separators to use for
// any piece that is still too large after splitting on it. Falls back to
// character-level splitting (empty separator) when none match.
func pickSeparator(text string, separators []string) (sep string, remaining []string) {
	for i, s := range separators {
		if s != "" && strings.Contains(text, s) {
			return s, separators[i+1:]
		}
	}
	return "", nil
}

// splitOnSeparator splits text on sep, keeping sep attached to the end of
// each resulting piece (except a possible final piece with no trailing
// separator) so pieces can be recombined without losing separator text.
// An empty sep splits into individual runes.
func splitOnSeparator(text, sep string) []string {
	if sep == "" {
		runes := []rune(text)
		pieces := make([]string, len(runes))
		for i, r := range runes {
			pieces[i] = string(r)
		}
		return pieces
	}
	return strings.SplitAfter(text, sep)
}

// lastRunes returns the trailing n runes of s (or all of s if shorter).
func lastRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

// locateLines attaches 1-based start/end line numbers to each piece by
// finding its first occurrence in content at or after a non-decreasing
// search cursor.
func locateLines(content string, pieces []string) []Chunk {
	chunks := make([]Chunk, 0, len(pieces))
	cursor := 0

	for _, piece := range pieces {
		c := Chunk{Content: piece}

		if idx := strings.Index(content[cursor:], piece); idx >= 0 {
			pos := cursor + idx
			c.StartLine = 1 + strings.Count(content[:pos], "\n")
			c.EndLine = c.StartLine + strings.Count(piece, "\n")
			cursor = pos
		}

		chunks = append(chunks, c)
	}

	return chunks
}
