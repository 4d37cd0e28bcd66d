// Package license detects the license governing a source tree from its
// license file's name and content, for recording in a library's manifest.
package license

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Confidence describes how sure a Detect result is.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceUnknown Confidence = "unknown"
)

// Result is the outcome of detecting a directory's license.
type Result struct {
	SPDXID     string
	Confidence Confidence
	SourceFile string
}

// filenamesByPriority is checked in order; the first match present in the
// directory is read.
var filenamesByPriority = []string{
	"LICENSE", "LICENSE.md", "LICENSE.txt",
	"COPYING", "COPYING.md", "COPYING.txt",
	"LICENSE-MIT", "LICENSE-APACHE",
}

// spdxPatterns is checked in order against license file content; the
// first pattern that matches wins. Order matters: more specific licenses
// (e.g. Apache-2.0) are checked before looser substring matches that could
// also appear inside them (e.g. a permissive-license boilerplate).
var spdxPatterns = []struct {
	id      string
	pattern *regexp.Regexp
}{
	{"Apache-2.0", regexp.MustCompile(`(?i)apache license,?\s*version 2\.0`)},
	{"MIT", regexp.MustCompile(`(?i)permission is hereby granted, free of charge`)},
	{"BSD-3-Clause", regexp.MustCompile(`(?i)redistributions of source code must retain`)},
	{"ISC", regexp.MustCompile(`(?i)permission to use, copy, modify, and/or distribute`)},
	{"GPL-3.0", regexp.MustCompile(`(?i)gnu general public license\s*\n?\s*version 3`)},
	{"GPL-2.0", regexp.MustCompile(`(?i)gnu general public license\s*\n?\s*version 2`)},
	{"MPL-2.0", regexp.MustCompile(`(?i)mozilla public license,? version 2\.0`)},
	{"Unlicense", regexp.MustCompile(`(?i)this is free and unencumbered software`)},
}

// Detect looks for a license file in dir (in filenamesByPriority order)
// and matches its content against spdxPatterns. A match yields the SPDX
// identifier with ConfidenceHigh; a license file that matches no pattern
// yields an empty SPDXID with ConfidenceMedium; no license file yields
// ConfidenceUnknown with no SourceFile. It never returns an error: an
// unrecognized license is not a build failure.
func Detect(dir string) Result {
	for _, name := range filenamesByPriority {
		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if id, ok := matchSPDX(string(content)); ok {
			return Result{SPDXID: id, Confidence: ConfidenceHigh, SourceFile: name}
		}
		return Result{Confidence: ConfidenceMedium, SourceFile: name}
	}
	return Result{Confidence: ConfidenceUnknown}
}

func matchSPDX(content string) (string, bool) {
	normalized := strings.TrimSpace(content)
	for _, p := range spdxPatterns {
		if p.pattern.MatchString(normalized) {
			return p.id, true
		}
	}
	return "", false
}
