package chunk

import "strings"

// separatorsByLanguage lists, for each language class, separator strings in
// priority order from "split on this first" (coarsest, e.g. blank lines
// between top-level declarations) to "split on this last" (finest, e.g. a
// single space). The empty string is an implicit final separator meaning
// "split by character" and is appended by the splitter, not listed here.
var separatorsByLanguage = map[string][]string{
	"go":         {"\nfunc ", "\ntype ", "\nvar ", "\nconst ", "\n\n", "\n", ". ", " "},
	"rust":       {"\nfn ", "\nimpl ", "\nstruct ", "\nenum ", "\ntrait ", "\n\n", "\n", ". ", " "},
	"python":     {"\nclass ", "\ndef ", "\n\n", "\n", ". ", " "},
	"c":          {"\n\n", "\nstruct ", "\n", ". ", " "},
	"cpp":        {"\n\n", "\nclass ", "\nstruct ", "\nnamespace ", "\n", ". ", " "},
	"java":       {"\n\n", "\nclass ", "\ninterface ", "\npublic ", "\nprivate ", "\n", ". ", " "},
	"javascript": {"\n\n", "\nfunction ", "\nclass ", "\nconst ", "\nexport ", "\n", "; ", " "},
	"typescript": {"\n\n", "\nfunction ", "\nclass ", "\ninterface ", "\nconst ", "\nexport ", "\n", "; ", " "},
	"markdown":   {"\n## ", "\n### ", "\n#### ", "\n\n", "\n", ". ", " "},
	"text":       {"\n\n", "\n", ". ", " "},
}

// extensionLanguage maps file extensions to a language class key in
// separatorsByLanguage.
var extensionLanguage = map[string]string{
	".go":    "go",
	".rs":    "rust",
	".py":    "python",
	".pyw":   "python",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".java":  "java",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".md":    "markdown",
	".mdx":   "markdown",
	".markdown": "markdown",
}

// plainTextExtensions is the configured set of extensions chunked as plain
// text rather than rejected as unsupported.
var plainTextExtensions = map[string]struct{}{
	".txt": {}, ".rst": {}, ".adoc": {}, ".yaml": {}, ".yml": {}, ".json": {},
	".toml": {}, ".cfg": {}, ".ini": {}, ".env": {}, ".sql": {}, ".sh": {},
	".bash": {}, ".proto": {}, ".graphql": {},
}

// LanguageForExtension returns the separator-list key for ext (lowercased,
// including the leading dot) and whether the extension is supported at all
// (either as a dedicated language class or as configured plain text).
func LanguageForExtension(ext string) (language string, supported bool) {
	ext = strings.ToLower(ext)
	if lang, ok := extensionLanguage[ext]; ok {
		return lang, true
	}
	if _, ok := plainTextExtensions[ext]; ok {
		return "text", true
	}
	return "", false
}

func separatorsFor(language string) []string {
	if seps, ok := separatorsByLanguage[language]; ok {
		return seps
	}
	return separatorsByLanguage["text"]
}
