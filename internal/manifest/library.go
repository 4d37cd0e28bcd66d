// Package manifest defines the Library Manifest embedded in every artifact
// file, and the persistent per-location installation record
// (manifest.json) the package manager maintains.
package manifest

import "time"

// EmbeddingConfig records which model produced an artifact's vectors.
type EmbeddingConfig struct {
	ModelID      string `json:"modelId"`
	Dimensions   int    `json:"dimensions"`
	Quantization string `json:"quantization,omitempty"`
}

// ChunkingConfig records how an artifact's chunks were produced.
type ChunkingConfig struct {
	Strategy     string `json:"strategy"`
	ChunkSize    int    `json:"chunkSize"`
	ChunkOverlap int    `json:"chunkOverlap"`
}

// Stats are populated in the indexer's final pass.
type Stats struct {
	ChunkCount  int   `json:"chunkCount"`
	SourceCount int   `json:"sourceCount"`
	FileSize    int64 `json:"fileSize"`
}

// SourceProvenance records where an artifact's content came from.
type SourceProvenance struct {
	Type       string   `json:"type"` // "file" | "git"
	PathOrURL  string   `json:"pathOrUrl"`
	Ref        string   `json:"ref,omitempty"`
	CommitHash string   `json:"commitHash,omitempty"`
	Licenses   []string `json:"licenses,omitempty"`
}

// LibraryManifest is the typed metadata stored as JSON under the
// reserved "manifest" library_meta key.
type LibraryManifest struct {
	Name                 string           `json:"name"`
	Version              string           `json:"version"`
	SchemaVersion         int              `json:"schemaVersion"`
	ContentVersion        string           `json:"contentVersion,omitempty"`
	ContentVersionType    string           `json:"contentVersionType,omitempty"` // semver|commit|date|revision|custom
	Description           string           `json:"description,omitempty"`
	AgentDescription      string           `json:"agentDescription,omitempty"`
	ExampleQueries        []string         `json:"exampleQueries,omitempty"`
	Keywords              []string         `json:"keywords,omitempty"`
	ProgrammingLanguages  []string         `json:"programmingLanguages,omitempty"`
	TextLanguages         []string         `json:"textLanguages,omitempty"` // ISO 639-1
	Frameworks            []string         `json:"frameworks,omitempty"`
	License               string           `json:"license,omitempty"`
	Author                string           `json:"author,omitempty"`
	Repository            string           `json:"repository,omitempty"`
	CreatedAt             time.Time        `json:"createdAt"`
	Embedding             EmbeddingConfig  `json:"embedding"`
	Chunking              ChunkingConfig   `json:"chunking"`
	Stats                 Stats            `json:"stats"`
	ContentHash           string           `json:"contentHash"` // algorithm-prefixed hex, e.g. "sha256:..."
	Source                SourceProvenance `json:"source"`
}
