// Package buildspec loads a YAML library metadata file: an alternative to
// spelling out every build flag on the command line, grounded on the
// teacher's own YAML settings file convention (internal/config).
package buildspec

import (
	"os"

	"gopkg.in/yaml.v3"

	libragenerrors "github.com/libragen/libragen/internal/errors"
)

// Chunking mirrors chunk.Options' tunable fields.
type Chunking struct {
	ChunkSize    int `yaml:"chunkSize,omitempty"`
	ChunkOverlap int `yaml:"chunkOverlap,omitempty"`
}

// Document is the YAML shape of a build spec file: the metadata and
// chunking fields a caller would otherwise have to pass as flags.
type Document struct {
	Name                 string   `yaml:"name,omitempty"`
	Version              string   `yaml:"version,omitempty"`
	Description          string   `yaml:"description,omitempty"`
	AgentDescription     string   `yaml:"agentDescription,omitempty"`
	ExampleQueries       []string `yaml:"exampleQueries,omitempty"`
	Keywords             []string `yaml:"keywords,omitempty"`
	License              string   `yaml:"license,omitempty"`
	Author               string   `yaml:"author,omitempty"`
	Repository           string   `yaml:"repository,omitempty"`
	ProgrammingLanguages []string `yaml:"programmingLanguages,omitempty"`
	TextLanguages        []string `yaml:"textLanguages,omitempty"`
	Frameworks           []string `yaml:"frameworks,omitempty"`
	Include              []string `yaml:"include,omitempty"`
	Exclude              []string `yaml:"exclude,omitempty"`
	Chunking             Chunking `yaml:"chunking,omitempty"`
}

// Load reads and parses a build spec YAML file.
func Load(path string) (Document, error) {
	var doc Document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, libragenerrors.Wrap(libragenerrors.KindIOError, "read build spec", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, libragenerrors.Wrap(libragenerrors.KindInvalidArtifact, "parse build spec", err)
	}
	return doc, nil
}
