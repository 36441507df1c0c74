// Package loader discovers feature files on disk and turns them into
// scenario documents. Text sources go through pkg/gherkin, structured
// sources are decoded here and handed to pkg/structdoc. A file that fails
// to load never stops its siblings; per-file errors are collected on the
// LoadResult.
package loader

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/denizgursoy/tursu/pkg/gherkin"
	"github.com/denizgursoy/tursu/pkg/model"
	"github.com/denizgursoy/tursu/pkg/structdoc"
)

const (
	textExtension = ".feature"
	yamlExtension = ".feature.yaml"
	ymlExtension  = ".feature.yml"
	jsonExtension = ".feature.json"
)

// Option adjusts how files are loaded.
type Option func(*settings)

type settings struct {
	language string
}

// WithLanguage sets the default dialect for text sources that carry no
// language directive of their own.
func WithLanguage(tag string) Option {
	return func(s *settings) {
		s.language = tag
	}
}

// LoadResult holds the documents that loaded and the per-file errors of
// those that did not.
type LoadResult struct {
	Documents []*model.Document
	Errors    []error
}

// DiscoverFeatureFiles walks the given directories and returns every
// feature file found, in walk order.
func DiscoverFeatureFiles(directories []string) ([]string, error) {
	featureFiles := make([]string, 0)

	for _, directory := range directories {
		err := filepath.WalkDir(directory, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() && isFeatureFile(entry.Name()) {
				featureFiles = append(featureFiles, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("could not search %s for feature files: %w", directory, err)
		}
	}

	return featureFiles, nil
}

func isFeatureFile(name string) bool {
	switch {
	case strings.HasSuffix(name, yamlExtension),
		strings.HasSuffix(name, ymlExtension),
		strings.HasSuffix(name, jsonExtension),
		strings.HasSuffix(name, textExtension):
		return true
	}
	return false
}

// LoadFile reads and parses a single feature file. The document's URI is
// the path as given.
func LoadFile(path string, opts ...Option) (*model.Document, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read file %s: %w", path, err)
	}

	switch {
	case strings.HasSuffix(path, yamlExtension), strings.HasSuffix(path, ymlExtension):
		var tree any
		if err := yaml.Unmarshal(src, &tree); err != nil {
			return nil, fmt.Errorf("%s: invalid yaml: %w", path, err)
		}
		return structdoc.Convert(tree, structdoc.WithURI(path))

	case strings.HasSuffix(path, jsonExtension):
		var tree any
		if err := json.Unmarshal(src, &tree); err != nil {
			return nil, fmt.Errorf("%s: invalid json: %w", path, err)
		}
		return structdoc.Convert(tree, structdoc.WithURI(path))

	case strings.HasSuffix(path, textExtension):
		parseOpts := []gherkin.Option{gherkin.WithURI(path)}
		if s.language != "" {
			parseOpts = append(parseOpts, gherkin.WithLanguage(s.language))
		}
		return gherkin.Parse(src, parseOpts...)
	}

	return nil, fmt.Errorf("%s is not a feature file", path)
}

// Load parses every path, collecting documents and per-file errors side
// by side.
func Load(paths []string, opts ...Option) *LoadResult {
	result := &LoadResult{}
	for _, path := range paths {
		doc, err := LoadFile(path, opts...)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Documents = append(result.Documents, doc)
	}
	return result
}

// LoadDirs discovers feature files under the directories and loads them.
// Discovery problems are hard errors; parse problems land on the result.
func LoadDirs(directories []string, opts ...Option) (*LoadResult, error) {
	files, err := DiscoverFeatureFiles(directories)
	if err != nil {
		return nil, err
	}
	return Load(files, opts...), nil
}
