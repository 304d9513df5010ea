package plan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"

	"gopkg.in/yaml.v3"
)

// Source defines how plans are loaded into the catalog.
type Source interface {
	Load(ctx context.Context) (map[string]Plan, error)
}

// InMemSource is a Source backed by a static map, useful for tests and for
// applications that define their catalog in code.
type InMemSource struct {
	plans map[string]Plan
}

// NewInMemSource creates a Source from the given plans map.
// The map is copied so later mutations by the caller are not observed.
func NewInMemSource(plans map[string]Plan) *InMemSource {
	cp := make(map[string]Plan, len(plans))
	maps.Copy(cp, plans)
	return &InMemSource{plans: cp}
}

func (s *InMemSource) Load(_ context.Context) (map[string]Plan, error) {
	cp := make(map[string]Plan, len(s.plans))
	maps.Copy(cp, s.plans)
	return cp, nil
}

// YAMLSource loads the catalog from a YAML document of the form:
//
//	plans:
//	  - slug: free
//	    name: Free
//	    limits:
//	      uploads: 3
//	      analyses: 3
type YAMLSource struct {
	path string
}

// NewYAMLSource creates a Source reading from the YAML file at path.
func NewYAMLSource(path string) *YAMLSource {
	return &YAMLSource{path: path}
}

type yamlCatalog struct {
	Plans []Plan `yaml:"plans"`
}

func (s *YAMLSource) Load(_ context.Context) (map[string]Plan, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	defer f.Close()

	return decodeYAML(f)
}

func decodeYAML(r io.Reader) (map[string]Plan, error) {
	var doc yamlCatalog
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	plans := make(map[string]Plan, len(doc.Plans))
	for _, p := range doc.Plans {
		if _, exists := plans[p.Slug]; exists {
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("duplicate plan slug %q", p.Slug))
		}
		plans[p.Slug] = p
	}
	return plans, nil
}
