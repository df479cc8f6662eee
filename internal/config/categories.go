package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Retrieval backends a category can be served by.
const (
	BackendRaw      = "raw"
	BackendDocument = "document"
)

const (
	DefaultLabel                 = "default"
	DefaultThreshold             = 0.5
	DefaultTopK                  = 3
	DefaultClassifierTemperature = 0.2
	DefaultSpecialistTemperature = 0.2
	DefaultFinalizerTemperature  = 0.3
)

// CategoryConfig describes where a category's passages live and which model
// drafts its answers.
type CategoryConfig struct {
	Label       string   `yaml:"label"`
	Backend     string   `yaml:"backend"`
	IndexPath   string   `yaml:"index_path,omitempty"`
	ChunksPath  string   `yaml:"chunks_path,omitempty"`
	Collection  string   `yaml:"collection,omitempty"`
	Model       string   `yaml:"model,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
}

// Threshold is nil when unset; an explicit 0 accepts every candidate.
type RoutingConfig struct {
	Threshold             *float64 `yaml:"threshold,omitempty"`
	TopK                  int      `yaml:"top_k"`
	ClassifierModel       string   `yaml:"classifier_model,omitempty"`
	ClassifierTemperature *float64 `yaml:"classifier_temperature,omitempty"`
}

type RetrievalConfig struct {
	Threshold *float64 `yaml:"threshold,omitempty"`
	TopK      int      `yaml:"top_k"`
}

func (r RoutingConfig) EffectiveThreshold() float64 {
	return valueOr(r.Threshold, DefaultThreshold)
}

func (r RetrievalConfig) EffectiveThreshold() float64 {
	return valueOr(r.Threshold, DefaultThreshold)
}

type FinalizerConfig struct {
	Model       string   `yaml:"model,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
}

// CategoryTable is the routing/retrieval/model table loaded at startup.
type CategoryTable struct {
	DefaultLabel string           `yaml:"default_label"`
	Routing      RoutingConfig    `yaml:"routing"`
	Retrieval    RetrievalConfig  `yaml:"retrieval"`
	Finalizer    FinalizerConfig  `yaml:"finalizer"`
	Categories   []CategoryConfig `yaml:"categories"`
}

// LoadCategoryTable reads the YAML table at path. A missing file yields the
// built-in table.
func LoadCategoryTable(path string) (*CategoryTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultCategoryTable(), nil
		}
		return nil, err
	}
	return ParseCategoryTable(data)
}

func ParseCategoryTable(data []byte) (*CategoryTable, error) {
	var t CategoryTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse category table: %w", err)
	}
	applyTableDefaults(&t)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func applyTableDefaults(t *CategoryTable) {
	if t.DefaultLabel == "" {
		t.DefaultLabel = DefaultLabel
	}
	if t.Routing.Threshold == nil {
		t.Routing.Threshold = floatPtr(DefaultThreshold)
	}
	if t.Routing.TopK == 0 {
		t.Routing.TopK = DefaultTopK
	}
	if t.Routing.ClassifierTemperature == nil {
		t.Routing.ClassifierTemperature = floatPtr(DefaultClassifierTemperature)
	}
	if t.Retrieval.Threshold == nil {
		t.Retrieval.Threshold = floatPtr(DefaultThreshold)
	}
	if t.Retrieval.TopK == 0 {
		t.Retrieval.TopK = DefaultTopK
	}
	if t.Finalizer.Temperature == nil {
		t.Finalizer.Temperature = floatPtr(DefaultFinalizerTemperature)
	}
	for i := range t.Categories {
		c := &t.Categories[i]
		c.Label = strings.ToLower(strings.TrimSpace(c.Label))
		c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
		if c.Backend == "" {
			c.Backend = BackendRaw
		}
		if c.Temperature == nil {
			c.Temperature = floatPtr(DefaultSpecialistTemperature)
		}
	}
}

func (t *CategoryTable) Validate() error {
	if v := t.Routing.EffectiveThreshold(); v < 0 || v > 1 {
		return fmt.Errorf("routing.threshold must be within [0,1], got %v", v)
	}
	if v := t.Retrieval.EffectiveThreshold(); v < 0 || v > 1 {
		return fmt.Errorf("retrieval.threshold must be within [0,1], got %v", v)
	}
	if t.Routing.TopK < 1 || t.Retrieval.TopK < 1 {
		return fmt.Errorf("top_k values must be positive")
	}

	seen := make(map[string]bool, len(t.Categories))
	for _, c := range t.Categories {
		if c.Label == "" {
			return fmt.Errorf("category with empty label")
		}
		if seen[c.Label] {
			return fmt.Errorf("duplicate category %q", c.Label)
		}
		seen[c.Label] = true

		switch c.Backend {
		case BackendRaw, BackendDocument:
		default:
			return fmt.Errorf("category %q: unknown backend %q", c.Label, c.Backend)
		}
	}
	if !seen[t.DefaultLabel] {
		return fmt.Errorf("category table has no entry for default label %q", t.DefaultLabel)
	}
	return nil
}

// Labels returns the closed set the classifier chooses from, in table order.
// The default label is a fallback and is not offered.
func (t *CategoryTable) Labels() []string {
	out := make([]string, 0, len(t.Categories))
	for _, c := range t.Categories {
		if c.Label != t.DefaultLabel {
			out = append(out, c.Label)
		}
	}
	return out
}

func (t *CategoryTable) Lookup(label string) (CategoryConfig, bool) {
	for _, c := range t.Categories {
		if c.Label == label {
			return c, true
		}
	}
	return CategoryConfig{}, false
}

// DefaultCategoryTable mirrors the layout produced by the offline index build.
func DefaultCategoryTable() *CategoryTable {
	t := &CategoryTable{
		Categories: []CategoryConfig{
			{Label: "medicine", Backend: BackendRaw, IndexPath: "vector_db/medicine/index.fvecs", ChunksPath: "vector_db/medicine/chunks.txt"},
			{Label: "treatment", Backend: BackendDocument, Collection: "treatment"},
			{Label: "assist_answer", Backend: BackendRaw, IndexPath: "vector_db/qa_part2/index.fvecs", ChunksPath: "vector_db/qa_part2/chunks.txt"},
			{Label: "assist_question", Backend: BackendRaw, IndexPath: "vector_db/qa_part2/index.fvecs", ChunksPath: "vector_db/qa_part2/chunks.txt"},
			{Label: "internal_answer", Backend: BackendRaw, IndexPath: "vector_db/qa_part1/index.fvecs", ChunksPath: "vector_db/qa_part1/chunks.txt"},
			{Label: "internal_question", Backend: BackendRaw, IndexPath: "vector_db/qa_part1/index.fvecs", ChunksPath: "vector_db/qa_part1/chunks.txt"},
			{Label: DefaultLabel, Backend: BackendRaw, IndexPath: "vector_db/qa_part2/index.fvecs", ChunksPath: "vector_db/qa_part2/chunks.txt"},
		},
	}
	applyTableDefaults(t)
	return t
}

func floatPtr(f float64) *float64 {
	return &f
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
