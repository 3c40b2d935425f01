package batchline

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// A pipeline definition is a YAML document pairing exactly one kind tag and
// one configuration document per stage:
//
//	name: clickstream
//	interval: 5s
//	source:
//	  type: kafka
//	  options:
//	    brokers: localhost:9092
//	    topic: clicks
//	stages:
//	  - kind: json-stage
//	    config:
//	      column: event
//	sink:
//	  type: stdout
//
// Stage configs are re-encoded as JSON before they reach the kind registry;
// JSON is the wire contract, YAML is only the file syntax.

// ComponentSpec names a source or sink implementation and its options.
// Interpreting Type is up to the caller wiring the job (the CLI maps it to
// an extractor or loader constructor).
type ComponentSpec struct {
	Type    string            `yaml:"type"`
	Options map[string]string `yaml:"options"`
}

// StageSpec is the raw YAML form of one stage slot.
type StageSpec struct {
	Kind   Kind           `yaml:"kind"`
	Config map[string]any `yaml:"config"`
}

type pipelineSpec struct {
	Name     string        `yaml:"name"`
	Interval string        `yaml:"interval"`
	MaxTicks int           `yaml:"max_ticks"`
	Source   ComponentSpec `yaml:"source"`
	Stages   []StageSpec   `yaml:"stages"`
	Sink     ComponentSpec `yaml:"sink"`
}

// Pipeline is a loaded definition with every stage config resolved against
// the kind registry. Resolution happens exactly once, at load; the engine
// reuses the resolved configs for every batch.
type Pipeline struct {
	Name     string
	Interval time.Duration
	MaxTicks int
	Source   ComponentSpec
	Stages   []Stage
	Sink     ComponentSpec
}

// LoadPipeline parses and resolves a YAML pipeline definition.
func LoadPipeline(data []byte) (*Pipeline, error) {
	var spec pipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("batchline: parse pipeline: %w", err)
	}
	if spec.Name == "" {
		return nil, fmt.Errorf("batchline: pipeline has no name")
	}
	if len(spec.Stages) == 0 {
		return nil, fmt.Errorf("batchline: pipeline %q has no stages", spec.Name)
	}

	p := &Pipeline{
		Name:     spec.Name,
		MaxTicks: spec.MaxTicks,
		Source:   spec.Source,
		Sink:     spec.Sink,
	}

	if spec.Interval != "" {
		d, err := time.ParseDuration(spec.Interval)
		if err != nil {
			return nil, fmt.Errorf("batchline: pipeline %q: bad interval: %w", spec.Name, err)
		}
		p.Interval = d
	}

	for i, stage := range spec.Stages {
		raw, err := json.Marshal(stage.Config)
		if err != nil {
			return nil, fmt.Errorf("batchline: pipeline %q: stage %d: %w", spec.Name, i, err)
		}
		cfg, err := DecodeConfig(stage.Kind, raw)
		if err != nil {
			return nil, fmt.Errorf("batchline: pipeline %q: stage %d: %w", spec.Name, i, err)
		}
		p.Stages = append(p.Stages, Stage{Kind: stage.Kind, Config: cfg})
	}

	return p, nil
}
