package feed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Bias is the editorial leaning of a source on a 7-point scale. The zero
// value is center, so an unconfigured bias stays neutral.
type Bias int

const (
	BiasFarLeft Bias = iota - 3
	BiasLeft
	BiasLeanLeft
	BiasCenter
	BiasLeanRight
	BiasRight
	BiasFarRight
)

// BiasBucket collapses the 7-point scale into three buckets for
// perspective breakdowns.
type BiasBucket int

const (
	BucketLeft BiasBucket = iota
	BucketCenter
	BucketRight
)

var biasNames = map[Bias]string{
	BiasFarLeft:   "far-left",
	BiasLeft:      "left",
	BiasLeanLeft:  "lean-left",
	BiasCenter:    "center",
	BiasLeanRight: "lean-right",
	BiasRight:     "right",
	BiasFarRight:  "far-right",
}

var biasByName = map[string]Bias{
	"far-left":   BiasFarLeft,
	"left":       BiasLeft,
	"lean-left":  BiasLeanLeft,
	"center":     BiasCenter,
	"lean-right": BiasLeanRight,
	"right":      BiasRight,
	"far-right":  BiasFarRight,
}

// biasPositions maps each leaning to a numeric position in [-1, 1].
var biasPositions = map[Bias]float64{
	BiasFarLeft:   -1.0,
	BiasLeft:      -0.66,
	BiasLeanLeft:  -0.33,
	BiasCenter:    0.0,
	BiasLeanRight: 0.33,
	BiasRight:     0.66,
	BiasFarRight:  1.0,
}

func (b Bias) String() string {
	return biasNames[b]
}

// Position returns the numeric leaning in [-1, 1].
func (b Bias) Position() float64 {
	return biasPositions[b]
}

// Bucket collapses the leaning into left/center/right.
func (b Bias) Bucket() BiasBucket {
	switch {
	case b < BiasCenter:
		return BucketLeft
	case b > BiasCenter:
		return BucketRight
	default:
		return BucketCenter
	}
}

func (bb BiasBucket) String() string {
	switch bb {
	case BucketLeft:
		return "left"
	case BucketRight:
		return "right"
	default:
		return "center"
	}
}

// UnmarshalYAML parses a bias label like "lean-left".
func (b *Bias) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	bias, ok := biasByName[name]
	if !ok {
		return fmt.Errorf("unknown bias label %q", name)
	}
	*b = bias
	return nil
}

// Source is one configured feed. Immutable after loading.
type Source struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	URL         string  `yaml:"url"`
	Category    string  `yaml:"category"`
	Bias        Bias    `yaml:"bias"`
	Reliability float64 `yaml:"reliability"`
}

// SourcesConfig is the YAML config structure
// sources:
//   - id: bbc-world
//     url: https://...
type SourcesConfig struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the source list from a YAML file.
func LoadSources(path string) ([]Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg SourcesConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	for i, s := range cfg.Sources {
		if s.ID == "" || s.URL == "" {
			return nil, fmt.Errorf("source %d: id and url are required", i)
		}
		if s.Reliability < 0 || s.Reliability > 1 {
			return nil, fmt.Errorf("source %s: reliability must be in [0,1]", s.ID)
		}
	}
	return cfg.Sources, nil
}
