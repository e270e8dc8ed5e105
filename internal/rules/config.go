package rules

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/garagedata/vehiclefacts/internal/model"
)

// Config is the top-level decision rule configuration.
type Config struct {
	Defaults DefaultConfig          `yaml:"defaults"`
	Fields   map[string]FieldConfig `yaml:"fields"`
}

// DefaultConfig holds global rule defaults.
type DefaultConfig struct {
	AcceptThreshold  float64 `yaml:"accept_threshold"`
	ClusterTolerance float64 `yaml:"cluster_tolerance"`
	OutlierSigma     float64 `yaml:"outlier_sigma"`
	// VariantSpread is the relative spread above which a numeric range
	// is attributed to real sub-variants rather than noise.
	VariantSpread float64 `yaml:"variant_spread"`
	// AgreementFloor is the minimum winning-weight ratio a boolean vote
	// needs to reach status ok.
	AgreementFloor float64 `yaml:"agreement_floor"`
	// MinConditionWeight is the evidence weight a condition label needs
	// before it becomes a conditional fact.
	MinConditionWeight float64 `yaml:"min_condition_weight"`
}

// FieldConfig configures rule behavior for a specific field.
type FieldConfig struct {
	Archetype       model.FieldArchetype `yaml:"archetype"`
	AcceptThreshold float64              `yaml:"accept_threshold"`
}

// Defaults returns the built-in rule configuration. Corroborating
// evidence is structurally scarce for variant counts, so that archetype
// carries a lower acceptance threshold.
func Defaults() *Config {
	return &Config{
		Defaults: DefaultConfig{
			AcceptThreshold:    0.7,
			ClusterTolerance:   0.15,
			OutlierSigma:       2.0,
			VariantSpread:      0.10,
			AgreementFloor:     0.75,
			MinConditionWeight: 0.5,
		},
		Fields: map[string]FieldConfig{
			"curb_weight":               {Archetype: model.ArchetypeNumeric},
			"aluminum_block":            {Archetype: model.ArchetypeBoolean},
			"aluminum_rims":             {Archetype: model.ArchetypeConditional},
			"catalytic_converter_count": {Archetype: model.ArchetypeCount, AcceptThreshold: 0.6},
		},
	}
}

// LoadConfig reads rule config from a YAML file, filling unset field
// thresholds from the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rules: read config %s", path)
	}

	var wrapper struct {
		Rules Config `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "rules: parse config")
	}

	cfg := &wrapper.Rules
	base := Defaults().Defaults
	if cfg.Defaults.AcceptThreshold == 0 {
		cfg.Defaults.AcceptThreshold = base.AcceptThreshold
	}
	if cfg.Defaults.ClusterTolerance == 0 {
		cfg.Defaults.ClusterTolerance = base.ClusterTolerance
	}
	if cfg.Defaults.OutlierSigma == 0 {
		cfg.Defaults.OutlierSigma = base.OutlierSigma
	}
	if cfg.Defaults.VariantSpread == 0 {
		cfg.Defaults.VariantSpread = base.VariantSpread
	}
	if cfg.Defaults.AgreementFloor == 0 {
		cfg.Defaults.AgreementFloor = base.AgreementFloor
	}
	if cfg.Defaults.MinConditionWeight == 0 {
		cfg.Defaults.MinConditionWeight = base.MinConditionWeight
	}
	for key, fc := range cfg.Fields {
		if fc.AcceptThreshold == 0 {
			fc.AcceptThreshold = cfg.Defaults.AcceptThreshold
		}
		cfg.Fields[key] = fc
	}

	return cfg, nil
}

// FieldFor returns the config for a field, falling back to defaults
// with the given archetype.
func (c *Config) FieldFor(field string, arch model.FieldArchetype) FieldConfig {
	fc, ok := c.Fields[field]
	if !ok {
		fc = FieldConfig{Archetype: arch}
	}
	if fc.Archetype == "" {
		fc.Archetype = arch
	}
	if fc.AcceptThreshold == 0 {
		fc.AcceptThreshold = c.Defaults.AcceptThreshold
	}
	return fc
}
