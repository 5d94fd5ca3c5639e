package etl

import (
	"os"

	"gopkg.in/yaml.v3"
)

// EtlConfig configures the igs-etl pipeline.
type EtlConfig struct {
	// RawPath is the vendor CSV export to clean.
	RawPath string `yaml:"rawPath"`

	// CleanedPath receives the cleaned CSV. Empty skips the file.
	CleanedPath string `yaml:"cleanedPath"`

	// DBURI selects the tract store, as in the server config.
	DBURI string `yaml:"database"`

	// BatchSize of bulk inserts.
	BatchSize int `yaml:"batchSize"`
}

func LoadEtlConfig(filepath string) (*EtlConfig, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (*EtlConfig, error) {
	out := EtlConfig{
		RawPath:     "./data/raw/inclusive_growth_score.csv",
		CleanedPath: "./data/cleaned/igs_cleaned.csv",
		DBURI:       "./data/igs.db",
		BatchSize:   500,
	}
	if err := yaml.Unmarshal(conf, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
