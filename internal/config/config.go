package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"fwbuilder-report/internal/report"
)

// Options holds the report settings that may come from a YAML file. Command
// line flags override them.
type Options struct {
	Title    string `yaml:"title"`
	Services bool   `yaml:"services"`
	DB       string `yaml:"db"`
	Out      string `yaml:"out"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

func Default() Options {
	return Options{
		Title:    report.DefaultTitle,
		LogLevel: "INFO",
	}
}

// LoadFile reads path over the defaults. Unknown keys are rejected.
func LoadFile(path string) (Options, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, &opts); err != nil {
		return opts, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return opts, nil
}
