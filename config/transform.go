package config

import (
	"fmt"

	"github.com/buildwithgrove/outcall/outcall"
	"github.com/buildwithgrove/outcall/transform"
)

// TransformConfig declares a transform processor registered under the
// map key it is configured with.
type TransformConfig struct {
	// Shape is "object" or "array".
	Shape            string `yaml:"shape"`
	TransactionIndex bool   `yaml:"transaction_index"`
	LogIndex         bool   `yaml:"log_index"`
}

func (c TransformConfig) build() (transform.Config, error) {
	shape, err := transform.ParseShape(c.Shape)
	if err != nil {
		return transform.Config{}, err
	}
	return transform.NewBuilder(shape).
		TransactionIndex(c.TransactionIndex).
		LogIndex(c.LogIndex).
		Build(), nil
}

func validateTransforms(transforms map[string]TransformConfig) error {
	for name, tc := range transforms {
		if name == outcall.DefaultTransformName {
			return fmt.Errorf("transform %q: the default transform cannot be overridden", name)
		}
		if _, err := tc.build(); err != nil {
			return fmt.Errorf("transform %q: %w", name, err)
		}
	}
	return nil
}
