// CUE schema validation code
package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
)

// ValidateWithCue validates a YAML plan file using a CUE schema file.
func ValidateWithCue(planFile, cueFile string) error {
	ctx := cuecontext.New()

	// Read YAML plan
	yamlBytes, err := os.ReadFile(planFile)
	if err != nil {
		return fmt.Errorf("cannot read YAML plan: %w", err)
	}

	// Read and compile CUE schema
	schemaBytes, err := os.ReadFile(cueFile)
	if err != nil {
		return fmt.Errorf("cannot read CUE schema: %w", err)
	}
	schemaVal := ctx.CompileBytes(schemaBytes)
	if schemaVal.Err() != nil {
		return fmt.Errorf("cannot compile CUE schema: %w", schemaVal.Err())
	}

	// Unify plan with schema and validate
	if err := yaml.Validate(yamlBytes, schemaVal); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
