// Package checks runs declarative API validations: request a path, judge
// the status code, assert values inside the JSON response, and optionally
// validate the body against a JSON Schema.
package checks

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Check is one declarative API validation. Zero-value fields default at
// validation time: method GET, expected status 200.
type Check struct {
	Name   string `yaml:"name"`
	Method string `yaml:"method"`
	Path   string `yaml:"path"`
	// Body is the raw JSON payload sent with the request.
	Body string `yaml:"body,omitempty"`

	ExpectStatus int `yaml:"expect_status"`
	// Expect maps JSON paths (gjson syntax, "data.0.id") to the scalar
	// value required there.
	Expect map[string]any `yaml:"expect,omitempty"`
	// SchemaFile points to a JSON Schema the response body must satisfy.
	SchemaFile string `yaml:"schema_file,omitempty"`
}

// Validate fills defaults and rejects malformed checks.
func (c *Check) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("check without a name")
	}
	if c.Path == "" {
		return fmt.Errorf("check %q: path required", c.Name)
	}
	if c.Method == "" {
		c.Method = http.MethodGet
	}
	switch c.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead:
	default:
		return fmt.Errorf("check %q: unsupported method %q", c.Name, c.Method)
	}
	if c.ExpectStatus == 0 {
		c.ExpectStatus = http.StatusOK
	}
	return nil
}

// LoadFile reads a YAML check list.
func LoadFile(path string) ([]Check, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Checks []Check `yaml:"checks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(doc.Checks) == 0 {
		return nil, fmt.Errorf("%s: no checks defined", path)
	}
	for i := range doc.Checks {
		if err := doc.Checks[i].Validate(); err != nil {
			return nil, err
		}
	}
	return doc.Checks, nil
}

// compileSchema loads and compiles the check's JSON Schema, if any.
func compileSchema(path string) (*jsonschema.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := jsonschema.UnmarshalJSON(f)
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(path, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(path)
}

// judge collects the check's failures against a completed response.
// Nil/empty means the check passed.
func (c *Check) judge(status int, body []byte, schema *jsonschema.Schema) []string {
	var failures []string
	if status != c.ExpectStatus {
		failures = append(failures, fmt.Sprintf("status %d, want %d", status, c.ExpectStatus))
	}
	paths := make([]string, 0, len(c.Expect))
	for path := range c.Expect {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		want := c.Expect[path]
		got := gjson.GetBytes(body, path)
		if !got.Exists() {
			failures = append(failures, fmt.Sprintf("path %s not found", path))
			continue
		}
		if !valueEqual(got, want) {
			failures = append(failures, fmt.Sprintf("path %s = %s, want %v", path, got.Raw, want))
		}
	}
	if schema != nil {
		inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
		if err != nil {
			failures = append(failures, "response is not valid JSON")
		} else if err := schema.Validate(inst); err != nil {
			failures = append(failures, fmt.Sprintf("schema: %v", err))
		}
	}
	return failures
}

// valueEqual compares a JSON result against a scalar decoded from YAML.
func valueEqual(got gjson.Result, want any) bool {
	switch w := want.(type) {
	case nil:
		return got.Type == gjson.Null
	case bool:
		return (got.Type == gjson.True || got.Type == gjson.False) && got.Bool() == w
	case int:
		return got.Type == gjson.Number && got.Num == float64(w)
	case int64:
		return got.Type == gjson.Number && got.Num == float64(w)
	case float64:
		return got.Type == gjson.Number && got.Num == w
	case string:
		return got.Type == gjson.String && got.Str == w
	default:
		return false
	}
}
