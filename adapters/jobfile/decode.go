package jobfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"opticost/internal/errors"
)

// Load reads a job file. Files ending in .json are decoded as JSON, everything
// else as HCL. vars are exposed to HCL as var.<name>.
func Load(path string, vars map[string]string) (*Spec, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("job file", path)
		}
		return nil, errors.Wrapf(errors.TypeInput, err, "failed to read %s", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return DecodeJSON(bytes.NewReader(src))
	}
	return DecodeHCL(src, path, vars)
}

// DecodeHCL parses an HCL job description
func DecodeHCL(src []byte, filename string, vars map[string]string) (*Spec, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError(filename, diags)
	}

	var spec Spec
	if diags := gohcl.DecodeBody(file.Body, evalContext(vars), &spec); diags.HasErrors() {
		return nil, diagError(filename, diags)
	}
	return &spec, nil
}

// DecodeJSON decodes a JSON job description, rejecting unknown fields
func DecodeJSON(r io.Reader) (*Spec, error) {
	var spec Spec
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return nil, errors.Parsing("invalid job description", err)
	}
	return &spec, nil
}

// evalContext exposes the variables as strings; HCL converts them to the
// attribute type, so spots = var.spots accepts "12".
func evalContext(vars map[string]string) *hcl.EvalContext {
	values := make(map[string]cty.Value, len(vars))
	for name, value := range vars {
		values[name] = cty.StringVal(value)
	}
	object := cty.EmptyObjectVal
	if len(values) > 0 {
		object = cty.ObjectVal(values)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": object},
	}
}

// diagError folds the error diagnostics into one parsing error
func diagError(filename string, diags hcl.Diagnostics) error {
	var lines []string
	for _, diag := range diags {
		if diag.Severity != hcl.DiagError {
			continue
		}
		line := 0
		if diag.Subject != nil {
			line = diag.Subject.Start.Line
		}
		msg := diag.Summary
		if diag.Detail != "" {
			msg += ": " + diag.Detail
		}
		lines = append(lines, fmt.Sprintf("%s:%d: %s", filename, line, msg))
	}
	return errors.New(errors.TypeParsing, strings.Join(lines, "; ")).
		WithContext("file", filename).
		WithContext("errors", len(lines))
}

// ParseVars turns name=value pairs into a variable map
func ParseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.Newf(errors.TypeInput, "invalid variable %q (want name=value)", pair)
		}
		vars[name] = value
	}
	return vars, nil
}
