package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/etsy-v3/tools/dashgen/dashboards"
	"github.com/donaldgifford/etsy-v3/tools/dashgen/rules"
	"github.com/donaldgifford/etsy-v3/tools/dashgen/validate"
)

const generatedHeader = "# Code generated by dashgen. DO NOT EDIT.\n"

func main() {
	validateOnly := flag.Bool("validate", false, "validate generated artifacts without writing files")
	outputDir := flag.String("output", "", "override output directory")
	plainRules := flag.Bool("plain-rules", false, "write Prometheus rule files instead of PrometheusRule CRs")
	flag.Parse()

	cfg := DefaultConfig()
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	cfg.PlainRules = *plainRules

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, *validateOnly, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type artifact struct {
	path string
	data []byte
}

// build renders every enabled artifact and validates it.
func build(cfg Config) ([]artifact, validate.Result, error) {
	var (
		out    []artifact
		result validate.Result
	)

	if cfg.DashboardEnabled {
		dash, err := dashboards.BuildOverview().Build()
		if err != nil {
			return nil, result, fmt.Errorf("building dashboard: %w", err)
		}
		result.Merge(validate.Dashboard(dash, KnownMetrics))

		data, err := json.MarshalIndent(dash, "", "  ")
		if err != nil {
			return nil, result, fmt.Errorf("marshaling dashboard: %w", err)
		}
		out = append(out, artifact{
			path: filepath.Join(cfg.OutputDir, "grafana", dashboards.UID+".json"),
			data: append(data, '\n'),
		})
	}

	if cfg.RulesEnabled {
		for _, pr := range []rules.PrometheusRule{rules.RecordingRules(), rules.AlertRules()} {
			result.Merge(validate.Rules(pr, KnownMetrics))

			var doc any = pr
			if cfg.PlainRules {
				doc = pr.File()
			}
			data, err := yaml.Marshal(doc)
			if err != nil {
				return nil, result, fmt.Errorf("marshaling %s: %w", pr.Metadata.Name, err)
			}
			out = append(out, artifact{
				path: filepath.Join(cfg.OutputDir, "prometheus", pr.Metadata.Name+".yaml"),
				data: append([]byte(generatedHeader), data...),
			})
		}
	}

	return out, result, nil
}

func run(cfg Config, validateOnly bool, w io.Writer) error {
	artifacts, result, err := build(cfg)
	if err != nil {
		return err
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	if !result.Ok() {
		return fmt.Errorf("validation failed:\n  %s", strings.Join(result.Errors, "\n  "))
	}

	if validateOnly {
		fmt.Fprintln(w, "validation passed")
		return nil
	}

	for _, a := range artifacts {
		if err := os.MkdirAll(filepath.Dir(a.path), 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(a.path), err)
		}
		if err := os.WriteFile(a.path, a.data, 0o644); err != nil { //nolint:gosec // generated artifacts are public
			return fmt.Errorf("writing %s: %w", a.path, err)
		}
		fmt.Fprintf(w, "dashgen: wrote %s\n", a.path)
	}
	return nil
}
