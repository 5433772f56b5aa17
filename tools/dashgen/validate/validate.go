// Package validate checks generated dashboards and rules for PromQL that does
// not parse or that selects metrics the service does not export.
package validate

import (
	"encoding/json"
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/etsy-v3/tools/dashgen/rules"
)

// Result collects validation findings. Errors fail generation, warnings are
// printed.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether there were no errors.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

// Merge appends the findings of o.
func (r *Result) Merge(o Result) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// Expr parses a PromQL expression and checks every selected metric name
// against known.
func Expr(expr string, known map[string]bool) Result {
	var r Result

	parsed, err := parser.ParseExpr(expr)
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("parsing %q: %v", expr, err))
		return r
	}

	parser.Inspect(parsed, func(node parser.Node, _ []parser.Node) error {
		vs, ok := node.(*parser.VectorSelector)
		if !ok {
			return nil
		}
		switch {
		case vs.Name == "":
			r.Warnings = append(r.Warnings, fmt.Sprintf("selector without metric name in %q", expr))
		case !known[vs.Name]:
			r.Errors = append(r.Errors, fmt.Sprintf("unknown metric %q in %q", vs.Name, expr))
		}
		return nil
	})

	return r
}

// panelJSON is the subset of the Grafana panel model the checks need.
type panelJSON struct {
	Title   string      `json:"title"`
	Type    string      `json:"type"`
	Panels  []panelJSON `json:"panels"`
	Targets []struct {
		Expr string `json:"expr"`
	} `json:"targets"`
}

// Dashboard validates every query target of every panel, including panels
// nested in rows. It inspects the marshaled JSON, which is what gets written.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) Result {
	var r Result

	data, err := json.Marshal(dash)
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("marshaling dashboard: %v", err))
		return r
	}
	var doc struct {
		Panels []panelJSON `json:"panels"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("reading dashboard JSON: %v", err))
		return r
	}

	var walk func([]panelJSON)
	walk = func(panels []panelJSON) {
		for i := range panels {
			p := &panels[i]
			if p.Type == "row" {
				walk(p.Panels)
				continue
			}
			if len(p.Targets) == 0 {
				r.Warnings = append(r.Warnings, fmt.Sprintf("panel %q has no targets", p.Title))
			}
			for _, t := range p.Targets {
				if t.Expr == "" {
					r.Errors = append(r.Errors, fmt.Sprintf("panel %q has an empty query", p.Title))
					continue
				}
				r.Merge(Expr(t.Expr, known))
			}
		}
	}
	walk(doc.Panels)

	return r
}

// Rules validates every rule expression and requires alerts to carry a
// severity label and a summary.
func Rules(pr rules.PrometheusRule, known map[string]bool) Result {
	var r Result
	for _, g := range pr.Spec.Groups {
		for _, rule := range g.Rules {
			name := rule.Record
			if rule.Alert != "" {
				name = rule.Alert
				if rule.Labels["severity"] == "" {
					r.Errors = append(r.Errors, fmt.Sprintf("alert %s has no severity", name))
				}
				if rule.Annotations["summary"] == "" {
					r.Errors = append(r.Errors, fmt.Sprintf("alert %s has no summary", name))
				}
			}
			if name == "" {
				r.Errors = append(r.Errors, fmt.Sprintf("group %s has a rule with neither record nor alert", g.Name))
			}
			r.Merge(Expr(rule.Expr, known))
		}
	}
	return r
}
