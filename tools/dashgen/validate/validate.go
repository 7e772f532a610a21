// Package validate checks generated dashboards and rules: every PromQL
// expression must parse and reference only known metrics.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/bledden/tinker-voice/tools/dashgen/rules"
)

// Result collects validation problems. Errors fail generation; warnings
// are reported only.
type Result struct {
	Errors   []error
	Warnings []string
}

// Ok reports whether no errors were found.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

// histogramSuffixes are the series a histogram metric exposes.
var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Expr parses expr and checks that each selected metric is known.
func Expr(expr string, known map[string]bool) error {
	parsed, err := parser.ParseExpr(expr)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", expr, err)
	}

	var unknown []string
	parser.Inspect(parsed, func(node parser.Node, _ []parser.Node) error {
		vs, ok := node.(*parser.VectorSelector)
		if !ok || vs.Name == "" {
			return nil
		}
		if !isKnown(vs.Name, known) {
			unknown = append(unknown, vs.Name)
		}
		return nil
	})

	if len(unknown) > 0 {
		return fmt.Errorf("%q references unknown metrics: %s", expr, strings.Join(unknown, ", "))
	}
	return nil
}

func isKnown(name string, known map[string]bool) bool {
	if known[name] {
		return true
	}
	for _, suffix := range histogramSuffixes {
		if base, ok := strings.CutSuffix(name, suffix); ok && known[base] {
			return true
		}
	}
	return false
}

// Dashboard validates every panel query of d, including panels nested in
// rows.
func Dashboard(d dashboard.Dashboard, known map[string]bool) Result {
	var res Result

	check := func(p dashboard.Panel) {
		title := ""
		if p.Title != nil {
			title = *p.Title
		}
		if len(p.Targets) == 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("panel %q has no queries", title))
			return
		}
		for _, t := range p.Targets {
			expr, err := targetExpr(t)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Errorf("panel %q: %w", title, err))
				continue
			}
			if err := Expr(expr, known); err != nil {
				res.Errors = append(res.Errors, fmt.Errorf("panel %q: %w", title, err))
			}
		}
	}

	for _, p := range d.Panels {
		switch {
		case p.Panel != nil:
			check(*p.Panel)
		case p.RowPanel != nil:
			for _, inner := range p.RowPanel.Panels {
				check(inner)
			}
		}
	}
	return res
}

// targetExpr reads the expr field of a query target through its JSON form,
// which is stable across datasource query types.
func targetExpr(t any) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encoding target: %w", err)
	}
	var q struct {
		Expr string `json:"expr"`
	}
	if err := json.Unmarshal(data, &q); err != nil {
		return "", fmt.Errorf("decoding target: %w", err)
	}
	if q.Expr == "" {
		return "", errors.New("target has no expr")
	}
	return q.Expr, nil
}

// Rules validates every rule expression in cr. Alerts must carry a
// severity label and a summary annotation.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	var res Result
	for _, g := range cr.Spec.Groups {
		for _, r := range g.Rules {
			name := r.Name()
			if err := Expr(r.Expr, known); err != nil {
				res.Errors = append(res.Errors, fmt.Errorf("rule %s: %w", name, err))
			}
			if r.Alert != "" && (r.Labels["severity"] == "" || r.Annotations["summary"] == "") {
				res.Errors = append(res.Errors, fmt.Errorf("alert %s needs a severity label and summary", name))
			}
		}
	}
	return res
}
