// Package evaluator builds pure response evaluators from job configuration.
package evaluator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/JakeFAU/crawler-notifier/internal/crawler"
)

// Supported evaluator kinds.
const (
	KindThreshold = "threshold"
	KindEquals    = "equals"
	KindExists    = "exists"
)

// Config describes an evaluator in job configuration.
//
// Path is a gjson path; "{target}" is replaced with the target id before lookup.
// Message accepts the placeholders {job}, {target} and {value}.
type Config struct {
	Kind    string   `mapstructure:"kind"`
	Path    string   `mapstructure:"path"`
	Below   *float64 `mapstructure:"below"`
	Above   *float64 `mapstructure:"above"`
	Value   string   `mapstructure:"value"`
	Message string   `mapstructure:"message"`
}

// Build validates cfg and returns the evaluator for job.
func Build(job string, cfg Config) (crawler.Evaluator, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("evaluator for job %s: path is required", job)
	}
	message := cfg.Message
	switch cfg.Kind {
	case KindThreshold:
		if cfg.Below == nil && cfg.Above == nil {
			return nil, fmt.Errorf("evaluator for job %s: threshold needs below or above", job)
		}
		if message == "" {
			message = "{target} is {value}"
		}
		return threshold(job, cfg.Path, cfg.Below, cfg.Above, message), nil
	case KindEquals:
		if message == "" {
			message = "{target} is {value}"
		}
		return equals(job, cfg.Path, cfg.Value, message), nil
	case KindExists:
		if message == "" {
			message = "{target}: {value}"
		}
		return exists(job, cfg.Path, message), nil
	default:
		return nil, fmt.Errorf("evaluator for job %s: unknown kind %q", job, cfg.Kind)
	}
}

func threshold(job, path string, below, above *float64, message string) crawler.Evaluator {
	return func(doc gjson.Result, target string) crawler.AlertDecision {
		v := lookup(doc, path, target)
		n, ok := number(v)
		if !ok {
			return crawler.Silent()
		}
		if (below != nil && n < *below) || (above != nil && n > *above) {
			return crawler.Alert(render(message, job, target, v))
		}
		return crawler.Silent()
	}
}

func equals(job, path, want, message string) crawler.Evaluator {
	return func(doc gjson.Result, target string) crawler.AlertDecision {
		v := lookup(doc, path, target)
		if !v.Exists() || v.String() != want {
			return crawler.Silent()
		}
		return crawler.Alert(render(message, job, target, v))
	}
}

func exists(job, path, message string) crawler.Evaluator {
	return func(doc gjson.Result, target string) crawler.AlertDecision {
		v := lookup(doc, path, target)
		if isEmpty(v) {
			return crawler.Silent()
		}
		return crawler.Alert(render(message, job, target, v))
	}
}

func lookup(doc gjson.Result, path, target string) gjson.Result {
	return doc.Get(strings.ReplaceAll(path, "{target}", gjson.Escape(target)))
}

func number(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Num, !math.IsNaN(v.Num)
	case gjson.String:
		// Quoted numbers are common in quote feeds.
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || math.IsNaN(n) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func isEmpty(v gjson.Result) bool {
	switch {
	case !v.Exists():
		return true
	case v.Type == gjson.Null, v.Type == gjson.False:
		return true
	case v.Type == gjson.String:
		return v.Str == ""
	case v.Type == gjson.Number:
		return v.Num == 0
	case v.IsArray():
		return len(v.Array()) == 0
	case v.IsObject():
		return len(v.Map()) == 0
	}
	return false
}

func render(message, job, target string, v gjson.Result) string {
	return strings.NewReplacer(
		"{job}", job,
		"{target}", target,
		"{value}", v.String(),
	).Replace(message)
}
