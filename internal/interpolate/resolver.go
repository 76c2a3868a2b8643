// Package interpolate substitutes {{name}} placeholders in request fields
// with collection variables.
package interpolate

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/artpar/reqtree/internal/core"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// ErrUndefined is wrapped for every placeholder with no value.
var ErrUndefined = errors.New("undefined variable")

// variablePattern matches {{variable}} or {{ variable }} syntax.
var variablePattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_$][a-zA-Z0-9_\-$.]*)\s*\}\}`)

// BuiltinFunc generates a dynamic value.
type BuiltinFunc func(now time.Time) string

var builtins = map[string]BuiltinFunc{
	"$uuid":         func(time.Time) string { return uuid.NewString() },
	"$timestamp":    func(now time.Time) string { return strconv.FormatInt(now.Unix(), 10) },
	"$isoTimestamp": func(now time.Time) string { return now.UTC().Format(time.RFC3339) },
	"$date":         func(now time.Time) string { return now.Format("2006-01-02") },
}

// Resolver expands placeholders from a fixed set of variables.
type Resolver struct {
	variables map[string]string
	keep      bool
	now       func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// KeepUndefined leaves unknown placeholders in place instead of failing.
func KeepUndefined() Option {
	return func(r *Resolver) { r.keep = true }
}

// WithClock sets the time source for builtins.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// New creates a resolver over vars.
func New(vars map[string]string, opts ...Option) *Resolver {
	r := &Resolver{
		variables: make(map[string]string, len(vars)),
		now:       time.Now,
	}
	for k, v := range vars {
		r.variables[k] = v
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ForCollection resolves against a collection's variables. The current
// value wins; an empty current value falls back to the initial one.
func ForCollection(c core.Collection, opts ...Option) *Resolver {
	vars := make(map[string]string, len(c.Variables))
	for _, v := range c.Variables {
		if v.Name == "" {
			continue
		}
		value := v.CurrentValue
		if value == "" {
			value = v.InitialValue
		}
		vars[v.Name] = value
	}
	return New(vars, opts...)
}

// Interpolate replaces every placeholder in input. All undefined names are
// reported together.
func (r *Resolver) Interpolate(input string) (string, error) {
	var errs *multierror.Error
	now := r.now()

	result := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		name := variablePattern.FindStringSubmatch(match)[1]
		if fn, ok := builtins[name]; ok {
			return fn(now)
		}
		if value, ok := r.variables[name]; ok {
			return value
		}
		if !r.keep {
			errs = multierror.Append(errs, fmt.Errorf("%w: %s", ErrUndefined, name))
		}
		return match
	})

	if err := errs.ErrorOrNil(); err != nil {
		return "", err
	}
	return result, nil
}

// Request returns a copy of req with its URL and description expanded.
func (r *Resolver) Request(req core.Request) (core.Request, error) {
	var errs *multierror.Error
	url, err := r.Interpolate(req.URL)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	description, err := r.Interpolate(req.Description)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return core.Request{}, err
	}

	req.URL = url
	req.Description = description
	return req, nil
}

// Extract returns the distinct placeholder names in input, sorted.
func Extract(input string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}
