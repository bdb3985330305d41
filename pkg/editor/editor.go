// Package editor changes form definitions with RFC 6902 JSON Patch documents.
// Every edited definition is rebuilt through the validation contract builder
// so a patch can never produce a form that cannot be displayed.
package editor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-formwise/pkg/model"
	"github.com/goliatone/go-formwise/pkg/validation"
)

var (
	// ErrInvalidPatch indicates the patch document could not be decoded or applied.
	ErrInvalidPatch = errors.New("editor: invalid patch")
	// ErrPathNotAllowed indicates an operation touched a path outside the
	// allowed set.
	ErrPathNotAllowed = errors.New("editor: path not allowed")
	// ErrLimitExceeded indicates the edited form is over a service limit.
	ErrLimitExceeded = errors.New("editor: limit exceeded")
)

// Operation is one JSON Patch operation.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value"`
}

// Option customises Apply.
type Option func(*config)

type config struct {
	allowed map[string]bool
	lenient bool
	limits  model.ServiceConfig
	logger  *zap.Logger
}

// WithAllowedPaths restricts the paths operations may touch. A "*" or "-"
// segment matches any single segment, so "/fields/*/label" allows relabelling
// every field. The form id can never be changed.
func WithAllowedPaths(paths ...string) Option {
	return func(c *config) {
		if c.allowed == nil {
			c.allowed = make(map[string]bool, len(paths))
		}
		for _, path := range paths {
			c.allowed[path] = true
		}
	}
}

// WithLenient turns replace operations on missing paths into adds and drops
// removals of missing paths.
func WithLenient() Option {
	return func(c *config) {
		c.lenient = true
	}
}

// WithLimits rejects forms with more fields than the service accepts.
func WithLimits(limits model.ServiceConfig) Option {
	return func(c *config) {
		c.limits = limits
	}
}

// WithLogger sets the editor logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Apply applies a JSON Patch document to form.
func Apply(form model.FormDefinition, patchJSON []byte, opts ...Option) (model.FormDefinition, error) {
	var ops []Operation
	if err := sonic.Unmarshal(patchJSON, &ops); err != nil {
		return model.FormDefinition{}, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}
	return ApplyOperations(form, ops, opts...)
}

// ApplyOperations applies ops to form in order. The input is not modified.
func ApplyOperations(form model.FormDefinition, ops []Operation, opts ...Option) (model.FormDefinition, error) {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if len(ops) == 0 {
		return form.Clone(), nil
	}

	for i, op := range ops {
		if err := cfg.checkPath(op.Path); err != nil {
			return model.FormDefinition{}, fmt.Errorf("operation %d: %w", i, err)
		}
		if op.From != "" {
			if err := cfg.checkPath(op.From); err != nil {
				return model.FormDefinition{}, fmt.Errorf("operation %d: %w", i, err)
			}
		}
	}

	current, err := sonic.Marshal(form)
	if err != nil {
		return model.FormDefinition{}, fmt.Errorf("editor: encode form: %w", err)
	}
	if cfg.lenient {
		ops = relax(current, ops)
	}

	patchJSON, err := sonic.Marshal(ops)
	if err != nil {
		return model.FormDefinition{}, fmt.Errorf("editor: encode patch: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return model.FormDefinition{}, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}
	modified, err := patch.Apply(current)
	if err != nil {
		return model.FormDefinition{}, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}

	var edited model.FormDefinition
	if err := sonic.Unmarshal(modified, &edited); err != nil {
		return model.FormDefinition{}, fmt.Errorf("%w: result is not a form: %w", ErrInvalidPatch, err)
	}

	if limit := cfg.limits.MaxFields; limit > 0 && len(edited.Fields) > limit {
		return model.FormDefinition{}, fmt.Errorf("%w: %d fields, at most %d allowed", ErrLimitExceeded, len(edited.Fields), limit)
	}
	if _, err := validation.Build(edited, validation.WithLogger(cfg.logger)); err != nil {
		return model.FormDefinition{}, err
	}

	cfg.logger.Debug("form edited", zap.String("form_id", edited.ID), zap.Int("operations", len(ops)))
	return edited, nil
}

func (c config) checkPath(path string) error {
	if path == "/id" {
		return fmt.Errorf("%w: %q is read-only", ErrPathNotAllowed, path)
	}
	if len(c.allowed) == 0 || c.allowed[path] {
		return nil
	}
	segments := strings.Split(path, "/")
	if matchWildcard(segments, 1, c.allowed, false) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrPathNotAllowed, path)
}

func matchWildcard(segments []string, index int, allowed map[string]bool, wildcard bool) bool {
	if index >= len(segments) {
		return wildcard && allowed[strings.Join(segments, "/")]
	}
	original := segments[index]
	defer func() { segments[index] = original }()

	for _, token := range []string{"*", "-"} {
		segments[index] = token
		if matchWildcard(segments, index+1, allowed, true) {
			return true
		}
	}
	segments[index] = original
	return matchWildcard(segments, index+1, allowed, wildcard)
}

func relax(current []byte, ops []Operation) []Operation {
	var doc any
	if err := sonic.Unmarshal(current, &doc); err != nil {
		return ops
	}
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		switch op.Op {
		case "replace":
			if !pathExists(doc, op.Path) {
				op.Op = "add"
			}
		case "remove":
			if !pathExists(doc, op.Path) {
				continue
			}
		}
		out = append(out, op)
	}
	return out
}

func pathExists(doc any, path string) bool {
	if path == "" {
		return true
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}
	cur := doc
	for _, token := range strings.Split(path[1:], "/") {
		token = strings.ReplaceAll(token, "~1", "/")
		token = strings.ReplaceAll(token, "~0", "~")
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[token]
			if !ok {
				return false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(token)
			if err != nil || i < 0 || i >= len(node) {
				return false
			}
			cur = node[i]
		default:
			return false
		}
	}
	return true
}
