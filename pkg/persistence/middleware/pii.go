package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/ruleflow/pkg/domain"
	"github.com/aretw0/ruleflow/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redactMiddleware struct {
	next     ports.FlowStore
	patterns []*regexp.Regexp
}

// CompilePatterns compiles redaction patterns, reporting the first invalid one.
func CompilePatterns(patternStrings []string) ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, 0, len(patternStrings))
	for _, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}

// NewRedactMiddleware creates a middleware that masks sample-fact values and
// action config values whose keys match any of the patterns before they are persisted.
func NewRedactMiddleware(patterns []*regexp.Regexp) Middleware {
	return func(next ports.FlowStore) ports.FlowStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactMiddleware) Save(ctx context.Context, flowID string, flow *domain.Flow) error {
	if flow == nil {
		return fmt.Errorf("flow %q is nil", flowID)
	}
	// Work on a copy: callers keep using their in-memory flow.
	cloned := flow.Clone()

	m.mask(cloned.SampleFact)
	for i := range cloned.Branches {
		for j := range cloned.Branches[i].Actions {
			m.mask(cloned.Branches[i].Actions[j].Config)
		}
	}
	for i := range cloned.ElseActions {
		m.mask(cloned.ElseActions[i].Config)
	}
	for i := range cloned.Nodes {
		m.mask(cloned.Nodes[i].Config)
	}

	return m.next.Save(ctx, flowID, cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, flowID string) (*domain.Flow, error) {
	return m.next.Load(ctx, flowID)
}

func (m *redactMiddleware) Delete(ctx context.Context, flowID string) error {
	return m.next.Delete(ctx, flowID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) mask(values map[string]any) {
	for k := range values {
		for _, p := range m.patterns {
			if p.MatchString(k) {
				values[k] = Mask
				break
			}
		}
	}
}
