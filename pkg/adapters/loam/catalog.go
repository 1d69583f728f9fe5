package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/ruleflow/pkg/domain"
)

// Catalog adapts a Loam repository of flow documents to ports.FlowCatalog.
// Markdown files carry the flow in their front matter and may use the body
// as the confirmation note; JSON and YAML files hold the flow directly.
// Documents declaring neither nodes nor branches (e.g. a README) are ignored.
type Catalog struct {
	Repo *loam.TypedRepository[FlowMetadata]
}

// New creates a catalog over an existing typed repository.
func New(repo *loam.TypedRepository[FlowMetadata]) *Catalog {
	return &Catalog{Repo: repo}
}

// Open initializes a read-only, strict Loam repository rooted at dir.
// Strict mode keeps numbers as json.Number so large integers survive.
func Open(dir string) (*Catalog, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[FlowMetadata](repo)), nil
}

// GetFlow returns the flow with the given ID.
func (c *Catalog) GetFlow(ctx context.Context, id string) (*domain.Flow, error) {
	flows, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	flow, ok := flows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, id)
	}
	return flow, nil
}

// ListFlows lists the flow IDs in the repository, sorted.
func (c *Catalog) ListFlows(ctx context.Context) ([]string, error) {
	flows, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(flows))
	for id := range flows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (c *Catalog) load(ctx context.Context) (map[string]*domain.Flow, error) {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	flows := make(map[string]*domain.Flow, len(docs))
	origin := make(map[string]string, len(docs))

	for _, doc := range docs {
		meta := doc.Data
		if len(meta.Nodes) == 0 && len(meta.Branches) == 0 {
			continue
		}

		rawID := meta.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existing, ok := origin[id]; ok {
			return nil, fmt.Errorf("collision detected: flow ID '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		origin[id] = doc.ID

		flow, err := toFlow(id, meta, doc.Content)
		if err != nil {
			return nil, fmt.Errorf("flow %s (%s): %w", id, doc.ID, err)
		}
		flows[id] = flow
	}
	return flows, nil
}

func toFlow(id string, meta FlowMetadata, body string) (*domain.Flow, error) {
	flow := &domain.Flow{
		ID:          id,
		Name:        meta.Name,
		Mode:        domain.Mode(strings.ToLower(strings.TrimSpace(meta.Mode))),
		Note:        meta.Note,
		Nodes:       make([]domain.Node, 0, len(meta.Nodes)),
		Branches:    make([]domain.Branch, 0, len(meta.Branches)),
		ElseActions: toActions(meta.ElseActions),
	}
	if flow.Note == "" {
		flow.Note = strings.TrimSpace(body)
	}

	for _, n := range meta.Nodes {
		flow.Nodes = append(flow.Nodes, domain.Node{
			ID:       n.ID,
			Kind:     domain.NodeKind(strings.ToLower(n.Kind)),
			Title:    n.Title,
			Event:    n.Event,
			Field:    n.Field,
			Operator: domain.ParseOperator(n.Operator),
			Value:    formatValue(n.Value),
			Channel:  n.Channel,
			Config:   n.Config,
		})
	}

	for _, b := range meta.Branches {
		cond := b.Condition
		if b.When != nil {
			cond = *b.When
		}
		flow.Branches = append(flow.Branches, domain.Branch{
			Label: b.Label,
			Condition: domain.Condition{
				Field:    cond.Field,
				Operator: domain.ParseOperator(cond.Operator),
				Value:    formatValue(cond.Value),
			},
			Actions: toActions(b.Actions),
		})
	}

	if len(meta.FactSchema) > 0 {
		schema, err := normalizeFactSchema(meta.FactSchema)
		if err != nil {
			return nil, err
		}
		flow.FactSchema = schema
	}

	if len(meta.SampleFact) > 0 {
		fact := domain.Fact(meta.SampleFact)
		if err := fact.Validate(); err != nil {
			return nil, fmt.Errorf("sample_fact: %w", err)
		}
		flow.SampleFact = fact
	}

	return flow, nil
}

func toActions(in []ActionMetadata) []domain.Action {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Action, 0, len(in))
	for _, a := range in {
		typ := a.Type
		if typ == "" {
			typ = a.Channel
		}
		out = append(out, domain.Action{Type: typ, Title: a.Title, Config: a.Config})
	}
	return out
}

// formatValue renders a scalar front-matter value; an absent value stays empty.
func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return domain.FormatValue(v)
}

func normalizeFactSchema(raw map[string]any) (map[string]string, error) {
	normalized := make(map[string]string, len(raw))
	for key, value := range raw {
		typeStr, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("fact_schema.%s: expected a type name, got %T", key, value)
		}
		normalized[key] = typeStr
	}
	return normalized, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
