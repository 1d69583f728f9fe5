package ruleflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/ruleflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format is a flow document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension (.yaml/.yml, otherwise JSON).
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// DecodeFlow parses a flow document. An empty format sniffs the content:
// a leading '{' means JSON, anything else YAML.
func DecodeFlow(data []byte, format Format) (*domain.Flow, error) {
	if format == "" {
		format = FormatYAML
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
			format = FormatJSON
		}
	}

	var flow domain.Flow
	switch format {
	case FormatJSON:
		if err := domain.UnmarshalFlowJSON(data, &flow); err != nil {
			return nil, fmt.Errorf("invalid flow json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &flow); err != nil {
			return nil, fmt.Errorf("invalid flow yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported flow format %q", format)
	}

	if err := flow.SampleFact.Validate(); err != nil {
		return nil, fmt.Errorf("sample_fact: %w", err)
	}
	return &flow, nil
}

// EncodeFlow renders a flow document.
func EncodeFlow(flow *domain.Flow, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(flow)
	case FormatJSON, "":
		return json.MarshalIndent(flow, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported flow format %q", format)
	}
}

// SaveFlow persists flow under its ID, stamping updated_at.
func (e *Engine) SaveFlow(ctx context.Context, flow *domain.Flow) error {
	if flow == nil || flow.ID == "" {
		return domain.ErrInvalidFlowID
	}
	if err := e.drafts.Save(ctx, flow.ID, flow); err != nil {
		return err
	}
	e.logger.Info("flow saved", "flow_id", flow.ID, "mode", flow.EffectiveMode())
	return nil
}

// UpdateFlow applies fn to the stored flow under the flow's edit lock.
func (e *Engine) UpdateFlow(ctx context.Context, flowID string, fn func(*domain.Flow) error) (*domain.Flow, error) {
	return e.drafts.Update(ctx, flowID, fn)
}

// LoadFlow looks the flow up in the store, then in the catalog.
func (e *Engine) LoadFlow(ctx context.Context, flowID string) (*domain.Flow, error) {
	if flowID == "" {
		return nil, domain.ErrInvalidFlowID
	}
	flow, err := e.drafts.Load(ctx, flowID)
	if err == nil {
		return flow, nil
	}
	if !errors.Is(err, domain.ErrFlowNotFound) || e.catalog == nil {
		return nil, err
	}
	return e.catalog.GetFlow(ctx, flowID)
}

// DeleteFlow removes a stored flow. Catalog flows are read-only and unaffected.
func (e *Engine) DeleteFlow(ctx context.Context, flowID string) error {
	if flowID == "" {
		return domain.ErrInvalidFlowID
	}
	if err := e.drafts.Delete(ctx, flowID); err != nil {
		return err
	}
	e.logger.Info("flow deleted", "flow_id", flowID)
	return nil
}

// ListFlows returns the sorted union of stored and catalog flow IDs.
func (e *Engine) ListFlows(ctx context.Context) ([]string, error) {
	ids, err := e.drafts.List(ctx)
	if err != nil {
		return nil, err
	}
	if e.catalog != nil {
		catalogIDs, err := e.catalog.ListFlows(ctx)
		if err != nil {
			return nil, err
		}
		ids = append(ids, catalogIDs...)
	}

	sort.Strings(ids)
	out := ids[:0]
	for i, id := range ids {
		if i > 0 && id == ids[i-1] {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

// ImportFlow decodes a flow document and saves it.
func (e *Engine) ImportFlow(ctx context.Context, data []byte, format Format) (*domain.Flow, error) {
	flow, err := DecodeFlow(data, format)
	if err != nil {
		return nil, err
	}
	if err := e.SaveFlow(ctx, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

// ExportFlow loads a flow and encodes it.
func (e *Engine) ExportFlow(ctx context.Context, flowID string, format Format) ([]byte, error) {
	flow, err := e.LoadFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	return EncodeFlow(flow, format)
}
