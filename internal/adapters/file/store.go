package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/ruleflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format selects the on-disk encoding of flow files.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Store implements ports.FlowStore using the local filesystem.
// Each flow is stored as one file named after its ID.
type Store struct {
	BasePath string
	format   Format
}

// Option configures a Store.
type Option func(*Store)

// WithFormat selects JSON (default) or YAML files.
func WithFormat(f Format) Option {
	return func(s *Store) {
		if f == FormatYAML {
			s.format = FormatYAML
			return
		}
		s.format = FormatJSON
	}
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".ruleflow/flows".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".ruleflow", "flows")
	}
	s := &Store{BasePath: basePath, format: FormatJSON}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ext() string {
	if s.format == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

func (s *Store) path(flowID string) (string, error) {
	if flowID == "" || strings.ContainsAny(flowID, `/\`) || flowID == "." || flowID == ".." {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidFlowID, flowID)
	}
	return filepath.Join(s.BasePath, flowID+s.ext()), nil
}

func (s *Store) marshal(flow *domain.Flow) ([]byte, error) {
	if s.format == FormatYAML {
		return yaml.Marshal(flow)
	}
	return json.MarshalIndent(flow, "", "  ")
}

func (s *Store) unmarshal(data []byte, flow *domain.Flow) error {
	if s.format == FormatYAML {
		return yaml.Unmarshal(data, flow)
	}
	return domain.UnmarshalFlowJSON(data, flow)
}

// Save persists the flow atomically.
// It writes to a temporary file first, syncs it, and then renames it over the destination.
func (s *Store) Save(ctx context.Context, flowID string, flow *domain.Flow) error {
	destPath, err := s.path(flowID)
	if err != nil {
		return err
	}
	if flow == nil {
		return fmt.Errorf("flow %q is nil", flowID)
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure flow directory: %w", err)
	}

	data, err := s.marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+flowID+"-*"+s.ext())
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename fails on Windows when the destination exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing flow file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	return nil
}

// Load reads the flow file for flowID.
func (s *Store) Load(ctx context.Context, flowID string) (*domain.Flow, error) {
	filePath, err := s.path(flowID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, flowID)
		}
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}

	var flow domain.Flow
	if err := s.unmarshal(data, &flow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow %s: %w", flowID, err)
	}
	return &flow, nil
}

// Delete removes the flow file. Deleting a missing flow is not an error.
func (s *Store) Delete(ctx context.Context, flowID string) error {
	filePath, err := s.path(flowID)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete flow file: %w", err)
	}
	return nil
}

// List returns the IDs of all stored flows.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	ext := s.ext()
	flows := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		flows = append(flows, strings.TrimSuffix(name, ext))
	}
	return flows, nil
}
