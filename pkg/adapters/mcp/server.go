package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/ruleflow"
	"github.com/aretw0/ruleflow/pkg/domain"
)

// FlowsURI is the resource listing every known flow ID.
const FlowsURI = "ruleflow://flows"

// Engine defines what the MCP server needs from ruleflow.Engine.
type Engine interface {
	Evaluate(cond domain.Condition, fact domain.Fact) bool
	Route(ctx context.Context, flow *domain.Flow, fact domain.Fact) domain.RouteResult
	Preflight(ctx context.Context, flow *domain.Flow) domain.Report
	Simulate(ctx context.Context, flow *domain.Flow, fact domain.Fact) (*domain.Simulation, error)
	LoadFlow(ctx context.Context, flowID string) (*domain.Flow, error)
	ListFlows(ctx context.Context) ([]string, error)
}

// EvaluateArgs are the arguments of the evaluate_condition tool.
type EvaluateArgs struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value,omitempty"`
	Fact     string `json:"fact,omitempty"`
}

// EvaluateResponse is the structured result of evaluate_condition.
type EvaluateResponse struct {
	Matched   bool             `json:"matched" jsonschema_description:"Whether the condition holds for the fact"`
	Condition domain.Condition `json:"condition" jsonschema_description:"The condition after operator normalization"`
}

// FlowArgs select a flow either by ID or inline, plus an optional fact.
type FlowArgs struct {
	FlowID string `json:"flow_id,omitempty"`
	Flow   string `json:"flow,omitempty"`
	Fact   string `json:"fact,omitempty"`
}

// Server wraps the ruleflow Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("ruleflow-mcp", ruleflow.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. for in-process transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("evaluate_condition",
		mcp.WithDescription("Evaluate one field/operator/value condition against a flat fact."),
		mcp.WithString("field", mcp.Required(), mcp.Description("Fact field to read")),
		mcp.WithString("operator", mcp.Required(), mcp.Description("equals, not equals, contains, not contains, >, <, >=, <=, is empty, is not empty")),
		mcp.WithString("value", mcp.Description("Comparison value")),
		mcp.WithString("fact", mcp.Description("JSON object of scalar values")),
		mcp.WithOutputSchema[EvaluateResponse](),
	), mcp.NewStructuredToolHandler(s.handleEvaluate))

	flowParams := []mcp.ToolOption{
		mcp.WithString("flow_id", mcp.Description("ID of a stored or catalog flow")),
		mcp.WithString("flow", mcp.Description("Inline flow document (JSON or YAML), used when flow_id is empty")),
	}
	withFact := mcp.WithString("fact", mcp.Description("JSON object of scalar values"))

	s.mcpServer.AddTool(mcp.NewTool("route_fact", append([]mcp.ToolOption{
		mcp.WithDescription("Route a fact through a flow's branches. The first matching branch wins; otherwise the else actions are returned."),
		withFact,
		mcp.WithOutputSchema[domain.RouteResult](),
	}, flowParams...)...), mcp.NewStructuredToolHandler(s.handleRoute))

	s.mcpServer.AddTool(mcp.NewTool("preflight_flow", append([]mcp.ToolOption{
		mcp.WithDescription("Run the structural checks against a flow and report issues and the per-check trace."),
		mcp.WithOutputSchema[domain.Report](),
	}, flowParams...)...), mcp.NewStructuredToolHandler(s.handlePreflight))

	s.mcpServer.AddTool(mcp.NewTool("simulate_flow", append([]mcp.ToolOption{
		mcp.WithDescription("Preflight a flow and route a fact through it. Without a fact the flow's sample fact is used."),
		withFact,
		mcp.WithOutputSchema[domain.Simulation](),
	}, flowParams...)...), mcp.NewStructuredToolHandler(s.handleSimulate))
}

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest, args EvaluateArgs) (EvaluateResponse, error) {
	fact, err := parseFact(args.Fact)
	if err != nil {
		return EvaluateResponse{}, err
	}
	cond := domain.Condition{
		Field:    args.Field,
		Operator: domain.ParseOperator(args.Operator),
		Value:    args.Value,
	}
	return EvaluateResponse{Matched: s.engine.Evaluate(cond, fact), Condition: cond}, nil
}

func (s *Server) handleRoute(ctx context.Context, request mcp.CallToolRequest, args FlowArgs) (domain.RouteResult, error) {
	flow, err := s.resolveFlow(ctx, args)
	if err != nil {
		return domain.RouteResult{}, err
	}
	fact, err := parseFact(args.Fact)
	if err != nil {
		return domain.RouteResult{}, err
	}
	return s.engine.Route(ctx, flow, fact), nil
}

func (s *Server) handlePreflight(ctx context.Context, request mcp.CallToolRequest, args FlowArgs) (domain.Report, error) {
	flow, err := s.resolveFlow(ctx, args)
	if err != nil {
		return domain.Report{}, err
	}
	return s.engine.Preflight(ctx, flow), nil
}

func (s *Server) handleSimulate(ctx context.Context, request mcp.CallToolRequest, args FlowArgs) (domain.Simulation, error) {
	flow, err := s.resolveFlow(ctx, args)
	if err != nil {
		return domain.Simulation{}, err
	}
	var fact domain.Fact
	if args.Fact != "" {
		if fact, err = parseFact(args.Fact); err != nil {
			return domain.Simulation{}, err
		}
	}
	sim, err := s.engine.Simulate(ctx, flow, fact)
	if err != nil {
		s.logger.Warn("MCP simulate failed", "flow_id", flow.ID, "err", err)
		return domain.Simulation{}, err
	}
	return *sim, nil
}

func (s *Server) resolveFlow(ctx context.Context, args FlowArgs) (*domain.Flow, error) {
	switch {
	case args.FlowID != "":
		return s.engine.LoadFlow(ctx, args.FlowID)
	case args.Flow != "":
		return ruleflow.DecodeFlow([]byte(args.Flow), "")
	default:
		return nil, errors.New("either flow_id or flow is required")
	}
}

func parseFact(raw string) (domain.Fact, error) {
	if raw == "" {
		return domain.Fact{}, nil
	}
	return domain.ParseFact([]byte(raw))
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(FlowsURI, "Known flows",
		mcp.WithResourceDescription("IDs of every stored and catalog flow"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.engine.ListFlows(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list flows: %w", err)
		}
		jsonBytes, err := json.Marshal(map[string][]string{"flows": ids})
		if err != nil {
			return nil, err
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      FlowsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
