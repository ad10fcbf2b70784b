package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/atelier"
	"github.com/aretw0/atelier/internal/logging"
	"github.com/aretw0/atelier/pkg/cache"
	"github.com/aretw0/atelier/pkg/compose"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/fingerprint"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// FingerprintResponse is the structured result of compute_fingerprint.
type FingerprintResponse struct {
	Fingerprint string `json:"fingerprint" jsonschema_description:"Deterministic 16 hex character render fingerprint"`
	Filename    string `json:"filename" jsonschema_description:"Artifact filename of the static render"`
}

// PlanResponse is the structured result of plan_layers.
type PlanResponse struct {
	Categories []string            `json:"categories" jsonschema_description:"Layer categories in paint order"`
	Layers     []domain.TraitLayer `json:"layers" jsonschema_description:"Ordered layers with their asset paths"`
	Base       compose.BaseLayer   `json:"base" jsonschema_description:"Resolved base layer and the rule that picked it"`
}

// Engine is the part of the atelier engine exposed as MCP tools.
type Engine interface {
	ComputeFingerprint(req domain.RenderRequest) string
	Plan(ctx context.Context, req domain.RenderRequest) (compose.Plan, error)
	ComposeStaticRender(ctx context.Context, req domain.RenderRequest) ([]byte, error)
	RequestFor(ctx context.Context, tokenID int, modes domain.Modes) (domain.RenderRequest, error)
	Invalidate(ctx context.Context, tokenID int) (int, error)
	Stats() []cache.Stats
}

var _ Engine = (*atelier.Engine)(nil)

// Server wraps the atelier Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("atelier-mcp", strings.TrimSpace(atelier.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and shuts it down
// when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)
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
		s.logger.Info("mcp server listening (sse)", "address", addr)
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
	requestArg := mcp.WithObject("request",
		mcp.Required(),
		mcp.Description("Render request: token_id, generation, skin {id,name}, traits {CATEGORY: id}, serum_history, modes, tag, messages"),
	)

	s.mcpServer.AddTool(mcp.NewTool("compute_fingerprint",
		mcp.WithDescription("Compute the deterministic fingerprint and artifact filename of a render request without rendering it."),
		requestArg,
		mcp.WithOutputSchema[FingerprintResponse](),
	), mcp.NewStructuredToolHandler(s.handleFingerprint))

	s.mcpServer.AddTool(mcp.NewTool("plan_layers",
		mcp.WithDescription("List the ordered layers a render request would be painted from."),
		requestArg,
		mcp.WithOutputSchema[PlanResponse](),
	), mcp.NewStructuredToolHandler(s.handlePlan))

	s.mcpServer.AddTool(mcp.NewTool("render_token",
		mcp.WithDescription("Render the static PNG of a token read from the trait source."),
		mcp.WithNumber("token_id", mcp.Required(), mcp.Description("Token id")),
		mcp.WithBoolean("closeup", mcp.Description("Crop to the closeup frame")),
	), s.handleRender)

	s.mcpServer.AddTool(mcp.NewTool("cache_stats",
		mcp.WithDescription("Report per-namespace cache statistics."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.engine.Stats())
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("invalidate_token",
		mcp.WithDescription("Drop the cached renders and trait reads of a token."),
		mcp.WithNumber("token_id", mcp.Required(), mcp.Description("Token id")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tokenID, err := request.RequireInt("token_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		n, err := s.engine.Invalidate(ctx, tokenID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalidate failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("invalidated %d entries of token %d", n, tokenID)), nil
	})
}

// decodeRequest accepts the request argument as an object or a JSON string.
func decodeRequest(args map[string]any) (domain.RenderRequest, error) {
	var req domain.RenderRequest
	raw, ok := args["request"]
	if !ok {
		return req, errors.New("request is required")
	}
	if text, ok := raw.(string); ok {
		if err := json.Unmarshal([]byte(text), &req); err != nil {
			return req, fmt.Errorf("invalid request: %w", err)
		}
		return req, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &req,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return req, err
	}
	if err := dec.Decode(raw); err != nil {
		return req, fmt.Errorf("invalid request: %w", err)
	}
	return req, nil
}

func (s *Server) handleFingerprint(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (FingerprintResponse, error) {
	req, err := decodeRequest(args)
	if err != nil {
		return FingerprintResponse{}, err
	}
	fp := s.engine.ComputeFingerprint(req)
	return FingerprintResponse{
		Fingerprint: fp,
		Filename:    fingerprint.BuildFilename(req.TokenID, fp, fingerprint.ExtPNG),
	}, nil
}

func (s *Server) handlePlan(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (PlanResponse, error) {
	req, err := decodeRequest(args)
	if err != nil {
		return PlanResponse{}, err
	}
	plan, err := s.engine.Plan(ctx, req)
	if err != nil {
		return PlanResponse{}, fmt.Errorf("plan failed: %w", err)
	}
	return PlanResponse{Categories: plan.Categories(), Layers: plan.Layers, Base: plan.Base}, nil
}

func (s *Server) handleRender(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokenID, err := request.RequireInt("token_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	modes := domain.Modes{Closeup: request.GetBool("closeup", false)}
	req, err := s.engine.RequestFor(ctx, tokenID, modes)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read token failed: %v", err)), nil
	}
	data, err := s.engine.ComposeStaticRender(ctx, req)
	if err != nil {
		s.logger.Error("mcp render failed", "token_id", tokenID, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
	}
	fp := s.engine.ComputeFingerprint(req)
	return mcp.NewToolResultImage(
		fingerprint.BuildFilename(tokenID, fp, fingerprint.ExtPNG),
		base64.StdEncoding.EncodeToString(data),
		"image/png",
	), nil
}

const statsURI = "atelier://cache/stats"

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(statsURI, "Cache statistics",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Stats())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      statsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
