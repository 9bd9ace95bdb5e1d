package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/algoviz"
	"github.com/aretw0/algoviz/internal/logging"
	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/navigation"
	"github.com/aretw0/algoviz/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const visualizersURI = "algoviz://visualizers"

// StepResponse is the view of a session returned by the stepping tools.
type StepResponse struct {
	SessionID   string              `json:"session_id" jsonschema_description:"Session to pass to the other tools"`
	Visualizer  string              `json:"visualizer"`
	Status      domain.Status       `json:"status" jsonschema_description:"idle, running or halted"`
	Step        int                 `json:"step" jsonschema_description:"Number of checkpoints fired so far"`
	Event       *domain.StoredEvent `json:"event,omitempty" jsonschema_description:"Latest checkpoint"`
	State       domain.State        `json:"state,omitempty"`
	Description string              `json:"description" jsonschema_description:"One-line rendering of the event"`
	Error       string              `json:"error,omitempty" jsonschema_description:"Algorithm failure of a halted run"`
}

// FrameResponse is the navigator view returned by seek_step.
type FrameResponse struct {
	SessionID   string           `json:"session_id"`
	Frame       navigation.Frame `json:"frame"`
	Description string           `json:"description"`
}

type startArgs struct {
	Visualizer string         `json:"visualizer"`
	SessionID  string         `json:"session_id"`
	Args       map[string]any `json:"args"`
	NoStop     bool           `json:"no_stop"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type seekArgs struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

// Server exposes a session manager as an MCP server.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		sessions:  sessions,
		mcpServer: server.NewMCPServer("algoviz-mcp", strings.TrimSpace(algoviz.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_visualizers",
		mcp.WithDescription("List the available algorithm visualizers with their checkpoint names."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(s.sessions.Registry().List())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})

	startTool := mcp.NewTool("start_run",
		mcp.WithDescription("Start a run and stop at its first checkpoint. Creates a session unless session_id is given."),
		mcp.WithString("visualizer", mcp.Description("Visualizer ID, required without session_id")),
		mcp.WithString("session_id", mcp.Description("Existing session to restart")),
		mcp.WithObject("args", mcp.Description("Algorithm arguments; omitted keys keep their defaults")),
		mcp.WithBoolean("no_stop", mcp.Description("Run to completion without pausing")),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStartRun))

	nextTool := mcp.NewTool("next_step",
		mcp.WithDescription("Resume the run until its next checkpoint."),
		mcp.WithString("session_id", mcp.Required()),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(nextTool, mcp.NewStructuredToolHandler(s.handleNextStep))

	snapshotTool := mcp.NewTool("get_snapshot",
		mcp.WithDescription("Read the latest checkpoint of a session without resuming it."),
		mcp.WithString("session_id", mcp.Required()),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(snapshotTool, mcp.NewStructuredToolHandler(s.handleGetSnapshot))

	seekTool := mcp.NewTool("seek_step",
		mcp.WithDescription("Show a recorded checkpoint by timeline index. A negative index returns to the live step."),
		mcp.WithString("session_id", mcp.Required()),
		mcp.WithNumber("index", mcp.Required()),
		mcp.WithOutputSchema[FrameResponse](),
	)
	s.mcpServer.AddTool(seekTool, mcp.NewStructuredToolHandler(s.handleSeekStep))

	s.mcpServer.AddTool(mcp.NewTool("end_run",
		mcp.WithDescription("Abandon the run and forget the session."),
		mcp.WithString("session_id", mcp.Required()),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("session_id", "")
		if err := s.sessions.Delete(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("deleted " + id), nil
	})
}

func (s *Server) handleStartRun(ctx context.Context, request mcp.CallToolRequest, args startArgs) (StepResponse, error) {
	id := args.SessionID
	if id == "" {
		if args.Visualizer == "" {
			return StepResponse{}, errors.New("visualizer or session_id is required")
		}
		sess, err := s.sessions.Create(ctx, args.Visualizer)
		if err != nil {
			return StepResponse{}, err
		}
		id = sess.ID
	}

	if _, err := s.sessions.Start(ctx, id, args.Args, args.NoStop); err != nil {
		if args.SessionID == "" {
			s.sessions.Delete(context.WithoutCancel(ctx), id)
		}
		return StepResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return s.describe(id)
}

func (s *Server) handleNextStep(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (StepResponse, error) {
	if _, err := s.sessions.Next(ctx, args.SessionID); err != nil {
		return StepResponse{}, fmt.Errorf("next failed: %w", err)
	}
	return s.describe(args.SessionID)
}

func (s *Server) handleGetSnapshot(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (StepResponse, error) {
	return s.describe(args.SessionID)
}

func (s *Server) handleSeekStep(ctx context.Context, request mcp.CallToolRequest, args seekArgs) (FrameResponse, error) {
	frame, err := s.sessions.Seek(ctx, args.SessionID, args.Index)
	if err != nil {
		return FrameResponse{}, err
	}
	sess, err := s.sessions.Get(args.SessionID)
	if err != nil {
		return FrameResponse{}, err
	}

	resp := FrameResponse{SessionID: args.SessionID, Frame: frame}
	if frame.Event != nil {
		resp.Description = sess.Store.Describe(*frame.Event)
	}
	return resp, nil
}

func (s *Server) describe(id string) (StepResponse, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return StepResponse{}, err
	}
	snap := sess.Store.View()

	resp := StepResponse{
		SessionID:  id,
		Visualizer: sess.Visualizer,
		Status:     snap.Status,
		Step:       snap.CurrentStep,
		Event:      snap.CurEvent,
		State:      snap.CurState,
	}
	if snap.CurEvent != nil {
		resp.Description = sess.Store.Describe(*snap.CurEvent)
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(visualizersURI, "Available Visualizers",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.sessions.Registry().List())
		if err != nil {
			return nil, fmt.Errorf("failed to encode visualizers: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      visualizersURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
