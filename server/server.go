// Package server exposes agents, workflows and thread memory over HTTP.
// Agent and workflow streams use AG-UI server-sent events.
package server

import (
	"log/slog"
	"net/http"

	"github.com/stellar-agentkit/stellarflow/agent"
	"github.com/stellar-agentkit/stellarflow/memory"
	"github.com/stellar-agentkit/stellarflow/workflow"
)

// Server routes requests to its agents and workflows.
type Server struct {
	agents       map[string]*agent.Agent
	order        []string
	workflows    *workflow.Registry
	runs         workflow.RunStore
	memory       *memory.Store
	logger       *slog.Logger
	agentOpts    []agent.Option
	workflowOpts []workflow.Option
}

// Option configures a Server.
type Option func(*Server)

// WithAgent serves a under its id.
func WithAgent(a *agent.Agent) Option {
	return func(s *Server) {
		id := a.Info().ID
		if _, ok := s.agents[id]; !ok {
			s.order = append(s.order, id)
		}
		s.agents[id] = a
	}
}

// WithWorkflows serves the workflows of reg.
func WithWorkflows(reg *workflow.Registry) Option {
	return func(s *Server) { s.workflows = reg }
}

// WithRunStore persists workflow results and enables run lookups.
func WithRunStore(rs workflow.RunStore) Option {
	return func(s *Server) { s.runs = rs }
}

// WithMemory keeps agent threads in m.
func WithMemory(m *memory.Store) Option {
	return func(s *Server) { s.memory = m }
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithAgentOptions applies opts to every agent run.
func WithAgentOptions(opts ...agent.Option) Option {
	return func(s *Server) { s.agentOpts = append(s.agentOpts, opts...) }
}

// WithWorkflowOptions applies opts to every workflow run.
func WithWorkflowOptions(opts ...workflow.Option) Option {
	return func(s *Server) { s.workflowOpts = append(s.workflowOpts, opts...) }
}

// New creates a server.
func New(opts ...Option) *Server {
	s := &Server{
		agents:    make(map[string]*agent.Agent),
		workflows: workflow.NewRegistry(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler with every route behind the CORS and
// logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /api/agents", s.listAgents)
	mux.HandleFunc("POST /api/agents/{agentId}/stream", s.streamAgent)
	mux.HandleFunc("GET /api/workflows", s.listWorkflows)
	mux.HandleFunc("POST /api/workflows/{workflowId}/run", s.runWorkflow)
	mux.HandleFunc("POST /api/workflows/{workflowId}/stream", s.streamWorkflow)
	mux.HandleFunc("GET /api/workflows/runs/{runId}", s.getRun)
	mux.HandleFunc("GET /api/memory/threads/{threadId}/messages", s.threadMessages)
	return corsMiddleware(logMiddleware(s.logger, mux))
}
