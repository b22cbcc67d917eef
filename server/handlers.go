package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stellar-agentkit/stellarflow/agent"
	"github.com/stellar-agentkit/stellarflow/agui"
	"github.com/stellar-agentkit/stellarflow/storage"
	"github.com/stellar-agentkit/stellarflow/workflow"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listAgents(w http.ResponseWriter, _ *http.Request) {
	infos := make([]agent.Info, 0, len(s.order))
	for _, id := range s.order {
		infos = append(infos, s.agents[id].Info())
	}
	writeJSON(w, http.StatusOK, infos)
}

// streamAgent runs an agent for an AG-UI request and streams the run as
// server-sent events.
func (s *Server) streamAgent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	a, ok := s.agents[r.PathValue("agentId")]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("agent not found: %s", r.PathValue("agentId")))
		return
	}

	var input agui.RunAgentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	prepared, err := input.Prepare()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	log := s.logger.With("agent", a.Info().ID, "run_id", prepared.RunID, "thread_id", prepared.ThreadID)
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	opts := append([]agent.Option{}, s.agentOpts...)
	opts = append(opts, agent.WithThreadID(prepared.ThreadID), agent.WithLogger(log))
	if s.memory != nil {
		opts = append(opts, agent.WithMemory(s.memory))
	}
	if len(prepared.Tools) > 0 {
		opts = append(opts, agent.WithClientTools(prepared.Tools...))
		log.Info("frontend tools offered", "names", prepared.ToolNames)
	}
	log.Info("agent request started", "message_count", len(prepared.Messages))

	agui.SetSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	mapper := agui.NewMapper(prepared.ThreadID, prepared.RunID)
	var sent int
	for ev := range mapper.MapStream(a.RunStream(r.Context(), prepared.Messages, opts...)) {
		if err := agui.WriteSSE(w, ev); err != nil {
			log.Warn("client went away", "error", err, "events_sent", sent)
			return
		}
		sent++
	}
	log.Info("agent request completed", "events_sent", sent, "duration_ms", time.Since(start).Milliseconds())
}

type workflowInfo struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
}

func (s *Server) listWorkflows(w http.ResponseWriter, _ *http.Request) {
	out := make([]workflowInfo, 0, s.workflows.Len())
	for _, id := range s.workflows.Names() {
		runner, _ := s.workflows.Get(id)
		out = append(out, workflowInfo{ID: id, Description: runner.Description()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) decodeWorkflowInput(w http.ResponseWriter, r *http.Request) (workflow.Runner, *agui.RunWorkflowInput, any, bool) {
	id := r.PathValue("workflowId")
	runner, ok := s.workflows.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("workflow not found: %s", id))
		return nil, nil, nil, false
	}
	var in agui.RunWorkflowInput
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return nil, nil, nil, false
		}
	}
	data, err := in.Input()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid inputData: "+err.Error())
		return nil, nil, nil, false
	}
	return runner, &in, data, true
}

func (s *Server) runOptions(runID string) []workflow.Option {
	opts := append([]workflow.Option{}, s.workflowOpts...)
	opts = append(opts, workflow.WithLogger(s.logger))
	if runID != "" {
		opts = append(opts, workflow.WithRunID(runID))
	}
	if s.runs != nil {
		opts = append(opts, workflow.WithStore(s.runs))
	}
	return opts
}

// runWorkflow runs a workflow to completion and answers with its result.
// Invalid pipeline input is a 400; other faults are reported in a 200
// result with success false.
func (s *Server) runWorkflow(w http.ResponseWriter, r *http.Request) {
	runner, in, data, ok := s.decodeWorkflowInput(w, r)
	if !ok {
		return
	}
	res, err := runner.Run(r.Context(), data, s.runOptions(in.RunID)...)
	if res == nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusOK
	if res.Fault != nil && res.Fault.Kind == workflow.InvalidInput && res.Fault.Step == "" {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, res)
}

// streamWorkflow streams a workflow run, including generated fragments, as
// AG-UI events. The result arrives as a STATE_SNAPSHOT before RUN_FINISHED.
func (s *Server) streamWorkflow(w http.ResponseWriter, r *http.Request) {
	runner, in, data, ok := s.decodeWorkflowInput(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	mapper := agui.NewMapper(in.ThreadID, in.RunID, agui.WithResultSnapshot())
	log := s.logger.With("workflow", runner.ID(), "run_id", mapper.RunID())

	agui.SetSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range mapper.MapStream(runner.RunStream(r.Context(), data, s.runOptions(mapper.RunID())...)) {
		if err := agui.WriteSSE(w, ev); err != nil {
			log.Warn("client went away", "error", err)
			return
		}
	}
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run storage is not configured")
		return
	}
	res, err := s.runs.LoadRun(r.Context(), r.PathValue("runId"))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) threadMessages(w http.ResponseWriter, r *http.Request) {
	if s.memory == nil {
		writeError(w, http.StatusNotFound, "memory is not configured")
		return
	}
	threadID := r.PathValue("threadId")
	msgs, err := s.memory.Messages(r.Context(), threadID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"threadId": threadID,
		"messages": agui.FromMessages(msgs),
	})
}
