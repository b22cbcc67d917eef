// Package gateway is the chat endpoint used by the web frontend. It turns
// a chat request into an AG-UI run on the remote agent and passes the
// agent's stream back unmodified.
package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/stellar-agentkit/stellarflow/agui"
)

// Handler serves POST /api/chat.
type Handler struct {
	agent  Agent
	logger *slog.Logger
}

// NewHandler creates a chat handler forwarding to agent.
func NewHandler(agent Agent, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{agent: agent, logger: logger}
}

// Routes returns a mux with the chat and health routes.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /api/chat", h)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid chat request", "error", err)
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	input, err := req.RunInput()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log := h.logger.With("run_id", input.RunID, "message_count", len(input.Messages), "tool_count", len(input.Tools))
	stream, err := h.agent.Stream(r.Context(), input)
	if err != nil {
		log.Error("agent unavailable", "error", err)
		http.Error(w, "agent unavailable: "+err.Error(), http.StatusBadGateway)
		return
	}
	defer stream.Body.Close()

	contentType := stream.ContentType
	if contentType == "" {
		contentType = agui.ContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	n, err := copyFlush(w, stream.Body)
	if err != nil && !errors.Is(err, r.Context().Err()) {
		log.Warn("stream copy ended early", "error", err, "bytes", n)
		return
	}
	log.Info("chat completed", "bytes", n, "duration_ms", time.Since(start).Milliseconds())
}

// copyFlush copies src to w, flushing after every read so events reach the
// browser as they arrive.
func copyFlush(w http.ResponseWriter, src io.Reader) (int64, error) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			written, werr := w.Write(buf[:n])
			total += int64(written)
			if werr != nil {
				return total, werr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}
