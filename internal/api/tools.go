package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/que-labs/quecore/internal/tools"
)

// callRequest is the body of POST /call.
type callRequest struct {
	ToolName string         `json:"tool_name"`
	Args     map[string]any `json:"args"`
}

// callResponse mirrors the tool result envelope, annotated with the tool
// name and wall-clock execution time.
type callResponse struct {
	Success         bool    `json:"success"`
	Result          any     `json:"result"`
	Error           string  `json:"error,omitempty"`
	ToolName        string  `json:"tool_name"`
	ExecutionTimeMS float64 `json:"execution_time_ms"`
}

// handleListTools returns the registered tools.
func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	infos := s.registry.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"tools": infos,
		"count": len(infos),
	})
}

// handleCallTool invokes a tool by name with a JSON argument bag.
func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ToolName == "" {
		writeError(w, http.StatusBadRequest, "tool_name is required")
		return
	}

	start := time.Now()
	res, err := s.registry.Execute(r.Context(), req.ToolName, req.Args)
	elapsed := time.Since(start)

	if errors.Is(err, tools.ErrToolNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("tool invocation failed", "tool", req.ToolName, "error", err)
		writeError(w, http.StatusInternalServerError, "tool invocation failed")
		return
	}

	writeJSON(w, http.StatusOK, callResponse{
		Success:         res.Success,
		Result:          res.Result,
		Error:           res.Error,
		ToolName:        req.ToolName,
		ExecutionTimeMS: float64(elapsed.Microseconds()) / 1000,
	})
}
