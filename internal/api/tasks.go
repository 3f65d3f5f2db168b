package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mmss-network/mmss/internal/domain"
)

// CreateTaskRequest submits a geometric task. Execute defaults to true:
// the task is run to a terminal state before the response is written.
type CreateTaskRequest struct {
	Task    domain.GeometricTaskCommand `json:"task"`
	Execute *bool                       `json:"execute,omitempty"`
}

// CreateTaskResponse reports the assigned identifier plus, when the task
// was executed inline, its terminal status.
type CreateTaskResponse struct {
	TaskID uuid.UUID                   `json:"task_id"`
	Status *domain.TaskStatus          `json:"status,omitempty"`
	Result *domain.TaskExecutionResult `json:"result,omitempty"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Task.TaskName == "" {
		writeError(w, http.StatusBadRequest, "task_name is required")
		return
	}

	id, err := s.proc.SubmitTask(req.Task)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateTaskID) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := CreateTaskResponse{TaskID: id}

	execute := req.Execute == nil || *req.Execute
	if execute {
		result, execErr := s.proc.ExecuteTask(id)
		if execErr != nil {
			// Execution failure is recorded on the task, not an HTTP error:
			// the submission itself succeeded.
			log.Printf("[api] task %s failed: %v", id, execErr)
		} else {
			resp.Result = &result
		}
		if status, err := s.proc.GetTaskStatus(id); err == nil {
			resp.Status = &status
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	entries := s.proc.ListTasks()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID.String() < entries[j].ID.String()
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": entries,
		"count": len(entries),
	})
}

func (s *Server) handleGetTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	status, err := s.proc.GetTaskStatus(id)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task_id": id,
		"status":  status,
	})
}

func (s *Server) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	snapshot := s.rules.Evaluate(s.proc.Metrics())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"metrics":    snapshot,
		"rule_names": s.rules.RuleNames(),
		"rule_count": s.rules.RuleCount(),
	})
}

// handleGetVectorizedMetrics flattens the snapshot into parallel name and
// value arrays, named fields first, then custom metrics in sorted order.
func (s *Server) handleGetVectorizedMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.proc.Metrics()

	names := []string{
		"v_geometric", "s_geometric", "q_oscillator",
		"quaternion_coherence", "emergent_electron_mass",
		"fine_structure_constant", "zitterbewegung_entropy",
		"topological_winding",
	}
	values := []float64{
		m.VGeometric, m.SGeometric, m.QOscillator,
		m.QuaternionCoherence, m.EmergentElectronMass,
		m.FineStructureConstant, m.ZitterbewegungEntropy,
		m.TopologicalWinding,
	}

	customNames := make([]string, 0, len(m.CustomMetrics))
	for name := range m.CustomMetrics {
		customNames = append(customNames, name)
	}
	sort.Strings(customNames)
	for _, name := range customNames {
		names = append(names, name)
		values = append(values, m.CustomMetrics[name])
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"names":     names,
		"values":    values,
		"dimension": len(values),
	})
}

// QueryRequest carries a free-text geometric query for the LLM gateway.
type QueryRequest struct {
	Query   string         `json:"query"`
	Context map[string]any `json:"context,omitempty"`
	Execute *bool          `json:"execute,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if s.gateway == nil {
		writeError(w, http.StatusServiceUnavailable, "LLM gateway not configured")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	cmd, err := s.gateway.TranslateQuery(r.Context(), req.Query, req.Context)
	if err != nil {
		if errors.Is(err, domain.ErrSerialization) {
			writeError(w, http.StatusBadGateway, "model reply was not a task command: "+err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	id, err := s.proc.SubmitTask(cmd)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateTaskID) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := CreateTaskResponse{TaskID: id}

	if req.Execute == nil || *req.Execute {
		result, execErr := s.proc.ExecuteTask(id)
		if execErr != nil {
			log.Printf("[api] query task %s failed: %v", id, execErr)
		} else {
			resp.Result = &result
		}
		if status, err := s.proc.GetTaskStatus(id); err == nil {
			resp.Status = &status
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"task":    cmd,
		"task_id": resp.TaskID,
		"status":  resp.Status,
		"result":  resp.Result,
	})
}

func (s *Server) handleVisualization(w http.ResponseWriter, r *http.Request) {
	packet := domain.NewVisualizationPacket(s.proc.Metrics(), s.proc.Anchors())
	writeJSON(w, http.StatusOK, packet)
}
