package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mmss-network/mmss/internal/app/emergence"
	"github.com/mmss-network/mmss/internal/app/processor"
	"github.com/mmss-network/mmss/internal/app/ruleengine"
	"github.com/mmss-network/mmss/internal/domain"
	"github.com/mmss-network/mmss/internal/infra/llm"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	proc := processor.New(emergence.NewLogic())
	proc.SetExecutionDelay(time.Millisecond)
	srv := NewServer(proc, ruleengine.NewEngine())
	return srv, srv.Handler()
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, h http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return rec
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)

	var body map[string]string
	rec := getJSON(t, h, "/health", &body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
	if body["timestamp"] == "" {
		t.Error("timestamp missing")
	}
}

func TestCreateTask_ExecutesByDefault(t *testing.T) {
	_, h := newTestServer(t)

	rec := postJSON(t, h, "/api/tasks", map[string]any{
		"task": map[string]any{
			"task_name":          "rotate",
			"geometric_operator": "optimize coherence",
			"target_module":      "emergence_logic",
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}

	var resp CreateTaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TaskID == uuid.Nil {
		t.Error("task_id missing")
	}
	if resp.Status == nil || resp.Status.State != domain.TaskCompleted {
		t.Fatalf("status = %+v, want COMPLETED", resp.Status)
	}
	if resp.Status.Metrics == nil {
		t.Error("completed status carries no metrics snapshot")
	}
	if resp.Result == nil || !resp.Result.Success {
		t.Errorf("result = %+v, want success", resp.Result)
	}
}

func TestCreateTask_SubmitOnly(t *testing.T) {
	_, h := newTestServer(t)

	noExec := false
	rec := postJSON(t, h, "/api/tasks", CreateTaskRequest{
		Task:    domain.GeometricTaskCommand{TaskName: "later", GeometricOperator: domain.OperatorZitterbewegung},
		Execute: &noExec,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}

	var resp CreateTaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != nil {
		t.Errorf("status = %+v, want omitted for submit-only", resp.Status)
	}

	var statusBody struct {
		Status domain.TaskStatus `json:"status"`
	}
	getJSON(t, h, "/api/tasks/"+resp.TaskID.String(), &statusBody)
	if statusBody.Status.State != domain.TaskPending {
		t.Errorf("state = %q, want PENDING", statusBody.Status.State)
	}
}

func TestCreateTask_DuplicateID(t *testing.T) {
	_, h := newTestServer(t)

	id := uuid.New()
	body := map[string]any{
		"task": map[string]any{
			"task_name":          "once",
			"geometric_operator": "quaternion_rotation",
			"task_id":            id.String(),
		},
		"execute": false,
	}

	if rec := postJSON(t, h, "/api/tasks", body); rec.Code != http.StatusCreated {
		t.Fatalf("first submit status = %d, want 201", rec.Code)
	}
	if rec := postJSON(t, h, "/api/tasks", body); rec.Code != http.StatusConflict {
		t.Errorf("second submit status = %d, want 409", rec.Code)
	}
}

func TestCreateTask_MissingName(t *testing.T) {
	_, h := newTestServer(t)

	rec := postJSON(t, h, "/api/tasks", map[string]any{"task": map[string]any{}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetTaskStatus_Errors(t *testing.T) {
	_, h := newTestServer(t)

	if rec := getJSON(t, h, "/api/tasks/not-a-uuid", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
	if rec := getJSON(t, h, "/api/tasks/"+uuid.NewString(), nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
}

func TestListTasks(t *testing.T) {
	_, h := newTestServer(t)

	for i := 0; i < 2; i++ {
		postJSON(t, h, "/api/tasks", map[string]any{
			"task":    map[string]any{"task_name": "t", "geometric_operator": "zitter"},
			"execute": false,
		})
	}

	var body struct {
		Tasks []processor.TaskEntry `json:"tasks"`
		Count int                   `json:"count"`
	}
	getJSON(t, h, "/api/tasks", &body)
	if body.Count != 2 || len(body.Tasks) != 2 {
		t.Errorf("count = %d, len = %d, want 2", body.Count, len(body.Tasks))
	}
}

func TestGetMetrics_IncludesDerivedRules(t *testing.T) {
	_, h := newTestServer(t)

	var body struct {
		Metrics   domain.GeometricMetrics `json:"metrics"`
		RuleNames []string                `json:"rule_names"`
		RuleCount int                     `json:"rule_count"`
	}
	rec := getJSON(t, h, "/api/metrics", &body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body.Metrics.QuaternionCoherence != 0.9997 {
		t.Errorf("coherence = %g, want baseline 0.9997", body.Metrics.QuaternionCoherence)
	}
	if body.RuleCount == 0 || len(body.RuleNames) != body.RuleCount {
		t.Errorf("rule_count = %d, names = %v", body.RuleCount, body.RuleNames)
	}
	if _, ok := body.Metrics.CustomMetrics["coherence_entropy_ratio"]; !ok {
		t.Error("derived metric coherence_entropy_ratio missing")
	}
}

func TestGetVectorizedMetrics(t *testing.T) {
	_, h := newTestServer(t)

	var body struct {
		Names     []string  `json:"names"`
		Values    []float64 `json:"values"`
		Dimension int       `json:"dimension"`
	}
	getJSON(t, h, "/api/metrics/vector", &body)

	if len(body.Names) != len(body.Values) || body.Dimension != len(body.Values) {
		t.Fatalf("shape mismatch: names=%d values=%d dimension=%d",
			len(body.Names), len(body.Values), body.Dimension)
	}
	if body.Names[0] != "v_geometric" {
		t.Errorf("names[0] = %q, want v_geometric", body.Names[0])
	}
}

func TestQuery_NoGatewayConfigured(t *testing.T) {
	_, h := newTestServer(t)

	rec := postJSON(t, h, "/api/query", map[string]any{"query": "raise coherence"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestQuery_TranslatesAndExecutes(t *testing.T) {
	content := `{"task_name":"llm rotate","geometric_operator":"optimize coherence","target_module":"emergence_logic"}`
	mistral := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		})
	}))
	defer mistral.Close()

	srv, h := newTestServer(t)
	g, err := llm.NewGateway(llm.Config{APIKey: "test-key", Endpoint: mistral.URL})
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	srv.SetGateway(g)
	h = srv.Handler()

	rec := postJSON(t, h, "/api/query", map[string]any{"query": "raise coherence"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var body struct {
		Task   domain.GeometricTaskCommand `json:"task"`
		TaskID uuid.UUID                   `json:"task_id"`
		Status *domain.TaskStatus          `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Task.GeometricOperator != domain.OperatorQuaternionRotation {
		t.Errorf("operator = %q, want normalized quaternion_rotation", body.Task.GeometricOperator)
	}
	if body.Status == nil || body.Status.State != domain.TaskCompleted {
		t.Errorf("status = %+v, want COMPLETED", body.Status)
	}
}

func TestVisualization(t *testing.T) {
	_, h := newTestServer(t)

	postJSON(t, h, "/api/tasks", map[string]any{
		"task": map[string]any{
			"task_name":          "anchor",
			"geometric_operator": "semantic",
			"parameters":         map[string]any{"label": "origin"},
		},
	})

	var packet domain.VisualizationPacket
	rec := getJSON(t, h, "/api/visualization", &packet)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(packet.Anchors) != 1 {
		t.Fatalf("anchors = %d, want 1", len(packet.Anchors))
	}
	if packet.Anchors[0].Label != "origin" {
		t.Errorf("label = %q, want origin", packet.Anchors[0].Label)
	}
}

func TestCORSPreflight(t *testing.T) {
	_, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}
}
