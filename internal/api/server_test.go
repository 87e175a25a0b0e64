package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"deco-planner/internal/config"
	"deco-planner/internal/domain"
	"deco-planner/internal/messaging"
	"deco-planner/pkg/scuba"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task
	next  int
}

func (f *fakeTaskRepo) CreateTask(_ context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	task.ID = fmt.Sprintf("task-%d", f.next)
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeTaskRepo) GetTask(_ context.Context, id string) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTaskRepo) UpdateTask(_ context.Context, id string, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return domain.ErrNotFound
	}
	if status, ok := updates["status"].(domain.TaskStatus); ok {
		task.Status = status
	}
	if name, ok := updates["name"].(string); ok {
		task.Name = name
	}
	if message, ok := updates["error"].(string); ok {
		task.Error = message
	}
	return nil
}

func (f *fakeTaskRepo) ListTasks(_ context.Context, limit int) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := []domain.Task{}
	for _, task := range f.tasks {
		if len(tasks) == limit {
			break
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

type fakeResultRepo struct {
	results map[string]*domain.Result
}

func (f *fakeResultRepo) CreateResult(_ context.Context, result *domain.Result) error {
	f.results[result.ID] = result
	return nil
}

func (f *fakeResultRepo) GetResult(_ context.Context, id string) (*domain.Result, error) {
	result, ok := f.results[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return result, nil
}

func (f *fakeResultRepo) GetResultByTask(_ context.Context, taskID string) (*domain.Result, error) {
	for _, result := range f.results {
		if result.TaskID == taskID {
			return result, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fakeMsgClient struct {
	mu         sync.Mutex
	published  []string
	publishErr error
	healthErr  error
}

func (f *fakeMsgClient) PublishTask(_ context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, taskID)
	return nil
}

func (f *fakeMsgClient) SubscribeToTasks(context.Context, messaging.TaskHandler) error { return nil }
func (f *fakeMsgClient) HealthCheck(context.Context) error                             { return f.healthErr }
func (f *fakeMsgClient) Close() error                                                  { return nil }

type testServer struct {
	server  *Server
	tasks   *fakeTaskRepo
	results *fakeResultRepo
	queue   *fakeMsgClient
}

func newTestServer() *testServer {
	options := scuba.DefaultOptions()
	options.DescentSpeed = 20
	cfg := &config.Config{Planner: options, Diver: scuba.DefaultDiver(), ServerPort: ":0"}

	ts := &testServer{
		tasks:   &fakeTaskRepo{tasks: map[string]*domain.Task{}},
		results: &fakeResultRepo{results: map[string]*domain.Result{}},
		queue:   &fakeMsgClient{},
	}
	ts.server = NewServer(ts.tasks, ts.results, ts.queue, cfg, nil)
	return ts
}

func (ts *testServer) do(t *testing.T, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &value), rec.Body.String())
	return value
}

const planBody = `{
	"name": "reef",
	"tanks": [{"id": 1, "size": 15, "working_pressure": 200, "start_pressure": 200, "gas": {"o2": 0.209}}],
	"levels": [{"depth": 30, "duration": 12}]
}`

func TestCreatePlan(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/v1/plans", []byte(planBody), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	task := decode[domain.Task](t, rec)
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, "reef", task.Name)
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	require.NotNil(t, task.Request)
	require.Len(t, task.Request.Plan, 2)
	assert.Equal(t, 90.0, task.Request.Plan[0].Duration)
	assert.Equal(t, 1, task.Request.Plan[1].TankID)
	assert.Equal(t, scuba.DefaultDiver(), task.Request.Diver)
	assert.Equal(t, []string{"task-1"}, ts.queue.published)
}

func TestCreatePlanRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"unknown field", `{"tankz": []}`},
		{"no tanks", `{"levels": [{"depth": 30, "duration": 12}]}`},
		{"no plan", `{"tanks": [{"id": 1, "size": 15, "start_pressure": 200, "gas": {"o2": 0.21}}]}`},
		{"unknown tank", `{
			"tanks": [{"id": 1, "size": 15, "start_pressure": 200, "gas": {"o2": 0.21}}],
			"levels": [{"depth": 30, "duration": 12, "gas": {"o2": 0.21}, "tank_id": 3}]
		}`},
		{"invalid options", `{
			"tanks": [{"id": 1, "size": 15, "start_pressure": 200, "gas": {"o2": 0.21}}],
			"levels": [{"depth": 30, "duration": 12}],
			"options": {"gf_low": 0}
		}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			rec := ts.do(t, http.MethodPost, "/api/v1/plans", []byte(tt.body), "application/json")
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, decode[map[string]string](t, rec), "error")
			assert.Empty(t, ts.tasks.tasks)
		})
	}
}

func TestCreatePlanQueueUnavailable(t *testing.T) {
	ts := newTestServer()
	ts.queue.publishErr = errors.New("redis is down")

	rec := ts.do(t, http.MethodPost, "/api/v1/plans", []byte(planBody), "application/json")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	task, err := ts.tasks.GetTask(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusError, task.Status)
}

func multipartPlan(t *testing.T, plan, jsonData string) ([]byte, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if plan != "" {
		part, err := writer.CreateFormFile("plan", "wreck.txt")
		require.NoError(t, err)
		_, err = part.Write([]byte(plan))
		require.NoError(t, err)
	}
	require.NoError(t, writer.WriteField("json_data", jsonData))
	require.NoError(t, writer.Close())
	return body.Bytes(), writer.FormDataContentType()
}

func TestUploadPlan(t *testing.T) {
	ts := newTestServer()
	jsonData := `{
		"tanks": [
			{"id": 1, "size": 24, "start_pressure": 200, "gas": {"o2": 0.209}},
			{"id": 2, "size": 11, "start_pressure": 200, "gas": {"o2": 0.5}}
		]
	}`
	body, contentType := multipartPlan(t, "# wreck\n40 20 air 1\n21 3 ean50 2\n", jsonData)

	rec := ts.do(t, http.MethodPost, "/api/v1/plans/upload", body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	task := decode[domain.Task](t, rec)
	assert.Equal(t, "wreck.txt", task.Name)
	require.NotNil(t, task.Request)
	assert.Equal(t, 21.0, task.Request.Plan.CurrentDepth())
	assert.Equal(t, scuba.EAN50, task.Request.Plan.Last().Gas)
	assert.Len(t, ts.queue.published, 1)
}

func TestUploadPlanErrors(t *testing.T) {
	ts := newTestServer()
	tanks := `{"tanks": [{"id": 1, "size": 15, "start_pressure": 200, "gas": {"o2": 0.21}}]}`

	body, contentType := multipartPlan(t, "", tanks)
	rec := ts.do(t, http.MethodPost, "/api/v1/plans/upload", body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, contentType = multipartPlan(t, "thirty twelve", tanks)
	rec = ts.do(t, http.MethodPost, "/api/v1/plans/upload", body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, contentType = multipartPlan(t, "30 12", "{")
	rec = ts.do(t, http.MethodPost, "/api/v1/plans/upload", body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTask(t *testing.T) {
	ts := newTestServer()
	ts.tasks.tasks["task-7"] = &domain.Task{ID: "task-7", Status: domain.TaskStatusProcessing}

	rec := ts.do(t, http.MethodGet, "/api/v1/tasks/task-7", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.TaskStatusProcessing, decode[domain.Task](t, rec).Status)

	rec = ts.do(t, http.MethodGet, "/api/v1/tasks/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTaskResult(t *testing.T) {
	ts := newTestServer()
	ts.tasks.tasks["pending"] = &domain.Task{ID: "pending", Status: domain.TaskStatusPending}
	ts.tasks.tasks["done"] = &domain.Task{ID: "done", Status: domain.TaskStatusSuccess, ResultID: "result-1"}
	ts.tasks.tasks["legacy"] = &domain.Task{ID: "legacy", Status: domain.TaskStatusSuccess}
	ts.results.results["result-1"] = &domain.Result{ID: "result-1", TaskID: "done", Dive: &scuba.DiveResult{TimeToSurface: 8}}
	ts.results.results["result-2"] = &domain.Result{ID: "result-2", TaskID: "legacy", Dive: &scuba.DiveResult{TimeToSurface: 5}}

	rec := ts.do(t, http.MethodGet, "/api/v1/tasks/pending/result", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/tasks/done/result", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[domain.Result](t, rec)
	assert.Equal(t, 8, result.Dive.TimeToSurface)

	rec = ts.do(t, http.MethodGet, "/api/v1/tasks/legacy/result", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "result-2", decode[domain.Result](t, rec).ID)

	rec = ts.do(t, http.MethodGet, "/api/v1/tasks/missing/result", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTasks(t *testing.T) {
	ts := newTestServer()
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("task-%d", i)
		ts.tasks.tasks[id] = &domain.Task{ID: id}
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/tasks?limit=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	response := decode[struct {
		Tasks []domain.Task `json:"tasks"`
		Count int           `json:"count"`
		Limit int           `json:"limit"`
	}](t, rec)
	assert.Equal(t, 2, response.Count)
	assert.Equal(t, 2, response.Limit)

	rec = ts.do(t, http.MethodGet, "/api/v1/tasks?limit=1000", nil, "")
	assert.Equal(t, float64(defaultListLimit), decode[map[string]any](t, rec)["limit"])
}

func TestRenameAndDeleteTask(t *testing.T) {
	ts := newTestServer()
	ts.tasks.tasks["task-1"] = &domain.Task{ID: "task-1", Status: domain.TaskStatusSuccess}

	rec := ts.do(t, http.MethodPut, "/api/v1/tasks/task-1", []byte(`{"name": "night dive"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "night dive", ts.tasks.tasks["task-1"].Name)

	rec = ts.do(t, http.MethodPut, "/api/v1/tasks/task-1", []byte(`{"name": ""}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/tasks/task-1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.TaskStatusDeleted, ts.tasks.tasks["task-1"].Status)

	rec = ts.do(t, http.MethodDelete, "/api/v1/tasks/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNitroxCalculators(t *testing.T) {
	tests := []struct {
		target string
		key    string
		want   float64
	}{
		{"/api/v1/nitrox/mod?o2=32&ppo2=1.4", "mod", 34.28},
		{"/api/v1/nitrox/mod?o2=50&ppo2=1.6", "gas_switch", 21},
		{"/api/v1/nitrox/mod?o2=32", "mod", 34.28},
		{"/api/v1/nitrox/ead?o2=32&depth=30", "ead", 24.44},
		{"/api/v1/nitrox/best-mix?ppo2=1.4&depth=30", "best_mix", 35.39},
		{"/api/v1/nitrox/best-mix?ppo2=1.4&depth=30&salinity=salt", "best_mix", 34.62},
		{"/api/v1/nitrox/partial-pressure?o2=32&depth=30", "ppo2", 1.27},
	}

	ts := newTestServer()
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, tt.target, nil, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, decode[map[string]float64](t, rec)[tt.key])
		})
	}
}

func TestNitroxErrors(t *testing.T) {
	ts := newTestServer()

	for _, target := range []string{
		"/api/v1/nitrox/mod",
		"/api/v1/nitrox/ead?o2=32",
		"/api/v1/nitrox/ead?o2=150&depth=30",
		"/api/v1/nitrox/best-mix?depth=30&ppo2=abc",
		"/api/v1/nitrox/partial-pressure?o2=32&depth=30&salinity=mud",
		"/api/v1/nitrox/partial-pressure?o2=32&depth=30&altitude=-5",
	} {
		rec := ts.do(t, http.MethodGet, target, nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/nitrox/trimix", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMsgpackFormat(t *testing.T) {
	ts := newTestServer()
	ts.tasks.tasks["task-1"] = &domain.Task{ID: "task-1", Name: "reef", Status: domain.TaskStatusSuccess}

	rec := ts.do(t, http.MethodGet, "/api/v1/tasks/task-1?format=msgpack", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-msgpack", rec.Header().Get("Content-Type"))

	var decoded map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, "reef", decoded["name"])
	assert.Equal(t, "success", decoded["status"])
}

func TestHealthAndDocs(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]any](t, rec)["status"])

	ts.queue.healthErr = errors.New("redis is down")
	rec = ts.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode[map[string]any](t, rec)["status"])

	rec = ts.do(t, http.MethodGet, "/docs", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/plans")

	rec = ts.do(t, http.MethodGet, "/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "Endpoint not found"))
}
