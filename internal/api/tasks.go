package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"deco-planner/internal/domain"
	"deco-planner/internal/infrastructure"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePlanRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	s.submitPlan(w, r, req)
}

// uploadPlan multipart: файл плана в поле plan, баллоны и параметры в json_data.
func (s *Server) uploadPlan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.CreatePlanRequest
	if jsonStr := r.FormValue("json_data"); jsonStr != "" {
		if err := json.Unmarshal([]byte(jsonStr), &req); err != nil {
			s.respondWithError(w, r, http.StatusBadRequest, "Invalid json_data: "+err.Error())
			return
		}
	}

	file, header, err := r.FormFile("plan")
	if err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, "Plan file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	levels, err := infrastructure.NewTXTFileReader(s.logger).ReadLevels(string(content))
	if err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Debug("Plan file received", zap.String("file", header.Filename), zap.Int("levels", len(levels)))
	req.Levels = levels
	req.Segments = nil
	if req.Name == "" {
		req.Name = header.Filename
	}

	s.submitPlan(w, r, req)
}

// submitPlan проверяет запрос, сохраняет задачу и ставит ее в очередь.
func (s *Server) submitPlan(w http.ResponseWriter, r *http.Request, req domain.CreatePlanRequest) {
	if err := s.validator.Struct(req); err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	planRequest, err := req.ToPlanRequest(s.config.Planner, s.config.Diver)
	if err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	task := &domain.Task{
		Name:    req.Name,
		Status:  domain.TaskStatusPending,
		Request: planRequest,
	}

	ctx := r.Context()
	if err := s.repo.CreateTask(ctx, task); err != nil {
		s.logger.Error("Failed to create task", zap.Error(err))
		s.respondWithError(w, r, http.StatusInternalServerError, "Failed to create task")
		return
	}

	if err := s.msgClient.PublishTask(ctx, task.ID); err != nil {
		s.logger.Error("Failed to publish task", zap.String("task_id", task.ID), zap.Error(err))
		updates := map[string]any{
			"status": domain.TaskStatusError,
			"error":  "task queue unavailable",
		}
		if updateErr := s.repo.UpdateTask(ctx, task.ID, updates); updateErr != nil {
			s.logger.Error("Failed to mark task as failed", zap.String("task_id", task.ID), zap.Error(updateErr))
		}
		s.respondWithError(w, r, http.StatusServiceUnavailable, "Task queue unavailable")
		return
	}

	s.respondWithJSON(w, r, http.StatusCreated, task)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	task, err := s.repo.GetTask(r.Context(), taskID)
	if err != nil {
		s.respondRepositoryError(w, r, err, "Task not found")
		return
	}

	s.respondWithJSON(w, r, http.StatusOK, task)
}

func (s *Server) getTaskResult(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	task, err := s.repo.GetTask(r.Context(), taskID)
	if err != nil {
		s.respondRepositoryError(w, r, err, "Task not found")
		return
	}

	if task.Status != domain.TaskStatusSuccess {
		s.respondWithJSON(w, r, http.StatusConflict, map[string]any{
			"error":  "Result is not ready",
			"status": task.Status,
		})
		return
	}

	var result *domain.Result
	if task.ResultID != "" {
		result, err = s.resultRepo.GetResult(r.Context(), task.ResultID)
	} else {
		result, err = s.resultRepo.GetResultByTask(r.Context(), taskID)
	}
	if err != nil {
		s.respondRepositoryError(w, r, err, "Result not found")
		return
	}

	s.respondWithJSON(w, r, http.StatusOK, result)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= maxListLimit {
			limit = l
		}
	}

	tasks, err := s.repo.ListTasks(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list tasks", zap.Error(err))
		s.respondWithError(w, r, http.StatusInternalServerError, "Failed to fetch tasks")
		return
	}

	response := map[string]any{
		"tasks": tasks,
		"count": len(tasks),
		"limit": limit,
	}

	s.respondWithJSON(w, r, http.StatusOK, response)
}

func (s *Server) renameTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	var req domain.RenameTaskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.UpdateTask(r.Context(), taskID, map[string]any{"name": req.Name}); err != nil {
		s.respondRepositoryError(w, r, err, "Task not found")
		return
	}

	s.respondWithJSON(w, r, http.StatusOK, map[string]string{"message": "Task updated"})
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	// Вместо удаления, помечаем как удаленное
	updates := map[string]any{
		"status":     domain.TaskStatusDeleted,
		"deleted_at": time.Now().UTC(),
	}

	if err := s.repo.UpdateTask(r.Context(), taskID, updates); err != nil {
		s.respondRepositoryError(w, r, err, "Task not found")
		return
	}

	s.respondWithJSON(w, r, http.StatusOK, map[string]string{"message": "Task deleted"})
}

func (s *Server) respondRepositoryError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	if errors.Is(err, domain.ErrNotFound) {
		s.respondWithError(w, r, http.StatusNotFound, notFound)
		return
	}
	s.logger.Error("Repository error", zap.String("path", r.URL.Path), zap.Error(err))
	s.respondWithError(w, r, http.StatusInternalServerError, "Storage error")
}
