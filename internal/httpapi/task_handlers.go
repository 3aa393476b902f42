package httpapi

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/MrEthical07/taskauth/internal/tasks"
	"github.com/MrEthical07/taskauth/middleware"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
	// maxPage keeps (page-1)*limit within an int for any accepted limit.
	maxPage = math.MaxInt / maxLimit
)

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type listResponse struct {
	Data  []tasks.Task `json:"data"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int64        `json:"total"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.SubjectID(r)

	var req createTaskRequest
	if !decodeBody(w, r, &req, "title", "description") {
		return
	}

	t, err := s.tasks.Create(r.Context(), owner, req.Title, req.Description)
	if err != nil {
		s.fail(w, r, "create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.SubjectID(r)

	page, limit, errs := parseListQuery(r)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, messageBody{Message: msgInvalidRequest, Errors: errs})
		return
	}

	p, err := s.tasks.List(r.Context(), owner, page, limit)
	if err != nil {
		s.fail(w, r, "list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: p.Items, Page: p.Page, Limit: p.Limit, Total: p.Total})
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.SubjectID(r)
	id, ok := taskID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Task not found")
		return
	}

	var req updateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	t, err := s.tasks.Update(r.Context(), owner, id, tasks.Patch{Title: req.Title, Description: req.Description})
	if err != nil {
		s.fail(w, r, "update task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.SubjectID(r)
	id, ok := taskID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Task not found")
		return
	}

	if err := s.tasks.Delete(r.Context(), owner, id); err != nil {
		s.fail(w, r, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// parseListQuery validates page and limit and rejects any other parameter.
func parseListQuery(r *http.Request) (page, limit int, errs []string) {
	q := r.URL.Query()
	page = parsePositive(q.Get("page"), "page", defaultPage, &errs)
	if page > maxPage {
		errs = append(errs, fmt.Sprintf("Invalid value for page '%d' (should be at most %d)", page, maxPage))
	}
	limit = parsePositive(q.Get("limit"), "limit", defaultLimit, &errs)
	if limit > maxLimit {
		errs = append(errs, fmt.Sprintf("Invalid value for limit '%d' (should be at most %d)", limit, maxLimit))
	}

	var extra []string
	for key := range q {
		if key != "page" && key != "limit" {
			extra = append(extra, key)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		errs = append(errs, "Unexpected parameters: "+strings.Join(extra, ", "))
	}
	return page, limit, errs
}

func parsePositive(raw, name string, def int, errs *[]string) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("Invalid value for %s '%s' (should be an integer)", name, raw))
		return def
	}
	if n < 1 {
		*errs = append(*errs, fmt.Sprintf("Invalid value for %s '%d' (should be higher than 0)", name, n))
	}
	return n
}
