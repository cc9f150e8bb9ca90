// Package httpapi exposes collections and dry-run execution over HTTP.
// Real commits stay off the wire; the API only simulates.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/sapling/pkg/collection"
	"github.com/aretw0/sapling/pkg/domain"
	"github.com/aretw0/sapling/pkg/engine"
	"github.com/aretw0/sapling/pkg/schema"
)

// Runner executes workflow requests. Satisfied by *engine.Engine.
type Runner interface {
	Execute(ctx context.Context, req engine.Request) (*engine.Result, error)
}

// Server serves the collection catalog and dry-run endpoint.
type Server struct {
	resolver collection.Resolver
	runner   Runner
	logger   *slog.Logger
}

// NewHandler builds the HTTP handler for the given resolver and runner.
func NewHandler(resolver collection.Resolver, runner Runner, logger *slog.Logger) http.Handler {
	s := &Server{resolver: resolver, runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.health)
	r.Get("/collections", s.listCollections)
	r.Get("/collections/{name}", s.getCollection)
	r.Get("/collections/{name}/schematics/{schematic}", s.getSchematic)
	r.Post("/run", s.run)
	return r
}

type collectionSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Schematics  []string `json:"schematics"`
}

type schematicDetail struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Schema      map[string]fieldDetail `json:"schema,omitempty"`
	Defaults    map[string]any         `json:"defaults,omitempty"`
}

type fieldDetail struct {
	Type        string `json:"type"`
	Required    bool   `json:"required,omitempty"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

type runRequest struct {
	Collection string         `json:"collection"`
	Schematic  string         `json:"schematic"`
	Options    map[string]any `json:"options"`
}

type runResponse struct {
	ExecutionID string              `json:"execution_id"`
	Events      []domain.Event      `json:"events"`
	Tasks       []domain.TaskNotice `json:"tasks"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	names, err := s.resolver.List()
	if err != nil {
		s.serverError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	c, ok := s.resolveCollection(w, chi.URLParam(r, "name"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, collectionSummary{
		Name:        c.Name,
		Description: c.Description,
		Schematics:  c.Names(),
	})
}

func (s *Server) getSchematic(w http.ResponseWriter, r *http.Request) {
	c, ok := s.resolveCollection(w, chi.URLParam(r, "name"))
	if !ok {
		return
	}
	schematic, err := c.Schematic(chi.URLParam(r, "schematic"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, schematicDetail{
		Name:        schematic.Name,
		Description: schematic.Description,
		Schema:      describeSchema(schematic.Schema),
		Defaults:    schematic.Defaults,
	})
}

// run performs a dry run. The API never commits; callers that want real
// writes use the CLI or the library against their own store.
func (s *Server) run(w http.ResponseWriter, r *http.Request) {
	var body runRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Collection == "" || body.Schematic == "" {
		http.Error(w, "collection and schematic are required", http.StatusBadRequest)
		return
	}

	result, err := s.runner.Execute(r.Context(), engine.Request{
		Collection: body.Collection,
		Schematic:  body.Schematic,
		Options:    body.Options,
		DryRun:     true,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownCollection), errors.Is(err, domain.ErrUnknownSchematic):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			var agg *schema.AggregateError
			if errors.As(err, &agg) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			s.serverError(w, err)
		}
		return
	}

	resp := runResponse{
		ExecutionID: result.ExecutionID,
		Events:      []domain.Event{},
		Tasks:       []domain.TaskNotice{},
	}
	for _, action := range result.Actions {
		resp.Events = append(resp.Events, engine.EventFor(action))
	}
	for _, task := range result.Tasks {
		resp.Tasks = append(resp.Tasks, domain.TaskNotice{
			ID:       task.ID,
			Executor: task.Executor,
			DepCount: len(task.DependsOn),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) resolveCollection(w http.ResponseWriter, name string) (*collection.Collection, bool) {
	c, err := s.resolver.Resolve(name)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownCollection) {
			http.Error(w, err.Error(), http.StatusNotFound)
		} else {
			s.serverError(w, err)
		}
		return nil, false
	}
	return c, true
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func describeSchema(declared schema.Schema) map[string]fieldDetail {
	if declared == nil {
		return nil
	}
	out := make(map[string]fieldDetail, len(declared))
	for name, field := range declared {
		out[name] = fieldDetail{
			Type:        field.Type.Name(),
			Required:    field.Required,
			Default:     field.Default,
			Description: field.Description,
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
