// Copyright 2025 Experfolio
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/experfolio/foliosearch/core"
	"github.com/experfolio/foliosearch/scheduler"
)

type searchRequest struct {
	Query string `json:"query"`
}

type errorResponse struct {
	Status string `json:"status"`
	Kind   string `json:"kind"`
	Cause  string `json:"cause,omitempty"`
}

type healthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeFailure(w, core.NewFailure(core.ErrorInvalidInput, err))
		return
	}

	outcome := s.searcher.Search(r.Context(), req.Query)
	if !outcome.Ok() {
		s.writeFailure(w, outcome.Failure())
		return
	}

	s.writeJSON(w, http.StatusOK, outcome.Value())
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.batch.Status())
}

func (s *Server) handleBatchRun(w http.ResponseWriter, r *http.Request) {
	if err := s.batch.TriggerAsync(); err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			s.writeJSON(w, http.StatusConflict, errorResponse{
				Status: "error",
				Kind:   "run_in_progress",
			})
			return
		}
		s.writeFailure(w, core.Classify(err))
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// healthCheckBudget bounds each component check.
const healthCheckBudget = 5 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Version: s.version}
	status := http.StatusOK

	if len(s.health) > 0 {
		resp.Components = make(map[string]string, len(s.health))
		for name, check := range s.health {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckBudget)
			err := check(ctx)
			cancel()

			if err != nil {
				s.logger.Error("health check failed", "component", name, "error", err)
				resp.Components[name] = "unavailable"
				resp.Status = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Components[name] = "ok"
		}
	}

	s.writeJSON(w, status, resp)
}

// writeFailure maps a classified failure to an HTTP status: invalid
// input is 400, retryable kinds are 503 with a Retry-After header,
// everything else is 500.
func (s *Server) writeFailure(w http.ResponseWriter, failure *core.Failure) {
	status := http.StatusInternalServerError
	switch {
	case failure.Kind == core.ErrorInvalidInput:
		status = http.StatusBadRequest
	case failure.Retryable():
		status = http.StatusServiceUnavailable
		seconds := int(failure.RetryDelay().Seconds())
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "kind", failure.Kind.String(), "error", failure.Err)
	}

	resp := errorResponse{Status: "error", Kind: failure.Kind.String()}
	if s.debug && failure.Err != nil {
		resp.Cause = failure.Err.Error()
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encoding failed", "error", err)
	}
}
