// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bvk/ladderbot/api"
	"github.com/bvk/ladderbot/config"
)

// HandlerMap returns the control API handlers keyed by their paths.
func (s *Server) HandlerMap() map[string]http.Handler {
	return map[string]http.Handler{
		api.PairStartPath:        httpPostJSONHandler(s, s.doPairStart),
		api.PairStopPath:         httpPostJSONHandler(s, s.doPairStop),
		api.PairUpdateConfigPath: httpPostJSONHandler(s, s.doPairUpdateConfig),
		api.PairStatusPath:       httpPostJSONHandler(s, s.doPairStatus),
		api.PairListPath:         httpPostJSONHandler(s, s.doPairList),
		api.ServerStatusPath:     httpPostJSONHandler(s, s.doServerStatus),
	}
}

// httpStatusCode maps the errors from the control operations to http status
// codes.
func httpStatusCode(err error) int {
	switch {
	case errors.Is(err, os.ErrPermission):
		return http.StatusUnauthorized
	case errors.Is(err, config.ErrConfigInvalid), errors.Is(err, os.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, os.ErrExist), errors.Is(err, os.ErrClosed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) authorize(r *http.Request) error {
	if len(s.secrets.APIKey) == 0 {
		return nil
	}
	token, ok := api.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return api.ErrUnauthorized
	}
	if _, err := api.VerifyToken([]byte(s.secrets.APIKey), token, time.Now()); err != nil {
		return err
	}
	return nil
}

func httpPostJSONHandler[T, R any](s *Server, fn func(context.Context, *T) (*R, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := s.authorize(r); err != nil {
			slog.Warn("rejected unauthorized api request", "path", r.URL.Path, "remote", r.RemoteAddr, "err", err)
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		req := new(T)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if c, ok := any(req).(interface{ Check() error }); ok {
			if err := c.Check(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		resp, err := fn(r.Context(), req)
		if err != nil {
			code := httpStatusCode(err)
			if code == http.StatusInternalServerError {
				slog.Error("api request has failed", "path", r.URL.Path, "err", err)
			}
			http.Error(w, err.Error(), code)
			return
		}

		data, err := json.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})
}

func (s *Server) doPairStart(ctx context.Context, req *api.PairStartRequest) (*api.PairStartResponse, error) {
	e, err := s.startPair(ctx, *req.Config)
	if err != nil {
		return nil, err
	}
	return &api.PairStartResponse{Status: e.Status()}, nil
}

func (s *Server) doPairStop(ctx context.Context, req *api.PairStopRequest) (*api.PairStopResponse, error) {
	e, err := s.getEngine(req.Pair)
	if err != nil {
		return nil, err
	}
	if err := e.Stop(ctx); err != nil {
		return nil, err
	}
	return &api.PairStopResponse{Status: e.Status()}, nil
}

func (s *Server) doPairUpdateConfig(ctx context.Context, req *api.PairUpdateConfigRequest) (*api.PairUpdateConfigResponse, error) {
	e, err := s.getEngine(req.Pair)
	if err != nil {
		return nil, err
	}
	cfg, err := e.UpdateConfig(ctx, req.Partial)
	if err != nil {
		return nil, err
	}
	resp := &api.PairUpdateConfigResponse{
		Config:  cfg,
		Pending: e.IsRunning(),
	}
	return resp, nil
}

func (s *Server) doPairStatus(ctx context.Context, req *api.PairStatusRequest) (*api.PairStatusResponse, error) {
	e, err := s.getEngine(req.Pair)
	if err != nil {
		return nil, err
	}
	return &api.PairStatusResponse{Status: e.Status()}, nil
}

func (s *Server) doPairList(ctx context.Context, req *api.PairListRequest) (*api.PairListResponse, error) {
	resp := new(api.PairListResponse)
	for _, e := range s.engines() {
		status := e.Status()
		item := &api.PairListResponseItem{
			Pair:          status.Pair,
			Mode:          status.Config.Mode,
			Variant:       status.Config.Variant,
			IsRunning:     status.IsRunning,
			TrackedOrders: len(status.TrackedOrders),
			CycleCount:    status.CycleCount,
			FailedCycles:  status.FailedCycles,
		}
		resp.Pairs = append(resp.Pairs, item)
	}
	return resp, nil
}

// Authorized wraps a handler with the bearer token check of the control API.
func (s *Server) Authorized(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.authorize(r); err != nil {
			slog.Warn("rejected unauthorized request", "path", r.URL.Path, "remote", r.RemoteAddr, "err", err)
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		h.ServeHTTP(w, r)
	})
}
