package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/axwatch/archive"
	"github.com/hazyhaar/axwatch/browser"
	"github.com/hazyhaar/axwatch/session"
)

func newRouter(logger *slog.Logger, authToken string, sess *session.Session, driver *browser.Driver, store *archive.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "session_id": sess.ID()})
	})

	r.Group(func(r chi.Router) {
		if authToken != "" {
			r.Use(bearerAuth(authToken))
		}

		r.Post("/api/navigate", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				URL string `json:"url"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.URL == "" {
				writeError(w, http.StatusBadRequest, "url is required")
				return
			}
			if err := driver.Navigate(req.Context(), body.URL); err != nil {
				logger.Error("axwatch: navigate", "url", body.URL, "error", err)
				writeError(w, http.StatusBadGateway, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "url": body.URL})
		})

		r.Post("/api/change-snapshot", func(w http.ResponseWriter, req *http.Request) {
			var body session.SnapshotRequest
			// An empty body means snapshot against the default baseline.
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			res, err := sess.ChangeSnapshot(req.Context(), body)
			if err != nil {
				logger.Error("axwatch: change snapshot", "error", err)
				writeError(w, http.StatusBadGateway, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, res)
		})

		r.Get("/api/baselines", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, sess.Baselines())
		})

		r.Delete("/api/baselines/{key}", func(w http.ResponseWriter, req *http.Request) {
			key := chi.URLParam(req, "key")
			sess.ResetBaseline(key)
			writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "key": key})
		})

		r.Get("/api/extract", func(w http.ResponseWriter, req *http.Request) {
			res, err := driver.ExtractPage(req.Context())
			if err != nil {
				writeError(w, http.StatusBadGateway, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, res)
		})

		r.Get("/api/reports", func(w http.ResponseWriter, req *http.Request) {
			limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
			reports, err := store.Recent(req.Context(), sess.ID(), limit)
			if err != nil {
				logger.Error("axwatch: list reports", "error", err)
				writeError(w, http.StatusInternalServerError, "query failed")
				return
			}
			if reports == nil {
				reports = []*session.Report{}
			}
			writeJSON(w, http.StatusOK, reports)
		})
	})

	return r
}

func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			got := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
			if got != token {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
