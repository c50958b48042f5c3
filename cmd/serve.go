package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/contact"
	"github.com/sells-group/outreach-cli/internal/enrichment"
	"github.com/sells-group/outreach-cli/internal/importer"
	"github.com/sells-group/outreach-cli/internal/launch"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/session"
	"github.com/sells-group/outreach-cli/internal/store"
)

// maxImportBytes caps the body of an import upload.
const maxImportBytes = 10 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the campaign preparation API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type api struct {
	env *outreachEnv
}

// newRouter builds the HTTP API over env.
func newRouter(env *outreachEnv, allowedOrigins []string) http.Handler {
	a := &api{env: env}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", a.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/breakers", a.breakers)

	r.Route("/jobs/{jobID}", func(r chi.Router) {
		r.Get("/candidates", a.listCandidates)
		r.Put("/candidates/{candidateID}/contact", a.manualEntry)
		r.Post("/import", a.importContacts)
		r.Post("/enrich", a.enrich)
		r.Post("/check", a.check)
		r.Post("/launch", a.launch)
		r.Get("/session", a.session)
	})

	return r
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSONStatus(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var missing *contact.MissingColumnsError
	var pre *launch.PreconditionError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, session.ErrNotFound),
		errors.Is(err, enrichment.ErrUnknownCandidate):
		return http.StatusNotFound
	case errors.As(err, &missing), errors.Is(err, importer.ErrNoData),
		errors.Is(err, enrichment.ErrInvalidEmail), errors.Is(err, enrichment.ErrNoContact):
		return http.StatusBadRequest
	case errors.As(err, &pre):
		return http.StatusConflict
	case errors.Is(err, errEnrichmentDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, launch.ErrLaunchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("api request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	writeError(w, status, err)
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	if err := a.env.Store.Ping(r.Context()); err != nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "store": err.Error()})
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) breakers(w http.ResponseWriter, _ *http.Request) {
	out := make(map[string]string)
	for name, st := range a.env.Breakers.States() {
		out[name] = st.String()
	}
	writeJSONStatus(w, http.StatusOK, out)
}

func (a *api) listCandidates(w http.ResponseWriter, r *http.Request) {
	b, err := a.env.loadBuild(r.Context(), chi.URLParam(r, "jobID"), "", model.ChannelConfig{})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]any{
		"job":           b.Job,
		"candidates":    b.Set.List(),
		"contact_ready": b.Set.ContactReadyCount(),
	})
}

func (a *api) importContacts(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "read import body"))
		return
	}
	b, err := a.env.loadBuild(r.Context(), chi.URLParam(r, "jobID"), "", model.ChannelConfig{})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.env.importContacts(r.Context(), b, string(body))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, res)
}

func (a *api) enrich(w http.ResponseWriter, r *http.Request) {
	b, err := a.env.loadBuild(r.Context(), chi.URLParam(r, "jobID"), "", model.ChannelConfig{})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.env.enrich(r.Context(), b)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, res)
}

type manualEntryRequest struct {
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

func (a *api) manualEntry(w http.ResponseWriter, r *http.Request) {
	var req manualEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
		return
	}
	b, err := a.env.loadBuild(r.Context(), chi.URLParam(r, "jobID"), "", model.ChannelConfig{})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.env.manualEntry(r.Context(), b, chi.URLParam(r, "candidateID"), req.Email, req.Mobile)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, c)
}

type campaignRequest struct {
	CampaignName string              `json:"campaign_name"`
	Channels     model.ChannelConfig `json:"channels"`
}

func (a *api) decodeCampaign(w http.ResponseWriter, r *http.Request) (*build, bool) {
	var req campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
		return nil, false
	}
	b, err := a.env.loadBuild(r.Context(), chi.URLParam(r, "jobID"), req.CampaignName, req.Channels)
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	return b, true
}

func (a *api) check(w http.ResponseWriter, r *http.Request) {
	b, ok := a.decodeCampaign(w, r)
	if !ok {
		return
	}
	report := a.env.check(r.Context(), b, nil)
	writeJSONStatus(w, http.StatusOK, map[string]any{
		"ready":  report.Ready(),
		"report": report,
	})
}

func (a *api) launch(w http.ResponseWriter, r *http.Request) {
	b, ok := a.decodeCampaign(w, r)
	if !ok {
		return
	}
	out, report, err := a.env.launch(r.Context(), b, nil)
	if err != nil {
		var pre *launch.PreconditionError
		if errors.As(err, &pre) {
			writeJSONStatus(w, http.StatusConflict, map[string]any{
				"error":  err.Error(),
				"unmet":  pre.Unmet,
				"report": report,
			})
			return
		}
		a.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, out)
}

func (a *api) session(w http.ResponseWriter, r *http.Request) {
	st, err := a.env.Sessions.Load(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, st)
}
