package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"koboldd/internal/manager"
	"koboldd/pkg/types"
)

// apiVersions are the KoboldAI route prefixes. Trailing slashes on the routes
// below are significant.
var apiVersions = []string{"/api/latest", "/api/v1", "/api"}

// Service defines the generation methods required by the HTTP API layer.
type Service interface {
	Generate(ctx context.Context, req types.GenerateRequest) (string, error)
	Status() types.StatusResponse
	Ready() bool
}

// KoboldConfig backs the KoboldAI model and config endpoints.
type KoboldConfig interface {
	ModelAnnounce() string
	MaxLength() int
	MaxContextLength() int
	SoftPrompt() string
	SoftPrompts() ([]string, error)
	SetMaxLength(n int) error
	SetMaxContextLength(n int) error
	SetSoftPrompt(name string) error
}

func NewMux(svc Service, kc KoboldConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(MetricsMiddleware(r))
	r.Use(middleware.Recoverer)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeKoboldError(w, http.StatusNotFound, msgNotFound, errTypeNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeKoboldError(w, http.StatusMethodNotAllowed, msgNotAllowed, errTypeValidation)
	})

	h := &handlers{svc: svc, kc: kc}
	for _, v := range apiVersions {
		r.Post(v+"/generate/", h.generate)
		r.Get(v+"/model/", h.getModel)
		r.Put(v+"/model/", h.putModel)
		r.Get(v+"/config/max_context_length/", h.getMaxContextLength)
		r.Put(v+"/config/max_context_length/", h.putMaxContextLength)
		r.Get(v+"/config/max_length/", h.getMaxLength)
		r.Put(v+"/config/max_length/", h.putMaxLength)
		r.Get(v+"/config/soft_prompt/", h.getSoftPrompt)
		r.Put(v+"/config/soft_prompt/", h.putSoftPrompt)
		r.Get(v+"/config/soft_prompts_list/", h.getSoftPromptsList)
		r.Get(v+"/info/version/", h.getVersion)
	}

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("runner or model missing"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

type handlers struct {
	svc Service
	kc  KoboldConfig
}

// @Summary      Generate text
// @Description  Runs one generation. Only one runs at a time; overlapping requests get 503.
// @Tags         generate
// @Accept       json
// @Produce      json
// @Param        body  body      types.GenerateRequest  true  "Generation request"
// @Success      200   {object}  types.GenerateResponse
// @Failure      400   {object}  types.ErrorResponse
// @Failure      500   {object}  types.ErrorResponse
// @Failure      503   {object}  types.ErrorResponse
// @Router       /api/v1/generate/ [post]
func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if status, msg, ok := decodeJSON(w, r, &req); !ok {
		writeKoboldError(w, status, msg, errTypeValidation)
		return
	}

	start := time.Now()
	lvl := requestLogLevel(r)
	logGenerateStart(r, lvl, len(req.Prompt))

	ctx, cancel := generationContext(r)
	defer cancel()
	text, err := h.svc.Generate(ctx, req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case manager.IsBusy(err):
			status = http.StatusServiceUnavailable
			IncrementBackpressure("busy")
			writeKoboldError(w, status, msgBusy, errTypeUnavailable)
		case manager.IsTimeout(err):
			writeKoboldError(w, status, msgTimeout, errTypeServer)
		default:
			writeKoboldError(w, status, msgGenerate, errTypeServer)
		}
		logGenerateEnd(r, lvl, status, start, err)
		return
	}
	writeJSON(w, http.StatusOK, types.GenerateResponse{Results: []types.GenerateResult{{Text: text}}})
	logGenerateEnd(r, lvl, http.StatusOK, start, nil)
}

// decodeJSON enforces the JSON content type and body limit and decodes into v.
// On failure it returns the status and client message to send.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) (int, string, bool) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return http.StatusUnsupportedMediaType, msgNotJSON, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return http.StatusRequestEntityTooLarge, msgTooLarge, false
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return http.StatusBadRequest, "Invalid value for field " + typeErr.Field + ".", false
		}
		return http.StatusBadRequest, msgBadJSON, false
	}
	return 0, "", true
}

// @Summary  Announced model name
// @Tags     model
// @Produce  json
// @Success  200  {object}  types.ResultResponse
// @Router   /api/v1/model/ [get]
func (h *handlers) getModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.ResultResponse{Result: h.kc.ModelAnnounce()})
}

// putModel accepts model switches from clients and ignores them; the runner
// model is fixed by configuration.
func (h *handlers) putModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *handlers) getMaxContextLength(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.IntValueResponse{Value: h.kc.MaxContextLength()})
}

func (h *handlers) putMaxContextLength(w http.ResponseWriter, r *http.Request) {
	h.putIntConfig(w, r, h.kc.SetMaxContextLength)
}

func (h *handlers) getMaxLength(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.IntValueResponse{Value: h.kc.MaxLength()})
}

func (h *handlers) putMaxLength(w http.ResponseWriter, r *http.Request) {
	h.putIntConfig(w, r, h.kc.SetMaxLength)
}

func (h *handlers) getSoftPrompt(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.StringValueResponse{Value: h.kc.SoftPrompt()})
}

func (h *handlers) putSoftPrompt(w http.ResponseWriter, r *http.Request) {
	if !allowConfigWrites {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	var body types.StringValueResponse
	if status, msg, ok := decodeJSON(w, r, &body); !ok {
		writeKoboldError(w, status, msg, errTypeValidation)
		return
	}
	if err := h.kc.SetSoftPrompt(body.Value); err != nil {
		writeKoboldError(w, http.StatusBadRequest, err.Error(), errTypeValidation)
		return
	}
	zlog.Info().Str("soft_prompt", body.Value).Msg("config updated")
	writeJSON(w, http.StatusOK, struct{}{})
}

// putIntConfig handles PUT for integer config values.
func (h *handlers) putIntConfig(w http.ResponseWriter, r *http.Request, set func(int) error) {
	if !allowConfigWrites {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	var body types.IntValueResponse
	if status, msg, ok := decodeJSON(w, r, &body); !ok {
		writeKoboldError(w, status, msg, errTypeValidation)
		return
	}
	if err := set(body.Value); err != nil {
		writeKoboldError(w, http.StatusBadRequest, err.Error(), errTypeValidation)
		return
	}
	zlog.Info().Str("path", r.URL.Path).Int("value", body.Value).Msg("config updated")
	writeJSON(w, http.StatusOK, struct{}{})
}

// @Summary  Available soft prompts
// @Tags     config
// @Produce  json
// @Success  200  {object}  types.ValuesResponse
// @Router   /api/v1/config/soft_prompts_list/ [get]
func (h *handlers) getSoftPromptsList(w http.ResponseWriter, r *http.Request) {
	values, err := h.kc.SoftPrompts()
	if err != nil {
		zlog.Warn().Err(err).Msg("soft prompt scan failed")
	}
	if values == nil {
		values = []string{}
	}
	writeJSON(w, http.StatusOK, types.ValuesResponse{Values: values})
}

func (h *handlers) getVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.ResultResponse{Result: "1.0"})
}
