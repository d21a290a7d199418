package records

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"institute-service/internal/apperrors"
	"institute-service/internal/httputil"
	"institute-service/internal/schema"

	"github.com/go-chi/chi/v5"
	"github.com/go-viper/mapstructure/v2"
)

type Handler struct {
	records *Records
	logger  *slog.Logger
}

func NewHandler(records *Records, logger *slog.Logger) *Handler {
	return &Handler{
		records: records,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/{entity}", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/resolve", h.Resolve)
		r.Get("/{id}", h.Read)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Get("/{id}/label", h.Label)
	})
}

type CreatedResponse struct {
	ID int64 `json:"id"`
}

type LabelResponse struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	t, ok := h.entity(w, r)
	if !ok {
		return
	}
	attrs, ok := h.attributes(w, r)
	if !ok {
		return
	}

	id, err := h.records.CreateEntity(r.Context(), t, attrs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	t, ok := h.entity(w, r)
	if !ok {
		return
	}

	opts, err := listOptions(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views, err := h.records.ListEntities(r.Context(), t, opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, views)
}

func (h *Handler) Read(w http.ResponseWriter, r *http.Request) {
	t, ok := h.entity(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r, t)
	if !ok {
		return
	}

	view, err := h.records.ReadEntity(r.Context(), t, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, view)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	t, ok := h.entity(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r, t)
	if !ok {
		return
	}
	attrs, ok := h.attributes(w, r)
	if !ok {
		return
	}

	if err := h.records.UpdateEntity(r.Context(), t, id, attrs); err != nil {
		h.fail(w, r, err)
		return
	}

	view, err := h.records.ReadEntity(r.Context(), t, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, view)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	t, ok := h.entity(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r, t)
	if !ok {
		return
	}

	report, err := h.records.DeleteEntity(r.Context(), t, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, report)
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	t, ok := h.entity(w, r)
	if !ok {
		return
	}
	label := r.URL.Query().Get("label")

	id, err := h.records.ResolveLabel(r.Context(), t, label)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, LabelResponse{ID: id, Label: label})
}

func (h *Handler) Label(w http.ResponseWriter, r *http.Request) {
	t, ok := h.entity(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r, t)
	if !ok {
		return
	}

	label, err := h.records.LabelOf(r.Context(), t, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, LabelResponse{ID: id, Label: label})
}

func (h *Handler) entity(w http.ResponseWriter, r *http.Request) (schema.EntityType, bool) {
	t, err := schema.ParseEntityType(chi.URLParam(r, "entity"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusNotFound, "unknown entity")
		return "", false
	}
	return t, true
}

func (h *Handler) id(w http.ResponseWriter, r *http.Request, t schema.EntityType) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.fail(w, r, apperrors.Validation(string(t), "id", "must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (h *Handler) attributes(w http.ResponseWriter, r *http.Request) (Attributes, bool) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var attrs Attributes
	if err := dec.Decode(&attrs); err != nil || attrs == nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return attrs, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if httputil.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	} else {
		h.logger.InfoContext(r.Context(), "request rejected", "path", r.URL.Path, "error", err)
	}
	httputil.RespondWithAppError(w, err)
}

// listOptions decodes query parameters such as ?order_by=name&desc=true.
func listOptions(r *http.Request) (ListOptions, error) {
	raw := map[string]any{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			raw[key] = values[0]
		}
	}

	var opts ListOptions
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return opts, err
	}
	if err := dec.Decode(raw); err != nil {
		return opts, apperrors.Validation("", "query", "%v", err)
	}
	return opts, nil
}
