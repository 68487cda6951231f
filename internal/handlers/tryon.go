package handlers

import (
	"net/http"

	"github.com/ShameelMohamed/FASHN8/internal/logging"
	"github.com/ShameelMohamed/FASHN8/internal/services"
	"github.com/go-chi/chi/v5"
)

const (
	formFieldBaseImage    = "base_image"
	formFieldGarmentImage = "garment_image"
	formFieldWorkflow     = "workflow"
)

// TryOnHandler serves virtual try-on.
type TryOnHandler struct {
	tryOnService *services.TryOnService
	log          logging.Logger
}

func NewTryOnHandler(tryOnService *services.TryOnService, log logging.Logger) *TryOnHandler {
	return &TryOnHandler{tryOnService: tryOnService, log: log}
}

// TryOnRouter registers the try-on route.
func TryOnRouter(
	r chi.Router,
	tryOnService *services.TryOnService,
	log logging.Logger,
	authMiddleware func(http.Handler) http.Handler,
	limiter *RateLimiter,
) {
	handler := NewTryOnHandler(tryOnService, log)
	r.With(authMiddleware, limiter.Middleware).Post("/", handler.TryOn)
}

// TryOn composites the garment image onto the base image.
func (h *TryOnHandler) TryOn(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(w, r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	base, err := readImageFile(r, formFieldBaseImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	garment, err := readImageFile(r, formFieldGarmentImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.tryOnService.TryOn(r.Context(), base, garment, r.FormValue(formFieldWorkflow))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
