package handlers

import (
	"net/http"

	"github.com/ShameelMohamed/FASHN8/internal/logging"
	"github.com/ShameelMohamed/FASHN8/internal/services"
	"github.com/ShameelMohamed/FASHN8/types"
	"github.com/go-chi/chi/v5"
)

const (
	formFieldImage  = "image"
	formFieldLabels = "labels"

	messageNoGarments = "No garments detected."
)

// WardrobeHandler serves the garment pipeline and wardrobe listings.
type WardrobeHandler struct {
	wardrobeService *services.WardrobeService
	log             logging.Logger
}

func NewWardrobeHandler(wardrobeService *services.WardrobeService, log logging.Logger) *WardrobeHandler {
	return &WardrobeHandler{wardrobeService: wardrobeService, log: log}
}

// WardrobeRouter registers wardrobe routes. Every route requires auth; the
// upload routes are additionally rate limited.
func WardrobeRouter(
	r chi.Router,
	wardrobeService *services.WardrobeService,
	log logging.Logger,
	authMiddleware func(http.Handler) http.Handler,
	limiter *RateLimiter,
) {
	handler := NewWardrobeHandler(wardrobeService, log)

	r.Use(authMiddleware)
	r.Get("/", handler.GetWardrobe)
	r.Get("/{category}", handler.ListCategory)
	r.With(limiter.Middleware).Post("/detect", handler.Detect)
	r.With(limiter.Middleware).Post("/garments", handler.SaveGarments)
}

// GetWardrobe returns both wardrobes of the current user.
func (h *WardrobeHandler) GetWardrobe(w http.ResponseWriter, r *http.Request) {
	username, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	view, err := h.wardrobeService.Wardrobe(r.Context(), username)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ListCategory returns the garments of one category.
func (h *WardrobeHandler) ListCategory(w http.ResponseWriter, r *http.Request) {
	username, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	category, err := types.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}

	items, err := h.wardrobeService.Items(r.Context(), username, category)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ItemsResponse{Category: category, Items: items})
}

// Detect previews the garments of an uploaded photo.
func (h *WardrobeHandler) Detect(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(w, r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	image, err := readImageFile(r, formFieldImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	garments, err := h.wardrobeService.Detect(r.Context(), image.Data)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	resp := DetectResponse{Garments: garments}
	if len(garments) == 0 {
		resp.Message = messageNoGarments
	}
	writeJSON(w, http.StatusOK, resp)
}

// SaveGarments stores every garment of an uploaded photo. When a later
// garment fails, the error response still lists the garments already stored.
func (h *WardrobeHandler) SaveGarments(w http.ResponseWriter, r *http.Request) {
	username, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := parseUploadForm(w, r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	image, err := readImageFile(r, formFieldImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.wardrobeService.Save(r.Context(), username, image.Data, r.MultipartForm.Value[formFieldLabels])
	if err != nil {
		if len(items) == 0 {
			writeServiceError(w, r, h.log, err)
			return
		}
		// Garments saved before the failure stay in the wardrobe.
		status, message := serviceError(err)
		logServiceError(r, h.log, status, err)
		writeJSON(w, status, SaveResponse{Items: items, Error: message})
		return
	}

	if len(items) == 0 {
		writeJSON(w, http.StatusOK, SaveResponse{Items: items, Message: messageNoGarments})
		return
	}
	writeJSON(w, http.StatusCreated, SaveResponse{Items: items})
}

type ItemsResponse struct {
	Category types.Category       `json:"category"`
	Items    []types.WardrobeItem `json:"items"`
}

type DetectResponse struct {
	Garments []types.DetectedGarment `json:"garments"`
	Message  string                  `json:"message,omitempty"`
}

type SaveResponse struct {
	Items   []types.WardrobeItem `json:"items"`
	Message string               `json:"message,omitempty"`
	Error   string               `json:"error,omitempty"`
}
