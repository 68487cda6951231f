package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ShameelMohamed/FASHN8/internal/logging"
	"github.com/ShameelMohamed/FASHN8/internal/services"
	"github.com/ShameelMohamed/FASHN8/types"
	"github.com/go-chi/chi/v5"
)

const messageNoLook = "No dress detected in the image."

// ShopHandler serves look search and retailer links.
type ShopHandler struct {
	shopService *services.ShopService
	log         logging.Logger
}

func NewShopHandler(shopService *services.ShopService, log logging.Logger) *ShopHandler {
	return &ShopHandler{shopService: shopService, log: log}
}

// ShopRouter registers shopping routes. Link generation is public.
func ShopRouter(
	r chi.Router,
	shopService *services.ShopService,
	log logging.Logger,
	authMiddleware func(http.Handler) http.Handler,
	limiter *RateLimiter,
) {
	handler := NewShopHandler(shopService, log)

	r.Get("/links", handler.Links)
	r.With(authMiddleware, limiter.Middleware).Post("/search", handler.Search)
}

// Search turns an inspiration photo into retailer searches.
func (h *ShopHandler) Search(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(w, r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	image, err := readImageFile(r, formFieldImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	search, err := h.shopService.Search(r.Context(), image.Data)
	if err != nil {
		if errors.Is(err, services.ErrNoLookFound) {
			writeJSON(w, http.StatusOK, SearchResponse{
				LookSearch: types.LookSearch{Links: []types.RetailerLink{}},
				Message:    messageNoLook,
			})
			return
		}
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{LookSearch: search})
}

// Links builds retailer links for the q query parameter.
func (h *ShopHandler) Links(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	writeJSON(w, http.StatusOK, types.LookSearch{Query: query, Links: services.Links(query)})
}

type SearchResponse struct {
	types.LookSearch
	Message string `json:"message,omitempty"`
}
