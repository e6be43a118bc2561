package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openbites/bitefinder/internal/domain/geo"
	"github.com/openbites/bitefinder/internal/domain/hours"
	"github.com/openbites/bitefinder/internal/domain/places"
	"github.com/openbites/bitefinder/internal/domain/recommend"
	"github.com/openbites/bitefinder/internal/domain/venue"
)

const defaultPhotoWidthPx = 400

// Handler wires the HTTP transport to domain services.
type Handler struct {
	recommendSvc *recommend.Service
	placesSvc    *places.Service
	venues       venue.Repository
	dishes       venue.DishRepository
	dismissals   venue.DismissalRepository
	logger       *slog.Logger
	now          func() time.Time
}

// NewHandler constructs the root HTTP handler.
func NewHandler(recommendSvc *recommend.Service, placesSvc *places.Service, venues venue.Repository, dishes venue.DishRepository, dismissals venue.DismissalRepository, logger *slog.Logger) *Handler {
	return &Handler{
		recommendSvc: recommendSvc,
		placesSvc:    placesSvc,
		venues:       venues,
		dishes:       dishes,
		dismissals:   dismissals,
		logger:       logger.With("component", "http.handler"),
		now:          time.Now,
	}
}

type recommendRequest struct {
	Lat            float64              `json:"lat"`
	Lng            float64              `json:"lng"`
	UserID         string               `json:"userId"`
	Dietary        venue.DietaryFilters `json:"dietary"`
	MaxRadiusMiles float64              `json:"maxRadiusMiles"`
	Limit          int                  `json:"limit"`
}

func (r recommendRequest) query(now time.Time) recommend.Query {
	return recommend.Query{
		Center:         geo.Coordinates{Lat: r.Lat, Lng: r.Lng},
		Dietary:        r.Dietary,
		UserID:         r.UserID,
		MaxRadiusMiles: r.MaxRadiusMiles,
		Now:            now,
	}
}

// NearestOpen returns the closest open venue matching the caller's filters.
func (h *Handler) NearestOpen(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	result, err := h.recommendSvc.NearestOpen(c.Request.Context(), req.query(h.now()))
	if err != nil {
		status, code := statusForDomainError(err, "recommendation_failed")
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// Queue returns an ordered shortlist of open venues.
func (h *Handler) Queue(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if req.Limit <= 0 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be positive", nil))
		return
	}

	items, err := h.recommendSvc.Queue(c.Request.Context(), req.query(h.now()), req.Limit)
	if err != nil {
		status, code := statusForDomainError(err, "recommendation_failed")
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendations": items})
}

type venueCardResponse struct {
	Venue      venue.Venue `json:"venue"`
	HeroDish   *venue.Dish `json:"heroDish,omitempty"`
	Address    string      `json:"address"`
	PhotoURL   string      `json:"photoUrl,omitempty"`
	IsOpen     bool        `json:"isOpen"`
	TodayHours string      `json:"todayHours,omitempty"`
	CloseLabel string      `json:"closeLabel,omitempty"`
}

// VenueCard assembles the detail card for one venue: registry details, the
// hero dish, a photo URL, and the current open state.
func (h *Handler) VenueCard(c *gin.Context) {
	id := c.Param("id")

	v, found, err := h.venues.GetByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "venue_lookup_failed", errMessage(err), err))
		return
	}
	if !found {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "venue not found", nil))
		return
	}

	ref := places.PlaceRef{VenueID: v.ID, ExternalID: v.ExternalPlaceID}
	resp := venueCardResponse{Venue: v, Address: v.Address}

	if dishes, err := h.dishes.AcceptedByVenue(c.Request.Context(), v.ID); err == nil {
		resp.HeroDish = venue.HeroDish(dishes)
	} else {
		h.logger.Warn("dish lookup failed", "venue_id", v.ID, "error", err)
	}

	details, err := h.placesSvc.Details(c.Request.Context(), ref)
	if err != nil {
		status, code := statusForDomainError(err, "details_failed")
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}
	if details.Address != "" {
		resp.Address = details.Address
	}

	width := defaultPhotoWidthPx
	if v := c.Query("maxWidth"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			width = parsed
		}
	}
	if photoURL, err := h.placesSvc.PhotoURL(c.Request.Context(), ref, width); err == nil {
		resp.PhotoURL = photoURL
	} else {
		h.logger.Warn("photo resolve failed", "venue_id", v.ID, "error", err)
	}

	eval := hours.Evaluate(details.Periods, h.now())
	resp.IsOpen = eval.IsOpen
	resp.TodayHours = eval.TodayHours
	resp.CloseLabel = eval.CloseTimeLabel

	c.JSON(http.StatusOK, resp)
}

type dismissRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// DismissVenue permanently removes a venue from a user's rotation.
func (h *Handler) DismissVenue(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req dismissRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	if _, found, err := h.venues.GetByID(c.Request.Context(), id); err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "venue_lookup_failed", errMessage(err), err))
		return
	} else if !found {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "venue not found", nil))
		return
	}

	if err := h.dismissals.Dismiss(c.Request.Context(), req.UserID, id); err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "dismissal_failed", errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"dismissed": true})
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
