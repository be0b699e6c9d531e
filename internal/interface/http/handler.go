package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/kisanmitra/internal/domain/crops"
	"github.com/yanqian/kisanmitra/internal/domain/gateway"
	"github.com/yanqian/kisanmitra/internal/domain/language"
	"github.com/yanqian/kisanmitra/internal/domain/plantid"
	"github.com/yanqian/kisanmitra/internal/domain/profile"
	"github.com/yanqian/kisanmitra/internal/domain/upstream"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	gatewaySvc gateway.Service
	plantSvc   plantid.Service
	cropSvc    crops.Service
	profileSvc profile.Service
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(gatewaySvc gateway.Service, plantSvc plantid.Service, cropSvc crops.Service, profileSvc profile.Service, logger *slog.Logger) *Handler {
	return &Handler{
		gatewaySvc: gatewaySvc,
		plantSvc:   plantSvc,
		cropSvc:    cropSvc,
		profileSvc: profileSvc,
		logger:     logger.With("component", "http.handler"),
	}
}

// Chat answers farming questions and photo diagnoses.
func (h *Handler) Chat(c *gin.Context) {
	var req gateway.Request
	if !bindJSON(c, &req) {
		return
	}
	req.UserID = currentUserID(c)

	resp, err := h.gatewaySvc.Handle(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// IdentifyPlant runs species and disease identification on a photo.
func (h *Handler) IdentifyPlant(c *gin.Context) {
	var req plantid.Request
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.plantSvc.Identify(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Languages lists the supported reply languages.
func (h *Handler) Languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": language.All()})
}

// Crops lists crops with recommendation tables.
func (h *Handler) Crops(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"crops": h.cropSvc.List(c.Request.Context())})
}

// CropRecommendations returns pest control and fertilizer guidance for one crop.
func (h *Handler) CropRecommendations(c *gin.Context) {
	resp, err := h.cropSvc.Recommend(c.Request.Context(), c.Param("crop"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetProfile returns the signed-in farmer's profile.
func (h *Handler) GetProfile(c *gin.Context) {
	resp, err := h.profileSvc.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateProfile saves the signed-in farmer's profile. PUT is a full
// replacement; clients send every field they want to keep.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profile.UpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.profileSvc.Update(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if httpErr := asHTTPError(err); httpErr.Status == http.StatusRequestEntityTooLarge {
			abortWithError(c, httpErr)
			return false
		}
		abortWithError(c, NewHTTPError(http.StatusBadRequest, upstream.CodeInvalidInput, "Invalid request body.", err))
		return false
	}
	return true
}
