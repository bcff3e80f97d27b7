package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/tg-sentinel/app/config"
	"github.com/lysyi3m/tg-sentinel/app/database"
	"github.com/lysyi3m/tg-sentinel/app/message"
)

func NewHandler(unitRepo database.UnitRepository, trackingRepo database.TrackingRepository,
	configCache *config.Cache) *Handler {
	return &Handler{
		unitRepo:     unitRepo,
		trackingRepo: trackingRepo,
		configCache:  configCache,
	}
}

// ReloadConfigs re-reads the channel configuration directory. The scheduler
// picks up the refreshed set on its next tick.
func (h *Handler) ReloadConfigs(c *gin.Context) {
	if err := h.configCache.Run(); err != nil {
		slog.Error("Error reloading configurations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configurations",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"channels": h.configCache.GetConfigCount(),
	})
}

// CreateMessage stores a content unit. A unit whose key is already known is
// silently kept as is, storing is idempotent.
func (h *Handler) CreateMessage(c *gin.Context) {
	var payload UnitPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message payload", "details": err.Error()})
		return
	}

	if payload.OwnerID == "" || payload.ChannelID == "" || payload.UnitKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, channel_id and unit_key are required"})
		return
	}

	unit, err := fromUnitPayload(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timestamp", "details": err.Error()})
		return
	}

	if err := h.unitRepo.InsertUnit(unit); err != nil {
		slog.Error("Database error", "operation", "insert_unit", "unit", unit.UnitKey, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "unit_key": unit.UnitKey})
}

// GetMessages returns the most recent units of a channel regardless of status.
func (h *Handler) GetMessages(c *gin.Context) {
	units, err := h.unitRepo.GetRecent(c.Param("user"), c.Param("channel"), queryLimit(c, 100))
	if err != nil {
		slog.Error("Database error", "operation", "get_recent", "channel", c.Param("channel"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	payloads := make([]UnitPayload, len(units))
	for i, unit := range units {
		payloads[i] = toUnitPayload(unit)
	}

	c.JSON(http.StatusOK, gin.H{"messages": payloads, "total": len(payloads)})
}

// GetUpdateStatus returns unit key to recorded edit signature for the
// channel's recent units, the input of an edit scan.
func (h *Handler) GetUpdateStatus(c *gin.Context) {
	state, err := h.unitRepo.GetEditState(c.Param("user"), c.Param("channel"), queryLimit(c, 100))
	if err != nil {
		slog.Error("Database error", "operation", "get_edit_state", "channel", c.Param("channel"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": state, "total": len(state)})
}

// ApplyUpdates refreshes the content of edited units and re-queues them for
// scoring.
func (h *Handler) ApplyUpdates(c *gin.Context) {
	var requests []ApplyUpdateRequest
	if err := c.ShouldBindJSON(&requests); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid updates payload", "details": err.Error()})
		return
	}

	applied := 0
	for _, req := range requests {
		update := message.EditUpdate{
			UnitKey:        req.UnitKey,
			GroupID:        req.GroupID,
			Text:           req.Text,
			RawAnnotations: req.Entities,
			EditSignature:  req.EditSignature,
		}

		if req.EditedAt != "" {
			editedAt, err := time.Parse(time.RFC3339, req.EditedAt)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timestamp", "details": err.Error()})
				return
			}
			update.EditedAt = &editedAt
		}

		if err := h.unitRepo.ApplyEdit(c.Param("user"), c.Param("channel"), update); err != nil {
			slog.Error("Database error", "operation", "apply_edit", "unit", req.UnitKey, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		applied++
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "applied": applied})
}

// GetProcessing returns units awaiting scoring, oldest first.
func (h *Handler) GetProcessing(c *gin.Context) {
	units, err := h.unitRepo.GetPending(c.Param("user"), c.Param("channel"), queryLimit(c, 10))
	if err != nil {
		slog.Error("Database error", "operation", "get_pending", "channel", c.Param("channel"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	payloads := make([]UnitPayload, len(units))
	for i, unit := range units {
		payloads[i] = toUnitPayload(unit)
	}

	c.JSON(http.StatusOK, gin.H{"messages": payloads, "total": len(payloads)})
}

// MarkFiltered finalizes a pending unit for the current edit generation.
func (h *Handler) MarkFiltered(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter payload", "details": err.Error()})
		return
	}

	matched, err := h.unitRepo.MarkFiltered(c.Param("user"), c.Param("channel"), req.UnitKey)
	if err != nil {
		slog.Error("Database error", "operation", "mark_filtered", "unit", req.UnitKey, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !matched {
		c.JSON(http.StatusNotFound, gin.H{"error": "No pending unit with this key"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "unit_key": req.UnitKey})
}

// CreateTracking records the published counterpart of a unit.
func (h *Handler) CreateTracking(c *gin.Context) {
	var req TrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tracking payload", "details": err.Error()})
		return
	}

	err := h.trackingRepo.CreateLink(c.Param("user"), c.Param("channel"), req.UnitKey, req.TargetChannelID, req.TargetIDs)
	if err != nil {
		slog.Error("Database error", "operation", "create_link", "unit", req.UnitKey, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "unit_key": req.UnitKey})
}

// CheckTracking reports whether a unit has a published counterpart.
func (h *Handler) CheckTracking(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tracking payload", "details": err.Error()})
		return
	}

	link, err := h.trackingRepo.LookupLink(c.Param("user"), c.Param("channel"), req.UnitKey)
	if err != nil {
		slog.Error("Database error", "operation", "lookup_link", "unit", req.UnitKey, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if link == nil {
		c.JSON(http.StatusOK, gin.H{"exists": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"exists":            true,
		"target_channel_id": link.TargetChannelID,
		"target_ids":        link.TargetIDs,
		"created_at":        link.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if stats, err := h.unitRepo.GetStats(); err == nil {
		health["units"] = stats.Total
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.unitRepo.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"units": gin.H{
			"total":    stats.Total,
			"new":      stats.New,
			"edited":   stats.Edited,
			"filtered": stats.Filtered,
		},
		"tracking_links": stats.Links,
		"channels":       h.configCache.GetConfigCount(),
	})
}

func queryLimit(c *gin.Context, fallback int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(fallback)))
	if err != nil || limit < 1 {
		return fallback
	}
	return limit
}
