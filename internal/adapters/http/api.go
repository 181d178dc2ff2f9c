package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/omnisight/backend/internal/app"
	"github.com/omnisight/backend/internal/domain"
	"github.com/omnisight/backend/internal/storage"
)

const historyLimit = 20

// APIController serves the read-facing and persistence surfaces. Room state
// always comes straight from the registry; the controller never caches it.
type APIController struct {
	Rooms *app.Registry
	Store *storage.Store
}

func NewAPIController(rooms *app.Registry, store *storage.Store) *APIController {
	return &APIController{Rooms: rooms, Store: store}
}

// GetActiveRooms returns the live registry snapshot.
func (ctl *APIController) GetActiveRooms(c *gin.Context) {
	rooms := ctl.Rooms.ListActive()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(rooms),
		"data":    rooms,
	})
}

// GetSessionHistory returns the most recent persisted session logs.
func (ctl *APIController) GetSessionHistory(c *gin.Context) {
	history, err := ctl.Store.ListRecent(historyLimit)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("failed to fetch history")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(history),
		"data":    history,
	})
}

// SaveSessionLog persists a completed session summary.
func (ctl *APIController) SaveSessionLog(c *gin.Context) {
	var entry domain.SessionLog
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}
	if err := entry.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Missing required fields: taskType and summary",
		})
		return
	}
	entry.Timestamp = time.Now().UTC().Format(time.RFC3339)

	log.Info().Str("module", "adapters.http").Str("task", entry.TaskType).Msg("saving session log")
	saved, err := ctl.Store.Append(entry)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("failed to save log")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": saved})
}
