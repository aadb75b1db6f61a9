package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/Moderator/internal/app/orch"
	"github.com/dkeye/Moderator/internal/core"
	"github.com/dkeye/Moderator/internal/domain"
	"github.com/gin-gonic/gin"
)

type roomHandlers struct {
	orch *orch.Orchestrator
}

type createRoomRequest struct {
	Name     string `json:"name" binding:"required"`
	Passcode string `json:"passcode" binding:"required"`
}

type joinRoomRequest struct {
	Passcode string `json:"passcode" binding:"required"`
}

func sessionOf(c *gin.Context) core.SessionID {
	return core.SessionID(c.GetString(tokenKey))
}

func (h *roomHandlers) create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and passcode required"})
		return
	}
	info, err := h.orch.CreateRoom(sessionOf(c), domain.RoomName(req.Name), req.Passcode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"roomId": info.ID, "name": info.Name})
}

func (h *roomHandlers) join(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passcode required"})
		return
	}
	id := domain.RoomID(c.Param("id"))
	if err := h.orch.JoinAsSupervisor(sessionOf(c), id, req.Passcode); err != nil {
		c.JSON(statusOf(err), gin.H{"error": string(domain.ReasonOf(err))})
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": id})
}

func (h *roomHandlers) info(c *gin.Context) {
	info, err := h.orch.RoomInfo(domain.RoomID(c.Param("id")))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": string(domain.ReasonOf(err))})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *roomHandlers) paragraphs(c *gin.Context) {
	entries, err := h.orch.Paragraphs(c.Request.Context(), sessionOf(c), domain.RoomID(c.Param("id")))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"paragraphs": entries})
}

func (h *roomHandlers) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.ListRooms()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, orch.ErrHistoryDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
