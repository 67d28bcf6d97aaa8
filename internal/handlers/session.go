package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mindloop/learncoach-backend/internal/services"
)

type SessionHandler struct {
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (sh *SessionHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		ContentType     string  `json:"content_type" binding:"required,oneof=text url"`
		OriginalContent string  `json:"original_content" binding:"required"`
		Question        string  `json:"question" binding:"required"`
		UserAnswer      string  `json:"user_answer" binding:"required"`
		Feedback        string  `json:"feedback"`
		Score           float64 `json:"score" binding:"gte=0,lte=100"`
		Provider        string  `json:"provider"`
		Model           string  `json:"model"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	session, err := sh.sessionService.CreateSession(c.Request.Context(), userID, services.SessionInput{
		ContentType:     req.ContentType,
		OriginalContent: req.OriginalContent,
		Question:        req.Question,
		UserAnswer:      req.UserAnswer,
		Feedback:        req.Feedback,
		Score:           req.Score,
		Provider:        req.Provider,
		Model:           req.Model,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (sh *SessionHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page, limit := paginationParams(c)
	sessions, total, err := sh.sessionService.ListSessions(c.Request.Context(), userID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if limit < 1 {
		limit = 20
	}
	c.JSON(http.StatusOK, gin.H{
		"items":       sessions,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
	})
}

func (sh *SessionHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	session, err := sh.sessionService.GetSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}
