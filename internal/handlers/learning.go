package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mindloop/learncoach-backend/internal/services"
)

type LearningHandler struct {
	learningService services.LearningService
}

func NewLearningHandler(learningService services.LearningService) *LearningHandler {
	return &LearningHandler{learningService: learningService}
}

func (lh *LearningHandler) GenerateQuestion(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	var req struct {
		Type     string `json:"type" binding:"required,oneof=text url"`
		Content  string `json:"content" binding:"required"`
		Provider string `json:"provider"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	question, err := lh.learningService.GenerateQuestion(c.Request.Context(), req.Type, req.Content, req.Provider)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, question)
}

func (lh *LearningHandler) EvaluateAnswer(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	var req struct {
		OriginalContent string `json:"original_content" binding:"required"`
		AnswerText      string `json:"answer_text" binding:"required"`
		Provider        string `json:"provider"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	evaluation, err := lh.learningService.EvaluateAnswer(c.Request.Context(), req.OriginalContent, req.AnswerText, req.Provider)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, evaluation)
}

func (lh *LearningHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": lh.learningService.Providers()})
}
