package handler

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"aihouse/internal/model"
	"aihouse/internal/service"
)

// ChatHandler handles conversational endpoints
type ChatHandler struct {
	orchestrator *service.ChatOrchestrator
	aiEnabled    bool
}

// NewChatHandler creates a new chat handler
func NewChatHandler(orchestrator *service.ChatOrchestrator, aiEnabled bool) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator, aiEnabled: aiEnabled}
}

// Text handles POST /api/chat/text
func (h *ChatHandler) Text(c *gin.Context) {
	var turn model.ChatTurn
	if err := c.ShouldBindJSON(&turn); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	reply, err := h.orchestrator.HandleTurn(c.Request.Context(), &turn)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chat failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, reply)
}

// TextStream handles POST /api/chat/text/stream - SSE streaming chat
func (h *ChatHandler) TextStream(c *gin.Context) {
	var turn model.ChatTurn
	if err := c.ShouldBindJSON(&turn); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	setSSEHeaders(c)
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	sendSSE(c, "start", nil)
	flusher.Flush()

	err := h.orchestrator.HandleTurnStream(c.Request.Context(), &turn, func(event service.StreamEvent) error {
		sendSSE(c, event.Type, event)
		flusher.Flush()
		return nil
	})
	if err != nil {
		sendSSE(c, "error", map[string]any{"error": err.Error()})
		flusher.Flush()
		return
	}

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// Image handles POST /api/chat/image - multipart image plus question
func (h *ChatHandler) Image(c *gin.Context) {
	question := c.PostForm("question")
	if question == "" {
		question = "请分析这张图片"
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing image file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read image: " + err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read image: " + err.Error()})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))

	reply, err := h.orchestrator.HandleImageTurn(c.Request.Context(), question, dataURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Image analysis failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, reply)
}

// ExecuteQuery handles POST /api/chat/query/execute - runs a confirmed
// intent directly, without the confirmation keyword round trip.
func (h *ChatHandler) ExecuteQuery(c *gin.Context) {
	var req model.QueryExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	execution := h.orchestrator.ExecuteConfirmedQuery(c.Request.Context(), &req.Intent, req.OriginalQuery)
	c.JSON(http.StatusOK, execution)
}

// ExecuteQueryStream handles POST /api/chat/query/execute/stream
func (h *ChatHandler) ExecuteQueryStream(c *gin.Context) {
	var req model.QueryExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	setSSEHeaders(c)
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	sendSSE(c, "start", nil)
	flusher.Flush()

	err := h.orchestrator.ExecuteConfirmedQueryStream(c.Request.Context(), &req.Intent, req.OriginalQuery, func(event service.StreamEvent) error {
		sendSSE(c, event.Type, event)
		flusher.Flush()
		return nil
	})
	if err != nil {
		sendSSE(c, "error", map[string]any{"error": err.Error()})
		flusher.Flush()
		return
	}

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// Status handles GET /api/chat/status
func (h *ChatHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ai_enabled": h.aiEnabled})
}

func setSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data == nil {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
		return
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, jsonData)
}
