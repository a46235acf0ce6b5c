// Package mockserver is an in-memory stand-in for the storefront chat backend.
// It implements every endpoint the transport client consumes, for local
// development and integration tests against a real HTTP boundary.
package mockserver

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-client/internal/mapper"
	"chat-client/internal/models"
)

// Server holds the in-memory backend state.
type Server struct {
	mu       sync.Mutex
	users    map[string]models.CurrentUser
	chats    map[string]*models.Chat
	messages map[string][]models.Message // per chat, ascending by CreatedAt
	previews map[string]*models.ReservationPreview
	engine   *gin.Engine
}

// New builds a Server with empty state.
func New() *Server {
	s := &Server{
		users:    make(map[string]models.CurrentUser),
		chats:    make(map[string]*models.Chat),
		messages: make(map[string][]models.Message),
		previews: make(map[string]*models.ReservationPreview),
	}

	router := gin.New()
	router.Use(gin.Recovery())

	authorized := router.Group("/api", s.authMiddleware())
	authorized.GET("/auth/me", s.me)
	authorized.GET("/chats", s.listChats)
	authorized.POST("/chats", s.createOrGetChat)
	authorized.GET("/chats/:id", s.getChat)
	authorized.DELETE("/chats/:id", s.deleteChat)
	authorized.PATCH("/chats/:id/meta", s.updateChatMeta)
	authorized.POST("/chats/:id/read", s.markRead)
	authorized.GET("/chats/:id/messages", s.listMessages)
	authorized.POST("/chats/:id/messages", s.sendMessage)
	authorized.GET("/reservations/by-chat/:chatId", s.previewByChat)

	s.engine = router
	return s
}

// Handler exposes the server as an http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Token returns the bearer token that authenticates as the given seeded user.
func (s *Server) Token(userID string) string { return userID }

// SeedUser registers a user the auth middleware will accept.
func (s *Server) SeedUser(user models.CurrentUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// SeedChat inserts a chat record, assigning id and timestamps when missing.
func (s *Server) SeedChat(chat models.Chat) models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chat.ID == "" {
		chat.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = now
	}
	if chat.UpdatedAt.IsZero() {
		chat.UpdatedAt = now
	}
	s.chats[chat.ID] = &chat
	return chat
}

// SeedMessage appends a message to its chat, keeping ascending order.
func (s *Server) SeedMessage(msg models.Message) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.nextTimestampLocked(msg.ChatID)
	}
	if msg.State == "" {
		msg.State = models.MessageStateSent
	}
	list := append(s.messages[msg.ChatID], msg)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	s.messages[msg.ChatID] = list

	if chat, ok := s.chats[msg.ChatID]; ok {
		last := list[len(list)-1]
		chat.LastMessage = &models.LastMessage{Text: last.Text, Type: last.Type, SenderID: last.SenderID, At: last.CreatedAt}
		if last.CreatedAt.After(chat.UpdatedAt) {
			chat.UpdatedAt = last.CreatedAt
		}
	}
	return msg
}

// SeedPreview links a reservation preview to a chat.
func (s *Server) SeedPreview(chatID string, p models.ReservationPreview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previews[chatID] = &p
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		s.mu.Lock()
		user, ok := s.users[parts[1]]
		s.mu.Unlock()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

func currentUser(c *gin.Context) models.CurrentUser {
	return c.MustGet("user").(models.CurrentUser)
}

func (s *Server) me(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "name": user.Name, "role": user.Role})
}

func (s *Server) listChats(c *gin.Context) {
	user := currentUser(c)

	s.mu.Lock()
	var list []models.Chat
	for _, chat := range s.chats {
		if mapper.IsParticipant(*chat, user.ID) {
			list = append(list, *chat)
		}
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": list})
}

func (s *Server) createOrGetChat(c *gin.Context) {
	var req struct {
		CustomerID    string `json:"customerId" binding:"required"`
		AdminID       string `json:"adminId" binding:"required"`
		ReservationID string `json:"reservationId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CustomerID == req.AdminID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chat := range s.chats {
		if chat.CustomerID == req.CustomerID && chat.AdminID == req.AdminID {
			c.JSON(http.StatusOK, gin.H{"ok": true, "data": chat})
			return
		}
	}

	now := time.Now().UTC()
	chat := &models.Chat{
		ID:            uuid.NewString(),
		CustomerID:    req.CustomerID,
		AdminID:       req.AdminID,
		ReservationID: req.ReservationID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.chats[chat.ID] = chat
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": chat})
}

func (s *Server) getChat(c *gin.Context) {
	s.mu.Lock()
	chat, ok := s.chats[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": chat})
}

func (s *Server) deleteChat(c *gin.Context) {
	user := currentUser(c)
	chatID := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}
	if !mapper.IsParticipant(*chat, user.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	delete(s.chats, chatID)
	delete(s.messages, chatID)
	delete(s.previews, chatID)
	c.Status(http.StatusNoContent)
}

func (s *Server) updateChatMeta(c *gin.Context) {
	var req struct {
		Meta map[string]any `json:"meta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}
	if chat.Meta == nil {
		chat.Meta = make(map[string]any)
	}
	for k, v := range req.Meta {
		chat.Meta[k] = v
	}
	chat.UpdatedAt = time.Now().UTC()
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": chat})
}

func (s *Server) markRead(c *gin.Context) {
	var req struct {
		ReaderUserID string `json:"readerUserId"`
	}
	_ = c.ShouldBindJSON(&req)
	reader := req.ReaderUserID
	if reader == "" {
		reader = currentUser(c).ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}
	switch reader {
	case chat.CustomerID:
		chat.UnreadByCustomer = 0
	case chat.AdminID:
		chat.UnreadByAdmin = 0
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) listMessages(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if err != nil || limit <= 0 {
		limit = 30
	}
	if limit > 100 {
		limit = 100
	}
	before := c.Query("before")

	s.mu.Lock()
	list := s.messages[c.Param("id")]
	end := len(list)
	if before != "" {
		for i, m := range list {
			if m.ID == before {
				end = i
				break
			}
		}
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	page := make([]models.Message, end-start)
	copy(page, list[start:end])
	s.mu.Unlock()

	// newest first, the way the real backend pages
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) sendMessage(c *gin.Context) {
	user := currentUser(c)
	chatID := c.Param("id")

	var req struct {
		Type string `json:"type" binding:"required"`
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == "text" && strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}
	if !mapper.IsParticipant(*chat, user.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	msg := models.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		SenderID:  user.ID,
		Type:      req.Type,
		Text:      req.Text,
		State:     models.MessageStateSent,
		CreatedAt: s.nextTimestampLocked(chatID),
	}
	s.messages[chatID] = append(s.messages[chatID], msg)

	chat.LastMessage = &models.LastMessage{
		Text:     msg.Text,
		Type:     msg.Type,
		SenderID: msg.SenderID,
		At:       msg.CreatedAt,
	}
	chat.UpdatedAt = msg.CreatedAt
	if user.ID == chat.CustomerID {
		chat.UnreadByAdmin++
	} else {
		chat.UnreadByCustomer++
	}

	c.JSON(http.StatusCreated, msg)
}

func (s *Server) previewByChat(c *gin.Context) {
	s.mu.Lock()
	p := s.previews[c.Param("chatId")]
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": p})
}

// nextTimestampLocked keeps per-chat timestamps strictly increasing so message
// order is stable even for sends inside the same clock tick.
func (s *Server) nextTimestampLocked(chatID string) time.Time {
	now := time.Now().UTC()
	list := s.messages[chatID]
	if len(list) > 0 {
		if last := list[len(list)-1].CreatedAt; !now.After(last) {
			now = last.Add(time.Millisecond)
		}
	}
	return now
}
