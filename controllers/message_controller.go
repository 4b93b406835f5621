package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pawpal/adoption_backend/apperrors"
	"github.com/pawpal/adoption_backend/services"
)

type MessageController struct {
	messages *services.MessageService
}

func NewMessageController(messages *services.MessageService) *MessageController {
	return &MessageController{messages: messages}
}

type SendMessageInput struct {
	ReceiverID uint   `json:"receiverId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

// GetConversation godoc
// @Summary Get the message history with another user
// @Description Returns all messages between the authenticated user and the given user, ordered by creation time ascending
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param receiverId path int true "Other user ID"
// @Success 200 {array} models.Message
// @Failure 400 {object} map[string]string "Invalid user ID"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/messages/{receiverId} [get]
func (mc *MessageController) GetConversation(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	receiverID, err := strconv.ParseUint(c.Param("receiverId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	messages, err := mc.messages.Conversation(c.Request.Context(), userID, uint(receiverID))
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// SendMessage godoc
// @Summary Send a direct message
// @Description Persists a message and relays it to the receiver. The response carries the authoritative message for reconciliation.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param message body SendMessageInput true "Message"
// @Success 201 {object} map[string]interface{} "Message sent successfully"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Receiver not found"
// @Router /api/messages [post]
func (mc *MessageController) SendMessage(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := mc.messages.Send(c.Request.Context(), userID, input.ReceiverID, input.Content)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message sent successfully",
		"data":    message,
	})
}
