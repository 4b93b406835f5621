package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/pawpal/adoption_backend/apperrors"
	"github.com/pawpal/adoption_backend/models"
	"github.com/pawpal/adoption_backend/notifications"
	"gorm.io/gorm"
)

// MessageService persists direct messages and relays them to the receiver's
// room. The sender's acknowledgement depends on persistence only; live
// delivery and the push fallback never fail the send.
type MessageService struct {
	db       *gorm.DB
	notifier Notifier
	push     notifications.Dispatcher
}

func NewMessageService(db *gorm.DB, notifier Notifier, push notifications.Dispatcher) *MessageService {
	return &MessageService{db: db, notifier: notifier, push: push}
}

// Send validates, persists and relays a direct message. The returned message
// carries the authoritative id and timestamp for client reconciliation.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID uint, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.InvalidArg("message content is required")
	}
	if senderID == receiverID {
		return nil, apperrors.InvalidArg("cannot send a message to yourself")
	}

	var sender models.User
	if err := s.db.WithContext(ctx).First(&sender, senderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("sender not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load sender", err)
	}

	var receiver models.User
	if err := s.db.WithContext(ctx).First(&receiver, receiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("receiver not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load receiver", err)
	}

	message := models.Message{
		Content:    content,
		SenderID:   senderID,
		ReceiverID: receiverID,
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to save message", err)
	}

	if !s.notifier.EmitToUser(receiverID, "receiveMessage", message) {
		// The sender's ack rides on persistence; the provider round-trip
		// must not hold it up.
		go func() {
			if err := s.push.Send(context.Background(), receiver.NotificationToken, sender.Name, content,
				map[string]interface{}{"senderId": senderID}); err != nil {
				log.Printf("error sending push notification to user %d: %v", receiverID, err)
			}
		}()
	}

	return &message, nil
}

// Conversation returns every message between the two users ordered by
// creation time ascending. Day-bucketing for display happens on the client.
func (s *MessageService) Conversation(ctx context.Context, userA, userB uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to fetch messages", err)
	}
	return messages, nil
}
