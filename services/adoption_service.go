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

// AdoptionService owns the adoption-request lifecycle: creation, the
// transactional accept path (ownership transfer plus cascade-reject of
// competing requests) and the pending feed.
type AdoptionService struct {
	db       *gorm.DB
	notifier Notifier
	push     notifications.Dispatcher
}

func NewAdoptionService(db *gorm.DB, notifier Notifier, push notifications.Dispatcher) *AdoptionService {
	return &AdoptionService{db: db, notifier: notifier, push: push}
}

// NewRequestEvent is the payload of the newAdoptionRequest event sent to the
// pet owner's room. Field names match what the mobile client reads.
type NewRequestEvent struct {
	RequestDetails models.AdoptionRequest `json:"requestDetails"`
	Pet            models.Pet             `json:"pet"`
	Requester      models.User            `json:"requester"`
}

// ResolvedEvent notifies a requester that their request reached a terminal
// state. Accepted carries the authoritative outcome for reconciliation.
type ResolvedEvent struct {
	RequestID uint   `json:"requestId"`
	PetID     uint   `json:"petId"`
	PetName   string `json:"petName"`
	Accepted  bool   `json:"accepted"`
}

// Create validates and persists a new pending adoption request, then
// notifies the pet's owner in real time or by push if they are offline.
func (s *AdoptionService) Create(ctx context.Context, requesterID, petID uint, description string) (*models.AdoptionRequest, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperrors.InvalidArg("description is required")
	}

	var pet models.Pet
	if err := s.db.WithContext(ctx).First(&pet, petID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("pet not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load pet", err)
	}

	if pet.IsAdopted {
		return nil, apperrors.Conflict("pet is already adopted")
	}
	if pet.OwnerID == requesterID {
		return nil, apperrors.InvalidArg("cannot request adoption of your own pet")
	}

	var requester models.User
	if err := s.db.WithContext(ctx).First(&requester, requesterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("requester not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load requester", err)
	}

	request := models.AdoptionRequest{
		PetID:       petID,
		UserID:      requesterID,
		Description: description,
		Status:      models.RequestPending,
	}
	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create adoption request", err)
	}
	request.Pet = pet
	request.User = requester

	event := NewRequestEvent{RequestDetails: request, Pet: pet, Requester: requester}
	if !s.notifier.EmitToUser(pet.OwnerID, "newAdoptionRequest", event) {
		s.pushToUser(pet.OwnerID, "New adoption request",
			requester.Name+" wants to adopt "+pet.Name,
			map[string]interface{}{"requestId": request.ID, "petId": pet.ID})
	}

	return &request, nil
}

// Resolve moves a pending request to accepted or rejected. Only the pet's
// current owner may resolve. The accept path runs in a single transaction:
// ownership transfer, the winning transition and the cascade-reject of every
// other pending request for the same pet either all happen or none do.
// Concurrent resolves are serialized by conditional updates: the loser sees
// zero affected rows and gets a Conflict.
func (s *AdoptionService) Resolve(ctx context.Context, ownerID, requestID uint, accepted bool) (*models.AdoptionRequest, error) {
	var request models.AdoptionRequest
	if err := s.db.WithContext(ctx).Preload("Pet").Preload("User").First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("adoption request not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load adoption request", err)
	}
	// The request exists but already reached a terminal state: a concurrent
	// resolve lost the race, or the caller retried.
	if request.Status != models.RequestPending {
		return nil, apperrors.Conflict("adoption request was already resolved")
	}
	// A pending request whose pet was adopted mid-flight lost the race.
	if request.Pet.IsAdopted {
		return nil, apperrors.Conflict("pet is already adopted")
	}
	if request.Pet.OwnerID != ownerID {
		return nil, apperrors.Forbidden("only the pet's owner can resolve this request")
	}

	if !accepted {
		res := s.db.WithContext(ctx).Model(&models.AdoptionRequest{}).
			Where("id = ? AND status = ?", requestID, models.RequestPending).
			Update("status", models.RequestRejected)
		if res.Error != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to reject adoption request", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, apperrors.Conflict("adoption request was already resolved")
		}
		request.Status = models.RequestRejected
		s.notifyResolved(request.UserID, ResolvedEvent{
			RequestID: request.ID, PetID: request.PetID, PetName: request.Pet.Name, Accepted: false,
		})
		return &request, nil
	}

	var rejected []models.AdoptionRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Ownership transfer wins or loses atomically on the adoption flag.
		res := tx.Model(&models.Pet{}).
			Where("id = ? AND is_adopted = ?", request.PetID, false).
			Updates(map[string]interface{}{"owner_id": request.UserID, "is_adopted": true})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to mark pet as adopted", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("pet is already adopted")
		}

		res = tx.Model(&models.AdoptionRequest{}).
			Where("id = ? AND status = ?", requestID, models.RequestPending).
			Update("status", models.RequestAccepted)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to accept adoption request", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("adoption request was already resolved")
		}

		// Every other pending request for this pet loses in the same unit.
		if err := tx.Where("pet_id = ? AND status = ? AND id <> ?",
			request.PetID, models.RequestPending, requestID).
			Find(&rejected).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load competing requests", err)
		}
		if len(rejected) > 0 {
			if err := tx.Model(&models.AdoptionRequest{}).
				Where("pet_id = ? AND status = ? AND id <> ?",
					request.PetID, models.RequestPending, requestID).
				Update("status", models.RequestRejected).Error; err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, "failed to reject competing requests", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	request.Status = models.RequestAccepted
	s.notifyResolved(request.UserID, ResolvedEvent{
		RequestID: request.ID, PetID: request.PetID, PetName: request.Pet.Name, Accepted: true,
	})
	for _, r := range rejected {
		s.notifyResolved(r.UserID, ResolvedEvent{
			RequestID: r.ID, PetID: r.PetID, PetName: request.Pet.Name, Accepted: false,
		})
	}

	return &request, nil
}

// AdoptDirect transfers a pet to newOwnerID outside the request flow. This
// backs the PATCH /pets/setPetToAdopted endpoint the mobile client calls
// after a socket accept: when the socket accept already transferred the pet
// to the same owner the call is an idempotent no-op.
func (s *AdoptionService) AdoptDirect(ctx context.Context, callerID, petID, newOwnerID uint) (*models.Pet, error) {
	var pet models.Pet
	if err := s.db.WithContext(ctx).First(&pet, petID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("pet not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load pet", err)
	}

	if pet.IsAdopted {
		if pet.OwnerID == newOwnerID {
			return &pet, nil
		}
		return nil, apperrors.Conflict("pet is already adopted")
	}
	if pet.OwnerID != callerID {
		return nil, apperrors.Forbidden("only the pet's owner can mark it as adopted")
	}

	res := s.db.WithContext(ctx).Model(&models.Pet{}).
		Where("id = ? AND is_adopted = ?", petID, false).
		Updates(map[string]interface{}{"owner_id": newOwnerID, "is_adopted": true})
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to mark pet as adopted", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.Conflict("pet is already adopted")
	}

	pet.OwnerID = newOwnerID
	pet.IsAdopted = true
	return &pet, nil
}

// PendingForOwner returns every pending request targeting a pet owned by
// ownerID, with pet and requester details preloaded. This list is the single
// source of truth for the pending feed; the newAdoptionRequest event is only
// a transient nudge.
func (s *AdoptionService) PendingForOwner(ctx context.Context, ownerID uint) ([]models.AdoptionRequest, error) {
	var requests []models.AdoptionRequest
	err := s.db.WithContext(ctx).
		Joins("JOIN pets ON pets.id = adoption_requests.pet_id").
		Where("pets.owner_id = ? AND adoption_requests.status = ?", ownerID, models.RequestPending).
		Preload("Pet").Preload("User").
		Order("adoption_requests.created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to fetch pending requests", err)
	}
	return requests, nil
}

func (s *AdoptionService) notifyResolved(userID uint, event ResolvedEvent) {
	if s.notifier.EmitToUser(userID, "adoptionRequestResolved", event) {
		return
	}
	title := "Adoption request rejected"
	body := "Your request to adopt " + event.PetName + " was not accepted"
	if event.Accepted {
		title = "Adoption request accepted"
		body = event.PetName + " is now yours!"
	}
	s.pushToUser(userID, title, body, map[string]interface{}{"requestId": event.RequestID, "petId": event.PetID})
}

// pushToUser dispatches a push notification without blocking the caller;
// the triggering operation is acknowledged on persistence alone, so the
// provider round-trip runs detached from the request context.
func (s *AdoptionService) pushToUser(userID uint, title, body string, data map[string]interface{}) {
	go func() {
		ctx := context.Background()
		var user models.User
		if err := s.db.WithContext(ctx).Select("id", "notification_token").First(&user, userID).Error; err != nil {
			log.Printf("error loading user %d for push notification: %v", userID, err)
			return
		}
		if err := s.push.Send(ctx, user.NotificationToken, title, body, data); err != nil {
			log.Printf("error sending push notification to user %d: %v", userID, err)
		}
	}()
}
