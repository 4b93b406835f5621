package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pawpal/adoption_backend/apperrors"
	"github.com/pawpal/adoption_backend/models"
	"github.com/pawpal/adoption_backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAdoptionRequest_Validation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	notifier := newFakeNotifier()
	push := &fakeDispatcher{}
	svc := services.NewAdoptionService(db, notifier, push)

	owner := createUser(t, db, "owner", "")
	requester := createUser(t, db, "requester", "")
	pet := createPet(t, db, "Rex", owner.ID)

	_, err := svc.Create(ctx, requester.ID, pet.ID, "   ")
	assert.Equal(t, apperrors.CodeInvalidArgument, apperrors.CodeOf(err))

	_, err = svc.Create(ctx, requester.ID, 9999, "please")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	_, err = svc.Create(ctx, owner.ID, pet.ID, "my own pet")
	assert.Equal(t, apperrors.CodeInvalidArgument, apperrors.CodeOf(err))

	require.NoError(t, db.Model(&models.Pet{}).Where("id = ?", pet.ID).Update("is_adopted", true).Error)
	_, err = svc.Create(ctx, requester.ID, pet.ID, "too late")
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestCreateAdoptionRequest_NotifiesOnlineOwner(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	push := &fakeDispatcher{}

	owner := createUser(t, db, "owner", "ExponentPushToken[owner]")
	requester := createUser(t, db, "requester", "")
	pet := createPet(t, db, "Rex", owner.ID)

	notifier := newFakeNotifier(owner.ID)
	svc := services.NewAdoptionService(db, notifier, push)

	request, err := svc.Create(ctx, requester.ID, pet.ID, "I have a big garden")
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, request.Status)

	events := notifier.eventsFor(owner.ID)
	require.Len(t, events, 1)
	assert.Equal(t, "newAdoptionRequest", events[0].Event)

	payload, ok := events[0].Payload.(services.NewRequestEvent)
	require.True(t, ok)
	assert.Equal(t, request.ID, payload.RequestDetails.ID)
	assert.Equal(t, pet.ID, payload.Pet.ID)
	assert.Equal(t, requester.ID, payload.Requester.ID)

	// owner is online, so no push
	assert.Empty(t, push.records())
}

func TestCreateAdoptionRequest_PushWhenOwnerOffline(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	push := &fakeDispatcher{}
	notifier := newFakeNotifier()
	svc := services.NewAdoptionService(db, notifier, push)

	owner := createUser(t, db, "owner", "ExponentPushToken[owner]")
	requester := createUser(t, db, "requester", "")
	pet := createPet(t, db, "Rex", owner.ID)

	_, err := svc.Create(ctx, requester.ID, pet.ID, "I have a big garden")
	require.NoError(t, err)

	// the push is dispatched off the request path
	require.Eventually(t, func() bool { return len(push.records()) == 1 },
		2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "ExponentPushToken[owner]", push.records()[0].Token)
}

func TestResolve_AcceptTransfersOwnership(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	notifier := newFakeNotifier()
	svc := services.NewAdoptionService(db, notifier, &fakeDispatcher{})

	owner := createUser(t, db, "owner", "")
	requester := createUser(t, db, "requester", "")
	pet := createPet(t, db, "Rex", owner.ID)

	request, err := svc.Create(ctx, requester.ID, pet.ID, "please")
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, owner.ID, request.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.RequestAccepted, resolved.Status)

	var got models.Pet
	require.NoError(t, db.First(&got, pet.ID).Error)
	assert.True(t, got.IsAdopted)
	assert.Equal(t, requester.ID, got.OwnerID)

	var gotRequest models.AdoptionRequest
	require.NoError(t, db.First(&gotRequest, request.ID).Error)
	assert.Equal(t, models.RequestAccepted, gotRequest.Status)
}

func TestResolve_AcceptCascadesRejection(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	notifier := newFakeNotifier()
	svc := services.NewAdoptionService(db, notifier, &fakeDispatcher{})

	owner := createUser(t, db, "owner", "")
	r1 := createUser(t, db, "first", "")
	r2 := createUser(t, db, "second", "")
	pet := createPet(t, db, "Rex", owner.ID)

	req1, err := svc.Create(ctx, r1.ID, pet.ID, "me first")
	require.NoError(t, err)
	req2, err := svc.Create(ctx, r2.ID, pet.ID, "me too")
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, owner.ID, req1.ID, true)
	require.NoError(t, err)

	var gotReq2 models.AdoptionRequest
	require.NoError(t, db.First(&gotReq2, req2.ID).Error)
	assert.Equal(t, models.RequestRejected, gotReq2.Status)

	var got models.Pet
	require.NoError(t, db.First(&got, pet.ID).Error)
	assert.Equal(t, r1.ID, got.OwnerID)

	// no orphaned pending requests survive a successful accept
	var pending int64
	db.Model(&models.AdoptionRequest{}).Where("pet_id = ? AND status = ?", pet.ID, models.RequestPending).Count(&pending)
	assert.Zero(t, pending)

	// both requesters are told the outcome
	winner := notifier.eventsFor(r1.ID)
	require.Len(t, winner, 1)
	assert.Equal(t, "adoptionRequestResolved", winner[0].Event)
	assert.True(t, winner[0].Payload.(services.ResolvedEvent).Accepted)

	loser := notifier.eventsFor(r2.ID)
	require.Len(t, loser, 1)
	assert.False(t, loser[0].Payload.(services.ResolvedEvent).Accepted)
}

func TestResolve_RejectLeavesPetAndCompetitors(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	notifier := newFakeNotifier()
	svc := services.NewAdoptionService(db, notifier, &fakeDispatcher{})

	owner := createUser(t, db, "owner", "")
	r1 := createUser(t, db, "first", "")
	r2 := createUser(t, db, "second", "")
	pet := createPet(t, db, "Rex", owner.ID)

	req1, err := svc.Create(ctx, r1.ID, pet.ID, "me first")
	require.NoError(t, err)
	req2, err := svc.Create(ctx, r2.ID, pet.ID, "me too")
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, owner.ID, req1.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, resolved.Status)

	var got models.Pet
	require.NoError(t, db.First(&got, pet.ID).Error)
	assert.False(t, got.IsAdopted)
	assert.Equal(t, owner.ID, got.OwnerID)

	var gotReq2 models.AdoptionRequest
	require.NoError(t, db.First(&gotReq2, req2.ID).Error)
	assert.Equal(t, models.RequestPending, gotReq2.Status)
}

func TestResolve_AuthorizationAndErrorCodes(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := services.NewAdoptionService(db, newFakeNotifier(), &fakeDispatcher{})

	owner := createUser(t, db, "owner", "")
	requester := createUser(t, db, "requester", "")
	stranger := createUser(t, db, "stranger", "")
	pet := createPet(t, db, "Rex", owner.ID)

	request, err := svc.Create(ctx, requester.ID, pet.ID, "please")
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, stranger.ID, request.ID, true)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))

	_, err = svc.Resolve(ctx, owner.ID, 9999, true)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	// resolving twice: the request exists but is no longer pending
	_, err = svc.Resolve(ctx, owner.ID, request.ID, false)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, owner.ID, request.ID, true)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestResolve_ConcurrentAcceptSingleWinner(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := services.NewAdoptionService(db, newFakeNotifier(), &fakeDispatcher{})

	owner := createUser(t, db, "owner", "")
	r1 := createUser(t, db, "first", "")
	r2 := createUser(t, db, "second", "")
	pet := createPet(t, db, "Rex", owner.ID)

	req1, err := svc.Create(ctx, r1.ID, pet.ID, "me first")
	require.NoError(t, err)
	req2, err := svc.Create(ctx, r2.ID, pet.ID, "me too")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uint{req1.ID, req2.ID} {
		wg.Add(1)
		go func(i int, requestID uint) {
			defer wg.Done()
			_, errs[i] = svc.Resolve(ctx, owner.ID, requestID, true)
		}(i, id)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			// the loser's request was cascade-rejected or the pet was taken
			assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
		}
	}
	assert.Equal(t, 1, succeeded)

	// at most one request for the pet is ever accepted
	var accepted int64
	db.Model(&models.AdoptionRequest{}).Where("pet_id = ? AND status = ?", pet.ID, models.RequestAccepted).Count(&accepted)
	assert.EqualValues(t, 1, accepted)

	var got models.Pet
	require.NoError(t, db.First(&got, pet.ID).Error)
	assert.True(t, got.IsAdopted)
	assert.Contains(t, []uint{r1.ID, r2.ID}, got.OwnerID)
}

func TestResolve_ConcurrentSameRequestOneConflict(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := services.NewAdoptionService(db, newFakeNotifier(), &fakeDispatcher{})

	owner := createUser(t, db, "owner", "")
	requester := createUser(t, db, "requester", "")
	pet := createPet(t, db, "Rex", owner.ID)

	request, err := svc.Create(ctx, requester.ID, pet.ID, "please")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Resolve(ctx, owner.ID, request.ID, true)
		}(i)
	}
	wg.Wait()

	succeeded, conflicts := 0, 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err)) {
			conflicts++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicts)

	var gotRequest models.AdoptionRequest
	require.NoError(t, db.First(&gotRequest, request.ID).Error)
	assert.Equal(t, models.RequestAccepted, gotRequest.Status)

	var got models.Pet
	require.NoError(t, db.First(&got, pet.ID).Error)
	assert.True(t, got.IsAdopted)
	assert.Equal(t, requester.ID, got.OwnerID)
}

func TestAdoptDirect(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := services.NewAdoptionService(db, newFakeNotifier(), &fakeDispatcher{})

	owner := createUser(t, db, "owner", "")
	newOwner := createUser(t, db, "adopter", "")
	other := createUser(t, db, "other", "")
	pet := createPet(t, db, "Rex", owner.ID)

	_, err := svc.AdoptDirect(ctx, other.ID, pet.ID, newOwner.ID)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))

	got, err := svc.AdoptDirect(ctx, owner.ID, pet.ID, newOwner.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdopted)
	assert.Equal(t, newOwner.ID, got.OwnerID)

	// repeat with the same target owner is an idempotent no-op
	got, err = svc.AdoptDirect(ctx, owner.ID, pet.ID, newOwner.ID)
	require.NoError(t, err)
	assert.Equal(t, newOwner.ID, got.OwnerID)

	// a different target owner is a conflict
	_, err = svc.AdoptDirect(ctx, owner.ID, pet.ID, other.ID)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestPendingForOwner(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := services.NewAdoptionService(db, newFakeNotifier(), &fakeDispatcher{})

	owner := createUser(t, db, "owner", "")
	otherOwner := createUser(t, db, "other-owner", "")
	requester := createUser(t, db, "requester", "")
	pet := createPet(t, db, "Rex", owner.ID)
	otherPet := createPet(t, db, "Luna", otherOwner.ID)

	mine, err := svc.Create(ctx, requester.ID, pet.ID, "please")
	require.NoError(t, err)
	_, err = svc.Create(ctx, requester.ID, otherPet.ID, "also please")
	require.NoError(t, err)

	requests, err := svc.PendingForOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, mine.ID, requests[0].ID)
	assert.Equal(t, pet.ID, requests[0].Pet.ID)
	assert.Equal(t, requester.ID, requests[0].User.ID)

	// resolved requests drop out of the feed
	_, err = svc.Resolve(ctx, owner.ID, mine.ID, false)
	require.NoError(t, err)
	requests, err = svc.PendingForOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, requests)
}
