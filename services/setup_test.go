package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pawpal/adoption_backend/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	// A pooled :memory: database is one database per connection; a single
	// connection keeps every query on the same database and serializes
	// concurrent transactions.
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(
		&models.User{}, &models.Pet{}, &models.AdoptionRequest{},
		&models.Message{}, &models.Comment{}, &models.Like{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

type emitted struct {
	UserID  uint
	Event   string
	Payload interface{}
}

// fakeNotifier records emissions and reports delivery based on which users
// are marked online.
type fakeNotifier struct {
	mu     sync.Mutex
	online map[uint]bool
	events []emitted
}

func newFakeNotifier(onlineUsers ...uint) *fakeNotifier {
	online := make(map[uint]bool)
	for _, id := range onlineUsers {
		online[id] = true
	}
	return &fakeNotifier{online: online}
}

func (f *fakeNotifier) EmitToUser(userID uint, event string, payload interface{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emitted{UserID: userID, Event: event, Payload: payload})
	return f.online[userID]
}

func (f *fakeNotifier) eventsFor(userID uint) []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emitted
	for _, e := range f.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

type pushRecord struct {
	Token string
	Title string
	Body  string
}

type fakeDispatcher struct {
	mu    sync.Mutex
	delay time.Duration
	sent  []pushRecord
}

func (f *fakeDispatcher) Send(ctx context.Context, token, title, body string, data map[string]interface{}) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, pushRecord{Token: token, Title: title, Body: body})
	return nil
}

func (f *fakeDispatcher) records() []pushRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pushRecord(nil), f.sent...)
}

func createUser(t *testing.T, db *gorm.DB, name, token string) models.User {
	t.Helper()
	user := models.User{Name: name, Email: name + "@example.com", Password: "secret123", NotificationToken: token}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func createPet(t *testing.T, db *gorm.DB, name string, ownerID uint) models.Pet {
	t.Helper()
	pet := models.Pet{Name: name, Breed: "mixed", Age: 2, Size: "medium", OwnerID: ownerID}
	if err := db.Create(&pet).Error; err != nil {
		t.Fatalf("failed to create pet: %v", err)
	}
	return pet
}
