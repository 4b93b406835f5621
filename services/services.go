package services

// Notifier delivers a realtime event to every live connection in a user's
// room. The boolean result reports whether anyone was there to receive it;
// callers fall back to push-notification dispatch when it is false.
type Notifier interface {
	EmitToUser(userID uint, event string, payload interface{}) bool
}

// NopNotifier is used when the realtime layer is disabled (tests, tooling).
type NopNotifier struct{}

func (NopNotifier) EmitToUser(userID uint, event string, payload interface{}) bool { return false }
