// Package publisher defines the change-notification contract used
// after an update run detects catalog changes.
package publisher

import "context"

// Publisher pushes a notification payload to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}
