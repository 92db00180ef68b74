package ports

import "context"

// Notifier delivers a rendered report to one or more notification channels.
type Notifier interface {
	Push(ctx context.Context, title, content string) error
}
