package system

import "context"

// Service is a lifecycle-managed component of the application.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
