package services

import "context"

// persistentContext keeps the values of ctx but not its cancellation, for work
// that must finish once a transaction has committed.
func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
