//go:generate mockgen -source=contracts.go -destination=lifecycle_mocks_test.go -package=lifecycle_test

package lifecycle

import "context"

// Notifier delivers a message to a person by external contact id.
type Notifier interface {
	Notify(ctx context.Context, externalID, message string) error
}
