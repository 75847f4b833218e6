package health

import "context"

// HealthPinger is implemented by components that can probe their
// backing dependency, such as the store's database or the search
// index. HealthPing returns nil when the dependency is reachable.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
