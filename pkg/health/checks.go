package health

import (
	"context"
	"fmt"
)

// Pinger is anything with a connectivity probe, such as the Redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck reports a failing or missing optional dependency as degraded:
// the service keeps answering queries without it.
func PingCheck(p Pinger) Check {
	return func(ctx context.Context) ComponentHealth {
		if p == nil {
			return ComponentHealth{Status: StatusDegraded, Message: "not configured"}
		}
		if err := p.Ping(ctx); err != nil {
			return ComponentHealth{Status: StatusDegraded, Message: err.Error()}
		}
		return ComponentHealth{Status: StatusUp}
	}
}

// CorpusCheck is down until rows are loaded and degraded while some rows have
// no searchable text.
func CorpusCheck(counts func() (rows, degraded int)) Check {
	return func(ctx context.Context) ComponentHealth {
		rows, degraded := counts()
		switch {
		case rows == 0:
			return ComponentHealth{Status: StatusDown, Message: "reference corpus not loaded"}
		case degraded > 0:
			return ComponentHealth{
				Status:  StatusDegraded,
				Message: fmt.Sprintf("%d of %d rows have empty searchable text", degraded, rows),
			}
		default:
			return ComponentHealth{Status: StatusUp, Message: fmt.Sprintf("%d rows", rows)}
		}
	}
}
