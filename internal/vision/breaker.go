package vision

import (
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/blackmichael/spotreport/internal/domain"
	"github.com/blackmichael/spotreport/internal/metrics"
)

// errAbandoned marks a call whose caller cancelled before the API answered.
var errAbandoned = errors.New("classifier call abandoned")

// newBreaker opens after five consecutive unavailable errors and probes
// again after 30s. Replies that arrive but cannot be parsed count as
// successes: the service is reachable. Abandoned calls are not counted.
func newBreaker(name string, logger *slog.Logger) *gobreaker.CircuitBreaker[string] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, domain.ErrClassifierUnavailable)
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, errAbandoned)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
