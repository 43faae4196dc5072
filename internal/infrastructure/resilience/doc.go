/*
Package resilience provides a circuit breaker for calls to the code source.

# States

  - Closed: calls pass through and failures are counted
  - Open: calls fail immediately with ErrCircuitOpen
  - Half-Open: a limited number of trial calls decide whether to close again

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           v
	                                         Open

# Usage

	breaker := resilience.New("completer", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
	})

	text, err := resilience.Do(breaker, func() (string, error) {
		return completer.Complete(ctx, prompt)
	})
*/
package resilience
