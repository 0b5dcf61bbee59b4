// Package result is the shared success/failure value returned by every player
// action. Expected refusals (no money, wrong level, unknown id) are results,
// not errors.
package result

import "fmt"

// Reason classifies why an action was refused.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonNotFound            Reason = "not_found"
	ReasonAlreadyOwned        Reason = "already_owned"
	ReasonNotOwned            Reason = "not_owned"
	ReasonLevelTooLow         Reason = "level_too_low"
	ReasonMissingPrerequisite Reason = "missing_prerequisite"
	ReasonInsufficientFunds   Reason = "insufficient_funds"
	ReasonNotReady            Reason = "not_ready"
	ReasonAlreadyAssigned     Reason = "already_assigned"
	ReasonInvalid             Reason = "invalid"
)

// Result reports the outcome of an action. Failures always carry a Reason and
// a player-facing Message; Cost is the price that was, or would have been, paid.
type Result struct {
	OK      bool    `json:"ok"`
	Reason  Reason  `json:"reason,omitempty"`
	Message string  `json:"message"`
	Cost    float64 `json:"cost"`
}

// Succeed builds a successful result.
func Succeed(cost float64, format string, args ...any) Result {
	return Result{OK: true, Message: fmt.Sprintf(format, args...), Cost: cost}
}

// Fail builds a refusal.
func Fail(reason Reason, cost float64, format string, args ...any) Result {
	return Result{Reason: reason, Message: fmt.Sprintf(format, args...), Cost: cost}
}
