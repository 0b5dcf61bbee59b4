package business

import "github.com/talgya/underworld/internal/result"

// Result is the outcome of a business action.
type Result = result.Result

// Reasons used by the business store.
const (
	ReasonNotFound            = result.ReasonNotFound
	ReasonAlreadyOwned        = result.ReasonAlreadyOwned
	ReasonNotOwned            = result.ReasonNotOwned
	ReasonLevelTooLow         = result.ReasonLevelTooLow
	ReasonMissingPrerequisite = result.ReasonMissingPrerequisite
	ReasonInsufficientFunds   = result.ReasonInsufficientFunds
	ReasonNotReady            = result.ReasonNotReady
)

var (
	succeed = result.Succeed
	fail    = result.Fail
)

// Ledger is the player's wallet and progression as seen by the store.
type Ledger interface {
	Level() int
	Cash() float64
	// Spend deducts amount and reports whether the funds were there.
	Spend(amount float64) bool
}
