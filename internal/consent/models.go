// Package consent tracks the processing purposes a data principal has
// agreed to. Consents feed the consents data category and are reset to
// defaults when an erasure request covers them.
package consent

import "time"

// Consents holds the per-purpose consent flags for one data principal.
type Consents struct {
	UserID string

	// Analytics covers product analytics over usage data.
	Analytics bool

	// Marketing covers marketing communications.
	Marketing bool

	// VerificationSharing covers sharing verification outcomes with
	// relying parties.
	VerificationSharing bool

	// ReputationVisibility covers exposing the reputation score to
	// relying parties.
	ReputationVisibility bool

	UpdatedAt time.Time
}

// Defaults returns the consent state for a principal who has never set
// anything. Everything optional is off; reputation visibility is on because
// the score is the point of participating in the registry.
func Defaults(userID string) *Consents {
	return &Consents{
		UserID:               userID,
		ReputationVisibility: true,
	}
}
