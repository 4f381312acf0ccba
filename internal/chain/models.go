// Package chain reads identity and reputation accounts from the registry
// ledger over JSON-RPC. Ledger data is append-only; erasure requests against
// chain-backed categories record a tombstone instead of rewriting history.
package chain

import "time"

// IdentityRecord is the decoded on-chain identity account.
type IdentityRecord struct {
	Authority          string
	DID                string
	VerificationBitmap uint64
	ReputationScore    uint64
	StakedAmount       uint64
	CreatedAt          time.Time
	LastUpdated        time.Time
	MetadataURI        string
	RecoveryKeys       []string
}

// ReputationRecord is the decoded on-chain reputation account.
type ReputationRecord struct {
	Identity           string
	Score              uint64
	LastUpdated        time.Time
	VerificationCount  uint64
	CredentialCount    uint64
	ActivityCount      uint64
	ChallengesReceived uint64
	ChallengesWon      uint64
}

// Verification bitmap bits. Bits are assigned per document type; a set bit
// means the document has been verified against the issuing authority.
const (
	BitAadhaar uint64 = 1 << iota
	BitPAN
	BitPassport
	BitDrivingLicence
	BitVoterID
)

var bitNames = []struct {
	bit  uint64
	name string
}{
	{BitAadhaar, "aadhaar"},
	{BitPAN, "pan"},
	{BitPassport, "passport"},
	{BitDrivingLicence, "driving_licence"},
	{BitVoterID, "voter_id"},
}

// VerifiedDocuments expands a verification bitmap into document names.
func VerifiedDocuments(bitmap uint64) []string {
	var docs []string
	for _, entry := range bitNames {
		if bitmap&entry.bit != 0 {
			docs = append(docs, entry.name)
		}
	}
	return docs
}
