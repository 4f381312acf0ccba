package models

// Consents represents the user's consent states per processing purpose.
// Essential processing is implied and cannot be withdrawn via this surface;
// a full erasure request is the withdrawal path for it.
type Consents struct {
	Analytics            bool      `json:"analytics"`
	Marketing            bool      `json:"marketing"`
	VerificationSharing  bool      `json:"verificationSharing"`
	ReputationVisibility bool      `json:"reputationVisibility"`
	UpdatedAt            Timestamp `json:"updatedAt"`
}

// ConsentsInput is the request body for updating consents. Only fields
// present in the body are changed.
type ConsentsInput struct {
	Analytics            *bool `json:"analytics,omitempty"`
	Marketing            *bool `json:"marketing,omitempty"`
	VerificationSharing  *bool `json:"verificationSharing,omitempty"`
	ReputationVisibility *bool `json:"reputationVisibility,omitempty"`
}
