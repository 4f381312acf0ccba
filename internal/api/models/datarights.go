package models

// Validation limits for data rights submissions.
const (
	MaxReasonLength      = 500
	MaxDescriptionLength = 2000
	MaxCorrectionFields  = 50
)

// dataCategories is the closed set of data categories a request may name.
var dataCategories = map[string]bool{
	"profile":       true,
	"identity":      true,
	"verifications": true,
	"credentials":   true,
	"reputation":    true,
	"consents":      true,
	"staking":       true,
	"activity":      true,
	"pii":           true,
}

// grievanceCategories is the closed set of grievance classifications.
var grievanceCategories = map[string]bool{
	"data_breach":       true,
	"consent_violation": true,
	"processing_error":  true,
	"delay":             true,
	"other":             true,
}

// AccessRequestCreate is the request body for creating an access request.
type AccessRequestCreate struct {
	// Categories limits the access request to named categories.
	// Empty means all categories.
	Categories []string `json:"categories,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}

// Validate checks the access request body.
func (in *AccessRequestCreate) Validate() []FieldError {
	var errs []FieldError
	errs = append(errs, validateCategories(in.Categories)...)
	errs = append(errs, validateReason(in.Reason, false)...)
	return errs
}

// ErasureRequestCreate is the request body for creating an erasure request.
type ErasureRequestCreate struct {
	// Scope is "full" or "partial". Partial requires a non-empty category list.
	Scope      string   `json:"scope"`
	Categories []string `json:"categories,omitempty"`
	Reason     string   `json:"reason"`
}

// Validate checks the erasure request body. A partial scope with no
// categories is rejected: the policy requires the data principal to name
// what should be erased.
func (in *ErasureRequestCreate) Validate() []FieldError {
	var errs []FieldError

	switch in.Scope {
	case "full", "partial":
	case "":
		errs = append(errs, FieldError{Field: "scope", Message: "is required"})
	default:
		errs = append(errs, FieldError{Field: "scope", Message: "must be one of: full, partial"})
	}

	if in.Scope == "partial" && len(in.Categories) == 0 {
		errs = append(errs, FieldError{Field: "categories", Message: "must be non-empty when scope is partial"})
	}

	errs = append(errs, validateCategories(in.Categories)...)
	errs = append(errs, validateReason(in.Reason, true)...)
	return errs
}

// PortabilityRequestCreate is the request body for creating a portability request.
type PortabilityRequestCreate struct {
	// Format is the export serialization: json, csv, or xml.
	Format     string   `json:"format"`
	Categories []string `json:"categories,omitempty"`
}

// Validate checks the portability request body.
func (in *PortabilityRequestCreate) Validate() []FieldError {
	var errs []FieldError

	switch in.Format {
	case "json", "csv", "xml":
	case "":
		errs = append(errs, FieldError{Field: "format", Message: "is required"})
	default:
		errs = append(errs, FieldError{Field: "format", Message: "must be one of: json, csv, xml"})
	}

	errs = append(errs, validateCategories(in.Categories)...)
	return errs
}

// CorrectionRequestCreate is the request body for creating a correction request.
type CorrectionRequestCreate struct {
	// Corrections maps field names to their corrected values.
	Corrections map[string]string `json:"corrections"`
	Reason      string            `json:"reason,omitempty"`
}

// Validate checks the correction request body.
func (in *CorrectionRequestCreate) Validate() []FieldError {
	var errs []FieldError

	if len(in.Corrections) == 0 {
		errs = append(errs, FieldError{Field: "corrections", Message: "is required"})
	}
	if len(in.Corrections) > MaxCorrectionFields {
		errs = append(errs, FieldError{Field: "corrections", Message: "too many fields"})
	}
	for field := range in.Corrections {
		if field == "" {
			errs = append(errs, FieldError{Field: "corrections", Message: "field names must be non-empty"})
			break
		}
	}

	errs = append(errs, validateReason(in.Reason, false)...)
	return errs
}

// GrievanceCreate is the request body for submitting a grievance.
type GrievanceCreate struct {
	Category         string  `json:"category"`
	Description      string  `json:"description"`
	RelatedRequestID *string `json:"relatedRequestId,omitempty"`
}

// Validate checks the grievance body.
func (in *GrievanceCreate) Validate() []FieldError {
	var errs []FieldError

	switch {
	case in.Category == "":
		errs = append(errs, FieldError{Field: "category", Message: "is required"})
	case !grievanceCategories[in.Category]:
		errs = append(errs, FieldError{Field: "category", Message: "must be one of: data_breach, consent_violation, processing_error, delay, other"})
	}

	switch {
	case in.Description == "":
		errs = append(errs, FieldError{Field: "description", Message: "is required"})
	case len(in.Description) > MaxDescriptionLength:
		errs = append(errs, FieldError{Field: "description", Message: "must be at most 2000 characters"})
	}

	return errs
}

// RejectRequestInput is the officer request body for rejecting a request.
type RejectRequestInput struct {
	Reason string `json:"reason"`
}

// Validate checks the rejection body.
func (in *RejectRequestInput) Validate() []FieldError {
	var errs []FieldError
	if in.Reason == "" {
		errs = append(errs, FieldError{Field: "reason", Message: "is required"})
	}
	errs = append(errs, validateReason(in.Reason, false)...)
	return errs
}

// DataRightsRequest is the API representation of a data rights request.
type DataRightsRequest struct {
	ID               string            `json:"id"`
	Type             string            `json:"type"`
	Status           string            `json:"status"`
	Categories       []string          `json:"categories,omitempty"`
	Scope            string            `json:"scope,omitempty"`
	Format           string            `json:"format,omitempty"`
	Category         string            `json:"category,omitempty"`
	Description      string            `json:"description,omitempty"`
	RelatedRequestID *string           `json:"relatedRequestId,omitempty"`
	Reason           string            `json:"reason,omitempty"`
	SubmittedAt      Timestamp         `json:"submittedAt"`
	Deadline         Timestamp         `json:"deadline"`
	CompletedAt      *Timestamp        `json:"completedAt,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// PagedDataRightsRequests is a paginated list of data rights requests.
type PagedDataRightsRequests struct {
	Items []DataRightsRequest `json:"items"`
	Meta  PagedResponseMeta   `json:"meta"`
}

// StatusAuditEntry is the API representation of a status transition.
type StatusAuditEntry struct {
	ID             string    `json:"id"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Actor          string    `json:"actor"`
	Reason         string    `json:"reason,omitempty"`
	At             Timestamp `json:"at"`
}

func validateCategories(categories []string) []FieldError {
	var errs []FieldError
	for _, c := range categories {
		if !dataCategories[c] {
			errs = append(errs, FieldError{Field: "categories", Message: "unknown category: " + c})
		}
	}
	return errs
}

func validateReason(reason string, required bool) []FieldError {
	var errs []FieldError
	if required && reason == "" {
		errs = append(errs, FieldError{Field: "reason", Message: "is required"})
	}
	if len(reason) > MaxReasonLength {
		errs = append(errs, FieldError{Field: "reason", Message: "must be at most 500 characters"})
	}
	return errs
}
