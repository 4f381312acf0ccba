// Package datarights implements the data-subject-rights request workflow
// mandated by the DPDP framework: access, erasure, correction, portability,
// and grievance requests, each tracked against a statutory response deadline.
package datarights

import (
	"time"
)

// ResponseWindow is the statutory window for responding to a request.
// The DPDP rules give the data fiduciary 30 days from submission.
const ResponseWindow = 30 * 24 * time.Hour

// RequestType identifies which right the data principal is exercising.
type RequestType string

const (
	TypeAccess      RequestType = "ACCESS"
	TypeErasure     RequestType = "ERASURE"
	TypeCorrection  RequestType = "CORRECTION"
	TypePortability RequestType = "PORTABILITY"
	TypeGrievance   RequestType = "GRIEVANCE"
)

// RequestTypes lists every valid request type.
var RequestTypes = []RequestType{
	TypeAccess, TypeErasure, TypeCorrection, TypePortability, TypeGrievance,
}

// Valid reports whether t is a known request type.
func (t RequestType) Valid() bool {
	switch t {
	case TypeAccess, TypeErasure, TypeCorrection, TypePortability, TypeGrievance:
		return true
	}
	return false
}

// Status is the lifecycle state of a request.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusRejected   Status = "REJECTED"
	StatusCancelled  Status = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// transitions is the allowed status graph. Completed, rejected, and
// cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusRejected, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusRejected},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a terminal state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Category is a class of personal data held about a data principal.
type Category string

const (
	CategoryProfile       Category = "profile"
	CategoryIdentity      Category = "identity"
	CategoryVerifications Category = "verifications"
	CategoryCredentials   Category = "credentials"
	CategoryReputation    Category = "reputation"
	CategoryConsents      Category = "consents"
	CategoryStaking       Category = "staking"
	CategoryActivity      Category = "activity"
	CategoryPII           Category = "pii"
)

// Categories lists every valid data category.
var Categories = []Category{
	CategoryProfile, CategoryIdentity, CategoryVerifications,
	CategoryCredentials, CategoryReputation, CategoryConsents,
	CategoryStaking, CategoryActivity, CategoryPII,
}

// Valid reports whether c is a known data category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ErasureScope controls whether an erasure request covers everything or a
// named subset of categories.
type ErasureScope string

const (
	ScopeFull    ErasureScope = "full"
	ScopePartial ErasureScope = "partial"
)

// ExportFormat is the serialization format for a portability export.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
	FormatXML  ExportFormat = "xml"
)

// Valid reports whether f is a supported export format.
func (f ExportFormat) Valid() bool {
	switch f {
	case FormatJSON, FormatCSV, FormatXML:
		return true
	}
	return false
}

// GrievanceCategory classifies a grievance submission.
type GrievanceCategory string

const (
	GrievanceDataBreach       GrievanceCategory = "data_breach"
	GrievanceConsentViolation GrievanceCategory = "consent_violation"
	GrievanceProcessingError  GrievanceCategory = "processing_error"
	GrievanceDelay            GrievanceCategory = "delay"
	GrievanceOther            GrievanceCategory = "other"
)

// Valid reports whether g is a known grievance category.
func (g GrievanceCategory) Valid() bool {
	switch g {
	case GrievanceDataBreach, GrievanceConsentViolation, GrievanceProcessingError, GrievanceDelay, GrievanceOther:
		return true
	}
	return false
}

// Request is a data-subject-rights request. Type-specific fields (Scope,
// Format, GrievanceCategory, Description, Corrections) are zero-valued for
// the types they do not apply to.
type Request struct {
	// ID is the unique request identifier (format: drr_<ULID>).
	ID string

	// UserID is the data principal who submitted the request.
	UserID string

	Type   RequestType
	Status Status

	// Categories is the set of data categories the request covers.
	// Empty means all categories for ACCESS and PORTABILITY.
	Categories []Category

	// Scope applies to ERASURE requests only.
	Scope ErasureScope

	// Format applies to PORTABILITY requests only.
	Format ExportFormat

	// GrievanceCategory and Description apply to GRIEVANCE requests only.
	GrievanceCategory GrievanceCategory
	Description       string

	// RelatedRequestID optionally links a grievance to an earlier request.
	RelatedRequestID *string

	// Corrections applies to CORRECTION requests only: field name to the
	// corrected value.
	Corrections map[string]string

	// Reason is the free-text justification supplied by the data principal.
	Reason string

	SubmittedAt time.Time

	// Deadline is the statutory response deadline: SubmittedAt + ResponseWindow.
	Deadline time.Time

	CompletedAt *time.Time

	// ResponsePayload holds the encrypted response artifact (export archive,
	// erasure report) once the request completes.
	ResponsePayload []byte

	// Metadata is a free-form bag attached by processing stages.
	Metadata map[string]string

	UpdatedAt time.Time
}

// Overdue reports whether the request has blown its statutory deadline
// without reaching a terminal state.
func (r *Request) Overdue(now time.Time) bool {
	return !r.Status.Terminal() && now.After(r.Deadline)
}

// StatusAudit records a single status transition on a request.
type StatusAudit struct {
	// ID is the audit entry identifier (format: aud_<ULID>).
	ID             string
	RequestID      string
	PreviousStatus Status
	NewStatus      Status

	// Actor is who drove the transition: the user ID, an officer ID, or
	// "worker" for automated processing.
	Actor  string
	Reason string
	At     time.Time
}
