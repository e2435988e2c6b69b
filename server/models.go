package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("notblank", validateNotBlank)
	}
}

// validateNotBlank rejects strings that are empty after trimming, which
// "required" alone lets through inside slices.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// LookupMetadata mirrors the resolver's provenance for API clients.
type LookupMetadata struct {
	Strategy    string  `json:"strategy"`
	Confidence  float64 `json:"confidence"`
	Identity    string  `json:"identity,omitempty"`
	Name        string  `json:"name,omitempty"`
	MatchedCode string  `json:"matched_code,omitempty"`
	Ambiguous   bool    `json:"ambiguous,omitempty"`
	Index       int     `json:"index,omitempty"`
	Input       string  `json:"input"`
	Cleaned     string  `json:"cleaned"`
	Normalized  string  `json:"normalized"`
}

// LookupResponse is the result of a single code lookup.
type LookupResponse struct {
	Found     bool           `json:"found"`
	Structure string         `json:"structure,omitempty"`
	Metadata  LookupMetadata `json:"metadata"`
}

// CompoundResponse is one catalog entry.
type CompoundResponse struct {
	Identity       string    `json:"identity"`
	Name           string    `json:"name"`
	Code           string    `json:"code"`
	Structure      string    `json:"structure"`
	Num            int       `json:"num"`
	ValidStructure bool      `json:"valid_structure"`
	InsertedAt     time.Time `json:"inserted_at,omitzero"`
}

// ListCompoundsResponse is the full catalog listing.
type ListCompoundsResponse struct {
	Compounds []CompoundResponse `json:"compounds"`
	Count     int                `json:"count"`
}

// AddCompoundRequest adds one catalog entry.
type AddCompoundRequest struct {
	Name      string `json:"name"`
	Code      string `json:"code"`
	Structure string `json:"structure" binding:"required"`
}

// AddCompoundResponse confirms an addition.
type AddCompoundResponse struct {
	Identity string `json:"identity"`
}

// DeleteCompoundsRequest removes entries by identity.
type DeleteCompoundsRequest struct {
	Identities []string `json:"identities" binding:"required,min=1,dive,len=8,hexadecimal"`
}

// DeleteCompoundsResponse reports the deletion outcome.
type DeleteCompoundsResponse struct {
	Success      bool     `json:"success"`
	DeletedCount int      `json:"deleted_count"`
	Errors       []string `json:"errors,omitempty"`
}

// BatchRequest resolves many codes at once.
type BatchRequest struct {
	Codes []string `json:"codes" binding:"required,min=1,max=500,dive,notblank"`
}

// BatchRow is the outcome of one batch input.
type BatchRow struct {
	Input      string  `json:"input"`
	Found      bool    `json:"found"`
	Structure  string  `json:"structure,omitempty"`
	Strategy   string  `json:"strategy"`
	Confidence float64 `json:"confidence"`
	Name       string  `json:"name,omitempty"`
	Identity   string  `json:"identity,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// BatchResponse is the full batch outcome, in input order.
type BatchResponse struct {
	Rows []BatchRow `json:"rows"`
}

// HealthResponse reports service health.
type HealthResponse struct {
	Status    string `json:"status"`
	Compounds int    `json:"compounds"`
}
