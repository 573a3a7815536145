// Package models holds the data shapes shared by every linkage component:
// the logical Unit read from either source, its normalized derivative, and
// the two durable result shapes (LinkageResult, EnhancedAssociation).
//
// Field order and db tags follow the teacher's convention in
// pkg/models/staged_entity.go: struct fields are ordered to match the
// backing table's column order, and every persisted field carries both a
// json tag (wire shape) and a db tag (sqlx scan target).
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MatchType enumerates the layer that produced a LinkageResult (spec.md §3).
type MatchType string

const (
	MatchTypeExactCreditCode    MatchType = "exact_credit_code"
	MatchTypeExactNameCanonical MatchType = "exact_name_canonical"
	MatchTypeFuzzyPrefiltered   MatchType = "fuzzy_prefiltered"
	MatchTypeFuzzyGlobal        MatchType = "fuzzy_global"
	MatchTypeGraphAssisted      MatchType = "graph_assisted"
	MatchTypeNone               MatchType = "none"
)

// MatchConfidence is derived from MatchType + score (spec.md §3).
type MatchConfidence string

const (
	MatchConfidenceHigh   MatchConfidence = "high"
	MatchConfidenceMedium MatchConfidence = "medium"
	MatchConfidenceLow    MatchConfidence = "low"
	MatchConfidenceNone   MatchConfidence = "none"
)

// ReviewStatus is the review-state machine (spec.md §3 invariant 5).
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// AssociationStrategy enumerates the Enhanced Association Aggregator's
// grouping strategies (spec.md §4.7).
type AssociationStrategy string

const (
	AssociationStrategyBuildingBased AssociationStrategy = "building_based"
	AssociationStrategyUnitBased     AssociationStrategy = "unit_based"
	AssociationStrategyHybrid        AssociationStrategy = "hybrid"
)

// TaskMode enumerates the Batch Task Engine's modes (spec.md §4.6).
type TaskMode string

const (
	TaskModeIncremental TaskMode = "incremental"
	TaskModeUpdate      TaskMode = "update"
	TaskModeFull        TaskMode = "full"
)

// TaskStatus is the task lifecycle state (spec.md §4.6).
type TaskStatus string

const (
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusError     TaskStatus = "error"
	TaskStatusStopped   TaskStatus = "stopped"
)

// TaskStep is the fine-grained phase within TaskStatusRunning, supplemented
// from original_source's AssociationProgress.current_step (SPEC_FULL.md §1c).
type TaskStep string

const (
	TaskStepInitializing TaskStep = "initializing"
	TaskStepReading      TaskStep = "reading"
	TaskStepMatching     TaskStep = "matching"
	TaskStepFlushing     TaskStep = "flushing"
	TaskStepAggregating  TaskStep = "aggregating"
	TaskStepFinished     TaskStep = "finished"
	TaskStepFailed       TaskStep = "failed"
)

// Unit is the logical shape shared by PRIMARY and SECONDARY records
// (spec.md §3). All identifier-bearing fields MUST remain strings end to
// end (Design Notes §9): ingestion adapters must refuse to coerce a
// numeric-looking id or credit_code into a Go numeric type.
type Unit struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	CreditCode          string `json:"credit_code,omitempty"`
	Address             string `json:"address,omitempty"`
	LegalRepresentative string `json:"legal_representative,omitempty"`
	SafetyManager       string `json:"safety_manager,omitempty"`
	ContactPhone        string `json:"contact_phone,omitempty"`

	// BuildingID is not part of spec.md's Unit field list but is required by
	// the building_based association strategy (§4.7) and is carried through
	// from the PRIMARY source the same way the teacher carries through
	// source-specific extra fields in StagedEntity.Data.
	BuildingID string `json:"building_id,omitempty"`
}

// NormalizedUnit is the Normalizer's output for one Unit (spec.md §3),
// cached alongside the Unit or recomputed on demand.
type NormalizedUnit struct {
	NameCanonical    string   `json:"name_canonical"`
	NameCore         string   `json:"name_core"`
	NameSlices       []string `json:"name_slices"`
	AddressTokens    []string `json:"address_tokens"`
	AddressKeywords  []string `json:"address_keywords"`
	AddressProvince  string   `json:"address_province,omitempty"`
	AddressCity      string   `json:"address_city,omitempty"`
	AddressDistrict  string   `json:"address_district,omitempty"`
	AddressDetail    string   `json:"address_detail,omitempty"`
	CreditCodeCanon  string   `json:"credit_code_canonical,omitempty"`
	PhoneDigits      string   `json:"phone_digits,omitempty"`
	LegalRepCanon    string   `json:"legal_representative_canonical,omitempty"`
}

// MatchExplanation is the structured rationale every DONE state emits
// (spec.md §4.4).
type MatchExplanation struct {
	Positive    []string           `json:"positive"`
	Negative    []string           `json:"negative"`
	FieldScores map[string]float64 `json:"field_scores"`
}

// Value marshals MatchExplanation to jsonb for the linkage_results column,
// following the teacher's json.RawMessage-as-jsonb convention but adding
// the marshal step the teacher's data field (already []byte) doesn't need.
func (e MatchExplanation) Value() (driver.Value, error) {
	return json.Marshal(e)
}

// Scan unmarshals a jsonb column back into MatchExplanation.
func (e *MatchExplanation) Scan(src any) error {
	b, ok := src.([]byte)
	if !ok {
		if src == nil {
			return nil
		}
		return fmt.Errorf("match_explanation: unsupported scan type %T", src)
	}
	return json.Unmarshal(b, e)
}

// LinkageResult is one record per PRIMARY unit, regardless of outcome
// (spec.md §3). Field order matches the linkage_results table.
type LinkageResult struct {
	MatchID    string `json:"match_id" db:"match_id"`
	PrimaryID  string `json:"primary_id" db:"primary_id"`
	PrimaryUnit

	MatchedID string `json:"matched_id,omitempty" db:"matched_id"`
	MatchedUnit

	MatchType        MatchType        `json:"match_type" db:"match_type"`
	SimilarityScore  float64          `json:"similarity_score" db:"similarity_score"`
	MatchConfidence  MatchConfidence  `json:"match_confidence" db:"match_confidence"`
	MatchExplanation MatchExplanation `json:"match_explanation" db:"match_explanation"`

	ReviewStatus    ReviewStatus `json:"review_status" db:"review_status"`
	ReviewNotes     string       `json:"review_notes,omitempty" db:"review_notes"`
	Reviewer        string       `json:"reviewer,omitempty" db:"reviewer"`
	ReviewTimestamp *time.Time   `json:"review_timestamp,omitempty" db:"review_timestamp"`

	CreatedTime time.Time `json:"created_time" db:"created_time"`
	UpdatedTime time.Time `json:"updated_time" db:"updated_time"`
}

// PrimaryUnit is the full snapshot of the PRIMARY unit at match time,
// embedded into LinkageResult with a primary_ column prefix.
type PrimaryUnit struct {
	PrimaryName                string `json:"primary_name" db:"primary_name"`
	PrimaryCreditCode          string `json:"primary_credit_code,omitempty" db:"primary_credit_code"`
	PrimaryAddress             string `json:"primary_address,omitempty" db:"primary_address"`
	PrimaryLegalRepresentative string `json:"primary_legal_representative,omitempty" db:"primary_legal_representative"`
	PrimarySafetyManager       string `json:"primary_safety_manager,omitempty" db:"primary_safety_manager"`
	PrimaryContactPhone        string `json:"primary_contact_phone,omitempty" db:"primary_contact_phone"`
	PrimaryBuildingID          string `json:"primary_building_id,omitempty" db:"primary_building_id"`
}

// MatchedUnit is the snapshot of the matched SECONDARY unit, or all-empty
// when match_type is none (spec.md §3 invariant 4).
type MatchedUnit struct {
	MatchedName                string `json:"matched_name,omitempty" db:"matched_name"`
	MatchedCreditCode          string `json:"matched_credit_code,omitempty" db:"matched_credit_code"`
	MatchedAddress             string `json:"matched_address,omitempty" db:"matched_address"`
	MatchedLegalRepresentative string `json:"matched_legal_representative,omitempty" db:"matched_legal_representative"`
	MatchedSafetyManager       string `json:"matched_safety_manager,omitempty" db:"matched_safety_manager"`
	MatchedContactPhone        string `json:"matched_contact_phone,omitempty" db:"matched_contact_phone"`
}

// AssociatedRecord is one member of an EnhancedAssociation's group (spec.md §3).
type AssociatedRecord struct {
	SecondaryID       string            `json:"secondary_id"`
	MatchType         MatchType         `json:"match_type"`
	SimilarityScore   float64           `json:"similarity_score"`
	InspectionDate    *time.Time        `json:"inspection_date,omitempty"`
	SnapshotFields    map[string]string `json:"snapshot_fields"`
}

// AssociatedRecords is the jsonb-backed column type for
// EnhancedAssociation.AssociatedRecords.
type AssociatedRecords []AssociatedRecord

// Value marshals AssociatedRecords to jsonb.
func (r AssociatedRecords) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan unmarshals a jsonb column back into AssociatedRecords.
func (r *AssociatedRecords) Scan(src any) error {
	b, ok := src.([]byte)
	if !ok {
		if src == nil {
			return nil
		}
		return fmt.Errorf("associated_records: unsupported scan type %T", src)
	}
	return json.Unmarshal(b, r)
}

// EnhancedAssociation is the 1:N grouping produced by the Aggregator
// (spec.md §3, §4.7).
type EnhancedAssociation struct {
	AssociationID       string               `json:"association_id" db:"association_id"`
	PrimaryID           string               `json:"primary_id" db:"primary_id"`
	PrimaryUnit
	AssociatedRecords   AssociatedRecords    `json:"associated_records" db:"associated_records"`
	AssociationStrategy AssociationStrategy  `json:"association_strategy" db:"association_strategy"`
	AssociationConfidence float64            `json:"association_confidence" db:"association_confidence"`
	DataQualityScore    float64              `json:"data_quality_score" db:"data_quality_score"`
	CreatedTime         time.Time            `json:"created_time" db:"created_time"`
	UpdatedTime         time.Time            `json:"updated_time" db:"updated_time"`
}

// PaginatedLinkageResults is the response shape for iter_pending (spec.md §4.5).
type PaginatedLinkageResults struct {
	Items      []LinkageResult `json:"items"`
	TotalCount int             `json:"total_count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
}

// IterPendingFilter narrows iter_pending's result set (spec.md §4.5).
type IterPendingFilter struct {
	MatchType    MatchType
	ReviewStatus ReviewStatus
	NameQuery    string
}

// UpsertBatchResult reports the outcome of a bulk upsert (spec.md §4.5).
type UpsertBatchResult struct {
	Matched  int `json:"matched"`
	Modified int `json:"modified"`
	Inserted int `json:"inserted"`
}

// Statistics is the response shape for get_statistics (spec.md §6).
type Statistics struct {
	ByMatchType     map[MatchType]int       `json:"by_match_type"`
	ByConfidence    map[MatchConfidence]int `json:"by_confidence"`
	ByReviewStatus  map[ReviewStatus]int    `json:"by_review_status"`
}
