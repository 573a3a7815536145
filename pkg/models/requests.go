package models

// StartMatchTaskRequest is the input of start_match_task (spec.md §6). Its
// validate tags follow ivy/pkg/models/staged_entity.go's convention, but no
// package in this module runs go-playground/validator over them;
// Engine.Start checks only Mode.
type StartMatchTaskRequest struct {
	Mode           TaskMode `json:"mode" validate:"required,oneof=incremental update full"`
	BatchSize      int      `json:"batch_size,omitempty" validate:"omitempty,min=1,max=10000"`
	ClearExisting  bool     `json:"clear_existing,omitempty"`
}

// SetReviewStatusRequest is the input of set_review_status (spec.md §6).
type SetReviewStatusRequest struct {
	MatchID  string       `json:"match_id" validate:"required"`
	Status   ReviewStatus `json:"status" validate:"required,oneof=approved rejected pending"`
	Notes    string       `json:"notes,omitempty"`
	Reviewer string       `json:"reviewer" validate:"required"`
}

// StartEnhancedAssociationRequest is the input of start_enhanced_association
// (spec.md §6).
type StartEnhancedAssociationRequest struct {
	Strategy      AssociationStrategy `json:"strategy" validate:"required,oneof=building_based unit_based hybrid"`
	ClearExisting bool                `json:"clear_existing,omitempty"`
}

// ListResultsRequest is the input of list_results (spec.md §6).
type ListResultsRequest struct {
	Page         int          `json:"page" validate:"min=1"`
	PageSize     int          `json:"page_size" validate:"min=1,max=500"`
	MatchType    MatchType    `json:"match_type,omitempty"`
	ReviewStatus ReviewStatus `json:"review_status,omitempty"`
	NameQuery    string       `json:"name_query,omitempty"`
}
