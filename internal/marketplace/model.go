package marketplace

import (
	"encoding/json"
	"time"
)

// CleaningType enumerates the kinds of job a user can post.
type CleaningType string

const (
	SpotClean CleaningType = "spot_clean"
	FullClean CleaningType = "full_clean"
	DustUp    CleaningType = "dust_up"
)

func (t CleaningType) Valid() bool {
	switch t {
	case SpotClean, FullClean, DustUp:
		return true
	}
	return false
}

// OfferStatus is the offer state machine:
// pending -> accepted (owner picks one), pending -> rejected (sibling was
// picked), accepted -> completed (evaluation recorded). rejected and
// completed are terminal.
type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferRejected  OfferStatus = "rejected"
	OfferCompleted OfferStatus = "completed"
)

// Cleaning is a posted cleaning job. Owner is set at creation and never
// changes; the update path has no setter for it.
type Cleaning struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	CleaningType CleaningType `json:"cleaning_type"`
	Price        float64      `json:"price"`
	Owner        int64        `json:"owner"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (c *Cleaning) ResourceOwner() int64 { return c.Owner }

// CleaningView is the enriched read model returned by get/list. TotalOffers
// is populated for every viewer; Offers carries rows only for the owner.
type CleaningView struct {
	Cleaning
	TotalOffers int     `json:"total_offers"`
	Offers      []Offer `json:"offers"`
}

// Offer is one user's bid on one cleaning job. Identity is the
// (cleaning_id, user_id) pair: resubmission updates in place.
type Offer struct {
	CleaningID int64       `json:"cleaning_id"`
	UserID     int64       `json:"user_id"`
	Status     OfferStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Evaluation is the owner's one-time rating of the accepted cleaner.
type Evaluation struct {
	CleaningID      int64     `json:"cleaning_id"`
	CleanerID       int64     `json:"cleaner_id"`
	Professionalism int       `json:"professionalism"`
	Completeness    int       `json:"completeness"`
	Efficiency      int       `json:"efficiency"`
	OverallRating   int       `json:"overall_rating"`
	Headline        string    `json:"headline,omitempty"`
	Comment         string    `json:"comment,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EvaluationStats aggregates a cleaner's ratings across all jobs.
type EvaluationStats struct {
	CleanerID          int64   `json:"cleaner_id"`
	TotalEvaluations   int     `json:"total_evaluations"`
	AvgProfessionalism float64 `json:"avg_professionalism"`
	AvgCompleteness    float64 `json:"avg_completeness"`
	AvgEfficiency      float64 `json:"avg_efficiency"`
	AvgOverallRating   float64 `json:"avg_overall_rating"`
	MinOverallRating   int     `json:"min_overall_rating"`
	MaxOverallRating   int     `json:"max_overall_rating"`
}

type CreateCleaningRequest struct {
	Name         string  `json:"name" validate:"required"`
	Description  string  `json:"description"`
	Price        float64 `json:"price" validate:"required,gt=0"`
	CleaningType string  `json:"cleaning_type" validate:"required"`
}

// UpdateCleaningRequest is an explicit allow-list patch. It distinguishes an
// absent field from one sent as JSON null, because the two produce different
// client errors for cleaning_type. An "owner" key in the payload is dropped
// during decoding and never reaches a setter.
type UpdateCleaningRequest struct {
	Name        *string
	Description *string
	Price       *float64

	cleaningType    *CleaningType
	cleaningTypeSet bool
}

func (r *UpdateCleaningRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name         *string          `json:"name"`
		Description  *string          `json:"description"`
		Price        *float64         `json:"price"`
		CleaningType *json.RawMessage `json:"cleaning_type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Name = raw.Name
	r.Description = raw.Description
	r.Price = raw.Price

	if raw.CleaningType != nil {
		r.cleaningTypeSet = true
		if string(*raw.CleaningType) != "null" {
			var t CleaningType
			if err := json.Unmarshal(*raw.CleaningType, &t); err != nil {
				return err
			}
			r.cleaningType = &t
		}
	}
	return nil
}

// CleaningType returns the requested type, or nil if the field was absent or
// explicitly null.
func (r *UpdateCleaningRequest) CleaningType() *CleaningType { return r.cleaningType }

// CleaningTypeIsNull reports that the payload carried "cleaning_type": null,
// which is a required-field violation rather than a bad enum value.
func (r *UpdateCleaningRequest) CleaningTypeIsNull() bool {
	return r.cleaningTypeSet && r.cleaningType == nil
}

type CreateEvaluationRequest struct {
	Professionalism *int   `json:"professionalism" validate:"required,min=0,max=5"`
	Completeness    *int   `json:"completeness" validate:"required,min=0,max=5"`
	Efficiency      *int   `json:"efficiency" validate:"required,min=0,max=5"`
	OverallRating   *int   `json:"overall_rating" validate:"required,min=0,max=5"`
	Headline        string `json:"headline" validate:"max=140"`
	Comment         string `json:"comment" validate:"max=1000"`
}

// EvaluationPage wraps a paginated cleaner evaluation listing.
type EvaluationPage struct {
	Evaluations []Evaluation `json:"evaluations"`
	Page        int          `json:"page"`
	Limit       int          `json:"limit"`
	Total       int          `json:"total"`
}
