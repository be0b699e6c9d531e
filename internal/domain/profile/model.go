package profile

import (
	"context"
	"time"
)

// Profile is the farmer profile keyed by the identity provider's user id.
type Profile struct {
	UserID            string    `json:"userId"`
	DisplayName       string    `json:"displayName"`
	Phone             string    `json:"phone"`
	Address           string    `json:"address"`
	State             string    `json:"state"`
	District          string    `json:"district"`
	FarmName          string    `json:"farmName"`
	FarmSize          string    `json:"farmSize"`
	CropTypes         string    `json:"cropTypes"`
	PreferredLanguage string    `json:"preferredLanguage"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// UpdateRequest carries the editable profile fields.
type UpdateRequest struct {
	DisplayName       string `json:"displayName"`
	Phone             string `json:"phone"`
	Address           string `json:"address"`
	State             string `json:"state"`
	District          string `json:"district"`
	FarmName          string `json:"farmName"`
	FarmSize          string `json:"farmSize"`
	CropTypes         string `json:"cropTypes"`
	PreferredLanguage string `json:"preferredLanguage"`
}

// Repository persists profiles.
type Repository interface {
	Get(ctx context.Context, userID string) (Profile, bool, error)
	Upsert(ctx context.Context, p Profile) (Profile, error)
}
