package models

// ProfileUpdateRequest carries editable profile fields. Nil fields are left unchanged.
type ProfileUpdateRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=100"`
	Phone      *string `json:"phone" validate:"omitempty,min=10,max=15"`
	Bio        *string `json:"bio" validate:"omitempty,max=200"`
	Department *string `json:"department" validate:"omitempty,max=100"`
}
