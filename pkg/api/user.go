package api

import "time"

// User is the profile resource served at /auth/users/me.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Nom       string    `json:"nom"`
	Prenom    string    `json:"prenom"`
	Telephone string    `json:"telephone,omitempty"`
	PhotoURL  string    `json:"photoUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpdateUserRequest is the JSON body of PUT /auth/users/me.
// Nil fields are left unchanged.
type UpdateUserRequest struct {
	Nom       *string `json:"nom,omitempty"`
	Prenom    *string `json:"prenom,omitempty"`
	Telephone *string `json:"telephone,omitempty"`
}

// PhotoField is the multipart field name used for profile photo uploads.
const PhotoField = "photo"
