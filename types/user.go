package types

import "time"

// User represents an account in the system.
// It contains identity, credentials, and the user's wardrobe.
type User struct {
	// ID is the auto-generated unique identifier of the user.
	ID string `json:"id" db:"id" bson:"_id"`

	// Username is the unique login name chosen by the user. It also
	// prefixes every media object the user uploads.
	Username string `json:"username" db:"username" bson:"username"`

	// Email is the user's email address.
	Email string `json:"email" db:"email" bson:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash" bson:"password_hash"`

	// Shirts maps a color key to the image URL of a stored top.
	Shirts Wardrobe `json:"shirts" db:"shirts" bson:"shirts"`

	// Pants maps a color key to the image URL of a stored bottom.
	Pants Wardrobe `json:"pants" db:"pants" bson:"pants"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at" bson:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" bson:"updated_at"`
}

// Wardrobe returns the color map backing the given category.
func (u User) Wardrobe(category Category) Wardrobe {
	switch category {
	case CategoryTop:
		return u.Shirts
	case CategoryBottom:
		return u.Pants
	default:
		return nil
	}
}
