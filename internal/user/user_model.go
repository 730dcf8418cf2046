package user

import "gorm.io/gorm"

// User is the identity record: it owns credentials and the display
// identity. Game-domain state lives on the associated Player.
type User struct {
	gorm.Model
	Username  string `gorm:"unique;not null" json:"username"`
	Email     string `gorm:"uniqueIndex" json:"email"`
	Password  string `json:"-"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
