package models

// User is an application account. Authentication is not implemented; the
// password is only ever stored as a bcrypt hash.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
}
