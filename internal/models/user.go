package models

// User represents a bank customer. Immutable after signup.
type User struct {
	Base
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"`
	Address1    string    `json:"address1"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	PostalCode  string    `json:"postalCode"`
	DateOfBirth string    `json:"dateOfBirth"`
	Aadhar      string    `json:"aadhar,omitempty"`
	Accounts    []Account `gorm:"foreignKey:UserID" json:"accounts,omitempty"`
}
