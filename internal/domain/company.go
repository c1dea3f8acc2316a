package domain

import "time"

// Company is a tenant. Its tickets are isolated from other tenants and
// its contact details are the default recipients for notifications.
type Company struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	ContactPhone string
	ContactEmail string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Contact returns the company's notification contact info. The login
// email doubles as contact email when no dedicated one is configured.
func (c *Company) Contact() ContactInfo {
	email := c.ContactEmail
	if email == "" {
		email = c.Email
	}
	return ContactInfo{Phone: c.ContactPhone, Email: email}
}
