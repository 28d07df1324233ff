// Package registry implements the service directory: a store of live service
// records guarded by token authentication, together with the background
// health monitor that evicts dead entries.
package registry

// ServiceRecord describes one registered microservice. The ID is generated at
// registration time and immutable thereafter.
type ServiceRecord struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	URL         string `gorm:"not null" json:"url"`
}

// TableName keeps the table name stable regardless of GORM pluralization.
func (ServiceRecord) TableName() string { return "services" }

// Credential is the authentication identity paired one-to-one with a service
// record: the username of a self-registered service is its record ID.
type Credential struct {
	Username     string `gorm:"primaryKey"`
	PasswordHash string `gorm:"not null"`
	Access       string `gorm:"not null"`
}

// TableName keeps the table name stable regardless of GORM pluralization.
func (Credential) TableName() string { return "users" }
