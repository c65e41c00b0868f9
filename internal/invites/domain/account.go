package domain

import "time"

// Account is an identity owned by the external provider. Only the id and
// email are known here; rows are a cache of accounts seen by this service.
type Account struct {
	ID        string
	Email     string
	CreatedAt time.Time
}
