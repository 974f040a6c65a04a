package conflict

import "github.com/google/uuid"

//scopegen:unrestricted
type Setting struct {
	TenantID uuid.UUID `scope:"tenant"`
	Key      string    `filter:"key,unique"`
}
