package missingdim

import "github.com/google/uuid"

// The owner and type dimensions are neither tagged nor declared absent.

//scopegen:entity
type Invoice struct {
	ID       uuid.UUID `scope:"resource" filter:"id,unique"`
	TenantID uuid.UUID `scope:"tenant"`
}
