package valid

import (
	"time"

	"github.com/google/uuid"
)

//scopegen:entity
//scopegen:absent owner,type
type Order struct {
	ID        uuid.UUID `scope:"resource" filter:"id,unique"`
	TenantID  uuid.UUID `scope:"tenant"`
	Status    string    `filter:"status"`
	Amount    string    `filter:"amount,decimal"`
	CreatedAt time.Time `filter:"created_at"`
	Internal  string
}

//scopegen:entity
type Document struct {
	ID       uuid.UUID `scope:"resource" filter:"id,unique"`
	TenantID uuid.UUID `scope:"tenant"`
	OwnerID  uuid.UUID `scope:"owner" filter:"owner_id"`
	Kind     string    `scope:"type" db:"doc_type" filter:"kind"`
	DueOn    time.Time `filter:"due_on,date"`
}

//scopegen:unrestricted
type Currency struct {
	Code string `filter:"code,unique"`
	Name string `filter:"name"`
}
