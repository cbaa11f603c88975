// Package reference generates booking references: short public codes shown
// to the customer and printed on the ticket.
package reference

import (
	"encoding/base32"

	"github.com/google/uuid"
)

// Length of a booking reference.
const Length = 8

// Generate returns an 8-character uppercase alphanumeric code derived from
// a random UUID. Generation is pure; the booking service checks the ledger
// and regenerates on the (statistically negligible) collision.
func Generate() string {
	id := uuid.New()
	// 5 random bytes base32-encode to exactly 8 characters (A-Z, 2-7),
	// no padding needed.
	return base32.StdEncoding.EncodeToString(id[:5])
}
