// README: Truck position fix reported by the driver app.
package location

import (
	"time"

	"kolekta/internal/types"
)

type Fix struct {
	TruckID    types.ID    `json:"truck_id"`
	Position   types.Point `json:"position"`
	RecordedAt time.Time   `json:"recorded_at"`
}
