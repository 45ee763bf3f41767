// README: Firebase RTDB publisher for live truck tracking.
package location

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/db"
)

// rtdbTruckEntry is the shape resident apps subscribe to under /trucks.
type rtdbTruckEntry struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	UpdatedAt string  `json:"updatedAt"`
}

// FirebasePublisher writes fixes to the /trucks/{truckID} node in the
// Realtime Database, where the resident apps listen for live positions.
type FirebasePublisher struct {
	dbClient *db.Client
}

func NewFirebasePublisher(dbClient *db.Client) *FirebasePublisher {
	return &FirebasePublisher{dbClient: dbClient}
}

func (p *FirebasePublisher) Publish(ctx context.Context, fix Fix) error {
	entry := rtdbTruckEntry{
		Latitude:  fix.Position.Lat,
		Longitude: fix.Position.Lng,
		UpdatedAt: fix.RecordedAt.UTC().Format(time.RFC3339),
	}

	ref := p.dbClient.NewRef("trucks/" + string(fix.TruckID))
	if err := ref.Set(ctx, entry); err != nil {
		return fmt.Errorf("publishing truck %s fix: %w", string(fix.TruckID), err)
	}
	return nil
}
