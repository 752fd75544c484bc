package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bikeshare-flow/models"
	"bikeshare-flow/utils"
)

func rawTrips(n int) []*models.RawTrip {
	trips := make([]*models.RawTrip, 0, n)
	for i := 0; i < n; i++ {
		trips = append(trips, &models.RawTrip{
			RentLat: "37.55", RentLon: "127.04", RentName: fmt.Sprintf("station-%d", i),
			ReturnLat: "37.56", ReturnLon: "127.05", ReturnName: "Ttukseom",
			RentTime: "2024-05-15 13:45", BirthYear: "1994", SexCode: "M",
		})
	}
	return trips
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "trips.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	// more than one batch
	trips := rawTrips(250)
	if err := store.WriteRaw(ctx, trips); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}

	n, err := store.Count(ctx)
	if err != nil || n != 250 {
		t.Fatalf("Count: got %d, %v; want 250", n, err)
	}

	got, err := store.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(got) != 250 {
		t.Fatalf("FetchAll: got %d rows, want 250", len(got))
	}
	if *got[0] != *trips[0] || *got[249] != *trips[249] {
		t.Errorf("rows changed in storage: first %+v, last %+v", *got[0], *got[249])
	}

	// a second import replaces the dataset
	if err := store.WriteRaw(ctx, rawTrips(3)); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if n, _ := store.Count(ctx); n != 3 {
		t.Errorf("Count after re-import: got %d, want 3", n)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("Count after Clear: got %d, want 0", n)
	}
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set - skipping PostgreSQL test")
	}

	ctx := context.Background()
	retry := &utils.RetryConfig{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond, Logger: utils.NewDiscardLogger()}
	store, err := NewPostgresStore(ctx, dsn, retry)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	defer store.Close()

	if err := store.WriteRaw(ctx, rawTrips(1200)); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	got, err := store.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(got) != 1200 || got[1199].RentName != "station-1199" {
		t.Errorf("FetchAll: got %d rows", len(got))
	}
	if err := store.Clear(ctx); err != nil {
		t.Errorf("Clear: %v", err)
	}
}
