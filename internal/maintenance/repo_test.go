package maintenance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/enums"
	"github.com/decortz/sill-backend/pkg/pagination"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	// Raw DDL instead of AutoMigrate: the model carries postgres defaults
	// (gen_random_uuid) that sqlite cannot parse.
	serviceRecords := `
CREATE TABLE IF NOT EXISTS service_records (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  tire_id TEXT NOT NULL,
  plate TEXT NOT NULL,
  position TEXT,
  life INTEGER NOT NULL,
  type TEXT NOT NULL,
  availability TEXT NOT NULL,
  mileage INTEGER NOT NULL,
  rotated INTEGER NOT NULL DEFAULT 0,
  new_position TEXT,
  depth_1 REAL NOT NULL DEFAULT 0,
  depth_2 REAL NOT NULL DEFAULT 0,
  depth_3 REAL NOT NULL DEFAULT 0,
  alignment INTEGER NOT NULL DEFAULT 0,
  balancing INTEGER NOT NULL DEFAULT 0,
  repair INTEGER NOT NULL DEFAULT 0,
  puncture_repair INTEGER NOT NULL DEFAULT 0,
  regrooving INTEGER NOT NULL DEFAULT 0,
  torque INTEGER NOT NULL DEFAULT 0,
  end_of_life_reason TEXT,
  recorded_by TEXT NOT NULL,
  occurred_at DATETIME NOT NULL,
  created_at DATETIME
);`
	if err := conn.Exec(serviceRecords).Error; err != nil {
		t.Fatalf("failed to create service_records: %v", err)
	}
	return conn
}

func seedRecord(t *testing.T, conn *gorm.DB, record models.ServiceRecord) {
	t.Helper()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.RecordedBy == "" {
		record.RecordedBy = "tester"
	}
	if err := conn.Create(&record).Error; err != nil {
		t.Fatalf("seeding service record: %v", err)
	}
}

func TestRepository_MileagesByTireLife(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	samples := []struct {
		life    int
		mileage int64
		at      time.Time
	}{
		{1, 120000, base},
		{1, 135000, base.Add(30 * 24 * time.Hour)},
		{2, 150000, base.Add(90 * 24 * time.Hour)},
		{2, 142000, base.Add(60 * 24 * time.Hour)},
	}
	for i, sm := range samples {
		seedRecord(t, conn, models.ServiceRecord{
			Code:         fmt.Sprintf("ACN%04d", i+1),
			TireID:       "AC0001",
			Plate:        "ABC123",
			Life:         sm.life,
			Type:         enums.ServiceTypeInspection,
			Availability: enums.TireAvailabilityMounted,
			Mileage:      sm.mileage,
			OccurredAt:   sm.at,
		})
	}
	seedRecord(t, conn, models.ServiceRecord{
		Code:         "ACN0099",
		TireID:       "AC0002",
		Plate:        "ABC123",
		Life:         1,
		Type:         enums.ServiceTypeInspection,
		Availability: enums.TireAvailabilityMounted,
		Mileage:      999999,
		OccurredAt:   base,
	})

	got, err := repo.MileagesByTireLife(context.Background(), "AC0001")
	if err != nil {
		t.Fatalf("MileagesByTireLife error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected samples for 2 lives, got %d", len(got))
	}
	if len(got[1]) != 2 || got[1][0] != 120000 || got[1][1] != 135000 {
		t.Fatalf("life 1 samples out of order: %v", got[1])
	}
	if len(got[2]) != 2 || got[2][0] != 142000 || got[2][1] != 150000 {
		t.Fatalf("life 2 samples should be ordered by occurrence: %v", got[2])
	}
}

func TestRepository_MaxCodeSuffix(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, code := range []string{"ACN0001", "ACN0007", "TSN0042", "AC0003", "AC10007"} {
		seedRecord(t, conn, models.ServiceRecord{
			Code:         code,
			TireID:       "AC0001",
			Plate:        "ABC123",
			Life:         1,
			Type:         enums.ServiceTypeInspection,
			Availability: enums.TireAvailabilityMounted,
			Mileage:      int64(100000 + i),
			OccurredAt:   base.Add(time.Duration(i) * time.Hour),
		})
	}

	max, err := repo.MaxCodeSuffix(context.Background(), "ACN")
	if err != nil {
		t.Fatalf("MaxCodeSuffix error: %v", err)
	}
	if max != 7 {
		t.Fatalf("expected max suffix 7 for ACN, got %d", max)
	}

	// AC also leads ACN0007 and AC10007; neither may leak into the AC scan.
	max, err = repo.MaxCodeSuffix(context.Background(), "AC")
	if err != nil {
		t.Fatalf("MaxCodeSuffix error: %v", err)
	}
	if max != 3 {
		t.Fatalf("expected max suffix 3 for AC, got %d", max)
	}

	max, err = repo.MaxCodeSuffix(context.Background(), "ZZZ")
	if err != nil {
		t.Fatalf("MaxCodeSuffix error: %v", err)
	}
	if max != 0 {
		t.Fatalf("expected 0 for unused prefix, got %d", max)
	}
}

func TestRepository_LatestByTireID(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	seedRecord(t, conn, models.ServiceRecord{
		Code:         "ACN0001",
		TireID:       "AC0001",
		Plate:        "ABC123",
		Life:         1,
		Type:         enums.ServiceTypeMount,
		Availability: enums.TireAvailabilityMounted,
		Mileage:      120000,
		OccurredAt:   base,
	})
	seedRecord(t, conn, models.ServiceRecord{
		Code:         "ACN0002",
		TireID:       "AC0001",
		Plate:        "ABC123",
		Life:         1,
		Type:         enums.ServiceTypeInspection,
		Availability: enums.TireAvailabilityMounted,
		Mileage:      131000,
		OccurredAt:   base.Add(24 * time.Hour),
	})

	latest, err := repo.LatestByTireID(context.Background(), "AC0001")
	if err != nil {
		t.Fatalf("LatestByTireID error: %v", err)
	}
	if latest == nil || latest.Code != "ACN0002" {
		t.Fatalf("expected newest record, got %+v", latest)
	}

	missing, err := repo.LatestByTireID(context.Background(), "AC9999")
	if err != nil {
		t.Fatalf("LatestByTireID error: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown tire, got %+v", missing)
	}
}

func TestRepository_ListByPlateNewestFirst(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		record := models.ServiceRecord{
			ID:           uuid.New(),
			Code:         fmt.Sprintf("ACN%04d", i+1),
			TireID:       "AC0001",
			Plate:        "ABC123",
			Life:         1,
			Type:         enums.ServiceTypeInspection,
			Availability: enums.TireAvailabilityMounted,
			Mileage:      int64(100000 + i*1000),
			OccurredAt:   base.Add(time.Duration(i) * time.Hour),
			RecordedBy:   "tester",
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}
		if err := conn.Create(&record).Error; err != nil {
			t.Fatalf("seeding service record: %v", err)
		}
	}

	got, err := repo.ListByPlate(context.Background(), "ABC123", pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("ListByPlate error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].Code != "ACN0003" || got[2].Code != "ACN0001" {
		t.Fatalf("expected newest-first ordering, got %s..%s", got[0].Code, got[2].Code)
	}
}
