package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/FloraFacts/internal/models"
	"github.com/lib/pq"
)

const insertPlantSQL = `INSERT INTO plants (id, user_id, image, name, scientific_name, plant_info)`

func setupGallery(t *testing.T) (*PostgresGalleryRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresGalleryRepository(db), mock, func() { db.Close() }
}

func monstera() models.PlantInfo {
	return models.PlantInfo{
		Name:             "Monstera",
		ScientificName:   "Monstera deliciosa",
		Description:      "A climbing aroid.",
		CareInstructions: "Bright indirect light.",
		AdditionalDetails: models.AdditionalDetails{
			NativeTo: "Central America",
		},
	}
}

func TestInsertPlant_Success(t *testing.T) {
	repo, mock, cleanup := setupGallery(t)
	defer cleanup()

	item := &models.GalleryItem{ID: "p1", Image: "data:image/jpeg;base64,AA==", PlantInfo: monstera()}
	info, _ := json.Marshal(item.PlantInfo)
	created := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(insertPlantSQL)).
		WithArgs("p1", "user1", item.Image, "Monstera", "Monstera deliciosa", info).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	saved, err := repo.InsertPlant(context.Background(), "user1", item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !saved {
		t.Error("expected item to be saved")
	}
	if !item.Timestamp.Equal(created) {
		t.Errorf("timestamp = %v; want %v", item.Timestamp, created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestInsertPlant_Duplicate(t *testing.T) {
	repo, mock, cleanup := setupGallery(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(insertPlantSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))

	item := &models.GalleryItem{ID: "p2", Image: "img", PlantInfo: monstera()}
	saved, err := repo.InsertPlant(context.Background(), "user1", item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved {
		t.Error("duplicate must not be reported as saved")
	}
	if !item.Timestamp.IsZero() {
		t.Error("duplicate must not get a timestamp")
	}
}

func TestInsertPlant_Error(t *testing.T) {
	repo, mock, cleanup := setupGallery(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(insertPlantSQL)).
		WillReturnError(errors.New("disk full"))

	_, err := repo.InsertPlant(context.Background(), "user1", &models.GalleryItem{ID: "p3"})
	if err == nil || !regexp.MustCompile(`InsertPlant`).MatchString(err.Error()) {
		t.Errorf("expected InsertPlant error, got %v", err)
	}
}

func TestListPlants_Success(t *testing.T) {
	repo, mock, cleanup := setupGallery(t)
	defer cleanup()

	newer := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	info, _ := json.Marshal(monstera())

	rows := sqlmock.NewRows([]string{"id", "image", "plant_info", "created_at"}).
		AddRow("b", "img-b", info, newer).
		AddRow("a", "img-a", []byte(`{"name":"Fern","scientificName":"Nephrolepis exaltata"}`), older)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, image, plant_info, created_at FROM plants`)).
		WithArgs("user1").
		WillReturnRows(rows)

	items, err := repo.ListPlants(context.Background(), "user1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "b" || items[0].PlantInfo.AdditionalDetails.NativeTo != "Central America" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[1].PlantInfo.Name != "Fern" || !items[1].Timestamp.Equal(older) {
		t.Errorf("unexpected second item: %+v", items[1])
	}
}

func TestListPlants_EmptyIsNotNil(t *testing.T) {
	repo, mock, cleanup := setupGallery(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, image, plant_info, created_at FROM plants`)).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "image", "plant_info", "created_at"}))

	items, err := repo.ListPlants(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", items)
	}
}

func TestListPlants_Errors(t *testing.T) {
	repo, mock, cleanup := setupGallery(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, image").WillReturnError(errors.New("query fail"))
	if _, err := repo.ListPlants(context.Background(), "u"); err == nil {
		t.Error("expected query error")
	}

	mock.ExpectQuery("SELECT id, image").
		WillReturnRows(sqlmock.NewRows([]string{"id", "image", "plant_info", "created_at"}).
			AddRow("x", "img", []byte(`not json`), time.Now()))
	if _, err := repo.ListPlants(context.Background(), "u"); err == nil {
		t.Error("expected decode error")
	}
}

func TestDeletePlants(t *testing.T) {
	repo, mock, cleanup := setupGallery(t)
	defer cleanup()

	ids := []string{"a", "b"}
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE plants SET deleted_at = now()`)).
		WithArgs("user1", pq.Array(ids)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.DeletePlants(context.Background(), "user1", ids); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDeleteAllPlants(t *testing.T) {
	repo, mock, cleanup := setupGallery(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE plants SET deleted_at = now()`)).
		WithArgs("user1").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE plants SET deleted_at = now()`)).
		WithArgs("user1").
		WillReturnError(sql.ErrConnDone)

	if err := repo.DeleteAllPlants(context.Background(), "user1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.DeleteAllPlants(context.Background(), "user1"); !errors.Is(err, sql.ErrConnDone) {
		t.Errorf("expected wrapped ErrConnDone, got %v", err)
	}
}
