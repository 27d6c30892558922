package gateway

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/bluetecnologia/status_admin/internal/models"
)

const pgUniqueViolation = "23505"

// DBGateway reads and writes service records straight from the dashboard
// database.
type DBGateway struct {
	DB *gorm.DB
}

func NewDBGateway(db *gorm.DB) *DBGateway {
	return &DBGateway{DB: db}
}

func (g *DBGateway) Create(ctx context.Context, rec models.ServiceRecord) (models.ServiceRecord, error) {
	m := models.ServiceRecord{Name: rec.Name, Status: rec.Status}
	if err := g.DB.WithContext(ctx).Create(&m).Error; err != nil {
		return models.ServiceRecord{}, wrap(OpCreate, storeErr(err))
	}
	return m, nil
}

func (g *DBGateway) UpdateByID(ctx context.Context, id uint, rec models.ServiceRecord) (models.ServiceRecord, error) {
	if id == 0 {
		return models.ServiceRecord{}, wrap(OpUpdate, ErrMissingID)
	}
	db := g.DB.WithContext(ctx)
	var m models.ServiceRecord
	if err := db.First(&m, id).Error; err != nil {
		return models.ServiceRecord{}, wrap(OpUpdate, storeErr(err))
	}
	m.Name = rec.Name
	m.Status = rec.Status
	if err := db.Save(&m).Error; err != nil {
		return models.ServiceRecord{}, wrap(OpUpdate, storeErr(err))
	}
	return m, nil
}

func (g *DBGateway) List(ctx context.Context) ([]models.ServiceRecord, error) {
	var out []models.ServiceRecord
	if err := g.DB.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, wrap(OpList, err)
	}
	return out, nil
}

func (g *DBGateway) FindByID(ctx context.Context, id uint) (models.ServiceRecord, error) {
	var m models.ServiceRecord
	if err := g.DB.WithContext(ctx).First(&m, id).Error; err != nil {
		return models.ServiceRecord{}, wrap(OpFindByID, storeErr(err))
	}
	return m, nil
}

// storeErr keeps the driver error and tags the two cases callers care about.
func storeErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Join(ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return errors.Join(ErrConflict, err)
	}
	return err
}
