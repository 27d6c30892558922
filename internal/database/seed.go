package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bluetecnologia/status_admin/internal/models"
)

// SeedServices inserts the reserved general entry and the defaults below
// into an empty services table.
func SeedServices(db *gorm.DB, status string, logger *zap.Logger) error {
	var count int64
	if err := db.Model(&models.ServiceRecord{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	records := []models.ServiceRecord{
		{Name: models.ReservedServiceName, Status: status},
		{Name: "Portal do Servidor", Status: status},
		{Name: "Sistema de Atendimento", Status: status},
	}
	if err := db.Create(&records).Error; err != nil {
		return err
	}
	logger.Info("seeded services", zap.Int("count", len(records)))
	return nil
}
