package db

import (
	"fmt"

	"photoshare/models"

	"gorm.io/gorm"
)

// Models - все таблицы приложения в порядке миграции
var Models = []interface{}{
	&models.User{},
	&models.UserTokens{},
	&models.PasswordResetToken{},
	&models.RelationEdge{},
	&models.Album{},
	&models.Image{},
	&models.UploadQuota{},
	&models.Comment{},
	&models.Reaction{},
	&models.Like{},
	&models.Repost{},
	&models.Report{},
}

// Migrate создает и обновляет таблицы
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	// Ограничение на самоссылки дублирует проверку в сервисах
	if db.Dialector.Name() == "postgres" {
		if err := createNoSelfEdgeConstraint(db); err != nil {
			return err
		}
	}
	return nil
}

// createNoSelfEdgeConstraint запрещает связи пользователя с самим собой
func createNoSelfEdgeConstraint(db *gorm.DB) error {
	createConstraintSQL := `
	DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'relation_edge_no_self') THEN
			ALTER TABLE relation_edge ADD CONSTRAINT relation_edge_no_self CHECK (from_user <> to_user);
		END IF;
	END
	$$;
	`
	if err := db.Exec(createConstraintSQL).Error; err != nil {
		return fmt.Errorf("failed to create constraint relation_edge_no_self: %w", err)
	}
	return nil
}
