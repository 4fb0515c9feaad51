package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	InsertRun(ctx context.Context, db *gorm.DB, run *SyncRun) error
	ListRuns(ctx context.Context, db *gorm.DB, limit int) ([]SyncRun, error)
}
