package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/chores_backend/config"
)

// check uniqueness of a column value across the table, excluding the
// record itself on update
func ValidateUnique[T any](ctx context.Context, column string, value interface{}, excludeId int) error {

	db := config.GetDB()
	var v T
	var count int64
	dbCtx := db.WithContext(ctx).Model(&v).Where(column+" = ?", value)
	if excludeId > 0 {
		dbCtx = dbCtx.Where("id != ?", excludeId)
	}
	if err := dbCtx.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrorInvalidArgument
	}
	return nil
}
