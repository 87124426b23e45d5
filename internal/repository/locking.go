package repository

import (
	"gorm.io/gorm/clause"
)

// lockingClause SELECT ... FOR UPDATE（SQLite 测试库忽略该子句）
func lockingClause() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}
