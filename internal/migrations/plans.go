package migrations

import (
	"database/sql"
)

// GetPlanMigrations returns the migrations for the plan journal
func GetPlanMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_plans_table",
			Up: func(tx *sql.Tx) error {
				return execAll(tx, `
					CREATE TABLE plans (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						environment TEXT NOT NULL,
						vm_name TEXT NOT NULL,
						vm_id INTEGER NOT NULL CHECK (vm_id > 0),
						fqdn TEXT NOT NULL DEFAULT '',
						document TEXT NOT NULL,
						created_at DATETIME DEFAULT CURRENT_TIMESTAMP
					)
				`)
			},
			Down: func(tx *sql.Tx) error {
				return execAll(tx, `DROP TABLE plans`)
			},
		},
		{
			Version: 2,
			Name:    "add_plans_indexes",
			Up: func(tx *sql.Tx) error {
				return execAll(tx,
					`CREATE INDEX idx_plans_vm_name ON plans(vm_name, id)`,
					`CREATE INDEX idx_plans_environment ON plans(environment)`,
				)
			},
			Down: func(tx *sql.Tx) error {
				return execAll(tx,
					`DROP INDEX IF EXISTS idx_plans_vm_name`,
					`DROP INDEX IF EXISTS idx_plans_environment`,
				)
			},
		},
	}
}
