package migrations

import (
	_ "embed"

	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_users.sql
var createUsersSQL string

//go:embed 0002_create_scores.sql
var createScoresSQL string

var Migrations = migrate.NewMigrations()
