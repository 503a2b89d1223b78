package db

import "io/fs"

// migrationsFS returns the embedded SQL files rooted at the migrations dir.
func migrationsFS() (fs.FS, error) {
	return fs.Sub(migrations, migrationsDir)
}
