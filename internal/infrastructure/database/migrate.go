package database

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate runs all pending up migrations on every partition. It is called
// at serve start so a fresh deployment bootstraps its own schema.
func (db *DB) Migrate() error {
	for name, conn := range db.Partitions() {
		m, closeMigrator, err := db.migrator(conn, name)
		if err != nil {
			return fmt.Errorf("migrate %s partition: %w", name, err)
		}
		err = m.Up()
		closeErr := closeMigrator()
		if err != nil && err != migrate.ErrNoChange {
			return fmt.Errorf("migrate %s partition: %w", name, err)
		}
		if closeErr != nil {
			return fmt.Errorf("close %s migrator: %w", name, closeErr)
		}
	}

	return nil
}

// MigrateDown rolls back every partition completely.
func (db *DB) MigrateDown() error {
	for name, conn := range db.Partitions() {
		m, closeMigrator, err := db.migrator(conn, name)
		if err != nil {
			return fmt.Errorf("migrate %s partition: %w", name, err)
		}
		err = m.Down()
		closeMigrator()
		if err != nil && err != migrate.ErrNoChange {
			return fmt.Errorf("rollback %s partition: %w", name, err)
		}
	}

	return nil
}

// MigrationVersions reports the current migration version per partition.
func (db *DB) MigrationVersions() (map[string]uint, error) {
	versions := make(map[string]uint, 3)
	for name, conn := range db.Partitions() {
		m, closeMigrator, err := db.migrator(conn, name)
		if err != nil {
			return nil, fmt.Errorf("migrate %s partition: %w", name, err)
		}
		version, _, err := m.Version()
		closeMigrator()
		if err != nil && err != migrate.ErrNilVersion {
			return nil, fmt.Errorf("version of %s partition: %w", name, err)
		}
		versions[name] = version
	}

	return versions, nil
}

// migrator builds a migrate instance over the embedded SQL for one
// partition, plus the close function appropriate for its driver. The
// migration files are split per driver because the id columns differ
// (AUTOINCREMENT vs BIGSERIAL).
//
// The close functions differ on purpose: the postgres migrate driver only
// releases the single connection it checked out, but the sqlite migrate
// driver's Close shuts down the *sql.DB it was handed. That would be the
// partition's own live pool, so the sqlite path must never call
// migrate.Migrate.Close and releases only the embedded source instead.
func (db *DB) migrator(conn *sqlx.DB, partition string) (*migrate.Migrate, func() error, error) {
	dsns := map[string]string{
		PartitionUsers:    db.config.UsersDSN,
		PartitionTasks:    db.config.TasksDSN,
		PartitionSpending: db.config.SpendingDSN,
	}
	driverName := DriverFor(dsns[partition])

	src, err := iofs.New(migrationsFS, fmt.Sprintf("migrations/%s/%s", driverName, partition))
	if err != nil {
		return nil, nil, fmt.Errorf("create iofs source: %w", err)
	}

	switch driverName {
	case "postgres":
		driver, err := postgres.WithInstance(conn.DB, &postgres.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("create postgres driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
		if err != nil {
			return nil, nil, err
		}
		closeMigrator := func() error {
			srcErr, dbErr := m.Close()
			if srcErr != nil {
				return srcErr
			}
			return dbErr
		}
		return m, closeMigrator, nil
	default:
		driver, err := sqlite.WithInstance(conn.DB, &sqlite.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("create sqlite driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
		if err != nil {
			return nil, nil, err
		}
		return m, src.Close, nil
	}
}
