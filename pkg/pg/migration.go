package pg

import (
	"fmt"

	_ "github.com/lib/pq"
	"github.com/nimasrn/admissions-inbox/pkg/logger"
	"github.com/pressly/goose/v3"
)

const (
	MigrateUp   = "up"
	MigrateDown = "down"
)

func Migrate(cfg Config, dir string, direction string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := newSqlConnection(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	switch direction {
	case "", MigrateUp:
		err = goose.Up(db, dir)
	case MigrateDown:
		err = goose.Down(db, dir)
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
	if err != nil {
		return err
	}

	version, err := goose.GetDBVersion(db)
	if err == nil {
		logger.Info("migrations applied", "dir", dir, "version", version)
	}
	return nil
}
