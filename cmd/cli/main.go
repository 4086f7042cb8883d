package main

import (
	"os"
	"strings"

	"github.com/nimasrn/admissions-inbox/internal/config"
	"github.com/nimasrn/admissions-inbox/pkg/logger"
	"github.com/nimasrn/admissions-inbox/pkg/pg"
)

// main.go migrate [up|down] --env=.env --dir=./migrations
func main() {
	err := config.Load(getEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 || os.Args[1] != "migrate" {
		logger.Error("usage: cli migrate [up|down] [--env=path] [--dir=path]")
		os.Exit(2)
	}
	direction := pg.MigrateUp
	if len(os.Args) > 2 && !strings.HasPrefix(os.Args[2], "--") {
		direction = os.Args[2]
	}

	err = pg.Migrate(config.Get().PostgresWrite(), getMigrationPath(), direction)
	if err != nil {
		logger.Error("migration: error running migrations", "error", err)
		os.Exit(1)
	}
}

func getEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	if _, err := os.Open(".env"); err != nil {
		return ""
	}
	return ".env"
}

func getMigrationPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--dir=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the migrations dir, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return config.Get().MigrationsDir
}
