package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/daruyar/daruyar_backend/config"
)

// InitializeDatabase creates the application database if it doesn't exist.
// It connects to the default 'postgres' database to create it. Called once
// during `daruyar system init`, before migrations.
func InitializeDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.Database.DBName == "" {
		return fmt.Errorf("no database name provided")
	}

	adminCfg := Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   "postgres",
		SSLMode:  cfg.Database.SSLMode,
	}

	conn, err := pgx.Connect(ctx, adminCfg.DSN())
	if err != nil {
		return fmt.Errorf("connect to postgres database: %w", err)
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`,
		cfg.Database.DBName,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check if database exists: %w", err)
	}
	if exists {
		return nil
	}

	createCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Database names cannot be parameterized.
	if _, err := conn.Exec(createCtx, fmt.Sprintf("CREATE DATABASE %s", cfg.Database.DBName)); err != nil {
		return fmt.Errorf("create database %q: %w", cfg.Database.DBName, err)
	}

	return nil
}
