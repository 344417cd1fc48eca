package db

import (
	"context"
	"fmt"

	"network/config"
	"network/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// Manager owns the gorm connection. Reads go to replicas when any are
// configured, writes always go to the master.
type Manager struct {
	ORM *gorm.DB
}

func dsnFromConfig(dbConf config.DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.Port, dbConf.User, dbConf.Password, dbConf.DBName,
	)
}

func dialector(dbConf config.DBConfig) (gorm.Dialector, error) {
	switch dbConf.Driver {
	case "postgres", "":
		return postgres.Open(dsnFromConfig(dbConf)), nil
	case "sqlite":
		return sqlite.Open(dbConf.Path), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", dbConf.Driver)
	}
}

// Connect opens the master connection, registers replicas and migrates
// the schema.
func Connect(conf *config.ConfigSchema) (*Manager, error) {
	if conf == nil {
		return nil, fmt.Errorf("AppConfig is not loaded")
	}

	master, err := dialector(conf.Databases.Master)
	if err != nil {
		return nil, err
	}

	orm, err := gorm.Open(master, &gorm.Config{
		Logger:         newGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if conf.Databases.Master.Driver == "sqlite" {
		// a single connection keeps in-memory databases alive and
		// serialises writers
		sqlDB, err := orm.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	replicas := make([]gorm.Dialector, 0, len(conf.Databases.Replicas))
	for _, r := range conf.Databases.Replicas {
		d, err := dialector(r)
		if err != nil {
			return nil, err
		}
		replicas = append(replicas, d)
	}
	if len(replicas) > 0 {
		err = orm.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, err
		}
		logger.L.Info("database replicas registered", zap.Int("count", len(replicas)))
	}

	m := &Manager{ORM: orm}
	if err := m.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.L.Info("connected to database", zap.String("driver", conf.Databases.Master.Driver))
	return m, nil
}

// OpenSQLite connects to a sqlite DSN with foreign keys on; used by the
// dev config and by tests.
func OpenSQLite(dsn string) (*Manager, error) {
	conf := &config.ConfigSchema{}
	conf.Databases.Master = config.DBConfig{Driver: "sqlite", Path: dsn}
	return Connect(conf)
}

// Read returns a handle for read queries (replicas when configured).
func (m *Manager) Read(ctx context.Context) *gorm.DB {
	return m.ORM.WithContext(ctx).Clauses(dbresolver.Read)
}

// Write returns a handle for writes (master).
func (m *Manager) Write(ctx context.Context) *gorm.DB {
	return m.ORM.WithContext(ctx).Clauses(dbresolver.Write)
}

func (m *Manager) Close() error {
	sqlDB, err := m.ORM.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
