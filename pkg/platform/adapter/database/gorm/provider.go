// Package gorm implements the database adapter on top of GORM. Dialects register
// themselves from their own subpackages (postgres, sqlite) through RegisterDialector.
package gorm

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"gorm.io/gorm"

	"github.com/climanegocios/platform/pkg/platform/adapter/database"
	dbconfig "github.com/climanegocios/platform/pkg/platform/adapter/database/config"
	"github.com/climanegocios/platform/pkg/platform/core/config"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

// ErrProviderTypeMismatch is returned when a connection is requested from a
// provider of another database type.
var ErrProviderTypeMismatch = errors.New("provider type mismatch")

// DialectorFactory builds the gorm.Dialector for one connection's settings.
type DialectorFactory func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error)

var dialects sync.Map // database type -> DialectorFactory

// RegisterDialector makes dbType available to Open. Dialect packages call it from init.
func RegisterDialector(dbType string, factory DialectorFactory) {
	dialects.Store(dbType, factory)
}

// DialectorFor returns the factory registered for dbType.
func DialectorFor(dbType string) (DialectorFactory, error) {
	f, ok := dialects.Load(dbType)
	if !ok {
		return nil, fmt.Errorf("no dialect registered for database type %q", dbType)
	}
	return f.(DialectorFactory), nil
}

// DecodeDatabaseConfig decodes a raw `database:` entry. Values coming from the
// environment are strings, so weak typing is enabled.
func DecodeDatabaseConfig(raw interface{}) (dbconfig.DatabaseConfig, error) {
	var out dbconfig.DatabaseConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err == nil {
		err = dec.Decode(raw)
	}
	return out, err
}

// Provider opens the configured connections of one database type lazily and
// keeps them by name.
type Provider struct {
	cfg    *config.Config
	dbType string

	mu    sync.Mutex
	conns map[string]database.DBConnection
}

// NewProvider returns a Provider for connections whose `type` is dbType.
func NewProvider(cfg *config.Config, dbType string) *Provider {
	return &Provider{cfg: cfg, dbType: dbType, conns: map[string]database.DBConnection{}}
}

func (p *Provider) Type() string { return p.dbType }

// GetConnection returns the named connection, opening it on first use.
func (p *Provider) GetConnection(name string) (database.DBConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if conn, ok := p.conns[name]; ok {
		return conn, nil
	}

	raw, ok := p.cfg.Database[name]
	if !ok {
		return nil, fmt.Errorf("database configuration '%s' not found", name)
	}
	dbConfig, err := DecodeDatabaseConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("decode database %q: %w", name, err)
	}
	if dbConfig.Type != p.dbType {
		return nil, fmt.Errorf("%w: database %q has type %q, provider handles %q", ErrProviderTypeMismatch, name, dbConfig.Type, p.dbType)
	}

	db, err := Open(dbConfig, p.cfg.System.Logging.Level)
	if err != nil {
		return nil, err
	}
	conn, err := NewGormDBAdapter(db, dbConfig, name)
	if err != nil {
		return nil, err
	}
	p.conns[name] = conn
	logger.Infof("Opened %s database %q", p.dbType, name)
	return conn, nil
}

// CloseAll closes and forgets every open connection.
func (p *Provider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var result *multierror.Error
	for name, conn := range p.conns {
		if err := conn.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %s: %w", name, err))
		}
		delete(p.conns, name)
	}
	return result.ErrorOrNil()
}

// Open establishes a GORM connection for dbConfig and applies pool settings.
// The GORM log level follows the platform level but never goes below WARN,
// so statement traces stay out of INFO logs. No connection is made until first
// use; callers that need the server wait for it themselves.
func Open(dbConfig dbconfig.DatabaseConfig, logLevel string) (*gorm.DB, error) {
	factory, err := DialectorFor(dbConfig.Type)
	if err != nil {
		return nil, err
	}
	dialector, err := factory(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("%s dialect: %w", dbConfig.Type, err)
	}

	gormLevel := "WARN"
	if logLevel == "DEBUG" {
		gormLevel = "INFO"
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               NewGormLogger(gormLevel),
		TranslateError:       true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbConfig.Type, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	pool := dbConfig.Pool
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeMinutes) * time.Minute)
	}
	return db, nil
}
