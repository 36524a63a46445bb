package postgres

import gormadapter "github.com/climanegocios/platform/pkg/platform/adapter/database/gorm"

// Module registers the PostgreSQL provider for the default connection.
var Module = gormadapter.Dialect(NewProvider)
