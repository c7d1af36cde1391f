// Package migrations applies the embedded schema for both backends:
// the ClickHouse candle history and the PostgreSQL scan tables.
package migrations

import "embed"

//go:embed postgres/*.sql
var postgresFS embed.FS

//go:embed clickhouse/*.sql
var clickhouseFS embed.FS
