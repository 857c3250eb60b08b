// Package testdb provides utilities for tests that need a real PostgreSQL
// database: connection setup gated on an environment variable, schema
// migration, and transaction-scoped isolation so parallel tests never see
// each other's rows.
package testdb
