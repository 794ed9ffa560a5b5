// Package database provides the SQLite-backed persistence layer.
//
// The root package opens the connection and migrates the schema. Each
// collection gets its own repository subpackage (users, books, loans,
// reservations, audit). Repositories are constructed around whatever
// *gorm.DB handle they are given, so the lending workflow can rebind them
// to a transaction handle and have every write in an operation commit or
// roll back together.
package database
