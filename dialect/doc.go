// Package dialect names the SQL dialects the model can be exported to.
//
//	dialect.SQLite   = "sqlite"
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//
// The names double as database/sql driver names: "sqlite" is registered by
// modernc.org/sqlite, "postgres" by github.com/lib/pq and "mysql" by
// github.com/go-sql-driver/mysql.
package dialect
