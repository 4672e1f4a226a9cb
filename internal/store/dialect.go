package store

import (
	"embed"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// dialect captures what differs between the two backends.
type dialect struct {
	name       string
	driverName string
	schema     string

	// dollarParams rewrites ? placeholders as $1, $2, ...
	dollarParams bool
}

func dialectFor(driver string) (dialect, error) {
	var d dialect
	switch driver {
	case DriverPostgres:
		d = dialect{name: DriverPostgres, driverName: "postgres", dollarParams: true}
	case DriverSQLite:
		d = dialect{name: DriverSQLite, driverName: "sqlite"}
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}

	schema, err := migrationsFS.ReadFile("migrations/" + d.name + ".sql")
	if err != nil {
		return dialect{}, fmt.Errorf("read embedded schema for %s: %w", d.name, err)
	}
	d.schema = string(schema)
	return d, nil
}

// dsn adjusts a data source name for the driver. SQLite connections get
// foreign key enforcement and a busy timeout on every new connection.
func (d dialect) dsn(dsn string) string {
	if d.name != DriverSQLite || strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// rebind converts ? placeholders for drivers that need numbered ones.
func (d dialect) rebind(query string) string {
	if !d.dollarParams {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
