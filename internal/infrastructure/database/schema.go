package database

import (
	"strings"

	"github.com/lib/pq"
)

// Schema is the Postgres schema holding the service's tables.
type Schema string

// Table returns the quoted, schema-qualified name of table, safe to splice
// into SQL text.
func (s Schema) Table(table string) string {
	return pq.QuoteIdentifier(string(s)) + "." + pq.QuoteIdentifier(table)
}

// Quoted returns the schema name quoted as an identifier.
func (s Schema) Quoted() string {
	return pq.QuoteIdentifier(string(s))
}

// render substitutes {{schema}} in a migration with the quoted schema name.
func (s Schema) render(sql string) string {
	return strings.ReplaceAll(sql, "{{schema}}", s.Quoted())
}
