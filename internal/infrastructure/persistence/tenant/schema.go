// Package tenant implements schema-per-tenant isolation on PostgreSQL:
// deriving schema names, routing pooled connections to a schema on every
// checkout, and provisioning schemas with their migration scripts.
package tenant

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidSchemaName is returned for names that are not safe PostgreSQL identifiers
var ErrInvalidSchemaName = errors.New("tenant: invalid schema name")

var schemaNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// digestLength is the number of hex characters of the email digest kept in a schema name
const digestLength = 32

// SchemaName derives the schema of the tenant owned by email. The same email
// always yields the same name, so any service can recompute it without a lookup.
func SchemaName(prefix, email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return prefix + hex.EncodeToString(sum[:])[:digestLength]
}

// ValidateSchemaName rejects names that could not be used unquoted or that
// collide with PostgreSQL's reserved pg_ namespace.
func ValidateSchemaName(name string) error {
	if !schemaNamePattern.MatchString(name) || strings.HasPrefix(name, "pg_") {
		return fmt.Errorf("%w: %q", ErrInvalidSchemaName, name)
	}
	return nil
}

// quoteIdent quotes a validated identifier
func quoteIdent(name string) string {
	return `"` + name + `"`
}
