// Package migrations embeds the SQL scripts shipped with the binary.
//
// Control scripts build the shared control plane (principals, tenants) and
// are applied once per database by cmd/migrate. Tenant scripts build the
// finance tables and are applied once per tenant schema by the provisioner,
// or once to the default schema when isolation runs in owner mode.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed control/*.sql tenant/*.sql
var files embed.FS

// Control returns the control-plane scripts.
func Control() fs.FS {
	return sub("control")
}

// Tenant returns the per-tenant scripts.
func Tenant() fs.FS {
	return sub("tenant")
}

func sub(dir string) fs.FS {
	f, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return f
}
