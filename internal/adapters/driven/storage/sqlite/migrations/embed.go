// Package migrations holds the schema for SRD versions, ingestion jobs and
// the retrieval cache.
package migrations

import "embed"

// FS is applied in filename order by the store on open.
//
//go:embed *.sql
var FS embed.FS
