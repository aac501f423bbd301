// Package repository provides the query layer over the entities package.
//
// Each entity family has an interface and a GORM implementation. Repositories
// bundles them, and Transaction hands the callback a bundle bound to a single
// database transaction, so callers compose several repository calls atomically:
//
//	err := repos.Transaction(ctx, func(tx *repository.Repositories) error {
//	    rec, err := tx.Recordings.LockTextRecording(ctx, id)
//	    ...
//	})
package repository
