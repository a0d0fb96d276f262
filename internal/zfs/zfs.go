// Package zfs defines the storage primitives used by zfs-pruner and their
// implementation on top of the zfs command line tool.
package zfs

import "context"

// Lister returns the raw snapshot listing for a volume and its descendants,
// one record per line.
type Lister interface {
	ListSnapshots(ctx context.Context, volume string) ([]string, error)
}

// Destroyer irreversibly deletes one snapshot.
type Destroyer interface {
	DestroySnapshot(ctx context.Context, name string) error
}

// Client is both primitives.
type Client interface {
	Lister
	Destroyer
}
