package ports

import "github.com/netopsctl/nbsync/domain/entities"

// SyncService defines the port for device synchronization
type SyncService interface {
	Sync() (entities.SyncReport, error)
}
