package storage

import "github.com/azure/review-analyzer/internal/config"

// New picks the configured backend: Azure Blob when an account is set,
// otherwise a local directory. It returns nil, nil when neither is configured.
func New(cfg *config.Config) (StorageInterface, error) {
	switch {
	case cfg.StorageAccount != "":
		return NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer)
	case cfg.SnapshotDir != "":
		return NewLocalStorage(cfg.SnapshotDir)
	default:
		return nil, nil
	}
}
