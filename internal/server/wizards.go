package server

import (
	"sync"

	"zipli/internal/wizard"

	"github.com/sirupsen/logrus"
)

// wizardCache hands out one wizard store per user, rehydrating from the
// snapshot backend on first access. The wizard is single-writer per user;
// the cache only guards its own map.
type wizardCache struct {
	mu     sync.Mutex
	byUser map[string]*wizard.Store
	snaps  wizard.Snapshots
	logger logrus.FieldLogger
}

func newWizardCache(snaps wizard.Snapshots, logger logrus.FieldLogger) *wizardCache {
	return &wizardCache{
		byUser: make(map[string]*wizard.Store),
		snaps:  snaps,
		logger: logger,
	}
}

func (c *wizardCache) For(userID string) *wizard.Store {
	c.mu.Lock()
	defer c.mu.Unlock()

	if store, ok := c.byUser[userID]; ok {
		return store
	}

	store := wizard.Open(userID, c.snaps, c.logger)
	c.byUser[userID] = store
	return store
}
