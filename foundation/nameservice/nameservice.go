// Package nameservice maps reward public keys to readable names so block
// rewards can be reported by miner name.
package nameservice

import (
	"fmt"
	"io/fs"
	"maps"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/ardanlabs/blocksim/foundation/blockchain/wallet"
)

// NameService maintains a map of public keys for name lookup.
type NameService struct {
	mu    sync.RWMutex
	names map[database.PubKey]string
}

// New constructs an empty name service.
func New() *NameService {
	return &NameService{
		names: make(map[database.PubKey]string),
	}
}

// Load constructs a name service with the keys found in the folder. Each
// .ecdsa file is named after the miner holding it.
func Load(wctx *wallet.Context, root string) (*NameService, error) {
	ns := New()

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		w, err := wctx.Load(fileName)
		if err != nil {
			return err
		}

		ns.Add(w.PubKey(), strings.TrimSuffix(path.Base(fileName), ".ecdsa"))

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return ns, nil
}

// Add records the name for the specified key.
func (ns *NameService) Add(pk database.PubKey, name string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	ns.names[pk] = name
}

// Lookup returns the name for the specified key, or the key itself when
// no name is known.
func (ns *NameService) Lookup(pk database.PubKey) string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	name, exists := ns.names[pk]
	if !exists {
		return pk.String()
	}
	return name
}

// Copy returns a copy of the map of keys and names.
func (ns *NameService) Copy() map[database.PubKey]string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	return maps.Clone(ns.names)
}
