package chain

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/ironledger/ironledger/config"
	"github.com/ironledger/ironledger/internal/mempool"
	"github.com/ironledger/ironledger/internal/storage"
	"github.com/ironledger/ironledger/internal/utxo"
	"github.com/ironledger/ironledger/pkg/block"
	"github.com/ironledger/ironledger/pkg/tx"
	"github.com/ironledger/ironledger/pkg/types"
)

const (
	blockKeyPrefix     = "block:"
	utxoKeyPrefix      = "utxo:"
	mempoolKeyPrefix   = "mempool:"
	metaTargetKey      = "meta:target"
	metaBlockCountKey  = "meta:block_count"
	metaUTXOKeysKey    = "meta:utxo_keys"
	metaMempoolKeysKey = "meta:mempool_keys"
)

// utxoRecord is the on-disk shape of a UTXO set entry.
type utxoRecord struct {
	Marked bool      `cbor:"marked"`
	Output tx.Output `cbor:"output"`
}

// mempoolRecord is the on-disk shape of a pending mempool transaction.
type mempoolRecord struct {
	EntryTime time.Time       `cbor:"entry_time"`
	Tx        *tx.Transaction `cbor:"tx"`
}

// mempoolIndexEntry identifies one mempool key within the mempool index list.
type mempoolIndexEntry struct {
	Hash      types.Hash `cbor:"hash"`
	EntryTime time.Time  `cbor:"entry_time"`
}

func blockKey(height uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", blockKeyPrefix, height))
}

func utxoKey(hash types.Hash) []byte {
	return []byte(utxoKeyPrefix + hex.EncodeToString(hash[:]))
}

func mempoolKey(hash types.Hash, entryTime time.Time) []byte {
	return []byte(fmt.Sprintf("%s%s:%d", mempoolKeyPrefix, hex.EncodeToString(hash[:]), entryTime.UnixNano()))
}

// Store persists an Engine's state to a key-value database, using a flat
// keyspace of block, UTXO, and mempool records plus a handful of meta keys
// (current target, block count, and index lists over the UTXO and mempool
// keyspaces). The two index lists are maintained under their own mutexes so
// concurrent writers serialise independently per index.
type Store struct {
	db storage.DB

	utxoIndexMu    sync.Mutex
	mempoolIndexMu sync.Mutex
}

// NewStore wraps db with the chain's persistence keyspace.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// Save writes a full snapshot of e: every block, the complete UTXO set,
// every pending mempool entry, and the meta keys. Each index list is
// rewritten after its payload keys, under its own mutex. The two lists are
// separate puts made one after the other, not one atomic update.
func (s *Store) Save(e *Engine) error {
	e.mu.RLock()
	blocks := make([]*block.Block, len(e.blocks))
	copy(blocks, e.blocks)
	utxoEntries := e.utxos.All()
	mempoolEntries := e.pool.All()
	target := e.target
	e.mu.RUnlock()

	for height, b := range blocks {
		data, err := cbor.Marshal(b)
		if err != nil {
			return fmt.Errorf("marshal block %d: %w", height, err)
		}
		if err := s.db.Put(blockKey(uint64(height)), data); err != nil {
			return fmt.Errorf("put block %d: %w", height, err)
		}
	}

	if err := s.saveUTXOs(utxoEntries); err != nil {
		return err
	}
	if err := s.saveMempool(mempoolEntries); err != nil {
		return err
	}

	targetBytes, err := cbor.Marshal(target)
	if err != nil {
		return fmt.Errorf("marshal target: %w", err)
	}
	if err := s.db.Put([]byte(metaTargetKey), targetBytes); err != nil {
		return fmt.Errorf("put meta:target: %w", err)
	}

	countBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(countBytes, uint64(len(blocks)))
	if err := s.db.Put([]byte(metaBlockCountKey), countBytes); err != nil {
		return fmt.Errorf("put meta:block_count: %w", err)
	}

	return nil
}

// saveUTXOs persists every entry in set, plus the meta:utxo_keys index.
func (s *Store) saveUTXOs(set map[types.Hash]utxo.Entry) error {
	s.utxoIndexMu.Lock()
	defer s.utxoIndexMu.Unlock()

	keys := make([]types.Hash, 0, len(set))
	for hash, entry := range set {
		rec := utxoRecord{Marked: entry.Marked, Output: entry.Output}
		data, err := cbor.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal utxo %s: %w", hash, err)
		}
		if err := s.db.Put(utxoKey(hash), data); err != nil {
			return fmt.Errorf("put utxo %s: %w", hash, err)
		}
		keys = append(keys, hash)
	}

	indexBytes, err := cbor.Marshal(keys)
	if err != nil {
		return fmt.Errorf("marshal utxo index: %w", err)
	}
	if err := s.db.Put([]byte(metaUTXOKeysKey), indexBytes); err != nil {
		return fmt.Errorf("put meta:utxo_keys: %w", err)
	}
	return nil
}

// saveMempool persists every entry, plus the meta:mempool_keys index.
func (s *Store) saveMempool(entries []mempool.Entry) error {
	s.mempoolIndexMu.Lock()
	defer s.mempoolIndexMu.Unlock()

	index := make([]mempoolIndexEntry, 0, len(entries))
	for _, e := range entries {
		rec := mempoolRecord{EntryTime: e.EntryTime, Tx: e.Tx}
		data, err := cbor.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal mempool entry %s: %w", e.Hash, err)
		}
		key := mempoolKey(e.Hash, e.EntryTime)
		if err := s.db.Put(key, data); err != nil {
			return fmt.Errorf("put mempool entry %s: %w", e.Hash, err)
		}
		index = append(index, mempoolIndexEntry{Hash: e.Hash, EntryTime: e.EntryTime})
	}

	indexBytes, err := cbor.Marshal(index)
	if err != nil {
		return fmt.Errorf("marshal mempool index: %w", err)
	}
	if err := s.db.Put([]byte(metaMempoolKeysKey), indexBytes); err != nil {
		return fmt.Errorf("put meta:mempool_keys: %w", err)
	}
	return nil
}

// Load replays a persisted chain: blocks are fed through AddBlock one at a
// time (so every block is revalidated, rebuilding the UTXO set and
// retargeting incrementally exactly as the running node did originally),
// then mempool entries are replayed best-effort against the resulting UTXO
// set, with failures silently dropped. The persisted meta:target is not
// consulted: replaying every retarget boundary through AddBlock reproduces
// it deterministically, and doing so is the correctness check that the
// persisted chain is actually well-formed.
func Load(db storage.DB) (*Engine, error) {
	s := NewStore(db)

	countBytes, err := db.Get([]byte(metaBlockCountKey))
	if err != nil {
		return nil, fmt.Errorf("no persisted chain found: %w", err)
	}
	if len(countBytes) != 8 {
		return nil, fmt.Errorf("corrupt meta:block_count")
	}
	count := binary.BigEndian.Uint64(countBytes)
	if count == 0 {
		return nil, fmt.Errorf("persisted chain has zero blocks")
	}

	utxos := utxo.NewSet()
	e := &Engine{
		utxos:  utxos,
		pool:   mempool.New(utxos),
		target: config.MinTarget,
	}

	for height := uint64(0); height < count; height++ {
		data, err := db.Get(blockKey(height))
		if err != nil {
			return nil, fmt.Errorf("load block %d: %w", height, err)
		}
		var b block.Block
		if err := cbor.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("unmarshal block %d: %w", height, err)
		}
		if err := e.AddBlock(&b); err != nil {
			return nil, fmt.Errorf("replay block %d: %w", height, err)
		}
	}

	s.replayMempool(e)
	return e, nil
}

// replayMempool best-effort re-admits persisted mempool entries. A
// transaction that no longer validates against the rebuilt UTXO set (its
// input was since spent, for instance) is silently dropped, per the
// restoration semantics.
func (s *Store) replayMempool(e *Engine) {
	indexBytes, err := s.db.Get([]byte(metaMempoolKeysKey))
	if err != nil {
		return
	}
	var index []mempoolIndexEntry
	if err := cbor.Unmarshal(indexBytes, &index); err != nil {
		return
	}

	for _, entry := range index {
		key := mempoolKey(entry.Hash, entry.EntryTime)
		data, err := s.db.Get(key)
		if err != nil {
			continue
		}
		var rec mempoolRecord
		if err := cbor.Unmarshal(data, &rec); err != nil {
			continue
		}
		e.mu.Lock()
		_, _ = e.pool.Add(rec.Tx, rec.EntryTime)
		e.mu.Unlock()
	}
}
