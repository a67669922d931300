package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/tolelom/snakegame/core"
)

const (
	prefixAccount    = "acct:"
	prefixPlayer     = "player:"
	prefixRound      = "round:"
	prefixGlobal     = "global:"
	prefixBalance    = "bal:"
	prefixSupply     = "supply:"
	prefixCollection = "coll:"
	prefixNft        = "nft:"
	prefixOwned      = "own:"
)

const keyGlobal = prefixGlobal + "state"

// Numeric key components are zero-padded so lexical order matches numeric order.
func padID(n uint64) string {
	return fmt.Sprintf("%020d", n)
}

func roundKey(n uint64) string { return prefixRound + padID(n) }
func balanceKey(token, owner string) string { return prefixBalance + token + ":" + owner }
func nftKey(coll string, id uint64) string { return prefixNft + coll + ":" + padID(id) }
func ownedPrefix(coll, owner string) string { return prefixOwned + coll + ":" + owner + ":" }

type stateSnapshot struct {
	dirty   map[string][]byte
	deleted map[string]bool
}

// StateDB implements core.State on top of a DB with in-memory write buffer,
// snapshot/rollback, and a deterministic state root.
type StateDB struct {
	db        DB
	dirty     map[string][]byte
	deleted   map[string]bool
	snapshots []stateSnapshot
}

// NewStateDB creates a StateDB backed by db.
func NewStateDB(db DB) *StateDB {
	return &StateDB{
		db:      db,
		dirty:   make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

// ---- internal helpers ----

func (s *StateDB) get(key string) ([]byte, error) {
	if s.deleted[key] {
		return nil, core.ErrNotFound
	}
	if v, ok := s.dirty[key]; ok {
		return v, nil
	}
	return s.db.Get([]byte(key))
}

func (s *StateDB) set(key string, val []byte) {
	delete(s.deleted, key)
	s.dirty[key] = val
}

func (s *StateDB) del(key string) {
	delete(s.dirty, key)
	s.deleted[key] = true
}

// getJSON decodes key into v. found is false when the key is absent.
func (s *StateDB) getJSON(key string, v any) (found bool, err error) {
	data, err := s.get(key)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *StateDB) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.set(key, data)
	return nil
}

func (s *StateDB) getUint(key string) (uint64, error) {
	data, err := s.get(key)
	if errors.Is(err, core.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(string(data), 10, 64)
}

func (s *StateDB) setUint(key string, n uint64) {
	if n == 0 {
		s.del(key)
		return
	}
	s.set(key, []byte(strconv.FormatUint(n, 10)))
}

// keys returns every live key under prefix, merging the DB with the write
// buffer, sorted ascending.
func (s *StateDB) keys(prefix string) ([]string, error) {
	seen := make(map[string]bool)
	it := s.db.NewIterator([]byte(prefix))
	for it.Next() {
		seen[string(it.Key())] = true
	}
	it.Release()
	if err := it.Error(); err != nil {
		return nil, err
	}
	for k := range s.dirty {
		if strings.HasPrefix(k, prefix) {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		if !s.deleted[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ---- Account ----

func (s *StateDB) GetAccount(address string) (*core.Account, error) {
	acc := &core.Account{Address: address}
	if _, err := s.getJSON(prefixAccount+address, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *StateDB) SetAccount(acc *core.Account) error {
	return s.setJSON(prefixAccount+acc.Address, acc)
}

// ---- Player ----

func (s *StateDB) GetPlayer(address string) (*core.Player, error) {
	p := &core.Player{Address: address}
	if _, err := s.getJSON(prefixPlayer+address, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *StateDB) SetPlayer(p *core.Player) error {
	return s.setJSON(prefixPlayer+p.Address, p)
}

// ---- Round / Global ----

func (s *StateDB) GetRound(number uint64) (*core.GameRound, error) {
	var r core.GameRound
	found, err := s.getJSON(roundKey(number), &r)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("round %d: %w", number, core.ErrNotFound)
	}
	return &r, nil
}

func (s *StateDB) SetRound(r *core.GameRound) error {
	return s.setJSON(roundKey(r.Number), r)
}

func (s *StateDB) GetGlobal() (*core.GlobalState, error) {
	g := &core.GlobalState{}
	if _, err := s.getJSON(keyGlobal, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *StateDB) SetGlobal(g *core.GlobalState) error {
	return s.setJSON(keyGlobal, g)
}

// ---- Fungible tokens ----

func (s *StateDB) GetTokenBalance(token, owner string) (uint64, error) {
	return s.getUint(balanceKey(token, owner))
}

func (s *StateDB) SetTokenBalance(token, owner string, amount uint64) error {
	s.setUint(balanceKey(token, owner), amount)
	return nil
}

func (s *StateDB) GetTokenSupply(token string) (uint64, error) {
	return s.getUint(prefixSupply + token)
}

func (s *StateDB) SetTokenSupply(token string, amount uint64) error {
	s.setUint(prefixSupply+token, amount)
	return nil
}

// ---- NFTs ----

func (s *StateDB) GetCollection(id string) (*core.Collection, error) {
	c := &core.Collection{ID: id, NextID: 1}
	if _, err := s.getJSON(prefixCollection+id, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *StateDB) SetCollection(c *core.Collection) error {
	return s.setJSON(prefixCollection+c.ID, c)
}

func (s *StateDB) GetNft(collection string, id uint64) (*core.Nft, error) {
	var n core.Nft
	found, err := s.getJSON(nftKey(collection, id), &n)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("nft %s#%d: %w", collection, id, core.ErrNotFound)
	}
	return &n, nil
}

// SetNft stores n and keeps the owner index in sync when ownership changes.
func (s *StateDB) SetNft(n *core.Nft) error {
	prev, err := s.GetNft(n.Collection, n.ID)
	switch {
	case err == nil:
		if prev.Owner != n.Owner {
			s.del(ownedPrefix(n.Collection, prev.Owner) + padID(n.ID))
		}
	case !errors.Is(err, core.ErrNotFound):
		return err
	}
	if err := s.setJSON(nftKey(n.Collection, n.ID), n); err != nil {
		return err
	}
	s.set(ownedPrefix(n.Collection, n.Owner)+padID(n.ID), []byte{1})
	return nil
}

func (s *StateDB) DeleteNft(collection string, id uint64) error {
	n, err := s.GetNft(collection, id)
	if err != nil {
		return err
	}
	s.del(ownedPrefix(collection, n.Owner) + padID(id))
	s.del(nftKey(collection, id))
	return nil
}

func (s *StateDB) OwnedNfts(collection, owner string) ([]uint64, error) {
	prefix := ownedPrefix(collection, owner)
	keys, err := s.keys(prefix)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(keys))
	for _, k := range keys {
		id, err := strconv.ParseUint(strings.TrimPrefix(k, prefix), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("owner index %q: %w", k, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ---- Snapshot / Rollback / Commit ----

// Snapshot saves the current write buffer and returns a snapshot ID.
func (s *StateDB) Snapshot() (int, error) {
	snap := stateSnapshot{
		dirty:   make(map[string][]byte, len(s.dirty)),
		deleted: make(map[string]bool, len(s.deleted)),
	}
	for k, v := range s.dirty {
		snap.dirty[k] = bytes.Clone(v)
	}
	for k, v := range s.deleted {
		snap.deleted[k] = v
	}
	s.snapshots = append(s.snapshots, snap)
	return len(s.snapshots) - 1, nil
}

// RevertToSnapshot restores the write buffer to a previously saved snapshot
// and discards it together with every later snapshot.
func (s *StateDB) RevertToSnapshot(id int) error {
	if id < 0 || id >= len(s.snapshots) {
		return fmt.Errorf("invalid snapshot id %d", id)
	}
	snap := s.snapshots[id]
	s.dirty = snap.dirty
	s.deleted = snap.deleted
	s.snapshots = s.snapshots[:id]
	return nil
}

// StateRoot hashes every live entry, write buffer included, in key order.
// Keys and values are length-prefixed so adjacent entries cannot alias.
func (s *StateDB) StateRoot() (string, error) {
	keys, err := s.keys("")
	if err != nil {
		return "", err
	}
	h := sha256.New()
	var n [8]byte
	for _, k := range keys {
		v, err := s.get(k)
		if err != nil {
			return "", fmt.Errorf("state root: %s: %w", k, err)
		}
		binary.BigEndian.PutUint64(n[:], uint64(len(k)))
		h.Write(n[:])
		io.WriteString(h, k)
		binary.BigEndian.PutUint64(n[:], uint64(len(v)))
		h.Write(n[:])
		h.Write(v)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Commit atomically flushes the write buffer to the underlying DB via a
// batch and then clears it. On failure the buffer is kept intact so the
// caller can revert it.
func (s *StateDB) Commit() error {
	batch := s.db.NewBatch()
	for k, v := range s.dirty {
		batch.Set([]byte(k), v)
	}
	for k := range s.deleted {
		batch.Delete([]byte(k))
	}
	if err := batch.Write(); err != nil {
		return err
	}
	s.dirty = make(map[string][]byte)
	s.deleted = make(map[string]bool)
	s.snapshots = nil
	return nil
}
