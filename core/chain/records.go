package chain

import (
	"encoding/binary"
	"encoding/json"

	"go.dedis.ch/piggybank/core/access"
	"go.dedis.ch/piggybank/core/store"
	"golang.org/x/xerrors"
)

var (
	accountPrefix  = []byte("account:")
	instancePrefix = []byte("instance:")
	statePrefix    = []byte("state:")
	nextIndexKey   = []byte("meta:next_index")
)

// accountRecord is the persisted form of an account.
type accountRecord struct {
	PublicKey []byte `json:"public_key"`
	Balance   uint64 `json:"balance"`
	Nonce     uint64 `json:"nonce"`
}

// instanceRecord is the persisted form of a contract instance, without its
// state that is stored under its own key.
type instanceRecord struct {
	Contract string                `json:"contract"`
	Owner    access.AccountAddress `json:"owner"`
	Balance  uint64                `json:"balance"`
}

func accountKey(addr access.AccountAddress) []byte {
	return append(append([]byte{}, accountPrefix...), addr[:]...)
}

func indexKey(prefix []byte, index uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], index)

	return key
}

func instanceKey(index uint64) []byte {
	return indexKey(instancePrefix, index)
}

func stateKey(index uint64) []byte {
	return indexKey(statePrefix, index)
}

func readAccount(r store.Readable, addr access.AccountAddress) (accountRecord, bool, error) {
	var rec accountRecord

	data, err := r.Get(accountKey(addr))
	if err != nil {
		return rec, false, xerrors.Errorf("failed to read account: %v", err)
	}

	if data == nil {
		return rec, false, nil
	}

	err = json.Unmarshal(data, &rec)
	if err != nil {
		return rec, false, xerrors.Errorf("failed to decode account: %v", err)
	}

	return rec, true, nil
}

func writeAccount(w store.Writable, addr access.AccountAddress, rec accountRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return xerrors.Errorf("failed to encode account: %v", err)
	}

	err = w.Set(accountKey(addr), data)
	if err != nil {
		return xerrors.Errorf("failed to write account: %v", err)
	}

	return nil
}

func readInstance(r store.Readable, index uint64) (instanceRecord, bool, error) {
	var rec instanceRecord

	data, err := r.Get(instanceKey(index))
	if err != nil {
		return rec, false, xerrors.Errorf("failed to read instance: %v", err)
	}

	if data == nil {
		return rec, false, nil
	}

	err = json.Unmarshal(data, &rec)
	if err != nil {
		return rec, false, xerrors.Errorf("failed to decode instance: %v", err)
	}

	return rec, true, nil
}

// decodeInstance returns the index and the record of an instance entry of the
// database.
func decodeInstance(key, value []byte) (uint64, instanceRecord, error) {
	var rec instanceRecord

	if len(key) != len(instancePrefix)+8 {
		return 0, rec, xerrors.Errorf("malformed instance key %x", key)
	}

	err := json.Unmarshal(value, &rec)
	if err != nil {
		return 0, rec, xerrors.Errorf("failed to decode instance: %v", err)
	}

	return binary.BigEndian.Uint64(key[len(instancePrefix):]), rec, nil
}

func writeInstance(w store.Writable, index uint64, rec instanceRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return xerrors.Errorf("failed to encode instance: %v", err)
	}

	err = w.Set(instanceKey(index), data)
	if err != nil {
		return xerrors.Errorf("failed to write instance: %v", err)
	}

	return nil
}

func readNextIndex(r store.Readable) (uint64, error) {
	data, err := r.Get(nextIndexKey)
	if err != nil {
		return 0, xerrors.Errorf("failed to read index: %v", err)
	}

	if len(data) != 8 {
		return 0, nil
	}

	return binary.BigEndian.Uint64(data), nil
}

func writeNextIndex(w store.Writable, index uint64) error {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, index)

	err := w.Set(nextIndexKey, data)
	if err != nil {
		return xerrors.Errorf("failed to write index: %v", err)
	}

	return nil
}
