package wallet

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Keystore holds the node operator's keys: a badger database mapping raw
// address bytes to the 32 byte private scalar that controls them.
type Keystore struct {
	db *badger.DB
}

// OpenKeystore opens (creating if needed) the keystore under
// <datadir>/wallet.
func OpenKeystore(datadir string) (*Keystore, error) {
	path := filepath.Join(datadir, "wallet")
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := openDB(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open keystore: %w", err)
	}
	return &Keystore{db: db}, nil
}

// Create generates a fresh key pair, stores it and returns the address.
func (ks *Keystore) Create() (string, error) {
	privateKey := GeneratePrivateKey()
	address, err := AddressFromPrivate(privateKey)
	if err != nil {
		return "", err
	}
	addressRaw, _ := hex.DecodeString(address)
	privateRaw, _ := hex.DecodeString(privateKey)
	err = ks.db.Update(func(txn *badger.Txn) error {
		return txn.Set(addressRaw, privateRaw)
	})
	if err != nil {
		return "", err
	}
	return address, nil
}

// Addresses lists every stored address in key order.
func (ks *Keystore) Addresses() ([]string, error) {
	var addresses []string
	err := ks.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			addresses = append(addresses, hex.EncodeToString(it.Item().Key()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

// PrivateKey returns the stored private key for address.
func (ks *Keystore) PrivateKey(address string) (string, error) {
	if !ValidateAddress(address) {
		return "", fmt.Errorf("address not valid")
	}
	addressRaw, _ := hex.DecodeString(address)
	var privateKey string
	err := ks.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(addressRaw)
		if err != nil {
			return fmt.Errorf("address not in keystore")
		}
		return item.Value(func(val []byte) error {
			privateKey = hex.EncodeToString(val)
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return privateKey, nil
}

// Close releases the underlying database.
func (ks *Keystore) Close() error {
	return ks.db.Close()
}

// retry removes a stale LOCK file left behind by a crashed process and
// opens the database again.
func retry(dir string, originalOpts badger.Options) (*badger.DB, error) {
	lockPath := filepath.Join(dir, "LOCK")
	if err := os.Remove(lockPath); err != nil {
		return nil, fmt.Errorf("failed to remove lock file: %w", err)
	}
	retryOpts := originalOpts
	return badger.Open(retryOpts)
}

func openDB(dir string, opts badger.Options) (*badger.DB, error) {
	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "LOCK") {
			if db, err = retry(dir, opts); err == nil {
				return db, nil
			}
		}
		return nil, err
	}
	return db, nil
}
