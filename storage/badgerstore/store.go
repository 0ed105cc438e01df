// Package badgerstore persists encoded histograms in a local badger
// database, keyed by estimate name.
package badgerstore

import (
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	metrics "github.com/rcrowley/go-metrics"
)

var ErrKeyNotFound = errors.New("badgerstore: key not found")

type Stats struct {
	puts metrics.Timer
	gets metrics.Timer
}

type Store struct {
	db    *badger.DB
	stats *Stats
}

type Options struct {
	Path string
}

func NewStore(path string) (*Store, error) {
	return NewStoreOpts(&Options{Path: path})
}

func NewStoreOpts(opts *Options) (*Store, error) {
	options := badger.DefaultOptions(opts.Path).WithLogger(nil)
	db, err := badger.Open(options)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		puts: metrics.NewTimer(),
		gets: metrics.NewTimer(),
	}
	metrics.GetOrRegister("badger.put", stats.puts)
	metrics.GetOrRegister("badger.get", stats.gets)

	return &Store{db: db, stats: stats}, nil
}

func (s *Store) Put(key, value []byte) error {
	ts := time.Now()
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	s.stats.puts.UpdateSince(ts)
	return err
}

func (s *Store) Get(key []byte) ([]byte, error) {
	ts := time.Now()
	defer s.stats.gets.UpdateSince(ts)
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) Delete(key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
