package storage

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/rds-go/pkg/storage/dbconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dbSetup struct {
	name   string
	create func(testing.TB) Store
}

type dbTestFunction func(*testing.T, Store)

func newMemoryStoreForTesting(t testing.TB) Store {
	return NewMemoryStore()
}

func newBoltStoreForTesting(t testing.TB) Store {
	testFileName := filepath.Join(t.TempDir(), "sub", "test_bolt_db")
	boltDBStore, err := NewBoltDBStore(dbconfig.BoltDBOptions{FilePath: testFileName})
	require.NoError(t, err)
	return boltDBStore
}

func newLevelDBForTesting(t testing.TB) Store {
	newLevelStore, err := NewLevelDBStore(dbconfig.LevelDBOptions{DataDirectoryPath: t.TempDir()})
	require.NoError(t, err)
	return newLevelStore
}

func testStoreGetNonExistent(t *testing.T, s Store) {
	_, err := s.Get([]byte("sparse"))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func testStorePutGetDelete(t *testing.T, s Store) {
	key := DataValue.Key("x")
	require.NoError(t, s.PutChangeSet(map[string][]byte{string(key): []byte("value")}))

	v, err := s.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("value"), v)

	require.NoError(t, s.PutChangeSet(map[string][]byte{string(key): nil}))
	_, err = s.Get(key)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func pushSeekDataSet(t *testing.T, s Store) []KeyValue {
	kvs := []KeyValue{
		{[]byte("10"), []byte("bar")},
		{[]byte("11"), []byte("bara")},
		{[]byte("20"), []byte("barb")},
		{[]byte("21"), []byte("barc")},
		{[]byte("22"), []byte("bard")},
		{[]byte("30"), []byte("bare")},
		{[]byte("31"), []byte("barf")},
	}
	puts := make(map[string][]byte)
	for _, kv := range kvs {
		puts[string(kv.Key)] = kv.Value
	}
	require.NoError(t, s.PutChangeSet(puts))
	return kvs
}

func testStoreSeek(t *testing.T, s Store) {
	kvs := pushSeekDataSet(t, s)
	check := func(t *testing.T, rng SeekRange, expected []KeyValue, limit int) {
		actual := make([]KeyValue, 0, len(expected))
		s.Seek(rng, func(k, v []byte) bool {
			actual = append(actual, KeyValue{
				Key:   bytes.Clone(k),
				Value: bytes.Clone(v),
			})
			return limit == 0 || len(actual) < limit
		})
		assert.Equal(t, expected, actual)
	}

	testCases := []struct {
		name     string
		rng      SeekRange
		expected []KeyValue
		limit    int
	}{
		{"prefix", SeekRange{Prefix: []byte("2")}, kvs[2:5], 0},
		{"prefix backwards", SeekRange{Prefix: []byte("2"), Backwards: true}, []KeyValue{kvs[4], kvs[3], kvs[2]}, 0},
		{"prefix and start", SeekRange{Prefix: []byte("2"), Start: []byte("1")}, kvs[3:5], 0},
		{"prefix and start backwards", SeekRange{Prefix: []byte("2"), Start: []byte("1"), Backwards: true}, []KeyValue{kvs[3], kvs[2]}, 0},
		{"missing start", SeekRange{Prefix: []byte("1"), Start: []byte("5")}, []KeyValue{}, 0},
		{"missing prefix", SeekRange{Prefix: []byte("4")}, []KeyValue{}, 0},
		{"last prefix backwards", SeekRange{Prefix: []byte("3"), Backwards: true}, []KeyValue{kvs[6], kvs[5]}, 0},
		{"everything", SeekRange{}, kvs, 0},
		{"everything backwards", SeekRange{Backwards: true}, []KeyValue{kvs[6], kvs[5], kvs[4], kvs[3], kvs[2], kvs[1], kvs[0]}, 0},
		{"early stop", SeekRange{Prefix: []byte("2")}, kvs[2:3], 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			check(t, tc.rng, tc.expected, tc.limit)
		})
	}
}

func TestAllDBs(t *testing.T) {
	var dbSetups = []dbSetup{
		{"BoltDB", newBoltStoreForTesting},
		{"LevelDB", newLevelDBForTesting},
		{"Memory", newMemoryStoreForTesting},
	}
	var tests = []dbTestFunction{testStoreGetNonExistent, testStorePutGetDelete, testStoreSeek}
	for _, db := range dbSetups {
		for _, test := range tests {
			s := db.create(t)
			t.Run(db.name, func(t *testing.T) {
				test(t, s)
			})
			require.NoError(t, s.Close())
		}
	}
}

func TestNewStore(t *testing.T) {
	d := t.TempDir()
	cfgs := []dbconfig.DBConfiguration{
		{Type: dbconfig.InMemoryDB},
		{Type: dbconfig.BoltDB, BoltDBOptions: dbconfig.BoltDBOptions{FilePath: filepath.Join(d, "bolt.db")}},
		{Type: dbconfig.LevelDB, LevelDBOptions: dbconfig.LevelDBOptions{DataDirectoryPath: filepath.Join(d, "level")}},
	}
	for _, cfg := range cfgs {
		t.Run(cfg.Type, func(t *testing.T) {
			s, err := NewStore(cfg)
			require.NoError(t, err)
			require.NoError(t, s.Close())
		})
	}

	_, err := NewStore(dbconfig.DBConfiguration{Type: "redis"})
	require.Error(t, err)
}

func TestBoltDBReadOnly(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "bolt.db")
	s, err := NewBoltDBStore(dbconfig.BoltDBOptions{FilePath: fileName})
	require.NoError(t, err)
	require.NoError(t, s.PutChangeSet(map[string][]byte{"k": []byte("v")}))
	require.NoError(t, s.Close())

	ro, err := NewBoltDBStore(dbconfig.BoltDBOptions{FilePath: fileName, ReadOnly: true})
	require.NoError(t, err)
	defer ro.Close()
	v, err := ro.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)
	require.Error(t, ro.PutChangeSet(map[string][]byte{"k": nil}))
}

func TestLevelDBReadOnlyMissing(t *testing.T) {
	_, err := NewLevelDBStore(dbconfig.LevelDBOptions{
		DataDirectoryPath: filepath.Join(t.TempDir(), "absent"),
		ReadOnly:          true,
	})
	require.Error(t, err)
}

func TestKeyPrefix(t *testing.T) {
	require.Equal(t, []byte{0x01}, DataValue.Bytes())
	require.Equal(t, []byte{0x02, 'a', 'b'}, DataEnv.Key("ab"))
}
