package interpreter

import (
	"fmt"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// dbRecord is the canned record shape returned by Database.get/get_all
// (spec.md §6.2): id, name, and a password hash, msgpack-encoded into the
// backing fastcache the way Coffer encodes cached assets.
type dbRecord struct {
	ID     string `msgpack:"id"`
	Name   string `msgpack:"name"`
	PwHash string `msgpack:"pw_hash"`
}

// Database is the DSL's canned, never-blocking data built-in (spec.md §5):
// it never performs real I/O. Records live in a fastcache.Cache keyed by
// the xxhash of their id, the same cache/hash pairing the teacher's asset
// cache (coffer.go) uses for byte-addressed lookups, repurposed here for
// small record storage instead of HTTP assets.
type Database struct {
	cache *fastcache.Cache
	order []string
}

// NewDatabase returns a Database preseeded with a small demo dataset, since
// the built-in is specified to return canned results rather than connect
// to a real store.
func NewDatabase() *Database {
	d := &Database{cache: fastcache.New(1 << 16)}
	d.put(dbRecord{ID: "1", Name: "ada", PwHash: "f1d2d2f924e986ac86fdf7b36c94bcdf32beec15"})
	d.put(dbRecord{ID: "2", Name: "grace", PwHash: "6b86b273ff34fce19d6b804eff5a3f5747ada4eaa22f1d49c01e52ddb7875b4b"})
	return d
}

func (d *Database) key(id string) []byte {
	h := xxhash.Sum64String(id)
	return []byte(fmt.Sprintf("db:%x", h))
}

func (d *Database) put(rec dbRecord) {
	b, err := msgpack.Marshal(rec)
	if err != nil {
		return
	}
	d.cache.Set(d.key(rec.ID), b)
	d.order = append(d.order, rec.ID)
}

func (d *Database) get(id string) (dbRecord, bool) {
	raw, ok := d.cache.HasGet(nil, d.key(id))
	if !ok {
		return dbRecord{}, false
	}
	var rec dbRecord
	if err := msgpack.Unmarshal(raw, &rec); err != nil {
		return dbRecord{}, false
	}
	return rec, true
}

// CallMethod dispatches a Database.<name>(args) invocation.
func (d *Database) CallMethod(name string, args []string) (string, error) {
	switch name {
	case "check":
		return "true", nil
	case "get_all":
		names := make([]string, len(d.order))
		for i, id := range d.order {
			rec, _ := d.get(id)
			names[i] = rec.Name
		}
		return encodeJSONArray(names)
	case "get":
		if len(args) != 1 {
			return "", runtimeErrorf("Database.get expects 1 argument, got %d", len(args))
		}
		id := args[0]
		if id == "0" {
			return "", runtimeErrorf("User with id=0 not found")
		}
		rec, ok := d.get(id)
		if !ok {
			return "", runtimeErrorf("User with id=%s not found", id)
		}
		return fmt.Sprintf(`{"id":%q,"name":%q}`, rec.ID, rec.Name), nil
	case "add":
		if len(args) != 3 {
			return "", runtimeErrorf("Database.add expects 3 arguments, got %d", len(args))
		}
		d.put(dbRecord{ID: args[0], Name: args[1], PwHash: args[2]})
		return "true", nil
	default:
		return "", runtimeErrorf("Database has no method %q", name)
	}
}
