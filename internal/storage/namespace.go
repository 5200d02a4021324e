package storage

// Namespace scopes a DB to the keys under "<name>/". Keys passed in and
// handed to callbacks are relative to the namespace.
type Namespace struct {
	db     DB
	prefix []byte
}

// NewNamespace returns the name namespace of db.
func NewNamespace(db DB, name string) *Namespace {
	return &Namespace{db: db, prefix: []byte(name + "/")}
}

func (n *Namespace) key(k []byte) []byte {
	out := make([]byte, 0, len(n.prefix)+len(k))
	return append(append(out, n.prefix...), k...)
}

// Get returns the value stored under k, or ErrNotFound.
func (n *Namespace) Get(k []byte) ([]byte, error) { return n.db.Get(n.key(k)) }

// Put stores value under k.
func (n *Namespace) Put(k, value []byte) error { return n.db.Put(n.key(k), value) }

// Has reports whether k is stored.
func (n *Namespace) Has(k []byte) (bool, error) { return n.db.Has(n.key(k)) }

// ForEach calls fn for every key in the namespace starting with prefix.
func (n *Namespace) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return n.db.ForEach(n.key(prefix), func(key, value []byte) error {
		return fn(key[len(n.prefix):], value)
	})
}

// DeletePrefix removes every key in the namespace starting with prefix in
// one batch. A nil prefix empties the namespace.
func (n *Namespace) DeletePrefix(prefix []byte) error {
	var keys [][]byte
	err := n.db.ForEach(n.key(prefix), func(key, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil || len(keys) == 0 {
		return err
	}

	batch := n.db.NewBatch()
	for _, k := range keys {
		if err := batch.Delete(k); err != nil {
			batch.Cancel()
			return err
		}
	}
	return batch.Commit()
}

// NewBatch returns a batch whose keys are relative to the namespace.
func (n *Namespace) NewBatch() Batch {
	return &namespaceBatch{ns: n, inner: n.db.NewBatch()}
}

type namespaceBatch struct {
	ns    *Namespace
	inner Batch
}

func (b *namespaceBatch) Put(k, value []byte) error { return b.inner.Put(b.ns.key(k), value) }

func (b *namespaceBatch) Delete(k []byte) error { return b.inner.Delete(b.ns.key(k)) }

func (b *namespaceBatch) Commit() error { return b.inner.Commit() }

func (b *namespaceBatch) Cancel() { b.inner.Cancel() }
