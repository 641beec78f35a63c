package storage

// Storage defines interface for any object storage.
// GetDirty does not clear dirty flags; callers clear the keys they actually
// persisted with ClearDirty, so a failed flush retries on the next cycle.
type Storage[K comparable, V any] interface {
	Set(key K, value V)
	Get(key K) (V, bool)
	Delete(key K) bool
	GetAll() map[K]V
	GetAllValues() []V
	GetDirty() map[K]V
	ClearDirty(keys []K)
	ForEach(fn func(key K, value V) bool)
	Count() int
}
