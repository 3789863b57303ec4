package utils

import "sync"

// Memo holds a value computed on first use. The first Get runs compute once,
// every later Get, from any goroutine, observes the stored value.
type Memo[T any] struct {
	once  sync.Once
	value T
}

func (m *Memo[T]) Get(compute func() T) T {
	m.once.Do(func() {
		m.value = compute()
	})
	return m.value
}
