package util

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyMutexSerializesSameKey(t *testing.T) {
	km := NewKeyMutex()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("ticket:1")
			counter++
			km.Unlock("ticket:1")
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestKeyMutexIndependentKeysDoNotBlock(t *testing.T) {
	km := NewKeyMutex()
	km.Lock("conversation:a")
	defer km.Unlock("conversation:a")

	done := make(chan struct{})
	go func() {
		km.Lock("conversation:b")
		km.Unlock("conversation:b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent key blocked behind unrelated lock")
	}
}

func TestKeyMutexDropsIdleLocks(t *testing.T) {
	km := NewKeyMutex()
	km.Lock("x")
	km.Unlock("x")

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.locks)
}

func TestKeyMutexUnlockUnheldPanics(t *testing.T) {
	km := NewKeyMutex()
	assert.Panics(t, func() { km.Unlock("never-locked") })
}
