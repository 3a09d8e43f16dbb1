package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryServiceSetGet(t *testing.T) {
	svc := NewMemoryService()

	err := svc.Set("block_key", []byte("600"), time.Minute)
	assert.NoError(t, err)

	value, err := svc.Get("block_key")
	assert.NoError(t, err)
	assert.Equal(t, []byte("600"), value)
}

func TestMemoryServiceMiss(t *testing.T) {
	svc := NewMemoryService()

	_, err := svc.Get("absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryServiceExpiration(t *testing.T) {
	svc := NewMemoryService()

	assert.NoError(t, svc.Set("short", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := svc.Get("short")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryServiceDelete(t *testing.T) {
	svc := NewMemoryService()

	assert.NoError(t, svc.Set("k", []byte("v"), time.Minute))
	assert.NoError(t, svc.Delete("k"))

	_, err := svc.Get("k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryServiceCopiesValue(t *testing.T) {
	svc := NewMemoryService()

	value := []byte("original")
	assert.NoError(t, svc.Set("k", value, time.Minute))
	value[0] = 'X'

	stored, err := svc.Get("k")
	assert.NoError(t, err)
	assert.Equal(t, []byte("original"), stored, "stored value is detached from the caller's slice")
}
