package frame

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(id string, data ...byte) *Image {
	return NewImage(id, MediaTypePNG, 2, 1, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), data)
}

func TestStoreEmpty(t *testing.T) {
	s := NewStore()
	im, ok := s.Fetch()
	assert.False(t, ok)
	assert.Nil(t, im)
}

func TestStorePublishReplaces(t *testing.T) {
	s := NewStore()
	a := testImage("a", 1, 2, 3)
	b := testImage("b", 4, 5)

	s.Publish(a)
	got, ok := s.Fetch()
	require.True(t, ok)
	assert.Same(t, a, got)

	s.Publish(b)
	got, ok = s.Fetch()
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, []byte{4, 5}, got.Bytes())
}

func TestImageIsImmutable(t *testing.T) {
	src := []byte{1, 2, 3}
	im := testImage("x", src...)
	src[0] = 9

	out := im.Bytes()
	out[1] = 9
	assert.Equal(t, []byte{1, 2, 3}, im.Bytes())

	var buf bytes.Buffer
	n, err := im.WriteTo(&buf)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Equal(t, []byte{1, 2, 3}, buf.Bytes())

	md := im.Metadata()
	assert.Equal(t, "x", md.ID)
	assert.Equal(t, 3, md.Bytes)
	assert.Equal(t, MediaTypePNG, md.MediaType)
}

func TestStoreSubscribe(t *testing.T) {
	s := NewStore()
	id, ch := s.Subscribe()
	assert.Equal(t, 1, s.Subscribers())

	a := testImage("a", 1)
	s.Publish(a)
	select {
	case got := <-ch:
		assert.Same(t, a, got)
	case <-time.After(time.Second):
		t.Fatal("subscriber was not notified")
	}

	// a full buffer keeps the newest frame instead of blocking Publish
	s.Publish(testImage("b", 2))
	s.Publish(testImage("c", 3))
	s.Publish(testImage("d", 4))
	got := <-ch
	assert.Equal(t, "d", got.ID)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected pending frame %q", extra.ID)
	default:
	}
	current, ok := s.Fetch()
	require.True(t, ok)
	assert.Same(t, got, current)

	s.Unsubscribe(id)
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, s.Subscribers())

	// unknown ids are ignored
	s.Unsubscribe("missing")
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Publish(testImage("w", byte(i), byte(j)))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if im, ok := s.Fetch(); ok {
					assert.Equal(t, 2, im.Len())
				}
			}
		}()
	}
	wg.Wait()

	im, ok := s.Fetch()
	require.True(t, ok)
	assert.Equal(t, 2, im.Len())
}
