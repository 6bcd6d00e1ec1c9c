package cache

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	require.NotNil(t, c)
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCache_PutAndGet(t *testing.T) {
	c := NewMemoryCache()

	c.Put("hound", []string{"afghan", "basset"})

	value, found := c.Get("hound")
	require.True(t, found)
	assert.Equal(t, []string{"afghan", "basset"}, value)
	assert.Equal(t, 1, c.Size())
	assert.True(t, c.Contains("hound"))
}

func TestMemoryCache_Get_NotFound(t *testing.T) {
	c := NewMemoryCache()

	value, found := c.Get("cat")
	assert.False(t, found)
	assert.Nil(t, value)
	assert.False(t, c.Contains("cat"))
}

func TestMemoryCache_Put_Overwrite(t *testing.T) {
	c := NewMemoryCache()

	c.Put("hound", []string{"afghan"})
	c.Put("hound", []string{"basset"})

	value, found := c.Get("hound")
	require.True(t, found)
	assert.Equal(t, []string{"basset"}, value)
	assert.Equal(t, 1, c.Size())
}

func TestMemoryCache_Put_CopiesInput(t *testing.T) {
	c := NewMemoryCache()
	input := []string{"afghan", "basset"}

	c.Put("hound", input)
	input[0] = "mutated"

	value, _ := c.Get("hound")
	assert.Equal(t, []string{"afghan", "basset"}, value)
}

func TestMemoryCache_Get_ReturnsCopy(t *testing.T) {
	c := NewMemoryCache()
	c.Put("hound", []string{"afghan", "basset"})

	first, _ := c.Get("hound")
	first[0] = "mutated"
	_ = append(first[:1], "appended")

	second, _ := c.Get("hound")
	assert.Equal(t, []string{"afghan", "basset"}, second)
}

func TestMemoryCache_EmptyList(t *testing.T) {
	c := NewMemoryCache()

	c.Put("pug", nil)

	value, found := c.Get("pug")
	require.True(t, found)
	assert.NotNil(t, value)
	assert.Empty(t, value)
}

func TestMemoryCache_EmptyKey(t *testing.T) {
	c := NewMemoryCache()

	c.Put("", []string{"x"})

	value, found := c.Get("")
	require.True(t, found)
	assert.Equal(t, []string{"x"}, value)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryCache()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Put("breed-"+strconv.Itoa(n), []string{"a", "b", "c"})
			}
		}(i)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if v, ok := c.Get("breed-" + strconv.Itoa(n)); ok {
					assert.Len(t, v, 3)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, c.Size())
}
