package strpool

import (
	"strings"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntern(t *testing.T) {
	p := New(0)
	a := p.Intern([]byte("names"))
	b := p.Intern([]byte("names"))
	require.Equal(t, "names", a)
	require.True(t, unsafe.StringData(a) == unsafe.StringData(b))
	require.Equal(t, 1, p.Len())
	require.Equal(t, "", p.Intern(nil))

	long := []byte(strings.Repeat("x", MaxStringLen+1))
	require.Equal(t, string(long), p.Intern(long))
	require.Equal(t, 1, p.Len())

	p.Purge()
	require.Equal(t, 0, p.Len())
}

func TestEviction(t *testing.T) {
	p := New(2)
	p.Intern([]byte("a"))
	p.Intern([]byte("b"))
	p.Intern([]byte("c"))
	require.Equal(t, 2, p.Len())
}

func TestConcurrentIntern(t *testing.T) {
	p := New(16)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s := string(rune('a' + (i+j)%26))
				assert.Equal(t, s, p.Intern([]byte(s)))
			}
		}(i)
	}
	wg.Wait()
	require.LessOrEqual(t, p.Len(), 16)
}
