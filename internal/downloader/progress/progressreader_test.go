package progress

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunked returns at most size bytes per Read.
type chunked struct {
	r    io.Reader
	size int
}

func (c *chunked) Read(p []byte) (int, error) {
	if len(p) > c.size {
		p = p[:c.size]
	}

	return c.r.Read(p)
}

func TestReader_ReportsEveryStep(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 100)

	var reports []int64

	pr := NewReader(&chunked{r: bytes.NewReader(data), size: 10}, 100, 0, 25, func(read, total int64) {
		assert.Equal(t, int64(100), total)
		reports = append(reports, read)
	})

	n, err := io.Copy(io.Discard, pr)
	require.NoError(t, err)

	assert.Equal(t, int64(100), n)
	assert.Equal(t, int64(100), pr.BytesRead())
	assert.Equal(t, []int64{30, 50, 80, 100}, reports)
}

func TestReader_ReportsEveryIntervalWhenTotalUnknown(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 50)

	var reports []int64

	pr := NewReader(&chunked{r: bytes.NewReader(data), size: 10}, 0, 20, 5, func(read, _ int64) {
		reports = append(reports, read)
	})

	_, err := io.Copy(io.Discard, pr)
	require.NoError(t, err)

	assert.Equal(t, []int64{20, 40}, reports)
}

func TestReader_NilCallback(t *testing.T) {
	pr := NewReader(bytes.NewReader([]byte("abc")), 3, 1, 1, nil)

	got, err := io.ReadAll(pr)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
