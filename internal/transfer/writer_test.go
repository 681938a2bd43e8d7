package transfer

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReassemblerOrdersChunks(t *testing.T) {
	chunks := [][]byte{
		[]byte("the "),
		[]byte("quick "),
		[]byte("brown "),
		[]byte("fox"),
	}
	expected := bytes.Join(chunks, nil)

	permutations := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{2, 0, 3, 1},
		{1, 3, 0, 2},
	}

	for _, order := range permutations {
		t.Run(fmt.Sprintf("arrival %v", order), func(t *testing.T) {
			var buf bytes.Buffer
			reasm := newReassembler(&buf)
			for _, idx := range order {
				_, err := reasm.push(chunk{index: idx, data: chunks[idx]})
				require.NoError(t, err)
			}
			assert.Equal(t, expected, buf.Bytes())
			assert.Equal(t, int64(len(expected)), reasm.written)
			assert.Zero(t, reasm.buffered())
		})
	}
}

func TestReassemblerRandomArrival(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const chunkCount = 64

	var expected bytes.Buffer
	chunks := make([]chunk, chunkCount)
	for i := range chunks {
		data := make([]byte, rng.Intn(128)+1)
		rng.Read(data)
		chunks[i] = chunk{index: i, data: data}
		expected.Write(data)
	}

	for trial := 0; trial < 10; trial++ {
		order := rng.Perm(chunkCount)
		var buf bytes.Buffer
		reasm := newReassembler(&buf)
		for _, idx := range order {
			_, err := reasm.push(chunks[idx])
			require.NoError(t, err)
		}
		require.Equal(t, expected.Bytes(), buf.Bytes())
	}
}

func TestReassemblerReportsCumulativeBytes(t *testing.T) {
	var buf bytes.Buffer
	reasm := newReassembler(&buf)

	// Chunk 1 arrives first and must wait for the gap at 0.
	written, err := reasm.push(chunk{index: 1, data: []byte("bb")})
	require.NoError(t, err)
	assert.Zero(t, written)
	assert.Equal(t, 1, reasm.buffered())

	written, err = reasm.push(chunk{index: 0, data: []byte("aaa")})
	require.NoError(t, err)
	assert.Equal(t, int64(5), written)
	assert.Zero(t, reasm.buffered())
	assert.Equal(t, "aaabb", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, fmt.Errorf("disk full")
}

func TestReassemblerPropagatesWriteError(t *testing.T) {
	reasm := newReassembler(failingWriter{})
	_, err := reasm.push(chunk{index: 0, data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk 0")
}
