package output

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tanq16/pahedl/internal/transfer"
)

func TestManagerTracksJobLifecycle(t *testing.T) {
	m := NewManager()
	id := m.Register("ep01.mp4")

	total := int64(100)
	m.HandleEvent(id, transfer.Started{TotalBytes: &total})
	m.HandleEvent(id, transfer.Progress{DownloadedBytes: 40, TotalBytes: &total, Elapsed: time.Second})
	assert.Equal(t, "downloading", m.jobs[id].Status)
	assert.Equal(t, int64(40), m.jobs[id].Downloaded)
	assert.Equal(t, int64(100), m.jobs[id].Total)

	m.HandleEvent(id, transfer.Finished{DownloadedBytes: 100, Elapsed: 2 * time.Second})
	assert.Equal(t, "done", m.jobs[id].Status)
	assert.Equal(t, int64(100), m.jobs[id].Downloaded)
	assert.False(t, m.HasErrors())
}

func TestManagerReportsErrors(t *testing.T) {
	m := NewManager()
	id := m.Register("ep02.mp4")
	assert.False(t, m.HasErrors())

	m.ReportError(id, errors.New("resolution failed"))
	assert.True(t, m.HasErrors())
	assert.Equal(t, "error", m.jobs[id].Status)
}
