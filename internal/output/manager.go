package output

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tanq16/pahedl/internal/transfer"
)

type jobOutput struct {
	Name       string
	Status     string // pending, downloading, done, error
	Message    string
	Downloaded int64
	Total      int64 // -1 when unknown
	Elapsed    time.Duration
	Err        error
}

type ErrorReport struct {
	JobName string
	Error   error
	Time    time.Time
}

// Manager renders one line per registered job, redrawing on a ticker. It is
// the single observer of each job's transfer event stream.
type Manager struct {
	mutex       sync.RWMutex
	jobs        []*jobOutput
	errors      []ErrorReport
	doneCh      chan struct{}
	displayWg   sync.WaitGroup
	displayTick time.Duration
	lastLines   int
}

func NewManager() *Manager {
	return &Manager{
		doneCh:      make(chan struct{}),
		displayTick: 300 * time.Millisecond,
	}
}

func (m *Manager) Register(name string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.jobs = append(m.jobs, &jobOutput{
		Name:   name,
		Status: "pending",
		Total:  -1,
	})
	return len(m.jobs) - 1
}

func (m *Manager) SetMessage(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.jobs[id].Message = message
}

// HandleEvent folds a transfer event into the job's display state.
func (m *Manager) HandleEvent(id int, ev transfer.Event) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	job := m.jobs[id]
	switch e := ev.(type) {
	case transfer.Started:
		job.Status = "downloading"
		job.Downloaded = 0
		if e.TotalBytes != nil {
			job.Total = *e.TotalBytes
		}
	case transfer.Progress:
		job.Status = "downloading"
		job.Downloaded = e.DownloadedBytes
		job.Elapsed = e.Elapsed
		if e.TotalBytes != nil {
			job.Total = *e.TotalBytes
		}
	case transfer.Finished:
		job.Status = "done"
		job.Downloaded = e.DownloadedBytes
		job.Elapsed = e.Elapsed
	}
}

func (m *Manager) ReportError(id int, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	job := m.jobs[id]
	job.Status = "error"
	job.Err = err
	m.errors = append(m.errors, ErrorReport{JobName: job.Name, Error: err, Time: time.Now()})
}

func (m *Manager) Complete(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.jobs[id].Status = "done"
	m.jobs[id].Message = message
}

func (m *Manager) HasErrors() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.errors) > 0
}

func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-m.doneCh:
				m.draw()
				return
			case <-ticker.C:
				m.draw()
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
	m.printErrors()
}

func (m *Manager) draw() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if len(m.jobs) == 0 {
		return
	}
	var b strings.Builder
	if m.lastLines > 0 {
		fmt.Fprintf(&b, "\033[%dA\033[J", m.lastLines)
	}
	for _, job := range m.jobs {
		b.WriteString(m.renderLine(job))
		b.WriteString("\n")
	}
	m.lastLines = len(m.jobs)
	fmt.Print(b.String())
}

func (m *Manager) renderLine(job *jobOutput) string {
	name := job.Name
	if maxName := getTerminalWidth() / 3; len(name) > maxName && maxName > 4 {
		name = name[:maxName-3] + "..."
	}
	switch job.Status {
	case "done":
		detail := FormatBytes(uint64(job.Downloaded))
		if job.Elapsed > 0 {
			detail += " in " + job.Elapsed.Round(time.Second).String()
		}
		return fmt.Sprintf("%s %s %s", successStyle.Render(StyleSymbols["pass"]), name, debugStyle.Render(detail))
	case "error":
		return fmt.Sprintf("%s %s %s", errorStyle.Render(StyleSymbols["fail"]), name, errorStyle.Render("failed"))
	case "downloading":
		speed := FormatSpeed(job.Downloaded, job.Elapsed.Seconds())
		if job.Total > 0 {
			bar := ProgressBar(job.Downloaded, job.Total, 30)
			return fmt.Sprintf("%s %s %s%s/%s %s", pendingStyle.Render(StyleSymbols["pending"]), name, bar,
				FormatBytes(uint64(job.Downloaded)), FormatBytes(uint64(job.Total)), debugStyle.Render(speed))
		}
		return fmt.Sprintf("%s %s %s %s", pendingStyle.Render(StyleSymbols["pending"]), name,
			FormatBytes(uint64(job.Downloaded)), debugStyle.Render(speed))
	default:
		message := job.Message
		if message == "" {
			message = "waiting"
		}
		return fmt.Sprintf("%s %s %s", pendingStyle.Render(StyleSymbols["pending"]), name, debugStyle.Render(message))
	}
}

func (m *Manager) printErrors() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if len(m.errors) == 0 {
		return
	}
	fmt.Println()
	PrintHeader("Errors")
	for _, report := range m.errors {
		PrintError(fmt.Sprintf("%s %s: %v", StyleSymbols["fail"], report.JobName, report.Error))
	}
}
