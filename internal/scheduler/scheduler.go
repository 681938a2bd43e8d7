package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/tanq16/pahedl/internal/output"
	"github.com/tanq16/pahedl/internal/resolver"
	"github.com/tanq16/pahedl/internal/transfer"
	"github.com/tanq16/pahedl/internal/utils"
)

// Job is one mirror page to resolve and download.
type Job struct {
	ID               string
	PageURL          string
	OutputPath       string
	Connections      int
	CookieHeader     string
	HTTPClientConfig utils.HTTPClientConfig
}

func NewJob(pageURL, outputPath string, connections int) Job {
	return Job{
		ID:          uuid.NewString(),
		PageURL:     pageURL,
		OutputPath:  outputPath,
		Connections: connections,
	}
}

// Run resolves and downloads the given jobs with numWorkers jobs in flight
// at once, rendering progress through the output manager.
func Run(ctx context.Context, jobs []Job, numWorkers int) error {
	outputMgr := output.NewManager()
	outputMgr.StartDisplay()
	defer outputMgr.StopDisplay()

	jobCh := make(chan Job, len(jobs))
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	var wg sync.WaitGroup
	for range max(numWorkers, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				processJob(ctx, job, outputMgr)
			}
		}()
	}
	wg.Wait()

	// Failures are already on the manager's error report.
	if outputMgr.HasErrors() {
		return errors.New("one or more jobs failed")
	}
	return nil
}

func processJob(ctx context.Context, job Job, outputMgr *output.Manager) error {
	log := utils.GetLogger("scheduler")
	displayName := job.PageURL
	if job.OutputPath != "" {
		displayName = filepath.Base(job.OutputPath)
	}
	funcID := outputMgr.Register(displayName)

	outputMgr.SetMessage(funcID, "Resolving mirror link")
	res, err := resolver.NewResolver(resolver.Config{
		CookieHeader:     job.CookieHeader,
		HTTPClientConfig: job.HTTPClientConfig,
	})
	if err != nil {
		outputMgr.ReportError(funcID, err)
		return err
	}
	link, err := res.Resolve(ctx, job.PageURL)
	if err != nil {
		outputMgr.ReportError(funcID, err)
		return err
	}
	log.Debug().Str("job", job.ID).Str("direct", link.DirectLink).Msg("Resolved direct link")

	outputPath := job.OutputPath
	if outputPath == "" {
		outputPath = filenameFromURL(link.DirectLink)
	}
	if _, err := os.Stat(outputPath); err == nil {
		outputPath = utils.RenewOutputPath(outputPath)
	}

	events := make(chan transfer.Event, 64)
	var eventsWg sync.WaitGroup
	eventsWg.Add(1)
	go func() {
		defer eventsWg.Done()
		for ev := range events {
			outputMgr.HandleEvent(funcID, ev)
		}
	}()

	engine := transfer.NewEngine(job.HTTPClientConfig)
	err = engine.Transfer(ctx, transfer.Target{
		SourceURL:   link.DirectLink,
		Referer:     link.Referer,
		OutputPath:  outputPath,
		WorkerCount: job.Connections,
	}, events)
	close(events)
	eventsWg.Wait()

	if err != nil {
		outputMgr.ReportError(funcID, err)
		return err
	}
	outputMgr.Complete(funcID, fmt.Sprintf("Completed %s", outputPath))
	return nil
}

func filenameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Path == "" {
		return "download"
	}
	name := filepath.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "download"
	}
	return name
}
