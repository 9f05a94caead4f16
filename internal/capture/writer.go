package capture

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// job is one image waiting to be encoded.
type job struct {
	name string // file name without extension
	img  image.Image
}

// Result is the outcome of writing one file.
type Result struct {
	Name    string `json:"name"`
	File    string `json:"file"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// writeAll encodes the jobs on a pool of workers. Results keep job order.
func (c *Capturer) writeAll(jobs []job) []Result {
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					logger.Infof("[%d/%d] %.1f images/sec", p, total, rate)
				}
			}
		}
	}()

	workers := c.opts.Workers
	if workers < 1 {
		workers = 1
	}
	jobChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = c.writeOne(jobs[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

func (c *Capturer) writeOne(j job) Result {
	file := j.name + "." + c.opts.Format
	res := Result{Name: j.name, File: file}

	f, err := os.Create(filepath.Join(c.opts.Dir, file))
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if err := encode(f, j.img, c.opts.Format, c.opts.Quality); err != nil {
		f.Close()
		res.Error = fmt.Sprintf("%s encode: %v", c.opts.Format, err)
		return res
	}
	if err := f.Close(); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}
