// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package main

import "fmt"
import "sync"
import "time"

import "golang.org/x/sys/unix"

import "fxbench/fsrpc"
import "fxbench/logger"


/*
 * The Manager owns the benchmark lifecycle. It runs the whole pipeline once per write
 * ratio in the sweep: build a fresh pool of open files on the server, turn the workers
 * loose on it for the configured duration, tear the pool down, and fold the worker
 * counters into one summary per point.
 *
 * A point that fails during setup is skipped and the sweep moves on to the next ratio.
 */
type Manager struct {
    job *Job
}


func CreateManager(job *Job) *Manager {
    return &Manager{job: job}
}


func (m *Manager) Run() error {
    report, err := MakeReport(m.job.Output)
    if err != nil {
        return err
    }
    defer report.Close()

    var failedPoints int

    for _, point := range m.job.Points() {
        point := point

        fmt.Printf("Running point: write-ratio=%v open-files=%v workers=%v run-time=%v\n",
            point.WriteRatio, point.OpenFiles, point.Workers, point.RunTime)

        summary, err := m.runPoint(&point)
        if err != nil {
            // Setup failure: this point is dead, the rest of the sweep is not.
            logger.Errorf("Skipping point with write-ratio=%v: %v\n", point.WriteRatio, err)
            failedPoints++
            continue
        }

        fmt.Printf("%v\n", summary.String())

        for _, warning := range summary.Warnings {
            logger.Warnf("%v\n", warning)
        }

        report.AddPoint(summary)
    }

    if failedPoints == len(m.job.WriteRatios) {
        return fmt.Errorf("All %v configuration points failed", failedPoints)
    }

    return nil
}


/* Run one configuration point end to end and summarize it. */
func (m *Manager) runPoint(point *BenchmarkPoint) (*PointSummary, error) {
    setup, err := fsrpc.Connect(m.job.ServerAddr, 30 * time.Second)
    if err != nil {
        return nil, fmt.Errorf("Failure connecting to %v: %v", m.job.ServerAddr, err)
    }
    defer setup.Close()

    pool, err := m.buildPool(setup, point)
    if err != nil {
        return nil, err
    }

    workers := make([]*Worker, 0, point.Workers)
    for id := 0; id < point.Workers; id++ {
        w, err := NewWorker(id, m.job.ServerAddr, point, pool)
        if err != nil {
            m.teardownPool(setup, point, pool)
            return nil, fmt.Errorf("Failure creating worker %v: %v", id, err)
        }
        workers = append(workers, w)
    }

    // Let them loose, all against the same deadline.
    deadline := time.Now().Add(point.RunTime)

    var wg sync.WaitGroup
    for _, w := range workers {
        wg.Add(1)
        go func(w *Worker) {
            defer wg.Done()
            w.Run(deadline)
        }(w)
    }
    wg.Wait()

    warnings := m.teardownPool(setup, point, pool)

    counters := make([]*WorkerCounters, 0, len(workers))
    for _, w := range workers {
        counters = append(counters, w.Counters())
    }

    summary := SummarizePoint(point, counters)
    summary.Warnings = append(summary.Warnings, warnings...)
    return summary, nil
}


/*
 * Open the shared file pool and pre-populate each file's extent, sequentially. Any
 * failure aborts the point: the benchmark must never run against a short pool.
 */
func (m *Manager) buildPool(setup *fsrpc.Client, point *BenchmarkPoint) ([]int32, error) {
    pool := make([]int32, 0, point.OpenFiles)
    page := make([]byte, PageSize)
    for i := range page {
        page[i] = fillByte
    }

    for i := 0; i < point.OpenFiles; i++ {
        name := poolFileName(i)

        fd, err := setup.Open(name, unix.O_CREAT | unix.O_RDWR, 0700)
        if err == nil && fd < 0 {
            err = fmt.Errorf("Open %v failed with %v", name, fd)
        }
        if err != nil {
            m.teardownPool(setup, point, pool)
            return nil, err
        }

        pool = append(pool, fd)

        for p := 0; p < point.FilePages; p++ {
            result, err := setup.Pwrite(fd, page, int64(p) * PageSize)
            if err == nil && result != PageSize {
                err = fmt.Errorf("Short populate write on %v: %v", name, result)
            }
            if err != nil {
                m.teardownPool(setup, point, pool)
                return nil, err
            }
        }
    }

    logger.Infof("Pool ready: %v files of %v pages\n", point.OpenFiles, point.FilePages)
    return pool, nil
}


/*
 * Close every pool descriptor and remove the files. Failures here are recorded but do
 * not fail the run - the measurements are already taken.
 */
func (m *Manager) teardownPool(setup *fsrpc.Client, point *BenchmarkPoint, pool []int32) []string {
    var warnings []string

    for i, fd := range pool {
        result, err := setup.CloseFd(fd)
        if err != nil {
            warnings = append(warnings, fmt.Sprintf("Transport failure closing fd %v: %v", fd, err))
            continue
        }

        if result < 0 {
            warnings = append(warnings, fmt.Sprintf("Close of %v failed with %v", poolFileName(i), result))
        }

        result, err = setup.Remove(poolFileName(i))
        if err != nil {
            warnings = append(warnings, fmt.Sprintf("Transport failure removing %v: %v", poolFileName(i), err))
        } else if result < 0 {
            warnings = append(warnings, fmt.Sprintf("Remove of %v failed with %v", poolFileName(i), result))
        }
    }

    return warnings
}


func poolFileName(i int) string {
    return fmt.Sprintf("file%v.txt", i)
}
