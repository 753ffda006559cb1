// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package main

import "math/rand"
import "time"

import "fxbench/fsrpc"
import "fxbench/logger"


/* Every transfer in the mix is one page. */
const PageSize = 1024

/* Pool files are pre-populated with this byte, and writes repeat it, so every read can be verified. */
const fillByte = 0xb


/*
 * WorkerCounters is owned exclusively by its worker while the run is live, and only
 * read by the aggregation code after the worker has stopped.
 */
type WorkerCounters struct {
    Reads uint64
    Writes uint64
    ReadBytes uint64
    WriteBytes uint64
    Failures uint64
    Mismatches uint64
    Start time.Time
    Stop time.Time

    // One sample per successful operation, in microseconds.
    Latencies []float64

    // Set if the worker aborted on a transport failure.
    TransportErr error
}


/*
 * A Worker drives the actual benchmark load: a plain sequential loop issuing one page
 * read or write per iteration against a random descriptor from the shared pool, until
 * its deadline passes.
 *
 * The operation mix policy is fixed for reproducibility:
 *   - descriptors are chosen uniformly at random from the pool;
 *   - an iteration writes with probability writeRatio/100, otherwise it reads;
 *   - all transfers are positional, one page, at a uniformly random page-aligned
 *     offset within the pre-populated extent.
 *
 * Each worker owns its rand.Rand (seeded from the job seed and its id) and its own
 * connection to the server, so workers never share a request stream.
 */
type Worker struct {
    id int
    point *BenchmarkPoint
    pool []int32
    client *fsrpc.Client
    rng *rand.Rand
    page []byte
    counters WorkerCounters
}


func NewWorker(id int, serverAddr string, point *BenchmarkPoint, pool []int32) (*Worker, error) {
    logger.Debugf("[worker %v] connecting to %v\n", id, serverAddr)

    client, err := fsrpc.Connect(serverAddr, 0)
    if err != nil {
        logger.Errorf("[worker %v] failure during connect: %v\n", id, err)
        return nil, err
    }

    var w Worker
    w.id = id
    w.point = point
    w.pool = pool
    w.client = client
    w.rng = rand.New(rand.NewSource(point.Seed + int64(id)))
    w.page = make([]byte, PageSize)
    for i := range w.page {
        w.page[i] = fillByte
    }

    return &w, nil
}


/*
 * Run the load loop until the deadline. The deadline is cooperative: we finish the
 * operation in flight, so the overshoot is bounded by one call's latency.
 */
func (w *Worker) Run(deadline time.Time) {
    defer w.client.Close()

    w.counters.Start = time.Now()

    for time.Now().Before(deadline) {
        fd := w.pool[w.rng.Intn(len(w.pool))]
        offset := int64(w.rng.Intn(w.point.FilePages)) * PageSize
        isWrite := uint64(w.rng.Intn(100)) < w.point.WriteRatio

        var result int32
        var page []byte
        var err error

        start := time.Now()
        if isWrite {
            result, err = w.client.Pwrite(fd, w.page, offset)
        } else {
            result, page, err = w.client.Pread(fd, PageSize, offset)
        }
        elapsed := time.Since(start)

        if err != nil {
            // The round trip itself broke; this worker is done, the others carry on.
            logger.Warnf("[worker %v] transport failure, aborting: %v\n", w.id, err)
            w.counters.TransportErr = err
            break
        }

        if result < 0 {
            // The remote syscall failed. That is data, not a reason to stop.
            logger.Debugf("[worker %v] operation failed with %v\n", w.id, result)
            w.counters.Failures++
            continue
        }

        if isWrite {
            w.counters.Writes++
            w.counters.WriteBytes += uint64(result)
        } else {
            w.counters.Reads++
            w.counters.ReadBytes += uint64(result)

            // Every page in the pool holds the fill byte, whether it came from the
            // pre-population or from another worker's write, so a read that returns
            // anything else has been corrupted somewhere along the way.
            if !w.verifyPage(page, result) {
                w.counters.Mismatches++
            }
        }

        w.counters.Latencies = append(w.counters.Latencies, float64(elapsed.Microseconds()))
    }

    w.counters.Stop = time.Now()

    logger.Debugf("[worker %v] stopped: %v reads, %v writes, %v failures\n",
        w.id, w.counters.Reads, w.counters.Writes, w.counters.Failures)
}


func (w *Worker) verifyPage(page []byte, result int32) bool {
    if int(result) != len(page) || result != PageSize {
        return false
    }

    for _, b := range page {
        if b != fillByte {
            return false
        }
    }

    return true
}


// Counters - Report our counters. Only valid once Run has returned.
func (w *Worker) Counters() *WorkerCounters {
    return &w.counters
}
