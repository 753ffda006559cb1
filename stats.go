package main

import "fmt"
import "time"

import "github.com/montanaflynn/stats"


/*
 * Everything we report for one configuration point, folded together from the
 * per-worker counters after all workers have stopped.
 */
type PointSummary struct {
    WriteRatio uint64
    OpenFiles int
    Workers int
    RunTime time.Duration

    // Wall clock actually elapsed: earliest worker start to latest worker stop.
    Elapsed time.Duration

    Reads uint64
    Writes uint64
    Failures uint64
    Mismatches uint64
    Bytes uint64

    // Successful operations per second of elapsed wall time.
    OpsPerSec float64

    // Latency of successful operations, microseconds.
    LatMeanUs float64
    LatP50Us float64
    LatP95Us float64
    LatP99Us float64

    Warnings []string
}


func SummarizePoint(point *BenchmarkPoint, counters []*WorkerCounters) *PointSummary {
    s := PointSummary{
        WriteRatio: point.WriteRatio,
        OpenFiles: point.OpenFiles,
        Workers: point.Workers,
        RunTime: point.RunTime,
    }

    var first, last time.Time
    var samples []float64

    for _, c := range counters {
        s.Reads += c.Reads
        s.Writes += c.Writes
        s.Failures += c.Failures
        s.Mismatches += c.Mismatches
        s.Bytes += c.ReadBytes + c.WriteBytes
        samples = append(samples, c.Latencies...)

        if c.Start.IsZero() {
            // The worker never ran; nothing to fold in.
            continue
        }

        if first.IsZero() || c.Start.Before(first) {
            first = c.Start
        }

        if c.Stop.After(last) {
            last = c.Stop
        }

        if c.TransportErr != nil {
            s.Warnings = append(s.Warnings, fmt.Sprintf("Worker aborted on transport failure: %v", c.TransportErr))
        }
    }

    if s.Mismatches > 0 {
        s.Warnings = append(s.Warnings, fmt.Sprintf("%v reads returned corrupt pages", s.Mismatches))
    }

    if !first.IsZero() {
        s.Elapsed = last.Sub(first)
    }

    if s.Elapsed > 0 {
        s.OpsPerSec = float64(s.Reads + s.Writes) / s.Elapsed.Seconds()
    }

    if len(samples) > 0 {
        // stats only errors on empty input, which we have just excluded.
        s.LatMeanUs, _ = stats.Mean(samples)
        s.LatP50Us, _ = stats.Percentile(samples, 50)
        s.LatP95Us, _ = stats.Percentile(samples, 95)
        s.LatP99Us, _ = stats.Percentile(samples, 99)
    }

    return &s
}


func (s *PointSummary) String() string {
    return fmt.Sprintf("[ratio %3v] ops: %v (%v reads, %v writes),  fails: %v,  %.0f ops/s,  %vB moved,  lat p50/p95/p99: %.0f/%.0f/%.0f us",
        s.WriteRatio, s.Reads + s.Writes, s.Reads, s.Writes, s.Failures, s.OpsPerSec,
        ToUnits(s.Bytes), s.LatP50Us, s.LatP95Us, s.LatP99Us)
}


/* Convert values into K, M, G etc. units. */
func ToUnits(val uint64) string {
    const unit = 1024

    if val < unit {
        return fmt.Sprintf("%d ", val)
    }

    div, exp := uint64(unit), 0

    for n := val / unit; n >= unit; n /= unit {
        div *= unit
        exp++
    }

    return fmt.Sprintf("%.1f %c", float64(val) / float64(div), "KMGTPE"[exp])
}
