package main

import "time"


/* A Job describes a whole sweep: the shared settings plus one benchmark point per write ratio. */
type Job struct {
    // The server we should talk to.
    ServerAddr string

    // The write ratios to sweep, one configuration point each.
    WriteRatios []uint64

    // Settings shared by every point.
    OpenFiles int
    RunTime time.Duration
    Workers int
    FilePages int
    Seed int64

    // Where the CSV results go.
    Output string
}


/*
 * One configuration point: a single run of the whole pipeline (pool, workers, teardown).
 * Immutable once handed to the workers.
 */
type BenchmarkPoint struct {
    WriteRatio uint64
    OpenFiles int
    RunTime time.Duration
    Workers int
    FilePages int
    Seed int64
}


func (j *Job) Points() []BenchmarkPoint {
    points := make([]BenchmarkPoint, 0, len(j.WriteRatios))

    for _, ratio := range j.WriteRatios {
        points = append(points, BenchmarkPoint{
            WriteRatio: ratio,
            OpenFiles: j.OpenFiles,
            RunTime: j.RunTime,
            Workers: j.Workers,
            FilePages: j.FilePages,
            Seed: j.Seed,
        })
    }

    return points
}
