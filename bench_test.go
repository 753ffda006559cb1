// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

//go:build linux || darwin

// End-to-end benchmark runs against an in-process server.

package main

import "os"
import "path/filepath"
import "strings"
import "testing"
import "time"

import "github.com/stretchr/testify/require"

import "fxbench/fsrpc"


func startBenchServer(t *testing.T) string {
    server, err := fsrpc.StartServer("127.0.0.1:0", t.TempDir())
    require.NoError(t, err)
    t.Cleanup(server.Stop)
    return server.Address()
}


func benchJob(t *testing.T, ratios []uint64) *Job {
    return &Job{
        ServerAddr: startBenchServer(t),
        WriteRatios: ratios,
        OpenFiles: 2,
        RunTime: 500 * time.Millisecond,
        Workers: 2,
        FilePages: 4,
        Seed: 12345,
        Output: filepath.Join(t.TempDir(), "out.csv"),
    }
}


func TestRunPointReadOnly(t *testing.T) {
    job := benchJob(t, []uint64{0})
    m := CreateManager(job)

    points := job.Points()
    summary, err := m.runPoint(&points[0])
    require.NoError(t, err)

    // A pure-read mix must not record a single write.
    require.Equal(t, uint64(0), summary.Writes)
    require.Greater(t, summary.Reads, uint64(0))
    require.Equal(t, uint64(0), summary.Failures)
    require.Equal(t, uint64(0), summary.Mismatches)
    require.Empty(t, summary.Warnings)
    require.Greater(t, summary.OpsPerSec, 0.0)
    require.Greater(t, summary.LatP99Us, 0.0)
}


func TestRunPointWriteOnly(t *testing.T) {
    job := benchJob(t, []uint64{100})
    m := CreateManager(job)

    points := job.Points()
    summary, err := m.runPoint(&points[0])
    require.NoError(t, err)

    require.Equal(t, uint64(0), summary.Reads)
    require.Greater(t, summary.Writes, uint64(0))
    require.Equal(t, uint64(0), summary.Failures)
}


func TestRunPointDurationBound(t *testing.T) {
    job := benchJob(t, []uint64{50})
    m := CreateManager(job)

    points := job.Points()
    begin := time.Now()
    summary, err := m.runPoint(&points[0])
    wall := time.Since(begin)

    require.NoError(t, err)

    // The deadline is cooperative, so allow one in-flight call of overshoot -
    // generously, over loopback.
    require.Less(t, summary.Elapsed, job.RunTime + 2 * time.Second)
    require.Greater(t, wall, job.RunTime / 2)
}


func TestRunSweepWritesReport(t *testing.T) {
    job := benchJob(t, []uint64{0, 100})
    m := CreateManager(job)

    require.NoError(t, m.Run())

    contents, err := os.ReadFile(job.Output)
    require.NoError(t, err)

    lines := strings.Split(strings.TrimSpace(string(contents)), "\n")

    // A header plus one row per write ratio.
    require.Len(t, lines, 3)
    require.Contains(t, lines[0], "write_ratio")
    require.Contains(t, lines[1], "mix,0,")
    require.Contains(t, lines[2], "mix,100,")
}


func TestRunPointUnreachableServer(t *testing.T) {
    job := benchJob(t, []uint64{0})
    job.ServerAddr = "127.0.0.1:1"
    m := CreateManager(job)

    points := job.Points()
    _, err := m.runPoint(&points[0])
    require.Error(t, err)
}


func TestPoolTeardownRemovesFiles(t *testing.T) {
    server, err := fsrpc.StartServer("127.0.0.1:0", t.TempDir())
    require.NoError(t, err)
    t.Cleanup(server.Stop)

    job := benchJob(t, []uint64{0})
    job.ServerAddr = server.Address()
    m := CreateManager(job)

    points := job.Points()
    summary, err := m.runPoint(&points[0])
    require.NoError(t, err)
    require.Empty(t, summary.Warnings)

    // After teardown the pool files must be gone: a second Remove has nothing to do.
    client, err := fsrpc.Connect(server.Address(), 5 * time.Second)
    require.NoError(t, err)
    defer client.Close()

    result, err := client.Remove(poolFileName(0))
    require.NoError(t, err)
    require.Negative(t, result)
}
