package main

import "encoding/csv"
import "fmt"
import "os"

import "fxbench/logger"


/*
 * A Report appends one CSV row per configuration point to the output file, writing a
 * header first if the file is new.
 *
 * Write errors are latched: the first failure is logged and everything after it
 * becomes a no-op, so callers don't have to error-check every row.
 */
type Report struct {
    path string
    file *os.File
    writer *csv.Writer
    err error
}


var csvHeader = []string{
    "benchmark", "write_ratio", "open_files", "workers", "run_time_secs", "elapsed_secs",
    "reads", "writes", "failures", "bytes", "ops_per_sec",
    "lat_mean_us", "lat_p50_us", "lat_p95_us", "lat_p99_us",
}


func MakeReport(path string) (*Report, error) {
    var r Report
    r.path = path

    logger.Infof("Appending results to %v\n", path)

    var err error
    r.file, err = os.OpenFile(path, os.O_APPEND | os.O_CREATE | os.O_WRONLY, 0644)
    if err != nil {
        return nil, fmt.Errorf("Failure opening output file %v: %v", path, err)
    }

    r.writer = csv.NewWriter(r.file)

    info, err := r.file.Stat()
    if err == nil && info.Size() == 0 {
        r.write(csvHeader)
    }

    return &r, nil
}


func (r *Report) AddPoint(s *PointSummary) {
    r.write([]string{
        "mix",
        fmt.Sprintf("%v", s.WriteRatio),
        fmt.Sprintf("%v", s.OpenFiles),
        fmt.Sprintf("%v", s.Workers),
        fmt.Sprintf("%v", s.RunTime.Seconds()),
        fmt.Sprintf("%.3f", s.Elapsed.Seconds()),
        fmt.Sprintf("%v", s.Reads),
        fmt.Sprintf("%v", s.Writes),
        fmt.Sprintf("%v", s.Failures),
        fmt.Sprintf("%v", s.Bytes),
        fmt.Sprintf("%.1f", s.OpsPerSec),
        fmt.Sprintf("%.1f", s.LatMeanUs),
        fmt.Sprintf("%.1f", s.LatP50Us),
        fmt.Sprintf("%.1f", s.LatP95Us),
        fmt.Sprintf("%.1f", s.LatP99Us),
    })
}


func (r *Report) Close() {
    if r.writer != nil {
        r.writer.Flush()
    }

    if r.file != nil {
        r.file.Close()
    }
}


func (r *Report) write(row []string) {
    if r.err != nil {
        return
    }

    r.err = r.writer.Write(row)
    if r.err == nil {
        r.writer.Flush()
        r.err = r.writer.Error()
    }

    if r.err != nil {
        logger.Errorf("Failure writing to %v: %v\n", r.path, r.err)
    }
}
