// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package main

import "fmt"
import "math"
import "strconv"
import "strings"


/*
 * All the configuration parameters we can be given on the command line, bound by docopt.
 *
 * These are not thread-safe: we rely on the fact that we only ever set the values in
 * main, and then only read them after that.
 */
type Config struct {
    Server bool
    Run bool
    Port int
    Dir string
    Host string
    WriteRatios string
    OpenFiles int
    RunTime int
    Workers int
    Pages int
    Seed int
    Output string
    LogLevel string
}


func validateConfig(conf *Config) error {
    if (conf.Port <= 0) || (conf.Port > int(math.MaxUint16)) {
        return fmt.Errorf("Port not in range: %v", conf.Port)
    }

    if conf.Run {
        if _, err := parseWriteRatios(conf.WriteRatios); err != nil {
            return err
        }

        if conf.OpenFiles < 1 {
            return fmt.Errorf("Need at least one open file, got %v", conf.OpenFiles)
        }

        if conf.RunTime < 1 {
            return fmt.Errorf("Run time must be at least one second, got %v", conf.RunTime)
        }

        if conf.Workers < 0 {
            return fmt.Errorf("Worker count may not be negative: %v", conf.Workers)
        }

        if conf.Pages < 1 {
            return fmt.Errorf("Need at least one page per file, got %v", conf.Pages)
        }
    }

    return nil
}


/* Parse a comma-separated list of write percentages, each in 0..100. */
func parseWriteRatios(list string) ([]uint64, error) {
    var ratios []uint64

    for _, field := range strings.Split(list, ",") {
        ratio, err := strconv.ParseUint(strings.TrimSpace(field), 10, 64)
        if err != nil {
            return nil, fmt.Errorf("Bad write ratio %q: %v", field, err)
        }

        if ratio > 100 {
            return nil, fmt.Errorf("Write ratio out of range: %v", ratio)
        }

        ratios = append(ratios, ratio)
    }

    if len(ratios) == 0 {
        return nil, fmt.Errorf("No write ratios given")
    }

    return ratios, nil
}
