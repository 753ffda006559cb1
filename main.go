package main

import "fmt"
import "os"
import "runtime"
import "strings"
import "time"

import "github.com/docopt/docopt-go"

import "fxbench/fsrpc"
import "fxbench/logger"


/* Return a usage string for DocOpt argument parsing. */
func usage() string {
    return `Fxmark-style benchmark for remote file systems.

The server executes POSIX file operations under a local directory on behalf of remote
clients. The run mode drives a fixed mix of page reads and writes against a shared set
of files held open on a server, once per configured write ratio, and appends one CSV
row of results per ratio.

Usage:
  fxbench server [--port PORT] [--dir DIR] [--log-level LEVEL]
  fxbench run [--port PORT] [--host HOST] [--write-ratios LIST] [--open-files COUNT] [--run-time TIME] [--workers COUNT] [--pages COUNT] [--seed SEED] [--output FILE] [--log-level LEVEL]

Options:
  --port PORT, -p PORT           The port the server listens on.  [default: 5150]
  --dir DIR                      The directory the server executes file operations under.  [default: /tmp/fxbench]
  --host HOST                    The server host to benchmark against.  [default: localhost]
  --write-ratios LIST            Comma-separated write percentages to sweep.  [default: 0,10,100]
  --open-files COUNT, -o COUNT   The number of files held open for each configuration point.  [default: 1]
  --run-time TIME, -r TIME       Seconds of load per configuration point.  [default: 10]
  --workers COUNT                Concurrent workers.  0 means one per CPU core.  [default: 0]
  --pages COUNT                  Pages each benchmark file is pre-populated with.  [default: 64]
  --seed SEED                    Seed for descriptor, offset and operation choice.  [default: 12345]
  --output FILE                  CSV file that results are appended to.  [default: fxbench.csv]
  --log-level LEVEL              One of error, warn, info, debug, trace.  [default: info]
`
}


func dieOnError(err error, format string, a ...interface{}) {
    if err != nil {
        fmt.Printf(format, a...)
        fmt.Printf(": %v\n", err)
        os.Exit(-1)
    }
}


func main() {
    // Error should never happen outside of development, since docopt is complaining that our usage string has bad syntax.
    opts, err := docopt.ParseDoc(usage())
    dieOnError(err, "Error parsing arguments")

    // Error should never happen outside of development, since docopt is complaining that our type bindings are wrong.
    var conf Config
    err = opts.Bind(&conf)
    dieOnError(err, "Failure binding config")

    // This can error on bad user input.
    err = validateConfig(&conf)
    dieOnError(err, "Failure validating arguments")

    level, err := logger.ParseLevel(conf.LogLevel)
    dieOnError(err, "Bad log level")
    logger.SetLevel(level)

    if conf.Server {
        startServer(&conf)
    }

    if conf.Run {
        startRun(&conf)
    }
}


func startServer(conf *Config) {
    err := os.MkdirAll(conf.Dir, 0755)
    dieOnError(err, "Failure creating data directory %v", conf.Dir)

    _, err = fsrpc.StartServer(fmt.Sprintf(":%v", conf.Port), conf.Dir)
    dieOnError(err, "Failure creating server")

    // Serving happens on background goroutines; there is nothing else for us to do.
    select {}
}


func startRun(conf *Config) {
    ratios, err := parseWriteRatios(conf.WriteRatios)
    dieOnError(err, "Failure parsing write ratios")

    workers := conf.Workers
    if workers == 0 {
        workers = runtime.NumCPU()
    }

    var j Job
    j.ServerAddr = fmt.Sprintf("%v:%v", strings.TrimSpace(conf.Host), conf.Port)
    j.WriteRatios = ratios
    j.OpenFiles = conf.OpenFiles
    j.RunTime = time.Duration(conf.RunTime) * time.Second
    j.Workers = workers
    j.FilePages = conf.Pages
    j.Seed = int64(conf.Seed)
    j.Output = conf.Output

    m := CreateManager(&j)

    err = m.Run()
    if err != nil {
        fmt.Printf("Error running benchmark: %v\n", err)
        os.Exit(-1)
    }

    fmt.Printf("Done\n")
}
