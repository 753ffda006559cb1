package main

import "testing"

import "github.com/stretchr/testify/require"


func TestParseWriteRatios(t *testing.T) {
    ratios, err := parseWriteRatios("0,10,100")
    require.NoError(t, err)
    require.Equal(t, []uint64{0, 10, 100}, ratios)

    ratios, err = parseWriteRatios(" 50 ")
    require.NoError(t, err)
    require.Equal(t, []uint64{50}, ratios)

    _, err = parseWriteRatios("101")
    require.Error(t, err)

    _, err = parseWriteRatios("ten")
    require.Error(t, err)

    _, err = parseWriteRatios("")
    require.Error(t, err)
}


func TestValidateConfig(t *testing.T) {
    good := Config{
        Run: true,
        Port: 5150,
        WriteRatios: "0,100",
        OpenFiles: 1,
        RunTime: 10,
        Pages: 64,
    }
    require.NoError(t, validateConfig(&good))

    bad := good
    bad.Port = 0
    require.Error(t, validateConfig(&bad))

    bad = good
    bad.Port = 100000
    require.Error(t, validateConfig(&bad))

    bad = good
    bad.WriteRatios = "0,200"
    require.Error(t, validateConfig(&bad))

    bad = good
    bad.OpenFiles = 0
    require.Error(t, validateConfig(&bad))

    bad = good
    bad.RunTime = 0
    require.Error(t, validateConfig(&bad))

    bad = good
    bad.Workers = -1
    require.Error(t, validateConfig(&bad))

    bad = good
    bad.Pages = 0
    require.Error(t, validateConfig(&bad))
}


func TestValidateConfigServerMode(t *testing.T) {
    // Server mode doesn't care about the run options.
    conf := Config{Server: true, Port: 5150}
    require.NoError(t, validateConfig(&conf))
}
