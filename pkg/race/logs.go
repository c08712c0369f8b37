// Package race analyzes the race logs of a simulation run: drivers, gaps and
// position changes.
package race

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/racingminer/trackblocks/pkg/model"
)

// timestampLen is the length of the date prefix of a log name.
const timestampLen = 20

// startMarker prefixes the time column of the rows written before the start.
const startMarker = "-1.8"

// driverScanLines is the number of leading log lines searched for drivers.
const driverScanLines = 10

// ListLogs returns the race log names of dir in sorted order. Race logs are
// csv files whose name starts with a year digit.
func ListLogs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &model.MissingInputError{Path: dir, Err: err}
		}
		return nil, err
	}
	ret := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		name := e.Name()
		return name, !e.IsDir() && IsLogName(name)
	})
	slices.Sort(ret)
	return ret, nil
}

// IsLogName reports whether name looks like a race log.
func IsLogName(name string) bool {
	return strings.HasSuffix(name, ".csv") && strings.HasPrefix(name, "2")
}

// TrackName extracts the track from a log name like
// 2016-03-01-10-20-30-forza.csv.
func TrackName(logName string) (string, error) {
	if !IsLogName(logName) || len(logName) <= timestampLen+len(".csv") {
		return "", fmt.Errorf("not a race log name: %q", logName)
	}
	return logName[timestampLen : len(logName)-len(".csv")], nil
}

// Drivers returns the sorted unique driver names of the pre start rows in the
// first lines of a log.
func Drivers(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &model.MissingInputError{Path: path, Err: err}
		}
		return nil, err
	}
	defer f.Close()

	names := []string{}
	scanner := bufio.NewScanner(f)
	for i := 0; i < driverScanLines && scanner.Scan(); i++ {
		parts := strings.Split(strings.TrimSpace(scanner.Text()), ",")
		if len(parts) >= 2 && strings.HasPrefix(parts[0], startMarker) {
			names = append(names, strings.TrimSpace(parts[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	ret := lo.Uniq(names)
	slices.Sort(ret)
	return ret, nil
}
