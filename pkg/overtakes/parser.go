// Package overtakes reads overtake events from race logs and counts them per
// segment and block.
package overtakes

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/racingminer/trackblocks/log"
	"github.com/racingminer/trackblocks/pkg/model"
)

// Token marks overtake lines in a race log.
const Token = "overtake"

// column layout of an overtake line
const (
	colTime           = 0
	colKind           = 1
	colDistance       = 2
	colOvertaker      = 3
	colOvertakerState = 5
	colOvertakerLaps  = 8
	colOvertaken      = 9
	colOvertakenState = 11
	minColumns        = 12
)

// ParseLine converts one overtake line.
func ParseLine(line string) (model.OvertakeEvent, error) {
	ev := model.OvertakeEvent{}
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) < minColumns {
		return ev, &model.FormatError{
			Field: len(fields),
			Err:   fmt.Errorf("overtake line needs %d fields, got %d", minColumns, len(fields)),
		}
	}
	if strings.TrimSpace(fields[colKind]) != Token {
		return ev, &model.FormatError{Field: colKind, Err: fmt.Errorf("not an overtake line")}
	}
	var err error
	if ev.Time, err = parseFloat(fields[colTime]); err != nil {
		return ev, &model.FormatError{Field: colTime, Err: err}
	}
	if ev.Distance, err = parseFloat(fields[colDistance]); err != nil {
		return ev, &model.FormatError{Field: colDistance, Err: err}
	}
	ints := []struct {
		col int
		dst *int
	}{
		{colOvertakerState, &ev.OvertakerState},
		{colOvertakerLaps, &ev.OvertakerLaps},
		{colOvertakenState, &ev.OvertakenState},
	}
	for _, i := range ints {
		v, err := strconv.Atoi(strings.TrimSpace(fields[i.col]))
		if err != nil {
			return ev, &model.FormatError{Field: i.col, Err: err}
		}
		*i.dst = v
	}
	ev.Overtaker = strings.TrimSpace(fields[colOvertaker])
	ev.Overtaken = strings.TrimSpace(fields[colOvertaken])
	return ev, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

type Parser struct {
	l *log.Logger
}

func NewParser() *Parser {
	return &Parser{l: log.Default().Named("overtakes")}
}

// Scan calls fn for every overtake event of a race log, qualifying or not.
// Malformed overtake lines are logged and skipped.
func (p *Parser) Scan(source string, in io.Reader, fn func(ev *model.OvertakeEvent)) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	row := 0
	for scanner.Scan() {
		row++
		line := scanner.Text()
		if !strings.Contains(line, Token) {
			continue
		}
		ev, err := ParseLine(line)
		if err != nil {
			var fe *model.FormatError
			if errors.As(err, &fe) {
				fe.File = source
				fe.Row = row
			}
			p.l.Warn("skipping overtake line", log.ErrorField(err))
			continue
		}
		fn(&ev)
	}
	return scanner.Err()
}

// ReadFile returns the qualifying overtake events of a race log.
func (p *Parser) ReadFile(path string) ([]model.OvertakeEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &model.MissingInputError{Path: path, Err: err}
		}
		return nil, err
	}
	defer f.Close()
	ret := []model.OvertakeEvent{}
	err = p.Scan(path, f, func(ev *model.OvertakeEvent) {
		if ev.Qualifies() {
			ret = append(ret, *ev)
		}
	})
	return ret, err
}
