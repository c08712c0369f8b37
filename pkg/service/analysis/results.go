package analysis

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/racingminer/trackblocks/pkg/features"
	"github.com/racingminer/trackblocks/pkg/race"
	"github.com/racingminer/trackblocks/pkg/stats"
	"github.com/racingminer/trackblocks/pkg/track"
)

// ResultsFileName is the name of the summary file of a run.
func ResultsFileName(trackName string) string {
	return trackName + "-results.csv"
}

var sectionColumns = []string{
	"Length", "LeftBendsCount", "RightBendsCount", "StraightsCount", "StraightsLength",
	"Radiuses mean", "Radiuses var", "Radiuses skew",
	"Heights mean", "Heights var", "Heights skew",
}

// ResultsHeader returns the columns of the results file.
func ResultsHeader() []string {
	ret := []string{"Track", "Length", "Width"}
	ret = append(ret, sectionColumns[1:]...)
	for _, suffix := range []string{" (1/3 lap)", " (half lap)"} {
		for _, c := range sectionColumns {
			ret = append(ret, c+suffix)
		}
	}
	ret = append(ret,
		"Positions variations mean", "Positions variations var", "Positions variations skew",
		"Gaps mean", "Gaps var", "Gaps skew")
	for _, label := range []string{"1/3 lap", "half lap", "1 lap"} {
		for _, m := range []string{"mean", "var", "skew"} {
			ret = append(ret, "Positions variations ("+label+") "+m)
		}
	}
	return ret
}

// ResultsRow returns the values in header order. Missing track data is
// written as zeros.
func ResultsRow(res *Result) []string {
	ret := []string{res.Track}
	if res.Topology == nil {
		for range len(ResultsHeader()) - 1 - 3*5 {
			ret = append(ret, "0")
		}
	} else {
		topo := res.Topology
		ret = append(ret, features.FormatShort(topo.Full.Length), features.FormatShort(topo.Width))
		ret = append(ret, sectionValues(&topo.Full)[1:]...)
		ret = append(ret, sectionValues(&topo.Third)...)
		ret = append(ret, sectionValues(&topo.Half)...)
	}
	rs := res.Race
	if rs == nil {
		rs = &race.Summary{}
	}
	ret = append(ret, momentValues(rs.Positions)...)
	ret = append(ret, momentValues(rs.Gaps)...)
	for _, f := range []float64{0.3, 0.5, 1} {
		ret = append(ret, momentValues(rs.PartialAt(f))...)
	}
	return ret
}

func sectionValues(sec *track.Section) []string {
	ret := []string{
		features.FormatShort(sec.Length),
		strconv.Itoa(sec.LeftBends),
		strconv.Itoa(sec.RightBends),
		strconv.Itoa(sec.Straights),
		features.FormatShort(sec.StraightsLength),
	}
	ret = append(ret, momentValues(sec.RadiusMoments)...)
	return append(ret, momentValues(sec.HeightMoments)...)
}

func momentValues(m stats.Moments) []string {
	return []string{
		features.FormatShort(m.Mean),
		features.FormatShort(m.Var),
		features.FormatShort(m.Skew),
	}
}

// EncodeResults writes the header and the row of a run.
func EncodeResults(w io.Writer, res *Result) error {
	cw := csv.NewWriter(w)
	cw.Comma = features.Delimiter
	cw.UseCRLF = true
	if err := cw.Write(ResultsHeader()); err != nil {
		return err
	}
	if err := cw.Write(ResultsRow(res)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// WriteResults writes the results file into dir and returns its path.
func WriteResults(dir string, res *Result) (string, error) {
	path := filepath.Join(dir, ResultsFileName(res.Track))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := EncodeResults(f, res); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
