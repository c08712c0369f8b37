package analysis

import (
	"fmt"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/alt"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/racingminer/trackblocks/pkg/entropy"
	"github.com/racingminer/trackblocks/pkg/stats"
	"github.com/racingminer/trackblocks/pkg/track"
)

// Report is the json view of a run result.
//
//nolint:tagliatelle // json is that way
type Report struct {
	Run               string           `json:"run"`
	Track             string           `json:"track"`
	TrackLength       float64          `json:"track_length"`
	Logs              int              `json:"logs"`
	PositionsMean     float64          `json:"positions_mean"`
	PositionsVar      float64          `json:"positions_var"`
	GapsMean          float64          `json:"gaps_mean"`
	GapsVar           float64          `json:"gaps_var"`
	TotalOvertakes    int              `json:"total_overtakes"`
	LeftBends         int              `json:"left_bends,omitempty"`
	RightBends        int              `json:"right_bends,omitempty"`
	StraightSections  int              `json:"straight_sections,omitempty"`
	AvgRadiusMean     float64          `json:"avg_radius_mean,omitempty"`
	AvgRadiusVar      float64          `json:"avg_radius_var,omitempty"`
	Topology          *track.Summary   `json:"topology,omitempty"`
	PartialVariations []PartialReport  `json:"partial_variations"`
	BlockOvertakes    []int            `json:"block_overtakes,omitempty"`
	Entropy           *entropy.Metrics `json:"entropy,omitempty"`
}

type PartialReport struct {
	Fraction float64       `json:"fraction"`
	Moments  stats.Moments `json:"moments"`
}

func NewReport(res *Result) *Report {
	r := &Report{
		Run:               res.Run,
		Track:             res.Track,
		TrackLength:       res.TrackLength,
		Logs:              len(res.Logs),
		TotalOvertakes:    res.TotalOvertakes,
		PartialVariations: []PartialReport{},
	}
	if res.Race != nil {
		r.PositionsMean = res.Race.Positions.Mean
		r.PositionsVar = res.Race.Positions.Var
		r.GapsMean = res.Race.Gaps.Mean
		r.GapsVar = res.Race.Gaps.Var
		for _, p := range res.Race.Partial {
			r.PartialVariations = append(r.PartialVariations,
				PartialReport{Fraction: p.Fraction, Moments: p.Moments})
		}
	}
	if res.Topology != nil {
		r.Topology = res.Topology
		r.LeftBends = res.Topology.Full.LeftBends
		r.RightBends = res.Topology.Full.RightBends
		r.StraightSections = res.Topology.Full.Straights
		r.AvgRadiusMean = res.Topology.Full.RadiusMoments.Mean
		r.AvgRadiusVar = res.Topology.Full.RadiusMoments.Var
		e := res.Entropy
		r.Entropy = &e
	}
	if res.Overtakes != nil {
		r.BlockOvertakes = res.Overtakes.Blocks
	}
	return r
}

// JSON renders the report. With a non empty jsonpath expression only the
// matching values are rendered, as a list.
func (r *Report) JSON(path string) (string, error) {
	data := alt.Decompose(r, &ojg.Options{UseTags: true, OmitNil: true})
	if path != "" {
		x, err := jp.ParseString(path)
		if err != nil {
			return "", fmt.Errorf("invalid json path %q: %w", path, err)
		}
		data = x.Get(data)
	}
	return oj.JSON(data, &ojg.Options{Indent: 2, Sort: true}), nil
}
