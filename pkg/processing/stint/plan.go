package stint

import (
	"errors"
	"fmt"
	"time"
)

// PlanToFinish projects the remaining race as alternating stint and
// pit parts. It is a coarse, lap-count based projection meant to back
// a pit recommendation with a picture of the rest of the race, not a
// full race simulation.

type PartType int

const (
	PartTypeStint PartType = iota
	PartTypePit
)

type (
	Part interface {
		Type() PartType
		Output() string
	}
	StintPart interface {
		Part
		Laps() int
		LapStart() int
		LapEnd() int
		StintTime() time.Duration
	}
	PitPart interface {
		Part
		PitTime() time.Duration
	}
	Plan struct {
		Parts []Part
	}
)

type PlanParams struct {
	CurrentLap   int           // last completed lap
	LapsToGo     int           // laps left to the flag
	FirstStint   int           // laps left in the current stint (0: full stint)
	LapsPerStint int           // fuel-limited laps per full stint
	AvgLap       time.Duration // average lap time
	PitTime      time.Duration // time lost per stop
}

var ErrInvalidPlanParams = errors.New("invalid plan parameters")

type (
	stintPart struct {
		laps      int
		lapStart  int
		lapEnd    int
		stintTime time.Duration
	}
	pitPart struct {
		pitTime time.Duration
	}
)

func PlanToFinish(p *PlanParams) (*Plan, error) {
	if p.LapsToGo <= 0 || p.LapsPerStint <= 0 || p.AvgLap <= 0 {
		return nil, ErrInvalidPlanParams
	}
	parts := make([]Part, 0)
	remain := p.LapsToGo
	curLap := p.CurrentLap + 1

	stintLaps := p.FirstStint
	if stintLaps <= 0 {
		stintLaps = p.LapsPerStint
	}
	for remain > 0 {
		laps := min(stintLaps, remain)
		parts = append(parts, &stintPart{
			laps:      laps,
			lapStart:  curLap,
			lapEnd:    curLap + laps - 1,
			stintTime: time.Duration(laps) * p.AvgLap,
		})
		curLap += laps
		remain -= laps
		if remain > 0 {
			parts = append(parts, &pitPart{pitTime: p.PitTime})
		}
		stintLaps = p.LapsPerStint
	}
	return &Plan{Parts: parts}, nil
}

// Outputs renders the plan one line per part.
func (p *Plan) Outputs() []string {
	ret := make([]string, 0, len(p.Parts))
	for _, part := range p.Parts {
		ret = append(ret, part.Output())
	}
	return ret
}

func (s stintPart) Type() PartType {
	return PartTypeStint
}

func (s stintPart) Laps() int {
	return s.laps
}

func (s stintPart) LapStart() int {
	return s.lapStart
}

func (s stintPart) LapEnd() int {
	return s.lapEnd
}

func (s stintPart) StintTime() time.Duration {
	return s.stintTime
}

func (s stintPart) Output() string {
	return fmt.Sprintf("%d-%d (%d): %s", s.lapStart, s.lapEnd, s.laps, s.stintTime)
}

func (p pitPart) Type() PartType {
	return PartTypePit
}

func (p pitPart) PitTime() time.Duration {
	return p.pitTime
}

func (p pitPart) Output() string {
	return fmt.Sprintf("Pit %s", p.pitTime)
}
