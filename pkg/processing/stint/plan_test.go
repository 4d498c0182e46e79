//nolint:funlen // ok for tests
package stint

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
)

func cmpPartOptions() []cmp.Option {
	return []cmp.Option{cmp.AllowUnexported(stintPart{}, pitPart{})}
}

func TestPlanToFinish(t *testing.T) {
	toDur := func(secs int) time.Duration { return time.Duration(secs) * time.Second }
	tests := []struct {
		name    string
		param   *PlanParams
		want    []Part
		wantErr bool
	}{
		{
			name: "single stint to the flag",
			param: &PlanParams{
				CurrentLap: 10, LapsToGo: 3, LapsPerStint: 10,
				AvgLap: toDur(90), PitTime: toDur(22),
			},
			want: []Part{
				&stintPart{laps: 3, lapStart: 11, lapEnd: 13, stintTime: toDur(270)},
			},
		},
		{
			name: "one stop",
			param: &PlanParams{
				CurrentLap: 10, LapsToGo: 12, LapsPerStint: 10,
				AvgLap: toDur(90), PitTime: toDur(22),
			},
			want: []Part{
				&stintPart{laps: 10, lapStart: 11, lapEnd: 20, stintTime: toDur(900)},
				&pitPart{pitTime: toDur(22)},
				&stintPart{laps: 2, lapStart: 21, lapEnd: 22, stintTime: toDur(180)},
			},
		},
		{
			name: "short first stint from low fuel",
			param: &PlanParams{
				CurrentLap: 10, LapsToGo: 12, FirstStint: 2, LapsPerStint: 10,
				AvgLap: toDur(90), PitTime: toDur(22),
			},
			want: []Part{
				&stintPart{laps: 2, lapStart: 11, lapEnd: 12, stintTime: toDur(180)},
				&pitPart{pitTime: toDur(22)},
				&stintPart{laps: 10, lapStart: 13, lapEnd: 22, stintTime: toDur(900)},
			},
		},
		{
			name: "stint boundary exactly at race end",
			param: &PlanParams{
				CurrentLap: 0, LapsToGo: 10, LapsPerStint: 5,
				AvgLap: toDur(90), PitTime: toDur(22),
			},
			want: []Part{
				&stintPart{laps: 5, lapStart: 1, lapEnd: 5, stintTime: toDur(450)},
				&pitPart{pitTime: toDur(22)},
				&stintPart{laps: 5, lapStart: 6, lapEnd: 10, stintTime: toDur(450)},
			},
		},
		{
			name:    "invalid params",
			param:   &PlanParams{LapsToGo: 0, LapsPerStint: 10, AvgLap: toDur(90)},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlanToFinish(tt.param)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPlanParams)
				return
			}
			assert.NilError(t, err)
			assert.Equal(t, len(tt.want), len(got.Parts))
			for i := range got.Parts {
				assert.DeepEqual(t, tt.want[i], got.Parts[i],
					cmpPartOptions()...)
			}
		})
	}
}
