// Package evalid implements C5: given a state and an evaluation type,
// resolve the single recommended EVALID, preferring statewide over regional
// evaluations and the most recent END_INVYR among ties.
package evalid

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mihiarc/gofia/backend"
	"github.com/mihiarc/gofia/codes"
	"github.com/mihiarc/gofia/errs"
	"github.com/mihiarc/gofia/internal/log"
)

var logger = log.For("evalid")

// Candidate is one POP_EVAL row matching the requested state and eval type,
// enriched with its assigned plot count.
type Candidate struct {
	Evalid    int
	EvalDescr string
	EndInvyr  int
	Statewide bool
	PlotCount int
}

// Result is the outcome of Resolve: the chosen EVALID plus a human-readable
// explanation of which criterion selected it (spec.md §4.15 step 4).
type Result struct {
	Evalid      int
	EvalType    codes.EvalType
	Explanation string
}

// regionalQualifiers are substrings in LOCATION_NM that mark an
// evaluation as covering only part of a state (a compass-direction regional
// unit), rather than the entire state.
var regionalQualifiers = []string{"EAST", "WEST", "NORTH", "SOUTH", "(EU)", "(WU)"}

func isStatewide(locationNm string) bool {
	u := strings.ToUpper(locationNm)
	if u == "" || strings.Contains(u, "ENTIRE STATE") {
		return true
	}
	for _, q := range regionalQualifiers {
		if strings.Contains(u, q) {
			return false
		}
	}
	return true
}

// candidatesForType fetches every POP_EVAL row of the given type for state,
// along with its assigned-plot count, by joining POP_EVAL, POP_EVAL_TYP, and
// POP_PLOT_STRATUM_ASSGN (spec.md §4.15 step 2).
func candidatesForType(ctx context.Context, db backend.Db, stateCD int, evalType codes.EvalType) ([]Candidate, error) {
	query := `
SELECT e.EVALID, e.EVAL_DESCR, e.LOCATION_NM, e.END_INVYR, count(a.CN) AS plot_count
FROM POP_EVAL e
JOIN POP_EVAL_TYP t ON t.EVAL_CN = e.CN
LEFT JOIN POP_PLOT_STRATUM_ASSGN a ON a.EVALID = e.EVALID
WHERE e.STATECD = ? AND t.EVAL_TYP = ?
GROUP BY e.EVALID, e.EVAL_DESCR, e.LOCATION_NM, e.END_INVYR`
	fr, err := db.Execute(ctx, query, stateCD, string(evalType))
	if err != nil {
		return nil, errs.WithStage(err, "evalid.candidatesForType")
	}
	evalidCol, _ := fr.Col("EVALID")
	descrCol, _ := fr.Col("EVAL_DESCR")
	locCol, _ := fr.Col("LOCATION_NM")
	endCol, _ := fr.Col("END_INVYR")
	countCol, _ := fr.Col("PLOT_COUNT")
	out := make([]Candidate, fr.NRows())
	for i := 0; i < fr.NRows(); i++ {
		out[i] = Candidate{
			Evalid:    int(evalidCol.AtFloat64(i)),
			EvalDescr: descrCol.AtString(i),
			EndInvyr:  int(endCol.AtFloat64(i)),
			Statewide: isStatewide(locCol.AtString(i)),
			PlotCount: int(countCol.AtFloat64(i)),
		}
	}
	return out, nil
}

// rank sorts candidates by (statewide desc, END_INVYR desc, EVALID desc),
// per spec.md §4.15 step 3.
func rank(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Statewide != cands[j].Statewide {
			return cands[i].Statewide
		}
		if cands[i].EndInvyr != cands[j].EndInvyr {
			return cands[i].EndInvyr > cands[j].EndInvyr
		}
		return cands[i].Evalid > cands[j].Evalid
	})
}

// Resolve returns the recommended EVALID for a state and metric family,
// trying each of the metric's acceptable eval types in preference order
// (e.g. area tries EXPCURR before EXPALL) and returning the first type with
// at least one candidate with PlotCount > 0.
func Resolve(ctx context.Context, db backend.Db, stateCD int, metric string) (Result, error) {
	types := codes.RequiredEvalType(metric)
	if len(types) == 0 {
		return Result{}, errs.New(errs.InvalidConfig, "unknown metric family %q", metric)
	}
	for _, t := range types {
		cands, err := candidatesForType(ctx, db, stateCD, t)
		if err != nil {
			return Result{}, err
		}
		rank(cands)
		for _, c := range cands {
			if c.PlotCount > 0 {
				explanation := fmt.Sprintf(
					"selected EVALID %d (type %s): statewide=%v, END_INVYR=%d, plot_count=%d",
					c.Evalid, t, c.Statewide, c.EndInvyr, c.PlotCount,
				)
				logger.Debug(explanation)
				return Result{Evalid: c.Evalid, EvalType: t, Explanation: explanation}, nil
			}
		}
	}
	return Result{}, errs.New(errs.NoEVALID, "no %s evaluation with assigned plots found for state %d", metric, stateCD)
}

// Validate checks that every id in evalids has at least one assigned plot,
// for the explicit clip_by_evalid override path (spec.md §4.5's final
// sentence: "Explicit override via clip_by_evalid(ids) bypasses steps 1-2",
// but existence is still validated).
func Validate(ctx context.Context, db backend.Db, evalids []int) error {
	for _, id := range evalids {
		fr, err := db.Execute(ctx, "SELECT count(*) AS n FROM POP_PLOT_STRATUM_ASSGN WHERE EVALID = ?", id)
		if err != nil {
			return errs.WithStage(err, "evalid.Validate")
		}
		nCol, _ := fr.Col("N")
		if fr.NRows() == 0 || nCol.AtFloat64(0) == 0 {
			return errs.New(errs.NoEVALID, "EVALID %d has no assigned plots", id)
		}
	}
	return nil
}
