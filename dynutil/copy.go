package dynutil

import "github.com/notargets/DAEInit/model"

// CopyValuesAtTime copies the value of every variable of src indexed at tSrc
// into the variable of dst with the same slice path at tDst. Fixed
// destinations are skipped unless copyFixed; undefined sources are skipped.
// It returns the number of values copied.
func CopyValuesAtTime(dst, src *model.Block, td *model.TimeDomain, tDst, tSrc float64, copyFixed bool) int {
	from := model.VarsAt(src, td, tSrc)
	to := model.VarsAt(dst, td, tDst)
	n := 0
	for path, sv := range from {
		dv, ok := to[path]
		if !ok || dv == sv || !sv.HasValue() {
			continue
		}
		if dv.IsFixed() && !copyFixed {
			continue
		}
		dv.SetValue(sv.Value())
		n++
	}
	return n
}
