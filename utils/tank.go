package utils

import (
	"fmt"
	"math"

	"github.com/notargets/DAEInit/element"
	"github.com/notargets/DAEInit/model"
)

// TankConfig parameterizes the gravity-drained tank used in tests and
// examples:
//
//	area·dh/dt = fin - flow,  flow = k·opening·h,  area = π·d²/4
type TankConfig struct {
	Scheme       model.Scheme
	NFE          int
	NCP          int // Ignored by the finite difference schemes
	Horizon      float64
	InitialLevel float64
	Inflow       float64
	Diameter     float64
	OutflowCoeff float64
	Opening      float64
}

func DefaultTankConfig() TankConfig {
	return TankConfig{
		Scheme:       model.BackwardDifference,
		NFE:          5,
		NCP:          1,
		Horizon:      10,
		InitialLevel: 1,
		Inflow:       2,
		Diameter:     1,
		OutflowCoeff: 0.5,
		Opening:      1,
	}
}

// Tank is a discretized tank model. Its time domain carries the
// discretization metadata and h[t0] is fixed at the initial level.
type Tank struct {
	Config  TankConfig
	Model   *model.Model
	Block   *model.Block // fs.tank
	Time    *model.TimeDomain
	Element element.Element

	H, DHDt, Fin *model.VarFamily
	Outlet       *model.BlockFamily
	Area         *model.Var
	Diameter     *model.Var
}

// Area is the cross section the model converges to
func (cfg TankConfig) Area() float64 { return math.Pi * cfg.Diameter * cfg.Diameter / 4 }

// NewTankModel builds the tank over cfg.NFE elements. Radau and Legendre
// domains are laid out on Radau points; the difference schemes use one
// backward difference point per element. Only the metadata differs between
// a backward domain and a forward or central one.
func NewTankModel(cfg TankConfig) (*Tank, error) {
	if cfg.NFE < 1 {
		return nil, fmt.Errorf("tank: nfe must be >= 1, got %d", cfg.NFE)
	}
	if cfg.Horizon <= 0 {
		return nil, fmt.Errorf("tank: horizon must be > 0, got %g", cfg.Horizon)
	}
	var (
		el  element.Element
		err error
	)
	switch cfg.Scheme {
	case model.LagrangeRadau, model.LagrangeLegendre:
		if el, err = element.NewRadau(cfg.NCP); err != nil {
			return nil, fmt.Errorf("tank: %w", err)
		}
	default:
		el = element.NewBackwardDifference()
	}
	props := el.GetProperties()

	points := timePoints(el, cfg.NFE, cfg.Horizon)
	td, err := model.NewTimeDomain("t", points...)
	if err != nil {
		return nil, fmt.Errorf("tank: %w", err)
	}
	td.SetDiscretization(model.Discretization{Scheme: cfg.Scheme, NFE: cfg.NFE, NCP: props.NCP})

	m := model.New("fs")
	blk := m.Root().AddBlock("tank")
	tk := &Tank{Config: cfg, Model: m, Block: blk, Time: td, Element: el}

	tk.Diameter = blk.AddVar("diameter")
	tk.Diameter.FixAt(cfg.Diameter)
	tk.Area = blk.AddVar("area")
	// Initial guess; at 0 the balance does not see dh/dt
	tk.Area.SetValue(1)
	blk.AddConstraint("area_eq", func() float64 {
		d := tk.Diameter.Value()
		return tk.Area.Value() - math.Pi*d*d/4
	}, tk.Area, tk.Diameter)

	tk.H = blk.AddVars("h", td)
	tk.DHDt = blk.AddDerivative("dhdt", tk.H)
	tk.Fin = blk.AddVars("fin", td)
	tk.Outlet = blk.AddBlocks("outlet", td)

	balance := blk.AddConstraints("balance", td)
	for _, t := range points {
		h, dhdt, fin := tk.H.At(model.At(t)), tk.DHDt.At(model.At(t)), tk.Fin.At(model.At(t))
		fin.FixAt(cfg.Inflow)

		out := tk.Outlet.At(model.At(t))
		flow := out.AddVar("flow")
		opening := out.AddVar("opening")
		opening.FixAt(cfg.Opening)
		k := cfg.OutflowCoeff
		out.AddConstraint("flow_eq", func() float64 {
			return flow.Value() - k*opening.Value()*h.Value()
		}, flow, opening, h)

		balance.Add(model.At(t), func() float64 {
			return tk.Area.Value()*dhdt.Value() - (fin.Value() - flow.Value())
		}, tk.Area, dhdt, fin, flow)
	}
	tk.H.At(model.At(td.First())).FixAt(cfg.InitialLevel)

	tk.addDiscretization(blk.AddConstraints("h_disc", td), props.NCP)
	return tk, nil
}

// addDiscretization writes h_e·dh/dt(t_j) = Σ_k Dr[j][k]·h(t_k) at every
// non-initial point, k running over the element nodes
func (tk *Tank) addDiscretization(disc *model.ConFamily, ncp int) {
	dr := tk.Element.Dr()
	for e := 1; e <= tk.Config.NFE; e++ {
		first := (e-1)*ncp + 1
		nodes := make([]*model.Var, ncp+1)
		for k := range nodes {
			nodes[k] = tk.H.At(model.At(tk.Time.At(first + k)))
		}
		he := tk.Time.At(first+ncp) - tk.Time.At(first)
		for j := 1; j <= ncp; j++ {
			t := tk.Time.At(first + j)
			dhdt := tk.DHDt.At(model.At(t))
			row := make([]float64, ncp+1)
			for k := range row {
				row[k] = dr.At(j, k)
			}
			vars := append([]*model.Var{dhdt}, nodes...)
			disc.Add(model.At(t), func() float64 {
				r := he * dhdt.Value()
				for k, hv := range nodes {
					r -= row[k] * hv.Value()
				}
				return r
			}, vars...)
		}
	}
}

// timePoints lays out nfe equal elements over [0, horizon]. Element
// boundaries are computed directly so neighbouring elements share them
// exactly.
func timePoints(el element.Element, nfe int, horizon float64) []float64 {
	r := el.R()
	pts := []float64{0}
	for e := 0; e < nfe; e++ {
		t0 := horizon * float64(e) / float64(nfe)
		t1 := horizon * float64(e+1) / float64(nfe)
		inner := element.Points(el, t0, t1-t0)
		for j := 1; j < len(r)-1; j++ {
			pts = append(pts, inner[j])
		}
		pts = append(pts, t1)
	}
	return pts
}

// Level returns h at every point of the time domain
func (tk *Tank) Level() []float64 {
	out := make([]float64, tk.Time.Len())
	for i, t := range tk.Time.Points() {
		out[i] = tk.H.At(model.At(t)).Value()
	}
	return out
}

// SteadyLevel is the level at which the outflow balances the inflow
func (cfg TankConfig) SteadyLevel() float64 {
	return cfg.Inflow / (cfg.OutflowCoeff * cfg.Opening)
}
