package powerflow

import (
	"math"

	"github.com/radekizk-sketch/mvgrid-core/numeric"
)

// jacobianIndex maps bus order positions to the rows/columns of the
// assembled Jacobian: every non-slack bus gets a theta row/column,
// every PQ bus additionally gets a V row/column.
type jacobianIndex struct {
	thetaPos []int // bus index -> jacobian row, or -1 if slack
	vPos     []int // bus index -> jacobian row, or -1 if not PQ
	thetaIDs []int // jacobian row -> bus index
	vIDs     []int // jacobian row -> bus index
}

func buildJacobianIndex(net *network) jacobianIndex {
	n := len(net.order)
	idx := jacobianIndex{thetaPos: make([]int, n), vPos: make([]int, n)}
	for i, t := range net.types {
		if t == busSlack {
			idx.thetaPos[i] = -1
			idx.vPos[i] = -1
			continue
		}
		idx.thetaPos[i] = len(idx.thetaIDs)
		idx.thetaIDs = append(idx.thetaIDs, i)
		if t == busPQ {
			idx.vPos[i] = len(idx.vIDs)
			idx.vIDs = append(idx.vIDs, i)
		} else {
			idx.vPos[i] = -1
		}
	}
	return idx
}

// buildJacobian assembles the 4-block Newton-Raphson Jacobian using
// the standard polar-form partial derivatives of P_i = V_i*sum_k
// V_k*(G_ik*cos(theta_ik)+B_ik*sin(theta_ik)) and the analogous Q_i.
func buildJacobian(net *network, idx jacobianIndex, v, theta, pCalc, qCalc []float64) (*numeric.RealMatrix, error) {
	nTheta := len(idx.thetaIDs)
	nV := len(idx.vIDs)
	dim := nTheta + nV

	j, err := numeric.NewRealMatrix(dim, dim)
	if err != nil {
		return nil, err
	}

	for ri, i := range idx.thetaIDs {
		for rk, k := range idx.thetaIDs {
			j.Set(ri, rk, dPdTheta(net, v, theta, pCalc, qCalc, i, k))
		}
		for rk, k := range idx.vIDs {
			j.Set(ri, nTheta+rk, dPdV(net, v, theta, pCalc, i, k))
		}
	}
	for ri, i := range idx.vIDs {
		for rk, k := range idx.thetaIDs {
			j.Set(nTheta+ri, rk, dQdTheta(net, v, theta, pCalc, qCalc, i, k))
		}
		for rk, k := range idx.vIDs {
			j.Set(nTheta+ri, nTheta+rk, dQdV(net, v, theta, qCalc, i, k))
		}
	}
	return j, nil
}

func gb(net *network, i, k int) (g, b float64) {
	y := net.y.Y.At(i, k)
	return real(y), imag(y)
}

func dPdTheta(net *network, v, theta, pCalc, qCalc []float64, i, k int) float64 {
	if i == k {
		_, bii := gb(net, i, i)
		return -qCalc[i] - bii*v[i]*v[i]
	}
	g, b := gb(net, i, k)
	tik := theta[i] - theta[k]
	return v[i] * v[k] * (g*math.Sin(tik) - b*math.Cos(tik))
}

func dPdV(net *network, v, theta, pCalc []float64, i, k int) float64 {
	if i == k {
		gii, _ := gb(net, i, i)
		return pCalc[i]/v[i] + gii*v[i]
	}
	g, b := gb(net, i, k)
	tik := theta[i] - theta[k]
	return v[i] * (g*math.Cos(tik) + b*math.Sin(tik))
}

func dQdTheta(net *network, v, theta, pCalc, qCalc []float64, i, k int) float64 {
	if i == k {
		gii, _ := gb(net, i, i)
		return pCalc[i] - gii*v[i]*v[i]
	}
	g, b := gb(net, i, k)
	tik := theta[i] - theta[k]
	return -v[i] * v[k] * (g*math.Cos(tik) + b*math.Sin(tik))
}

func dQdV(net *network, v, theta, qCalc []float64, i, k int) float64 {
	if i == k {
		_, bii := gb(net, i, i)
		return qCalc[i]/v[i] - bii*v[i]
	}
	g, b := gb(net, i, k)
	tik := theta[i] - theta[k]
	return v[i] * (g*math.Sin(tik) - b*math.Cos(tik))
}

// toJacobianBlocks renders the assembled matrix back into the 4
// labeled 2D blocks the full trace contract reports.
func toJacobianBlocks(j *numeric.RealMatrix, idx jacobianIndex) *JacobianBlocks {
	nTheta := len(idx.thetaIDs)
	nV := len(idx.vIDs)

	blocks := &JacobianBlocks{
		DPDTheta: make([][]float64, nTheta),
		DPDV:     make([][]float64, nTheta),
		DQDTheta: make([][]float64, nV),
		DQDV:     make([][]float64, nV),
	}
	for r := 0; r < nTheta; r++ {
		blocks.DPDTheta[r] = make([]float64, nTheta)
		blocks.DPDV[r] = make([]float64, nV)
		for c := 0; c < nTheta; c++ {
			blocks.DPDTheta[r][c] = j.At(r, c)
		}
		for c := 0; c < nV; c++ {
			blocks.DPDV[r][c] = j.At(r, nTheta+c)
		}
	}
	for r := 0; r < nV; r++ {
		blocks.DQDTheta[r] = make([]float64, nTheta)
		blocks.DQDV[r] = make([]float64, nV)
		for c := 0; c < nTheta; c++ {
			blocks.DQDTheta[r][c] = j.At(nTheta+r, c)
		}
		for c := 0; c < nV; c++ {
			blocks.DQDV[r][c] = j.At(nTheta+r, nTheta+c)
		}
	}
	return blocks
}
