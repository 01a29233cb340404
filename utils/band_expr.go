package utils

import (
	"fmt"
	"math"
	"sort"
	"strings"

	goeval "github.com/edisonguo/govaluate"
	"github.com/nci/biopar/biopar"
)

type bandExpr struct {
	text      string
	expr      *goeval.EvaluableExpression
	variables []string
}

// BandExpressions maps each network band (B3, B8A, ...) to an arithmetic
// expression over source namespaces, e.g. "nbart_red_edge_1 * 1.0".
type BandExpressions struct {
	bands []string
	exprs map[string]*bandExpr
}

// ParseBandExpressions compiles the expressions of a product.
func ParseBandExpressions(exprs map[string]string) (*BandExpressions, error) {
	be := &BandExpressions{exprs: make(map[string]*bandExpr, len(exprs))}
	for band, text := range exprs {
		if len(strings.TrimSpace(text)) == 0 {
			return nil, fmt.Errorf("empty expression for band %s", band)
		}

		expr, err := goeval.NewEvaluableExpression(text)
		if err != nil {
			return nil, fmt.Errorf("band %s: failed to parse expression '%s': %v", band, text, err)
		}

		varSet := map[string]struct{}{}
		for _, token := range expr.Tokens() {
			if token.Kind != goeval.VARIABLE {
				continue
			}
			varName, ok := token.Value.(string)
			if !ok {
				return nil, fmt.Errorf("band %s: variable token '%v' failed to cast string", band, token.Value)
			}
			varSet[varName] = struct{}{}
		}
		if len(varSet) == 0 {
			return nil, fmt.Errorf("band %s: expression '%s' references no namespace", band, text)
		}

		vars := make([]string, 0, len(varSet))
		for v := range varSet {
			vars = append(vars, v)
		}
		sort.Strings(vars)

		be.bands = append(be.bands, band)
		be.exprs[band] = &bandExpr{text: text, expr: expr, variables: vars}
	}
	sort.Strings(be.bands)
	return be, nil
}

// IdentityBandExpressions maps every band onto a namespace of the same name.
func IdentityBandExpressions(bands []string) *BandExpressions {
	exprs := make(map[string]string, len(bands))
	for _, band := range bands {
		exprs[band] = band
	}
	be, err := ParseBandExpressions(exprs)
	if err != nil {
		panic(err)
	}
	return be
}

func (be *BandExpressions) Bands() []string {
	return append([]string(nil), be.bands...)
}

func (be *BandExpressions) Has(band string) bool {
	_, found := be.exprs[band]
	return found
}

func (be *BandExpressions) Expression(band string) string {
	if e, found := be.exprs[band]; found {
		return e.text
	}
	return ""
}

// VarList returns the source namespaces referenced by any expression.
func (be *BandExpressions) VarList() []string {
	varSet := map[string]struct{}{}
	for _, e := range be.exprs {
		for _, v := range e.variables {
			varSet[v] = struct{}{}
		}
	}
	vars := make([]string, 0, len(varSet))
	for v := range varSet {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

// Compose evaluates the expressions pixel by pixel over the source
// namespaces and returns a raster keyed by band. A bare variable is copied
// without evaluation. NaN in a referenced source propagates to the band.
func (be *BandExpressions) Compose(height, width int, sources map[string][]float64) (*biopar.Raster, error) {
	size := height * width
	for _, ns := range be.VarList() {
		data, found := sources[ns]
		if !found {
			return nil, &biopar.InputShapeError{Band: ns, Reason: "namespace not provided"}
		}
		if len(data) != size {
			return nil, &biopar.InputShapeError{Band: ns, Reason: fmt.Sprintf("has %d cells, expected %d", len(data), size)}
		}
	}

	out := biopar.NewRaster(height, width)
	for _, band := range be.bands {
		e := be.exprs[band]
		if len(e.variables) == 1 && strings.TrimSpace(e.text) == e.variables[0] {
			out.AddBand(band, append([]float64(nil), sources[e.variables[0]]...))
			continue
		}

		data := make([]float64, size)
		params := make(map[string]interface{}, len(e.variables))
		for i := range data {
			nan := false
			for _, v := range e.variables {
				val := sources[v][i]
				if math.IsNaN(val) {
					nan = true
					break
				}
				params[v] = val
			}
			if nan {
				data[i] = math.NaN()
				continue
			}

			res, err := e.expr.Evaluate(params)
			if err != nil {
				return nil, fmt.Errorf("band %s: %v", band, err)
			}
			switch v := res.(type) {
			case float64:
				data[i] = v
			case bool:
				if v {
					data[i] = 1
				}
			default:
				return nil, fmt.Errorf("band %s: expression '%s' evaluated to %T", band, e.text, res)
			}
		}
		out.AddBand(band, data)
	}
	return out, nil
}
