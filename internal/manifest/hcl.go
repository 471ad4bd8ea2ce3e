package manifest

import (
	"fmt"
	"math/big"

	"github.com/agentic-research/proctest/api"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
)

type hclManifest struct {
	Version string     `hcl:"version,optional"`
	Assets  []hclAsset `hcl:"asset,block"`
}

type hclAsset struct {
	Name      string            `hcl:"name,label"`
	Path      string            `hcl:"path"`
	Arguments map[string]string `hcl:"arguments,optional"`
	Contexts  []hclContext      `hcl:"context,block"`
}

type hclContext struct {
	Body hcl.Body `hcl:",remain"`
}

// ParseHCL decodes an HCL manifest of the form
//
//	version = "1"
//	asset "cube" {
//	  path = "cube.proctest"
//	  context {
//	    Usd_Proctest_SideLength = 2
//	  }
//	}
//
// Repeated context blocks form the opinion stack, strongest first.
func ParseHCL(filename string, data []byte) (*api.Manifest, error) {
	var raw hclManifest
	if err := hclsimple.Decode(filename, data, nil, &raw); err != nil {
		return nil, fmt.Errorf("parse hcl: %w", err)
	}

	m := &api.Manifest{Version: raw.Version}
	if m.Version == "" {
		m.Version = api.CurrentVersion
	}
	for _, ra := range raw.Assets {
		a := api.Asset{Name: ra.Name, Path: ra.Path, Arguments: ra.Arguments}
		for _, rc := range ra.Contexts {
			opinions, err := contextOpinions(rc.Body)
			if err != nil {
				return nil, fmt.Errorf("asset %q: %w", ra.Name, err)
			}
			a.Context = append(a.Context, opinions)
		}
		m.Assets = append(m.Assets, a)
	}
	return m, Validate(m)
}

func contextOpinions(body hcl.Body) (map[string]any, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		gv, err := fromCty(v)
		if err != nil {
			return nil, fmt.Errorf("context %s: %w", name, err)
		}
		out[name] = gv
	}
	return out, nil
}

// fromCty maps primitive cty values onto the JSON-like values the rest of the
// loader produces: float64 or int64 for numbers, string, bool.
func fromCty(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("%w: unknown value", ErrInvalid)
	}
	switch v.Type() {
	case cty.String:
		return v.AsString(), nil
	case cty.Bool:
		return v.True(), nil
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	default:
		return nil, fmt.Errorf("%w: unsupported context value type %s", ErrInvalid, v.Type().FriendlyName())
	}
}
