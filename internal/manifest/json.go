package manifest

import (
	"fmt"

	"github.com/agentic-research/proctest/api"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

var (
	versionPath = jp.MustParseString("$.version")
	assetsPath  = jp.MustParseString("$.assets[*]")
)

// ParseJSON decodes a JSON manifest. An asset's "context" may be a single
// object or an array of objects, strongest first.
func ParseJSON(data []byte) (*api.Manifest, error) {
	doc, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	m := &api.Manifest{Version: api.CurrentVersion}
	if v, ok := versionPath.First(doc).(string); ok {
		m.Version = v
	}

	for i, raw := range assetsPath.Get(doc) {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: assets[%d] is not an object", ErrInvalid, i)
		}
		a, err := jsonAsset(obj)
		if err != nil {
			return nil, fmt.Errorf("assets[%d]: %w", i, err)
		}
		m.Assets = append(m.Assets, a)
	}
	return m, Validate(m)
}

func jsonAsset(obj map[string]any) (api.Asset, error) {
	var a api.Asset
	a.Name, _ = obj["name"].(string)
	a.Path, _ = obj["path"].(string)

	switch ctx := obj["context"].(type) {
	case nil:
	case map[string]any:
		a.Context = []map[string]any{ctx}
	case []any:
		for j, layer := range ctx {
			opinions, ok := layer.(map[string]any)
			if !ok {
				return a, fmt.Errorf("%w: context[%d] is not an object", ErrInvalid, j)
			}
			a.Context = append(a.Context, opinions)
		}
	default:
		return a, fmt.Errorf("%w: context must be an object or an array", ErrInvalid)
	}

	if args, ok := obj["arguments"].(map[string]any); ok {
		a.Arguments = make(map[string]string, len(args))
		for k, v := range args {
			s, ok := v.(string)
			if !ok {
				s = oj.JSON(v)
			}
			a.Arguments[k] = s
		}
	}
	return a, nil
}
