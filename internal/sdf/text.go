package sdf

import (
	"strconv"
	"strings"
)

// ExportToString renders the layer in the usda text syntax.
func (l *Layer) ExportToString(comment string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var b strings.Builder
	b.WriteString("#usda 1.0\n")

	if comment != "" || l.content.defaultPrim != "" {
		b.WriteString("(\n")
		if comment != "" {
			b.WriteString("    doc = " + strconv.Quote(comment) + "\n")
		}
		if l.content.defaultPrim != "" {
			b.WriteString("    defaultPrim = " + strconv.Quote(l.content.defaultPrim) + "\n")
		}
		b.WriteString(")\n")
	}

	for _, p := range l.content.roots {
		b.WriteString("\n")
		l.writePrimLocked(&b, l.content.prims[p], 0)
	}
	return b.String(), nil
}

func (l *Layer) writePrimLocked(b *strings.Builder, spec *primSpec, depth int) {
	indent := strings.Repeat("    ", depth)

	b.WriteString(indent + string(spec.specifier) + " ")
	if spec.typeName != "" {
		b.WriteString(spec.typeName + " ")
	}
	b.WriteString(strconv.Quote(spec.path.Name()) + "\n")
	b.WriteString(indent + "{\n")

	for _, name := range spec.order {
		a := spec.attrs[name]
		b.WriteString(indent + "    ")
		if a.Variability == VariabilityUniform {
			b.WriteString("uniform ")
		}
		b.WriteString(a.TypeName + " " + a.Name)
		if !a.Default.IsEmpty() {
			b.WriteString(" = " + a.Default.String())
		}
		b.WriteString("\n")
	}

	for i, child := range spec.children {
		if i > 0 || len(spec.order) > 0 {
			b.WriteString("\n")
		}
		l.writePrimLocked(b, l.content.prims[child], depth+1)
	}
	b.WriteString(indent + "}\n")
}
