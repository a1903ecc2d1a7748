package gen

import (
	"context"
	"time"

	"github.com/dave/jennifer/jen"

	"github.com/mschmiderer/mogenerator/schema"
)

// Generate writes the Go models of m to the configured target directory.
func Generate(ctx context.Context, m *schema.Model, opts ...Option) (*WriterMetrics, error) {
	c, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	g, err := NewGraph(c, m)
	if err != nil {
		return nil, err
	}
	return g.Gen(ctx)
}

// Gen writes one file per type plus entities.go, which lists the entities in
// dependency order.
func (g *Graph) Gen(ctx context.Context) (*WriterMetrics, error) {
	start := time.Now()
	files := make([]fileTask, 0, len(g.Nodes)+1)
	for _, t := range g.Nodes {
		files = append(files, fileTask{
			name:   t.Filename(),
			render: func() *jen.File { return g.genType(t) },
		})
	}
	files = append(files, fileTask{name: "entities.go", render: g.genEntities})

	w := NewWriter(g.Target, g.Workers)
	if err := w.writeAll(ctx, files); err != nil {
		return nil, err
	}
	metrics := w.Metrics()
	g.Logger.Info("generated models",
		"target", g.Target,
		"package", g.Package,
		"files", metrics.FilesGenerated,
		"bytes", metrics.TotalBytes,
		"duration", time.Since(start),
	)
	return metrics, nil
}

func (g *Graph) newFile() *jen.File {
	f := jen.NewFile(g.Package)
	f.HeaderComment(g.Header)
	return f
}

// genType generates the struct of one entity.
func (g *Graph) genType(t *Type) *jen.File {
	f := g.newFile()
	if t.GoName == t.Name {
		f.Commentf("%s is the model of the %s entity.", t.GoName, t.Name)
	} else {
		f.Commentf("%s is the model of the %s entity (class %s).", t.GoName, t.Name, t.ClassName)
	}
	f.Type().Id(t.GoName).StructFunc(func(group *jen.Group) {
		if t.Super != nil {
			group.Id(t.Super.GoName)
		}
		for _, fd := range t.Fields {
			group.Id(fd.StructField).Add(fd.GoType()).Tag(fd.Tags())
		}
		for _, e := range t.Edges {
			if e.Inverse != "" {
				group.Commentf("%s is the inverse of %s.%s.", e.StructField, e.Type.GoName, pascal(e.Inverse))
			}
			group.Id(e.StructField).Add(e.GoType()).Tag(e.Tags())
		}
	})

	f.Line()
	f.Commentf("%s is a list of %s models.", t.SliceName, t.GoName)
	f.Type().Id(t.SliceName).Index().Op("*").Id(t.GoName)

	rcv := t.Receiver()
	f.Line()
	f.Comment("EntityName returns the name of the modeled entity.")
	f.Func().Params(jen.Id(rcv).Op("*").Id(t.GoName)).Id("EntityName").Params().String().Block(
		jen.Return(jen.Lit(t.Name)),
	)
	if len(t.Edges) > 0 {
		f.Line()
		f.Comment("DeleteRules maps each relationship to its delete rule.")
		f.Func().Params(jen.Id(rcv).Op("*").Id(t.GoName)).Id("DeleteRules").Params().Map(jen.String()).String().Block(
			jen.Return(jen.Map(jen.String()).String().Values(jen.DictFunc(func(d jen.Dict) {
				for _, e := range t.Edges {
					d[jen.Lit(e.Name)] = jen.Lit(e.DeleteRule.String())
				}
			}))),
		)
	}
	return f
}

// genEntities generates the package level entity list.
func (g *Graph) genEntities() *jen.File {
	f := g.newFile()
	f.Comment("Entity is implemented by every model of the package.")
	f.Type().Id("Entity").Interface(
		jen.Id("EntityName").Params().String(),
	)

	f.Line()
	f.Comment("EntityNames lists the entities in dependency order: every entity")
	f.Comment("follows the entities it references.")
	f.Var().Id("EntityNames").Op("=").Index().String().ValuesFunc(func(group *jen.Group) {
		for _, t := range g.Nodes {
			group.Line().Lit(t.Name)
		}
		if len(g.Nodes) > 0 {
			group.Line()
		}
	})

	f.Line()
	f.Comment("New returns an empty model of the named entity.")
	f.Func().Id("New").Params(jen.Id("name").String()).Params(jen.Id("Entity"), jen.Bool()).Block(
		jen.Switch(jen.Id("name")).BlockFunc(func(group *jen.Group) {
			for _, t := range g.Nodes {
				group.Case(jen.Lit(t.Name)).Block(
					jen.Return(jen.Op("&").Id(t.GoName).Values(), jen.True()),
				)
			}
		}),
		jen.Return(jen.Nil(), jen.False()),
	)
	return f
}
