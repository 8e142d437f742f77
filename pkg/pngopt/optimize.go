package pngopt

import (
	"context"

	"pngopt/internal/engine"
)

// Output says where Optimize writes its result. The zero value rewrites the input.
type Output struct {
	out engine.OutFile
}

// InPlace replaces the input file.
func InPlace() Output { return Output{out: engine.OutFile{Mode: engine.OutInPlace}} }

// InPlacePreservingAttrs replaces the input file and keeps its modification time.
func InPlacePreservingAttrs() Output {
	return Output{out: engine.OutFile{Mode: engine.OutInPlace, PreserveAttrs: true}}
}

func ToPath(path string) Output { return Output{out: engine.OutFile{Mode: engine.OutPath, Path: path}} }

// Discard runs the optimization and throws the result away.
func Discard() Output { return Output{out: engine.OutFile{Mode: engine.OutNone}} }

// Optimize optimizes the PNG file at inputPath.
func Optimize(ctx context.Context, inputPath string, output Output, cfg Configuration) error {
	return translate(engine.Optimize(ctx, engine.InFile{Path: inputPath}, output.out, cfg.native()))
}

// OptimizeFromMemory optimizes PNG data held in memory.
func OptimizeFromMemory(ctx context.Context, data []byte, cfg Configuration) ([]byte, error) {
	out, err := engine.OptimizeFromMemory(ctx, data, cfg.native())
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}
