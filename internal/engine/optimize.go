package engine

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"pngopt/pkg/imgutil"
)

// Optimize reads a PNG file and writes the optimized result according to out.
func Optimize(ctx context.Context, in InFile, out OutFile, opts *Options) error {
	ctx, cancel := withTimeout(ctx, opts)
	defer cancel()

	file, err := os.Open(in.Path)
	if err != nil {
		return errOther(fmt.Sprintf("open %s", in.Path), err)
	}
	defer file.Close()

	srcInfo, err := file.Stat()
	if err != nil {
		return errOther(fmt.Sprintf("stat %s", in.Path), err)
	}

	kind, err := imgutil.SniffReader(file)
	if errors.Is(err, imgutil.ErrShortHeader) || (err == nil && kind != imgutil.KindPNG) {
		return errKind(KindNotPNG)
	}
	if err != nil {
		return errOther(fmt.Sprintf("read %s", in.Path), err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return errOther(fmt.Sprintf("read %s", in.Path), err)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return errOther(fmt.Sprintf("read %s", in.Path), err)
	}

	result, err := optimizeData(ctx, data, opts)
	if err != nil {
		return err
	}
	if opts.Check || opts.Pretend || out.Mode == OutNone {
		return nil
	}

	destPath, err := resolveDestination(in, out)
	if err != nil {
		return err
	}
	if opts.Backup {
		if err := os.WriteFile(in.Path+".bak", data, srcInfo.Mode().Perm()); err != nil {
			return errOther("write backup", err)
		}
	}
	if destPath == in.Path && bytes.Equal(result, data) {
		return nil
	}
	if err := writeAtomic(destPath, result, srcInfo.Mode()); err != nil {
		return errOther(fmt.Sprintf("write %s", destPath), err)
	}
	if out.PreserveAttrs || opts.PreserveAttrs {
		if err := os.Chtimes(destPath, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
			return errOther("preserve attributes", err)
		}
	}
	return nil
}

// OptimizeFromMemory optimizes an in-memory PNG.
func OptimizeFromMemory(ctx context.Context, data []byte, opts *Options) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, opts)
	defer cancel()
	return optimizeData(ctx, data, opts)
}

func optimizeData(ctx context.Context, data []byte, opts *Options) ([]byte, error) {
	f, err := readPNG(data, opts.FixErrors)
	if err != nil {
		return nil, err
	}
	if opts.Check {
		return data, nil
	}

	raw, err := decodeFile(f)
	if err != nil {
		return nil, err
	}

	var out []byte
	sameInterlace := opts.Interlace == nil || *opts.Interlace == f.header.interlace
	if !opts.IDATRecoding && sameInterlace && !reduce(raw.clone(), opts) {
		out = assemble(f.header, fileColor(f), opts.Strip.apply(f.chunks), f.idat)
	} else {
		out, err = encodeImage(ctx, raw, opts)
		if err != nil {
			return nil, err
		}
	}

	if !opts.Force && len(out) >= len(data) {
		return data, nil
	}
	return out, nil
}

// fileColor rebuilds the color type recorded in the PLTE and tRNS chunks of f.
func fileColor(f *pngFile) ColorType {
	c := ColorType{Kind: f.header.color}
	switch c.Kind {
	case ColorIndexed:
		c.Palette = paletteFromChunks(f.palette, f.trns)
	case ColorGrayscale:
		if len(f.trns) >= 2 {
			v := binary.BigEndian.Uint16(f.trns)
			c.TransparentShade = &v
		}
	case ColorRGB:
		if len(f.trns) >= 6 {
			c.TransparentColor = &RGB16{
				R: binary.BigEndian.Uint16(f.trns[0:]),
				G: binary.BigEndian.Uint16(f.trns[2:]),
				B: binary.BigEndian.Uint16(f.trns[4:]),
			}
		}
	}
	return c
}

func resolveDestination(in InFile, out OutFile) (string, error) {
	switch out.Mode {
	case OutInPlace:
		return in.Path, nil
	case OutPath:
		if out.Path == "" {
			return in.Path, nil
		}
		return out.Path, nil
	default:
		return "", errOther("no output requested", nil)
	}
}

// writeAtomic writes data to a temp file next to destPath and renames it into place.
func writeAtomic(destPath string, data []byte, mode os.FileMode) error {
	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(destDir, "pngopt-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if err := tmpFile.Chmod(mode); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return replaceFile(tmpFile.Name(), destPath)
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
