package renderers

import (
	"fmt"
	"image/gif"
	"image/jpeg"
	"path/filepath"
	"strings"

	"github.com/tdewolff/maprender"
	"github.com/tdewolff/maprender/renderers/pdf"
	"github.com/tdewolff/maprender/renderers/rasterizer"
	"github.com/tdewolff/maprender/renderers/svg"
	"golang.org/x/image/tiff"
)

// Options are the per format writer options.
type Options struct {
	JPG  *jpeg.Options
	GIF  *gif.Options
	TIFF *tiff.Options
	SVG  *svg.Options
	PDF  *pdf.Options
}

// Writer returns the map writer for the file extension of filename.
func Writer(filename string, opts ...interface{}) (maprender.Writer, error) {
	options := Options{}
	for _, opt := range opts {
		switch o := opt.(type) {
		case *jpeg.Options:
			options.JPG = o
		case *gif.Options:
			options.GIF = o
		case *tiff.Options:
			options.TIFF = o
		case *svg.Options:
			options.SVG = o
		case *pdf.Options:
			options.PDF = o
		default:
			return nil, fmt.Errorf("unknown option: %v", opt)
		}
	}

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".png":
		return rasterizer.PNGWriter(), nil
	case ".jpg", ".jpeg":
		return rasterizer.JPGWriter(options.JPG), nil
	case ".gif":
		return rasterizer.GIFWriter(options.GIF), nil
	case ".tif", ".tiff":
		return rasterizer.TIFFWriter(options.TIFF), nil
	case ".svg", ".svgz":
		if options.SVG == nil {
			defaultOptions := svg.DefaultOptions
			options.SVG = &defaultOptions
		}
		if ext == ".svgz" && options.SVG.Compression == 0 {
			options.SVG.Compression = -1
		}
		return svg.Writer(options.SVG), nil
	case ".pdf":
		return pdf.Writer(options.PDF), nil
	default:
		return nil, fmt.Errorf("unknown file extension: %v", ext)
	}
}

// Write renders the map into filename in the format given by its extension.
func Write(filename string, m *maprender.Map, opts ...interface{}) error {
	writer, err := Writer(filename, opts...)
	if err != nil {
		return err
	}
	return m.WriteFile(filename, writer)
}
