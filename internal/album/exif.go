package album

import (
	"fmt"
	"image"
	"math"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	// Header decoders for dimension fallback.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// exifFields lists the tags reported by ImageInfo, keyed by their exported name.
var exifFields = []struct {
	name   string
	fields []exif.FieldName
}{
	{"Make", []exif.FieldName{exif.Make}},
	{"Model", []exif.FieldName{exif.Model}},
	{"LensModel", []exif.FieldName{exif.LensModel}},
	{"DateTimeOriginal", []exif.FieldName{exif.DateTimeOriginal}},
	{"DateTime", []exif.FieldName{exif.DateTime}},
	{"ISO", []exif.FieldName{exif.ISOSpeedRatings}},
	{"FNumber", []exif.FieldName{exif.FNumber}},
	{"ExposureTime", []exif.FieldName{exif.ExposureTime}},
	{"FocalLength", []exif.FieldName{exif.FocalLength}},
	{"ImageWidth", []exif.FieldName{exif.PixelXDimension, exif.ImageWidth}},
	{"ImageHeight", []exif.FieldName{exif.PixelYDimension, exif.ImageLength}},
	{"Orientation", []exif.FieldName{exif.Orientation}},
	{"WhiteBalance", []exif.FieldName{exif.WhiteBalance}},
	{"Flash", []exif.FieldName{exif.Flash}},
	{"ExposureMode", []exif.FieldName{exif.ExposureMode}},
	{"MeteringMode", []exif.FieldName{exif.MeteringMode}},
}

// readExif returns the picked EXIF fields of the file at path. A file without
// EXIF data yields a nil map and no error.
func readExif(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, nil
	}

	out := make(map[string]any)
	for _, field := range exifFields {
		for _, name := range field.fields {
			tag, err := x.Get(name)
			if err != nil {
				continue
			}
			if v, ok := tagValue(tag); ok {
				out[field.name] = v
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func tagValue(tag *tiff.Tag) (any, bool) {
	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return nil, false
		}
		s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
		return s, s != ""
	case tiff.IntVal:
		v, err := tag.Int(0)
		return v, err == nil
	case tiff.RatVal:
		num, den, err := tag.Rat2(0)
		if err != nil || den == 0 {
			return nil, false
		}
		return float64(num) / float64(den), true
	case tiff.FloatVal:
		v, err := tag.Float(0)
		return v, err == nil
	}
	return nil, false
}

// shootingInfo derives the album summary from the EXIF of its first frame.
func shootingInfo(fields map[string]any) *ShootingInfo {
	if len(fields) == 0 {
		return nil
	}
	info := &ShootingInfo{Settings: &Settings{}}
	maker, model := stringField(fields, "Make"), stringField(fields, "Model")
	if maker != "" && model != "" {
		info.Camera = maker + " " + model
	}
	info.Lens = stringField(fields, "LensModel")
	info.Date = stringField(fields, "DateTimeOriginal")
	if info.Date == "" {
		info.Date = stringField(fields, "DateTime")
	}
	if iso, ok := numberField(fields, "ISO"); ok {
		info.Settings.ISO = int(iso)
	}
	if f, ok := numberField(fields, "FNumber"); ok {
		info.Settings.Aperture = fmt.Sprintf("f/%g", f)
	}
	if t, ok := numberField(fields, "ExposureTime"); ok {
		info.Settings.ShutterSpeed = formatExposure(t)
	}
	if fl, ok := numberField(fields, "FocalLength"); ok {
		info.Settings.FocalLength = fmt.Sprintf("%gmm", fl)
	}
	return info
}

// formatExposure renders sub-second exposures as a fraction.
func formatExposure(seconds float64) string {
	if seconds > 0 && seconds < 1 {
		return fmt.Sprintf("1/%d", int(math.Round(1/seconds)))
	}
	return fmt.Sprintf("%gs", seconds)
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func numberField(fields map[string]any, key string) (float64, bool) {
	switch v := fields[key].(type) {
	case int:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// dimensions prefers EXIF pixel sizes and falls back to the image header.
func dimensions(path string, fields map[string]any) *Dimensions {
	w, wok := numberField(fields, "ImageWidth")
	h, hok := numberField(fields, "ImageHeight")
	if wok && hok && w > 0 && h > 0 {
		return &Dimensions{Width: int(w), Height: int(h)}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil
	}
	return &Dimensions{Width: cfg.Width, Height: cfg.Height}
}
