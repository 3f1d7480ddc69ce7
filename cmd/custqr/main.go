// Command custqr renders a customized QR code without the web UI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cristianadrielbraun/custqr/internal/entity"
	"github.com/cristianadrielbraun/custqr/internal/export"
	"github.com/cristianadrielbraun/custqr/internal/logging"
	"github.com/cristianadrielbraun/custqr/internal/logo"
	"github.com/cristianadrielbraun/custqr/internal/render"
	"github.com/cristianadrielbraun/custqr/internal/validate"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/yeqown/go-qrcode/writer/terminal"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "custqr: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	d := entity.DefaultOptions()
	return &cli.App{
		Name:  "custqr",
		Usage: "render customized QR codes",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging"},
		},
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "write a QR code as png, svg or pdf",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Required: true, Usage: "content to encode"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: string(export.FormatPNG), Usage: "png, svg or pdf"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default custqr-code.<format>)"},
					&cli.StringFlag{Name: "logo", Usage: "logo image placed at the center"},
					&cli.StringFlag{Name: "logo-profile", Value: logo.ProfileEnterprise, Usage: "logo limits: enterprise or baseline"},
					&cli.IntFlag{Name: "width", Value: d.Width, Usage: "preview width in pixels; exports are scaled up"},
					&cli.IntFlag{Name: "margin", Value: d.Margin, Usage: "quiet zone in modules"},
					&cli.StringFlag{Name: "level", Value: string(d.Level), Usage: "error correction: L, M, Q or H"},
					&cli.StringFlag{Name: "dark", Value: d.Color.Dark, Usage: "module color"},
					&cli.StringFlag{Name: "light", Value: d.Color.Light, Usage: "background color"},
					&cli.IntFlag{Name: "scale", Value: 2, Usage: "export scale factor"},
					&cli.StringFlag{Name: "encoder", Value: render.EncoderYeqown, Usage: "yeqown or skip2"},
				},
				Action: runExport,
			},
			{
				Name:  "preview",
				Usage: "print a QR code to the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{Name: "level", Value: string(d.Level)},
				},
				Action: runPreview,
			},
		},
	}
}

func newLogger(c *cli.Context) (*logrus.Logger, error) {
	level := "warn"
	if c.Bool("verbose") {
		level = "debug"
	}
	return logging.SetupWriter(c.App.ErrWriter, level, "text")
}

// optionsFromFlags validates flags strictly; unlike the form fields there is
// no one to show a corrected value to.
func optionsFromFlags(c *cli.Context) (entity.Options, error) {
	level, err := entity.ParseLevel(c.String("level"))
	if err != nil {
		return entity.Options{}, err
	}
	o := entity.Options{
		Level:  level,
		Width:  c.Int("width"),
		Margin: c.Int("margin"),
		Color:  entity.Colors{Dark: c.String("dark"), Light: c.String("light")},
	}
	if !entity.WidthBounds.Contains(o.Width) {
		return o, errors.Errorf("width %d outside %d-%d", o.Width, entity.WidthBounds.Min, entity.WidthBounds.Max)
	}
	if !entity.MarginBounds.Contains(o.Margin) {
		return o, errors.Errorf("margin %d outside %d-%d", o.Margin, entity.MarginBounds.Min, entity.MarginBounds.Max)
	}
	if err := validate.HexColor(o.Color.Dark); err != nil {
		return o, errors.Wrap(err, "dark")
	}
	if err := validate.HexColor(o.Color.Light); err != nil {
		return o, errors.Wrap(err, "light")
	}
	return o, nil
}

func runExport(c *cli.Context) error {
	log, err := newLogger(c)
	if err != nil {
		return err
	}

	raw := c.String("url")
	if res := validate.CheckURL(raw); !res.Valid {
		return errors.New(res.Error)
	}
	format, err := export.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}
	opts, err := optionsFromFlags(c)
	if err != nil {
		return err
	}
	enc, err := render.NewEncoder(c.String("encoder"))
	if err != nil {
		return err
	}

	req := export.Request{URL: validate.SanitizeURL(raw), Options: opts}
	if path := c.String("logo"); path != "" {
		req.Logo, err = loadLogo(c, log, path)
		if err != nil {
			return err
		}
	}

	r := render.New(enc, logging.Component(log, "render"))
	exp := export.New(r, c.Int("scale"), true, logging.Component(log, "export"))
	art, err := exp.Export(c.Context, req, format)
	if err != nil {
		return errors.Wrap(err, "export")
	}

	out := c.String("out")
	if out == "" {
		out = art.Filename
	}
	if err := os.WriteFile(out, art.Data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", out)
	}

	fmt.Fprintf(c.App.Writer, "wrote %s (%d bytes, scan %s)\n", out, len(art.Data), art.Scan)
	if art.RasterFallback() {
		fmt.Fprintln(c.App.Writer, "note: the logo forces a raster image inside the svg")
	}
	if art.Scan.Checked && !art.Scan.OK {
		fmt.Fprintln(c.App.Writer, "warning: the exported code did not scan back; check the colors and logo")
	}
	return nil
}

func loadLogo(c *cli.Context, log *logrus.Logger, path string) (*entity.LogoAsset, error) {
	limits, err := logo.ProfileLimits(c.String("logo-profile"))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read logo")
	}
	name := filepath.Base(path)
	meta := entity.FileMeta{
		Name:     name,
		Size:     int64(len(data)),
		MIMEType: validate.AllowedTypes[strings.ToLower(filepath.Ext(name))],
	}
	p := logo.NewProcessor(limits, logo.DefaultMaxEdge, logo.DefaultDecodeTimeout, logging.Component(log, "logo"))
	asset, err := p.Process(c.Context, meta, data)
	if err != nil {
		return nil, errors.Wrapf(err, "logo %s", name)
	}
	return asset, nil
}

func runPreview(c *cli.Context) error {
	raw := c.String("url")
	if res := validate.CheckURL(raw); !res.Valid {
		return errors.New(res.Error)
	}
	level, err := entity.ParseLevel(c.String("level"))
	if err != nil {
		return err
	}
	qrc, err := render.Symbol(validate.SanitizeURL(raw), level)
	if err != nil {
		return err
	}
	return errors.Wrap(qrc.Save(terminal.New()), "terminal")
}
