package gfx

// Template is a set of minimum requirements for a Config.
type Template struct {
	RedSize     int
	GreenSize   int
	BlueSize    int
	AlphaSize   int
	SurfaceType SurfaceType
}

var (
	// MinTemplate accepts any window-capable color config.
	MinTemplate = Template{
		RedSize:     1,
		GreenSize:   1,
		BlueSize:    1,
		SurfaceType: SurfaceWindow,
	}

	// LayeredTemplate requires full 8 bit color with an alpha channel
	// so that windows can be composited with transparency.
	LayeredTemplate = Template{
		RedSize:     8,
		GreenSize:   8,
		BlueSize:    8,
		AlphaSize:   8,
		SurfaceType: SurfaceWindow,
	}
)

// TemplateFor returns the template for windows that do or don't need
// transparency. The two templates are never combined.
func TemplateFor(layered bool) Template {
	if layered {
		return LayeredTemplate
	}
	return MinTemplate
}

func (t Template) Matches(cfg Config) bool {
	return (cfg.RedSize >= t.RedSize) &&
		(cfg.GreenSize >= t.GreenSize) &&
		(cfg.BlueSize >= t.BlueSize) &&
		(cfg.AlphaSize >= t.AlphaSize) &&
		(cfg.SurfaceType&t.SurfaceType == t.SurfaceType)
}

// Choose returns the first config that matches t.
func (t Template) Choose(configs []Config) (Config, bool) {
	for _, cfg := range configs {
		if t.Matches(cfg) {
			return cfg, true
		}
	}
	return Config{}, false
}
