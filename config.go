package tilecam

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SceneConfig describes a screen and its camera tree. It is usually loaded
// from YAML:
//
//	width: 800
//	height: 600
//	cameras:
//	  - name: world
//	    width: 800
//	    height: 600
//	    tileWidth: 32
//	    tileHeight: 32
//	    fixedTileSize: true
//	    msaa: x4
//	    children:
//	      - name: minimap
//	        x: 600
//	        width: 200
//	        height: 150
//	        view: {x: 0, y: 0, width: 64, height: 48}
type SceneConfig struct {
	Width   int            `yaml:"width"`
	Height  int            `yaml:"height"`
	Debug   bool           `yaml:"debug"`
	Clear   Color          `yaml:"clear"`
	Cameras []CameraConfig `yaml:"cameras"`
}

// UnmarshalYAML accepts "x4", "disabled" or a bare sample count.
func (m *MSAASamples) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("tilecam: msaa: %w", err)
	}
	parsed, err := ParseMSAASamples(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalYAML writes the String form.
func (m MSAASamples) MarshalYAML() (any, error) {
	return m.String(), nil
}

// LoadSceneConfig parses a YAML scene description.
func LoadSceneConfig(data []byte) (*SceneConfig, error) {
	var cfg SceneConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("tilecam: parse scene config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSceneConfigFile reads and parses a YAML scene file.
func LoadSceneConfigFile(path string) (*SceneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tilecam: read scene config: %w", err)
	}
	return LoadSceneConfig(data)
}

func (cfg *SceneConfig) validate() error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("tilecam: scene size %dx%d must be positive", cfg.Width, cfg.Height)
	}
	seen := make(map[string]bool)
	var walk func(cams []CameraConfig) error
	walk = func(cams []CameraConfig) error {
		for _, c := range cams {
			if c.Name != "" {
				if seen[c.Name] {
					return fmt.Errorf("tilecam: duplicate camera name %q", c.Name)
				}
				seen[c.Name] = true
			}
			if err := walk(c.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(cfg.Cameras)
}

// Build creates the screen and every camera, attached in config order. The
// returned map holds the named cameras.
func (cfg *SceneConfig) Build(rc *RenderContext) (*Screen, map[string]*Camera) {
	screen := NewScreen(rc, cfg.Width, cfg.Height)
	screen.ClearColour = cfg.Clear
	screen.SetDebugMode(cfg.Debug)

	named := make(map[string]*Camera)
	var build func(cams []CameraConfig, add func(Entity, int))
	build = func(cams []CameraConfig, add func(Entity, int)) {
		for _, cc := range cams {
			cam := NewCamera(cc)
			if cc.Name != "" {
				named[cc.Name] = cam
			}
			build(cc.Children, cam.Add)
			add(cam, cc.Layer)
		}
	}
	build(cfg.Cameras, screen.Add)
	return screen, named
}
