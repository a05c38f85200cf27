package mapdata

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"starmap/internal/graph"
)

// yamlGalaxy is the layout of a hand-written galaxy file:
//
//	jump_range: 100
//	systems:
//	  - id: 1
//	    name: Sol
//	    position: [0, 0]
//	    links: [2, 3]
type yamlGalaxy struct {
	JumpRange float64      `yaml:"jump_range"`
	Systems   []yamlSystem `yaml:"systems"`
}

type yamlSystem struct {
	ID       int32     `yaml:"id"`
	Name     string    `yaml:"name"`
	Position []float64 `yaml:"position"`
	Links    []int32   `yaml:"links"`
	OneWay   bool      `yaml:"one_way"`
}

// LoadYAML reads a galaxy file. Unlike JSONL data, a malformed YAML file is an error.
// Neighbors are not computed; Load does that.
func LoadYAML(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read galaxy file: %w", err)
	}
	var doc yamlGalaxy
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse galaxy file %s: %w", path, err)
	}

	data := &Data{Galaxy: graph.NewGalaxy(), JumpRange: doc.JumpRange}
	if data.JumpRange <= 0 {
		data.JumpRange = DefaultJumpRange
	}

	var links []linkLine
	for _, s := range doc.Systems {
		if s.ID == 0 {
			return nil, fmt.Errorf("galaxy file %s: system %q has no id", path, s.Name)
		}
		var x, y float64
		if len(s.Position) >= 2 {
			x, y = s.Position[0], s.Position[1]
		}
		data.Galaxy.AddSystem(s.ID, s.Name, x, y)
		for _, to := range s.Links {
			links = append(links, linkLine{From: s.ID, To: to, OneWay: s.OneWay})
		}
	}
	addLinks(data.Galaxy, links)
	return data, nil
}
