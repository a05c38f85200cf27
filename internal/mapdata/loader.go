// Package mapdata loads galaxy maps from JSONL directories, zip bundles and YAML files.
package mapdata

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"starmap/internal/graph"
	"starmap/internal/logger"
)

// DefaultJumpRange is used when the map data does not specify one.
const DefaultJumpRange = 100.0

// ErrNoSystems is returned when a source defines no systems at all.
var ErrNoSystems = errors.New("mapdata: no systems found")

// Data holds a loaded galaxy.
type Data struct {
	Galaxy    *graph.Galaxy
	JumpRange float64
}

// systemLine is one line of systems.jsonl.
type systemLine struct {
	ID     int32   `json:"id"`
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Links  []int32 `json:"links"`
	OneWay bool    `json:"one_way"`
}

// linkLine is one line of links.jsonl.
type linkLine struct {
	From   int32 `json:"from"`
	To     int32 `json:"to"`
	OneWay bool  `json:"one_way"`
}

// Load reads a galaxy from path: a directory of JSONL files, a .zip of the
// same, or a .yaml/.yml file. Neighbors are computed from the jump range.
func Load(path string) (*Data, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat map data: %w", err)
	}

	var data *Data
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case info.IsDir():
		data, err = loadDir(path)
	case ext == ".zip":
		data, err = loadZip(path)
	case ext == ".yaml" || ext == ".yml":
		data, err = LoadYAML(path)
	default:
		return nil, fmt.Errorf("unsupported map data %q", path)
	}
	if err != nil {
		return nil, err
	}
	if data.Galaxy.Len() == 0 {
		return nil, ErrNoSystems
	}

	data.Galaxy.ComputeNeighbors(data.JumpRange)

	logger.Section("Galaxy")
	logger.Stats("Systems", data.Galaxy.Len())
	logger.Stats("Jump range", data.JumpRange)
	return data, nil
}

func loadDir(dir string) (*Data, error) {
	data := &Data{Galaxy: graph.NewGalaxy(), JumpRange: DefaultJumpRange}

	logger.Info("Map", "Loading systems...")
	var links []linkLine
	err := readJSONL(dir, "systems", func(raw json.RawMessage) error {
		var s systemLine
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		if s.ID == 0 {
			return nil
		}
		data.Galaxy.AddSystem(s.ID, s.Name, s.X, s.Y)
		for _, to := range s.Links {
			links = append(links, linkLine{From: s.ID, To: to, OneWay: s.OneWay})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load systems: %w", err)
	}

	logger.Info("Map", "Loading links...")
	err = readJSONL(dir, "links", func(raw json.RawMessage) error {
		var l linkLine
		if err := json.Unmarshal(raw, &l); err != nil {
			return err
		}
		links = append(links, l)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}

	err = readJSONL(dir, "settings", func(raw json.RawMessage) error {
		var s struct {
			JumpRange float64 `json:"jump_range"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		if s.JumpRange > 0 {
			data.JumpRange = s.JumpRange
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	addLinks(data.Galaxy, links)
	return data, nil
}

// addLinks adds every link whose ends are both known systems.
func addLinks(g *graph.Galaxy, links []linkLine) {
	skipped := 0
	for _, l := range links {
		if !g.Has(l.From) || !g.Has(l.To) || l.From == l.To {
			skipped++
			continue
		}
		g.AddLink(l.From, l.To)
		if !l.OneWay {
			g.AddLink(l.To, l.From)
		}
	}
	if skipped > 0 {
		logger.Warn("Map", fmt.Sprintf("Skipped %d links to unknown systems", skipped))
	}
}

func loadZip(path string) (*Data, error) {
	dir, err := os.MkdirTemp("", "starmap-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	logger.Info("Map", "Extracting data...")
	if err := extractZip(path, dir); err != nil {
		return nil, fmt.Errorf("extract map data: %w", err)
	}
	return loadDir(dir)
}

// readJSONL calls fn for each line of the first <baseName>.jsonl found under
// dir. A missing file is not an error. Lines fn rejects are counted and skipped.
func readJSONL(dir, baseName string, fn func(json.RawMessage) error) error {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := filepath.Ext(d.Name())
		if strings.EqualFold(ext, ".jsonl") && strings.EqualFold(strings.TrimSuffix(d.Name(), ext), baseName) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return err
	}
	if found == "" {
		logger.Warn("Map", fmt.Sprintf("File %s.jsonl not found, skipping", baseName))
		return nil
	}

	f, err := os.Open(found)
	if err != nil {
		return err
	}
	defer f.Close()

	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(json.RawMessage(line)); err != nil {
			skipped++
		}
	}
	if skipped > 0 {
		logger.Warn("Map", fmt.Sprintf("%s.jsonl: skipped %d malformed lines", baseName, skipped))
	}
	return scanner.Err()
}

func extractZip(src, dst string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return fmt.Errorf("resolve extract dir: %w", err)
	}

	for _, f := range r.File {
		fpath := filepath.Join(dstAbs, f.Name)

		// Zip slip guard: the resolved path must stay within dst
		if rel, err := filepath.Rel(dstAbs, fpath); err != nil || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("illegal zip entry path: %s", f.Name)
		}

		dir := filepath.Dir(fpath)
		if f.FileInfo().IsDir() {
			dir = fpath
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", f.Name, err)
		}
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.Create(fpath)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
