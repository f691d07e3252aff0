// Snapshot tool - runs a scene headless and writes the screen to PNG files.
//
// Usage: go run ./cmd/snapshot -config scene.yaml -ticks 300 -out frame.png
//
//	go run ./cmd/snapshot -ticks 120 -all -out frames/
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/plume/config"
	"github.com/pthm-cable/plume/fluid"
	"github.com/pthm-cable/plume/game"
)

func main() {
	configPath := flag.String("config", "", "Scene YAML file (empty = use defaults)")
	ticks := flag.Int("ticks", 120, "Ticks to simulate before capturing")
	out := flag.String("out", "snapshot.png", "Output PNG path, or a directory with -all")
	source := flag.String("source", "", "Field to render (empty = config render source)")
	all := flag.Bool("all", false, "Write one PNG per field into -out")
	seed := flag.Int64("seed", 1, "RNG seed")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	g, err := game.NewGameWithOptions(game.Options{Headless: true, Seed: *seed})
	if err != nil {
		log.Fatalf("failed to create game: %v", err)
	}
	defer g.Unload()

	for i := 0; i < *ticks; i++ {
		if err := g.UpdateHeadless(); err != nil {
			log.Fatalf("tick %d: %v", i, err)
		}
	}

	if !*all {
		if *source != "" {
			if err := capture(g, *source, *out); err != nil {
				log.Fatal(err)
			}
		} else if err := writePNG(g, *out); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Wrote %s after %d ticks\n", *out, g.Tick())
		return
	}

	if err := os.MkdirAll(*out, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}
	for _, k := range fluid.FieldKinds() {
		path := filepath.Join(*out, strings.ToLower(k.String())+".png")
		if err := capture(g, k.String(), path); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Wrote %s\n", path)
	}
}

// capture redraws the given field and saves the screen.
func capture(g *game.Game, source, path string) error {
	kind, err := fluid.ParseFieldKind(source)
	if err != nil {
		return err
	}
	g.Sim().Config().RenderSource = kind.String()
	if err := g.Sim().Render(); err != nil {
		return fmt.Errorf("rendering %s: %w", kind, err)
	}
	return writePNG(g, path)
}

func writePNG(g *game.Game, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, g.SoftwareEngine().ScreenImage()); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
