// Package main provides a tool to seed the database with sample prompts.
//
// This creates realistic prompt records with categories, models, tags,
// and ratings to exercise the list filters and statistics views.
//
// Usage:
//
//	DATA_PATH=~/PromptLibrary go run ./cmd/seed
//	DATA_PATH=~/PromptLibrary go run ./cmd/seed --count 50
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/id"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
	badgerstore "github.com/danieljanata/ComfyUI-Prompting-System/internal/store/badger"
)

var count = flag.Int("count", 25, "Number of prompts to create")

var (
	categories = []string{"scenes", "characters", "portraits", "abstract"}
	models     = []string{"sdxl", "flux-dev", "sd15"}
	tagPool    = []string{"cinematic", "photoreal", "anime", "night", "landscape", "detailed"}

	subjects = []string{
		"a cat sitting on a sunlit windowsill",
		"an astronaut walking through a neon city",
		"a mountain lake at dawn, mist rising",
		"portrait of an elderly fisherman, weathered face",
		"a derelict spaceship drifting past a gas giant",
		"a cozy bookshop interior, rain outside",
		"wildflowers in a storm, dramatic sky",
		"a steam locomotive crossing a viaduct",
	}
	styles = []string{
		"oil painting, heavy brushstrokes",
		"35mm film photograph, shallow depth of field",
		"studio lighting, high detail",
		"watercolor, soft edges",
		"volumetric light, 8k",
	}
)

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/PromptLibrary")
	}
	dbPath := filepath.Join(dataPath, "db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := badgerstore.Open(dbPath, nil, store.NewNoopEmitter())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, c := range categories {
		if err := s.AddCategory(ctx, c); err != nil {
			log.Fatalf("Failed to add category %s: %v", c, err)
		}
	}
	for _, m := range models {
		if err := s.AddModel(ctx, m); err != nil {
			log.Fatalf("Failed to add model %s: %v", m, err)
		}
	}
	fmt.Printf("Registered %d categories, %d models\n", len(categories), len(models))

	now := time.Now().UTC()
	created := 0

	for i := 0; i < *count; i++ {
		p := &domain.Prompt{
			Text:     subjects[rng.Intn(len(subjects))] + ", " + styles[rng.Intn(len(styles))],
			Category: categories[rng.Intn(len(categories))],
			Model:    models[rng.Intn(len(models))],
		}
		p.ID = id.MustGenerate("prompt")

		// One or two tags per prompt, occasionally none.
		if rng.Float32() > 0.2 {
			p.Tags = append(p.Tags, tagPool[rng.Intn(len(tagPool))])
			if rng.Float32() > 0.6 {
				extra := tagPool[rng.Intn(len(tagPool))]
				if extra != p.Tags[0] {
					p.Tags = append(p.Tags, extra)
				}
			}
		}

		// Roughly half rated, a third used at least once.
		if rng.Float32() > 0.5 {
			p.Rating = 1 + rng.Intn(5)
		}
		if rng.Float32() > 0.66 {
			p.UsedCount = 1 + rng.Intn(10)
		}

		// Spread creation over the past 30 days.
		age := time.Duration(rng.Intn(30*24)) * time.Hour
		p.CreatedAt = now.Add(-age)
		p.UpdatedAt = p.CreatedAt

		if err := s.CreatePrompt(ctx, p); err != nil {
			log.Fatalf("Failed to create prompt: %v", err)
		}
		created++
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}

	fmt.Printf("\nCreated %d prompts\n", created)
	fmt.Printf("Library now holds %d prompts (%d rated)\n", stats.Total, stats.Rated)
}
