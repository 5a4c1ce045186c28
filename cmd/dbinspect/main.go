// Package main provides a tool to inspect a prompt database directly.
//
// Usage:
//
//	DATA_PATH=~/PromptLibrary go run ./cmd/dbinspect
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/domain"
)

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/PromptLibrary")
	}
	dbPath := filepath.Join(dataPath, "db")

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	promptCount := 0
	rated := 0
	withThumbnail := 0
	saverCount := 0
	byCategory := make(map[string]int)

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())

			switch {
			case strings.HasPrefix(key, "prompt:"):
				err := item.Value(func(val []byte) error {
					var p domain.Prompt
					if err := json.Unmarshal(val, &p); err != nil {
						return err
					}

					promptCount++
					if p.Rating > 0 {
						rated++
					}
					if p.Thumbnail != nil {
						withThumbnail++
					}
					byCategory[p.Category]++

					// Show the first few prompts in full.
					if promptCount <= 3 {
						text := p.Text
						if len(text) > 60 {
							text = text[:60] + "..."
						}
						fmt.Printf("Prompt: %s\n", p.ID)
						fmt.Printf("  Text: %s\n", text)
						fmt.Printf("  Category: %s  Model: %s  Tags: %v\n", p.Category, p.Model, p.Tags)
						fmt.Printf("  Rating: %d  Used: %d\n", p.Rating, p.UsedCount)
						fmt.Printf("  Updated: %s\n", p.UpdatedAt.Format("2006-01-02 15:04:05"))
						fmt.Println()
					}
					return nil
				})
				if err != nil {
					log.Printf("Error reading prompt %s: %v", key, err)
				}
			case strings.HasPrefix(key, "saver:"):
				saverCount++
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Total prompts: %d\n", promptCount)
	fmt.Printf("Rated: %d\n", rated)
	fmt.Printf("With thumbnail: %d\n", withThumbnail)
	fmt.Printf("Tracked savers: %d\n", saverCount)
	fmt.Println()
	fmt.Println("Prompts by category:")
	for category, count := range byCategory {
		if category == "" {
			category = "(none)"
		}
		fmt.Printf("  %s: %d\n", category, count)
	}
}
