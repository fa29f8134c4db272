// Package main seeds the database with authored content: quest templates and
// catalog items. Re-running it refreshes existing rows in place.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fablebot/fablebot/internal/config"
	"github.com/fablebot/fablebot/internal/game/loot"
	"github.com/fablebot/fablebot/internal/game/quest"
	"github.com/fablebot/fablebot/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	questsDir := flag.String("quests", "", "path to quest template YAML directory (default: content.quest_dir)")
	itemsDir := flag.String("items", "", "path to item YAML directory (default: content.items_dir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *questsDir == "" {
		*questsDir = cfg.Content.QuestDir
	}
	if *itemsDir == "" {
		*itemsDir = cfg.Content.ItemsDir
	}

	catalog, err := quest.LoadDirectory(*questsDir)
	if err != nil {
		log.Fatalf("loading quest templates: %v", err)
	}
	items, err := loot.LoadItemsDir(*itemsDir)
	if err != nil {
		log.Fatalf("loading items: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	start := time.Now()
	quests := postgres.NewQuestRepository(pool.DB())
	for _, t := range catalog.All() {
		if err := quests.UpsertTemplate(ctx, t); err != nil {
			log.Fatalf("seeding quest %q: %v", t.ID, err)
		}
	}

	itemRepo := postgres.NewItemRepository(pool.DB())
	for _, item := range items {
		if _, err := itemRepo.UpsertAuthored(ctx, item); err != nil {
			log.Fatalf("seeding item %q: %v", item.Name, err)
		}
	}

	fmt.Fprintf(os.Stdout, "seeded %d quests and %d items in %s\n",
		catalog.Len(), len(items), time.Since(start).Round(time.Millisecond))
}
