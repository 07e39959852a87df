// Command seed fills the database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"vidtube/internal/config"
	"vidtube/internal/database"
	"vidtube/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	videos := flag.Int("videos", defaults.VideosPerUser, "Videos per user")
	subs := flag.Int("subscriptions", defaults.SubscriptionsPerUser, "Subscriptions per user")
	history := flag.Int("history", defaults.HistoryPerUser, "Watch history entries per user")
	clean := flag.Bool("clean", defaults.Clean, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	res, err := seed.NewSeeder(db).Run(context.Background(), seed.Options{
		NumUsers:             *numUsers,
		VideosPerUser:        *videos,
		SubscriptionsPerUser: *subs,
		HistoryPerUser:       *history,
		Clean:                *clean,
		RandSeed:             *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users and %d videos", len(res.Users), len(res.Videos))
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
