package main

import (
	"context"
	"log"
	"os"

	"ai-trainer-be/internal/bootstrap"
	"ai-trainer-be/internal/config"
	"ai-trainer-be/pkg/database"
	"ai-trainer-be/pkg/vectorstore"

	"github.com/fatih/color"
	"gorm.io/gorm"
)

// Seeds the shared fitness corpus so a fresh deployment can answer common
// training questions without any uploads.
func main() {
	cfg := config.Load()

	var gormDB *gorm.DB
	if cfg.Vector.Backend == "pgvector" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Fatalf("Error: Failed to connect to database: %v", err)
		}
		gormDB = db
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	color.Cyan("Seeding global fitness knowledge (%s backend)\n", cfg.Vector.Backend)

	docs := []vectorstore.Document{
		{
			Content:  "Progressive overload is the gradual increase of stress placed on the body during training. Increase weight, reps, sets or frequency over time to keep making strength and muscle gains. A common approach is adding 2.5-5kg to compound lifts once you can complete all prescribed reps with good form.",
			Metadata: vectorstore.Metadata{Filename: "progressive_overload.md"},
		},
		{
			Content:  "The squat is a compound movement targeting quadriceps, glutes and hamstrings. Keep your chest up, brace your core, and drive through your heels. Depth should reach at least parallel, knees tracking over toes. Common mistakes include heels rising, knees caving inward, and excessive forward lean.",
			Metadata: vectorstore.Metadata{Filename: "squat_form.md"},
		},
		{
			Content:  "For fat loss, a moderate caloric deficit of 300-500 kcal per day is sustainable for most people. Pair it with 1.6-2.2g of protein per kg of bodyweight to preserve lean mass, resistance training 3-4 times per week, and 7-9 hours of sleep.",
			Metadata: vectorstore.Metadata{Filename: "fat_loss_basics.md"},
		},
		{
			Content:  "Beginner strength programs work best with full-body sessions 3 times per week, built around squat, hinge, push and pull patterns. Start with 3 sets of 5-8 reps at a weight you could lift for 2-3 more reps, and focus on technique before intensity.",
			Metadata: vectorstore.Metadata{Filename: "beginner_programming.md"},
		},
		{
			Content:  "Rest intervals matter: 2-5 minutes between heavy compound sets for strength, 60-90 seconds for hypertrophy work, 30-60 seconds for muscular endurance. Cutting rest too short on heavy lifts reduces performance on subsequent sets.",
			Metadata: vectorstore.Metadata{Filename: "rest_intervals.md"},
		},
		{
			Content:  "The deadlift trains the posterior chain: hamstrings, glutes, spinal erectors and traps. Set up with the bar over mid-foot, neutral spine, lats engaged. Push the floor away rather than pulling with the back. Rounding the lumbar spine under load is the main injury risk.",
			Metadata: vectorstore.Metadata{Filename: "deadlift_form.md"},
		},
	}

	ids, err := container.Store.AddGlobalDocuments(context.Background(), docs)
	if err != nil {
		color.Red("Seeding failed: %v", err)
		os.Exit(1)
	}

	color.Green("Seeded %d documents (%d chunks) into %s", len(docs), len(ids), vectorstore.GlobalNamespace)
}
