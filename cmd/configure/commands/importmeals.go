package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/ymori/dinnerbot/internal/config"
	"github.com/ymori/dinnerbot/internal/database"
	"github.com/ymori/dinnerbot/internal/models"
	"github.com/ymori/dinnerbot/internal/validation"
)

// NewImportMealsCmd creates the import-meals command
func NewImportMealsCmd() *cobra.Command {
	var filePath string
	var userID string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import-meals",
		Short: "Import meal history from a CSV file",
		Long: `Import meal history rows for a user from a CSV file.

Expected columns: ate_date,dish,rating,mood,tags
  ate_date  YYYY-MM-DD
  rating    1-5
  tags      optional, separated by "、"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if filePath == "" {
				return fmt.Errorf("--file is required")
			}
			if userID == "" {
				return fmt.Errorf("--user is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			f, err := os.Open(filePath)
			if err != nil {
				return fmt.Errorf("failed to open CSV file: %w", err)
			}
			defer func() {
				if err := f.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close file: %v\n", err)
				}
			}()

			meals, err := parseMealCSV(f.Name(), csv.NewReader(f))
			if err != nil {
				return err
			}

			fmt.Printf("Parsed %d meal rows for user %s\n", len(meals), userID)
			if dryRun {
				for _, m := range meals {
					fmt.Printf("  %s  %s (rating %d)\n", m.AteDate.Format("2006-01-02"), m.Dish, m.Rating)
				}
				fmt.Println("Dry run, nothing written")
				return nil
			}

			mealRepo := database.NewMealRepository(db)
			ctx := context.Background()

			imported := 0
			for _, m := range meals {
				m.UserID = userID
				if err := mealRepo.Create(ctx, m); err != nil {
					return fmt.Errorf("failed to import %q: %w", m.Dish, err)
				}
				imported++
			}

			fmt.Printf("✓ Imported %d meals\n", imported)
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "Path to the CSV file (required)")
	cmd.Flags().StringVar(&userID, "user", "", "User ID to attach the meals to (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and validate without writing")

	return cmd
}

func parseMealCSV(name string, r *csv.Reader) ([]*models.Meal, error) {
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	var meals []*models.Meal
	for i, rec := range records {
		// Skip a header row if present
		if i == 0 && len(rec) > 0 && rec[0] == "ate_date" {
			continue
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("row %d: expected at least ate_date,dish,rating", i+1)
		}

		ateDate, err := time.Parse("2006-01-02", strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid ate_date %q: %w", i+1, rec[0], err)
		}

		dish := validation.SanitizeText(rec[1])
		if dish == "" {
			return nil, fmt.Errorf("row %d: dish is empty", i+1)
		}

		rating, err := strconv.Atoi(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid rating %q: %w", i+1, rec[2], err)
		}
		if err := validation.ValidateRating(rating); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		meal := &models.Meal{
			AteDate: ateDate,
			Dish:    dish,
			Rating:  rating,
			Decided: false,
		}
		if len(rec) > 3 {
			meal.Mood = validation.SanitizeText(rec[3])
		}
		if len(rec) > 4 && strings.TrimSpace(rec[4]) != "" {
			for _, tag := range strings.Split(rec[4], "、") {
				if t := validation.SanitizeText(tag); t != "" {
					meal.Tags = append(meal.Tags, t)
				}
			}
		}

		meals = append(meals, meal)
	}

	return meals, nil
}
