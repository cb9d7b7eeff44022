package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tbourn/go-video-rental/internal/lock"
	"github.com/tbourn/go-video-rental/internal/repo"
	"github.com/tbourn/go-video-rental/internal/services"
)

// seedFile is the document shape of a catalog seed.
type seedFile struct {
	Movies []seedMovie `yaml:"movies"`
}

type seedMovie struct {
	Title           string   `yaml:"title"`
	Genre           string   `yaml:"genre"`
	Director        string   `yaml:"director"`
	DurationMinutes int      `yaml:"duration_minutes"`
	Rating          float64  `yaml:"rating"`
	Description     string   `yaml:"description"`
	Actors          []string `yaml:"actors"`
	TotalCopies     *int     `yaml:"total_copies"`
}

func newSeedCmd(c *cli) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add catalog entries from a YAML file, skipping titles already present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			items, err := parseSeed(f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			ctx := cmd.Context()
			db, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close(db) }()

			res, err := services.NewCatalogService(db, lock.NewLocal()).Seed(ctx, items)
			if err != nil {
				return err
			}
			log.Info().Str("file", path).Int("created", res.Created).Int("skipped", res.Skipped).Msg("catalog seeded")
			fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d\n", res.Created, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "seeds/movies.yaml", "YAML seed file")
	return cmd
}

// parseSeed decodes a seed document. Unknown keys are rejected so typos do
// not silently drop fields.
func parseSeed(r io.Reader) ([]services.MovieInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc seedFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty seed file")
		}
		return nil, err
	}
	out := make([]services.MovieInput, 0, len(doc.Movies))
	for i, m := range doc.Movies {
		if m.Title == "" {
			return nil, fmt.Errorf("movies[%d]: title is required", i)
		}
		out = append(out, services.MovieInput{
			Title:           m.Title,
			Genre:           m.Genre,
			Director:        m.Director,
			DurationMinutes: m.DurationMinutes,
			Rating:          m.Rating,
			Description:     m.Description,
			Actors:          m.Actors,
			TotalCopies:     m.TotalCopies,
		})
	}
	return out, nil
}
