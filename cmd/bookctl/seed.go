package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/shinyyama/book-courier-backend/internal/identity"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/shinyyama/book-courier-backend/internal/repository"
	"github.com/shinyyama/book-courier-backend/internal/service"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// catalog is the seed file layout:
//
//	librarian: shelf@example.com
//	books:
//	  - title: Dune
//	    author: Frank Herbert
//	    price: 25
//	    category: fiction
//	    quantity: 3
type catalog struct {
	Librarian string     `yaml:"librarian"`
	Books     []seedBook `yaml:"books"`
}

type seedBook struct {
	Title       string  `yaml:"title"`
	Author      string  `yaml:"author"`
	Image       string  `yaml:"image"`
	Price       float64 `yaml:"price"`
	Category    string  `yaml:"category"`
	Description string  `yaml:"description"`
	Quantity    int     `yaml:"quantity"`
	Status      string  `yaml:"status"`
	Librarian   string  `yaml:"librarian"`
}

func parseCatalog(r io.Reader) (*catalog, error) {
	var c catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog is empty")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c.Librarian = strings.ToLower(strings.TrimSpace(c.Librarian))
	for i := range c.Books {
		b := &c.Books[i]
		b.Librarian = strings.ToLower(strings.TrimSpace(b.Librarian))
		if b.Librarian == "" {
			b.Librarian = c.Librarian
		}
		if b.Librarian == "" {
			return nil, fmt.Errorf("book %d (%q): no librarian email", i+1, b.Title)
		}
	}
	return &c, nil
}

func (b seedBook) input() service.BookInput {
	return service.BookInput{
		Title:       b.Title,
		Author:      b.Author,
		Image:       b.Image,
		Price:       b.Price,
		Category:    b.Category,
		Description: b.Description,
		Quantity:    b.Quantity,
		Status:      model.BookStatus(b.Status),
	}
}

// seedCatalog creates every book through the book service so seeded rows get the
// same validation as books added over the API.
func seedCatalog(ctx context.Context, books service.BookService, c *catalog) (int, error) {
	created := 0
	for i, b := range c.Books {
		actor := &identity.Identity{UID: "bookctl", Email: b.Librarian, Role: model.RoleLibrarian}
		if _, err := books.Create(ctx, actor, b.input()); err != nil {
			return created, fmt.Errorf("book %d (%q): %w", i+1, b.Title, err)
		}
		created++
	}
	return created, nil
}

func seedCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed [catalog.yaml]",
		Short: "Load a YAML book catalog into the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			c, err := parseCatalog(f)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			cfg, st, err := loadStore(ctx)
			if err != nil {
				return err
			}
			defer st.close()

			if !force {
				_, total, err := st.repos.Books.List(ctx, repository.BookFilter{Limit: 1})
				if err != nil {
					return fmt.Errorf("count books: %w", err)
				}
				if total > 0 {
					log.Printf("books already exist (%d); skipping seed (pass --force to override)", total)
					return nil
				}
			}

			n, err := seedCatalog(ctx, service.NewBookService(st.repos.Books, nil, cfg.UpstreamTimeout), c)
			log.Printf("seeded %d of %d books", n, len(c.Books))
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "seed even when books already exist")
	return cmd
}
