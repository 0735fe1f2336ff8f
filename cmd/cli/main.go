package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/marcelsud/books-api/book"
	"github.com/marcelsud/books-api/config"
	"github.com/marcelsud/books-api/events/signature"
	"github.com/marcelsud/books-api/internal/storage"
	"github.com/marcelsud/books-api/seed"
	"github.com/spf13/cobra"
)

/* cli - manage books straight against the configured database
 * Usage: go run ./cmd/cli <command>
 */

type app struct {
	repo    book.Repository
	service book.UseCase
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "cli",
		Short:        "Manage the books catalogue",
		SilenceUsage: true,
	}

	withStore := func(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			defer a.repo.Close(context.Background())
			return run(cmd, args)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all books",
			Args:  cobra.NoArgs,
			RunE: withStore(func(cmd *cobra.Command, _ []string) error {
				all, err := a.service.List(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, all)
			}),
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show one book",
			Args:  cobra.ExactArgs(1),
			RunE: withStore(func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				b, err := a.service.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJSON(cmd, b)
			}),
		},
		addCmd(a, withStore),
		updateCmd(a, withStore),
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a book",
			Args:  cobra.ExactArgs(1),
			RunE: withStore(func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := a.service.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "book %d deleted\n", id)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "seed <file>",
			Short: "Create the books listed in a seed file, skipping known ISBNs",
			Args:  cobra.ExactArgs(1),
			RunE: withStore(func(cmd *cobra.Command, args []string) error {
				loader := seed.NewLoader()
				if err := loader.Load(args[0]); err != nil {
					return err
				}
				res, err := seed.Apply(cmd.Context(), a.service, loader.List())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d created, %d skipped\n", res.Created, res.Skipped)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "gen-secret",
			Short: "Print a new EVENTS_SIGNING_SECRET",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				secret, err := signature.GenerateSecret(32)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), secret.String())
				return nil
			},
		},
	)
	return root
}

// open wires the service without a change feed: CLI writes are operator fixes.
func (a *app) open(ctx context.Context) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	repo, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	a.repo = repo
	a.service = book.NewService(repo, nil)
	return nil
}

type runner func(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error

func addCmd(a *app, withStore runner) *cobra.Command {
	var (
		b    book.Book
		year int
		isbn string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a book",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("year") {
				b.PublishedYear = &year
			}
			if cmd.Flags().Changed("isbn") {
				b.ISBN = &isbn
			}
			created, err := a.service.Create(cmd.Context(), b)
			if err != nil {
				return err
			}
			return printJSON(cmd, created)
		}),
	}
	cmd.Flags().StringVar(&b.Title, "title", "", "book title")
	cmd.Flags().StringVar(&b.Author, "author", "", "book author")
	cmd.Flags().IntVar(&year, "year", 0, "publication year")
	cmd.Flags().StringVar(&isbn, "isbn", "", "ISBN, unique across books")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("author")
	return cmd
}

func updateCmd(a *app, withStore runner) *cobra.Command {
	var (
		title, author, isbn string
		year                int
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change some fields of a book",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var p book.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				p.Title = &title
			}
			if flags.Changed("author") {
				p.Author = &author
			}
			if flags.Changed("year") {
				p.PublishedYear = &year
			}
			if flags.Changed("isbn") {
				p.ISBN = &isbn
			}
			if err := a.service.Update(cmd.Context(), id, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "book %d updated\n", id)
			return nil
		}),
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&author, "author", "", "new author")
	cmd.Flags().IntVar(&year, "year", 0, "new publication year")
	cmd.Flags().StringVar(&isbn, "isbn", "", "new ISBN, empty to clear")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid book id %q", s)
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
