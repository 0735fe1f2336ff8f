package seed

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcelsud/books-api/book"
	"gopkg.in/yaml.v3"
)

/* Loader reads initial books from a YAML file:
 *
 *   books:
 *     - title: "Dune"
 *       author: "Frank Herbert"
 *       published_year: 1965
 *       isbn: "9780441013593"
 */

// Config represents the structure of the seed file
type Config struct {
	Books []BookConfig `yaml:"books"`
}

// BookConfig is one entry; published_year and isbn are optional
type BookConfig struct {
	Title         string  `yaml:"title"`
	Author        string  `yaml:"author"`
	PublishedYear *int    `yaml:"published_year"`
	ISBN          *string `yaml:"isbn"`
}

// Loader holds the books read from a seed file, in file order
type Loader struct {
	books []book.Book
}

func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and validates the seed file
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	return l.Parse(data)
}

// Parse validates raw YAML and replaces the loaded books on success
func (l *Loader) Parse(data []byte) error {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing seed YAML: %w", err)
	}

	books := make([]book.Book, 0, len(config.Books))
	isbns := make(map[string]int)
	for i, bc := range config.Books {
		b := book.Book{
			Title:         bc.Title,
			Author:        bc.Author,
			PublishedYear: bc.PublishedYear,
			ISBN:          bc.ISBN,
		}
		if err := b.Validate(); err != nil {
			return fmt.Errorf("validating book %d: %w", i+1, err)
		}
		if b.ISBN != nil && strings.TrimSpace(*b.ISBN) != "" {
			isbn := strings.TrimSpace(*b.ISBN)
			if first, dup := isbns[isbn]; dup {
				return fmt.Errorf("book %d: isbn %s already used by book %d", i+1, isbn, first)
			}
			isbns[isbn] = i + 1
		}
		books = append(books, b)
	}

	l.books = books
	return nil
}

// List returns the loaded books
func (l *Loader) List() []book.Book {
	return l.books
}
