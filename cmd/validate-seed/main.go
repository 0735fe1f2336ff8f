package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcelsud/books-api/seed"
)

/* validate-seed - checks a seed file without touching a database
 * Usage: go run ./cmd/validate-seed [books.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	seedFile := "books.yaml"
	if len(os.Args) > 1 {
		seedFile = os.Args[1]
	}

	fmt.Printf("Validating seed file: %s\n", seedFile)
	fmt.Println(strings.Repeat("-", 50))

	loader := seed.NewLoader()
	if err := loader.Load(seedFile); err != nil {
		fmt.Fprintf(os.Stderr, "VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	books := loader.List()
	fmt.Printf("VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d book(s):\n", len(books))

	for i, b := range books {
		fmt.Printf("\n%d. %s\n", i+1, b.Title)
		fmt.Printf("   Author: %s\n", b.Author)
		if b.PublishedYear != nil {
			fmt.Printf("   Year:   %d\n", *b.PublishedYear)
		}
		if b.ISBN != nil {
			fmt.Printf("   ISBN:   %s\n", *b.ISBN)
		}
	}
}
