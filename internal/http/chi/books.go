package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/marcelsud/books-api/book"
	"github.com/rs/zerolog"
)

/*
* The book as the web layer sees it, hence the json tags.
* Every field is a pointer so that an absent key and an explicit null both
* mean "not supplied".
 */
type bookRequest struct {
	Title         *string    `json:"title"`
	Author        *string    `json:"author"`
	PublishedYear *yearValue `json:"published_year"`
	ISBN          *isbnValue `json:"isbn"`
}

// yearValue accepts 1965 as well as "1965".
type yearValue int

func (y *yearValue) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("published_year must be an integer, got %s", data)
	}
	*y = yearValue(n)
	return nil
}

// isbnValue accepts a string or a bare number.
type isbnValue string

func (v *isbnValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = isbnValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("isbn must be a string or a number, got %s", data)
	}
	*v = isbnValue(n.String())
	return nil
}

func (br bookRequest) year() *int {
	if br.PublishedYear == nil {
		return nil
	}
	y := int(*br.PublishedYear)
	return &y
}

func (br bookRequest) isbn() *string {
	if br.ISBN == nil {
		return nil
	}
	s := string(*br.ISBN)
	return &s
}

type bookResponse struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	PublishedYear *int    `json:"published_year"`
	ISBN          *string `json:"isbn"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (br bookRequest) toBook() book.Book {
	b := book.Book{
		PublishedYear: br.year(),
		ISBN:          br.isbn(),
	}
	if br.Title != nil {
		b.Title = *br.Title
	}
	if br.Author != nil {
		b.Author = *br.Author
	}
	return b
}

func (br bookRequest) toPatch() book.Patch {
	return book.Patch{
		Title:         br.Title,
		Author:        br.Author,
		PublishedYear: br.year(),
		ISBN:          br.isbn(),
	}
}

func newBookResponse(b book.Book) bookResponse {
	return bookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		PublishedYear: b.PublishedYear,
		ISBN:          b.ISBN,
	}
}

func getBooks(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		all, err := bookService.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		result := make([]bookResponse, 0, len(all))
		for _, b := range all {
			result = append(result, newBookResponse(b))
		}
		writeJSON(w, r, http.StatusOK, result)
	})
}

func getBook(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookID(r)
		if !ok {
			writeError(w, r, book.ErrNotFound)
			return
		}
		b, err := bookService.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, newBookResponse(b))
	})
}

func postBooks(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var br bookRequest
		if err := json.NewDecoder(r.Body).Decode(&br); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		created, err := bookService.Create(r.Context(), br.toBook())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, newBookResponse(created))
	})
}

func putBook(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookID(r)
		if !ok {
			writeError(w, r, book.ErrNotFound)
			return
		}
		var br bookRequest
		if err := json.NewDecoder(r.Body).Decode(&br); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := bookService.Update(r.Context(), id, br.toPatch()); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, messageResponse{Message: "book updated"})
	})
}

func deleteBook(bookService book.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookID(r)
		if !ok {
			writeError(w, r, book.ErrNotFound)
			return
		}
		if err := bookService.Delete(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// bookID parses {id}. Anything but a positive integer can never match a row.
func bookID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("encoding response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, book.ErrInvalidBook), errors.Is(err, book.ErrEmptyPatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, book.ErrNotFound):
		http.Error(w, book.ErrNotFound.Error(), http.StatusNotFound)
	case errors.Is(err, book.ErrDuplicateISBN):
		http.Error(w, book.ErrDuplicateISBN.Error(), http.StatusConflict)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
