package main

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrDuplicateISBN = errors.New("book with this isbn already exists")
)

// Book represents a book entity.
type Book struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	ISBN          string     `json:"isbn"`
	PublishedYear int        `json:"publishedYear"`
	Genre         string     `json:"genre"`
	Description   string     `json:"description"`
	Price         float64    `json:"price"`
	Stock         int        `json:"stock"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// BookPatch holds the subset of book fields an update is allowed to overwrite.
// A nil field means the value was not part of the update request.
type BookPatch struct {
	Title         *string
	Author        *string
	ISBN          *string
	PublishedYear *int
	Genre         *string
	Description   *string
	Price         *float64
	Stock         *int
}

// Apply merges the patch onto the book. Identity and creation
// time are never touched. UpdatedAt is stamped with `at`.
func (p BookPatch) Apply(book *Book, at time.Time) {
	if p.Title != nil {
		book.Title = *p.Title
	}
	if p.Author != nil {
		book.Author = *p.Author
	}
	if p.ISBN != nil {
		book.ISBN = *p.ISBN
	}
	if p.PublishedYear != nil {
		book.PublishedYear = *p.PublishedYear
	}
	if p.Genre != nil {
		book.Genre = *p.Genre
	}
	if p.Description != nil {
		book.Description = *p.Description
	}
	if p.Price != nil {
		book.Price = *p.Price
	}
	if p.Stock != nil {
		book.Stock = *p.Stock
	}
	book.UpdatedAt = &at
}

// InsufficientStockError is returned when a purchase asks for
// more copies than the book currently has in stock.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

// ValidationError reports a request field holding an unusable value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// Purchase is the outcome of a successful purchase.
type Purchase struct {
	Book     Book
	Quantity int
	Total    float64
}

// CatalogSummary holds the aggregates served by the metrics endpoint.
type CatalogSummary struct {
	TotalBooks   int
	TotalStock   int
	AveragePrice float64
	Genres       []string
}

// BookStorage defines possible operations on book entity.
type BookStorage interface {
	Add(ctx context.Context, id string, book Book) error
	GetOne(ctx context.Context, id string) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
	Update(ctx context.Context, id string, patch BookPatch, at time.Time) (Book, error)
	Delete(ctx context.Context, id string) (Book, error)
	Purchase(ctx context.Context, id string, quantity int) (Book, error)
}
