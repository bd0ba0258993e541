package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

var _ BookStorage = (*memoryBookStorage)(nil) // ensure memoryBookStorage implements BookStorage.

// memoryBookStorage keeps the catalog in process memory. Books are
// held in insertion order which is also the listing order.
type memoryBookStorage struct {
	logger *zap.Logger
	mu     sync.RWMutex
	books  []Book
}

// NewMemoryBookStorage provides an in-memory book storage pre-populated with seed.
func NewMemoryBookStorage(logger *zap.Logger, seed []Book) BookStorage {
	books := make([]Book, len(seed))
	copy(books, seed)
	return &memoryBookStorage{
		logger: logger,
		books:  books,
	}
}

// index returns the position of the book with the given id or -1.
// The caller must hold the lock.
func (ms *memoryBookStorage) index(id string) int {
	for i := range ms.books {
		if ms.books[i].ID == id {
			return i
		}
	}
	return -1
}

// Add appends a new book record. It fails if the isbn is already taken.
func (ms *memoryBookStorage) Add(_ context.Context, id string, book Book) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for i := range ms.books {
		if ms.books[i].ISBN == book.ISBN {
			ms.logger.Debug("memory: isbn already taken", zap.String("book.isbn", book.ISBN), zap.String("book.id", ms.books[i].ID))
			return ErrDuplicateISBN
		}
	}
	book.ID = id
	ms.books = append(ms.books, book)
	return nil
}

// GetOne retrieves a book record based on its ID.
func (ms *memoryBookStorage) GetOne(_ context.Context, id string) (Book, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	i := ms.index(id)
	if i < 0 {
		return Book{}, ErrBookNotFound
	}
	return ms.books[i], nil
}

// GetAll returns a copy of all books.
func (ms *memoryBookStorage) GetAll(_ context.Context) ([]Book, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	books := make([]Book, len(ms.books))
	copy(books, ms.books)
	return books, nil
}

// Update merges the patch onto an existing book and replaces it in place.
func (ms *memoryBookStorage) Update(_ context.Context, id string, patch BookPatch, at time.Time) (Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	i := ms.index(id)
	if i < 0 {
		return Book{}, ErrBookNotFound
	}
	book := ms.books[i]
	patch.Apply(&book, at)
	ms.books[i] = book
	return book, nil
}

// Delete removes a book record and returns it.
func (ms *memoryBookStorage) Delete(_ context.Context, id string) (Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	i := ms.index(id)
	if i < 0 {
		return Book{}, ErrBookNotFound
	}
	book := ms.books[i]
	ms.books = append(ms.books[:i], ms.books[i+1:]...)
	return book, nil
}

// Purchase decrements the stock of a book by quantity. Nothing
// changes when the stock cannot cover the requested quantity.
func (ms *memoryBookStorage) Purchase(_ context.Context, id string, quantity int) (Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	i := ms.index(id)
	if i < 0 {
		return Book{}, ErrBookNotFound
	}
	if ms.books[i].Stock < quantity {
		ms.logger.Debug("memory: stock too low for purchase", zap.String("book.id", id), zap.Int("book.stock", ms.books[i].Stock), zap.Int("quantity", quantity))
		return ms.books[i], &InsufficientStockError{Available: ms.books[i].Stock, Requested: quantity}
	}
	ms.books[i].Stock -= quantity
	return ms.books[i], nil
}
