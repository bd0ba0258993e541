package main

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestMemoryStore() BookStorage {
	return NewMemoryBookStorage(zap.NewNop(), SeedBooks(NewMockClocker().Now()))
}

// TestMemoryStore_Seed ensures the catalog starts with the three sample books.
func TestMemoryStore_Seed(t *testing.T) {
	ms := newTestMemoryStore()
	books, err := ms.GetAll(context.TODO())
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{books[0].ID, books[1].ID, books[2].ID})
	assert.Equal(t, 15, books[0].Stock)
	assert.Equal(t, 29.99, books[0].Price)
}

// TestMemoryStore_Add ensures insertion appends and rejects duplicated isbn.
func TestMemoryStore_Add(t *testing.T) {
	ms := newTestMemoryStore()
	err := ms.Add(context.TODO(), "b:0", Book{Title: "Memory test book", ISBN: "978-0000000001"})
	require.NoError(t, err)

	book, err := ms.GetOne(context.TODO(), "b:0")
	require.NoError(t, err)
	assert.Equal(t, "b:0", book.ID)
	assert.Equal(t, "Memory test book", book.Title)

	books, _ := ms.GetAll(context.TODO())
	assert.Equal(t, "b:0", books[len(books)-1].ID)

	err = ms.Add(context.TODO(), "b:1", Book{ISBN: "978-0000000001"})
	assert.ErrorIs(t, err, ErrDuplicateISBN)
	_, err = ms.GetOne(context.TODO(), "b:1")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

// TestMemoryStore_RejectionLogs ensures rejected writes are reported at debug level.
func TestMemoryStore_RejectionLogs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ms := NewMemoryBookStorage(zap.New(core), SeedBooks(NewMockClocker().Now()))

	err := ms.Add(context.TODO(), "b:0", Book{ISBN: "978-1617293726"})
	assert.ErrorIs(t, err, ErrDuplicateISBN)
	entries := logs.FilterMessage("memory: isbn already taken").AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "978-1617293726", entries[0].ContextMap()["book.isbn"])
	assert.Equal(t, "2", entries[0].ContextMap()["book.id"])

	_, err = ms.Purchase(context.TODO(), "2", 9)
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	entries = logs.FilterMessage("memory: stock too low for purchase").AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(8), entries[0].ContextMap()["book.stock"])
	assert.Equal(t, int64(9), entries[0].ContextMap()["quantity"])
}

// TestMemoryStore_GetAll ensures callers cannot mutate the stored books.
func TestMemoryStore_GetAll(t *testing.T) {
	ms := newTestMemoryStore()
	books, err := ms.GetAll(context.TODO())
	require.NoError(t, err)
	books[0].Title = "changed"
	book, err := ms.GetOne(context.TODO(), "1")
	require.NoError(t, err)
	assert.NotEqual(t, "changed", book.Title)
}

// TestMemoryStore_Update ensures only patched fields change.
func TestMemoryStore_Update(t *testing.T) {
	ms := newTestMemoryStore()
	before, _ := ms.GetOne(context.TODO(), "2")
	at := NewMockClocker().Now().Add(time.Hour)
	price := 19.5
	title := "New title"

	book, err := ms.Update(context.TODO(), "2", BookPatch{Title: &title, Price: &price}, at)
	require.NoError(t, err)
	assert.Equal(t, "2", book.ID)
	assert.Equal(t, "New title", book.Title)
	assert.Equal(t, 19.5, book.Price)
	assert.Equal(t, before.Author, book.Author)
	assert.Equal(t, before.Stock, book.Stock)
	assert.Equal(t, before.CreatedAt, book.CreatedAt)
	require.NotNil(t, book.UpdatedAt)
	assert.Equal(t, at, *book.UpdatedAt)

	stored, _ := ms.GetOne(context.TODO(), "2")
	assert.Equal(t, book, stored)

	_, err = ms.Update(context.TODO(), "unknown", BookPatch{Title: &title}, at)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

// TestMemoryStore_Delete ensures deletion removes the book and keeps the order of others.
func TestMemoryStore_Delete(t *testing.T) {
	ms := newTestMemoryStore()
	book, err := ms.Delete(context.TODO(), "2")
	require.NoError(t, err)
	assert.Equal(t, "2", book.ID)

	books, _ := ms.GetAll(context.TODO())
	require.Len(t, books, 2)
	assert.Equal(t, "1", books[0].ID)
	assert.Equal(t, "3", books[1].ID)

	_, err = ms.Delete(context.TODO(), "2")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

// TestMemoryStore_Purchase ensures stock is only decremented when it covers the quantity.
func TestMemoryStore_Purchase(t *testing.T) {
	ms := newTestMemoryStore()

	book, err := ms.Purchase(context.TODO(), "1", 5)
	require.NoError(t, err)
	assert.Equal(t, 10, book.Stock)

	book, err = ms.Purchase(context.TODO(), "1", 11)
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 10, stockErr.Available)
	assert.Equal(t, 11, stockErr.Requested)
	assert.Equal(t, 10, book.Stock)

	book, err = ms.Purchase(context.TODO(), "1", 10)
	require.NoError(t, err)
	assert.Equal(t, 0, book.Stock)

	_, err = ms.Purchase(context.TODO(), "unknown", 1)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

// TestMemoryStore_ConcurrentPurchase ensures concurrent purchases never oversell.
func TestMemoryStore_ConcurrentPurchase(t *testing.T) {
	ms := newTestMemoryStore()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ms.Purchase(context.TODO(), "2", 1); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, success)
	book, _ := ms.GetOne(context.TODO(), "2")
	assert.Equal(t, 0, book.Stock)
}

// TestMemoryStore_ConcurrentAdd ensures only one of concurrent inserts with the same isbn wins.
func TestMemoryStore_ConcurrentAdd(t *testing.T) {
	ms := newTestMemoryStore()
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- ms.Add(context.TODO(), "c:"+strconv.Itoa(i), Book{ISBN: "same-isbn"})
		}(i)
	}
	wg.Wait()
	close(errs)
	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
	books, _ := ms.GetAll(context.TODO())
	assert.Len(t, books, 4)
}
