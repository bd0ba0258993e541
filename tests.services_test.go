package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testBooks() []Book {
	return []Book{
		{ID: "a", Title: "Go in Action", Author: "William Kennedy", Genre: "Technology", Description: "concurrency", Price: 10, Stock: 1},
		{ID: "b", Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", Description: "desert planet", Price: 20, Stock: 2},
		{ID: "c", Title: "The Go Programming Language", Author: "Alan Donovan", Genre: "technology", Description: "", Price: 30, Stock: 3},
		{ID: "d", Title: "Children of Dune", Author: "Frank Herbert", Genre: "Science Fiction", Description: "sequel", Price: 40, Stock: 4},
	}
}

// TestFilterBooks ensures predicates are case-insensitive substrings and pagination is computed on matches.
func TestFilterBooks(t *testing.T) {
	testCases := []struct {
		name       string
		filter     BookFilter
		ids        []string
		pagination Pagination
	}{
		{
			"no predicate",
			BookFilter{Limit: 10},
			[]string{"a", "b", "c", "d"},
			Pagination{Total: 4, Limit: 10, Offset: 0, HasMore: false},
		},
		{
			"genre substring",
			BookFilter{Genre: "TECH", Limit: 10},
			[]string{"a", "c"},
			Pagination{Total: 2, Limit: 10},
		},
		{
			"author",
			BookFilter{Author: "herbert", Limit: 10},
			[]string{"b", "d"},
			Pagination{Total: 2, Limit: 10},
		},
		{
			"search in title or description",
			BookFilter{Search: "dune", Limit: 10},
			[]string{"b", "d"},
			Pagination{Total: 2, Limit: 10},
		},
		{
			"search in description",
			BookFilter{Search: "PLANET", Limit: 10},
			[]string{"b"},
			Pagination{Total: 1, Limit: 10},
		},
		{
			"combined predicates",
			BookFilter{Genre: "science", Search: "children", Limit: 10},
			[]string{"d"},
			Pagination{Total: 1, Limit: 10},
		},
		{
			"first page",
			BookFilter{Limit: 2},
			[]string{"a", "b"},
			Pagination{Total: 4, Limit: 2, Offset: 0, HasMore: true},
		},
		{
			"last page",
			BookFilter{Limit: 2, Offset: 2},
			[]string{"c", "d"},
			Pagination{Total: 4, Limit: 2, Offset: 2, HasMore: false},
		},
		{
			"offset past the end",
			BookFilter{Limit: 2, Offset: 10},
			[]string{},
			Pagination{Total: 4, Limit: 2, Offset: 10, HasMore: false},
		},
		{
			"no match",
			BookFilter{Author: "nobody", Limit: 5},
			[]string{},
			Pagination{Total: 0, Limit: 5},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			page, pagination := FilterBooks(testBooks(), tc.filter)
			ids := []string{}
			for _, b := range page {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tc.ids, ids)
			assert.Equal(t, tc.pagination, pagination)
		})
	}
}

// TestSummarize ensures aggregates are computed over all books.
func TestSummarize(t *testing.T) {
	summary := Summarize(testBooks())
	assert.Equal(t, 4, summary.TotalBooks)
	assert.Equal(t, 10, summary.TotalStock)
	assert.Equal(t, 25.0, summary.AveragePrice)
	assert.Equal(t, []string{"Technology", "Science Fiction", "technology"}, summary.Genres)

	empty := Summarize(nil)
	assert.Equal(t, CatalogSummary{Genres: []string{}}, empty)
}

// TestBookService_Events ensures each successful mutation publishes one event on its queue.
func TestBookService_Events(t *testing.T) {
	clock := NewMockClocker()
	var pushed []CatalogEvent
	var qids []string
	queue := &MockQueuer{PushFunc: func(ctx context.Context, qid string, event CatalogEvent) error {
		qids = append(qids, qid)
		pushed = append(pushed, event)
		return nil
	}}
	storage := NewMemoryBookStorage(zap.NewNop(), SeedBooks(clock.Now()))
	bs := NewBookService(zap.NewNop(), clock, storage, queue)
	ctx := context.Background()

	book, err := bs.Add(ctx, "n1", Book{Title: "T", ISBN: "isbn-n1", Price: 2.5, Stock: 4})
	require.NoError(t, err)
	assert.Equal(t, "n1", book.ID)

	title := "T2"
	_, err = bs.Update(ctx, "n1", BookPatch{Title: &title})
	require.NoError(t, err)

	purchase, err := bs.Purchase(ctx, "n1", 3)
	require.NoError(t, err)
	assert.Equal(t, 7.5, purchase.Total)
	assert.Equal(t, 1, purchase.Book.Stock)

	_, err = bs.Delete(ctx, "n1")
	require.NoError(t, err)

	// failed mutations do not publish.
	_, err = bs.Delete(ctx, "n1")
	assert.ErrorIs(t, err, ErrBookNotFound)
	_, err = bs.Purchase(ctx, "1", 1000)
	assert.Error(t, err)
	_, err = bs.Add(ctx, "n2", Book{ISBN: "isbn-n2"})
	require.NoError(t, err)
	_, err = bs.Add(ctx, "n3", Book{ISBN: "isbn-n2"})
	assert.ErrorIs(t, err, ErrDuplicateISBN)

	assert.Equal(t, []string{CreateQueue, UpdateQueue, PurchaseQueue, DeleteQueue, CreateQueue}, qids)
	assert.Equal(t, "n1", pushed[0].BookID)
	assert.Equal(t, CreateQueue, pushed[0].Kind)
	assert.Equal(t, "T2", pushed[1].Book.Title)
	assert.Equal(t, 3, pushed[2].Quantity)
	assert.Equal(t, clock.Now().UTC(), pushed[3].At)
}

// TestBookService_PublishFailure ensures a queue failure does not fail the mutation.
func TestBookService_PublishFailure(t *testing.T) {
	clock := NewMockClocker()
	queue := &MockQueuer{PushFunc: func(ctx context.Context, qid string, event CatalogEvent) error {
		return errors.New("queue down")
	}}
	storage := NewMemoryBookStorage(zap.NewNop(), nil)
	bs := NewBookService(zap.NewNop(), clock, storage, queue)
	book, err := bs.Add(context.Background(), "x", Book{ISBN: "isbn-x"})
	require.NoError(t, err)
	assert.Equal(t, "x", book.ID)
	_, err = storage.GetOne(context.Background(), "x")
	assert.NoError(t, err)
}

// TestBookService_Update ensures the update time comes from the service clock.
func TestBookService_Update(t *testing.T) {
	clock := NewMockClocker()
	storage := NewMemoryBookStorage(zap.NewNop(), SeedBooks(clock.Now()))
	bs := NewBookService(zap.NewNop(), clock, storage, nil)
	clock.Add(time.Minute)
	stock := 99
	book, err := bs.Update(context.Background(), "3", BookPatch{Stock: &stock})
	require.NoError(t, err)
	require.NotNil(t, book.UpdatedAt)
	assert.Equal(t, clock.Now().UTC(), *book.UpdatedAt)
	assert.Equal(t, 99, book.Stock)
}

// TestBookService_Search ensures storage failures are reported.
func TestBookService_Search(t *testing.T) {
	mockRepo := &MockBookStorage{
		GetAllFunc: func(ctx context.Context) ([]Book, error) {
			return nil, errors.New("storage failure")
		},
	}
	bs := NewBookService(zap.NewNop(), NewMockClocker(), mockRepo, nil)
	_, _, err := bs.Search(context.Background(), BookFilter{Limit: 10})
	assert.Error(t, err)
	_, err = bs.Summary(context.Background())
	assert.Error(t, err)
}
