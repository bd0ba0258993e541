package main

import (
	"context"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	Add(ctx context.Context, id string, book Book) (Book, error)
	GetOne(ctx context.Context, id string) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
	Search(ctx context.Context, filter BookFilter) ([]Book, Pagination, error)
	Update(ctx context.Context, id string, patch BookPatch) (Book, error)
	Delete(ctx context.Context, id string) (Book, error)
	Purchase(ctx context.Context, id string, quantity int) (Purchase, error)
	Summary(ctx context.Context) (CatalogSummary, error)
}

type BookService struct {
	logger  *zap.Logger
	clock   Clocker
	storage BookStorage
	queue   Queuer
}

// NewBookService provides a catalog service. The queue is optional,
// when nil no catalog event is published.
func NewBookService(logger *zap.Logger, clock Clocker, storage BookStorage, queue Queuer) BookServiceProvider {
	return &BookService{
		logger:  logger,
		clock:   clock,
		storage: storage,
		queue:   queue,
	}
}

// publish pushes a catalog event. Failures are only logged since
// the mutation already happened.
func (bs *BookService) publish(ctx context.Context, qid string, book Book, quantity int) {
	if bs.queue == nil {
		return
	}
	event := CatalogEvent{
		Kind:     qid,
		BookID:   book.ID,
		Book:     book,
		Quantity: quantity,
		At:       bs.clock.Now().UTC(),
	}
	if err := bs.queue.Push(context.WithoutCancel(ctx), qid, event); err != nil {
		bs.logger.Error("service: failed to push event to queue", zap.String("qid", qid), zap.String("book.id", book.ID), zap.Error(err))
	}
}

func (bs *BookService) Add(ctx context.Context, id string, book Book) (Book, error) {
	if err := bs.storage.Add(ctx, id, book); err != nil {
		return Book{}, err
	}
	book.ID = id
	bs.publish(ctx, CreateQueue, book, 0)
	return book, nil
}

func (bs *BookService) GetOne(ctx context.Context, id string) (Book, error) {
	book, err := bs.storage.GetOne(ctx, id)
	return book, err
}

func (bs *BookService) GetAll(ctx context.Context) ([]Book, error) {
	books, err := bs.storage.GetAll(ctx)
	return books, err
}

func (bs *BookService) Search(ctx context.Context, filter BookFilter) ([]Book, Pagination, error) {
	books, err := bs.storage.GetAll(ctx)
	if err != nil {
		return nil, Pagination{}, err
	}
	page, pagination := FilterBooks(books, filter)
	return page, pagination, nil
}

func (bs *BookService) Update(ctx context.Context, id string, patch BookPatch) (Book, error) {
	book, err := bs.storage.Update(ctx, id, patch, bs.clock.Now().UTC())
	if err != nil {
		return Book{}, err
	}
	bs.publish(ctx, UpdateQueue, book, 0)
	return book, nil
}

func (bs *BookService) Delete(ctx context.Context, id string) (Book, error) {
	book, err := bs.storage.Delete(ctx, id)
	if err != nil {
		return Book{}, err
	}
	bs.publish(ctx, DeleteQueue, book, 0)
	return book, nil
}

func (bs *BookService) Purchase(ctx context.Context, id string, quantity int) (Purchase, error) {
	book, err := bs.storage.Purchase(ctx, id, quantity)
	if err != nil {
		return Purchase{Book: book, Quantity: quantity}, err
	}
	bs.publish(ctx, PurchaseQueue, book, quantity)
	return Purchase{
		Book:     book,
		Quantity: quantity,
		Total:    book.Price * float64(quantity),
	}, nil
}

// Summary computes the catalog aggregates. The average price of an empty catalog is 0.
func (bs *BookService) Summary(ctx context.Context) (CatalogSummary, error) {
	books, err := bs.storage.GetAll(ctx)
	if err != nil {
		return CatalogSummary{}, err
	}
	return Summarize(books), nil
}

// Summarize computes the aggregates of the given books. Genres are
// distinct and listed in order of first appearance.
func Summarize(books []Book) CatalogSummary {
	summary := CatalogSummary{TotalBooks: len(books), Genres: []string{}}
	seen := make(map[string]struct{})
	var sum float64
	for _, b := range books {
		summary.TotalStock += b.Stock
		sum += b.Price
		if _, ok := seen[b.Genre]; !ok {
			seen[b.Genre] = struct{}{}
			summary.Genres = append(summary.Genres, b.Genre)
		}
	}
	if len(books) > 0 {
		summary.AveragePrice = sum / float64(len(books))
	}
	return summary
}
