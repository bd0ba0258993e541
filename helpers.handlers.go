package main

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	DefaultGenre     = "General"
)

var (
	ErrMissingRequiredFields = errors.New("Missing required fields: title, author, isbn, price")
	ErrInvalidRequestBody    = errors.New("invalid request body")
)

// invalidParamError reports a query parameter holding an unusable value.
type invalidParamError struct {
	param string
	value string
}

func (e *invalidParamError) Error() string {
	return "invalid pagination parameter"
}

// CreateBookRequest is the body of a book creation request. Numbers
// are accepted either as JSON numbers or as numeric strings.
type CreateBookRequest struct {
	Title         string      `json:"title"`
	Author        string      `json:"author"`
	ISBN          string      `json:"isbn"`
	PublishedYear json.Number `json:"publishedYear"`
	Genre         string      `json:"genre"`
	Description   string      `json:"description"`
	Price         json.Number `json:"price"`
	Stock         json.Number `json:"stock"`
}

// UpdateBookRequest is the body of a book update request. Only the
// listed fields can be modified, everything else in the body is ignored.
type UpdateBookRequest struct {
	Title         *string      `json:"title"`
	Author        *string      `json:"author"`
	ISBN          *string      `json:"isbn"`
	PublishedYear *json.Number `json:"publishedYear"`
	Genre         *string      `json:"genre"`
	Description   *string      `json:"description"`
	Price         *json.Number `json:"price"`
	Stock         *json.Number `json:"stock"`
}

// PurchaseRequest is the body of a purchase request.
type PurchaseRequest struct {
	Quantity *json.Number `json:"quantity"`
}

// decodeRequestBody reads a json body into v. An empty body is reported as io.EOF.
// Errors raised by the body size limit are returned untouched.
func decodeRequestBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return io.EOF
	}
	err := json.NewDecoder(r.Body).Decode(v)
	var maxErr *http.MaxBytesError
	if err == nil || errors.Is(err, io.EOF) || errors.As(err, &maxErr) {
		return err
	}
	return ErrInvalidRequestBody
}

// DecodeCreateBookRequestBody is a helper function to read the content of a book creation request.
func DecodeCreateBookRequestBody(r *http.Request, req *CreateBookRequest) error {
	err := decodeRequestBody(r, req)
	if errors.Is(err, io.EOF) {
		return ErrInvalidRequestBody
	}
	return err
}

// DecodeUpdateBookRequestBody is a helper function to read the content of a book update request.
// An empty body is an empty update.
func DecodeUpdateBookRequestBody(r *http.Request, req *UpdateBookRequest) error {
	err := decodeRequestBody(r, req)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// DecodePurchaseRequestBody is a helper function to read the content of a purchase request.
// The body is optional.
func DecodePurchaseRequestBody(r *http.Request, req *PurchaseRequest) error {
	err := decodeRequestBody(r, req)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// ValidateCreateBookRequestBody is a helper function to check if the content of a book creation request is valid.
func ValidateCreateBookRequestBody(req *CreateBookRequest) error {
	if len(req.Title) == 0 || len(req.Author) == 0 || len(req.ISBN) == 0 || len(req.Price) == 0 {
		return ErrMissingRequiredFields
	}
	return nil
}

func parsePrice(n json.Number) (float64, error) {
	price, err := strconv.ParseFloat(n.String(), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0, &ValidationError{Field: "price", Reason: "must be a non-negative number"}
	}
	return price, nil
}

func parseStock(n json.Number) (int, error) {
	stock, err := strconv.Atoi(n.String())
	if err != nil || stock < 0 {
		return 0, &ValidationError{Field: "stock", Reason: "must be a non-negative integer"}
	}
	return stock, nil
}

func parseYear(n json.Number) (int, error) {
	year, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, &ValidationError{Field: "publishedYear", Reason: "must be an integer"}
	}
	return year, nil
}

// NewBookFromRequest builds the book described by a validated creation
// request and applies the defaults of the missing optional fields.
func NewBookFromRequest(req *CreateBookRequest, now time.Time) (Book, error) {
	book := Book{
		Title:         req.Title,
		Author:        req.Author,
		ISBN:          req.ISBN,
		PublishedYear: now.Year(),
		Genre:         req.Genre,
		Description:   req.Description,
		CreatedAt:     now,
	}
	if book.Genre == "" {
		book.Genre = DefaultGenre
	}

	var err error
	if book.Price, err = parsePrice(req.Price); err != nil {
		return Book{}, err
	}

	if req.Stock != "" {
		if book.Stock, err = parseStock(req.Stock); err != nil {
			return Book{}, err
		}
	}

	if req.PublishedYear != "" {
		year, err := parseYear(req.PublishedYear)
		if err != nil {
			return Book{}, err
		}
		if year != 0 {
			book.PublishedYear = year
		}
	}
	return book, nil
}

// NewBookPatchFromRequest converts an update request into a BookPatch.
func NewBookPatchFromRequest(req *UpdateBookRequest) (BookPatch, error) {
	patch := BookPatch{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Genre:       req.Genre,
		Description: req.Description,
	}
	if req.PublishedYear != nil {
		year, err := parseYear(*req.PublishedYear)
		if err != nil {
			return BookPatch{}, err
		}
		patch.PublishedYear = &year
	}
	if req.Price != nil {
		price, err := parsePrice(*req.Price)
		if err != nil {
			return BookPatch{}, err
		}
		patch.Price = &price
	}
	if req.Stock != nil {
		stock, err := parseStock(*req.Stock)
		if err != nil {
			return BookPatch{}, err
		}
		patch.Stock = &stock
	}
	return patch, nil
}

// GetPurchaseQuantity returns the requested quantity, 1 when omitted.
func GetPurchaseQuantity(req *PurchaseRequest) (int, error) {
	if req.Quantity == nil {
		return 1, nil
	}
	quantity, err := strconv.Atoi(req.Quantity.String())
	if err != nil || quantity < 1 {
		return 0, &ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}
	return quantity, nil
}

// ParseBookFilter reads the listing query parameters. Limit must be within
// [1, MaxPageLimit] and offset must not be negative.
func ParseBookFilter(q url.Values) (BookFilter, error) {
	filter := BookFilter{
		Genre:  q.Get("genre"),
		Author: q.Get("author"),
		Search: q.Get("search"),
		Limit:  DefaultPageLimit,
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > MaxPageLimit {
			return filter, &invalidParamError{param: "limit", value: v}
		}
		filter.Limit = limit
	}

	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, &invalidParamError{param: "offset", value: v}
		}
		filter.Offset = offset
	}
	return filter, nil
}
