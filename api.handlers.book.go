package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const (
	MsgInternalError     = "Something went wrong!"
	MsgBookNotFound      = "Book not found"
	MsgDuplicateISBN     = "Book with this ISBN already exists"
	MsgInsufficientStock = "Insufficient stock"
	MsgBodyTooLarge      = "request body too large"
	MsgBookDeleted       = "Book deleted successfully"
	MsgPurchaseSucceeded = "Purchase successful"
)

// requestBodyError converts a body decoding failure into its api error.
func requestBodyError(requestID string, err error) *APIError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return NewAPIError(requestID, http.StatusRequestEntityTooLarge, MsgBodyTooLarge, map[string]interface{}{"limit": maxErr.Limit})
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return NewAPIError(requestID, http.StatusBadRequest, verr.Error(), map[string]interface{}{"field": verr.Field})
	}
	return NewAPIError(requestID, http.StatusBadRequest, err.Error(), nil)
}

// GetAllBooks lists the books matching the optional query filters.
//
//	@Summary		List books
//	@Description	Filter by genre, author or free text then paginate.
//	@Tags			books
//	@Produce		json
//	@Param			genre	query		string	false	"genre substring"
//	@Param			author	query		string	false	"author substring"
//	@Param			search	query		string	false	"title or description substring"
//	@Param			limit	query		int		false	"page size"	default(10)
//	@Param			offset	query		int		false	"page offset"	default(0)
//	@Success		200		{object}	BookListResponse
//	@Failure		400		{object}	map[string]interface{}
//	@Router			/api/books [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	filter, err := ParseBookFilter(r.URL.Query())
	if err != nil {
		var perr *invalidParamError
		details := map[string]interface{}{}
		if errors.As(err, &perr) {
			details["parameter"] = perr.param
			details["value"] = perr.value
		}
		api.logger.Error("invalid books listing query", zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, http.StatusBadRequest, err.Error(), details))
		return
	}

	books, pagination, err := api.bookService.Search(r.Context(), filter)
	if err != nil {
		api.logger.Error("failed to list books", zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, http.StatusInternalServerError, MsgInternalError, nil))
		return
	}
	api.logger.Debug("success to list books", zap.String("request.id", requestID), zap.Int("books.total", pagination.Total))
	if err = WriteResponse(r.Context(), w, http.StatusOK, BookListResponse{Books: books, Pagination: pagination}); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetOneBook serves the book identified by the path id.
//
//	@Summary	Get a book
//	@Tags		books
//	@Produce	json
//	@Param		id	path		string	true	"book id"
//	@Success	200	{object}	Book
//	@Failure	404	{object}	map[string]interface{}
//	@Router		/api/books/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	id := ps.ByName("id")
	book, err := api.bookService.GetOne(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		api.logger.Error("book does not exist", zap.String("book.id", id), zap.String("request.id", requestID))
		api.sendError(w, r, NewAPIError(requestID, http.StatusNotFound, MsgBookNotFound, nil))
		return
	}
	if err != nil {
		api.logger.Error("failed to get book", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, http.StatusInternalServerError, MsgInternalError, nil))
		return
	}
	if err = WriteResponse(r.Context(), w, http.StatusOK, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// CreateBook adds a new book to the catalog.
//
//	@Summary	Create a book
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		book	body		CreateBookRequest	true	"book to create"
//	@Success	201		{object}	Book
//	@Failure	400		{object}	map[string]interface{}
//	@Failure	409		{object}	map[string]interface{}
//	@Router		/api/books [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	var req CreateBookRequest
	if err := DecodeCreateBookRequestBody(r, &req); err != nil {
		api.logger.Error("failed to decode book creation request", zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, requestBodyError(requestID, err))
		return
	}

	if err := ValidateCreateBookRequestBody(&req); err != nil {
		api.logger.Error("invalid book creation request", zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, http.StatusBadRequest, err.Error(), nil))
		return
	}

	book, err := NewBookFromRequest(&req, api.clock.Now().UTC())
	if err != nil {
		api.logger.Error("invalid book creation request", zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, requestBodyError(requestID, err))
		return
	}

	book, err = api.bookService.Add(r.Context(), api.idsHandler.Generate(BookIDPrefix), book)
	if errors.Is(err, ErrDuplicateISBN) {
		api.logger.Error("book isbn already exists", zap.String("book.isbn", req.ISBN), zap.String("request.id", requestID))
		api.sendError(w, r, NewAPIError(requestID, http.StatusConflict, MsgDuplicateISBN, nil))
		return
	}
	if err != nil {
		api.logger.Error("failed to create book", zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, http.StatusInternalServerError, MsgInternalError, nil))
		return
	}
	api.logger.Info("success to create book", zap.String("book.id", book.ID), zap.String("request.id", requestID))
	if err = WriteResponse(r.Context(), w, http.StatusCreated, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// UpdateBook merges the allowed fields of the body onto an existing book.
//
//	@Summary	Update a book
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"book id"
//	@Param		book	body		UpdateBookRequest	false	"fields to update"
//	@Success	200		{object}	Book
//	@Failure	400		{object}	map[string]interface{}
//	@Failure	404		{object}	map[string]interface{}
//	@Router		/api/books/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	id := ps.ByName("id")
	var req UpdateBookRequest
	if err := DecodeUpdateBookRequestBody(r, &req); err != nil {
		api.logger.Error("failed to decode book update request", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, requestBodyError(requestID, err))
		return
	}

	patch, err := NewBookPatchFromRequest(&req)
	if err != nil {
		api.logger.Error("invalid book update request", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, requestBodyError(requestID, err))
		return
	}

	book, err := api.bookService.Update(r.Context(), id, patch)
	if errors.Is(err, ErrBookNotFound) {
		api.logger.Error("book does not exist", zap.String("book.id", id), zap.String("request.id", requestID))
		api.sendError(w, r, NewAPIError(requestID, http.StatusNotFound, MsgBookNotFound, nil))
		return
	}
	if err != nil {
		api.logger.Error("failed to update book", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, http.StatusInternalServerError, MsgInternalError, nil))
		return
	}
	api.logger.Info("success to update book", zap.String("book.id", id), zap.String("request.id", requestID))
	if err = WriteResponse(r.Context(), w, http.StatusOK, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// DeleteOneBook removes a book from the catalog.
//
//	@Summary	Delete a book
//	@Tags		books
//	@Produce	json
//	@Param		id	path		string	true	"book id"
//	@Success	200	{object}	DeleteBookResponse
//	@Failure	404	{object}	map[string]interface{}
//	@Router		/api/books/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	id := ps.ByName("id")
	book, err := api.bookService.Delete(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		api.logger.Error("book does not exist", zap.String("book.id", id), zap.String("request.id", requestID))
		api.sendError(w, r, NewAPIError(requestID, http.StatusNotFound, MsgBookNotFound, nil))
		return
	}
	if err != nil {
		api.logger.Error("failed to delete book", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, http.StatusInternalServerError, MsgInternalError, nil))
		return
	}
	api.logger.Info("success to delete book", zap.String("book.id", id), zap.String("request.id", requestID))
	if err = WriteResponse(r.Context(), w, http.StatusOK, DeleteBookResponse{Message: MsgBookDeleted, Book: book}); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// PurchaseBook decrements the stock of a book by the requested quantity.
//
//	@Summary	Purchase copies of a book
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		id			path		string			true	"book id"
//	@Param		purchase	body		PurchaseRequest	false	"quantity, defaults to 1"
//	@Success	200			{object}	PurchaseResponse
//	@Failure	400			{object}	map[string]interface{}
//	@Failure	404			{object}	map[string]interface{}
//	@Router		/api/books/{id}/purchase [post]
func (api *APIHandler) PurchaseBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	id := ps.ByName("id")
	var req PurchaseRequest
	if err := DecodePurchaseRequestBody(r, &req); err != nil {
		api.logger.Error("failed to decode purchase request", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, requestBodyError(requestID, err))
		return
	}

	quantity, err := GetPurchaseQuantity(&req)
	if err != nil {
		api.logger.Error("invalid purchase request", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, requestBodyError(requestID, err))
		return
	}

	purchase, err := api.bookService.Purchase(r.Context(), id, quantity)
	var stockErr *InsufficientStockError
	switch {
	case errors.Is(err, ErrBookNotFound):
		api.logger.Error("book does not exist", zap.String("book.id", id), zap.String("request.id", requestID))
		api.sendError(w, r, NewAPIError(requestID, http.StatusNotFound, MsgBookNotFound, nil))
		return
	case errors.As(err, &stockErr):
		api.logger.Info("insufficient stock for purchase", zap.String("book.id", id), zap.String("request.id", requestID),
			zap.Int("available", stockErr.Available), zap.Int("requested", stockErr.Requested))
		api.sendError(w, r, NewAPIError(requestID, http.StatusBadRequest, MsgInsufficientStock, map[string]interface{}{
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		}))
		return
	case err != nil:
		api.logger.Error("failed to purchase book", zap.String("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, http.StatusInternalServerError, MsgInternalError, nil))
		return
	}

	api.logger.Info("success to purchase book", zap.String("book.id", id), zap.String("request.id", requestID), zap.Int("quantity", quantity))
	resp := PurchaseResponse{
		Message:   MsgPurchaseSucceeded,
		Book:      purchase.Book,
		Purchased: purchase.Quantity,
		Total:     purchase.Total,
	}
	if err = WriteResponse(r.Context(), w, http.StatusOK, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
