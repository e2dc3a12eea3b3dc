package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookshelf/internal/domain"
	"bookshelf/internal/service"
)

type BookResponse struct {
	ID         string  `json:"id"`
	BookName   string  `json:"bookName"`
	BookPrice  float64 `json:"bookPrice"`
	BookID     int64   `json:"bookId"`
	AuthorName string  `json:"authorName"`
	CreatedBy  string  `json:"createdBy"`
	CreatedAt  string  `json:"createdAt"`
}

func bookToResponse(book domain.Book) BookResponse {
	return BookResponse{
		ID:         book.ID,
		BookName:   book.BookName,
		BookPrice:  book.BookPrice,
		BookID:     book.BookID,
		AuthorName: book.AuthorName,
		CreatedBy:  book.CreatedBy,
		CreatedAt:  book.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) createBook(c *gin.Context) {
	var req service.BookInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadBody(c, err)
		return
	}

	book, err := h.books.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, locationBody)
		return
	}

	c.JSON(http.StatusCreated, bookToResponse(*book))
}

func (h *Handler) getBookByAuthor(c *gin.Context) {
	book, err := h.books.FindByAuthor(c.Request.Context(), c.Param("authorid"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.String(http.StatusNotFound, "author not found")
			return
		}
		h.respondError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, bookToResponse(*book))
}

func (h *Handler) replaceBook(c *gin.Context) {
	var req service.BookInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadBody(c, err)
		return
	}

	book, err := h.books.Replace(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err, locationBody)
		return
	}

	c.JSON(http.StatusOK, bookToResponse(*book))
}

func (h *Handler) deleteBook(c *gin.Context) {
	book, err := h.books.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, bookToResponse(*book))
}

func (h *Handler) listBooks(c *gin.Context) {
	page, err := service.ParsePage(c.Query("page"), c.Query("size"))
	if err != nil {
		h.respondError(c, err, locationQuery)
		return
	}

	books, err := h.books.List(c.Request.Context(), page)
	if err != nil {
		h.respondError(c, err, "")
		return
	}

	resp := make([]BookResponse, len(books))
	for i := range books {
		resp[i] = bookToResponse(books[i])
	}
	c.JSON(http.StatusOK, resp)
}
