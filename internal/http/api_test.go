package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bookshelf/internal/auth"
	"bookshelf/internal/repository/sqlite"
	"bookshelf/internal/service"
	"bookshelf/internal/storage"
)

type testServer struct {
	router *gin.Engine
	db     *sql.DB
	tokens *auth.TokenIssuer
}

type serverOption func(*serverOptions)

type serverOptions struct {
	protectBooks bool
	store        storage.Service
}

func withProtectedBooks() serverOption {
	return func(o *serverOptions) { o.protectBooks = true }
}

func withStorage(store storage.Service) serverOption {
	return func(o *serverOptions) { o.store = store }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(context.Background(), db, logger))

	userRepo := sqlite.NewUserRepository(db)
	bookRepo := sqlite.NewBookRepository(db)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)

	var snapshots service.SnapshotService
	if o.store != nil {
		snapshots = service.NewSnapshotService(bookRepo, o.store, "bucket", "snapshots")
	}

	handler := NewHandler(
		service.NewUserService(userRepo, auth.NewBcryptHasher(bcrypt.MinCost), tokens),
		service.NewBookService(bookRepo),
		snapshots,
		tokens,
		logger,
		o.protectBooks,
	)
	router := gin.New()
	handler.RegisterRoutes(router)

	return &testServer{router: router, db: db, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func alice() gin.H {
	return gin.H{"name": "Alice", "username": "alice@x.com", "password": "secret1", "createdBy": "admin"}
}

func (s *testServer) register(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/user", alice())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[tokenResponse](t, rec).Token
}

func book(bookID int, author string) gin.H {
	return gin.H{
		"bookName":   fmt.Sprintf("Book %d", bookID),
		"bookPrice":  250,
		"bookId":     bookID,
		"authorName": author,
		"createdBy":  "admin",
	}
}

func TestRegisterThenDuplicate(t *testing.T) {
	srv := newTestServer(t)

	token := srv.register(t)
	assert.NotEmpty(t, token)
	userID, err := srv.tokens.Verify(token)
	require.NoError(t, err)
	assert.NotEmpty(t, userID)

	rec := srv.do(t, http.MethodPost, "/api/user", alice())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"errors":[{"msg":"User already registered"}]}`, rec.Body.String())

	var count int
	require.NoError(t, srv.db.QueryRow(`SELECT COUNT(*) FROM user`).Scan(&count))
	assert.Equal(t, 1, count)

	var hash string
	require.NoError(t, srv.db.QueryRow(`SELECT password_hash FROM user`).Scan(&hash))
	assert.NotEqual(t, "secret1", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret1")))
}

func TestRegisterValidationListsEveryField(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/user", gin.H{"name": "Al", "username": "nope", "password": "123"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[errorsResponse](t, rec)
	require.Len(t, body.Errors, 4)
	params := []string{}
	for _, e := range body.Errors {
		params = append(params, e.Param)
		assert.Equal(t, locationBody, e.Location)
		assert.NotEmpty(t, e.Msg)
	}
	assert.Equal(t, []string{"createdBy", "name", "password", "username"}, params)
}

func TestRegisterMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/user", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"errors":[{"msg":"invalid request body"}]}`, rec.Body.String())
}

func TestLoginAndCurrentUser(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t)

	rec := srv.do(t, http.MethodPost, "/api/auth", gin.H{"username": "alice@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := decode[tokenResponse](t, rec).Token

	rec = srv.do(t, http.MethodGet, "/api/auth", nil, "x-auth-token", token)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode[UserResponse](t, rec)
	assert.Equal(t, "alice@x.com", user.Username)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = srv.do(t, http.MethodGet, "/api/auth", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/auth", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/auth", nil, "x-auth-token", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/auth", gin.H{"username": "alice@x.com", "password": "wrong1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"errors":[{"msg":"Invalid credentials"}]}`, rec.Body.String())
}

func TestBookLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/book", book(7, "tolkien"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[BookResponse](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(7), created.BookID)
	assert.Equal(t, float64(250), created.BookPrice)

	rec = srv.do(t, http.MethodGet, "/api/book/tolkien", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[BookResponse](t, rec).ID)

	update := book(8, "tolkien")
	update["bookName"] = "The Hobbit"
	rec = srv.do(t, http.MethodPut, "/api/book/"+created.ID, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[BookResponse](t, rec)
	assert.Equal(t, "The Hobbit", updated.BookName)
	assert.Equal(t, int64(8), updated.BookID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	rec = srv.do(t, http.MethodDelete, "/api/book/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "The Hobbit", decode[BookResponse](t, rec).BookName)

	rec = srv.do(t, http.MethodDelete, "/api/book/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodPut, "/api/book/"+created.ID, update)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookAuthorNotFoundSendsSingleResponse(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/book/nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "author not found", rec.Body.String())
}

func TestBookCreateValidationAndDuplicates(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/book", gin.H{"bookPrice": 12, "bookId": 1000})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decode[errorsResponse](t, rec).Errors, 5)

	// numbers sent as strings are accepted
	rec = srv.do(t, http.MethodPost, "/api/book", `{"bookName":"a","bookPrice":"120","bookId":"5","authorName":"b","createdBy":"c"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/book", book(5, "other"))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"errors":[{"msg":"Record already exists"}]}`, rec.Body.String())
}

func TestBookListPagination(t *testing.T) {
	srv := newTestServer(t)
	for i := 1; i <= 12; i++ {
		rec := srv.do(t, http.MethodPost, "/api/book", book(i, "author"))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := srv.do(t, http.MethodGet, "/api/book?page=2&size=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[[]BookResponse](t, rec)
	require.Len(t, page, 5)
	assert.Equal(t, int64(6), page[0].BookID)
	assert.Equal(t, int64(10), page[4].BookID)

	rec = srv.do(t, http.MethodGet, "/api/book", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]BookResponse](t, rec), 10)

	rec = srv.do(t, http.MethodGet, "/api/book?page=9", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())

	rec = srv.do(t, http.MethodGet, "/api/book?page=abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decode[errorsResponse](t, rec).Errors
	require.Len(t, errs, 1)
	assert.Equal(t, "page", errs[0].Param)
	assert.Equal(t, locationQuery, errs[0].Location)
}

func TestProtectedBooksRequireToken(t *testing.T) {
	srv := newTestServer(t, withProtectedBooks())

	rec := srv.do(t, http.MethodPost, "/api/book", book(1, "a"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"errors":[{"msg":"No token, authorization denied"}]}`, rec.Body.String())

	token := srv.register(t)
	rec = srv.do(t, http.MethodPost, "/api/book", book(1, "a"), "x-auth-token", token)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestInternalErrorsRenderPlainText(t *testing.T) {
	srv := newTestServer(t)
	require.NoError(t, srv.db.Close())

	rec := srv.do(t, http.MethodGet, "/api/book", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "server error", rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/user", alice())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "server error", rec.Body.String())
}

type memoryStorage struct {
	objects []storage.ObjectInfo
}

func (m *memoryStorage) PutObject(_ context.Context, body io.Reader, opts storage.PutOptions) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	now := time.Now()
	m.objects = append(m.objects, storage.ObjectInfo{Key: opts.Key, Size: int64(len(raw)), LastModified: &now})
	return storage.Location(opts.Bucket, opts.Key), nil
}

func (m *memoryStorage) ListObjects(context.Context, string, string) ([]storage.ObjectInfo, error) {
	return m.objects, nil
}

func TestSnapshots(t *testing.T) {
	srv := newTestServer(t, withStorage(&memoryStorage{}))
	token := srv.register(t)
	for i := 1; i <= 3; i++ {
		require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/api/book", book(i, "a")).Code)
	}

	rec := srv.do(t, http.MethodPost, "/api/snapshots", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/snapshots", nil, "x-auth-token", token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	snap := decode[SnapshotResponse](t, rec)
	assert.Equal(t, 3, snap.Books)
	assert.Equal(t, "s3://bucket/"+snap.Key, snap.Location)

	rec = srv.do(t, http.MethodGet, "/api/snapshots", nil, "x-auth-token", token)
	require.Equal(t, http.StatusOK, rec.Code)
	objects := decode[[]StorageObjectResponse](t, rec)
	require.Len(t, objects, 1)
	assert.Equal(t, snap.Key, objects[0].Key)
	assert.NotNil(t, objects[0].LastModified)
}

func TestSnapshotsWithoutStorage(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t)

	rec := srv.do(t, http.MethodPost, "/api/snapshots", nil, "x-auth-token", token)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"storage service not configured"}`, rec.Body.String())
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = srv.do(t, http.MethodGet, "/api/health", nil, requestIDHeader, "abc")
	assert.Equal(t, "abc", rec.Header().Get(requestIDHeader))
}
