package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"fleamarket/internal/domain"
	"fleamarket/internal/middleware"
	"fleamarket/internal/repository"
	"fleamarket/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// asUser stands in for the auth middleware with a fixed principal
func asUser(userID int64, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, strconv.FormatInt(userID, 10))
			ctx = context.WithValue(ctx, middleware.UserRoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func passThrough(next http.Handler) http.Handler { return next }

// routerFor mounts a handler's routes with the given principal. userID 0
// leaves requests anonymous.
func routerFor(userID int64, register func(chi.Router, Guards)) http.Handler {
	guards := Guards{Auth: passThrough, OptionalAuth: passThrough}
	if userID != 0 {
		guards.Auth = asUser(userID, domain.RoleUser)
		guards.OptionalAuth = guards.Auth
	}
	r := chi.NewRouter()
	register(r, guards)
	return r
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type formFile struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string][]string, files ...formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(name, v))
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// errorBody decodes the structured error envelope
func errorBody(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorDetail {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

func validationFields(t *testing.T, detail middleware.ErrorDetail) []string {
	t.Helper()
	raw, ok := detail.Details["validation_errors"].([]interface{})
	require.True(t, ok, "details: %v", detail.Details)
	fields := make([]string, 0, len(raw))
	for _, entry := range raw {
		fields = append(fields, entry.(map[string]interface{})["field"].(string))
	}
	return fields
}

var testLogger = zap.NewNop()

// fakeAccountService keeps accounts in memory
type fakeAccountService struct {
	users    map[string]*domain.User
	password map[string]string
	nextID   int64
}

func newFakeAccountService() *fakeAccountService {
	return &fakeAccountService{
		users:    make(map[string]*domain.User),
		password: make(map[string]string),
		nextID:   1,
	}
}

func (f *fakeAccountService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if _, exists := f.users[email]; exists {
		return nil, repository.ErrUserAlreadyExists
	}
	user := &domain.User{ID: f.nextID, Name: name, Email: email, Roles: []string{domain.RoleUser}}
	f.nextID++
	f.users[email] = user
	f.password[email] = password
	return user, nil
}

func (f *fakeAccountService) Login(ctx context.Context, email, password string) (string, string, *domain.User, error) {
	user, ok := f.users[email]
	if !ok || f.password[email] != password {
		return "", "", nil, service.ErrInvalidCredentials
	}
	return "access-" + email, "refresh-" + email, user, nil
}

func (f *fakeAccountService) Logout(ctx context.Context, refreshToken string) error {
	return nil
}

func (f *fakeAccountService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	for email := range f.users {
		if refreshToken == "refresh-"+email {
			return "access-" + email, nil
		}
	}
	return "", service.ErrInvalidToken
}

func (f *fakeAccountService) ValidateToken(tokenString string) (*service.Claims, error) {
	return nil, service.ErrInvalidToken
}

func (f *fakeAccountService) GetUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	for _, user := range f.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// fakeItemService records the last call and returns canned results
type fakeItemService struct {
	principal domain.Principal
	input     service.ItemInput
	uploads   []domain.ImageUpload
	keep      []int64
	viewerID  int64
	filter    domain.ItemFilter
	err       error
}

func (f *fakeItemService) CreateItem(ctx context.Context, principal domain.Principal, input service.ItemInput, images []domain.ImageUpload) (*domain.Item, []domain.ItemImage, error) {
	f.principal, f.input, f.uploads = principal, input, images
	if f.err != nil {
		return nil, nil, f.err
	}
	item := &domain.Item{ID: 1, Name: input.Name, SellerID: principal.UserID, Price: input.Price}
	out := make([]domain.ItemImage, len(images))
	for i := range images {
		out[i] = domain.ItemImage{ID: int64(i + 1), ItemID: 1, ImagePath: images[i].Filename}
	}
	return item, out, nil
}

func (f *fakeItemService) UpdateDetail(ctx context.Context, principal domain.Principal, itemID int64, input service.ItemInput) (*domain.Item, error) {
	f.principal, f.input = principal, input
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Item{ID: itemID, Name: input.Name, Price: input.Price}, nil
}

func (f *fakeItemService) UpdateImages(ctx context.Context, principal domain.Principal, itemID int64, keepImageIDs []int64, images []domain.ImageUpload) ([]domain.ItemImage, error) {
	f.principal, f.keep, f.uploads = principal, keepImageIDs, images
	if f.err != nil {
		return nil, f.err
	}
	return []domain.ItemImage{{ID: 1, ItemID: itemID}}, nil
}

func (f *fakeItemService) DeleteItem(ctx context.Context, principal domain.Principal, itemID int64) error {
	f.principal = principal
	return f.err
}

func (f *fakeItemService) ListItems(ctx context.Context, viewerID int64, filter domain.ItemFilter) ([]*domain.ItemSummary, error) {
	f.viewerID, f.filter = viewerID, filter
	if f.err != nil {
		return nil, f.err
	}
	return []*domain.ItemSummary{{Item: domain.Item{ID: 1, Name: "Watch"}}}, nil
}

func (f *fakeItemService) GetItem(ctx context.Context, itemID, viewerID int64) (*domain.ItemDetail, error) {
	f.viewerID = viewerID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ItemDetail{ItemSummary: domain.ItemSummary{Item: domain.Item{ID: itemID}}}, nil
}

// fakeFavoriteService keeps user/item pairs in memory
type fakeFavoriteService struct {
	pairs map[[2]int64]bool
	items map[int64]bool
}

func newFakeFavoriteService(itemIDs ...int64) *fakeFavoriteService {
	f := &fakeFavoriteService{pairs: make(map[[2]int64]bool), items: make(map[int64]bool)}
	for _, id := range itemIDs {
		f.items[id] = true
	}
	return f
}

func (f *fakeFavoriteService) Attach(ctx context.Context, userID, itemID int64) error {
	if !f.items[itemID] {
		return repository.ErrItemNotFound
	}
	f.pairs[[2]int64{userID, itemID}] = true
	return nil
}

func (f *fakeFavoriteService) Detach(ctx context.Context, userID, itemID int64) error {
	if !f.items[itemID] {
		return repository.ErrItemNotFound
	}
	delete(f.pairs, [2]int64{userID, itemID})
	return nil
}

func (f *fakeFavoriteService) CountFavorites(ctx context.Context, itemID int64) (int, error) {
	n := 0
	for pair := range f.pairs {
		if pair[1] == itemID {
			n++
		}
	}
	return n, nil
}

func (f *fakeFavoriteService) IsFavoritedBy(ctx context.Context, itemID, userID int64) (bool, error) {
	return f.pairs[[2]int64{userID, itemID}], nil
}
