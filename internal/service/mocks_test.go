package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"fleamarket/internal/domain"
	"fleamarket/internal/repository"
	"fleamarket/internal/storage"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// pngBytes is the smallest payload mimetype sniffs as image/png
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func pngUpload(name string) domain.ImageUpload {
	return domain.ImageUpload{Filename: name, Data: pngBytes}
}

// fakeTx runs fn directly; the mocks have no rollback
type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Mock repositories for testing

type mockUserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[int64]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepository) UpdateCore(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	stored.Name = user.Name
	stored.Email = user.Email
	stored.EmailVerifiedAt = user.EmailVerifiedAt
	return nil
}

func (m *mockUserRepository) AssignRole(ctx context.Context, userID int64, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return repository.ErrRoleNotFound
	}
	if !u.HasRole(role) {
		u.Roles = append(u.Roles, role)
	}
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

type mockProfileRepository struct {
	details map[int64]*domain.UserDetail
	images  map[int64]*domain.UserImage
	saveErr error
}

func newMockProfileRepository() *mockProfileRepository {
	return &mockProfileRepository{
		details: make(map[int64]*domain.UserDetail),
		images:  make(map[int64]*domain.UserImage),
	}
}

func (m *mockProfileRepository) FindDetail(ctx context.Context, userID int64) (*domain.UserDetail, error) {
	d, ok := m.details[userID]
	if !ok {
		return nil, repository.ErrUserDetailNotFound
	}
	return d, nil
}

func (m *mockProfileRepository) SaveDetail(ctx context.Context, detail *domain.UserDetail) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.details[detail.UserID] = detail
	return nil
}

func (m *mockProfileRepository) FindImage(ctx context.Context, userID int64) (*domain.UserImage, error) {
	img, ok := m.images[userID]
	if !ok {
		return nil, repository.ErrUserImageNotFound
	}
	return img, nil
}

func (m *mockProfileRepository) SaveImage(ctx context.Context, image *domain.UserImage) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.images[image.UserID] = image
	return nil
}

type mockItemRepository struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*domain.Item
}

func newMockItemRepository() *mockItemRepository {
	return &mockItemRepository{items: make(map[int64]*domain.Item)}
}

func (m *mockItemRepository) Create(ctx context.Context, item *domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	item.ID = m.nextID
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	copied := *item
	m.items[item.ID] = &copied
	return nil
}

func (m *mockItemRepository) Update(ctx context.Context, item *domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return repository.ErrItemNotFound
	}
	item.UpdatedAt = time.Now()
	copied := *item
	m.items[item.ID] = &copied
	return nil
}

func (m *mockItemRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrItemNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockItemRepository) FindByID(ctx context.Context, id int64) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	copied := *item
	return &copied, nil
}

func (m *mockItemRepository) LockByID(ctx context.Context, id int64) (*domain.Item, error) {
	return m.FindByID(ctx, id)
}

func (m *mockItemRepository) List(ctx context.Context, viewerID int64, filter domain.ItemFilter) ([]*domain.ItemSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.ItemSummary{}
	for _, item := range m.items {
		if filter.SellerID != nil && item.SellerID != *filter.SellerID {
			continue
		}
		if filter.CategoryID != nil && item.CategoryID != *filter.CategoryID {
			continue
		}
		out = append(out, &domain.ItemSummary{Item: *item})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockItemRepository) FindSummary(ctx context.Context, id, viewerID int64) (*domain.ItemSummary, error) {
	item, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ItemSummary{Item: *item}, nil
}

type mockItemImageRepository struct {
	mu        sync.Mutex
	nextID    int64
	images    map[int64]domain.ItemImage
	items     *mockItemRepository
	createErr error
}

func newMockItemImageRepository(items *mockItemRepository) *mockItemImageRepository {
	return &mockItemImageRepository{images: make(map[int64]domain.ItemImage), items: items}
}

func (m *mockItemImageRepository) Create(ctx context.Context, image *domain.ItemImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	image.ID = m.nextID
	image.CreatedAt = time.Now()
	m.images[image.ID] = *image
	return nil
}

func (m *mockItemImageRepository) ListByItem(ctx context.Context, itemID int64) ([]domain.ItemImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.ItemImage{}
	for _, img := range m.images {
		if img.ItemID == itemID {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockItemImageRepository) DeleteByIDs(ctx context.Context, itemID int64, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if img, ok := m.images[id]; ok && img.ItemID == itemID {
			delete(m.images, id)
		}
	}
	return nil
}

func (m *mockItemImageRepository) ListPathsBySeller(ctx context.Context, sellerID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var paths []string
	for _, img := range m.images {
		item, err := m.items.FindByID(ctx, img.ItemID)
		if err == nil && item.SellerID == sellerID {
			paths = append(paths, img.ImagePath)
		}
	}
	return paths, nil
}

// count returns the number of image rows for an item
func (m *mockItemImageRepository) count(itemID int64) int {
	images, _ := m.ListByItem(context.Background(), itemID)
	return len(images)
}

type mockCategoryRepository struct {
	categories []*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	parent := int64(1)
	return &mockCategoryRepository{categories: []*domain.Category{
		{ID: 1, Name: "Fashion"},
		{ID: 2, Name: "Gadgets"},
		{ID: 6, Name: "Jackets", ParentID: &parent},
	}}
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	return m.categories, nil
}

func (m *mockCategoryRepository) ListByParent(ctx context.Context, parentID *int64) ([]*domain.Category, error) {
	return domain.ChildrenOf(m.categories, parentID), nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	for _, c := range m.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

type mockReferenceRepository struct{}

func (mockReferenceRepository) ListConditions(ctx context.Context) ([]*domain.Condition, error) {
	return []*domain.Condition{{ID: 1, Name: "Good"}, {ID: 2, Name: "No visible damage"}}, nil
}

func (mockReferenceRepository) ListPayments(ctx context.Context) ([]*domain.Payment, error) {
	return []*domain.Payment{{ID: 1, Name: "Convenience store"}, {ID: 2, Name: "Card"}}, nil
}

func (mockReferenceRepository) ListStatuses(ctx context.Context) ([]*domain.Status, error) {
	return []*domain.Status{
		{ID: domain.StatusConfirmed, Name: "Purchase confirmed"},
		{ID: domain.StatusCancelled, Name: "Purchase cancelled"},
		{ID: domain.StatusShipped, Name: "Shipped"},
		{ID: domain.StatusReceived, Name: "Received"},
		{ID: domain.StatusReturned, Name: "Returned"},
	}, nil
}

func (mockReferenceRepository) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	return []*domain.Role{{ID: 1, Name: domain.RoleAdmin}, {ID: 2, Name: domain.RoleUser}}, nil
}

func (r mockReferenceRepository) FindCondition(ctx context.Context, id int64) (*domain.Condition, error) {
	conditions, _ := r.ListConditions(ctx)
	for _, c := range conditions {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repository.ErrConditionNotFound
}

func (r mockReferenceRepository) FindPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	payments, _ := r.ListPayments(ctx)
	for _, p := range payments {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrPaymentNotFound
}

func (r mockReferenceRepository) FindStatus(ctx context.Context, id int64) (*domain.Status, error) {
	statuses, _ := r.ListStatuses(ctx)
	for _, s := range statuses {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, repository.ErrStatusNotFound
}

type mockCommentRepository struct {
	comments []domain.Comment
}

func (m *mockCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	comment.ID = int64(len(m.comments) + 1)
	comment.CreatedAt = time.Now()
	m.comments = append(m.comments, *comment)
	return nil
}

func (m *mockCommentRepository) ListByItem(ctx context.Context, itemID int64) ([]domain.Comment, error) {
	out := []domain.Comment{}
	for _, c := range m.comments {
		if c.ItemID == itemID {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockFavoriteRepository struct {
	pairs     map[[2]int64]bool
	attachErr error
}

func newMockFavoriteRepository() *mockFavoriteRepository {
	return &mockFavoriteRepository{pairs: make(map[[2]int64]bool)}
}

func (m *mockFavoriteRepository) Attach(ctx context.Context, userID, itemID int64) error {
	if m.attachErr != nil {
		return m.attachErr
	}
	m.pairs[[2]int64{itemID, userID}] = true
	return nil
}

func (m *mockFavoriteRepository) Detach(ctx context.Context, userID, itemID int64) error {
	delete(m.pairs, [2]int64{itemID, userID})
	return nil
}

func (m *mockFavoriteRepository) Count(ctx context.Context, itemID int64) (int, error) {
	n := 0
	for pair := range m.pairs {
		if pair[0] == itemID {
			n++
		}
	}
	return n, nil
}

func (m *mockFavoriteRepository) IsFavorited(ctx context.Context, itemID, userID int64) (bool, error) {
	return m.pairs[[2]int64{itemID, userID}], nil
}

type mockPurchaseRepository struct {
	nextID    int64
	purchases map[int64]*domain.Purchase
	items     *mockItemRepository
}

func newMockPurchaseRepository(items *mockItemRepository) *mockPurchaseRepository {
	return &mockPurchaseRepository{purchases: make(map[int64]*domain.Purchase), items: items}
}

func (m *mockPurchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	m.nextID++
	purchase.ID = m.nextID
	purchase.CreatedAt = time.Now()
	purchase.UpdatedAt = purchase.CreatedAt
	copied := *purchase
	m.purchases[purchase.ID] = &copied
	return nil
}

func (m *mockPurchaseRepository) FindByID(ctx context.Context, id int64) (*domain.Purchase, error) {
	p, ok := m.purchases[id]
	if !ok {
		return nil, repository.ErrPurchaseNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockPurchaseRepository) UpdateStatus(ctx context.Context, id, fromStatusID, toStatusID int64) error {
	p, ok := m.purchases[id]
	if !ok {
		return repository.ErrPurchaseNotFound
	}
	if p.StatusID != fromStatusID {
		return repository.ErrPurchaseStatusChanged
	}
	p.StatusID = toStatusID
	return nil
}

func (m *mockPurchaseRepository) ListByPurchaser(ctx context.Context, purchaserID int64) ([]domain.Purchase, error) {
	out := []domain.Purchase{}
	for _, p := range m.purchases {
		if p.PurchaserID != nil && *p.PurchaserID == purchaserID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockPurchaseRepository) ListByItem(ctx context.Context, itemID int64) ([]domain.Purchase, error) {
	out := []domain.Purchase{}
	for _, p := range m.purchases {
		if p.ItemID == itemID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockPurchaseRepository) Receipt(ctx context.Context, id int64) (*domain.Receipt, error) {
	p, ok := m.purchases[id]
	if !ok {
		return nil, repository.ErrPurchaseNotFound
	}
	item, err := m.items.FindByID(ctx, p.ItemID)
	if err != nil {
		return nil, err
	}
	return &domain.Receipt{
		PurchaseID:  p.ID,
		ItemID:      item.ID,
		ItemName:    item.Name,
		ItemPrice:   item.Price,
		SellerID:    item.SellerID,
		PurchaserID: p.PurchaserID,
		ShipAddress: p.ShipAddress,
		StatusID:    p.StatusID,
		Email:       p.Email,
		CreatedAt:   p.CreatedAt,
	}, nil
}

var errBlobBackend = errors.New("blob backend unavailable")

// failingStore accepts putsBeforeFailure writes and then refuses Put
type failingStore struct {
	storage.BlobStore
	putsBeforeFailure int
	puts              int
}

func (f *failingStore) Put(ctx context.Context, name string, data []byte) error {
	if f.puts >= f.putsBeforeFailure {
		return errBlobBackend
	}
	f.puts++
	return f.BlobStore.Put(ctx, name, data)
}

// recordingStore remembers every name written through it
type recordingStore struct {
	storage.BlobStore
	names []string
}

func (r *recordingStore) Put(ctx context.Context, name string, data []byte) error {
	r.names = append(r.names, name)
	return r.BlobStore.Put(ctx, name, data)
}

func newMemStore() storage.BlobStore {
	return storage.NewFSStore(afero.NewMemMapFs())
}

// itemFixture wires an item service over the in-memory mocks
type itemFixture struct {
	service   ItemService
	items     *mockItemRepository
	images    *mockItemImageRepository
	purchases *mockPurchaseRepository
	comments  *mockCommentRepository
	blobs     storage.BlobStore
}

func newItemFixture(blobs storage.BlobStore) *itemFixture {
	if blobs == nil {
		blobs = newMemStore()
	}
	items := newMockItemRepository()
	images := newMockItemImageRepository(items)
	purchases := newMockPurchaseRepository(items)
	comments := &mockCommentRepository{}
	svc := NewItemService(fakeTx{}, items, images, newMockCategoryRepository(), mockReferenceRepository{},
		comments, purchases, blobs, zap.NewNop())
	return &itemFixture{
		service:   svc,
		items:     items,
		images:    images,
		purchases: purchases,
		comments:  comments,
		blobs:     blobs,
	}
}

func validItemInput() ItemInput {
	return ItemInput{
		Name:        "Leather jacket",
		CategoryID:  1,
		Brand:       "Acme",
		ConditionID: 1,
		Description: "Worn twice",
		Price:       5000,
	}
}
