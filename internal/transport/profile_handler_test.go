package transport

import (
	"context"
	"net/http"
	"testing"

	"fleamarket/internal/domain"
	"fleamarket/internal/service"
	"fleamarket/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfileService struct {
	userID   int64
	core     service.CoreInput
	avatar   *domain.ImageUpload
	detail   service.DetailInput
	password string
	err      error
}

func (f *fakeProfileService) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	f.userID = userID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Profile{User: &domain.User{ID: userID}, Detail: &domain.UserDetail{UserID: userID}, Image: &domain.UserImage{UserID: userID}}, nil
}

func (f *fakeProfileService) UpdateProfile(ctx context.Context, userID int64, input service.CoreInput, avatar *domain.ImageUpload) (*domain.Profile, error) {
	f.userID, f.core, f.avatar = userID, input, avatar
	if f.err != nil {
		return nil, f.err
	}
	return f.GetProfile(ctx, userID)
}

func (f *fakeProfileService) ReplaceOwnedImage(ctx context.Context, userID int64, upload domain.ImageUpload) (*domain.UserImage, error) {
	f.userID, f.avatar = userID, &upload
	return &domain.UserImage{UserID: userID, ImagePath: upload.Filename}, f.err
}

func (f *fakeProfileService) UpdateUserCore(ctx context.Context, userID int64, input service.CoreInput) (*domain.User, error) {
	f.userID, f.core = userID, input
	return &domain.User{ID: userID, Name: input.Name, Email: input.Email}, f.err
}

func (f *fakeProfileService) UpdateUserDetail(ctx context.Context, userID int64, input service.DetailInput) (*domain.UserDetail, error) {
	f.userID, f.detail = userID, input
	if f.err != nil {
		return nil, f.err
	}
	return &domain.UserDetail{UserID: userID, Postal: input.Postal}, nil
}

func (f *fakeProfileService) DeleteAccount(ctx context.Context, userID int64, password string) error {
	f.userID, f.password = userID, password
	return f.err
}

func TestUpdateProfile_WithAvatar(t *testing.T) {
	profiles := &fakeProfileService{}
	router := routerFor(30, NewProfileHandler(profiles, testLogger).RegisterRoutes)

	fields := map[string][]string{"name": {"Hanako"}, "email": {"hanako@example.com"}}
	req := multipartRequest(t, http.MethodPost, "/api/profile", fields,
		formFile{field: "file", name: "me.png", data: pngBytes(t)},
	)
	rec := serve(router, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(30), profiles.userID)
	assert.Equal(t, service.CoreInput{Name: "Hanako", Email: "hanako@example.com"}, profiles.core)
	require.NotNil(t, profiles.avatar)
	assert.Equal(t, "me.png", profiles.avatar.Filename)
}

func TestUpdateProfile_WithoutAvatar(t *testing.T) {
	profiles := &fakeProfileService{}
	router := routerFor(30, NewProfileHandler(profiles, testLogger).RegisterRoutes)

	rec := serve(router, multipartRequest(t, http.MethodPost, "/api/profile", map[string][]string{"name": {"Hanako"}}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, profiles.avatar)
}

func TestUpdateDetail_ValidationErrors(t *testing.T) {
	profiles := &fakeProfileService{err: validation.Errors{}.Add("postal", "postal must be exactly 7 digits")}
	router := routerFor(30, NewProfileHandler(profiles, testLogger).RegisterRoutes)

	rec := serve(router, jsonRequest(t, http.MethodPatch, "/api/profile/detail", service.DetailInput{Postal: "123"}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"postal"}, validationFields(t, errorBody(t, rec)))
	assert.Equal(t, "123", profiles.detail.Postal)
}

func TestDeleteAccount(t *testing.T) {
	profiles := &fakeProfileService{}
	router := routerFor(30, NewProfileHandler(profiles, testLogger).RegisterRoutes)

	rec := serve(router, jsonRequest(t, http.MethodDelete, "/api/profile", DeleteAccountRequest{Password: "secret123"}))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "secret123", profiles.password)
}
