package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fleamarket/internal/domain"
	"fleamarket/internal/repository"
	"fleamarket/internal/storage"
	"fleamarket/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CoreInput holds the account fields editable from the profile page
type CoreInput struct {
	Name  string `json:"name" validate:"required,max=20"`
	Email string `json:"email" validate:"required,email,max=254,profile_email"`
}

// DetailInput holds the optional profile fields
type DetailInput struct {
	Postal       string `json:"postal" validate:"omitempty,postal"`
	Address      string `json:"address" validate:"max=161"`
	Building     string `json:"building" validate:"max=161"`
	Introduction string `json:"introduction" validate:"max=1000"`
}

const msgWrongPassword = "the password is incorrect"

// ProfileService manages the acting user's own account data
type ProfileService interface {
	GetProfile(ctx context.Context, userID int64) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, userID int64, input CoreInput, avatar *domain.ImageUpload) (*domain.Profile, error)
	ReplaceOwnedImage(ctx context.Context, userID int64, upload domain.ImageUpload) (*domain.UserImage, error)
	UpdateUserCore(ctx context.Context, userID int64, input CoreInput) (*domain.User, error)
	UpdateUserDetail(ctx context.Context, userID int64, input DetailInput) (*domain.UserDetail, error)
	DeleteAccount(ctx context.Context, userID int64, password string) error
}

type profileService struct {
	tx               repository.Transactor
	userRepo         repository.UserRepository
	profileRepo      repository.ProfileRepository
	imageRepo        repository.ItemImageRepository
	refreshTokenRepo repository.RefreshTokenRepository
	avatars          storage.BlobStore
	itemBlobs        storage.BlobStore
	logger           *zap.Logger
}

// NewProfileService creates a new instance of ProfileService
func NewProfileService(
	tx repository.Transactor,
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	imageRepo repository.ItemImageRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	avatars storage.BlobStore,
	itemBlobs storage.BlobStore,
	logger *zap.Logger,
) ProfileService {
	return &profileService{
		tx:               tx,
		userRepo:         userRepo,
		profileRepo:      profileRepo,
		imageRepo:        imageRepo,
		refreshTokenRepo: refreshTokenRepo,
		avatars:          avatars,
		itemBlobs:        itemBlobs,
		logger:           logger,
	}
}

// GetProfile returns the user with their detail and avatar. Missing
// detail or avatar rows come back empty.
func (s *profileService) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	detail, err := s.profileRepo.FindDetail(ctx, userID)
	if errors.Is(err, repository.ErrUserDetailNotFound) {
		detail, err = &domain.UserDetail{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user detail: %w", err)
	}

	image, err := s.profileRepo.FindImage(ctx, userID)
	if errors.Is(err, repository.ErrUserImageNotFound) {
		image, err = &domain.UserImage{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user image: %w", err)
	}

	return &domain.Profile{User: user, Detail: detail, Image: image}, nil
}

func (s *profileService) validateCore(ctx context.Context, userID int64, input *CoreInput) (validation.Errors, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)

	var errs validation.Errors
	if err := validation.Struct(input); err != nil {
		verrs, ok := validation.As(err)
		if !ok {
			return nil, err
		}
		errs = verrs
	}

	if input.Email != "" {
		taken, err := s.userRepo.EmailTaken(ctx, input.Email, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			errs = errs.Add("email", "email has already been taken")
		}
	}

	return errs, nil
}

// UpdateProfile applies the profile form: optional avatar plus name and
// email. Everything is validated before anything changes.
func (s *profileService) UpdateProfile(ctx context.Context, userID int64, input CoreInput, avatar *domain.ImageUpload) (*domain.Profile, error) {
	errs, err := s.validateCore(ctx, userID, &input)
	if err != nil {
		return nil, fmt.Errorf("failed to validate profile: %w", err)
	}
	if avatar != nil {
		errs = append(errs, validation.Image("file", *avatar)...)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if avatar != nil {
		if _, err := s.ReplaceOwnedImage(ctx, userID, *avatar); err != nil {
			return nil, err
		}
	}

	if _, err := s.UpdateUserCore(ctx, userID, input); err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, userID)
}

// ReplaceOwnedImage stores a new avatar and points the user at it. The
// previous blob is removed once the new name is persisted.
func (s *profileService) ReplaceOwnedImage(ctx context.Context, userID int64, upload domain.ImageUpload) (*domain.UserImage, error) {
	if err := validation.Image("file", upload).Err(); err != nil {
		return nil, err
	}

	var previous string
	current, err := s.profileRepo.FindImage(ctx, userID)
	switch {
	case err == nil:
		previous = current.ImagePath
	case errors.Is(err, repository.ErrUserImageNotFound):
	default:
		return nil, fmt.Errorf("failed to load user image: %w", err)
	}

	name, err := storeUpload(ctx, s.avatars, upload)
	if err != nil {
		s.logger.Error("Failed to store avatar", zap.Int64("user_id", userID), zap.Error(err))
		return nil, ErrOperationFailed
	}

	image := &domain.UserImage{UserID: userID, ImagePath: name}
	if err := s.profileRepo.SaveImage(ctx, image); err != nil {
		discardBlobs(ctx, s.avatars, []string{name}, s.logger)
		s.logger.Error("Failed to save avatar", zap.Int64("user_id", userID), zap.Error(err))
		return nil, ErrOperationFailed
	}

	if previous != name {
		discardBlobs(ctx, s.avatars, []string{previous}, s.logger)
	}

	return image, nil
}

// UpdateUserCore writes name and email. Changing the email clears its
// verification.
func (s *profileService) UpdateUserCore(ctx context.Context, userID int64, input CoreInput) (*domain.User, error) {
	errs, err := s.validateCore(ctx, userID, &input)
	if err != nil {
		return nil, fmt.Errorf("failed to validate profile: %w", err)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Email != input.Email {
		user.EmailVerifiedAt = nil
	}
	user.Name = input.Name
	user.Email = input.Email

	if err := s.userRepo.UpdateCore(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, validation.Errors{}.Add("email", "email has already been taken")
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error("Failed to update user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, ErrOperationFailed
	}

	return user, nil
}

// UpdateUserDetail writes postal, address, building and introduction
func (s *profileService) UpdateUserDetail(ctx context.Context, userID int64, input DetailInput) (*domain.UserDetail, error) {
	input.Postal = strings.TrimSpace(input.Postal)
	input.Address = strings.TrimSpace(input.Address)
	input.Building = strings.TrimSpace(input.Building)
	input.Introduction = strings.TrimSpace(input.Introduction)

	if err := validation.Struct(&input); err != nil {
		return nil, err
	}

	detail := &domain.UserDetail{
		UserID:       userID,
		Postal:       input.Postal,
		Address:      input.Address,
		Building:     input.Building,
		Introduction: input.Introduction,
	}

	if err := s.profileRepo.SaveDetail(ctx, detail); err != nil {
		s.logger.Error("Failed to save user detail", zap.Int64("user_id", userID), zap.Error(err))
		return nil, ErrOperationFailed
	}

	return detail, nil
}

// DeleteAccount re-checks the password, ends every session and removes the
// user together with their listings. Blobs go after the commit.
func (s *profileService) DeleteAccount(ctx context.Context, userID int64, password string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if password == "" {
		return validation.Errors{}.Add("password", "password is required")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return validation.Errors{}.Add("password", msgWrongPassword)
	}

	var itemBlobs, avatarBlobs []string
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		paths, err := s.imageRepo.ListPathsBySeller(ctx, userID)
		if err != nil {
			return err
		}
		itemBlobs = paths

		image, err := s.profileRepo.FindImage(ctx, userID)
		switch {
		case err == nil:
			avatarBlobs = []string{image.ImagePath}
		case !errors.Is(err, repository.ErrUserImageNotFound):
			return err
		}

		if err := s.refreshTokenRepo.RevokeAllForUser(ctx, userID); err != nil {
			return err
		}
		return s.userRepo.Delete(ctx, userID)
	})

	if err != nil {
		if passThrough(err) {
			return err
		}
		s.logger.Error("Failed to delete account", zap.Int64("user_id", userID), zap.Error(err))
		return ErrOperationFailed
	}

	discardBlobs(ctx, s.itemBlobs, itemBlobs, s.logger)
	discardBlobs(ctx, s.avatars, avatarBlobs, s.logger)

	s.logger.Info("Account deleted", zap.Int64("user_id", userID), zap.Int("item_images", len(itemBlobs)))
	return nil
}
