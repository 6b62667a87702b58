// Package service provides business logic for the application.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tipgrid/tipgrid/internal/media"
	"github.com/tipgrid/tipgrid/internal/metrics"
	"github.com/tipgrid/tipgrid/internal/middleware"
	"github.com/tipgrid/tipgrid/internal/model"
	"github.com/tipgrid/tipgrid/internal/palette"
	"github.com/tipgrid/tipgrid/internal/repository"
)

// Service errors.
var (
	ErrInvalidUsername    = errors.New("invalid username")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrNotProfileOwner    = errors.New("profile does not belong to caller")
	ErrWalletNeedsTaxID   = errors.New("tax id is required when a mobile wallet is enabled")
	ErrInvalidSubscription = errors.New("invalid subscription plan")
	ErrMissingName        = errors.New("first and last name are required")
)

// ProfileStore is the subset of repository methods the profile service needs.
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile *model.Profile) error
	GetProfileByID(ctx context.Context, id string) (*model.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error)
	GetProfileByOwner(ctx context.Context, ownerID string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, profile *model.Profile) error
	UpdateBannerTheme(ctx context.Context, profileID, bannerURL string, colors []string) error
	AddGalleryImage(ctx context.Context, profileID, imageURL string) error
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// ProfileCache is the subset of cache methods the profile service needs.
type ProfileCache interface {
	GetProfile(ctx context.Context, username string) (*model.Profile, error)
	SetProfile(ctx context.Context, profile *model.Profile) error
	DeleteProfile(ctx context.Context, username string) error
	IsNegativelyCached(ctx context.Context, username string) (bool, error)
	SetNegativeCache(ctx context.Context, username string) error
}

// ProfileService handles profile business logic.
type ProfileService struct {
	store   ProfileStore
	cache   ProfileCache
	media   *media.Store
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewProfileService creates a new ProfileService.
func NewProfileService(store ProfileStore, profileCache ProfileCache, mediaStore *media.Store, logger *slog.Logger, recorder metrics.Recorder) *ProfileService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ProfileService{
		store:   store,
		cache:   profileCache,
		media:   mediaStore,
		logger:  logger.With(slog.String("component", "profile_service")),
		metrics: recorder,
	}
}

// CreateProfileInput defines input for creating a profile.
type CreateProfileInput struct {
	OwnerID   string
	Username  string
	FirstName string
	LastName  string
	AltName   string
	Email     string
}

// CreateProfile claims a username and creates the owner's page.
func (s *ProfileService) CreateProfile(ctx context.Context, input CreateProfileInput) (*model.Profile, error) {
	username := middleware.NormalizeUsername(input.Username)
	if err := middleware.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUsername, err)
	}

	if input.FirstName == "" || input.LastName == "" {
		return nil, ErrMissingName
	}

	taken, err := s.store.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	now := time.Now().UTC()
	profile := &model.Profile{
		ID:        newProfileID(),
		OwnerID:   input.OwnerID,
		Username:  username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		AltName:   input.AltName,
		Email:     input.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateProfile(ctx, profile); err != nil {
		// Creation races resolve at the unique index
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.metrics.IncProfileCreated()
	s.logger.Info("profile created",
		slog.String("profile_id", profile.ID),
		slog.String("username", profile.Username),
	)

	return profile, nil
}

// UpdateProfileInput defines the mutable fields of a profile.
// Nil pointers mean "leave unchanged".
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	AltName   *string
	Email     *string
	Phone     *string

	Street     *string
	City       *string
	State      *string
	PostalCode *string

	Subscription *string

	AcceptsApplePay   *bool
	AcceptsGooglePay  *bool
	AcceptsSamsungPay *bool
	TaxID             *string

	Description *string
	Tags        []string
	Genres      []string

	PayPalMeUser  *string
	VenmoUsername *string
	CashAppTag    *string

	SpotifyURL *string
	YouTubeURL *string
	TikTokURL  *string

	ThemeColor *string
}

// UpdateProfile applies a partial update on behalf of the profile owner.
func (s *ProfileService) UpdateProfile(ctx context.Context, ownerID, profileID string, input UpdateProfileInput) (*model.Profile, error) {
	profile, err := s.getOwned(ctx, ownerID, profileID)
	if err != nil {
		return nil, err
	}

	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	applyBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}

	applyString(&profile.FirstName, input.FirstName)
	applyString(&profile.LastName, input.LastName)
	applyString(&profile.AltName, input.AltName)
	applyString(&profile.Email, input.Email)
	applyString(&profile.Phone, input.Phone)
	applyString(&profile.Street, input.Street)
	applyString(&profile.City, input.City)
	applyString(&profile.State, input.State)
	applyString(&profile.PostalCode, input.PostalCode)
	applyString(&profile.Subscription, input.Subscription)
	applyBool(&profile.AcceptsApplePay, input.AcceptsApplePay)
	applyBool(&profile.AcceptsGooglePay, input.AcceptsGooglePay)
	applyBool(&profile.AcceptsSamsungPay, input.AcceptsSamsungPay)
	applyString(&profile.TaxID, input.TaxID)
	applyString(&profile.Description, input.Description)
	applyString(&profile.PayPalMeUser, input.PayPalMeUser)
	applyString(&profile.VenmoUsername, input.VenmoUsername)
	applyString(&profile.CashAppTag, input.CashAppTag)
	applyString(&profile.SpotifyURL, input.SpotifyURL)
	applyString(&profile.YouTubeURL, input.YouTubeURL)
	applyString(&profile.TikTokURL, input.TikTokURL)
	applyString(&profile.ThemeColor, input.ThemeColor)

	if input.Tags != nil {
		profile.Tags = input.Tags
	}
	if input.Genres != nil {
		profile.Genres = input.Genres
	}

	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.invalidate(ctx, profile.Username)
	s.metrics.IncProfileUpdated()

	return profile, nil
}

// GetOwnProfile returns the profile belonging to the caller.
func (s *ProfileService) GetOwnProfile(ctx context.Context, ownerID string) (*model.Profile, error) {
	profile, err := s.store.GetProfileByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get own profile: %w", err)
	}
	return profile, nil
}

// GetPublicProfile resolves a username to its page.
// This is the hot path - cache-first with a negative cache for misses.
func (s *ProfileService) GetPublicProfile(ctx context.Context, username string) (*model.Profile, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveProfileLoadDuration(time.Since(start))
	}()

	cached, err := s.cache.GetProfile(ctx, username)
	if err == nil && cached != nil {
		s.metrics.IncProfileCacheHit()
		return cached, nil
	}

	if isNegative, _ := s.cache.IsNegativelyCached(ctx, username); isNegative {
		s.metrics.IncProfileCacheHit()
		return nil, ErrProfileNotFound
	}

	s.metrics.IncProfileCacheMiss()

	profile, err := s.store.GetProfileByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			_ = s.cache.SetNegativeCache(ctx, username)
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if err := s.cache.SetProfile(ctx, profile); err != nil {
		s.logger.Warn("failed to cache profile",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
	}

	return profile, nil
}

// UploadBanner stores a new banner image, extracts its dominant palette and
// persists both in one write. Extraction never fails the upload; a banner
// that defeats the extractor gets the default palette.
func (s *ProfileService) UploadBanner(ctx context.Context, ownerID, profileID string, upload io.Reader) (*model.Profile, error) {
	profile, err := s.getOwned(ctx, ownerID, profileID)
	if err != nil {
		return nil, err
	}

	bannerURL, err := s.media.Save(profile.ID, media.KindBanner, upload)
	if err != nil {
		return nil, fmt.Errorf("save banner: %w", err)
	}

	colors := s.extractBannerColors(bannerURL)

	if err := s.store.UpdateBannerTheme(ctx, profile.ID, bannerURL, colors); err != nil {
		return nil, fmt.Errorf("update banner theme: %w", err)
	}

	profile.ProfileBannerURL = bannerURL
	profile.BannerColors = colors
	s.invalidate(ctx, profile.Username)
	s.metrics.IncProfileUpdated()

	s.logger.Info("banner updated",
		slog.String("profile_id", profile.ID),
		slog.String("primary_color", colors[0]),
	)

	return profile, nil
}

// UploadAvatar stores a new profile image.
func (s *ProfileService) UploadAvatar(ctx context.Context, ownerID, profileID string, upload io.Reader) (*model.Profile, error) {
	profile, err := s.getOwned(ctx, ownerID, profileID)
	if err != nil {
		return nil, err
	}

	avatarURL, err := s.media.Save(profile.ID, media.KindAvatar, upload)
	if err != nil {
		return nil, fmt.Errorf("save avatar: %w", err)
	}

	profile.ProfileImageURL = avatarURL
	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.invalidate(ctx, profile.Username)
	s.metrics.IncProfileUpdated()

	return profile, nil
}

// AddGalleryImage stores an image and appends it to the profile's gallery.
func (s *ProfileService) AddGalleryImage(ctx context.Context, ownerID, profileID string, upload io.Reader) (string, error) {
	profile, err := s.getOwned(ctx, ownerID, profileID)
	if err != nil {
		return "", err
	}

	imageURL, err := s.media.Save(profile.ID, media.KindGallery, upload)
	if err != nil {
		return "", fmt.Errorf("save gallery image: %w", err)
	}

	if err := s.store.AddGalleryImage(ctx, profile.ID, imageURL); err != nil {
		return "", fmt.Errorf("append gallery image: %w", err)
	}

	s.invalidate(ctx, profile.Username)
	s.metrics.IncProfileUpdated()

	return imageURL, nil
}

// extractBannerColors re-reads the stored banner and runs palette extraction.
func (s *ProfileService) extractBannerColors(bannerURL string) []string {
	start := time.Now()

	f, err := s.media.Open(bannerURL)
	if err != nil {
		s.metrics.IncColorExtractionFallback()
		// Copy so callers never alias the shared fallback array.
		return append([]string(nil), palette.Fallback[:]...)
	}
	defer f.Close()

	colors := palette.ExtractDominantColors(f)
	s.metrics.ObserveColorExtractionDuration(time.Since(start))
	if colors == palette.Fallback {
		s.metrics.IncColorExtractionFallback()
	}

	return colors[:]
}

// getOwned loads a profile and verifies the caller owns it.
func (s *ProfileService) getOwned(ctx context.Context, ownerID, profileID string) (*model.Profile, error) {
	profile, err := s.store.GetProfileByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile.OwnerID != ownerID {
		return nil, ErrNotProfileOwner
	}
	return profile, nil
}

// invalidate drops the cached public page after a write.
func (s *ProfileService) invalidate(ctx context.Context, username string) {
	if err := s.cache.DeleteProfile(ctx, username); err != nil {
		s.logger.Warn("failed to invalidate profile cache",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
	}
}

// validateProfile enforces cross-field rules before a write.
func validateProfile(profile *model.Profile) error {
	if profile.FirstName == "" || profile.LastName == "" {
		return ErrMissingName
	}
	if profile.Subscription != "" &&
		profile.Subscription != model.SubscriptionMonthly &&
		profile.Subscription != model.SubscriptionYearly {
		return ErrInvalidSubscription
	}
	if profile.AcceptsWallet() && profile.TaxID == "" {
		return ErrWalletNeedsTaxID
	}
	return nil
}

// newProfileID generates a time-sortable profile ID.
func newProfileID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
