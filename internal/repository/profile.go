package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/tipgrid/tipgrid/internal/model"
)

// Common errors for profile repository operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrUsernameExists  = errors.New("username already exists")
)

const profileColumns = `
	id, owner_id, username,
	first_name, last_name, alt_name, email, phone,
	street, city, state, postal_code,
	subscription,
	accepts_apple_pay, accepts_google_pay, accepts_samsung_pay, tax_id,
	description, tags, genres,
	paypal_me_user, venmo_username, cash_app_tag,
	spotify_url, youtube_url, tiktok_url,
	theme_color, profile_image_url, profile_banner_url, banner_colors,
	images,
	created_at, updated_at
`

// CreateProfile inserts a new profile into the database.
func (r *Repository) CreateProfile(ctx context.Context, profile *model.Profile) error {
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8,
			$9, $10, $11, $12,
			$13,
			$14, $15, $16, $17,
			$18, $19, $20,
			$21, $22, $23,
			$24, $25, $26,
			$27, $28, $29, $30,
			$31,
			$32, $33
		)
	`

	_, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.OwnerID,
		profile.Username,
		profile.FirstName,
		profile.LastName,
		profile.AltName,
		profile.Email,
		profile.Phone,
		profile.Street,
		profile.City,
		profile.State,
		profile.PostalCode,
		profile.Subscription,
		profile.AcceptsApplePay,
		profile.AcceptsGooglePay,
		profile.AcceptsSamsungPay,
		profile.TaxID,
		profile.Description,
		pq.Array(profile.Tags),
		pq.Array(profile.Genres),
		profile.PayPalMeUser,
		profile.VenmoUsername,
		profile.CashAppTag,
		profile.SpotifyURL,
		profile.YouTubeURL,
		profile.TikTokURL,
		profile.ThemeColor,
		profile.ProfileImageURL,
		profile.ProfileBannerURL,
		pq.Array(profile.BannerColors),
		pq.Array(profile.Images),
		profile.CreatedAt,
		profile.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetProfileByID retrieves a profile by its ID.
func (r *Repository) GetProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return r.scanProfile(r.pool.QueryRow(ctx, query, id))
}

// GetProfileByUsername retrieves a profile by its public username.
func (r *Repository) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE username = $1`
	return r.scanProfile(r.pool.QueryRow(ctx, query, username))
}

// GetProfileByOwner retrieves the profile belonging to a user.
func (r *Repository) GetProfileByOwner(ctx context.Context, ownerID string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE owner_id = $1`
	return r.scanProfile(r.pool.QueryRow(ctx, query, ownerID))
}

// UpdateProfile persists the mutable fields of a profile.
// Username and owner are immutable after creation.
func (r *Repository) UpdateProfile(ctx context.Context, profile *model.Profile) error {
	query := `
		UPDATE profiles SET
			first_name = $2, last_name = $3, alt_name = $4, email = $5, phone = $6,
			street = $7, city = $8, state = $9, postal_code = $10,
			subscription = $11,
			accepts_apple_pay = $12, accepts_google_pay = $13, accepts_samsung_pay = $14, tax_id = $15,
			description = $16, tags = $17, genres = $18,
			paypal_me_user = $19, venmo_username = $20, cash_app_tag = $21,
			spotify_url = $22, youtube_url = $23, tiktok_url = $24,
			theme_color = $25, profile_image_url = $26,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.FirstName,
		profile.LastName,
		profile.AltName,
		profile.Email,
		profile.Phone,
		profile.Street,
		profile.City,
		profile.State,
		profile.PostalCode,
		profile.Subscription,
		profile.AcceptsApplePay,
		profile.AcceptsGooglePay,
		profile.AcceptsSamsungPay,
		profile.TaxID,
		profile.Description,
		pq.Array(profile.Tags),
		pq.Array(profile.Genres),
		profile.PayPalMeUser,
		profile.VenmoUsername,
		profile.CashAppTag,
		profile.SpotifyURL,
		profile.YouTubeURL,
		profile.TikTokURL,
		profile.ThemeColor,
		profile.ProfileImageURL,
	)

	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// UpdateBannerTheme sets the banner image URL and its extracted palette in one write
// so a page never renders a new banner with a stale palette.
func (r *Repository) UpdateBannerTheme(ctx context.Context, profileID, bannerURL string, colors []string) error {
	query := `
		UPDATE profiles
		SET profile_banner_url = $2, banner_colors = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, profileID, bannerURL, pq.Array(colors))
	if err != nil {
		return fmt.Errorf("failed to update banner theme: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// AddGalleryImage appends an image URL to a profile's gallery.
func (r *Repository) AddGalleryImage(ctx context.Context, profileID, imageURL string) error {
	query := `
		UPDATE profiles
		SET images = array_append(images, $2), updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, profileID, imageURL)
	if err != nil {
		return fmt.Errorf("failed to add gallery image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// UsernameExists checks whether a username is already taken.
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM profiles WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanProfile(row rowScanner) (*model.Profile, error) {
	var profile model.Profile
	var updatedAt time.Time

	err := row.Scan(
		&profile.ID,
		&profile.OwnerID,
		&profile.Username,
		&profile.FirstName,
		&profile.LastName,
		&profile.AltName,
		&profile.Email,
		&profile.Phone,
		&profile.Street,
		&profile.City,
		&profile.State,
		&profile.PostalCode,
		&profile.Subscription,
		&profile.AcceptsApplePay,
		&profile.AcceptsGooglePay,
		&profile.AcceptsSamsungPay,
		&profile.TaxID,
		&profile.Description,
		pq.Array(&profile.Tags),
		pq.Array(&profile.Genres),
		&profile.PayPalMeUser,
		&profile.VenmoUsername,
		&profile.CashAppTag,
		&profile.SpotifyURL,
		&profile.YouTubeURL,
		&profile.TikTokURL,
		&profile.ThemeColor,
		&profile.ProfileImageURL,
		&profile.ProfileBannerURL,
		pq.Array(&profile.BannerColors),
		pq.Array(&profile.Images),
		&profile.CreatedAt,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	profile.UpdatedAt = updatedAt
	return &profile, nil
}
