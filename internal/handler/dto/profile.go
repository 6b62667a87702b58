// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/tipgrid/tipgrid/internal/model"
)

// CreateProfileRequest represents the request body for claiming a profile.
type CreateProfileRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AltName   string `json:"alt_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// UpdateProfileRequest represents a partial profile update.
// Absent fields are left unchanged.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	AltName   *string `json:"alt_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`

	Street     *string `json:"street,omitempty"`
	City       *string `json:"city,omitempty"`
	State      *string `json:"state,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`

	Subscription *string `json:"subscription,omitempty"`

	AcceptsApplePay   *bool   `json:"accepts_apple_pay,omitempty"`
	AcceptsGooglePay  *bool   `json:"accepts_google_pay,omitempty"`
	AcceptsSamsungPay *bool   `json:"accepts_samsung_pay,omitempty"`
	TaxID             *string `json:"tax_id,omitempty"`

	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Genres      []string `json:"genres,omitempty"`

	PayPalMeUser  *string `json:"paypal_me_user,omitempty"`
	VenmoUsername *string `json:"venmo_username,omitempty"`
	CashAppTag    *string `json:"cash_app_tag,omitempty"`

	SpotifyURL *string `json:"spotify_url,omitempty"`
	YouTubeURL *string `json:"youtube_url,omitempty"`
	TikTokURL  *string `json:"tiktok_url,omitempty"`

	ThemeColor *string `json:"theme_color,omitempty"`
}

// ProfileResponse represents a full profile in owner-facing responses.
type ProfileResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	PageURL  string `json:"page_url"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AltName   string `json:"alt_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`

	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`

	Subscription string `json:"subscription,omitempty"`

	AcceptsApplePay   bool   `json:"accepts_apple_pay"`
	AcceptsGooglePay  bool   `json:"accepts_google_pay"`
	AcceptsSamsungPay bool   `json:"accepts_samsung_pay"`
	TaxID             string `json:"tax_id,omitempty"`

	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Genres      []string `json:"genres,omitempty"`

	PayPalMeUser  string `json:"paypal_me_user,omitempty"`
	VenmoUsername string `json:"venmo_username,omitempty"`
	CashAppTag    string `json:"cash_app_tag,omitempty"`

	SpotifyURL string `json:"spotify_url,omitempty"`
	YouTubeURL string `json:"youtube_url,omitempty"`
	TikTokURL  string `json:"tiktok_url,omitempty"`

	ThemeColor       string   `json:"theme_color,omitempty"`
	ProfileImageURL  string   `json:"profile_image_url,omitempty"`
	ProfileBannerURL string   `json:"profile_banner_url,omitempty"`
	BannerColors     []string `json:"banner_colors,omitempty"`

	Images []string `json:"images,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicProfileResponse is the subset of a profile rendered on the public
// page. Contact and tax details never leave the owner surface.
type PublicProfileResponse struct {
	Username string `json:"username"`
	PageURL  string `json:"page_url"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AltName   string `json:"alt_name,omitempty"`

	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Genres      []string `json:"genres,omitempty"`

	AcceptsApplePay   bool `json:"accepts_apple_pay"`
	AcceptsGooglePay  bool `json:"accepts_google_pay"`
	AcceptsSamsungPay bool `json:"accepts_samsung_pay"`

	PayPalMeUser  string `json:"paypal_me_user,omitempty"`
	VenmoUsername string `json:"venmo_username,omitempty"`
	CashAppTag    string `json:"cash_app_tag,omitempty"`

	SpotifyURL string `json:"spotify_url,omitempty"`
	YouTubeURL string `json:"youtube_url,omitempty"`
	TikTokURL  string `json:"tiktok_url,omitempty"`

	ThemeColor       string   `json:"theme_color,omitempty"`
	ProfileImageURL  string   `json:"profile_image_url,omitempty"`
	ProfileBannerURL string   `json:"profile_banner_url,omitempty"`
	BannerColors     []string `json:"banner_colors,omitempty"`

	Images []string `json:"images,omitempty"`
}

// TrackEventRequest represents an incoming analytics event.
type TrackEventRequest struct {
	ProfileID string `json:"profile_id"`
	Type      string `json:"type"`
	LinkType  string `json:"link_type,omitempty"`
	LinkURL   string `json:"link_url,omitempty"`
	VisitorID string `json:"visitor_id,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToProfileResponse converts a Profile model to its owner-facing DTO.
func ToProfileResponse(profile *model.Profile, baseURL string) *ProfileResponse {
	return &ProfileResponse{
		ID:                profile.ID,
		Username:          profile.Username,
		PageURL:           pageURL(baseURL, profile.Username),
		FirstName:         profile.FirstName,
		LastName:          profile.LastName,
		AltName:           profile.AltName,
		Email:             profile.Email,
		Phone:             profile.Phone,
		Street:            profile.Street,
		City:              profile.City,
		State:             profile.State,
		PostalCode:        profile.PostalCode,
		Subscription:      profile.Subscription,
		AcceptsApplePay:   profile.AcceptsApplePay,
		AcceptsGooglePay:  profile.AcceptsGooglePay,
		AcceptsSamsungPay: profile.AcceptsSamsungPay,
		TaxID:             profile.TaxID,
		Description:       profile.Description,
		Tags:              profile.Tags,
		Genres:            profile.Genres,
		PayPalMeUser:      profile.PayPalMeUser,
		VenmoUsername:     profile.VenmoUsername,
		CashAppTag:        profile.CashAppTag,
		SpotifyURL:        profile.SpotifyURL,
		YouTubeURL:        profile.YouTubeURL,
		TikTokURL:         profile.TikTokURL,
		ThemeColor:        profile.ThemeColor,
		ProfileImageURL:   profile.ProfileImageURL,
		ProfileBannerURL:  profile.ProfileBannerURL,
		BannerColors:      profile.BannerColors,
		Images:            profile.Images,
		CreatedAt:         profile.CreatedAt,
		UpdatedAt:         profile.UpdatedAt,
	}
}

// ToPublicProfileResponse converts a Profile model to its public DTO.
func ToPublicProfileResponse(profile *model.Profile, baseURL string) *PublicProfileResponse {
	return &PublicProfileResponse{
		Username:          profile.Username,
		PageURL:           pageURL(baseURL, profile.Username),
		FirstName:         profile.FirstName,
		LastName:          profile.LastName,
		AltName:           profile.AltName,
		Description:       profile.Description,
		Tags:              profile.Tags,
		Genres:            profile.Genres,
		AcceptsApplePay:   profile.AcceptsApplePay,
		AcceptsGooglePay:  profile.AcceptsGooglePay,
		AcceptsSamsungPay: profile.AcceptsSamsungPay,
		PayPalMeUser:      profile.PayPalMeUser,
		VenmoUsername:     profile.VenmoUsername,
		CashAppTag:        profile.CashAppTag,
		SpotifyURL:        profile.SpotifyURL,
		YouTubeURL:        profile.YouTubeURL,
		TikTokURL:         profile.TikTokURL,
		ThemeColor:        profile.ThemeColor,
		ProfileImageURL:   profile.ProfileImageURL,
		ProfileBannerURL:  profile.ProfileBannerURL,
		BannerColors:      profile.BannerColors,
		Images:            profile.Images,
	}
}

func pageURL(baseURL, username string) string {
	return baseURL + "/p/" + username
}
