// Package model defines domain entities for the application.
package model

import "time"

// Subscription plan values.
const (
	SubscriptionMonthly = "monthly"
	SubscriptionYearly  = "yearly"
)

// Profile represents one user's public tip/link page.
// Optional fields are modeled explicitly; empty means "not set".
type Profile struct {
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	Username string `json:"username"` // subdomain-safe handle, e.g. "dylandalal"

	// Identity
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AltName   string `json:"alt_name,omitempty"` // stage name
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`

	// Address
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`

	// Plan
	Subscription string `json:"subscription,omitempty"` // monthly | yearly

	// Wallet acceptance flags; TaxID is required when any flag is set.
	AcceptsApplePay   bool   `json:"accepts_apple_pay"`
	AcceptsGooglePay  bool   `json:"accepts_google_pay"`
	AcceptsSamsungPay bool   `json:"accepts_samsung_pay"`
	TaxID             string `json:"tax_id,omitempty"`

	// Page content
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Genres      []string `json:"genres,omitempty"`

	// Payment handles (usernames only, never money movement)
	PayPalMeUser  string `json:"paypal_me_user,omitempty"`
	VenmoUsername string `json:"venmo_username,omitempty"`
	CashAppTag    string `json:"cash_app_tag,omitempty"`

	// Social links
	SpotifyURL string `json:"spotify_url,omitempty"`
	YouTubeURL string `json:"youtube_url,omitempty"`
	TikTokURL  string `json:"tiktok_url,omitempty"`

	// Theming
	ThemeColor       string   `json:"theme_color,omitempty"`
	ProfileImageURL  string   `json:"profile_image_url,omitempty"`
	ProfileBannerURL string   `json:"profile_banner_url,omitempty"`
	BannerColors     []string `json:"banner_colors,omitempty"` // always 0 or 3 hex strings

	// Gallery
	Images []string `json:"images,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AcceptsWallet reports whether any mobile wallet is enabled.
func (p *Profile) AcceptsWallet() bool {
	return p.AcceptsApplePay || p.AcceptsGooglePay || p.AcceptsSamsungPay
}

// HasBannerTheme reports whether a full banner palette is present.
func (p *Profile) HasBannerTheme() bool {
	return len(p.BannerColors) == 3
}
