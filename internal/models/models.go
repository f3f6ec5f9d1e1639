package models

import (
	"encoding/json"
	"time"
)

type SettingsDocument struct {
	Key       string          `db:"key" json:"key"`
	Value     json.RawMessage `db:"value" json:"value"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

type BookingInquiry struct {
	ID          string        `db:"id" json:"id"`
	Name        string        `db:"name" json:"name"`
	Email       string        `db:"email" json:"email"`
	Phone       string        `db:"phone" json:"phone"`
	Guests      int           `db:"guests" json:"guests"`
	PackageSlug string        `db:"package_slug" json:"packageSlug"`
	TravelDate  time.Time     `db:"travel_date" json:"travelDate"`
	Message     string        `db:"message" json:"message"`
	Status      BookingStatus `db:"status" json:"status"`
	AdminNotes  string        `db:"admin_notes" json:"adminNotes"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`
}

type BlogPost struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description"`
	Image       string    `db:"image" json:"image"`
	Content     string    `db:"content" json:"content"`
	Published   bool      `db:"published" json:"published"`
	IsFeatured  bool      `db:"is_featured" json:"isFeatured"`
	Author      string    `db:"author" json:"author"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type GalleryItem struct {
	ID        string    `db:"id" json:"id"`
	URL       string    `db:"url" json:"url"`
	FileID    string    `db:"file_id" json:"fileId"`
	Title     string    `db:"title" json:"title"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type SubscriberStatus string

const (
	Subscribed   SubscriberStatus = "subscribed"
	Unsubscribed SubscriberStatus = "unsubscribed"
)

type NewsletterSubscriber struct {
	ID        string           `db:"id" json:"id"`
	Email     string           `db:"email" json:"email"`
	Status    SubscriberStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time        `db:"updated_at" json:"updatedAt"`
}

type TourPackage struct {
	ID           string        `json:"id"`
	Slug         string        `json:"slug"`
	Title        string        `json:"title"`
	Summary      string        `json:"summary"`
	DurationDays int           `json:"durationDays"`
	PriceFrom    float64       `json:"priceFrom"`
	Image        string        `json:"image"`
	Highlights   []string      `json:"highlights"`
	Timeline     []TimelineDay `json:"timeline"`
	Published    bool          `json:"published"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

type TimelineDay struct {
	Day        int        `json:"day"`
	Title      string     `json:"title"`
	Activities []Activity `json:"activities"`
}

type Activity struct {
	Time        string `json:"time"`
	Description string `json:"description"`
}
