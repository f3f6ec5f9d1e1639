package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"toursite-backend-go/internal/models"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^(\+977)?\d{7,10}$`)
	timeRegex  = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
)

// now is replaced in tests.
var now = time.Now

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates field errors so a caller can report all of them at once.
type Validator struct {
	errs []FieldError
}

func (v *Validator) Add(field, message string) {
	v.errs = append(v.errs, FieldError{Field: field, Message: message})
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.Add(field, message)
	}
}

func (v *Validator) Required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "is required")
		return false
	}
	return true
}

func (v *Validator) MinItems(field string, count, min int) {
	if count < min {
		v.Add(field, fmt.Sprintf("must contain at least %d item(s)", min))
	}
}

func (v *Validator) Email(field, value string) {
	if !v.Required(field, value) {
		return
	}
	if !emailRegex.MatchString(strings.TrimSpace(value)) {
		v.Add(field, "must be a valid email address")
	}
}

func (v *Validator) Phone(field, value string) {
	if !v.Required(field, value) {
		return
	}
	if !phoneRegex.MatchString(NormalizePhone(value)) {
		v.Add(field, "must be a valid phone number")
	}
}

// URL checks an absolute http(s) URL. Empty values pass; pair with Required.
func (v *Validator) URL(field, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	if !isHTTPURL(value) {
		v.Add(field, "must be a valid http(s) URL")
	}
}

// Link accepts an absolute http(s) URL or a site-relative path.
func (v *Validator) Link(field, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	if strings.HasPrefix(value, "/") && !strings.HasPrefix(value, "//") {
		return
	}
	if !isHTTPURL(value) {
		v.Add(field, "must be a URL or a path starting with /")
	}
}

// Image requires a hosted image URL or a path served by this site. Inline
// payloads must have been uploaded before validation runs.
func (v *Validator) Image(field, value string) {
	if !v.Required(field, value) {
		return
	}
	if IsInlineImage(value) {
		v.Add(field, "image was not uploaded")
		return
	}
	v.Link(field, value)
}

// TimeOfDay checks HH:MM on a five minute grid and returns minutes since midnight.
func (v *Validator) TimeOfDay(field, value string) (int, bool) {
	if !v.Required(field, value) {
		return 0, false
	}
	m := timeRegex.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		v.Add(field, "must be a time in HH:MM format")
		return 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	if minutes%5 != 0 {
		v.Add(field, "minutes must be a multiple of 5")
		return 0, false
	}
	return hours*60 + minutes, true
}

func (v *Validator) Errors() []FieldError {
	return v.errs
}

func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return ErrValidation(v.errs)
}

func NormalizePhone(value string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
	return replacer.Replace(strings.TrimSpace(value))
}

func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isHTTPURL(value string) bool {
	parsed, err := url.ParseRequestURI(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func indexed(field string, i int, sub string) string {
	return fmt.Sprintf("%s[%d].%s", field, i, sub)
}

func ValidateAboutPage(p models.AboutPage) error {
	v := &Validator{}
	v.Required("heroTitle", p.HeroTitle)
	v.Required("heroSubtitle", p.HeroSubtitle)
	v.Image("heroImage", p.HeroImage)
	v.Required("storyTitle", p.StoryTitle)
	v.Required("storyContent", p.StoryContent)
	if p.StoryImage != "" {
		v.Image("storyImage", p.StoryImage)
	}
	v.MinItems("values", len(p.Values), 1)
	for i, item := range p.Values {
		v.Required(indexed("values", i, "title"), item.Title)
		v.Required(indexed("values", i, "description"), item.Description)
	}
	for i, member := range p.Team {
		v.Required(indexed("team", i, "name"), member.Name)
		v.Required(indexed("team", i, "role"), member.Role)
		if member.Image != "" {
			v.Image(indexed("team", i, "image"), member.Image)
		}
	}
	for i, stat := range p.Stats {
		v.Required(indexed("stats", i, "label"), stat.Label)
		v.Required(indexed("stats", i, "value"), stat.Value)
	}
	return v.Err()
}

func ValidateContactPage(p models.ContactPage) error {
	v := &Validator{}
	v.Required("heroTitle", p.HeroTitle)
	v.Required("heroSubtitle", p.HeroSubtitle)
	if p.HeroImage != "" {
		v.Image("heroImage", p.HeroImage)
	}
	v.Required("address", p.Address)
	v.MinItems("emails", len(p.Emails), 1)
	for i, email := range p.Emails {
		v.Email(fmt.Sprintf("emails[%d]", i), email)
	}
	v.MinItems("phones", len(p.Phones), 1)
	for i, phone := range p.Phones {
		v.Phone(fmt.Sprintf("phones[%d]", i), phone)
	}
	for i, hours := range p.OfficeHours {
		v.Required(indexed("officeHours", i, "day"), hours.Day)
		open, okOpen := v.TimeOfDay(indexed("officeHours", i, "open"), hours.Open)
		closing, okClose := v.TimeOfDay(indexed("officeHours", i, "close"), hours.Close)
		if okOpen && okClose {
			v.Check(closing > open, indexed("officeHours", i, "close"), "must be after the opening time")
		}
	}
	v.URL("mapEmbedUrl", p.MapEmbedURL)
	for i, social := range p.Socials {
		v.Required(indexed("socials", i, "platform"), social.Platform)
		if v.Required(indexed("socials", i, "url"), social.URL) {
			v.URL(indexed("socials", i, "url"), social.URL)
		}
	}
	v.MinItems("faqs", len(p.FAQs), 1)
	for i, faq := range p.FAQs {
		v.Required(indexed("faqs", i, "question"), faq.Question)
		v.Required(indexed("faqs", i, "answer"), faq.Answer)
	}
	return v.Err()
}

func ValidateHomePage(p models.HomePage) error {
	v := &Validator{}
	v.MinItems("heroSlides", len(p.HeroSlides), 1)
	for i, slide := range p.HeroSlides {
		v.Required(indexed("heroSlides", i, "title"), slide.Title)
		v.Image(indexed("heroSlides", i, "image"), slide.Image)
		v.Check(slide.CTALabel == "" || slide.CTALink != "", indexed("heroSlides", i, "ctaLink"), "is required when a button label is set")
		v.Link(indexed("heroSlides", i, "ctaLink"), slide.CTALink)
	}
	seen := map[string]bool{}
	for i, slug := range p.FeaturedPackages {
		field := fmt.Sprintf("featuredPackages[%d]", i)
		if v.Required(field, slug) {
			v.Check(!seen[slug], field, "is listed more than once")
			seen[slug] = true
		}
	}
	for i, item := range p.WhyChooseUs {
		v.Required(indexed("whyChooseUs", i, "title"), item.Title)
		v.Required(indexed("whyChooseUs", i, "description"), item.Description)
	}
	for i, t := range p.Testimonials {
		v.Required(indexed("testimonials", i, "name"), t.Name)
		v.Required(indexed("testimonials", i, "quote"), t.Quote)
		v.Check(t.Rating >= 1 && t.Rating <= 5, indexed("testimonials", i, "rating"), "must be between 1 and 5")
	}
	for i, stat := range p.Stats {
		v.Required(indexed("stats", i, "label"), stat.Label)
		v.Required(indexed("stats", i, "value"), stat.Value)
	}
	return v.Err()
}

func ValidatePackage(p models.TourPackage) error {
	v := &Validator{}
	v.Required("title", p.Title)
	v.Required("summary", p.Summary)
	v.Check(p.DurationDays >= 1, "durationDays", "must be at least 1")
	v.Check(p.PriceFrom >= 0, "priceFrom", "must not be negative")
	if p.Image != "" {
		v.Image("image", p.Image)
	}
	for i, h := range p.Highlights {
		v.Required(fmt.Sprintf("highlights[%d]", i), h)
	}
	v.MinItems("timeline", len(p.Timeline), 1)
	v.Check(p.DurationDays < 1 || len(p.Timeline) <= p.DurationDays, "timeline", "has more days than the package duration")
	for i, day := range p.Timeline {
		v.Check(day.Day == i+1, indexed("timeline", i, "day"), fmt.Sprintf("must be %d", i+1))
		v.Required(indexed("timeline", i, "title"), day.Title)
		activities := fmt.Sprintf("timeline[%d].activities", i)
		v.MinItems(activities, len(day.Activities), 1)
		last := -1
		for j, act := range day.Activities {
			minutes, ok := v.TimeOfDay(indexed(activities, j, "time"), act.Time)
			if ok {
				v.Check(minutes > last, indexed(activities, j, "time"), "must be later than the previous activity")
				last = minutes
			}
			v.Required(indexed(activities, j, "description"), act.Description)
		}
	}
	return v.Err()
}

type BookingRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Guests      int    `json:"guests"`
	PackageSlug string `json:"packageSlug"`
	TravelDate  string `json:"travelDate"`
	Message     string `json:"message"`
}

// ValidateBooking checks a public inquiry and returns the parsed travel date.
func ValidateBooking(req BookingRequest) (time.Time, error) {
	v := &Validator{}
	v.Required("name", req.Name)
	v.Email("email", req.Email)
	v.Phone("phone", req.Phone)
	v.Check(req.Guests >= 1 && req.Guests <= 50, "guests", "must be between 1 and 50")
	v.Required("packageSlug", req.PackageSlug)
	v.Check(len(req.Message) <= 2000, "message", "must be at most 2000 characters")
	var date time.Time
	if v.Required("travelDate", req.TravelDate) {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(req.TravelDate))
		if err != nil {
			v.Add("travelDate", "must be a date in YYYY-MM-DD format")
		} else {
			today := now().UTC().Truncate(24 * time.Hour)
			v.Check(!parsed.Before(today), "travelDate", "must not be in the past")
			date = parsed
		}
	}
	return date, v.Err()
}

func ValidateBlogPost(p models.BlogPost) error {
	v := &Validator{}
	v.Required("title", p.Title)
	v.Required("description", p.Description)
	v.Required("content", p.Content)
	if p.Image != "" {
		v.Image("image", p.Image)
	}
	v.Check(!p.IsFeatured || p.Published, "isFeatured", "only published posts can be featured")
	return v.Err()
}

func ValidateNewsletterEmail(email string) error {
	v := &Validator{}
	v.Email("email", email)
	return v.Err()
}

func ValidateGalleryItem(item models.GalleryItem) error {
	v := &Validator{}
	v.Image("url", item.URL)
	v.Required("title", item.Title)
	v.Required("category", item.Category)
	v.Check(!strings.EqualFold(strings.TrimSpace(item.Category), "all"), "category", "is reserved")
	return v.Err()
}
