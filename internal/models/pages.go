package models

// Settings keys. Each key maps to exactly one document type below.
const (
	AboutPageKey   = "about-page"
	ContactPageKey = "contact_page_settings"
	HomePageKey    = "home_page_settings"
)

type AboutPage struct {
	HeroTitle    string       `json:"heroTitle"`
	HeroSubtitle string       `json:"heroSubtitle"`
	HeroImage    string       `json:"heroImage"`
	StoryTitle   string       `json:"storyTitle"`
	StoryContent string       `json:"storyContent"`
	StoryImage   string       `json:"storyImage"`
	Mission      string       `json:"mission"`
	Vision       string       `json:"vision"`
	Values       []ValueItem  `json:"values"`
	Team         []TeamMember `json:"team"`
	Stats        []Stat       `json:"stats"`
}

type ValueItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type TeamMember struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Image string `json:"image"`
	Bio   string `json:"bio"`
}

type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type ContactPage struct {
	HeroTitle    string        `json:"heroTitle"`
	HeroSubtitle string        `json:"heroSubtitle"`
	HeroImage    string        `json:"heroImage"`
	Address      string        `json:"address"`
	Emails       []string      `json:"emails"`
	Phones       []string      `json:"phones"`
	OfficeHours  []OfficeHours `json:"officeHours"`
	MapEmbedURL  string        `json:"mapEmbedUrl"`
	Socials      []SocialLink  `json:"socials"`
	FAQs         []FAQ         `json:"faqs"`
}

type OfficeHours struct {
	Day   string `json:"day"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type HomePage struct {
	HeroSlides       []HeroSlide   `json:"heroSlides"`
	FeaturedPackages []string      `json:"featuredPackages"`
	WhyChooseUs      []ValueItem   `json:"whyChooseUs"`
	Testimonials     []Testimonial `json:"testimonials"`
	Stats            []Stat        `json:"stats"`
}

type HeroSlide struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Image    string `json:"image"`
	CTALabel string `json:"ctaLabel"`
	CTALink  string `json:"ctaLink"`
}

type Testimonial struct {
	Name   string `json:"name"`
	Quote  string `json:"quote"`
	Rating int    `json:"rating"`
}
