// Package catalog holds the static API marketplace offerings.
package catalog

import (
	"github.com/hackfund/server/internal/domain"
)

// Item is a purchasable marketplace offering. Immutable for the process
// lifetime.
type Item struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Price       domain.Cents `json:"price"`
	Description string       `json:"description"`
	Icon        string       `json:"icon"`
}

var items = []Item{
	{ID: 1, Name: "SixtyFour API", Price: 3500, Description: "Get your SixtyFour API key for agentic research", Icon: "🚀"},
	{ID: 2, Name: "OpenAI API", Price: 2000, Description: "Access to GPT-5 and other AI models", Icon: "🤖"},
	{ID: 3, Name: "HuggingFace API", Price: 1500, Description: "HuggingFace inference API", Icon: "🤗"},
	{ID: 4, Name: "AWS Credits", Price: 5000, Description: "AWS cloud computing credits", Icon: "☁️"},
	{ID: 5, Name: "Google Cloud", Price: 3000, Description: "Google Cloud Platform credits", Icon: "🌐"},
	{ID: 6, Name: "Stripe API", Price: 2500, Description: "Payment processing API", Icon: "💳"},
	{ID: 7, Name: "Twilio API", Price: 2000, Description: "Communication API services", Icon: "📱"},
	{ID: 8, Name: "Azure Credits", Price: 4000, Description: "Microsoft Azure cloud services", Icon: "☁️"},
	{ID: 9, Name: "Firebase", Price: 1800, Description: "Google's mobile and web app platform", Icon: "🔥"},
	{ID: 10, Name: "MongoDB Atlas", Price: 2200, Description: "Cloud database service", Icon: "🍃"},
	{ID: 11, Name: "SendGrid", Price: 1600, Description: "Email delivery service", Icon: "📧"},
	{ID: 12, Name: "Apify API", Price: 2800, Description: "Powerful web scraping and automation API", Icon: "🔍"},
}

// Items returns the full marketplace listing. The returned slice is a copy;
// callers cannot mutate the catalog.
func Items() []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// ByID returns the item with the given ID, or false if none exists.
func ByID(id int) (Item, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// SponsorNames returns the catalog item names, used by the admin hackathon
// form's sponsor multi-select.
func SponsorNames() []string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return names
}
