package scraper

// consentSelectors match the "accept" button of the search engine's
// cookie-consent interstitial, most specific first.
var consentSelectors = []string{
	`button#L2AGLb`,
	`button[jsname='higCR']`,
	`button[aria-label*='Agree']`,
	`button[aria-label*='agree']`,
	`button[aria-label*='Accept all']`,
	`form[action*='consent'] button`,
}
