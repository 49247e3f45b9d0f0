package news

// Item is a single syndication-feed entry. Published keeps the source's
// original string format (RFC1123-ish for RSS pubDate); the frontend
// formats it, we never re-parse it.
type Item struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Published   string `json:"published"`
	Description string `json:"description"`
}
