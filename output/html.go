package output

import (
	"fmt"
	"html/template"
	"os"
	"strconv"
	"strings"

	"ythelper/enrich"
)

// DefaultHTMLTitle is used when the caller supplies no page title.
const DefaultHTMLTitle = "YouTube Playlist"

// formatCount renders a counter with thousands separators for display.
func formatCount(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

var playlistTemplate = template.Must(template.New("playlist").
	Funcs(template.FuncMap{"formatCount": formatCount}).
	Parse(playlistHTML))

type htmlData struct {
	Title  string
	Result *enrich.Result
}

// WriteHTML renders the enrichment result as a standalone HTML page.
// An empty title falls back to DefaultHTMLTitle.
func WriteHTML(path, title string, res *enrich.Result) error {
	if title == "" {
		title = DefaultHTMLTitle
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create html file: %w", err)
	}

	if err := playlistTemplate.Execute(f, htmlData{Title: title, Result: res}); err != nil {
		f.Close()
		return fmt.Errorf("render html: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write html file: %w", err)
	}
	return nil
}

const playlistHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 0; background: #f5f5f5; color: #1a1a1a; }
header { background: #fff; border-bottom: 1px solid #ddd; padding: 1.5rem 2rem; }
header h1 { margin: 0 0 .25rem; font-size: 1.5rem; }
header .meta { margin: 0; color: #666; font-size: .9rem; }
main { max-width: 960px; margin: 0 auto; padding: 1.5rem; }
article.video { display: flex; gap: 1rem; background: #fff; border: 1px solid #e0e0e0; border-radius: 8px; padding: 1rem; margin-bottom: 1rem; }
article.video img { width: 120px; height: 90px; object-fit: cover; border-radius: 4px; flex-shrink: 0; }
article.video h2 { margin: 0 0 .25rem; font-size: 1.05rem; }
article.video h2 a { color: #1a1a1a; text-decoration: none; }
article.video h2 a:hover { text-decoration: underline; }
.channel { margin: 0 0 .25rem; font-size: .85rem; }
.channel a { color: #065fd4; text-decoration: none; }
.stats, .added { margin: 0; color: #666; font-size: .85rem; }
.tags { margin-top: .4rem; }
.tag { display: inline-block; background: #eef2ff; color: #3949ab; border-radius: 10px; padding: .1rem .55rem; margin-right: .3rem; font-size: .75rem; }
article.failed { border-left: 4px solid #d93025; }
.error { margin: 0; color: #d93025; font-size: .85rem; }
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
<p class="meta">{{len .Result.Videos}} videos &middot; {{len .Result.Channels}} channels &middot; enriched {{.Result.EnrichedAt.Format "2006-01-02 15:04"}} UTC</p>
</header>
<main>
{{$channels := .Result.Channels}}
{{range .Result.Videos}}
{{if .Metadata}}
<article class="video">
{{with .Metadata.ThumbnailURL}}<img src="{{.}}" alt="">{{end}}
<div>
<h2><a href="{{.Metadata.WatchURL}}">{{.Metadata.Title}}</a></h2>
{{with index $channels .Metadata.ChannelID}}<p class="channel"><a href="{{.URL}}">{{.Title}}</a>{{if .SubscriberCount}} &middot; {{formatCount .SubscriberCount}} subscribers{{end}}</p>{{end}}
<p class="stats">{{formatCount .Metadata.Statistics.ViewCount}} views &middot; {{formatCount .Metadata.Statistics.LikeCount}} likes</p>
{{with .AddedAt}}<p class="added">added {{.}}</p>{{end}}
{{with .Playlists}}<div class="tags">{{range .}}<span class="tag">{{.}}</span>{{end}}</div>{{end}}
</div>
</article>
{{else}}
<article class="video failed">
<div>
<h2><a href="https://www.youtube.com/watch?v={{.VideoID}}">{{.VideoID}}</a></h2>
<p class="error">{{.Error}}</p>
</div>
</article>
{{end}}
{{end}}
</main>
</body>
</html>
`
