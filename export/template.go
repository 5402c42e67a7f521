package export

import (
	"html/template"
	"strings"
)

var pageTemplate = template.Must(template.New("proposal").Funcs(template.FuncMap{
	"url":  func(s string) template.URL { return template.URL(s) },
	"text": escapeText,
}).Parse(pageHTML))

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escapeText escapes a value for an element body. Quotes are left alone
// since every call site is outside attributes.
func escapeText(s string) template.HTML {
	return template.HTML(textEscaper.Replace(s))
}

const pageHTML = `<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Doc.Title}}</title>
<style>
:root{--primary:{{.Theme}};--ink:#1d2a33;--muted:#5f6f7a;--paper:#ffffff;--soft:#f4f7f9}
{{.OverlayCSS}}
*{box-sizing:border-box}
body{margin:0;background:var(--soft);color:var(--color-text,var(--ink));font-family:var(--font-body,Helvetica,Arial,sans-serif);font-size:var(--font-size,15px);line-height:1.55}
.sheet{max-width:960px;margin:0 auto;background:var(--color-background,var(--paper))}
h1,h2,h3{font-family:var(--font-heading,Georgia,serif);color:var(--color-primary,var(--primary));margin:0 0 .5em}
section{padding:32px 48px;border-bottom:1px solid #e3e9ee}
.cover{position:relative;color:#fff;background:var(--color-primary,var(--primary));padding:64px 48px}
.cover img{position:absolute;inset:0;width:100%;height:100%;object-fit:cover;opacity:.35}
.cover .inner{position:relative}
.cover h1{color:#fff;font-size:2.4em}
.cover .meta{opacity:.9}
.timeline{list-style:none;margin:0;padding:0 0 0 24px;border-left:3px solid var(--color-primary,var(--primary))}
.timeline li{position:relative;margin:0 0 24px;padding-left:16px}
.timeline li:before{content:"";position:absolute;left:-33px;top:4px;width:14px;height:14px;border-radius:50%;background:var(--color-primary,var(--primary));border:3px solid #fff}
.day-head{font-weight:bold;color:var(--color-primary,var(--primary))}
.day-program{white-space:pre-line;margin:.25em 0}
.day-night{color:var(--muted);font-size:.9em}
.narrative p{margin:0 0 .8em}
.panels{display:grid;grid-template-columns:1fr 1fr;gap:24px}
.panel{background:var(--soft);border-radius:8px;padding:20px}
.panel ul{margin:0;padding-left:20px}
.panel.included h3{color:#2e7d32}
.panel.excluded h3{color:#c62828}
.hotels{display:grid;grid-template-columns:repeat(auto-fill,minmax(260px,1fr));gap:20px}
.hotel{border:1px solid #e3e9ee;border-radius:8px;overflow:hidden}
.hotel img{width:100%;height:160px;object-fit:cover;display:block}
.hotel .body{padding:14px}
.hotel .night{color:var(--muted);font-size:.9em}
.pricing .box{background:var(--color-primary,var(--primary));color:#fff;border-radius:8px;padding:24px;text-align:center}
.pricing .price{font-size:2em;font-weight:bold}
.pricing .details{white-space:pre-line;margin-top:8px}
.pricing .note{font-size:.85em;opacity:.85;margin-top:8px}
.notes{white-space:pre-line}
footer{padding:24px 48px;color:var(--muted);font-size:.85em;text-align:center}
@media print{body{background:#fff}section{break-inside:avoid}}
</style>
</head>
<body>
<div class="sheet">
{{- if .Show "cover"}}
<header class="cover">
{{- if .Cover}}<img src="{{.Cover}}" alt="">{{end}}
<div class="inner">
{{- if .Doc.Title}}<h1>{{text .Doc.Title}}</h1>{{end}}
{{- if .Doc.Subtitle}}<p class="subtitle">{{text .Doc.Subtitle}}</p>{{end}}
<p class="meta">
{{- if .Doc.Destination}}<span class="destination">{{text .Doc.Destination}}</span>{{end}}
{{- if .Doc.TravelDates}} <span class="dates">{{text .Doc.TravelDates}}</span>{{end}}
{{- if .Doc.Travelers}} <span class="travelers">{{text .Doc.Travelers}}</span>{{end}}
</p>
</div>
</header>
{{- end}}
{{- if and (.Show "intro") .Doc.IntroText}}
<section class="intro"><p>{{text .Doc.IntroText}}</p></section>
{{- end}}
{{- if and (.Show "itinerary") .Doc.Itinerary}}
<section class="itinerary">
<h2>{{text .Doc.ItineraryHeading}}</h2>
<ol class="timeline">
{{- range .Doc.Itinerary}}
<li>
<div class="day-head">{{text .Day}}{{if .Date}} • {{text .Date}}{{end}}</div>
{{- if .Program}}
<p class="day-program">{{text .Program}}</p>
{{- end}}
{{- if .NightAt}}
<div class="day-night">Nuit à {{text .NightAt}}{{if .Hotel}} • {{text .Hotel}}{{end}}</div>
{{- else if .Hotel}}
<div class="day-night">{{text .Hotel}}</div>
{{- end}}
</li>
{{- end}}
</ol>
</section>
{{- end}}
{{- if and (.Show "program") .Narrative}}
<section class="program">
<h2>{{text .Doc.ProgramHeading}}</h2>
<div class="narrative">{{.Narrative}}</div>
</section>
{{- end}}
{{- if and (.Show "services") (or .Included .Excluded)}}
<section class="services">
<div class="panels">
{{- if .Included}}
<div class="panel included">
<h3>{{text .Doc.IncludedHeading}}</h3>
<ul>
{{- range .Included}}
<li>{{text .}}</li>
{{- end}}
</ul>
</div>
{{- end}}
{{- if .Excluded}}
<div class="panel excluded">
<h3>{{text .Doc.ExcludedHeading}}</h3>
<ul>
{{- range .Excluded}}
<li>{{text .}}</li>
{{- end}}
</ul>
</div>
{{- end}}
</div>
</section>
{{- end}}
{{- if and (.Show "hotels") .Hotels}}
<section class="accommodations">
<h2>{{text .Doc.HotelsHeading}}</h2>
<div class="hotels">
{{- range .Hotels}}
<div class="hotel">
{{- range .Images}}<img src="{{url .}}" alt="">{{end}}
<div class="body">
<h3>{{text .Name}}</h3>
{{- if .NightAt}}<div class="night">Nuit à {{text .NightAt}}</div>{{end}}
{{- if .Description}}<p>{{text .Description}}</p>{{end}}
</div>
</div>
{{- end}}
</div>
</section>
{{- end}}
{{- if and (.Show "pricing") .HasPricing}}
<section class="pricing">
<h2>{{text .Doc.PricingHeading}}</h2>
<div class="box">
{{- if .Doc.Price}}<div class="price">{{text .Doc.Price}}</div>{{end}}
{{- if .Doc.PriceDetails}}<div class="details">{{text .Doc.PriceDetails}}</div>{{end}}
{{- if .Doc.PriceNote}}<div class="note">{{text .Doc.PriceNote}}</div>{{end}}
</div>
</section>
{{- end}}
{{- if and (.Show "notes") .Doc.Notes}}
<section class="notes-section">
<h2>{{text .Doc.NotesHeading}}</h2>
<div class="notes">{{text .Doc.Notes}}</div>
</section>
{{- end}}
{{- if and (.Show "footer") .HasFooter}}
<footer>
{{- if .Doc.AgencyName}}<strong>{{text .Doc.AgencyName}}</strong>{{end}}
{{- if .Doc.Contact}} <span class="contact">{{text .Doc.Contact}}</span>{{end}}
{{- if .Doc.FooterText}}<p>{{text .Doc.FooterText}}</p>{{end}}
</footer>
{{- end}}
</div>
</body>
</html>
`
