package screen

// pageTemplateString 是完整预览页面的 HTML 模板。
// 同一份页面也交给 Chromium 打印，所以 @page 固定为 US Letter。
const pageTemplateString = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
        @page { size: Letter; margin: 0; }
        * { box-sizing: border-box; }
        body { margin: 0; font-family: Helvetica, Arial, sans-serif; color: #003049; background: #ffffff; }
        .resume { width: 8.5in; min-height: 11in; font-size: 9pt; line-height: 1.25; }
        .resume.modern { display: flex; }
        .resume.modern .region-sidebar { width: 33%; padding: 0.2in 0.15in; }
        .resume.modern .region-main { width: 67%; padding: 0.2in; }
        .resume.classic { padding: 0.5in; }
        .resume.classic header { text-align: center; }
        .resume.classic .contacts span + span::before { content: " | "; }
        header h1 { margin: 0 0 2pt; font-size: 18pt; }
        header .title { margin: 0 0 8pt; font-size: 11pt; }
        .resume.modern header { text-align: center; }
        .contact { margin-bottom: 3pt; }
        .contact .label { display: block; font-size: 8pt; font-weight: bold; }
        .links a { margin: 0 3pt; font-weight: bold; }
        section { margin-bottom: 8pt; }
        section h2 { font-size: 12pt; margin: 0 0 4pt; padding-bottom: 2pt; border-bottom: 1px solid; }
        .entry { margin-bottom: 6pt; }
        .entry-head { display: flex; justify-content: space-between; }
        .entry-title { font-weight: bold; font-size: 10pt; }
        .entry-dates { font-style: italic; font-size: 8pt; color: #669bbc; }
        .entry-subtitle, .entry-note { font-size: 9pt; color: #669bbc; }
        .entry ul, section ul.items { margin: 2pt 0 0; padding-left: 12pt; font-size: 8pt; }
        .tags { display: flex; flex-wrap: wrap; gap: 2pt; }
        .tag { padding: 1pt 4pt; border-radius: 3pt; font-size: 7pt; }
        .summary p { margin: 0; font-style: italic; }
        a { text-decoration: none; }
    </style>
</head>
<body>
{{.Body}}
</body>
</html>`

// partialsTemplateString 定义各个片段；Go 代码负责按版面树的顺序调用它们。
const partialsTemplateString = `
{{define "header"}}<header>
    <h1 style="color: {{.Accent}}">{{.Header.Name}}</h1>
    <p class="title">{{.Header.Title}}</p>
    {{- if eq .Variant "classic"}}
    <p class="contacts">{{range .Header.Contacts}}<span>{{.Value}}</span>{{end}}</p>
    {{- else}}
    {{range .Header.Contacts}}<div class="contact"><span class="label" style="color: {{$.Accent}}">{{.Label}}</span><span>{{.Value}}</span></div>
    {{end}}
    {{- end}}
    {{- if .Header.Links}}
    <p class="links">{{range .Header.Links}}<a href="{{.URL}}" target="_blank" rel="noopener noreferrer" style="color: {{$.Accent}}">{{.Label}}</a>{{end}}</p>
    {{- end}}
</header>
{{end}}

{{define "summary"}}<section class="summary">
    <h2 style="color: {{.Accent}}; border-color: {{.Accent}}">{{.Summary.Heading}}</h2>
    <p>{{.Summary.Text}}</p>
</section>
{{end}}

{{define "section"}}<section data-section="{{.Section.Key}}">
    <h2 style="color: {{.Accent}}; border-color: {{.Accent}}">{{.Section.Heading}}</h2>
    {{- if eq .Section.Kind "tags"}}
    <div class="tags">{{range .Section.Items}}<span class="tag" style="background: {{$.Tint}}">{{.}}</span>{{end}}</div>
    {{- else if eq .Section.Kind "list"}}
    <ul class="items">{{range .Section.Items}}<li>{{.}}</li>{{end}}</ul>
    {{- else}}
    {{range .Section.Entries}}<div class="entry" data-entry="{{.ID}}">
        <div class="entry-head">
            <span class="entry-title">{{.Title}}</span>
            {{- if .Dates}}<span class="entry-dates">{{.Dates}}</span>{{end}}
            {{- if .Link}}<a class="entry-link" href="{{.Link.URL}}" target="_blank" rel="noopener noreferrer" style="color: {{$.Accent}}">{{.Link.Text}}</a>{{end}}
        </div>
        {{- if .Subtitle}}
        <div class="entry-subtitle" style="color: {{$.Accent}}">{{.Subtitle}}</div>
        {{- end}}
        {{- if .Note}}
        <div class="entry-note">{{.Note}}</div>
        {{- end}}
        {{- if .Bullets}}
        <ul>{{range .Bullets}}<li>{{.}}</li>{{end}}</ul>
        {{- end}}
    </div>
    {{end}}
    {{- end}}
</section>
{{end}}
`
