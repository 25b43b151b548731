package poller

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/samvad-httpclient/pkg/endpoints"
	"github.com/samvad-hq/samvad-httpclient/pkg/httpclient"
)

// DefaultExtractors returns the extractors keyed by endpoint response format.
func DefaultExtractors() map[string]Extractor {
	return map[string]Extractor{
		endpoints.FormatJSON: ExtractorFunc(extractJSON),
		endpoints.FormatHTML: ExtractorFunc(extractHTML),
		endpoints.FormatText: ExtractorFunc(extractText),
	}
}

// extractJSON resolves each extract entry as a gjson path. Missing paths are skipped.
func extractJSON(ep endpoints.Endpoint, resp *httpclient.Response) (map[string]any, error) {
	col, err := resp.ToCollection()
	if err != nil {
		return nil, err
	}
	if len(ep.Extract) == 0 {
		return nil, nil
	}

	fields := make(map[string]any, len(ep.Extract))
	for name, path := range ep.Extract {
		if v := col.Get(path); v.Exists() {
			fields[name] = v.Value()
		}
	}
	return fields, nil
}

// extractHTML resolves each extract entry as a CSS selector; "selector@attr" reads an attribute instead
// of the text. Without extract entries the page's Open Graph metadata is used.
func extractHTML(ep endpoints.Endpoint, resp *httpclient.Response) (map[string]any, error) {
	doc, err := resp.ToDocument()
	if err != nil {
		return nil, err
	}
	if len(ep.Extract) == 0 {
		return pageMeta(doc), nil
	}

	fields := make(map[string]any, len(ep.Extract))
	for name, sel := range ep.Extract {
		if v := selectValue(doc, sel); v != "" {
			fields[name] = v
		}
	}
	return fields, nil
}

func extractText(endpoints.Endpoint, *httpclient.Response) (map[string]any, error) {
	return nil, nil
}

func selectValue(doc *goquery.Document, sel string) string {
	sel, attr, hasAttr := strings.Cut(sel, "@")
	node := doc.Find(strings.TrimSpace(sel)).First()
	if node.Length() == 0 {
		return ""
	}
	if hasAttr {
		val, _ := node.Attr(strings.TrimSpace(attr))
		return strings.TrimSpace(val)
	}
	return strings.TrimSpace(node.Text())
}

func pageMeta(doc *goquery.Document) map[string]any {
	content := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	fields := make(map[string]any, 3)
	if v := firstNonEmpty(content(`meta[property="og:title"]`), doc.Find("title").First().Text()); v != "" {
		fields["title"] = v
	}
	if v := firstNonEmpty(content(`meta[property="og:description"]`), content(`meta[name="description"]`)); v != "" {
		fields["description"] = v
	}
	if v := content(`meta[property="og:image"]`); v != "" {
		fields["image"] = v
	}
	return fields
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func extractorFor(extractors map[string]Extractor, format string) (Extractor, error) {
	ex, ok := extractors[strings.ToLower(strings.TrimSpace(format))]
	if !ok || ex == nil {
		return nil, fmt.Errorf("no extractor registered for response format %q", format)
	}
	return ex, nil
}
