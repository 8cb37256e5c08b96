package page

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// 略過的圖片（網站標誌、圖示、追蹤像素）
var imageNoise = []string{"logo", "icon", "sprite", "pixel", "avatar", "badge", "spinner", "placeholder"}

// document 單次走訪 HTML 樹所收集的候選資料
type document struct {
	ogImage      string
	twitterImage string
	linkImage    string
	ldJSON       []string
	imgs         []string
	title        string
	text         []string
}

// ExtractBestImage 從頁面 HTML 找出最具代表性的圖片網址，找不到時回傳空字串。
// 優先序：og:image、twitter:image、JSON-LD Recipe 的 image、link rel=image_src、第一張合理的 img。
// 相對網址以 baseURL 解析為絕對網址。
func ExtractBestImage(htmlDoc, baseURL string) string {
	doc := parseDocument(htmlDoc)
	if doc == nil {
		return ""
	}

	candidates := []string{doc.ogImage, doc.twitterImage}
	for _, block := range doc.ldJSON {
		candidates = append(candidates, recipeImageFromLD(block))
	}
	candidates = append(candidates, doc.linkImage)
	candidates = append(candidates, doc.imgs...)

	for _, c := range candidates {
		if abs := resolveURL(baseURL, c); abs != "" {
			return abs
		}
	}
	return ""
}

// ExtractText 取出頁面標題、JSON-LD Recipe 區塊與可見文字，供轉換器閱讀
func ExtractText(htmlDoc string) string {
	doc := parseDocument(htmlDoc)
	if doc == nil {
		return ""
	}

	var b strings.Builder
	if doc.title != "" {
		b.WriteString(doc.title)
		b.WriteString("\n")
	}
	for _, block := range doc.ldJSON {
		if isRecipeLD(block) {
			b.WriteString(strings.Join(strings.Fields(block), " "))
			b.WriteString("\n")
		}
	}
	b.WriteString(strings.Join(doc.text, "\n"))
	return strings.TrimSpace(b.String())
}

func parseDocument(htmlDoc string) *document {
	root, err := html.Parse(strings.NewReader(htmlDoc))
	if err != nil {
		return nil
	}

	doc := &document{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Meta:
				doc.collectMeta(n)
			case atom.Link:
				if strings.EqualFold(attr(n, "rel"), "image_src") && doc.linkImage == "" {
					doc.linkImage = attr(n, "href")
				}
			case atom.Img:
				if src := imgSource(n); src != "" {
					doc.imgs = append(doc.imgs, src)
				}
			case atom.Title:
				if n.FirstChild != nil && doc.title == "" {
					doc.title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			case atom.Script:
				if strings.EqualFold(attr(n, "type"), "application/ld+json") && n.FirstChild != nil {
					doc.ldJSON = append(doc.ldJSON, n.FirstChild.Data)
				}
				return
			case atom.Style, atom.Noscript, atom.Svg, atom.Iframe, atom.Template:
				return
			}
		}

		if n.Type == html.TextNode {
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				doc.text = append(doc.text, t)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return doc
}

func (d *document) collectMeta(n *html.Node) {
	key := strings.ToLower(attr(n, "property"))
	if key == "" {
		key = strings.ToLower(attr(n, "name"))
	}
	content := strings.TrimSpace(attr(n, "content"))
	if content == "" {
		return
	}

	switch key {
	case "og:image", "og:image:url", "og:image:secure_url":
		if d.ogImage == "" {
			d.ogImage = content
		}
	case "twitter:image", "twitter:image:src":
		if d.twitterImage == "" {
			d.twitterImage = content
		}
	}
}

// imgSource 回傳合理的 img 來源，略過資料 URI、SVG、極小尺寸與明顯的裝飾圖
func imgSource(n *html.Node) string {
	src := strings.TrimSpace(attr(n, "src"))
	if src == "" {
		src = strings.TrimSpace(attr(n, "data-src"))
	}
	if src == "" || strings.HasPrefix(src, "data:") {
		return ""
	}

	lower := strings.ToLower(src)
	if strings.HasSuffix(strings.SplitN(lower, "?", 2)[0], ".svg") {
		return ""
	}
	for _, noise := range imageNoise {
		if strings.Contains(lower, noise) {
			return ""
		}
	}
	for _, dim := range []string{"width", "height"} {
		if v, err := strconv.Atoi(attr(n, dim)); err == nil && v <= 1 {
			return ""
		}
	}
	return src
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// resolveURL 轉為絕對的 http(s) 網址，無法解析時回傳空字串
func resolveURL(baseURL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	if !refURL.IsAbs() {
		base, err := url.Parse(baseURL)
		if err != nil || !base.IsAbs() {
			return ""
		}
		refURL = base.ResolveReference(refURL)
	}

	if refURL.Scheme != "http" && refURL.Scheme != "https" {
		return ""
	}
	return refURL.String()
}

func isRecipeLD(block string) bool {
	var v interface{}
	if err := json.Unmarshal([]byte(block), &v); err != nil {
		return false
	}
	return findRecipe(v) != nil
}

func recipeImageFromLD(block string) string {
	var v interface{}
	if err := json.Unmarshal([]byte(block), &v); err != nil {
		return ""
	}
	recipe := findRecipe(v)
	if recipe == nil {
		return ""
	}
	return imageValue(recipe["image"])
}

// findRecipe 在 JSON-LD 中找出 @type 為 Recipe 的節點（支援陣列與 @graph）
func findRecipe(v interface{}) map[string]interface{} {
	switch node := v.(type) {
	case []interface{}:
		for _, item := range node {
			if r := findRecipe(item); r != nil {
				return r
			}
		}
	case map[string]interface{}:
		if hasRecipeType(node["@type"]) {
			return node
		}
		if graph, ok := node["@graph"]; ok {
			return findRecipe(graph)
		}
	}
	return nil
}

func hasRecipeType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "Recipe")
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.EqualFold(s, "Recipe") {
				return true
			}
		}
	}
	return false
}

// imageValue image 可能是字串、字串陣列或 ImageObject
func imageValue(v interface{}) string {
	switch img := v.(type) {
	case string:
		return img
	case []interface{}:
		for _, item := range img {
			if s := imageValue(item); s != "" {
				return s
			}
		}
	case map[string]interface{}:
		if u, ok := img["url"].(string); ok {
			return u
		}
		if u, ok := img["contentUrl"].(string); ok {
			return u
		}
	}
	return ""
}
