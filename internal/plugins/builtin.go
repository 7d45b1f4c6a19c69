package plugins

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"dashboard/internal/domain"
	"dashboard/internal/engine"
)

// ─────────────────────────────────────────────────────────────
// Built-in block renderers
// ─────────────────────────────────────────────────────────────

// Builtins maps every block type shipped with the editor to its renderer.
func Builtins() map[string]engine.Renderer {
	return map[string]engine.Renderer{
		"title":        renderTitle,
		"price":        renderPrice,
		"vendor":       renderVendor,
		"image":        renderImage,
		"description":  renderDescription,
		"button":       renderButton,
		"badge":        renderBadge,
		"rating":       renderRating,
		"text":         renderText,
		"spacer":       renderSpacer,
		"product_card": renderProductCard,
		"search_bar":   renderSearchBar,
		"filter_group": renderFilterGroup,
		"sort_select":  renderSortSelect,
		"pagination":   renderPagination,
		"product_grid": renderProductGrid,
	}
}

// RegisterBuiltins adds the built-in renderers to reg.
func RegisterBuiltins(reg *engine.Registry) error {
	for blockType, fn := range Builtins() {
		if err := reg.Register(blockType, fn); err != nil {
			return fmt.Errorf("register builtin %s: %w", blockType, err)
		}
	}
	return nil
}

// NewRegistry returns a registry holding the built-in renderers.
func NewRegistry(opts ...engine.RegistryOption) *engine.Registry {
	reg := engine.NewRegistry(opts...)
	for blockType, fn := range Builtins() {
		reg.MustRegister(blockType, fn)
	}
	return reg
}

// ── Product blocks ─────────────────────────────────────────

func renderTitle(b domain.RuntimeBlock, ctx *engine.RenderContext) string {
	text := setting(b, "text", productString(ctx, "title"))
	tag := "h3"
	switch setting(b, "tag", "") {
	case "h1", "h2", "h3", "h4", "p":
		tag = setting(b, "tag", "")
	}
	return open(b, tag, "tpl-title", fontSizeStyle(b)) + esc(text) + "</" + tag + ">"
}

func renderPrice(b domain.RuntimeBlock, ctx *engine.RenderContext) string {
	currency := setting(b, "currency", "$")
	price, ok := productFloat(ctx, "price")
	if !ok {
		return open(b, "div", "tpl-price tpl-price--empty", fontSizeStyle(b)) + "</div>"
	}
	var sb strings.Builder
	sb.WriteString(open(b, "div", "tpl-price", fontSizeStyle(b)))
	sb.WriteString(`<span class="tpl-price__current">` + esc(formatMoney(currency, price)) + `</span>`)
	if compare, ok := productFloat(ctx, "compare_at_price"); ok && compare > price && flag(b, "show_compare_at", true) {
		sb.WriteString(`<s class="tpl-price__compare">` + esc(formatMoney(currency, compare)) + `</s>`)
	}
	sb.WriteString("</div>")
	return sb.String()
}

func renderVendor(b domain.RuntimeBlock, ctx *engine.RenderContext) string {
	vendor := productString(ctx, "vendor")
	if vendor == "" {
		vendor = setting(b, "text", "")
	}
	if flag(b, "uppercase", false) {
		vendor = strings.ToUpper(vendor)
	}
	return open(b, "p", "tpl-vendor", fontSizeStyle(b)) + esc(vendor) + "</p>"
}

func renderImage(b domain.RuntimeBlock, ctx *engine.RenderContext) string {
	src := productString(ctx, "image")
	if src == "" {
		src = setting(b, "src", "")
	}
	alt := productString(ctx, "title")
	ratio := setting(b, "aspect_ratio", "1/1")
	style := "aspect-ratio:" + ratio
	if src == "" {
		return open(b, "div", "tpl-image tpl-image--placeholder", style) + "</div>"
	}
	return open(b, "figure", "tpl-image", style) +
		`<img src="` + esc(src) + `" alt="` + esc(alt) + `" loading="lazy"></figure>`
}

func renderDescription(b domain.RuntimeBlock, ctx *engine.RenderContext) string {
	body := productString(ctx, "description")
	if body == "" {
		body = setting(b, "text", "")
	}
	if n, err := strconv.Atoi(setting(b, "max_length", "0")); err == nil && n > 0 && len([]rune(body)) > n {
		body = string([]rune(body)[:n]) + "…"
	}
	return open(b, "div", "tpl-description", fontSizeStyle(b)) + Markdown(body) + "</div>"
}

func renderButton(b domain.RuntimeBlock, ctx *engine.RenderContext) string {
	label := setting(b, "label", "Add to cart")
	style := ""
	if accent := globalString(ctx, "accent"); accent != "" {
		style = "background:" + accent
	}
	if available, ok := ctx.Product["available"].(bool); ok && !available {
		return open(b, "button", "tpl-button", style, "disabled") + esc(setting(b, "sold_out_label", "Sold out")) + "</button>"
	}
	return open(b, "button", "tpl-button", style) + esc(label) + "</button>"
}

func renderBadge(b domain.RuntimeBlock, ctx *engine.RenderContext) string {
	text := setting(b, "text", "")
	if text == "" {
		price, ok1 := productFloat(ctx, "price")
		compare, ok2 := productFloat(ctx, "compare_at_price")
		if !ok1 || !ok2 || compare <= price {
			return ""
		}
		text = "Sale"
	}
	return open(b, "span", "tpl-badge tpl-badge--"+esc(setting(b, "style", "accent")), "") + esc(text) + "</span>"
}

func renderRating(b domain.RuntimeBlock, ctx *engine.RenderContext) string {
	rating, ok := productFloat(ctx, "rating")
	if !ok {
		return ""
	}
	full := int(rating)
	half := rating-float64(full) >= 0.5
	var stars strings.Builder
	for i := 0; i < 5; i++ {
		switch {
		case i < full:
			stars.WriteString("★")
		case i == full && half:
			stars.WriteString("⯨")
		default:
			stars.WriteString("☆")
		}
	}
	label := fmt.Sprintf("%.1f out of 5", rating)
	return open(b, "div", "tpl-rating", "") + `<span aria-label="` + esc(label) + `">` + stars.String() + "</span></div>"
}

// ── Content blocks ─────────────────────────────────────────

func renderText(b domain.RuntimeBlock, _ *engine.RenderContext) string {
	body := setting(b, "text", "")
	if setting(b, "format", "markdown") == "html" {
		body = SanitizeHTML(body)
	} else {
		body = Markdown(body)
	}
	return open(b, "div", "tpl-text", fontSizeStyle(b)) + body + "</div>"
}

func renderSpacer(b domain.RuntimeBlock, _ *engine.RenderContext) string {
	height := setting(b, "height", "16")
	if _, err := strconv.Atoi(height); err != nil {
		height = "16"
	}
	return open(b, "div", "tpl-spacer", "height:"+height+"px") + "</div>"
}

// ── Containers ─────────────────────────────────────────────

// renderProductCard renders its children bound to one product: the one in
// the context, else the first sample product.
func renderProductCard(b domain.RuntimeBlock, ctx *engine.RenderContext) string {
	card := *ctx
	if card.Product == nil {
		card.Product = catalog(ctx)[0]
	}
	var sb strings.Builder
	sb.WriteString(open(b, "article", "tpl-product-card", ""))
	for _, child := range b.Blocks {
		sb.WriteString(card.RenderBlock(child))
	}
	sb.WriteString("</article>")
	return sb.String()
}

// renderProductGrid repeats its child blocks once per catalogue product.
func renderProductGrid(b domain.RuntimeBlock, ctx *engine.RenderContext) string {
	columns := setting(b, "columns", "")
	if columns == "" {
		columns = areaString(ctx, "columns", "3")
	}
	limit, _ := strconv.Atoi(setting(b, "products_per_page", "0"))
	products := catalog(ctx)
	if limit > 0 && limit < len(products) {
		products = products[:limit]
	}

	var sb strings.Builder
	sb.WriteString(open(b, "div", "tpl-product-grid", "grid-template-columns:repeat("+columns+",1fr)"))
	for _, p := range products {
		item := *ctx
		item.Product = p
		sb.WriteString(`<div class="tpl-product-grid__item" data-product-id="` + esc(fmt.Sprint(p["id"])) + `">`)
		for _, child := range b.Blocks {
			sb.WriteString(item.RenderBlock(child))
		}
		sb.WriteString("</div>")
	}
	sb.WriteString("</div>")
	return sb.String()
}

// ── Collection controls ────────────────────────────────────

func renderSearchBar(b domain.RuntimeBlock, _ *engine.RenderContext) string {
	placeholder := setting(b, "placeholder", "Search products")
	return open(b, "form", "tpl-search", "", `role="search"`) + `<input type="search" name="q" placeholder="` + esc(placeholder) + `"></form>`
}

func renderFilterGroup(b domain.RuntimeBlock, _ *engine.RenderContext) string {
	title := setting(b, "title", b.Label)
	display := setting(b, "display", string(domain.DisplayCheckbox))
	var values []string
	for _, v := range strings.Split(setting(b, "values", ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	var sb strings.Builder
	var attrs []string
	if !flag(b, "collapsed", false) {
		attrs = append(attrs, "open")
	}
	sb.WriteString(open(b, "details", "tpl-filter-group tpl-filter-group--"+esc(display), "", attrs...))
	sb.WriteString(`<summary>` + esc(title) + `</summary>`)
	if display == string(domain.DisplayRange) {
		sb.WriteString(`<input type="number" name="min" placeholder="Min"><input type="number" name="max" placeholder="Max">`)
	} else {
		inputType := "checkbox"
		if display == string(domain.DisplayRadio) {
			inputType = "radio"
		}
		sb.WriteString("<ul>")
		for _, v := range values {
			sb.WriteString(`<li><label><input type="` + inputType + `" value="` + esc(v) + `">` + esc(v) + `</label></li>`)
		}
		sb.WriteString("</ul>")
	}
	sb.WriteString("</details>")
	return sb.String()
}

var sortOptions = []struct{ value, label string }{
	{"featured", "Featured"},
	{"price-ascending", "Price, low to high"},
	{"price-descending", "Price, high to low"},
	{"title-ascending", "Alphabetically, A-Z"},
	{"created-descending", "Date, new to old"},
}

func renderSortSelect(b domain.RuntimeBlock, _ *engine.RenderContext) string {
	current := setting(b, "default_sort", "featured")
	var sb strings.Builder
	sb.WriteString(open(b, "label", "tpl-sort", ""))
	sb.WriteString(esc(setting(b, "label", "Sort by")) + `<select name="sort_by">`)
	for _, o := range sortOptions {
		sel := ""
		if o.value == current {
			sel = " selected"
		}
		sb.WriteString(`<option value="` + o.value + `"` + sel + `>` + esc(o.label) + `</option>`)
	}
	sb.WriteString("</select></label>")
	return sb.String()
}

func renderPagination(b domain.RuntimeBlock, _ *engine.RenderContext) string {
	pages, err := strconv.Atoi(setting(b, "pages", "3"))
	if err != nil || pages < 1 {
		pages = 1
	}
	var sb strings.Builder
	sb.WriteString(open(b, "nav", "tpl-pagination", "", `aria-label="Pagination"`) + "<ol>")
	for i := 1; i <= pages; i++ {
		if i == 1 {
			sb.WriteString(`<li aria-current="page">1</li>`)
			continue
		}
		sb.WriteString(fmt.Sprintf(`<li><a href="?page=%d">%d</a></li>`, i, i))
	}
	sb.WriteString("</ol></nav>")
	return sb.String()
}

// ── helpers ────────────────────────────────────────────────

// open writes the opening tag shared by every block. data-block-id lets the
// editor map preview clicks back to blocks. attrs are appended verbatim and
// must already be escaped.
func open(b domain.RuntimeBlock, tag, class, style string, attrs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<` + tag + ` class="` + class + `" data-block-id="` + esc(b.ID) + `" data-block-type="` + esc(b.BlockType) + `"`)
	if style != "" {
		sb.WriteString(` style="` + esc(style) + `"`)
	}
	for _, a := range attrs {
		sb.WriteString(" " + a)
	}
	sb.WriteString(">")
	return sb.String()
}

func esc(s string) string { return html.EscapeString(s) }

func setting(b domain.RuntimeBlock, key, fallback string) string {
	v, ok := b.Settings[key]
	if !ok || v == nil {
		return fallback
	}
	s := fmt.Sprint(v)
	if s == "" {
		return fallback
	}
	return s
}

func flag(b domain.RuntimeBlock, key string, fallback bool) bool {
	switch v := b.Settings[key].(type) {
	case bool:
		return v
	case string:
		if p, err := strconv.ParseBool(v); err == nil {
			return p
		}
	}
	return fallback
}

func fontSizeStyle(b domain.RuntimeBlock) string {
	if size := setting(b, "font_size", ""); size != "" {
		return "font-size:" + size
	}
	return ""
}

func productString(ctx *engine.RenderContext, key string) string {
	if ctx == nil || ctx.Product == nil {
		return ""
	}
	if v, ok := ctx.Product[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

func productFloat(ctx *engine.RenderContext, key string) (float64, bool) {
	if ctx == nil || ctx.Product == nil {
		return 0, false
	}
	switch v := ctx.Product[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

func globalString(ctx *engine.RenderContext, key string) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Global[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

func areaString(ctx *engine.RenderContext, key, fallback string) string {
	if ctx == nil {
		return fallback
	}
	if v, ok := ctx.AreaSettings[key]; ok && v != nil && fmt.Sprint(v) != "" {
		return fmt.Sprint(v)
	}
	return fallback
}

func catalog(ctx *engine.RenderContext) []map[string]any {
	if ctx != nil && len(ctx.Products) > 0 {
		return ctx.Products
	}
	return SampleProducts()
}

func formatMoney(currency string, amount float64) string {
	return currency + strconv.FormatFloat(amount, 'f', 2, 64)
}
