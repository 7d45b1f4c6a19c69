package plugins

// SampleProducts is the catalogue grids and cards fall back to when the
// editor has no live product data.
func SampleProducts() []map[string]any {
	return []map[string]any{
		{
			"id": "sample-1", "title": "Linen Shirt", "vendor": "Northwind",
			"price": 49.0, "compare_at_price": 65.0, "rating": 4.5, "available": true,
			"image":       "https://cdn.example.com/products/linen-shirt.jpg",
			"description": "Breathable **linen** for warm days.",
		},
		{
			"id": "sample-2", "title": "Canvas Tote", "vendor": "Harbor & Co",
			"price": 24.0, "rating": 4.0, "available": true,
			"image":       "https://cdn.example.com/products/canvas-tote.jpg",
			"description": "Heavy canvas tote with an inside pocket.",
		},
		{
			"id": "sample-3", "title": "Wool Beanie", "vendor": "Northwind",
			"price": 18.5, "rating": 3.5, "available": false,
			"image":       "https://cdn.example.com/products/wool-beanie.jpg",
			"description": "Merino blend. Back in stock soon.",
		},
	}
}
