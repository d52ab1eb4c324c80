package post

// CategoryAll is the synthetic filter option matching every post. It never
// appears in the derived category set.
const CategoryAll = "all"

// Page sizes of the two list views. They are independent instantiations of
// the same projection.
const (
	PublicPageSize = 9
	AdminPageSize  = 6
)

// View is the derived, read-only state a list page renders: one page window
// of the filtered posts plus the data the filter and pager controls need.
type View struct {
	PageItems  []Post
	TotalPages int
	Categories []string
}

// Project derives the view for one list page from the full snapshot and the
// current selection. Pure: it never mutates its inputs and holds no state.
// A page beyond the last one yields an empty PageItems, not an error; the
// pager clamps on the next navigation.
func Project(snapshot []Post, selectedCategory string, currentPage, pageSize int) View {
	filtered := Filter(snapshot, selectedCategory)
	return View{
		PageItems:  pageWindow(filtered, currentPage, pageSize),
		TotalPages: TotalPages(len(filtered), pageSize),
		Categories: Categories(snapshot),
	}
}

// Categories returns the unique category values of the snapshot in
// first-seen order.
func Categories(snapshot []Post) []string {
	seen := make(map[string]struct{}, len(snapshot))
	out := make([]string, 0, len(snapshot))
	for _, p := range snapshot {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// Filter returns the posts matching the selected category, preserving
// relative order. CategoryAll is the identity filter.
func Filter(snapshot []Post, selectedCategory string) []Post {
	if selectedCategory == CategoryAll || selectedCategory == "" {
		return snapshot
	}
	out := make([]Post, 0, len(snapshot))
	for _, p := range snapshot {
		if p.Category == selectedCategory {
			out = append(out, p)
		}
	}
	return out
}

// TotalPages is max(1, ceil(n / pageSize)): even an empty list has one page.
func TotalPages(n, pageSize int) int {
	if n <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

func pageWindow(filtered []Post, currentPage, pageSize int) []Post {
	if currentPage < 1 {
		currentPage = 1
	}
	start := (currentPage - 1) * pageSize
	if start >= len(filtered) {
		return []Post{}
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

// Pager holds one view's selection state and owns the two navigation
// policies: selecting a category resets the page to 1, while a shrinking
// snapshot only clamps the page when the user next navigates.
type Pager struct {
	Category string
	Page     int
}

// NewPager starts on page 1 with the identity filter.
func NewPager() Pager {
	return Pager{Category: CategoryAll, Page: 1}
}

// SelectCategory switches the filter and resets the page to 1, whatever the
// prior page was.
func (p *Pager) SelectCategory(category string) {
	p.Category = category
	p.Page = 1
}

// Navigate moves to page, clamped into [1, totalPages]. This is the only
// place the page is clamped; snapshot changes never move it on their own.
func (p *Pager) Navigate(page, totalPages int) {
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	p.Page = page
}
