package resolve

// pageWindowDelta は現在ページの前後に表示するページ数。
const pageWindowDelta = 2

// PageRef はページャーの1要素。番号付きページまたは省略記号を表す。
type PageRef struct {
	// Number はページ番号。Ellipsisがtrueの場合は0。
	Number int `json:"number,omitempty"`
	// Ellipsis は折り畳まれたギャップ（…）を表す。
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// PageWindow はページャーに表示するページ参照列を計算する。
// 規則: 先頭ページと末尾ページは常に表示し、現在ページの前後2ページ
// までを表示する。連続しないギャップは1つの省略記号に折り畳む。
// ただし1ページ分のギャップは省略記号にせずそのページ番号を表示する。
// totalが1以下の場合はページャー自体が不要なためnilを返す。
func PageWindow(current, total int) []PageRef {
	if total <= 1 {
		return nil
	}

	// 表示対象のページ番号を昇順で集める
	pages := []int{1}
	lo := current - pageWindowDelta
	if lo < 2 {
		lo = 2
	}
	hi := current + pageWindowDelta
	if hi > total-1 {
		hi = total - 1
	}
	for p := lo; p <= hi; p++ {
		pages = append(pages, p)
	}
	pages = append(pages, total)

	// ギャップを省略記号に折り畳む
	window := make([]PageRef, 0, len(pages)+2)
	prev := 0
	for _, p := range pages {
		if p-prev == 2 {
			window = append(window, PageRef{Number: prev + 1})
		} else if p-prev > 2 {
			window = append(window, PageRef{Ellipsis: true})
		}
		window = append(window, PageRef{Number: p})
		prev = p
	}

	return window
}
