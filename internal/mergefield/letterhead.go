package mergefield

import (
	"fmt"
	"html"
)

// Page geometry of the school letterhead, in millimetres.
const (
	PageWidthMM    = 210.0
	PageHeightMM   = 297.0
	MarginTopMM    = 50.0
	MarginBottomMM = 33.0
	MarginSideMM   = 12.7
)

// Wrap places rendered content on an A4 letterhead page for HTML preview.
// backgroundURL may be empty.
func Wrap(content, backgroundURL string) string {
	bg := ""
	if backgroundURL != "" {
		bg = fmt.Sprintf("background-image: url(%s); background-size: cover; background-position: center; background-repeat: no-repeat; ",
			html.EscapeString(backgroundURL))
	}
	return fmt.Sprintf(`<div style="width: %gmm; min-height: %gmm; %spadding: %gmm %gmm %gmm %gmm; box-sizing: border-box; font-family: Arial, sans-serif; font-size: 12px; line-height: 1.5; color: black;">
%s
</div>`, PageWidthMM, PageHeightMM, bg, MarginTopMM, MarginSideMM, MarginBottomMM, MarginSideMM, content)
}
