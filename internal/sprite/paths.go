package sprite

import "strings"

// AtlasFileName returns the atlas file name for a sheet: "-sprite" is appended
// unless the name already mentions "sprite".
func AtlasFileName(sheet string) string {
	if strings.Contains(sheet, "sprite") {
		return sheet + ".png"
	}
	return sheet + "-sprite.png"
}
