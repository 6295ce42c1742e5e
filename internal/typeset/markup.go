package typeset

import (
	"strings"
)

// baseSize is the point size of \normalsize.
const baseSize = 16.0

var sizeCommands = map[string]float64{
	`\tiny`:       0.5,
	`\scriptsize`: 0.7,
	`\small`:      0.9,
	`\normalsize`: 1,
	`\large`:      1.2,
	`\Large`:      1.44,
	`\LARGE`:      1.728,
	`\huge`:       2.074,
	`\Huge`:       2.488,
}

// Earlier pairs win when several match at the same position.
var symbols = strings.NewReplacer(
	`\left`, "",
	`\right`, "",
	`\times`, "×",
	`\cdot`, "·",
	`\div`, "÷",
	`\pm`, "±",
	`\neq`, "≠",
	`\leq`, "≤",
	`\geq`, "≥",
	`\le`, "≤",
	`\ge`, "≥",
	`\approx`, "≈",
	`\infty`, "∞",
	`\pi`, "π",
	`\theta`, "θ",
	`\alpha`, "α",
	`\beta`, "β",
	`\sqrt`, "√",
	`^{2}`, "²",
	`^{3}`, "³",
	`^2`, "²",
	`^3`, "³",
	`\,`, " ",
	`\ `, " ",
)

// Parse turns display-math markup such as \(\LARGE{x = 5}\) into plain text
// and a point size. Unknown commands are kept verbatim.
func Parse(markup string) (string, float64) {
	s := strings.TrimSpace(markup)
	s = trimPair(s, `\(`, `\)`)
	s = trimPair(s, `\[`, `\]`)
	s = trimPair(s, `$$`, `$$`)
	s = strings.TrimSpace(s)

	size := baseSize
	for cmd, scale := range sizeCommands {
		rest, ok := strings.CutPrefix(s, cmd)
		if !ok {
			continue
		}
		// The command must end at a brace or space.
		if rest != "" && rest[0] != '{' && rest[0] != ' ' {
			continue
		}
		size = baseSize * scale
		s = strings.TrimSpace(rest)
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			s = s[1 : len(s)-1]
		}
		break
	}

	s = symbols.Replace(s)
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	return strings.TrimSpace(s), size
}

func trimPair(s, open, close string) string {
	if len(s) >= len(open)+len(close) && strings.HasPrefix(s, open) && strings.HasSuffix(s, close) {
		return s[len(open) : len(s)-len(close)]
	}
	return s
}
