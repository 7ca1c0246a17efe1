package robots

import (
	"bufio"
	"io"
	"strings"
)

const disallowDirective = "Disallow:"

// ParseDisallow collects the values of every line starting with
// "Disallow:" in declaration order. User-agent groups are ignored and
// empty values are dropped.
func ParseDisallow(r io.Reader) []string {
	prefixes := make([]string, 0)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxRobotsBytes)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, disallowDirective) {
			continue
		}
		v := strings.TrimSpace(line[len(disallowDirective):])
		if v == "" {
			continue
		}
		prefixes = append(prefixes, v)
	}
	return prefixes
}
