package session

import (
	"bufio"
	"os"
	"strings"
)

// LoadCookieHeader parses a Netscape-format cookie jar into a Cookie header
// value ("name=value; name=value"). The file is read once at startup and the
// result treated as immutable, so request handling never races a rewrite of
// the on-disk jar.
func LoadCookieHeader(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var pairs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Netscape jar columns: domain, flag, path, secure, expiry, name, value.
		fields := strings.Split(line, "\t")
		if len(fields) >= 7 {
			pairs = append(pairs, fields[5]+"="+fields[6])
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.Join(pairs, "; "), nil
}
