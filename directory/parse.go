package directory

import (
	"strconv"
	"strings"
)

// ACCOUNTDISABLE bit of userAccountControl.
const uacAccountDisable = 0x2

// ParseNameList parses line-oriented `user list` / `group list` output: one
// name per non-empty line, comment lines starting with '#' ignored.
func ParseNameList(text string) []string {
	names := []string{}
	for line := range strings.SplitSeq(text, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		names = append(names, name)
	}
	return names
}

// ParseKeyValueBlock parses `user show` / `domain info` style output. Lines
// are split on the first colon, keys and values trimmed; lines without a
// colon are ignored and the last occurrence of a repeated key wins.
func ParseKeyValueBlock(text string) map[string]string {
	attrs := make(map[string]string)
	for line := range strings.SplitSeq(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		attrs[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return attrs
}

// ParseGroupMembership extracts group names from the memberOf attributes of
// raw `user show` output. memberOf repeats per group, so it has to be read
// from the lines rather than the collapsed key/value map. A value is a DN
// like "CN=Domain Admins,CN=Users,DC=RAGOS,DC=INTRA"; DNs not starting with
// CN= are skipped rather than treated as errors.
func ParseGroupMembership(text string) []string {
	groups := []string{}
	for line := range strings.SplitSeq(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(key) != "memberOf" {
			continue
		}
		dn := strings.TrimSpace(value)
		if !strings.HasPrefix(dn, "CN=") {
			continue
		}
		name, _, _ := strings.Cut(dn, ",")
		groups = append(groups, strings.TrimPrefix(name, "CN="))
	}
	return groups
}

// ParseUserAccountControl reports whether the account is enabled based on the
// userAccountControl attribute. A missing or unparseable attribute defaults
// to enabled: this read feeds display and login gating, and a lookup glitch
// must not lock users out (the admin check is the opposite, see authn).
func ParseUserAccountControl(attrs map[string]string) bool {
	raw, ok := attrs["userAccountControl"]
	if !ok {
		return true
	}
	uac, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return true
	}
	return uac&uacAccountDisable == 0
}
