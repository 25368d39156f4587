package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNameList(t *testing.T) {
	out := "Administrator\nGuest\n\n# disabled entries below\nkrbtgt\n  jdoe  \n"

	assert.Equal(t, []string{"Administrator", "Guest", "krbtgt", "jdoe"}, ParseNameList(out))
}

func TestParseNameList_Empty(t *testing.T) {
	assert.Empty(t, ParseNameList(""))
	assert.Empty(t, ParseNameList("\n\n# only comments\n"))
}

func TestParseKeyValueBlock(t *testing.T) {
	out := `dn: CN=John Doe,CN=Users,DC=RAGOS,DC=INTRA
sAMAccountName: jdoe
mail : jdoe@ragos.intra
this line has no separator
userAccountControl: 512
userAccountControl: 514
`
	attrs := ParseKeyValueBlock(out)

	assert.Equal(t, "jdoe", attrs["sAMAccountName"])
	assert.Equal(t, "jdoe@ragos.intra", attrs["mail"])
	// last occurrence of a repeated key wins
	assert.Equal(t, "514", attrs["userAccountControl"])
	assert.NotContains(t, attrs, "this line has no separator")
	// the dn value keeps everything after the first colon
	assert.Equal(t, "CN=John Doe,CN=Users,DC=RAGOS,DC=INTRA", attrs["dn"])
}

func TestParseGroupMembership(t *testing.T) {
	out := `dn: CN=jdoe,CN=Users,DC=RAGOS,DC=INTRA
memberOf: CN=Domain Admins,CN=Users,DC=RAGOS,DC=INTRA
memberOf: CN=Backup Operators,CN=Builtin,DC=RAGOS,DC=INTRA
memberOf: OU=malformed,DC=RAGOS,DC=INTRA
memberOf: CN=Staff,OU=Groups,DC=RAGOS,DC=INTRA
`
	groups := ParseGroupMembership(out)

	// the malformed DN (no CN= prefix) is skipped, not an error
	assert.Equal(t, []string{"Domain Admins", "Backup Operators", "Staff"}, groups)
}

func TestParseGroupMembership_NoGroups(t *testing.T) {
	assert.Empty(t, ParseGroupMembership("dn: CN=jdoe,CN=Users,DC=RAGOS,DC=INTRA\n"))
}

func TestParseUserAccountControl(t *testing.T) {
	tests := []struct {
		name    string
		attrs   map[string]string
		enabled bool
	}{
		{"normal account", map[string]string{"userAccountControl": "512"}, true},
		{"disabled account", map[string]string{"userAccountControl": "514"}, false},
		{"disabled with extra flags", map[string]string{"userAccountControl": "66050"}, false},
		{"missing attribute defaults to enabled", map[string]string{}, true},
		{"unparseable value defaults to enabled", map[string]string{"userAccountControl": "n/a"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.enabled, ParseUserAccountControl(tc.attrs))
		})
	}
}
