package portal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLoginURL(t *testing.T) {
	assert.True(t, IsLoginURL("https://www.dhlottery.co.kr/login"))
	assert.True(t, IsLoginURL("https://www.dhlottery.co.kr/user.do?method=login&returnUrl="))
	assert.False(t, IsLoginURL(MyPageURL))
	assert.False(t, IsLoginURL(Lotto645URL))
}

func TestLoadCatalogWithoutFileReturnsDefaults(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, Default(), catalog)
}

func TestLoadCatalogOverridesOnlyListedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	content := `
lotto645:
  pay_amount: ["#newPayAmt", "span:contains('결제금액')"]
account:
  deposit: ["#deposit"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"#newPayAmt", `span:has-text('결제금액')`}, catalog.Lotto645.PayAmount)
	assert.Equal(t, []string{"#deposit"}, catalog.Account.Deposit)
	assert.Equal(t, Default().Lotto645.Buy, catalog.Lotto645.Buy)
	assert.Equal(t, Default().Session, catalog.Session)
}

func TestLoadCatalogRejectsURLSelector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lotto645:\n  buy: [\"https://evil/buy\"]\n"), 0o600))

	_, err := LoadCatalog(path)
	require.Error(t, err)
}

func TestLoadCatalogRejectsNumberTemplateWithoutVerb(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lotto645:\n  number: \"label.num\"\n"), 0o600))

	_, err := LoadCatalog(path)
	require.Error(t, err)
}
