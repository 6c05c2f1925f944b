package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSelector(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		changed bool
	}{
		{`#btnBuy`, `#btnBuy`, false},
		{`span:contains('결제금액')`, `span:has-text('결제금액')`, true},
		{`button:contains("확인")`, `button:has-text("확인")`, true},
		{`a:contains(로그인)`, `a:has-text("로그인")`, true},
		{``, ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, changed := NormalizeSelector(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestValidateSelector(t *testing.T) {
	assert.NoError(t, ValidateSelector("#num2"))
	assert.Error(t, ValidateSelector(""))
	assert.Error(t, ValidateSelector("   "))
	assert.Error(t, ValidateSelector("https://dhlottery.co.kr"))
}
