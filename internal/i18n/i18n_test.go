package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogsHaveSameKeys(t *testing.T) {
	for _, l := range Locales {
		for key := range catalogs[EN] {
			assert.Contains(t, catalogs[l], key, "locale %s missing %s", l, key)
		}
		assert.Len(t, catalogs[l], len(catalogs[EN]), "locale %s", l)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name       string
		stored     string
		configured string
		env        []string
		want       Locale
	}{
		{"stored wins", "es", "zh", []string{"zh_CN.UTF-8"}, ES},
		{"configured next", "", "zh", []string{"es_ES.UTF-8"}, ZH},
		{"lang env", "", "", []string{"", "zh_TW.UTF-8"}, ZH},
		{"spanish region", "", "", []string{"es_MX"}, ES},
		{"unsupported env", "", "", []string{"fr_FR.UTF-8"}, EN},
		{"posix", "", "", []string{"C"}, EN},
		{"garbage stored ignored", "klingon!!", "", []string{"es_AR.UTF-8"}, ES},
		{"nothing", "", "", nil, EN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.stored, tt.configured, tt.env...))
		})
	}
}

func TestT_Interpolation(t *testing.T) {
	b := NewBundle(EN)
	assert.Equal(t, "Next train in 3 min", b.T("nextTrain", map[string]string{"min": "3"}))
	assert.Equal(t, "No Northbound departures", b.T("noDepartures", map[string]string{"dir": "Northbound"}))
	assert.Equal(t, "missingKey", b.T("missingKey"))
}

func TestSetLocale_NotifiesWithoutRebuild(t *testing.T) {
	b := NewBundle(EN)
	var seen []Locale
	unsubscribe := b.Subscribe(func(l Locale) { seen = append(seen, l) })

	require.True(t, b.SetLocale(ZH))
	assert.Equal(t, "线路图", b.T("transitMap"))
	assert.Equal(t, "下一班列车 5 分钟", b.T("nextTrain", map[string]string{"min": "5"}))

	assert.True(t, b.SetLocale(ZH), "same locale is accepted")
	assert.False(t, b.SetLocale("fr"))
	assert.Equal(t, ZH, b.Locale())

	unsubscribe()
	b.SetLocale(ES)
	assert.Equal(t, []Locale{ZH}, seen)
	assert.Equal(t, "Mapa", b.T("transitMap"))
}
